package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const rootLong = `cfgstruct recovers structured control flow (if/else, loops,
try/except/finally and with) from the flow graphs of descriptor files.

Examples:
  cfgstruct units.yaml                  # Print structured trees as text
  cfgstruct -o json units.yaml          # Trees and diagnostics as JSON
  cfgstruct --dot out/ units.json       # Also write each input graph as dot
  cfgstruct -c cfgstruct.yaml units.mp  # Read defaults from a config file`

func newRootCmd() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:          "cfgstruct [files...]",
		Short:        "Recover structured control flow from flow graphs",
		Long:         rootLong,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := loadOptions(v, cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return run(ctx, opts, cmd.OutOrStdout(), cmd.ErrOrStderr(), args)
		},
	}

	cmd.PersistentFlags().StringP("config", "c", "", "Configuration file path")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	cmd.Flags().String("input", "", "Input format (yaml|json|msgpack, default: from extension)")
	cmd.Flags().StringP("output", "o", "text", "Output format (text|yaml|json|msgpack)")
	cmd.Flags().String("out", "", "Output file (default: stdout)")
	cmd.Flags().String("dot", "", "Directory to write input graphs as graphviz dot")
	cmd.Flags().Int("workers", 0, "Units structured at once (0 = GOMAXPROCS)")
	cmd.Flags().Int("dup-budget", 0, "Block duplications allowed per unit (0 = automatic)")
	cmd.Flags().Duration("timeout", 0, "Abandon structuring after this long (0 = no limit)")
	return cmd
}
