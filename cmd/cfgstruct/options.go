package main

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// options are the settings of one run, from flags, environment variables
// (CFGSTRUCT_*) and the config file, in that order of precedence.
type options struct {
	Verbose   bool          `mapstructure:"verbose"`
	Input     string        `mapstructure:"input"`
	Output    string        `mapstructure:"output"`
	Out       string        `mapstructure:"out"`
	Dot       string        `mapstructure:"dot"`
	Workers   int           `mapstructure:"workers"`
	DupBudget int           `mapstructure:"dup-budget"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

func loadOptions(v *viper.Viper, cmd *cobra.Command) (*options, error) {
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	v.SetEnvPrefix("cfgstruct")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config %s", path)
		}
	}

	var opts options
	if err := v.Unmarshal(&opts); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &opts, nil
}
