package structure

import (
	"runtime"

	"github.com/nickng/gostruct/internal/logger"
)

// Config is the configuration of structuring passes.
type Config struct {
	logger    *logger.Logger
	dupBudget int // Maximum block duplications per unit, 0 for automatic.
	workers   int
}

// NewConfig returns the default configuration.
func NewConfig() *Config {
	return &Config{
		logger:  logger.Nop(),
		workers: runtime.GOMAXPROCS(0),
	}
}

// WithLogger sets the logger of the engine and detectors.
func (c *Config) WithLogger(l *logger.Logger) *Config {
	c.logger = l
	return c
}

// WithDupBudget limits how many blocks may be duplicated per unit.
func (c *Config) WithDupBudget(n int) *Config {
	c.dupBudget = n
	return c
}

// WithWorkers sets the number of units StructureAll structures at once.
func (c *Config) WithWorkers(n int) *Config {
	if n > 0 {
		c.workers = n
	}
	return c
}

// budget returns the duplication budget for a unit of n blocks.
func (c *Config) budget(n int) int {
	if c.dupBudget > 0 {
		return c.dupBudget
	}
	return 8*n + 64
}
