package scheduler

import (
	"time"
)

// Config controls reconciliation intervals and batch sizes.
type Config struct {
	RunInterval       time.Duration
	BatchSize         int
	RentDueOffsetDays int
	EnabledJobs       []string
}

func DefaultConfig() Config {
	return Config{
		RunInterval:       time.Minute,
		BatchSize:         100,
		RentDueOffsetDays: 5,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.RunInterval <= 0 {
		c.RunInterval = defaults.RunInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.RentDueOffsetDays <= 0 {
		c.RentDueOffsetDays = defaults.RentDueOffsetDays
	}
	return c
}
