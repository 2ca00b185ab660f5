package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
)

const (
	DefaultRefreshInterval = time.Minute
	DefaultCleanupInterval = time.Hour
)

type Config struct {
	RefreshInterval string         `json:"refresh_interval"`
	CleanupInterval string         `json:"cleanup_interval"`
	Storage         StorageConfig  `json:"storage"`
	Nats            NatsConfig     `json:"nats"`
	Servers         []ServerConfig `json:"servers"`
	Zones           ZoneConfig     `json:"zones"`
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	if c.RefreshInterval != "" {
		d, err := time.ParseDuration(c.RefreshInterval)
		if err != nil {
			el.Add(fmt.Errorf("parsing refresh_interval: %w", err))
		} else if d < time.Second {
			el.Add(fmt.Errorf("refresh_interval must be at least 1 second"))
		}
	}

	if c.CleanupInterval != "" {
		d, err := time.ParseDuration(c.CleanupInterval)
		if err != nil {
			el.Add(fmt.Errorf("parsing cleanup_interval: %w", err))
		} else if d < time.Minute {
			el.Add(fmt.Errorf("cleanup_interval must be at least 1 minute"))
		}
	}

	if len(c.Servers) == 0 {
		el.Add(fmt.Errorf("at least one server is required"))
	}
	seen := map[string]bool{}
	for i, s := range c.Servers {
		if err := s.validate(); err != nil {
			el.Add(fmt.Errorf("server %d: %w", i, err))
		}
		if seen[s.ID] {
			el.Add(fmt.Errorf("server %d: duplicate id %q", i, s.ID))
		}
		seen[s.ID] = true
	}

	el.Add(c.Storage.validate())
	el.Add(c.Nats.validate())
	el.Add(c.Zones.validate())

	return el.Err()
}

func (c *Config) refreshInterval() (time.Duration, error) {
	if c.RefreshInterval == "" {
		return DefaultRefreshInterval, nil
	}
	return time.ParseDuration(c.RefreshInterval)
}

func (c *Config) cleanupInterval() (time.Duration, error) {
	if c.CleanupInterval == "" {
		return DefaultCleanupInterval, nil
	}
	return time.ParseDuration(c.CleanupInterval)
}
