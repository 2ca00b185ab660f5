package command

import (
	"fmt"
	"time"

	"github.com/nzcve71300/zentro-zones/internal/rcon"
	"github.com/pixil98/go-errors"
)

type ServerConfig struct {
	ID       string `json:"id"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Password string `json:"password"`

	// Optional overrides for the control-channel retry policy.
	Timeout   string `json:"timeout,omitempty"`
	Retries   *int   `json:"retries,omitempty"`
	BaseDelay string `json:"base_delay,omitempty"`
}

func (c *ServerConfig) validate() error {
	el := errors.NewErrorList()

	if c.ID == "" {
		el.Add(fmt.Errorf("id is required"))
	}
	if c.Host == "" {
		el.Add(fmt.Errorf("host is required"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		el.Add(fmt.Errorf("port must be between 1 and 65535"))
	}
	if c.Password == "" {
		el.Add(fmt.Errorf("password is required"))
	}
	if c.Timeout != "" {
		if _, err := time.ParseDuration(c.Timeout); err != nil {
			el.Add(fmt.Errorf("parsing timeout: %w", err))
		}
	}
	if c.Retries != nil && *c.Retries < 0 {
		el.Add(fmt.Errorf("retries must not be negative"))
	}
	if c.BaseDelay != "" {
		if _, err := time.ParseDuration(c.BaseDelay); err != nil {
			el.Add(fmt.Errorf("parsing base_delay: %w", err))
		}
	}

	return el.Err()
}

func (c *ServerConfig) BuildClient() (*rcon.Client, error) {
	var opts []rcon.ClientOpt
	if c.Timeout != "" {
		d, err := time.ParseDuration(c.Timeout)
		if err != nil {
			return nil, fmt.Errorf("parsing timeout: %w", err)
		}
		opts = append(opts, rcon.WithTimeout(d))
	}
	if c.Retries != nil {
		opts = append(opts, rcon.WithRetries(*c.Retries))
	}
	if c.BaseDelay != "" {
		d, err := time.ParseDuration(c.BaseDelay)
		if err != nil {
			return nil, fmt.Errorf("parsing base_delay: %w", err)
		}
		opts = append(opts, rcon.WithBaseDelay(d))
	}

	return rcon.NewClient(rcon.ConnectionInfo{
		ServerID: c.ID,
		Host:     c.Host,
		Port:     c.Port,
		Password: c.Password,
	}, opts...), nil
}
