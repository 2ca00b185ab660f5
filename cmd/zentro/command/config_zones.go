package command

import (
	"fmt"
	"time"

	"github.com/nzcve71300/zentro-zones/internal/zones"
	"github.com/pixil98/go-errors"
)

// Built-in zone defaults, used where the config file is silent. New
// servers inherit these until a reconfiguration stores their own.
var defaultColors = zones.StateColors{
	Pending: zones.Color{R: 255, G: 255, B: 0},
	Active:  zones.Color{R: 0, G: 255, B: 0},
	Offline: zones.Color{R: 255, G: 0, B: 0},
}

const (
	defaultRadius       = 50
	defaultCheckRadius  = 150.0
	defaultOfflineGrace = 30 * time.Minute
	defaultExpire       = 35 * time.Hour
)

type ZoneConfig struct {
	Radius       int                `json:"radius,omitempty"`
	CheckRadius  float64            `json:"check_radius,omitempty"`
	Colors       *zones.StateColors `json:"colors,omitempty"`
	OfflineGrace string             `json:"offline_grace,omitempty"`
	Expire       string             `json:"expire,omitempty"`
}

func (c *ZoneConfig) validate() error {
	el := errors.NewErrorList()

	if c.Radius < 0 {
		el.Add(fmt.Errorf("radius must not be negative"))
	}
	if c.CheckRadius < 0 {
		el.Add(fmt.Errorf("check_radius must not be negative"))
	}
	if c.OfflineGrace != "" {
		if _, err := time.ParseDuration(c.OfflineGrace); err != nil {
			el.Add(fmt.Errorf("parsing offline_grace: %w", err))
		}
	}
	if c.Expire != "" {
		if _, err := time.ParseDuration(c.Expire); err != nil {
			el.Add(fmt.Errorf("parsing expire: %w", err))
		}
	}

	return el.Err()
}

// Defaults resolves the configured values against the built-ins.
func (c *ZoneConfig) Defaults() (zones.Defaults, error) {
	d := zones.Defaults{
		Radius:       defaultRadius,
		CheckRadius:  defaultCheckRadius,
		Colors:       defaultColors,
		OfflineGrace: defaultOfflineGrace,
		Expire:       defaultExpire,
	}

	if c.Radius != 0 {
		d.Radius = c.Radius
	}
	if c.CheckRadius != 0 {
		d.CheckRadius = c.CheckRadius
	}
	if c.Colors != nil {
		d.Colors = *c.Colors
	}
	if c.OfflineGrace != "" {
		grace, err := time.ParseDuration(c.OfflineGrace)
		if err != nil {
			return zones.Defaults{}, fmt.Errorf("parsing offline_grace: %w", err)
		}
		d.OfflineGrace = grace
	}
	if c.Expire != "" {
		expire, err := time.ParseDuration(c.Expire)
		if err != nil {
			return zones.Defaults{}, fmt.Errorf("parsing expire: %w", err)
		}
		d.Expire = expire
	}

	return d, nil
}
