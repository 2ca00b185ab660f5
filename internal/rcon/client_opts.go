package rcon

import (
	"time"

	"github.com/gorilla/websocket"
)

type ClientOpt func(*Client)

// WithTimeout bounds a single command round trip.
func WithTimeout(d time.Duration) ClientOpt {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRetries sets how many times a failed command is reissued.
func WithRetries(n int) ClientOpt {
	return func(c *Client) {
		c.retries = n
	}
}

// WithBaseDelay sets the first backoff interval between retries.
func WithBaseDelay(d time.Duration) ClientOpt {
	return func(c *Client) {
		c.baseDelay = d
	}
}

func WithDialer(d *websocket.Dialer) ClientOpt {
	return func(c *Client) {
		c.dialer = d
	}
}
