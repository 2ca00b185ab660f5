// Package rcon implements the websocket control channel used to query and
// configure a game server. One client per server connection; commands are
// plain text, replies are correlated by frame identifier.
package rcon

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// clientName tags outgoing frames so the server attributes the
	// commands to this process in its console log.
	clientName = "ZentroZones"

	DefaultTimeout = 10 * time.Second
)

// ConnectionInfo identifies one game server's control-channel endpoint.
type ConnectionInfo struct {
	ServerID string
	Host     string
	Port     int
	Password string
}

// URL renders the websocket endpoint. The password is the URL path.
func (c ConnectionInfo) URL() string {
	u := url.URL{
		Scheme: "ws",
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.Password,
	}
	return u.String()
}

// frame is the wire envelope, both directions.
type frame struct {
	Identifier int    `json:"Identifier"`
	Message    string `json:"Message"`
	Name       string `json:"Name,omitempty"`
}

// Client sends commands over a single websocket connection, reconnecting
// lazily after failures. All sends are serialized; the engine processes
// one zone at a time per server so contention is not a concern.
type Client struct {
	info    ConnectionInfo
	dialer  *websocket.Dialer
	timeout time.Duration

	retries   int
	baseDelay time.Duration

	mu     sync.Mutex
	conn   *websocket.Conn
	nextID int
}

func NewClient(info ConnectionInfo, opts ...ClientOpt) *Client {
	c := &Client{
		info:      info,
		dialer:    websocket.DefaultDialer,
		timeout:   DefaultTimeout,
		retries:   DefaultRetries,
		baseDelay: DefaultBaseDelay,
		nextID:    1,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ServerID returns the identifier of the server this client talks to.
func (c *Client) ServerID() string {
	return c.info.ServerID
}

// Send issues one command and returns the server's reply. A failure at
// any point tears down the connection so the next call redials.
func (c *Client) Send(ctx context.Context, command string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.connect(ctx); err != nil {
		return "", err
	}

	id := c.nextID
	c.nextID++

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return "", c.fail(fmt.Errorf("setting write deadline: %w", err))
	}
	if err := c.conn.WriteJSON(frame{Identifier: id, Message: command, Name: clientName}); err != nil {
		return "", c.fail(fmt.Errorf("writing command: %w", err))
	}

	// The channel also carries unsolicited console frames (identifier 0)
	// and late replies to abandoned commands. Read until our identifier.
	for {
		if err := c.conn.SetReadDeadline(deadline); err != nil {
			return "", c.fail(fmt.Errorf("setting read deadline: %w", err))
		}

		var resp frame
		if err := c.conn.ReadJSON(&resp); err != nil {
			return "", c.fail(fmt.Errorf("reading reply: %w", err))
		}
		if resp.Identifier == id {
			return resp.Message, nil
		}
	}
}

// connect dials the endpoint if there is no live connection. Callers hold mu.
func (c *Client) connect(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}

	conn, _, err := c.dialer.DialContext(ctx, c.info.URL(), nil)
	if err != nil {
		return fmt.Errorf("dialing %s:%d: %w", c.info.Host, c.info.Port, err)
	}
	c.conn = conn

	return nil
}

// fail drops the connection and passes err through. Callers hold mu.
func (c *Client) fail(err error) error {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	return err
}

// Close tears down the connection. The client remains usable; the next
// Send redials.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
