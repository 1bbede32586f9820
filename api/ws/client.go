package ws

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"yqhp/fractal-engine/pkg/types"
)

// ClientConfig holds worker-side connection settings.
type ClientConfig struct {
	// MasterAddr is host:port or an http(s)/ws(s) URL of the master.
	MasterAddr string

	// WorkerID is sent at registration.
	WorkerID string

	// Version is reported to the master.
	Version string

	// HandshakeTimeout bounds dialing and registration. Zero means no limit.
	HandshakeTimeout time.Duration
}

// Client is a worker's connection to the master. It implements worker.Conn.
type Client struct {
	config *ClientConfig
	conn   *websocket.Conn
	id     string
	job    *types.JobSpec

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// Dial connects to the master and registers. The returned client carries the
// job the master is running.
func Dial(ctx context.Context, config *ClientConfig) (*Client, error) {
	if config.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.HandshakeTimeout)
		defer cancel()
	}

	wsURL := toWebSocketURL(config.MasterAddr) + WorkerPath
	dialer := websocket.Dialer{HandshakeTimeout: config.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", wsURL, err)
	}

	c := &Client{config: config, conn: conn, id: config.WorkerID}

	// unblock the handshake reads if ctx ends first
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := c.register(); err != nil {
		_ = conn.Close()
		if ctx.Err() != nil {
			return nil, fmt.Errorf("register: %w", ctx.Err())
		}
		return nil, err
	}
	return c, nil
}

func (c *Client) register() error {
	hostname, _ := os.Hostname()
	frame, err := encodeMessage(types.WSMsgRegister, types.WorkerRegisterRequest{
		WorkerID: c.config.WorkerID,
		Hostname: hostname,
		Version:  c.config.Version,
	})
	if err != nil {
		return err
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("send register message: %w", err)
	}

	_, raw, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("read register ack: %w", err)
	}
	msg, err := decodeMessage(raw)
	if err != nil {
		return fmt.Errorf("parse register ack: %w", err)
	}
	if msg.Type != types.WSMsgRegisterAck {
		return fmt.Errorf("%w: %s during registration", ErrUnexpectedMessage, msg.Type)
	}

	resp, err := decodePayload[types.WorkerRegisterResponse](msg)
	if err != nil {
		return fmt.Errorf("parse register ack: %w", err)
	}
	if !resp.Accepted {
		return fmt.Errorf("%w: %s", ErrRejected, resp.Error)
	}
	if resp.Job == nil {
		return fmt.Errorf("%w: ack carries no job", ErrUnexpectedMessage)
	}
	if resp.AssignedID != "" {
		c.id = resp.AssignedID
	}
	c.job = resp.Job
	return nil
}

// ID returns the ID the master registered this worker under.
func (c *Client) ID() string { return c.id }

// Job returns the job received at registration.
func (c *Client) Job() *types.JobSpec { return c.job }

// Receive blocks until the master sends work or the termination signal.
func (c *Client) Receive(ctx context.Context) (types.Assignment, error) {
	stop := context.AfterFunc(ctx, func() { _ = c.conn.Close() })
	defer stop()

	_, raw, err := c.conn.ReadMessage()
	if err != nil {
		if ctx.Err() != nil {
			return types.Assignment{}, ctx.Err()
		}
		return types.Assignment{}, fmt.Errorf("read assignment: %w", err)
	}

	msg, err := decodeMessage(raw)
	if err != nil {
		return types.Assignment{}, fmt.Errorf("parse assignment: %w", err)
	}

	switch msg.Type {
	case types.WSMsgTerminate:
		return types.TerminateAssignment(), nil
	case types.WSMsgWork:
		unit, err := decodePayload[types.WorkUnit](msg)
		if err != nil {
			return types.Assignment{}, fmt.Errorf("parse work unit: %w", err)
		}
		return types.WorkAssignment(unit), nil
	default:
		return types.Assignment{}, fmt.Errorf("%w: %s", ErrUnexpectedMessage, msg.Type)
	}
}

// Send delivers a finished row.
func (c *Client) Send(ctx context.Context, result types.ResultUnit) error {
	result.WorkerID = c.id
	frame, err := encodeMessage(types.WSMsgResult, result)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(deadline)
		defer c.conn.SetWriteDeadline(time.Time{})
	}
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}

// Close sends a close frame and closes the connection.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	return err
}

// toWebSocketURL converts an HTTP(s) URL or bare host:port to a ws:// URL.
func toWebSocketURL(raw string) string {
	raw = strings.TrimSuffix(raw, "/")
	switch {
	case strings.HasPrefix(raw, "ws://"), strings.HasPrefix(raw, "wss://"):
		return raw
	case strings.HasPrefix(raw, "https://"):
		return "wss://" + strings.TrimPrefix(raw, "https://")
	case strings.HasPrefix(raw, "http://"):
		return "ws://" + strings.TrimPrefix(raw, "http://")
	default:
		return "ws://" + raw
	}
}
