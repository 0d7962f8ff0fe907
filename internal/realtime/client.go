package realtime

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/pantry-sync-api/internal/models"
)

// Transport is the raw connection behind a client. Only the client's writer
// goroutine calls Write; Ping and Close may be called from anywhere.
type Transport interface {
	Write(frame []byte) error
	Read() ([]byte, error)
	Ping() error
	OnPong(func())
	Close() error
}

// Client is one authenticated operator connection.
type Client struct {
	id          string
	session     models.Session
	token       string
	connectedAt time.Time

	transport Transport
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	alive     atomic.Bool
	logger    *zap.Logger
}

func newClient(id string, session models.Session, token string, connectedAt time.Time, t Transport, buffer int, logger *zap.Logger) *Client {
	c := &Client{
		id:          id,
		session:     session,
		token:       token,
		connectedAt: connectedAt,
		transport:   t,
		send:        make(chan []byte, buffer),
		done:        make(chan struct{}),
		logger:      logger.With(zap.String("connection_id", id), zap.String("username", session.Username)),
	}
	c.alive.Store(true)
	t.OnPong(c.markAlive)
	return c
}

// ID is the registry key, unique per (username, connect time).
func (c *Client) ID() string { return c.id }

// Username of the operator behind the connection.
func (c *Client) Username() string { return c.session.Username }

// ConnectedAt is when the handshake completed.
func (c *Client) ConnectedAt() time.Time { return c.connectedAt }

// Done is closed once the connection is closed.
func (c *Client) Done() <-chan struct{} { return c.done }

func (c *Client) markAlive() { c.alive.Store(true) }

// enqueue hands a frame to the writer without blocking. It reports false
// when the frame was dropped.
func (c *Client) enqueue(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *Client) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case frame := <-c.send:
			if frame == nil {
				c.close()
				return
			}
			if err := c.transport.Write(frame); err != nil {
				c.logger.Warn("realtime write failed", zap.Error(err))
				c.close()
				return
			}
		}
	}
}

// closeAfter queues a final frame and closes the connection once it has
// been written.
func (c *Client) closeAfter(frame []byte) {
	if !c.enqueue(frame) || !c.enqueue(nil) {
		c.close()
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if err := c.transport.Close(); err != nil {
			c.logger.Debug("realtime close", zap.Error(err))
		}
	})
}
