package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/pantry-sync-api/internal/models"
	appErrors "github.com/noah-isme/pantry-sync-api/pkg/errors"
)

// SessionVerifier resolves a credential into a live session.
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (*models.Session, error)
}

// Metrics receives hub counters. Implementations must be safe for
// concurrent use.
type Metrics interface {
	SetLiveConnections(n int)
	RecordBroadcast(kind string, delivered, dropped int)
	RecordEviction()
}

// Config tunes the hub.
type Config struct {
	SendBuffer       int
	LivenessInterval time.Duration
	MOTD             string
}

// Hub owns the registry of live operator connections and fans events out
// to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client

	verifier SessionVerifier
	cfg      Config
	logger   *zap.Logger
	metrics  Metrics
	now      func() time.Time
}

// NewHub constructs an empty hub.
func NewHub(verifier SessionVerifier, cfg Config, logger *zap.Logger, metrics Metrics) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 64
	}
	if cfg.LivenessInterval <= 0 {
		cfg.LivenessInterval = 30 * time.Second
	}
	return &Hub{
		clients:  make(map[string]*Client),
		verifier: verifier,
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Register admits an already authenticated transport, greets it and tells
// every operator about the new roster.
func (h *Hub) Register(session models.Session, token string, t Transport) *Client {
	connectedAt := h.now().UTC()

	h.mu.Lock()
	id := fmt.Sprintf("%s@%d", session.Username, connectedAt.UnixNano())
	for seq := 1; h.clients[id] != nil; seq++ {
		id = fmt.Sprintf("%s@%d-%d", session.Username, connectedAt.UnixNano(), seq)
	}
	c := newClient(id, session, token, connectedAt, t, h.cfg.SendBuffer, h.logger)
	h.clients[id] = c
	live := len(h.clients)
	h.mu.Unlock()

	go c.writeLoop()
	h.metrics.SetLiveConnections(live)
	h.logger.Info("operator connected", zap.String("connection_id", id), zap.String("username", session.Username))

	if frame, err := json.Marshal(Envelope{MessageType: MessageMOTD, Data: MOTD{
		Text:         h.cfg.MOTD,
		ConnectionID: id,
		Username:     session.Username,
	}}); err == nil {
		c.enqueue(frame)
	}
	h.broadcastRoster()
	return c
}

// Unregister closes and removes a connection. Removing an unknown or
// already removed connection is a no-op.
func (h *Hub) Unregister(c *Client) {
	if h.remove(c) {
		h.broadcastRoster()
	}
}

func (h *Hub) remove(c *Client) bool {
	h.mu.Lock()
	current, ok := h.clients[c.id]
	if ok && current == c {
		delete(h.clients, c.id)
	}
	live := len(h.clients)
	h.mu.Unlock()

	c.close()
	if !ok || current != c {
		return false
	}
	h.metrics.SetLiveConnections(live)
	h.logger.Info("operator disconnected", zap.String("connection_id", c.id), zap.String("username", c.Username()))
	return true
}

// Publish serialises env once and queues it on every connection except the
// excluded ids. Slow or closed recipients lose the frame; nobody blocks.
func (h *Hub) Publish(env Envelope, exclude ...string) (delivered int) {
	frame, err := json.Marshal(env)
	if err != nil {
		h.logger.Error("realtime envelope marshal failed", zap.String("topic", env.Topic), zap.Error(err))
		return 0
	}

	skip := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}

	dropped := 0
	for _, c := range h.snapshot() {
		if _, ok := skip[c.id]; ok {
			continue
		}
		if c.enqueue(frame) {
			delivered++
			continue
		}
		dropped++
		h.logger.Warn("realtime frame dropped",
			zap.String("connection_id", c.id),
			zap.String("message_type", env.MessageType),
			zap.String("topic", env.Topic),
		)
	}

	kind := env.MessageType
	if kind == "" {
		kind = "topic"
	}
	h.metrics.RecordBroadcast(kind, delivered, dropped)
	return delivered
}

// Roster lists live connections ordered by connect time.
func (h *Hub) Roster() []RosterEntry {
	clients := h.snapshot()
	roster := make([]RosterEntry, 0, len(clients))
	for _, c := range clients {
		roster = append(roster, RosterEntry{Username: c.Username(), ConnectionID: c.id, ConnectedAt: c.connectedAt})
	}
	sort.Slice(roster, func(i, j int) bool {
		if roster[i].ConnectedAt.Equal(roster[j].ConnectedAt) {
			return roster[i].ConnectionID < roster[j].ConnectionID
		}
		return roster[i].ConnectedAt.Before(roster[j].ConnectedAt)
	})
	return roster
}

// Run pings connections every liveness interval until ctx is done, then
// closes every connection.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.cfg.LivenessInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-ticker.C:
			h.Sweep()
		}
	}
}

// Sweep runs one liveness cycle. A connection that has not answered the
// previous ping is evicted; the others are pinged again. It returns the
// number of evicted connections.
func (h *Hub) Sweep() int {
	var dead []*Client
	for _, c := range h.snapshot() {
		if !c.alive.Swap(false) {
			dead = append(dead, c)
			continue
		}
		if err := c.transport.Ping(); err != nil {
			c.logger.Warn("liveness ping failed", zap.Error(err))
			dead = append(dead, c)
		}
	}

	removed := 0
	for _, c := range dead {
		if h.remove(c) {
			removed++
			h.metrics.RecordEviction()
			h.logger.Warn("dead connection evicted", zap.String("connection_id", c.id), zap.String("username", c.Username()))
		}
	}
	if removed > 0 {
		h.broadcastRoster()
	}
	return removed
}

// Serve reads frames from c until the connection ends. Every frame is
// re-authorised against the session store before it is acted on.
func (h *Hub) Serve(ctx context.Context, c *Client) {
	defer h.Unregister(c)

	for {
		frame, err := c.transport.Read()
		if err != nil {
			select {
			case <-c.done:
			default:
				h.logger.Debug("realtime read ended", zap.String("connection_id", c.id), zap.Error(err))
			}
			return
		}
		c.markAlive()

		if _, err := h.verifier.Verify(ctx, c.token); err != nil {
			h.logger.Warn("realtime re-authorization failed", zap.String("connection_id", c.id), zap.Error(err))
			c.closeAfter(errorFrame(appErrors.ErrAuthRequired.Code, "session expired or revoked"))
			select {
			case <-c.done:
			case <-time.After(time.Second):
			}
			return
		}

		var in Inbound
		if err := json.Unmarshal(frame, &in); err != nil {
			c.enqueue(errorFrame(appErrors.ErrValidation.Code, "malformed frame"))
			continue
		}

		switch in.MessageType {
		case MessageMessage:
			h.Publish(Envelope{MessageType: MessageMessage, Data: ChatMessage{From: c.Username(), Body: in.Data}}, c.id)
		default:
			c.enqueue(errorFrame(appErrors.ErrValidation.Code, fmt.Sprintf("unsupported message type %q", in.MessageType)))
		}
	}
}

func (h *Hub) broadcastRoster() {
	h.Publish(Envelope{MessageType: MessageUsers, Data: h.Roster()})
}

func (h *Hub) snapshot() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	return clients
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[string]*Client)
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
	h.metrics.SetLiveConnections(0)
}

func errorFrame(code, message string) []byte {
	frame, _ := json.Marshal(Envelope{MessageType: MessageError, Data: ErrorPayload{Code: code, Message: message}})
	return frame
}

type noopMetrics struct{}

func (noopMetrics) SetLiveConnections(int) {}

func (noopMetrics) RecordBroadcast(string, int, int) {}

func (noopMetrics) RecordEviction() {}
