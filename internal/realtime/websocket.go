package realtime

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/pantry-sync-api/pkg/errors"
	"github.com/noah-isme/pantry-sync-api/pkg/response"
)

const maxInboundFrame = 64 << 10

// wsTransport adapts a gorilla connection to Transport.
type wsTransport struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	pongMu       sync.Mutex
	onPong       func()
}

func newWSTransport(conn *websocket.Conn, writeTimeout time.Duration) *wsTransport {
	t := &wsTransport{conn: conn, writeTimeout: writeTimeout}
	conn.SetReadLimit(maxInboundFrame)
	conn.SetPongHandler(func(string) error {
		t.pongMu.Lock()
		fn := t.onPong
		t.pongMu.Unlock()
		if fn != nil {
			fn()
		}
		return nil
	})
	return t
}

func (t *wsTransport) Write(frame []byte) error {
	if err := t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout)); err != nil {
		return err
	}
	return t.conn.WriteMessage(websocket.TextMessage, frame)
}

func (t *wsTransport) Read() ([]byte, error) {
	for {
		kind, frame, err := t.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if kind == websocket.TextMessage || kind == websocket.BinaryMessage {
			return frame, nil
		}
	}
}

func (t *wsTransport) Ping() error {
	return t.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(t.writeTimeout))
}

func (t *wsTransport) OnPong(fn func()) {
	t.pongMu.Lock()
	t.onPong = fn
	t.pongMu.Unlock()
}

func (t *wsTransport) Close() error {
	_ = t.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return t.conn.Close()
}

// HandshakeConfig controls how upgrade requests are authenticated.
type HandshakeConfig struct {
	CookieName   string
	WriteTimeout time.Duration
	CheckOrigin  func(*http.Request) bool
}

// Handler authenticates upgrade requests and hands admitted connections to
// the hub. Requests that fail verification are answered with 401 and never
// upgraded.
func (h *Hub) Handler(cfg HandshakeConfig) gin.HandlerFunc {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     cfg.CheckOrigin,
	}

	return func(c *gin.Context) {
		token := Credential(c.Request, cfg.CookieName)
		session, err := h.verifier.Verify(c.Request.Context(), token)
		if err != nil {
			h.logger.Warn("realtime handshake rejected", zap.String("ip", c.ClientIP()), zap.Error(err))
			if !errors.Is(err, appErrors.ErrAuthRequired) {
				err = appErrors.Wrap(err, appErrors.ErrAuthRequired.Code, appErrors.ErrAuthRequired.Status, appErrors.ErrAuthRequired.Message)
			}
			response.Error(c, err)
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			h.logger.Warn("websocket upgrade failed", zap.String("username", session.Username), zap.Error(err))
			return
		}

		client := h.Register(*session, token, newWSTransport(conn, cfg.WriteTimeout))
		h.Serve(c.Request.Context(), client)
	}
}

// Credential extracts the session token from a bearer header, the session
// cookie or the token query parameter, in that order.
func Credential(r *http.Request, cookieName string) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookieName != "" {
		if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
			return cookie.Value
		}
	}
	return r.URL.Query().Get("token")
}
