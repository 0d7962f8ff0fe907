package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWSServer(t *testing.T, hub *Hub) (string, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws", hub.Handler(HandshakeConfig{CookieName: "pantry_session", WriteTimeout: time.Second}))
	srv := httptest.NewServer(r)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws", srv.Close
}

func dial(t *testing.T, url, token string) *websocket.Conn {
	t.Helper()
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) decoded {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var d decoded
	require.NoError(t, conn.ReadJSON(&d))
	return d
}

func TestHandshakeRejectsUnauthenticated(t *testing.T) {
	verifier := newStubVerifier()
	hub := NewHub(verifier, Config{}, nil, nil)
	url, stop := newWSServer(t, hub)
	defer stop()

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	header := http.Header{}
	header.Set("Authorization", "Bearer revoked-token")
	_, resp, err = websocket.DefaultDialer.Dial(url, header)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, hub.Roster())
}

func TestWebsocketFanOutSkipsOriginator(t *testing.T) {
	verifier := newStubVerifier()
	verifier.add("tok-a", "alice", 50)
	verifier.add("tok-b", "bob", 50)
	hub := NewHub(verifier, Config{MOTD: "hello"}, nil, nil)
	url, stop := newWSServer(t, hub)
	defer stop()

	a := dial(t, url, "tok-a")
	defer a.Close()
	motd := readEnvelope(t, a)
	require.Equal(t, MessageMOTD, motd.MessageType)
	var greeting MOTD
	require.NoError(t, json.Unmarshal(motd.Data, &greeting))
	require.Equal(t, "alice", greeting.Username)
	require.Equal(t, MessageUsers, readEnvelope(t, a).MessageType)

	b := dial(t, url, "tok-b")
	defer b.Close()
	require.Equal(t, MessageMOTD, readEnvelope(t, b).MessageType)
	require.Equal(t, MessageUsers, readEnvelope(t, b).MessageType)
	require.Equal(t, MessageUsers, readEnvelope(t, a).MessageType)

	topic := FulfilledTopic("2024-05-06", "Smith")
	hub.Publish(Envelope{Topic: topic, Data: FulfillmentChanged{Distribution: "2024-05-06", Family: "Smith"}}, greeting.ConnectionID)

	got := readEnvelope(t, b)
	assert.Equal(t, topic, got.Topic)
	assert.JSONEq(t, `{"fulfilled":false,"distribution":"2024-05-06","family":"Smith","day":null,"time":null}`, string(got.Data))

	require.NoError(t, a.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := a.ReadMessage()
	require.Error(t, err)
	var netErr interface{ Timeout() bool }
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())
}

func TestWebsocketDisconnectUpdatesRoster(t *testing.T) {
	verifier := newStubVerifier()
	verifier.add("tok-a", "alice", 50)
	verifier.add("tok-b", "bob", 20)
	hub := NewHub(verifier, Config{}, nil, nil)
	url, stop := newWSServer(t, hub)
	defer stop()

	a := dial(t, url, "tok-a")
	defer a.Close()
	readEnvelope(t, a)
	readEnvelope(t, a)

	b := dial(t, url, "tok-b")
	readEnvelope(t, a)
	require.NoError(t, b.Close())

	users := readEnvelope(t, a)
	require.Equal(t, MessageUsers, users.MessageType)
	var roster []RosterEntry
	require.NoError(t, json.Unmarshal(users.Data, &roster))
	require.Len(t, roster, 1)
	assert.Equal(t, "alice", roster[0].Username)
}

func TestCredentialSources(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ws?token=from-query", nil)
	assert.Equal(t, "from-query", Credential(req, "pantry_session"))

	req.AddCookie(&http.Cookie{Name: "pantry_session", Value: "from-cookie"})
	assert.Equal(t, "from-cookie", Credential(req, "pantry_session"))

	req.Header.Set("Authorization", "Bearer from-header")
	assert.Equal(t, "from-header", Credential(req, "pantry_session"))
}
