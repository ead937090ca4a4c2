package websocket

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startRelayServer serves one websocket endpoint whose relay is fed from the
// given channel instead of a live pub/sub subscription.
func startRelayServer(t *testing.T, messages <-chan *goredis.Message) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	gateway := NewGateway(nil)

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		conn, err := gateway.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		gateway.relay(c.Request.Context(), "u1", conn, messages, make(chan struct{}))
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dialRelay(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestRelayForwardsPayloadBytesVerbatim(t *testing.T) {
	messages := make(chan *goredis.Message, 3)
	srv := startRelayServer(t, messages)
	conn := dialRelay(t, srv)

	payloads := []string{
		`{"event":"response","token":"Par","interactionId":"i-1"}`,
		`{"event":"status","message":"Just a second, forming final answer..."}`,
		"tokens may carry unicode: café élève 東京",
	}
	for _, p := range payloads {
		messages <- &goredis.Message{Payload: p}
	}

	for _, want := range payloads {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		msgType, got, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, websocket.TextMessage, msgType)
		assert.Equal(t, []byte(want), got)
	}
}

func TestRelayExitsWhenSourceCloses(t *testing.T) {
	messages := make(chan *goredis.Message)
	srv := startRelayServer(t, messages)
	conn := dialRelay(t, srv)

	close(messages)

	// The relay returns, the handler closes the connection, and the client
	// read fails instead of hanging.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
