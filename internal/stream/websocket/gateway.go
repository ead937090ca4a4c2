// Package websocket bridges a user's Redis pub/sub channel to a browser
// websocket. Payloads are forwarded verbatim so the wire protocol is
// identical on both hops.
package websocket

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	goredis "github.com/redis/go-redis/v9"

	"github.com/docschat/docschat/internal/logger"
	"github.com/docschat/docschat/internal/stream"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

// Gateway upgrades HTTP connections and relays channel events.
type Gateway struct {
	client   *goredis.Client
	upgrader websocket.Upgrader
}

// NewGateway creates the websocket gateway.
func NewGateway(client *goredis.Client) *Gateway {
	return &Gateway{
		client: client,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin enforcement happens in the CORS layer.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handle serves GET /ws/:user_id.
func (g *Gateway) Handle(c *gin.Context) {
	userID := c.Param("user_id")
	ctx := c.Request.Context()

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Errorf(ctx, "websocket upgrade failed for user %s: %v", userID, err)
		return
	}
	defer conn.Close()

	sub := g.client.Subscribe(ctx, stream.ChannelName(userID))
	defer sub.Close()

	// Reader goroutine: drains client frames and detects disconnects.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	g.relay(ctx, userID, conn, sub.Channel(), done)
}

// relay copies channel payloads to the websocket verbatim until the source
// closes, the peer disconnects or the context ends.
func (g *Gateway) relay(
	ctx context.Context, userID string, conn *websocket.Conn,
	messages <-chan *goredis.Message, done <-chan struct{},
) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-messages:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				logger.Warnf(ctx, "websocket write failed for user %s: %v", userID, err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		case <-ctx.Done():
			return
		}
	}
}
