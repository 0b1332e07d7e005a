package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"jmsmp/config"
	"jmsmp/internal/auth"
	"jmsmp/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type inboundMessage struct {
	Action string `json:"action"`
}

// Upgrade authenticates the socket, joins the caller's own session room and,
// on request, the admin room (allow-list checked server-side).
func Upgrade(cfg *config.JWTConfig, hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		token := c.Query("token")
		if token == "" {
			conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"token required"}`))
			return
		}
		claims, err := auth.ParseToken(cfg, token)
		if err != nil {
			conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"invalid token"}`))
			return
		}
		client := &Client{
			UserID:   claims.UserID,
			Username: claims.Username,
			Role:     claims.Role,
			Send:     make(chan []byte, 256),
		}
		hub.JoinRoom(client, UserRoom(claims.UserID))
		defer client.Close()
		go writePump(client, conn)
		readPump(client, hub, conn)
	}
}

func writePump(c *Client, conn *websocket.Conn) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-c.Send:
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func readPump(c *Client, hub *Hub, conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg inboundMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		switch msg.Action {
		case "join-admin":
			if domain.Allowed(domain.OpReviewApplications, c.Role) {
				hub.JoinRoom(c, AdminRoom)
			}
		case "heartbeat":
			resp, _ := json.Marshal(map[string]interface{}{
				"event": "heartbeat-response",
				"data":  map[string]int64{"timestamp": time.Now().UnixMilli()},
			})
			select {
			case c.Send <- resp:
			default:
			}
		}
	}
}
