package httpgin

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/hryhoriev/parkgo/internal/ws"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// gate displays and the operator console connect cross-origin
		return true
	},
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 65536
)

// WebSocketUpgrade upgrades the connection and runs the observer session.
func WebSocketUpgrade(hub *ws.Hub, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", "error", err)
			return
		}

		client := ws.NewClient()
		hub.Register(client)

		// a gateId query parameter subscribes before the first frame arrives
		if gateID := c.Query("gateId"); gateID != "" {
			hub.Subscribe(client, gateID)
		}

		go writePump(conn, client)
		go readPump(conn, client, hub, logger)
	}
}

// writePump pumps queued messages from the hub to the connection.
func writePump(conn *websocket.Conn, client *ws.Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump pumps observer commands from the connection to the hub.
func readPump(conn *websocket.Conn, client *ws.Client, hub *ws.Hub, logger *slog.Logger) {
	defer func() {
		hub.Unregister(client)
		conn.Close()
	}()

	conn.SetReadLimit(maxMsgSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket read failed", "error", err)
			}
			break
		}

		handleCommand(message, client, hub)
	}
}

// handleCommand processes one observer command. Replies go through the hub's
// send queue so the write pump stays the connection's only writer.
func handleCommand(message []byte, client *ws.Client, hub *ws.Hub) {
	var cmd ws.Command
	if err := json.Unmarshal(message, &cmd); err != nil {
		hub.SendTo(client, ws.NewMessage(ws.TypeError, ws.ErrorPayload{
			Code:    "bad_message",
			Message: "malformed command",
		}))
		return
	}

	switch cmd.Type {
	case ws.TypeSubscribe, ws.TypeUnsubscribe:
		var p ws.GatePayload
		if err := json.Unmarshal(cmd.Payload, &p); err != nil || p.GateID == "" {
			hub.SendTo(client, ws.NewMessage(ws.TypeError, ws.ErrorPayload{
				Code:         "bad_payload",
				Message:      "gateId required",
				OriginalType: string(cmd.Type),
			}))
			return
		}
		if cmd.Type == ws.TypeSubscribe {
			hub.Subscribe(client, p.GateID)
		} else {
			hub.Unsubscribe(client, p.GateID)
		}

	case ws.TypePing:
		hub.SendTo(client, ws.NewMessage(ws.TypePong, nil))

	default:
		hub.SendTo(client, ws.NewMessage(ws.TypeError, ws.ErrorPayload{
			Code:         "unknown_type",
			Message:      "unsupported command",
			OriginalType: string(cmd.Type),
		}))
	}
}
