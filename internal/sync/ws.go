package sync

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"foodgram/internal/logging"
)

// WSHandler upgrades the request and keeps the socket registered until the
// client goes away. allowOrigin nil accepts any origin.
func WSHandler(hub *Hub, allowOrigin func(origin string) bool) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if allowOrigin == nil {
				return true
			}
			return allowOrigin(r.Header.Get("Origin"))
		},
	}

	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		log := logging.Ctx(c.Request.Context())

		_ = ws.WriteMessage(websocket.TextMessage, hub.welcomeLine("websocket"))
		hub.AddWS(ws)
		log.Debug().Msg("ws client connected")

		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}

		hub.RemoveWS(ws)
		log.Debug().Msg("ws client disconnected")
	}
}
