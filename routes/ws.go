package routes

import (
	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"eldercare-server/middleware"
	ws "eldercare-server/websocket"
)

type wsHandler struct {
	hub      *ws.Hub
	upgrader *gorillaws.Upgrader
}

func (h *wsHandler) connect(c *gin.Context) {
	actor := middleware.CurrentActor(c)
	ws.ServeWebSocket(h.hub, h.upgrader, c.Writer, c.Request, actor.ID, actor.Role)
}
