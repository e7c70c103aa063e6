package handlers

import (
	"github.com/labstack/echo/v4"

	"yoursell/internal/infrastructure/websocket"
)

type WebSocketHandler struct {
	ws *websocket.Handler
}

func NewWebSocketHandler(ws *websocket.Handler) *WebSocketHandler {
	return &WebSocketHandler{ws: ws}
}

// HandleConnection joins the caller to an auction's live room. The user id
// comes from the query so browser websocket clients need no custom headers.
func (h *WebSocketHandler) HandleConnection(c echo.Context) error {
	h.ws.HandleConnection(c.Response(), c.Request(), c.Param("id"), c.QueryParam("user_id"))
	return nil
}
