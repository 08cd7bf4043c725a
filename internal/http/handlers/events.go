package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/classloop/classloop-backend/internal/http/middleware"
	"github.com/classloop/classloop-backend/internal/realtime"
)

type EventsHandler struct {
	hub *realtime.Hub
}

func NewEventsHandler(hub *realtime.Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// GET /api/events/stream
//
// Subscribes the caller to their own teacher channel and streams engine
// events until the connection drops.
func (h *EventsHandler) Stream(c *gin.Context) {
	actorID := middleware.ActorID(c)
	client := h.hub.NewClient(actorID)
	h.hub.AddChannel(client, actorID.String())
	defer h.hub.CloseClient(client)

	h.hub.ServeHTTP(c.Writer, c.Request, client)
}
