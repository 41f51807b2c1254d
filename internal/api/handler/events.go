package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/bullscows/internal/model"
	"github.com/mcoot/bullscows/internal/web/sse"
)

// EventsHandler streams room broadcasts to watchers over SSE
type EventsHandler struct {
	hubManager *sse.HubManager
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hubManager *sse.HubManager) *EventsHandler {
	return &EventsHandler{hubManager: hubManager}
}

// Stream handles GET /api/v1/rooms/{id}/events
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	id := model.RoomID(mux.Vars(r)["id"])
	sse.ServeSSE(w, r, h.hubManager, id)
}
