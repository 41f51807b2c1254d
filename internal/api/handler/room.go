package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/bullscows/internal/api/response"
	"github.com/mcoot/bullscows/internal/model"
	"github.com/mcoot/bullscows/internal/services/history"
	"github.com/mcoot/bullscows/internal/services/lobby"
)

// maxHistoryLimit caps the limit query parameter
const maxHistoryLimit = 100

// RoomHandler handles room-related endpoints
type RoomHandler struct {
	lobbyController *lobby.Controller
	history         *history.Recorder
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(lobbyController *lobby.Controller, history *history.Recorder) *RoomHandler {
	return &RoomHandler{
		lobbyController: lobbyController,
		history:         history,
	}
}

// Create handles POST /api/v1/rooms. The room itself comes into being when
// the first player joins it.
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	id := h.lobbyController.NewRoomID()
	response.JSON(w, http.StatusCreated, response.NewRoom{RoomID: string(id)})
}

// Get handles GET /api/v1/rooms/{id}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.RoomID(mux.Vars(r)["id"])
	response.JSON(w, http.StatusOK, response.RoomStatusFromModel(id, h.lobbyController.Status(id)))
}

// History handles GET /api/v1/rooms/{id}/history
func (h *RoomHandler) History(w http.ResponseWriter, r *http.Request) {
	id := model.RoomID(mux.Vars(r)["id"])

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			WriteError(w, NewInvalidRequestError("limit must be a positive integer"))
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	summaries, err := h.history.List(r.Context(), id, limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	matches := make([]response.MatchSummary, len(summaries))
	for i, s := range summaries {
		matches[i] = response.MatchSummaryFromModel(s)
	}
	response.JSON(w, http.StatusOK, response.History{RoomID: string(id), Matches: matches})
}
