package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/mcoot/bullscows/internal/api/handler"
	"github.com/mcoot/bullscows/internal/api/middleware"
	mw "github.com/mcoot/bullscows/internal/middleware"
	"github.com/mcoot/bullscows/internal/services/history"
	"github.com/mcoot/bullscows/internal/services/lobby"
	"github.com/mcoot/bullscows/internal/web/sse"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger          *slog.Logger
	LobbyController *lobby.Controller
	History         *history.Recorder
	HubManager      *sse.HubManager
	// Socket serves the websocket upgrade at /ws
	Socket http.Handler
	// CORSOrigins defaults to allowing every origin
	CORSOrigins []string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	roomHandler := handler.NewRoomHandler(cfg.LobbyController, cfg.History)
	eventsHandler := handler.NewEventsHandler(cfg.HubManager)

	// Create middleware
	loggingMiddleware := mw.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Health check endpoint
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// Room routes
	api.HandleFunc("/rooms", roomHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/rooms/{id}", roomHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{id}/history", roomHandler.History).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{id}/events", eventsHandler.Stream).Methods(http.MethodGet)

	// The websocket route skips request logging; connections are long-lived
	// and the hub logs them itself
	if cfg.Socket != nil {
		r.Handle("/ws", recoveryMiddleware(cfg.Socket)).Methods(http.MethodGet)
	}

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: origins,
		AllowedHeaders: []string{"*"},
	})

	return c.Handler(r)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
