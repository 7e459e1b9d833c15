package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/parley-chat/parley/internal/api/handler"
	apimiddleware "github.com/parley-chat/parley/internal/api/middleware"
	"github.com/parley-chat/parley/internal/middleware"
	"github.com/parley-chat/parley/internal/services/credential"
	"github.com/parley-chat/parley/internal/services/token"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	Credentials *credential.Service
	Authority   *token.Authority

	// EventChannel serves the upgraded WebSocket connection at /ws.
	EventChannel http.Handler
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	authHandler := handler.NewAuthHandler(cfg.Credentials, cfg.Authority)

	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := apimiddleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Account routes (no auth required; the event channel authenticates
	// itself with the join token)
	api.HandleFunc("/auth/register", authHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)

	// Health check endpoint
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// Event channel. Logging middleware applies; the recovery middleware
	// would interfere with the hijacked connection so it is left off.
	if cfg.EventChannel != nil {
		r.Handle("/ws", loggingMiddleware(cfg.EventChannel)).Methods(http.MethodGet)
	}

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
