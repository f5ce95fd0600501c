package rest

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rocketscienceinc/tictactoe-engine/internal/usecase"
)

// Server exposes the query/command surface of the engine over HTTP.
type Server struct {
	logger  *slog.Logger
	manager *usecase.SessionManager
}

func New(logger *slog.Logger, manager *usecase.SessionManager) *Server {
	return &Server{
		logger:  logger.With("component", "rest"),
		manager: manager,
	}
}

func (that *Server) Start(port string) error {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	router.Get("/ping", pingHandler)

	router.Route("/api", func(router chi.Router) {
		router.Get("/state", that.handleState)
		router.Post("/move", that.handleMove)
		router.Post("/reset", that.handleReset)
		router.Post("/jump", that.handleJump)
		router.Post("/mode", that.handleMode)
		router.Post("/rooms", that.handleCreateRoom)
		router.Post("/rooms/{code}/join", that.handleJoinRoom)
	})

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func pingHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}
