package usecase

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/rocketscienceinc/tictactoe-engine/internal/service"
)

// SessionFactory builds a fresh game session wired to the shared bot,
// coordinator and scheduler.
type SessionFactory func() *service.GameSession

// SessionManager hands out one game session per player ID so the transports
// can address the same session across requests.
type SessionManager struct {
	logger  *slog.Logger
	factory SessionFactory

	mu       sync.Mutex
	sessions map[string]*service.GameSession
}

func NewSessionManager(logger *slog.Logger, factory SessionFactory) *SessionManager {
	return &SessionManager{
		logger:  logger.With("component", "session_manager"),
		factory: factory,

		sessions: make(map[string]*service.GameSession),
	}
}

// GetOrCreatePlayerID returns the given ID or mints a new one.
func (that *SessionManager) GetOrCreatePlayerID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

func (that *SessionManager) GetOrCreateSession(playerID string) *service.GameSession {
	that.mu.Lock()
	defer that.mu.Unlock()

	session, ok := that.sessions[playerID]
	if !ok {
		session = that.factory()
		that.sessions[playerID] = session
		that.logger.Info("session created", "playerID", playerID)
	}

	return session
}

// RemoveSession drops a player's session, cancelling pending timers and
// closing any room it was attached to.
func (that *SessionManager) RemoveSession(ctx context.Context, playerID string) {
	that.mu.Lock()
	session, ok := that.sessions[playerID]
	delete(that.sessions, playerID)
	that.mu.Unlock()

	if !ok {
		return
	}

	if session.Mode() == service.ModeOnline {
		if err := session.SetMode(ctx, service.ModeLocal); err != nil {
			that.logger.Error("failed to detach session from room", "playerID", playerID, "error", err)
		}
		return
	}

	if err := session.Reset(ctx); err != nil {
		that.logger.Error("failed to reset session", "playerID", playerID, "error", err)
	}
}
