package usecase

import (
	"context"
	"log/slog"
	"math/rand"
	"os"
	"testing"
	"time"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/internal/repository"
	"github.com/rocketscienceinc/tictactoe-engine/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*SessionManager, *int) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	sched := service.NewScheduler()
	rnd := rand.New(rand.NewSource(1))

	coordinator := service.NewCoordinator(context.Background(), logger, repository.NewMemoryRoomRepository(), sched, rnd,
		service.CoordinatorDelays{Join: time.Hour, MoveMin: time.Hour, MoveMax: 2 * time.Hour})

	created := 0
	factory := func() *service.GameSession {
		created++
		return service.NewGameSession(logger, service.NewBotService(rnd), coordinator, sched, time.Hour, service.Events{})
	}

	return NewSessionManager(logger, factory), &created
}

func TestSessionManager_GetOrCreatePlayerID(t *testing.T) {
	manager, _ := newTestManager(t)

	t.Run("Keeps a known ID", func(t *testing.T) {
		assert.Equal(t, "player-1", manager.GetOrCreatePlayerID("player-1"))
	})

	t.Run("Mints a fresh ID for an empty one", func(t *testing.T) {
		first := manager.GetOrCreatePlayerID("")
		second := manager.GetOrCreatePlayerID("")

		assert.NotEmpty(t, first)
		assert.NotEqual(t, first, second)
	})
}

func TestSessionManager_GetOrCreateSession(t *testing.T) {
	t.Run("Returns the same session for the same player", func(t *testing.T) {
		manager, created := newTestManager(t)

		first := manager.GetOrCreateSession("player-1")
		second := manager.GetOrCreateSession("player-1")

		assert.Same(t, first, second)
		assert.Equal(t, 1, *created)
	})

	t.Run("Different players get isolated sessions", func(t *testing.T) {
		manager, created := newTestManager(t)
		ctx := context.Background()

		first := manager.GetOrCreateSession("player-1")
		second := manager.GetOrCreateSession("player-2")
		require.NotSame(t, first, second)
		assert.Equal(t, 2, *created)

		// When: one player moves
		require.NoError(t, first.SubmitMove(ctx, 0))

		// Then: the other player's board stays clean
		assert.Equal(t, entity.PlayerX, first.Board()[0])
		assert.Empty(t, second.Board()[0])
	})
}

func TestSessionManager_RemoveSession(t *testing.T) {
	ctx := context.Background()

	t.Run("Dropped player gets a fresh session next time", func(t *testing.T) {
		manager, created := newTestManager(t)

		first := manager.GetOrCreateSession("player-1")
		require.NoError(t, first.SubmitMove(ctx, 0))

		// When: the session is removed
		manager.RemoveSession(ctx, "player-1")

		// Then: the next lookup builds a new, empty one
		second := manager.GetOrCreateSession("player-1")
		assert.NotSame(t, first, second)
		assert.Equal(t, 2, *created)
		assert.Empty(t, second.Board()[0])
	})

	t.Run("Detaches an online session from its room", func(t *testing.T) {
		manager, _ := newTestManager(t)

		session := manager.GetOrCreateSession("player-1")
		require.NoError(t, session.SetMode(ctx, service.ModeOnline))
		_, err := session.CreateRoom(ctx)
		require.NoError(t, err)

		// When: the player disconnects
		manager.RemoveSession(ctx, "player-1")

		// Then: the old session fell back to local play
		assert.Equal(t, service.ModeLocal, session.Mode())
		assert.Empty(t, session.RoomCode())
	})

	t.Run("Removing an unknown player is a no-op", func(t *testing.T) {
		manager, _ := newTestManager(t)

		manager.RemoveSession(ctx, "ghost")
	})
}
