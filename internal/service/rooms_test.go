package service

import (
	"context"
	"log/slog"
	"math/rand"
	"os"
	"testing"
	"time"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCoordinator(t *testing.T) (*Coordinator, *fakeScheduler) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	sched := newFakeScheduler()

	coordinator := NewCoordinator(context.Background(), logger, repository.NewMemoryRoomRepository(), sched,
		rand.New(rand.NewSource(1)),
		CoordinatorDelays{
			Join:    3 * time.Second,
			MoveMin: time.Second,
			MoveMax: 2 * time.Second,
		},
	)

	return coordinator, sched
}

// watchLatest subscribes to a room and exposes the most recent snapshot.
func watchLatest(coordinator *Coordinator, code string) func() entity.Room {
	var latest entity.Room
	coordinator.Watch(code, func(room entity.Room) { latest = room })
	return func() entity.Room { return latest }
}

func TestCoordinator_CreateRoom(t *testing.T) {
	ctx := context.Background()

	t.Run("Generates a six-character uppercase alphanumeric code", func(t *testing.T) {
		coordinator, _ := newTestCoordinator(t)

		// When: creating a room
		room, err := coordinator.CreateRoom(ctx)

		// Then: the code has the documented shape and the game waits for a joiner
		require.NoError(t, err)
		require.Len(t, room.Code, 6)
		for _, r := range room.Code {
			assert.Contains(t, roomCodeAlphabet, string(r))
		}
		assert.True(t, room.Game.IsWaiting())
		assert.Equal(t, entity.PlayerX, room.Game.Turn)
	})

	t.Run("Arms the simulated join with the configured delay", func(t *testing.T) {
		coordinator, sched := newTestCoordinator(t)

		_, err := coordinator.CreateRoom(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, sched.pending())
		assert.Equal(t, 3*time.Second, sched.lastDelay())
	})

	t.Run("Simulated opponent joins as O when the delay elapses", func(t *testing.T) {
		coordinator, sched := newTestCoordinator(t)

		room, err := coordinator.CreateRoom(ctx)
		require.NoError(t, err)

		var updates []entity.Room
		coordinator.Watch(room.Code, func(room entity.Room) { updates = append(updates, room) })

		// When: the join delay elapses
		require.True(t, sched.fireNext())

		// Then: the watcher saw the room go ongoing with a simulated O
		require.Len(t, updates, 1)
		assert.True(t, updates[0].OpponentConnected)
		assert.Equal(t, entity.PlayerO, updates[0].SimulatedMark)
		assert.True(t, updates[0].Game.IsOngoing())
	})

	t.Run("A real joiner preempts the simulated join", func(t *testing.T) {
		coordinator, sched := newTestCoordinator(t)

		room, err := coordinator.CreateRoom(ctx)
		require.NoError(t, err)

		// When: a real player joins before the timer fires
		joined, err := coordinator.JoinRoom(ctx, room.Code)
		require.NoError(t, err)

		// Then: no simulated peer is seated and the stale timer does nothing
		assert.Empty(t, joined.SimulatedMark)
		assert.True(t, joined.OpponentConnected)
		assert.Equal(t, 0, sched.pending())
		assert.Equal(t, 0, sched.fireAll())
	})
}

func TestCoordinator_JoinRoom(t *testing.T) {
	ctx := context.Background()

	t.Run("Unknown code fabricates a room instead of failing", func(t *testing.T) {
		coordinator, _ := newTestCoordinator(t)

		// When: joining a code nobody created
		room, err := coordinator.JoinRoom(ctx, "ZZZZZZ")

		// Then: a fresh room exists with a simulated host playing X
		require.NoError(t, err)
		assert.Equal(t, "ZZZZZZ", room.Code)
		assert.Equal(t, entity.PlayerX, room.SimulatedMark)
		assert.True(t, room.OpponentConnected)
		assert.True(t, room.Game.IsOngoing())
	})

	t.Run("Simulated host moves first in a fabricated room", func(t *testing.T) {
		coordinator, sched := newTestCoordinator(t)
		latest := watchLatest(coordinator, "ZZZZZZ")

		_, err := coordinator.JoinRoom(ctx, "ZZZZZZ")
		require.NoError(t, err)

		// When: the simulated move delay elapses
		require.Equal(t, 1, sched.pending())
		delay := sched.lastDelay()
		assert.GreaterOrEqual(t, delay, time.Second)
		assert.Less(t, delay, 2*time.Second)
		require.True(t, sched.fireNext())

		// Then: the room board holds exactly one X and O is to move
		room := latest()
		countX := 0
		for _, cell := range room.Game.Board {
			if cell == entity.PlayerX {
				countX++
			}
		}
		assert.Equal(t, 1, countX)
		assert.Equal(t, entity.PlayerO, room.Game.Turn)
	})
}

func TestCoordinator_ApplyMove(t *testing.T) {
	ctx := context.Background()

	t.Run("Rejects a move against an unknown room", func(t *testing.T) {
		coordinator, _ := newTestCoordinator(t)

		_, err := coordinator.ApplyMove(ctx, "ZZZZZZ", entity.PlayerX, 0)

		assert.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})

	t.Run("Rejects a move before the opponent joined", func(t *testing.T) {
		coordinator, _ := newTestCoordinator(t)

		room, err := coordinator.CreateRoom(ctx)
		require.NoError(t, err)

		_, err = coordinator.ApplyMove(ctx, room.Code, entity.PlayerX, 0)

		assert.ErrorIs(t, err, apperror.ErrGameIsNotStarted)
	})

	t.Run("Schedules the simulated answer after the human's move", func(t *testing.T) {
		coordinator, sched := newTestCoordinator(t)

		room, err := coordinator.CreateRoom(ctx)
		require.NoError(t, err)
		latest := watchLatest(coordinator, room.Code)
		require.True(t, sched.fireNext()) // simulated O joins

		// When: the host plays
		_, err = coordinator.ApplyMove(ctx, room.Code, entity.PlayerX, 0)
		require.NoError(t, err)

		// Then: one move timer is pending; firing it plays O
		require.Equal(t, 1, sched.pending())
		require.True(t, sched.fireNext())
		assert.Equal(t, entity.PlayerX, latest().Game.Turn)
	})

	t.Run("No simulated move lands after the game ends", func(t *testing.T) {
		coordinator, sched := newTestCoordinator(t)

		room, err := coordinator.CreateRoom(ctx)
		require.NoError(t, err)
		code := room.Code
		latest := watchLatest(coordinator, code)
		require.True(t, sched.fireNext()) // simulated O joins

		// When: driving the room all the way to a finish, letting the
		// simulated O answer in between
		current := latest()
		for !current.Game.IsFinished() {
			cells := current.Game.Board.EmptyCells()
			require.NotEmpty(t, cells)
			_, err = coordinator.ApplyMove(ctx, code, current.Game.Turn, cells[0])
			require.NoError(t, err)
			sched.fireNext()
			current = latest()
		}

		// Then: once finished, no pending timer remains
		assert.Equal(t, 0, sched.pending())
	})
}

func TestCoordinator_CloseRoom(t *testing.T) {
	ctx := context.Background()

	t.Run("Destroys the room and cancels pending timers", func(t *testing.T) {
		coordinator, sched := newTestCoordinator(t)

		room, err := coordinator.CreateRoom(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, sched.pending())

		// When: the room is closed before the join fires
		coordinator.CloseRoom(ctx, room.Code)

		// Then: the timer is cancelled and the room is gone
		assert.Equal(t, 0, sched.pending())

		_, err = coordinator.ApplyMove(ctx, room.Code, entity.PlayerX, 0)
		assert.ErrorIs(t, err, apperror.ErrRoomNotFound)
	})
}

func TestCoordinator_ResetRoom(t *testing.T) {
	ctx := context.Background()

	t.Run("Clears the board for a rematch", func(t *testing.T) {
		coordinator, sched := newTestCoordinator(t)

		room, err := coordinator.CreateRoom(ctx)
		require.NoError(t, err)
		require.True(t, sched.fireNext()) // simulated O joins
		_, err = coordinator.ApplyMove(ctx, room.Code, entity.PlayerX, 0)
		require.NoError(t, err)

		// When: resetting the room
		reset, err := coordinator.ResetRoom(ctx, room.Code)

		// Then: an empty ongoing board with X to move
		require.NoError(t, err)
		assert.Equal(t, entity.NewBoard(), reset.Game.Board)
		assert.Equal(t, entity.PlayerX, reset.Game.Turn)
		assert.True(t, reset.Game.IsOngoing())
	})
}
