package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/internal/tictactoe"
)

const (
	roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	roomCodeLength   = 6
)

// RoomWatcher receives a snapshot of a room after every mutation. The room
// is authoritative; watchers refresh their own state from it and never write
// back.
type RoomWatcher func(room entity.Room)

type roomStore interface {
	CreateOrUpdate(ctx context.Context, room *entity.Room) error
	GetByCode(ctx context.Context, code string) (*entity.Room, error)
	DeleteByCode(ctx context.Context, code string) error
}

// CoordinatorDelays controls the timers that fake a remote human opponent.
type CoordinatorDelays struct {
	Join    time.Duration
	MoveMin time.Duration
	MoveMax time.Duration
}

// Coordinator keeps the registry of rooms standing in for remote opponents
// and injects randomized delayed moves on behalf of the simulated peer.
type Coordinator struct {
	logger *slog.Logger
	rooms  roomStore
	sched  Scheduler
	delays CoordinatorDelays

	// ctx outlives individual requests so timer callbacks can still reach
	// the room store after the triggering request returns.
	ctx context.Context

	mu         sync.Mutex
	rnd        *rand.Rand
	watchers   map[string][]RoomWatcher
	joinTimers map[string]TimerHandle
	moveTimers map[string]TimerHandle
}

func NewCoordinator(ctx context.Context, logger *slog.Logger, rooms roomStore, sched Scheduler, rnd *rand.Rand, delays CoordinatorDelays) *Coordinator {
	return &Coordinator{
		logger: logger.With("component", "coordinator"),
		rooms:  rooms,
		sched:  sched,
		delays: delays,
		ctx:    ctx,
		rnd:    rnd,

		watchers:   make(map[string][]RoomWatcher),
		joinTimers: make(map[string]TimerHandle),
		moveTimers: make(map[string]TimerHandle),
	}
}

// Watch subscribes to every mutation of the given room.
func (that *Coordinator) Watch(code string, watcher RoomWatcher) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.watchers[code] = append(that.watchers[code], watcher)
}

// CreateRoom registers a fresh room hosted by X and arms the simulated-join
// timer; a stand-in opponent joins unless a real one arrives first.
func (that *Coordinator) CreateRoom(ctx context.Context) (*entity.Room, error) {
	room := entity.NewRoom(that.generateCode())

	if err := that.rooms.CreateOrUpdate(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to store room: %w", err)
	}

	code := room.Code
	handle := that.sched.AfterFunc(that.delays.Join, func() {
		that.simulateJoin(code)
	})

	that.mu.Lock()
	that.joinTimers[code] = handle
	that.mu.Unlock()

	that.logger.Info("room created", "code", code)

	return room, nil
}

// JoinRoom fills the O slot of an existing room. An unknown code is treated
// as a fresh room whose absent host becomes the simulated peer, so joining
// never fails on a bad code.
func (that *Coordinator) JoinRoom(ctx context.Context, code string) (*entity.Room, error) {
	that.cancelJoinTimer(code)

	room, err := that.rooms.GetByCode(ctx, code)
	if errors.Is(err, apperror.ErrRoomNotFound) {
		room = entity.NewRoom(code)
		room.SimulatedMark = entity.PlayerX
		err = nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	room.OpponentConnected = true
	room.Game.Status = entity.StatusOngoing

	if err = that.rooms.CreateOrUpdate(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to store room: %w", err)
	}

	that.notify(room)
	that.scheduleSimulatedMove(room)

	that.logger.Info("player joined room", "code", code)

	return room, nil
}

// ApplyMove plays one move on the room board. On success every watcher gets
// the new snapshot; when it becomes the simulated peer's turn a delayed
// answer is armed.
func (that *Coordinator) ApplyMove(ctx context.Context, code string, mark string, cell int) (*entity.Room, error) {
	room, err := that.rooms.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	if err = room.Game.ConfirmOngoingState(); err != nil {
		return room, err
	}

	if err = tictactoe.MakeTurn(&room.Game, mark, cell); err != nil {
		return room, err
	}

	if err = that.rooms.CreateOrUpdate(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to store room: %w", err)
	}

	if room.Game.IsFinished() {
		that.cancelTimers(code)
	}

	that.notify(room)
	that.scheduleSimulatedMove(room)

	return room, nil
}

// ResetRoom clears the board for a rematch in the same room.
func (that *Coordinator) ResetRoom(ctx context.Context, code string) (*entity.Room, error) {
	room, err := that.rooms.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	that.cancelMoveTimer(code)

	room.Game = entity.Game{Board: entity.NewBoard(), Turn: entity.PlayerX, Status: entity.StatusWaiting}
	if room.OpponentConnected {
		room.Game.Status = entity.StatusOngoing
	}

	if err = that.rooms.CreateOrUpdate(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to store room: %w", err)
	}

	that.notify(room)
	that.scheduleSimulatedMove(room)

	return room, nil
}

// CloseRoom destroys the room and cancels whatever the simulated peer had
// pending; a stale timer must never touch a superseded room.
func (that *Coordinator) CloseRoom(ctx context.Context, code string) {
	that.cancelTimers(code)

	that.mu.Lock()
	delete(that.watchers, code)
	that.mu.Unlock()

	if err := that.rooms.DeleteByCode(ctx, code); err != nil {
		that.logger.Error("failed to delete room", "code", code, "error", err)
	}

	that.logger.Info("room closed", "code", code)
}

// simulateJoin fires when no real opponent joined in time.
func (that *Coordinator) simulateJoin(code string) {
	log := that.logger.With("method", "simulateJoin", "code", code)

	that.mu.Lock()
	delete(that.joinTimers, code)
	that.mu.Unlock()

	room, err := that.rooms.GetByCode(that.ctx, code)
	if err != nil {
		log.Debug("room gone before simulated join", "error", err)
		return
	}

	if room.OpponentConnected {
		return
	}

	room.OpponentConnected = true
	room.SimulatedMark = entity.PlayerO
	room.Game.Status = entity.StatusOngoing

	if err = that.rooms.CreateOrUpdate(that.ctx, room); err != nil {
		log.Error("failed to store room", "error", err)
		return
	}

	that.notify(room)
	that.scheduleSimulatedMove(room)

	log.Info("simulated opponent joined")
}

// playSimulatedMove picks a uniformly random empty cell for the stand-in
// opponent, re-checking that the move is still wanted after the delay.
func (that *Coordinator) playSimulatedMove(code string) {
	log := that.logger.With("method", "playSimulatedMove", "code", code)

	that.mu.Lock()
	delete(that.moveTimers, code)
	that.mu.Unlock()

	room, err := that.rooms.GetByCode(that.ctx, code)
	if err != nil {
		log.Debug("room gone before simulated move", "error", err)
		return
	}

	if !room.Game.IsOngoing() || room.Game.Turn != room.SimulatedMark {
		return
	}

	availableCells := room.Game.Board.EmptyCells()
	if len(availableCells) == 0 {
		return
	}

	that.mu.Lock()
	cell := availableCells[that.rnd.Intn(len(availableCells))]
	that.mu.Unlock()

	if _, err = that.ApplyMove(that.ctx, code, room.SimulatedMark, cell); err != nil {
		log.Error("simulated move rejected", "cell", cell, "error", err)
	}
}

func (that *Coordinator) scheduleSimulatedMove(room *entity.Room) {
	if !room.HasSimulatedPeer() || !room.Game.IsOngoing() || room.Game.Turn != room.SimulatedMark {
		return
	}

	code := room.Code
	that.mu.Lock()
	if handle, ok := that.moveTimers[code]; ok {
		handle.Stop()
	}
	spread := that.delays.MoveMax - that.delays.MoveMin
	delay := that.delays.MoveMin
	if spread > 0 {
		delay += time.Duration(that.rnd.Int63n(int64(spread)))
	}
	that.moveTimers[code] = that.sched.AfterFunc(delay, func() {
		that.playSimulatedMove(code)
	})
	that.mu.Unlock()
}

func (that *Coordinator) notify(room *entity.Room) {
	that.mu.Lock()
	watchers := make([]RoomWatcher, len(that.watchers[room.Code]))
	copy(watchers, that.watchers[room.Code])
	that.mu.Unlock()

	for _, watcher := range watchers {
		watcher(*room)
	}
}

func (that *Coordinator) cancelJoinTimer(code string) {
	that.mu.Lock()
	defer that.mu.Unlock()
	if handle, ok := that.joinTimers[code]; ok {
		handle.Stop()
		delete(that.joinTimers, code)
	}
}

func (that *Coordinator) cancelMoveTimer(code string) {
	that.mu.Lock()
	defer that.mu.Unlock()
	if handle, ok := that.moveTimers[code]; ok {
		handle.Stop()
		delete(that.moveTimers, code)
	}
}

func (that *Coordinator) cancelTimers(code string) {
	that.cancelJoinTimer(code)
	that.cancelMoveTimer(code)
}

func (that *Coordinator) generateCode() string {
	that.mu.Lock()
	defer that.mu.Unlock()

	code := make([]byte, roomCodeLength)
	for i := range code {
		code[i] = roomCodeAlphabet[that.rnd.Intn(len(roomCodeAlphabet))]
	}
	return string(code)
}
