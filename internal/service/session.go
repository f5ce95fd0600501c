package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/internal/tictactoe"
)

const (
	ModeLocal  = "local"
	ModeBot    = "bot"
	ModeOnline = "online"
)

// Events are fire-and-forget notifications for the UI collaborator. The core
// never waits for a response and callbacks must not call back into the
// session. Any field may be nil.
type Events struct {
	OutcomeDecided     func(winner string)
	InvalidMove        func(reason string)
	OpponentConnection func(connected bool)
}

// SessionState is a read-only snapshot of the session for display.
type SessionState struct {
	Mode              string                `json:"mode"`
	Board             entity.Board          `json:"board"`
	Turn              string                `json:"player_turn"`
	Status            string                `json:"status"`
	Winner            string                `json:"winner,omitempty"`
	History           []entity.HistoryEntry `json:"history"`
	HistoryLabels     []string              `json:"history_labels"`
	Pointer           int                   `json:"pointer"`
	PlayerMark        string                `json:"player_mark,omitempty"`
	RoomCode          string                `json:"room_code,omitempty"`
	OpponentConnected bool                  `json:"opponent_connected"`
}

// GameSession is the state machine owning the live board, mode, turn and
// move history. Moves are dispatched per mode: applied directly in local
// play, answered by the bot after a visible delay, or routed through the
// room in online play where the room board is authoritative.
type GameSession struct {
	logger   *slog.Logger
	bot      BotService
	rooms    *Coordinator
	sched    Scheduler
	botDelay time.Duration
	events   Events

	mu                sync.Mutex
	mode              string
	game              *entity.Game
	history           *entity.HistoryLog
	pointer           int
	playerMark        string
	roomCode          string
	opponentConnected bool
	botTimer          TimerHandle
}

func NewGameSession(logger *slog.Logger, bot BotService, rooms *Coordinator, sched Scheduler, botDelay time.Duration, events Events) *GameSession {
	return &GameSession{
		logger:   logger.With("component", "session"),
		bot:      bot,
		rooms:    rooms,
		sched:    sched,
		botDelay: botDelay,
		events:   events,

		mode:    ModeLocal,
		game:    entity.NewGame(),
		history: entity.NewHistoryLog(),
	}
}

// SubmitMove plays the given cell for whoever may legally move. Rejected
// moves leave the session untouched and surface an InvalidMove notification.
func (that *GameSession) SubmitMove(ctx context.Context, cell int) error {
	that.mu.Lock()

	if that.mode == ModeOnline {
		code, mark := that.roomCode, that.playerMark
		that.mu.Unlock()

		if code == "" {
			that.fireInvalidMove(apperror.ErrNoActiveRoom.Error())
			return apperror.ErrNoActiveRoom
		}

		if _, err := that.rooms.ApplyMove(ctx, code, mark, cell); err != nil {
			that.fireInvalidMove(err.Error())
			return err
		}

		// The board refresh arrives through the room watcher.
		return nil
	}

	mark := that.game.Turn
	if that.mode == ModeBot && mark != entity.PlayerX {
		that.mu.Unlock()
		that.fireInvalidMove(apperror.ErrNotYourTurn.Error())
		return apperror.ErrNotYourTurn
	}

	decided, err := that.applyMoveLocked(mark, cell)
	if err == nil {
		that.scheduleBotMoveLocked()
	}
	that.mu.Unlock()

	if err != nil {
		that.fireInvalidMove(err.Error())
		return err
	}
	if decided != "" {
		that.fireOutcomeDecided(decided)
	}

	return nil
}

// Reset returns the session to a fresh game. In online mode the room board
// is cleared instead and the refresh arrives through the watcher.
func (that *GameSession) Reset(ctx context.Context) error {
	that.mu.Lock()
	that.cancelBotTimerLocked()

	if that.mode == ModeOnline && that.roomCode != "" {
		code := that.roomCode
		that.mu.Unlock()

		if _, err := that.rooms.ResetRoom(ctx, code); err != nil {
			return fmt.Errorf("failed to reset room: %w", err)
		}
		return nil
	}

	that.resetLocalLocked()
	that.mu.Unlock()

	return nil
}

// JumpToMove rewinds (or fast-forwards) the board to a history entry.
// History is not truncated here; the next move discards the abandoned
// future. Not available in online games.
func (that *GameSession) JumpToMove(index int) error {
	that.mu.Lock()

	if that.mode == ModeOnline {
		that.mu.Unlock()
		that.fireInvalidMove(apperror.ErrTimeTravelUnavailable.Error())
		return apperror.ErrTimeTravelUnavailable
	}

	entry, err := that.history.At(index)
	if err != nil {
		that.mu.Unlock()
		that.fireInvalidMove(err.Error())
		return err
	}

	that.cancelBotTimerLocked()

	that.pointer = index
	that.game.Board = entry.Squares
	that.game.Turn = entry.NextTurn

	switch winner := tictactoe.Evaluate(that.game.Board); winner {
	case entity.PlayerX, entity.PlayerO, entity.PlayerTie:
		that.game.Winner = winner
		that.game.Status = entity.StatusFinished
	default:
		that.game.Winner = ""
		that.game.Status = entity.StatusOngoing
	}

	that.scheduleBotMoveLocked()
	that.mu.Unlock()

	return nil
}

// SetMode switches the move-resolution policy. Switching is a full reset;
// an unchanged mode is a no-op.
func (that *GameSession) SetMode(ctx context.Context, mode string) error {
	switch mode {
	case ModeLocal, ModeBot, ModeOnline:
	default:
		return fmt.Errorf("%w: unknown mode %q", apperror.ErrWrongMode, mode)
	}

	that.mu.Lock()
	if mode == that.mode {
		that.mu.Unlock()
		return nil
	}

	that.cancelBotTimerLocked()

	code := that.roomCode
	wasConnected := that.opponentConnected

	that.mode = mode
	that.roomCode = ""
	that.playerMark = ""
	that.opponentConnected = false
	that.resetLocalLocked()
	that.mu.Unlock()

	if code != "" {
		that.rooms.CloseRoom(ctx, code)
	}
	if wasConnected {
		that.fireOpponentConnection(false)
	}

	return nil
}

// CreateRoom hosts a new online room; the session plays X.
func (that *GameSession) CreateRoom(ctx context.Context) (string, error) {
	that.mu.Lock()
	if that.mode != ModeOnline {
		that.mu.Unlock()
		return "", apperror.ErrWrongMode
	}
	previous := that.roomCode
	that.mu.Unlock()

	if previous != "" {
		that.rooms.CloseRoom(ctx, previous)
	}

	room, err := that.rooms.CreateRoom(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create room: %w", err)
	}

	that.mu.Lock()
	that.roomCode = room.Code
	that.playerMark = entity.PlayerX
	that.opponentConnected = false
	that.resetLocalLocked()
	that.game.Status = entity.StatusWaiting
	that.mu.Unlock()

	that.rooms.Watch(room.Code, that.handleRoomUpdate)

	return room.Code, nil
}

// JoinRoom enters an existing room (or a fabricated one when the code is
// unknown); the session plays O.
func (that *GameSession) JoinRoom(ctx context.Context, code string) error {
	that.mu.Lock()
	if that.mode != ModeOnline {
		that.mu.Unlock()
		return apperror.ErrWrongMode
	}
	that.roomCode = code
	that.playerMark = entity.PlayerO
	that.opponentConnected = false
	that.resetLocalLocked()
	that.mu.Unlock()

	that.rooms.Watch(code, that.handleRoomUpdate)

	if _, err := that.rooms.JoinRoom(ctx, code); err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}

	return nil
}

// Snapshot returns the current state for display.
func (that *GameSession) Snapshot() SessionState {
	that.mu.Lock()
	defer that.mu.Unlock()

	return SessionState{
		Mode:              that.mode,
		Board:             that.game.Board,
		Turn:              that.game.Turn,
		Status:            that.game.Status,
		Winner:            that.game.Winner,
		History:           that.history.Entries(),
		HistoryLabels:     that.history.Labels(),
		Pointer:           that.pointer,
		PlayerMark:        that.playerMark,
		RoomCode:          that.roomCode,
		OpponentConnected: that.opponentConnected,
	}
}

func (that *GameSession) Board() entity.Board {
	that.mu.Lock()
	defer that.mu.Unlock()
	return that.game.Board
}

func (that *GameSession) Mode() string {
	that.mu.Lock()
	defer that.mu.Unlock()
	return that.mode
}

func (that *GameSession) TurnMark() string {
	that.mu.Lock()
	defer that.mu.Unlock()
	return that.game.Turn
}

// Outcome reports the derived result: game status plus winner mark.
func (that *GameSession) Outcome() (string, string) {
	that.mu.Lock()
	defer that.mu.Unlock()
	return that.game.Status, that.game.Winner
}

func (that *GameSession) HistoryLen() int {
	that.mu.Lock()
	defer that.mu.Unlock()
	return that.history.Len()
}

func (that *GameSession) Pointer() int {
	that.mu.Lock()
	defer that.mu.Unlock()
	return that.pointer
}

func (that *GameSession) RoomCode() string {
	that.mu.Lock()
	defer that.mu.Unlock()
	return that.roomCode
}

func (that *GameSession) OpponentConnected() bool {
	that.mu.Lock()
	defer that.mu.Unlock()
	return that.opponentConnected
}

// applyMoveLocked places a mark, refreshes the derived result, truncates
// any abandoned future and appends the new snapshot. Returns the winner mark
// when this move ended the game.
func (that *GameSession) applyMoveLocked(mark string, cell int) (string, error) {
	if err := tictactoe.MakeTurn(that.game, mark, cell); err != nil {
		return "", err
	}

	that.history.TruncateAfter(that.pointer)
	that.history.Append(entity.HistoryEntry{Squares: that.game.Board, NextTurn: that.game.Turn})
	that.pointer = that.history.Len() - 1

	if that.game.IsFinished() {
		that.cancelBotTimerLocked()
		return that.game.Winner, nil
	}

	return "", nil
}

// scheduleBotMoveLocked arms the delayed computer answer when it is O's
// turn in a bot game. The delay gives the human perceptible feedback.
func (that *GameSession) scheduleBotMoveLocked() {
	if that.mode != ModeBot || !that.game.IsOngoing() || that.game.Turn != entity.PlayerO {
		return
	}

	that.cancelBotTimerLocked()
	that.botTimer = that.sched.AfterFunc(that.botDelay, that.playBotMove)
}

func (that *GameSession) playBotMove() {
	log := that.logger.With("method", "playBotMove")

	that.mu.Lock()
	if that.mode != ModeBot || !that.game.IsOngoing() || that.game.Turn != entity.PlayerO {
		that.mu.Unlock()
		return
	}

	cell, err := that.bot.ChooseCell(that.game.Board)
	if err != nil {
		that.mu.Unlock()
		log.Error("bot has no move", "error", err)
		return
	}

	decided, err := that.applyMoveLocked(entity.PlayerO, cell)
	that.mu.Unlock()

	if err != nil {
		log.Error("bot move rejected", "cell", cell, "error", err)
		return
	}
	if decided != "" {
		that.fireOutcomeDecided(decided)
	}
}

// handleRoomUpdate refreshes the session from the authoritative room board.
func (that *GameSession) handleRoomUpdate(room entity.Room) {
	that.mu.Lock()
	if that.mode != ModeOnline || that.roomCode != room.Code {
		that.mu.Unlock()
		return
	}

	wasFinished := that.game.IsFinished()
	wasConnected := that.opponentConnected

	that.game.Board = room.Game.Board
	that.game.Turn = room.Game.Turn
	that.game.Winner = room.Game.Winner
	that.game.Status = room.Game.Status
	that.opponentConnected = room.OpponentConnected

	decided := ""
	if !wasFinished && room.Game.IsFinished() {
		decided = room.Game.Winner
	}
	connChanged := wasConnected != room.OpponentConnected
	connected := room.OpponentConnected
	that.mu.Unlock()

	if connChanged {
		that.fireOpponentConnection(connected)
	}
	if decided != "" {
		that.fireOutcomeDecided(decided)
	}
}

func (that *GameSession) resetLocalLocked() {
	that.game = entity.NewGame()
	that.history = entity.NewHistoryLog()
	that.pointer = 0
}

func (that *GameSession) cancelBotTimerLocked() {
	if that.botTimer != nil {
		that.botTimer.Stop()
		that.botTimer = nil
	}
}

func (that *GameSession) fireOutcomeDecided(winner string) {
	if that.events.OutcomeDecided != nil {
		that.events.OutcomeDecided(winner)
	}
}

func (that *GameSession) fireInvalidMove(reason string) {
	if that.events.InvalidMove != nil {
		that.events.InvalidMove(reason)
	}
}

func (that *GameSession) fireOpponentConnection(connected bool) {
	if that.events.OpponentConnection != nil {
		that.events.OpponentConnection(connected)
	}
}
