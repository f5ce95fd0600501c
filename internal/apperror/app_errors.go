package apperror

import "errors"

var (
	ErrGameFinished          = errors.New("game is already finished")
	ErrGameIsNotStarted      = errors.New("game is not started")
	ErrNotYourTurn           = errors.New("it's not your turn")
	ErrCellOccupied          = errors.New("cell is already occupied")
	ErrInvalidCell           = errors.New("invalid cell index")
	ErrHistoryOutOfRange     = errors.New("history index out of range")
	ErrTimeTravelUnavailable = errors.New("time travel is not available in online games")
	ErrRoomNotFound          = errors.New("room not found")
	ErrNoActiveRoom          = errors.New("no active room")
	ErrWrongMode             = errors.New("operation is not allowed in this mode")
)
