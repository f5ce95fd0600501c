package entity

import "github.com/rocketscienceinc/tictactoe-engine/internal/apperror"

const (
	StatusFinished = "finished"
	StatusOngoing  = "ongoing"
	StatusWaiting  = "waiting"
)

// Game holds one live board together with its derived result. Winner and
// Status are caches of the evaluator's verdict, recomputed on every mutation.
type Game struct {
	Board  Board  `json:"board"`
	Turn   string `json:"player_turn"`
	Winner string `json:"winner"`
	Status string `json:"status"`
}

func NewGame() *Game {
	return &Game{
		Board:  NewBoard(),
		Turn:   PlayerX,
		Status: StatusOngoing,
	}
}

func (that *Game) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Game) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *Game) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Game) ConfirmOngoingState() error {
	switch {
	case that.IsWaiting():
		return apperror.ErrGameIsNotStarted
	case that.IsFinished():
		return apperror.ErrGameFinished
	default:
		return nil
	}
}
