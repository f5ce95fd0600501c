package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

// WinCombos lists the eight winning triples in row, column, diagonal order.
// The order fixes which line is reported when speculative evaluation finds
// more than one candidate; in legal alternating play two lines can never
// complete on the same move.
var WinCombos = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Evaluate derives the result of a board: the winner's mark, PlayerTie for a
// full board without a winner, or an empty string while the game continues.
func Evaluate(board entity.Board) string {
	for _, combo := range WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != entity.EmptyCell && a == b && b == c {
			return a
		}
	}

	if board.IsFull() {
		return entity.PlayerTie
	}

	return entity.EmptyCell
}

// FindWinningMove returns the lowest-index empty cell that wins the game for
// the given mark, scanning cells in ascending order.
func FindWinningMove(board entity.Board, mark string) (int, bool) {
	for i, cell := range board {
		if cell != entity.EmptyCell {
			continue
		}

		board[i] = mark
		if Evaluate(board) == mark {
			return i, true
		}
		board[i] = entity.EmptyCell
	}

	return 0, false
}

// MakeTurn validates and applies one move, then refreshes the derived result.
func MakeTurn(game *entity.Game, mark string, cell int) error {
	if game.IsFinished() {
		return apperror.ErrGameFinished
	}

	if err := validateMove(game, mark, cell); err != nil {
		return fmt.Errorf("invalid turn: %w", err)
	}

	game.Board[cell] = mark
	updateGameStatus(game, mark)

	return nil
}

func validateMove(game *entity.Game, mark string, cell int) error {
	if cell < 0 || cell >= len(game.Board) {
		return fmt.Errorf("%w: %d", apperror.ErrInvalidCell, cell)
	}

	if game.Turn != mark {
		return apperror.ErrNotYourTurn
	}

	if game.Board[cell] != entity.EmptyCell {
		return apperror.ErrCellOccupied
	}

	return nil
}

func updateGameStatus(game *entity.Game, mark string) {
	switch winner := Evaluate(game.Board); winner {
	case entity.PlayerX, entity.PlayerO:
		game.Winner = winner
		game.Status = entity.StatusFinished
	case entity.PlayerTie:
		game.Winner = entity.PlayerTie
		game.Status = entity.StatusFinished
	default:
		game.Turn = entity.ToggleMark(mark)
	}
}
