package service

import (
	"errors"
	"math/rand"
	"sync"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/internal/tictactoe"
)

var ErrNoAvailableMoves = errors.New("no available moves")

const centerCell = 4

var cornerCells = [4]int{0, 2, 6, 8}

// BotService picks cells for the computer opponent. The bot always plays O.
type BotService interface {
	ChooseCell(board entity.Board) (int, error)
}

// botService is shared between sessions, and their timers fire on separate
// goroutines; the mutex guards the random source the way the coordinator
// guards its own.
type botService struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewBotService builds the heuristic opponent. The random source is injected
// so tests can force deterministic tie-breaks.
func NewBotService(rnd *rand.Rand) BotService {
	return &botService{rnd: rnd}
}

// ChooseCell walks a greedy one-ply ladder: win now, block the opponent's
// immediate win, take the center, take a random free corner, take a random
// free cell. It does not look further ahead and can lose to perfect play.
func (that *botService) ChooseCell(board entity.Board) (int, error) {
	if cell, ok := tictactoe.FindWinningMove(board, entity.PlayerO); ok {
		return cell, nil
	}

	if cell, ok := tictactoe.FindWinningMove(board, entity.PlayerX); ok {
		return cell, nil
	}

	if board[centerCell] == entity.EmptyCell {
		return centerCell, nil
	}

	freeCorners := make([]int, 0, len(cornerCells))
	for _, corner := range cornerCells {
		if board[corner] == entity.EmptyCell {
			freeCorners = append(freeCorners, corner)
		}
	}
	if len(freeCorners) > 0 {
		return freeCorners[that.intn(len(freeCorners))], nil
	}

	availableCells := board.EmptyCells()
	if len(availableCells) == 0 {
		return 0, ErrNoAvailableMoves
	}

	return availableCells[that.intn(len(availableCells))], nil
}

func (that *botService) intn(n int) int {
	that.mu.Lock()
	defer that.mu.Unlock()
	return that.rnd.Intn(n)
}
