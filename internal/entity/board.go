package entity

const (
	PlayerX   = "X"
	PlayerO   = "O"
	PlayerTie = "-"

	EmptyCell = ""
)

// Board is a 3x3 grid stored row-major, indices 0-8.
type Board [9]string

func NewBoard() Board {
	return Board{}
}

func (that Board) IsFull() bool {
	for _, cell := range that {
		if cell == EmptyCell {
			return false
		}
	}
	return true
}

// EmptyCells returns the indices of free cells in ascending order.
func (that Board) EmptyCells() []int {
	cells := make([]int, 0, len(that))
	for i, cell := range that {
		if cell == EmptyCell {
			cells = append(cells, i)
		}
	}
	return cells
}

func ToggleMark(mark string) string {
	if mark == PlayerX {
		return PlayerO
	}
	return PlayerX
}
