package domain

import "errors"

// Cell represents a board cell state.
type Cell uint8

const (
	Empty Cell = iota
	X
	O
)

func (c Cell) String() string {
	switch c {
	case X:
		return "X"
	case O:
		return "O"
	default:
		return ""
	}
}

// Opponent returns the other mark. Empty has no opponent.
func (c Cell) Opponent() Cell {
	switch c {
	case X:
		return O
	case O:
		return X
	default:
		return Empty
	}
}

// Move is a board index in [0, 9).
type Move int

// Board is a fixed 3x3 board stored row-major.
type Board [9]Cell

// WinPatterns lists every line of three: rows, columns, diagonals.
var WinPatterns = [8][3]int{
	// rows
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	// cols
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	// diags
	{0, 4, 8}, {2, 4, 6},
}

// Errors returned by board and game operations.
var (
	ErrOutOfBounds = errors.New("out of bounds")
	ErrOccupied    = errors.New("cell occupied")
	ErrInvalidMark = errors.New("invalid mark")
	ErrGameOver    = errors.New("game over")
	ErrNotYourTurn = errors.New("not your turn")
)

// IsFull reports whether no cell is empty.
func (b *Board) IsFull() bool {
	for _, c := range b {
		if c == Empty {
			return false
		}
	}
	return true
}

// Winner reports whether some line holds three equal marks. It does not say which.
func (b *Board) Winner() bool {
	return b.WinningMark() != Empty
}

// WinningMark returns the mark on a completed line, or Empty.
func (b *Board) WinningMark() Cell {
	for _, ln := range WinPatterns {
		a := b[ln[0]]
		if a != Empty && a == b[ln[1]] && a == b[ln[2]] {
			return a
		}
	}
	return Empty
}

// EmptyIndices returns the empty cells in ascending order.
func (b *Board) EmptyIndices() []Move {
	out := make([]Move, 0, len(b))
	for i, c := range b {
		if c == Empty {
			out = append(out, Move(i))
		}
	}
	return out
}

// Apply places mark at m. Legality of turn order is the caller's business.
func (b *Board) Apply(m Move, mark Cell) error {
	if m < 0 || int(m) >= len(b) {
		return ErrOutOfBounds
	}
	if mark != X && mark != O {
		return ErrInvalidMark
	}
	if b[m] != Empty {
		return ErrOccupied
	}
	b[m] = mark
	return nil
}

// Reset clears every cell.
func (b *Board) Reset() {
	*b = Board{}
}
