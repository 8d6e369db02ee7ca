// Package search picks the computer's move by exhaustive minimax.
//
// The computer always plays O and is the maximizing side. The human plays X.
// Every function works on the caller's board in place: each hypothetical move
// is placed, scored and undone before the next one is tried, so the board is
// unchanged when a call returns. Callers must not share a board across
// goroutines while a search runs.
package search

import (
	"errors"
	"math"

	"github.com/jaminalder/minimax-tic-tac-toe/internal/domain"
)

// Leaf scores, from O's point of view.
const (
	Loss = -1
	Draw = 0
	Win  = 1
)

// ErrNoLegalMoves is returned when asked to move on a full board.
var ErrNoLegalMoves = errors.New("no legal moves")

// Score is the minimax value of placing O on a single cell.
type Score struct {
	Move  domain.Move
	Value int
	// Immediate is set when the move completes a line on the spot.
	Immediate bool
}

// Evaluate returns the minimax value of b with the maximizer (O) to move when
// maximizing is true, or the minimizer (X) otherwise.
//
// A completed line is always found one ply after it was drawn, so it belongs to
// the side that is not on move: it scores Loss while maximizing and Win otherwise.
func Evaluate(b *domain.Board, maximizing bool) int {
	if b.Winner() {
		if maximizing {
			return Loss
		}
		return Win
	}
	if b.IsFull() {
		return Draw
	}

	mark, best := domain.X, math.MaxInt
	if maximizing {
		mark, best = domain.O, math.MinInt
	}
	for i := range b {
		if b[i] != domain.Empty {
			continue
		}
		score := try(b, domain.Move(i), mark, func() int {
			return Evaluate(b, !maximizing)
		})
		if maximizing {
			best = max(best, score)
		} else {
			best = min(best, score)
		}
	}
	return best
}

// Analyze scores every empty cell as a move for O, in ascending cell order.
func Analyze(b *domain.Board) ([]Score, error) {
	scores := make([]Score, 0, len(b))
	for i := range b {
		if b[i] != domain.Empty {
			continue
		}
		m := domain.Move(i)
		var immediate bool
		value := try(b, m, domain.O, func() int {
			immediate = b.Winner()
			return Evaluate(b, false)
		})
		scores = append(scores, Score{Move: m, Value: value, Immediate: immediate})
	}
	if len(scores) == 0 {
		return nil, ErrNoLegalMoves
	}
	return scores, nil
}

// BestMove returns the move with the strictly greatest score, the lowest cell
// winning ties. A move that wins outright beats a deferred win of equal score.
func BestMove(b *domain.Board) (domain.Move, error) {
	scores, err := Analyze(b)
	if err != nil {
		return 0, err
	}
	return Choose(scores), nil
}

// Choose applies BestMove's selection rule to scores returned by Analyze.
// scores must not be empty.
func Choose(scores []Score) domain.Move {
	best := scores[0]
	for _, s := range scores[1:] {
		if s.Value > best.Value || (s.Value == best.Value && s.Immediate && !best.Immediate) {
			best = s
		}
	}
	return best.Move
}

// try places mark at m for the duration of fn and clears it again on every exit path.
func try(b *domain.Board, m domain.Move, mark domain.Cell, fn func() int) int {
	b[m] = mark
	defer func() { b[m] = domain.Empty }()
	return fn()
}
