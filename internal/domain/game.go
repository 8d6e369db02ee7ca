package domain

// Status is the lifecycle of a single game.
type Status uint8

const (
	InProgress Status = iota
	Won
	Drawn
)

func (s Status) String() string {
	switch s {
	case Won:
		return "won"
	case Drawn:
		return "drawn"
	default:
		return "in progress"
	}
}

// Human and Computer are the fixed seats: the human opens as X.
const (
	Human    = X
	Computer = O
)

// Game holds the current state of a match between the human and the computer.
type Game struct {
	Board  Board
	Turn   Cell
	Status Status
	Winner Cell
	Moves  int
}

// New returns a new game with X to move.
func New() Game {
	return Game{Turn: X}
}

// Over reports whether the game reached a terminal state.
func (g *Game) Over() bool {
	return g.Status != InProgress
}

// PlayHuman applies the human's mark at m.
func (g *Game) PlayHuman(m Move) error {
	return g.play(Human, m)
}

// PlayComputer applies the computer's mark at m.
func (g *Game) PlayComputer(m Move) error {
	return g.play(Computer, m)
}

// Reset returns the game to its initial state.
func (g *Game) Reset() {
	*g = New()
}

func (g *Game) play(side Cell, m Move) error {
	if g.Over() {
		return ErrGameOver
	}
	if side != g.Turn {
		return ErrNotYourTurn
	}
	if err := g.Board.Apply(m, side); err != nil {
		return err
	}
	g.Moves++

	// Terminal state is re-derived from the whole board after every mutation.
	if g.Board.Winner() {
		g.Status = Won
		g.Winner = side
		return nil
	}
	if g.Board.IsFull() {
		g.Status = Drawn
		return nil
	}

	g.Turn = side.Opponent()
	return nil
}
