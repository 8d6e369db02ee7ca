package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jaminalder/minimax-tic-tac-toe/internal/domain"
	"github.com/jaminalder/minimax-tic-tac-toe/internal/search"
)

// Errors exposed by the service layer.
var (
	ErrNotFound   = errors.New("game not found")
	ErrNotAPlayer = errors.New("not a player")
	ErrThinking   = errors.New("computer is thinking")
)

// Messages shown under the board.
const (
	MsgYourTurn   = "Your Turn!"
	MsgThinking   = "AI is thinking..."
	MsgHumanWins  = "Player X wins!"
	MsgAIWins     = "AI wins!"
	MsgTie        = "It's a tie!"
	MsgCellTaken  = "Cell already filled. Choose another cell."
	MsgGameIsOver = "Game is over. Start a new one."
)

// DefaultDelay is the computer's think time when none is configured.
const DefaultDelay = 500 * time.Millisecond

const subscriberBuffer = 4

// GameState is the in-memory state tracked per game.
type GameState struct {
	ID       string
	Owner    string
	Game     domain.Game
	Thinking bool
	Message  string
	Created  time.Time
	Updated  time.Time
}

type subscriber struct {
	mu     sync.Mutex
	ch     chan []byte
	closed bool
}

// send never blocks. It reports false when the subscriber is too slow to keep up.
func (s *subscriber) send(b []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return true
	}
	select {
	case s.ch <- b:
		return true
	default:
		return false
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// Option configures a Service.
type Option func(*Service)

// WithThinkDelay sets the pause before the computer answers.
func WithThinkDelay(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.delay = d
		}
	}
}

// WithRenderer sets the function that encodes broadcast payloads.
func WithRenderer(renderer func(GameState) []byte) Option {
	return func(s *Service) { s.SetRenderer(renderer) }
}

// Service manages games against the computer and their subscribers.
type Service struct {
	log    *slog.Logger
	delay  time.Duration
	mu     sync.Mutex
	games  map[string]*GameState
	subs   map[string]map[*subscriber]struct{}
	render func(GameState) []byte
}

// NewService creates a service. Without a renderer broadcasts carry no payload.
func NewService(logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		log:    logger.With("component", "app"),
		delay:  DefaultDelay,
		games:  make(map[string]*GameState),
		subs:   make(map[string]map[*subscriber]struct{}),
		render: noRender,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func noRender(GameState) []byte { return nil }

// SetRenderer replaces the broadcast renderer function.
func (s *Service) SetRenderer(renderer func(GameState) []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if renderer == nil {
		s.render = noRender
		return
	}
	s.render = renderer
}

// CreateGame creates and registers a new game played by owner.
func (s *Service) CreateGame(owner string) (*GameState, error) {
	if owner == "" {
		return nil, ErrNotAPlayer
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	now := time.Now()
	gs := &GameState{ID: id, Owner: owner, Game: domain.New(), Message: MsgYourTurn, Created: now, Updated: now}
	s.games[id] = gs
	s.log.Info("game created", "game", id)
	cp := *gs
	return &cp, nil
}

// Get returns a copy of the game state if present.
func (s *Service) Get(id string) (*GameState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs, ok := s.games[id]
	if !ok {
		return nil, false
	}
	cp := *gs
	return &cp, true
}

// Play applies the human's move and, unless that ends the game, answers with
// the computer's move after the think delay. Cancelling ctx only shortens the
// delay; the computer still moves so the game never stalls on its turn.
func (s *Service) Play(ctx context.Context, id, playerID string, cell int) (*GameState, error) {
	log := s.log.With("method", "Play", "game", id)

	s.mu.Lock()
	gs, ok := s.games[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	if gs.Owner != playerID {
		cp := *gs
		s.mu.Unlock()
		return &cp, ErrNotAPlayer
	}
	if gs.Thinking {
		cp := *gs
		s.mu.Unlock()
		return &cp, ErrThinking
	}
	if err := gs.Game.PlayHuman(domain.Move(cell)); err != nil {
		switch {
		case errors.Is(err, domain.ErrOccupied):
			gs.Message = MsgCellTaken
		case errors.Is(err, domain.ErrGameOver):
			gs.Message = MsgGameIsOver
		}
		cp := *gs
		s.mu.Unlock()
		return &cp, fmt.Errorf("human move %d: %w", cell, err)
	}
	gs.Updated = time.Now()
	if gs.Game.Over() {
		gs.Message = outcomeMessage(gs.Game)
		log.Info("game finished", "status", gs.Game.Status, "winner", gs.Game.Winner)
		return s.publishLocked(id, gs), nil
	}
	gs.Thinking = true
	gs.Message = MsgThinking
	s.publishLocked(id, gs)

	s.wait(ctx)

	s.mu.Lock()
	if err := s.computerMoveLocked(gs); err != nil {
		// unreachable: the human move left at least one empty cell
		gs.Thinking = false
		cp := *gs
		s.mu.Unlock()
		log.Error("computer move failed", "error", err)
		return &cp, fmt.Errorf("computer move: %w", err)
	}
	if gs.Game.Over() {
		log.Info("game finished", "status", gs.Game.Status, "winner", gs.Game.Winner)
	}
	return s.publishLocked(id, gs), nil
}

// Reset clears the board of an existing game.
func (s *Service) Reset(id, playerID string) (*GameState, error) {
	s.mu.Lock()
	gs, ok := s.games[id]
	if !ok {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	if gs.Owner != playerID {
		cp := *gs
		s.mu.Unlock()
		return &cp, ErrNotAPlayer
	}
	if gs.Thinking {
		cp := *gs
		s.mu.Unlock()
		return &cp, ErrThinking
	}
	gs.Game.Reset()
	gs.Message = MsgYourTurn
	gs.Updated = time.Now()
	s.log.Info("game reset", "game", id)
	return s.publishLocked(id, gs), nil
}

func (s *Service) wait(ctx context.Context) {
	if s.delay <= 0 {
		return
	}
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// computerMoveLocked runs the search on the game's own board. s.mu must be held,
// which keeps the board single-writer for the whole search.
func (s *Service) computerMoveLocked(gs *GameState) error {
	scores, err := search.Analyze(&gs.Game.Board)
	if err != nil {
		return err
	}
	m := search.Choose(scores)
	s.log.Debug("computer move", "game", gs.ID, "move", m, "scores", scores)

	if err := gs.Game.PlayComputer(m); err != nil {
		return err
	}
	gs.Thinking = false
	gs.Updated = time.Now()
	gs.Message = MsgYourTurn
	if gs.Game.Over() {
		gs.Message = outcomeMessage(gs.Game)
	}
	return nil
}

func outcomeMessage(g domain.Game) string {
	switch {
	case g.Status == domain.Drawn:
		return MsgTie
	case g.Winner == domain.Computer:
		return MsgAIWins
	case g.Winner == domain.Human:
		return MsgHumanWins
	default:
		return MsgYourTurn
	}
}

// publishLocked snapshots gs, releases s.mu and fans the rendered state out.
func (s *Service) publishLocked(id string, gs *GameState) *GameState {
	var toDrop []*subscriber

	cp := *gs
	subs := s.copySubsLocked(id)
	payload := s.render(cp)
	s.mu.Unlock()

	// Fan-out; drop slow subscribers by closing and marking for deletion
	for sub := range subs {
		if !sub.send(payload) {
			sub.close()
			toDrop = append(toDrop, sub)
		}
	}
	if len(toDrop) > 0 {
		s.mu.Lock()
		for _, sub := range toDrop {
			if set, ok := s.subs[id]; ok {
				delete(set, sub)
			}
		}
		s.mu.Unlock()
		s.log.Warn("dropped slow subscribers", "game", id, "count", len(toDrop))
	}
	return &cp
}

// Subscribe registers a subscriber for a game. Returns a channel and an unsubscribe func.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan []byte, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.subs[id]
	if set == nil {
		set = make(map[*subscriber]struct{})
		s.subs[id] = set
	}
	sub := &subscriber{ch: make(chan []byte, subscriberBuffer)}
	set[sub] = struct{}{}

	unsubOnce := &sync.Once{}
	unsub := func() {
		unsubOnce.Do(func() {
			s.mu.Lock()
			if set, ok := s.subs[id]; ok {
				delete(set, sub)
				if len(set) == 0 {
					delete(s.subs, id)
				}
			}
			s.mu.Unlock()
			sub.close()
		})
	}
	go func() {
		<-ctx.Done()
		unsub()
	}()
	return sub.ch, unsub
}

func (s *Service) copySubsLocked(id string) map[*subscriber]struct{} {
	out := make(map[*subscriber]struct{})
	if set, ok := s.subs[id]; ok {
		for k := range set {
			out[k] = struct{}{}
		}
	}
	return out
}
