package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaminalder/minimax-tic-tac-toe/internal/domain"
)

// minimal renderer for tests: encode moves count and message
func testRenderer(gs GameState) []byte {
	return []byte(fmt.Sprintf("moves=%d msg=%s", gs.Game.Moves, gs.Message))
}

const owner = "p1"

func newTestService(opts ...Option) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts = append([]Option{WithThinkDelay(0), WithRenderer(testRenderer)}, opts...)
	return NewService(logger, opts...)
}

func TestCreateAndGet(t *testing.T) {
	s := newTestService()

	gs, err := s.CreateGame(owner)
	require.NoError(t, err)

	assert.NotEmpty(t, gs.ID)
	assert.Equal(t, domain.X, gs.Game.Turn)
	assert.Equal(t, MsgYourTurn, gs.Message)
	assert.False(t, gs.Thinking)
	assert.False(t, gs.Created.IsZero())

	got, ok := s.Get(gs.ID)
	require.True(t, ok)
	assert.Equal(t, gs.ID, got.ID)

	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestPlayAnswersWithComputerMove(t *testing.T) {
	s := newTestService()
	gs, _ := s.CreateGame(owner)

	// When: the human takes the top-left corner
	st, err := s.Play(context.Background(), gs.ID, owner, 0)

	// Then: the computer has answered in the centre and it is X's turn again
	require.NoError(t, err)
	assert.Equal(t, domain.X, st.Game.Board[0])
	assert.Equal(t, domain.O, st.Game.Board[4])
	assert.Equal(t, 2, st.Game.Moves)
	assert.Equal(t, domain.X, st.Game.Turn)
	assert.False(t, st.Thinking)
	assert.Equal(t, MsgYourTurn, st.Message)
}

func TestPlayRejectsOccupiedCell(t *testing.T) {
	s := newTestService()
	gs, _ := s.CreateGame(owner)
	_, err := s.Play(context.Background(), gs.ID, owner, 0)
	require.NoError(t, err)

	// When: the human clicks the cell the computer took
	st, err := s.Play(context.Background(), gs.ID, owner, 4)

	// Then: the move is refused and the board keeps its two marks
	require.ErrorIs(t, err, domain.ErrOccupied)
	assert.Equal(t, MsgCellTaken, st.Message)
	assert.Equal(t, 2, st.Game.Moves)
}

func TestCreateGameRequiresOwner(t *testing.T) {
	s := newTestService()
	_, err := s.CreateGame("")
	require.ErrorIs(t, err, ErrNotAPlayer)
}

func TestSpectatorCannotPlay(t *testing.T) {
	s := newTestService()
	gs, _ := s.CreateGame(owner)

	st, err := s.Play(context.Background(), gs.ID, "p2", 0)
	require.ErrorIs(t, err, ErrNotAPlayer)
	assert.Zero(t, st.Game.Moves)

	_, err = s.Reset(gs.ID, "p2")
	require.ErrorIs(t, err, ErrNotAPlayer)
}

func TestPlayUnknownGame(t *testing.T) {
	s := newTestService()
	_, err := s.Play(context.Background(), "nope", owner, 0)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.Reset("nope", owner)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestComputerWinsAgainstCarelessHuman(t *testing.T) {
	s := newTestService()
	gs, _ := s.CreateGame(owner)
	ctx := context.Background()

	// X:0 O:4, X:1 O:2 (block), X:3 O:6 completes 2-4-6
	_, err := s.Play(ctx, gs.ID, owner, 0)
	require.NoError(t, err)
	st, err := s.Play(ctx, gs.ID, owner, 1)
	require.NoError(t, err)
	require.Equal(t, domain.O, st.Game.Board[2])

	st, err = s.Play(ctx, gs.ID, owner, 3)
	require.NoError(t, err)

	assert.Equal(t, domain.Won, st.Game.Status)
	assert.Equal(t, domain.O, st.Game.Winner)
	assert.Equal(t, MsgAIWins, st.Message)

	// Then: further clicks are refused
	st, err = s.Play(ctx, gs.ID, owner, 8)
	require.ErrorIs(t, err, domain.ErrGameOver)
	assert.Equal(t, MsgGameIsOver, st.Message)
}

func TestGameAgainstPerfectHumanIsATie(t *testing.T) {
	s := newTestService()
	gs, _ := s.CreateGame(owner)
	ctx := context.Background()

	// X:0 O:4, X:8 O:1, X:7 O:6, X:2 O:5, X:3 draws
	var st *GameState
	var err error
	for _, cell := range []int{0, 8, 7, 2, 3} {
		st, err = s.Play(ctx, gs.ID, owner, cell)
		require.NoError(t, err, "cell %d", cell)
	}

	assert.Equal(t, domain.Drawn, st.Game.Status)
	assert.Equal(t, MsgTie, st.Message)
	assert.True(t, st.Game.Board.IsFull())
}

func TestResetClearsBoard(t *testing.T) {
	s := newTestService()
	gs, _ := s.CreateGame(owner)
	_, err := s.Play(context.Background(), gs.ID, owner, 0)
	require.NoError(t, err)

	st, err := s.Reset(gs.ID, owner)
	require.NoError(t, err)

	assert.Equal(t, domain.New(), st.Game)
	assert.Equal(t, MsgYourTurn, st.Message)
}

func TestPlayWhileThinkingIsRejected(t *testing.T) {
	s := newTestService(WithThinkDelay(time.Hour))
	gs, _ := s.CreateGame(owner)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, unsub := s.Subscribe(ctx, gs.ID)
	defer unsub()

	var wg sync.WaitGroup
	wg.Add(1)
	var final *GameState
	go func() {
		defer wg.Done()
		final, _ = s.Play(ctx, gs.ID, owner, 0)
	}()

	// Given: the computer is thinking
	select {
	case b := <-ch:
		require.Equal(t, "moves=1 msg="+MsgThinking, string(b))
	case <-time.After(2 * time.Second):
		t.Fatal("no thinking broadcast")
	}

	// When: the human clicks again or restarts
	_, err := s.Play(context.Background(), gs.ID, owner, 8)
	require.ErrorIs(t, err, ErrThinking)
	_, err = s.Reset(gs.ID, owner)
	require.ErrorIs(t, err, ErrThinking)

	// Then: cancelling the request cuts the delay short but the computer still moves
	cancel()
	wg.Wait()
	require.NotNil(t, final)
	assert.Equal(t, 2, final.Game.Moves)
	assert.False(t, final.Thinking)
}

func TestSubscribeReceivesBothMoves(t *testing.T) {
	s := newTestService()
	gs, _ := s.CreateGame(owner)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ch, unsub := s.Subscribe(ctx, gs.ID)
	defer unsub()

	_, err := s.Play(ctx, gs.ID, owner, 0)
	require.NoError(t, err)

	var got []string
	for len(got) < 2 {
		select {
		case b, ok := <-ch:
			require.True(t, ok, "channel closed unexpectedly")
			got = append(got, string(b))
		case <-ctx.Done():
			t.Fatal("timed out waiting for broadcast")
		}
	}
	assert.Equal(t, []string{
		"moves=1 msg=" + MsgThinking,
		"moves=2 msg=" + MsgYourTurn,
	}, got)
}

func TestDropSlowSubscriber(t *testing.T) {
	s := newTestService()
	gs, _ := s.CreateGame(owner)

	// Slow subscriber: never read
	ctxSlow, cancelSlow := context.WithCancel(context.Background())
	defer cancelSlow()
	slowCh, _ := s.Subscribe(ctxSlow, gs.ID)

	// each play broadcasts twice; overflow the slow buffer
	for _, cell := range []int{0, 8, 7} {
		_, err := s.Play(context.Background(), gs.ID, owner, cell)
		require.NoError(t, err)
	}

	drained := 0
	for range slowCh {
		drained++
	}
	assert.Equal(t, subscriberBuffer, drained)
}
