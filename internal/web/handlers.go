package web

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/jaminalder/minimax-tic-tac-toe/internal/app"
	"github.com/jaminalder/minimax-tic-tac-toe/internal/domain"
)

type handlers struct {
	log      *slog.Logger
	svc      *app.Service
	tpl      *templates
	validate *validator.Validate
}

// playForm is the body of a play request.
type playForm struct {
	Cell int `validate:"min=0,max=8"`
}

func (h *handlers) renderBoard(gs app.GameState, errMsg string) []byte {
	return renderTemplate(h.tpl.board, "", newBoardData(gs, errMsg))
}

func writeHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
	writeHTML(w, http.StatusOK, renderTemplate(h.tpl.index, "base", nil))
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
	pid := ensurePlayerCookie(w, r)
	gs, err := h.svc.CreateGame(pid)
	if err != nil {
		h.log.Error("failed to create game", "error", err)
		http.Error(w, "failed to create", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/game/"+gs.ID, http.StatusSeeOther)
}

func (h *handlers) view(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ensurePlayerCookie(w, r)

	gs, ok := h.svc.Get(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeHTML(w, http.StatusOK, renderTemplate(h.tpl.game, "base", newBoardData(*gs, "")))
}

func (h *handlers) play(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pid := ensurePlayerCookie(w, r)

	form, err := h.parsePlayForm(r)
	if err != nil {
		http.Error(w, "invalid cell", http.StatusBadRequest)
		return
	}

	gs, err := h.svc.Play(r.Context(), id, pid, form.Cell)
	if errors.Is(err, app.ErrNotFound) || gs == nil {
		http.NotFound(w, r)
		return
	}
	writeHTML(w, http.StatusOK, h.renderBoard(*gs, errorMessage(err)))
}

func (h *handlers) reset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	pid := ensurePlayerCookie(w, r)

	gs, err := h.svc.Reset(id, pid)
	if errors.Is(err, app.ErrNotFound) || gs == nil {
		http.NotFound(w, r)
		return
	}
	writeHTML(w, http.StatusOK, h.renderBoard(*gs, errorMessage(err)))
}

func (h *handlers) parsePlayForm(r *http.Request) (playForm, error) {
	var form playForm
	if err := r.ParseForm(); err != nil {
		return form, err
	}
	cell, err := strconv.Atoi(r.Form.Get("cell"))
	if err != nil {
		return form, fmt.Errorf("parse cell: %w", err)
	}
	form.Cell = cell
	if err := h.validate.Struct(form); err != nil {
		return form, err
	}
	return form, nil
}

// errorMessage maps errors the user can cause to an alert. Messages the
// service already put on the board are not repeated.
func errorMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, app.ErrNotAPlayer):
		return "You are a spectator"
	case errors.Is(err, app.ErrThinking):
		return "Wait for the computer to move"
	case errors.Is(err, domain.ErrOccupied), errors.Is(err, domain.ErrGameOver):
		return ""
	case errors.Is(err, domain.ErrOutOfBounds):
		return "Out of bounds"
	default:
		return "Invalid move"
	}
}

var heartbeatInterval = 15 * time.Second

func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.svc.Get(id); !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	// In tests or non-EventSource requests, just acknowledge headers and return
	if r.Header.Get("Accept") != "text/event-stream" {
		w.WriteHeader(http.StatusOK)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}
	ctx := r.Context()
	ch, unsub := h.svc.Subscribe(ctx, id)
	defer unsub()
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	flusher.Flush()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = io.WriteString(w, ": ping\n\n")
			flusher.Flush()
		case b, ok := <-ch:
			if !ok {
				return
			}
			writeEvent(w, "board", b)
			flusher.Flush()
		}
	}
}

// writeEvent writes one SSE event; every payload line needs its own data field.
func writeEvent(w io.Writer, name string, payload []byte) {
	_, _ = fmt.Fprintf(w, "event: %s\n", name)
	for _, line := range strings.Split(string(payload), "\n") {
		_, _ = fmt.Fprintf(w, "data: %s\n", line)
	}
	_, _ = io.WriteString(w, "\n")
}
