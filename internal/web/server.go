package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/jaminalder/minimax-tic-tac-toe/internal/app"
)

// NewServer wires routes and returns an http.Handler. It also installs the
// board fragment as the service's broadcast renderer.
func NewServer(logger *slog.Logger, s *app.Service) http.Handler {
	h := &handlers{
		log:      logger.With("component", "web"),
		svc:      s,
		tpl:      loadTemplates(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	s.SetRenderer(func(gs app.GameState) []byte { return h.renderBoard(gs, "") })

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)

	r.Get("/", h.index)
	r.Post("/game", h.create)
	r.Route("/game/{id}", func(r chi.Router) {
		r.Get("/", h.view)
		r.Post("/play", h.play)
		r.Post("/reset", h.reset)
		r.Get("/events", h.events)
	})
	return r
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Debug("request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"duration", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
