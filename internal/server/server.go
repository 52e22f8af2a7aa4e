// Package server exposes stored quests over a small JSON API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/SBrookhart/side-quest-generator/internal/daily"
	"github.com/SBrookhart/side-quest-generator/internal/logging"
	"github.com/SBrookhart/side-quest-generator/internal/quest"
)

// Store is the read side the API serves from.
type Store interface {
	GetBatch(ctx context.Context, date string) ([]quest.Idea, error)
	LatestDate(ctx context.Context) (string, error)
}

// Runner generates a batch on demand.
type Runner interface {
	Run(ctx context.Context, date string, force bool) (*daily.Outcome, error)
}

// Options configures the API. An empty Secret disables generation.
type Options struct {
	Addr   string
	Secret string
	Today  func() string
	Logger *slog.Logger
}

// New builds the HTTP server. runner may be nil, which also disables generation.
func New(store Store, runner Runner, opts Options) *http.Server {
	h := &Handlers{
		store:  store,
		runner: runner,
		secret: opts.Secret,
		today:  opts.Today,
	}
	if h.today == nil {
		h.today = func() string { return time.Now().Format(time.DateOnly) }
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.HandleHealth)
	mux.HandleFunc("GET /api/quests", h.HandleQuests)
	mux.HandleFunc("GET /api/quests/latest", h.HandleLatest)
	mux.HandleFunc("POST /api/quests/generate", h.HandleGenerate)

	return &http.Server{
		Addr:              opts.Addr,
		Handler:           withLogger(opts.Logger, securityHeaders(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// withLogger puts logger in every request context so handlers and the pipeline
// log through it.
func withLogger(logger *slog.Logger, next http.Handler) http.Handler {
	if logger == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.With(r.Context(), logger.With("method", r.Method, "path", r.URL.Path))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, srv *http.Server) error {
	log := logging.From(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Info("serving quests", "addr", srv.Addr)
	if strings.HasPrefix(srv.Addr, ":") || strings.Contains(srv.Addr, "0.0.0.0") {
		log.Warn("server is listening on all interfaces")
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
