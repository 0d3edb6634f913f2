// Package server serves live chart views over HTTP.
//
// A browser creates a view of a position, loads the view page and opens a
// websocket. The connection's goroutine owns a [scatter.Chart] for the view:
// pointer, wheel and control events arrive as JSON messages, and the server
// answers with full SVG scenes when content changes and light transform
// frames while panning, zooming or animating.
//
// Routes:
//
//	GET    /                         index
//	GET    /healthz                  liveness
//	POST   /api/views                create a view
//	GET    /api/views/{id}           view state
//	DELETE /api/views/{id}           drop a view
//	GET    /positions/{position}     create a view and redirect to it
//	GET    /views/{id}               view page
//	GET    /views/{id}/ws            live websocket
//	GET    /views/{id}/scene.{format} static render of the view's state
package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/landscape/pkg/errors"
	"github.com/matzehuels/landscape/pkg/fetch"
	"github.com/matzehuels/landscape/pkg/pipeline"
	"github.com/matzehuels/landscape/pkg/scatter"
	"github.com/matzehuels/landscape/pkg/scatter/sink"
	"github.com/matzehuels/landscape/pkg/session"
)

// Defaults applied by New.
const (
	DefaultAddr      = "127.0.0.1:8080"
	DefaultFrameRate = 60
	cleanupInterval  = 5 * time.Minute
	shutdownTimeout  = 5 * time.Second
)

// SourceFunc resolves a position to its snapshot source.
type SourceFunc func(position string) (fetch.Source, error)

// Config configures a Server.
type Config struct {
	Addr      string
	Chart     scatter.Config
	Theme     sink.Theme
	Sources   SourceFunc
	Store     session.Store    // nil selects a MemoryStore
	Runner    *pipeline.Runner // renders scene.{format}; nil disables caching
	ViewTTL   time.Duration
	FrameRate int
	Logger    *log.Logger
}

// Server serves live views.
type Server struct {
	cfg      Config
	logger   *log.Logger
	store    session.Store
	runner   *pipeline.Runner
	upgrader websocket.Upgrader
}

// New validates cfg and returns a server.
func New(cfg Config) (*Server, error) {
	if cfg.Sources == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "server needs a snapshot source")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.ViewTTL <= 0 {
		cfg.ViewTTL = session.DefaultTTL
	}
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = DefaultFrameRate
	}
	if cfg.Theme.Name == "" {
		cfg.Theme = sink.DarkTheme()
	}
	if cfg.Chart.Viewport.Step == 0 {
		cfg.Chart = scatter.DefaultConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	s := &Server{
		cfg:    cfg,
		logger: cfg.Logger.WithPrefix("server"),
		store:  cfg.Store,
		runner: cfg.Runner,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 << 10,
		},
	}
	if s.store == nil {
		s.store = session.NewMemoryStore()
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, cfg.Logger)
	}
	return s, nil
}

// Handler returns the route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/positions/{position}", s.handleOpenPosition)

	r.Route("/api/views", func(api chi.Router) {
		api.Post("/", s.handleCreateView)
		api.Route("/{id}", func(item chi.Router) {
			item.Get("/", s.handleGetView)
			item.Delete("/", s.handleDeleteView)
		})
	})

	r.Route("/views/{id}", func(v chi.Router) {
		v.Get("/", s.handleViewPage)
		v.Get("/ws", s.handleLive)
		v.Get("/scene.{format}", s.handleScene)
	})
	return r
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return errors.Wrap(errors.ErrCodeUnavailable, err, "listen on %s", s.cfg.Addr)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go s.janitor(ctx)

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Info("listening", "addr", "http://"+ln.Addr().String())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// janitor drops expired views.
func (s *Server) janitor(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.store.Cleanup(ctx)
			if err != nil {
				s.logger.Warn("view cleanup failed", "err", err)
			} else if n > 0 {
				s.logger.Debug("expired views removed", "count", n)
			}
		}
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	if status >= 500 {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, errorBody{Code: errors.GetCode(err), Message: errors.UserMessage(err)})
}
