// Package server serves an editor session over HTTP: the live editable page,
// a JSON API with one route per editing action and a websocket stream of
// mutations.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ziadkadry99/pagedit/internal/editor"
)

const (
	defaultMaxUpload = 32 << 20
	shutdownTimeout  = 5 * time.Second
)

// Config holds the listen address and request limits of a Server.
type Config struct {
	Host      string // "localhost" when empty
	Port      int    // 0 picks a free port
	AllowAll  bool   // any CORS origin
	MaxUpload int64  // multipart body limit, 32 MB when zero
}

// Server exposes one editor session.
type Server struct {
	cfg    Config
	ed     *editor.Editor
	router chi.Router
}

// New builds the router for ed. Zero fields of cfg take their defaults.
func New(cfg Config, ed *editor.Editor) *Server {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.MaxUpload <= 0 {
		cfg.MaxUpload = defaultMaxUpload
	}
	s := &Server{cfg: cfg, ed: ed}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)

	origins := []string{"http://localhost:*", "http://127.0.0.1:*"}
	if s.cfg.AllowAll {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	// no timeout: the stream lives as long as the tab
	r.Get("/ws", s.handleWebSocket)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Get("/", s.handlePage)
		r.Get("/editor.js", serveClient)
		registerAPI(r, s)
	})
	return r
}

// Router returns the handler serving the page, the API and the stream.
func (s *Server) Router() chi.Router { return s.router }

// Editor returns the session being served.
func (s *Server) Editor() *editor.Editor { return s.ed }

// Run listens on the configured address and serves until ctx is done, then
// drains open requests for up to five seconds. ready, when set, receives the
// page URL once the listener is open.
func (s *Server) Run(ctx context.Context, ready func(url string)) error {
	ln, err := net.Listen("tcp", net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port)))
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}
	url := fmt.Sprintf("http://%s/", ln.Addr().String())
	log.Printf("server: editing page at %s", url)
	if ready != nil {
		ready(url)
	}

	hs := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	done := make(chan error, 1)
	go func() { done <- hs.Serve(ln) }()

	select {
	case err := <-done:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	if err := <-done; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
