// Package preview serves a built site over HTTP for local review.
package preview

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// DefaultAddr is the listen address used by "quizdoc serve".
const DefaultAddr = "localhost:8000"

// HealthPath answers "ok" while the server is up.
const HealthPath = "/-/health"

const shutdownTimeout = 5 * time.Second

// ErrListen is returned when the preview address cannot be bound.
var ErrListen = errors.New("failed to start preview server")

// Server serves the files of an output directory.
type Server struct {
	dir    string
	router *mux.Router
	http   *http.Server
}

// NewServer creates a server for dir. Routes are registered immediately;
// nothing listens until Serve or ListenAndServe.
func NewServer(dir string) *Server {
	s := &Server{
		dir:    dir,
		router: mux.NewRouter(),
	}
	s.RegisterRoutes(s.router)
	s.http = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// RegisterRoutes registers the health check and the static file tree.
func (s *Server) RegisterRoutes(router *mux.Router) {
	router.Use(noCache)
	router.HandleFunc(HealthPath, s.handleHealth).Methods(http.MethodGet, http.MethodHead)
	router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.dir))).Methods(http.MethodGet, http.MethodHead)
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe binds addr and serves until ctx is done.
// The bound address is passed to ready once listening.
func (s *Server) ListenAndServe(ctx context.Context, addr string, ready func(net.Addr)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrListen, err)
	}
	if ready != nil {
		ready(ln.Addr())
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// noCache keeps browsers from showing a page from before the last rebuild.
func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
