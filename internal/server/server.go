// Package server exposes the execution engine over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/xdg/remexec/internal/api"
	"github.com/xdg/remexec/internal/clog"
	"github.com/xdg/remexec/internal/executor"
	"github.com/xdg/remexec/internal/metrics"
)

// DefaultAddr is the address the server listens on when none is configured.
const DefaultAddr = "0.0.0.0:3000"

// Server accepts execution requests on POST /endpoint.
type Server struct {
	// Addr is the address to listen on (e.g., "0.0.0.0:3000").
	Addr string

	// Executor runs decoded requests.
	Executor executor.Executor

	// Metrics enables GET /metrics.
	Metrics bool

	// ReadHeaderTimeout is passed to http.Server.
	ReadHeaderTimeout time.Duration

	log      *clog.Logger
	server   *http.Server
	listener net.Listener
	mu       sync.Mutex
	running  bool
}

// NewServer creates a server for exec with default settings.
func NewServer(exec executor.Executor) *Server {
	return &Server{
		Addr:              DefaultAddr,
		Executor:          exec,
		Metrics:           true,
		ReadHeaderTimeout: 30 * time.Second,
		log:               clog.Named("server"),
	}
}

// Handler returns the HTTP handler serving all routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST /endpoint", instrument("/endpoint", http.HandlerFunc(s.handleEndpoint)))
	mux.Handle("GET /healthz", instrument("/healthz", http.HandlerFunc(s.handleHealth)))
	if s.Metrics {
		mux.Handle("GET /metrics", metrics.Handler())
	}
	return mux
}

// Start begins accepting connections.
// Returns an error if the server is already running or fails to start.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("server already running")
	}

	listener, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Addr, err)
	}

	s.listener = listener
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.ReadHeaderTimeout,
		ErrorLog:          log.New(clog.Writer(clog.LevelWarn), "[server] ", 0),
	}
	s.running = true

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("serve: %v", err)
		}
	}()

	s.log.Info("listening on %s", listener.Addr())
	return nil
}

// Stop gracefully shuts down the server, waiting for in-flight requests
// until ctx is done. Detached commands are not affected.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.running = false
	return s.server.Shutdown(ctx)
}

// ListenAddr returns the actual address the server is listening on.
// This is useful when the server was started with port 0 (random port).
// Returns empty string if the server is not running.
func (s *Server) ListenAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// handleEndpoint processes POST /endpoint. Every reply, including the
// GenericError for an envelope that cannot be decoded, is sent with 200;
// the status tag alone tells the outcomes apart.
func (s *Server) handleEndpoint(w http.ResponseWriter, r *http.Request) {
	req, err := api.DecodeRequest(r.Body)
	if err != nil {
		s.log.Debug("rejected request from %s: %v", r.RemoteAddr, err)
		s.writeJSON(w, http.StatusOK, api.NewGenericError(err.Error()))
		return
	}

	res, err := s.Executor.Execute(r.Context(), req)
	s.writeJSON(w, http.StatusOK, api.FromResult(res, err))
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`

	// Children is the number of live child processes of the server,
	// including fire-and-forget commands still running.
	Children int `json:"children"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Children: s.childCount()})
}

// childCount returns the number of direct children of this process, or -1
// if it cannot be determined.
func (s *Server) childCount() int {
	p, err := process.NewProcess(int32(os.Getpid())) //nolint:gosec // pids fit in int32
	if err != nil {
		s.log.Debug("inspect self: %v", err)
		return -1
	}
	children, err := p.Children()
	if errors.Is(err, process.ErrorNoChildren) {
		return 0
	}
	if err != nil {
		s.log.Debug("list children: %v", err)
		return -1
	}
	return len(children)
}

// writeJSON writes a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Debug("write response: %v", err)
	}
}
