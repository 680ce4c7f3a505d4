package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/directus-ops/cmsctl/pkg/config"
)

// Server is the diagnostic HTTP server. It stands in for the CMS when a
// hosting environment needs to be checked without starting Directus.
type Server struct {
	Config *config.Config
	Router *mux.Router
	Host   string
	Port   string
	srv    *http.Server
}

func NewServer(cfg *config.Config, host, port string, accessLog io.Writer) *Server {
	router := mux.NewRouter().UseEncodedPath()
	srv := &http.Server{
		Handler:      handlers.LoggingHandler(accessLog, router),
		Addr:         net.JoinHostPort(host, port),
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	return &Server{
		Config: cfg,
		Router: router,
		Host:   host,
		Port:   port,
		srv:    srv,
	}
}

// Handler returns the router wrapped in access logging.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Addr is the listen address.
func (s *Server) Addr() string {
	return s.srv.Addr
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Serve accepts connections on l until Shutdown is called.
func (s *Server) Serve(l net.Listener) error {
	if err := s.srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
