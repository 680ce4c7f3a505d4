package integration

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/directus-ops/cmsctl/pkg/config"
	"github.com/directus-ops/cmsctl/pkg/server"
	"github.com/directus-ops/cmsctl/pkg/server/endpoints"
)

// DiagServer is an in-process diagnostic server for a single scenario.
type DiagServer struct {
	Server *server.Server
	URL    string
}

// StartDiagServer serves the diagnostic endpoints on a free loopback port
// with the current configuration.
func StartDiagServer() (*DiagServer, error) {
	if err := config.Reload(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port

	s := server.NewServer(config.Get(), "127.0.0.1", strconv.Itoa(port), io.Discard)
	endpoints.RegisterAll(s)
	go func() {
		_ = s.Serve(listener)
	}()

	return &DiagServer{Server: s, URL: "http://" + listener.Addr().String()}, nil
}

// Stop shuts the server down.
func (d *DiagServer) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = d.Server.Shutdown(ctx)
}
