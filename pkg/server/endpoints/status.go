package endpoints

import (
	"net/http"
	"strconv"

	"github.com/directus-ops/cmsctl/pkg/config"
	"github.com/directus-ops/cmsctl/pkg/server"
)

// StatusMessage is the greeting returned by GET /.
const StatusMessage = "Hello from Directus API server!"

// StatusResponse represents the response from /
type StatusResponse struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Port    int               `json:"port"`
	Host    string            `json:"host"`
	Env     map[string]string `json:"env"`
}

// HealthResponse represents the response from /health
type HealthResponse struct {
	Status string `json:"status"`
}

// RegisterStatusEndpoints registers the status and health endpoints
func RegisterStatusEndpoints(s *server.Server) {
	port, _ := strconv.Atoi(s.Port)

	s.Router.HandleFunc("/", handleStatus(s.Config, s.Host, port)).Methods("GET")
	s.Router.HandleFunc("/health", handleHealth()).Methods("GET")
}

func handleStatus(cfg *config.Config, host string, port int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, StatusResponse{
			Status:  "OK",
			Message: StatusMessage,
			Port:    port,
			Host:    host,
			Env:     cfg.DiagnosticEnv(),
		})
	}
}

func handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
	}
}
