package endpoints

import "github.com/directus-ops/cmsctl/pkg/server"

// RegisterAll registers every diagnostic endpoint on s.
func RegisterAll(s *server.Server) {
	RegisterStatusEndpoints(s)
}
