// Package server provides the diagnostic HTTP server.
//
// The diagnostic server answers on the port Directus would use and reports
// which pieces of configuration the process can see. Hosting problems can
// then be told apart from Directus startup problems.
//
// # Server Setup
//
//	srv := server.NewServer(cfg, "0.0.0.0", "3000", os.Stdout)
//	endpoints.RegisterAll(srv)
//	log.Fatal(srv.Start())
//
// Routing uses gorilla/mux and every request is written to the access log
// through gorilla/handlers.
//
// # Endpoints
//
//   - GET / reports status, listen address and configuration presence
//   - GET /health answers {"status":"healthy"}
package server
