// Package cmstest runs an in-memory imitation of the Directus admin API for
// tests. It implements enough of the collections, fields, relations, items,
// roles, permissions, dashboards, users and schema endpoints to exercise the
// client, the plan executor and the CLI end to end.
package cmstest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/directus-ops/cmsctl/pkg/directus"
)

// Default credentials accepted by /auth/login.
const (
	AdminEmail    = "admin@example.com"
	AdminPassword = "password"
	AdminToken    = "test-access-token"
	AdminUserID   = "6f1d2b7e-0000-4000-8000-000000000001"
)

type failure struct {
	status  int
	code    string
	message string
}

// Server is the fake instance. All state is guarded by mu.
type Server struct {
	mu sync.Mutex

	httpServer *httptest.Server

	token       string
	session     *session
	collections []directus.Collection
	fields      map[string][]directus.Field
	relations   []directus.Relation
	items       map[string][]directus.Item
	nextID      map[string]int
	roles       []directus.Role
	permissions []directus.Permission
	dashboards  []directus.Dashboard
	panels      []directus.Panel
	users       map[string]map[string]interface{}
	applied     []directus.SchemaDiff

	requests []string
	failures map[string]failure
}

// New starts a fake instance and registers its shutdown with t.
func New(t testing.TB) *Server {
	t.Helper()
	s := NewUnstarted()
	s.httpServer = httptest.NewServer(s.Router())
	t.Cleanup(s.Close)
	return s
}

// NewUnstarted builds a fake instance without listening. Use Router to
// mount it.
func NewUnstarted() *Server {
	return &Server{
		token:  AdminToken,
		fields: make(map[string][]directus.Field),
		items:  make(map[string][]directus.Item),
		nextID: make(map[string]int),
		users: map[string]map[string]interface{}{
			AdminUserID: {"id": AdminUserID, "email": AdminEmail, "first_name": "Admin", "status": "active"},
		},
		failures: make(map[string]failure),
	}
}

// URL is the base URL of the running instance.
func (s *Server) URL() string {
	return s.httpServer.URL
}

// Close stops the listener.
func (s *Server) Close() {
	if s.httpServer != nil {
		s.httpServer.Close()
	}
}

// Router returns the chi router serving the fake API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)
	r.Use(s.injectFailures)

	r.Post("/auth/login", s.login)
	r.Post("/auth/refresh", s.refresh)
	r.Get("/server/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})
	r.Get("/server/ping", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get("/collections", s.listCollections)
		r.Post("/collections", s.createCollection)
		r.Get("/collections/{collection}", s.getCollection)
		r.Patch("/collections/{collection}", s.updateCollection)
		r.Delete("/collections/{collection}", s.deleteCollection)

		r.Get("/fields/{collection}", s.listFields)
		r.Post("/fields/{collection}", s.createField)
		r.Get("/fields/{collection}/{field}", s.getField)
		r.Patch("/fields/{collection}/{field}", s.updateField)
		r.Delete("/fields/{collection}/{field}", s.deleteField)

		r.Get("/relations", s.listRelations)
		r.Post("/relations", s.createRelation)
		r.Patch("/relations/{collection}/{field}", s.updateRelation)
		r.Delete("/relations/{collection}/{field}", s.deleteRelation)

		r.Get("/items/{collection}", s.listItems)
		r.Post("/items/{collection}", s.createItems)
		r.Get("/items/{collection}/{id}", s.getItem)
		r.Patch("/items/{collection}/{id}", s.updateItem)
		r.Delete("/items/{collection}/{id}", s.deleteItem)

		r.Get("/roles", s.listRoles)
		r.Post("/roles", s.createRole)
		r.Get("/permissions", s.listPermissions)
		r.Post("/permissions", s.createPermission)
		r.Patch("/permissions/{id}", s.updatePermission)
		r.Get("/dashboards", s.listDashboards)
		r.Post("/dashboards", s.createDashboard)
		r.Get("/panels", s.listPanels)
		r.Post("/panels", s.createPanel)

		r.Get("/users/me", s.me)
		r.Patch("/users/{id}", s.updateUser)

		r.Get("/schema/snapshot", s.snapshot)
		r.Post("/schema/diff", s.diff)
		r.Post("/schema/apply", s.apply)
	})
	return r
}

// Fail makes the next request matching method and path fail with status.
func (s *Server) Fail(method, path string, status int, code, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, code: code, message: message}
}

// Requests returns "METHOD /path" for every request served so far.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// CountRequests returns how many requests matched method and path prefix.
func (s *Server) CountRequests(method, pathPrefix string) int {
	n := 0
	for _, r := range s.Requests() {
		if strings.HasPrefix(r, method+" "+pathPrefix) {
			n++
		}
	}
	return n
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Method+" "+r.URL.Path)
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		f, ok := s.failures[key]
		if ok {
			delete(s.failures, key)
		}
		s.mu.Unlock()
		if ok {
			respondError(w, r, f.status, f.code, f.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		token := s.token
		expired := s.session != nil && s.session.expired()
		s.mu.Unlock()
		auth := r.Header.Get("Authorization")
		if auth == "Bearer "+token && expired {
			respondError(w, r, http.StatusUnauthorized, "TOKEN_EXPIRED", "Token expired.")
			return
		}
		if auth != "Bearer "+token && !s.isUserToken(strings.TrimPrefix(auth, "Bearer ")) {
			respondError(w, r, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid user credentials.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) isUserToken(token string) bool {
	if token == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if t, _ := u["token"].(string); t == token {
			return true
		}
	}
	return false
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_PAYLOAD", err.Error())
		return
	}
	if body.Email != AdminEmail || body.Password != AdminPassword {
		respondError(w, r, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid user credentials.")
		return
	}
	s.mu.Lock()
	tokens := s.issue()
	s.mu.Unlock()
	respondData(w, r, http.StatusOK, tokens)
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = render.DecodeJSON(r.Body, &body)
	s.mu.Lock()
	if body.RefreshToken != "refresh-"+s.token {
		s.mu.Unlock()
		respondError(w, r, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid token.")
		return
	}
	tokens := s.issue()
	if s.session != nil {
		s.session.refreshes++
	}
	s.mu.Unlock()
	respondData(w, r, http.StatusOK, tokens)
}

type errorBody struct {
	Errors []directus.ErrorItem `json:"errors"`
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	item := directus.ErrorItem{Message: message}
	item.Extensions.Code = code
	render.Status(r, status)
	render.JSON(w, r, errorBody{Errors: []directus.ErrorItem{item}})
}

func respondData(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	render.Status(r, status)
	render.JSON(w, r, map[string]interface{}{"data": data})
}

func noContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func forbidden(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusForbidden, "FORBIDDEN", "You don't have permission to access this.")
}

func invalid(w http.ResponseWriter, r *http.Request, format string, args ...interface{}) {
	respondError(w, r, http.StatusBadRequest, "INVALID_PAYLOAD", fmt.Sprintf(format, args...))
}
