package cmstest

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/directus-ops/cmsctl/pkg/directus"
)

// SeedRole adds a role and returns its generated id.
func (s *Server) SeedRole(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := fmt.Sprintf("role-%d", len(s.roles)+1)
	s.roles = append(s.roles, directus.Role{ID: id, Name: name})
	return id
}

// Roles returns a copy of the roles.
func (s *Server) Roles() []directus.Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]directus.Role(nil), s.roles...)
}

// Permissions returns a copy of the permissions.
func (s *Server) Permissions() []directus.Permission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]directus.Permission(nil), s.permissions...)
}

// Dashboards returns a copy of the dashboards.
func (s *Server) Dashboards() []directus.Dashboard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]directus.Dashboard(nil), s.dashboards...)
}

// Panels returns a copy of the panels.
func (s *Server) Panels() []directus.Panel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]directus.Panel(nil), s.panels...)
}

// User returns the stored fields of a user.
func (s *Server) User(id string) map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]interface{}{}
	for k, v := range s.users[id] {
		out[k] = v
	}
	return out
}

func (s *Server) listRoles(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	respondData(w, r, http.StatusOK, append([]directus.Role{}, s.roles...))
}

func (s *Server) createRole(w http.ResponseWriter, r *http.Request) {
	var role directus.Role
	if err := render.DecodeJSON(r.Body, &role); err != nil {
		invalid(w, r, "%s", err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.roles {
		if existing.Name == role.Name {
			respondError(w, r, http.StatusBadRequest, directus.CodeRecordNotUnique, "Value for field \"name\" in collection \"directus_roles\" has to be unique.")
			return
		}
	}
	role.ID = fmt.Sprintf("role-%d", len(s.roles)+1)
	s.roles = append(s.roles, role)
	respondData(w, r, http.StatusOK, role)
}

func (s *Server) listPermissions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []directus.Permission{}
	for _, p := range s.permissions {
		if q.Get("filter[role][_null]") == "true" && !p.IsPublic() {
			continue
		}
		if id := q.Get("filter[role][_eq]"); id != "" && (p.Role == nil || *p.Role != id) {
			continue
		}
		if c := q.Get("filter[collection][_eq]"); c != "" && p.Collection != c {
			continue
		}
		if a := q.Get("filter[action][_eq]"); a != "" && p.Action != a {
			continue
		}
		out = append(out, p)
	}
	respondData(w, r, http.StatusOK, out)
}

func (s *Server) createPermission(w http.ResponseWriter, r *http.Request) {
	var p directus.Permission
	if err := render.DecodeJSON(r.Body, &p); err != nil {
		invalid(w, r, "%s", err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.permissions {
		if existing.Collection == p.Collection && existing.Action == p.Action && existing.IsPublic() == p.IsPublic() &&
			(p.IsPublic() || *existing.Role == *p.Role) {
			respondError(w, r, http.StatusBadRequest, directus.CodeRecordNotUnique, "Permission already exists")
			return
		}
	}
	p.ID = len(s.permissions) + 1
	s.permissions = append(s.permissions, p)
	respondData(w, r, http.StatusOK, p)
}

func (s *Server) updatePermission(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		invalid(w, r, "invalid id")
		return
	}
	var patch struct {
		Fields      []string               `json:"fields"`
		Permissions map[string]interface{} `json:"permissions"`
	}
	if err := render.DecodeJSON(r.Body, &patch); err != nil {
		invalid(w, r, "%s", err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.permissions {
		if s.permissions[i].ID == id {
			if patch.Fields != nil {
				s.permissions[i].Fields = patch.Fields
			}
			if patch.Permissions != nil {
				s.permissions[i].Permissions = patch.Permissions
			}
			respondData(w, r, http.StatusOK, s.permissions[i])
			return
		}
	}
	forbidden(w, r)
}

func (s *Server) listDashboards(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	respondData(w, r, http.StatusOK, append([]directus.Dashboard{}, s.dashboards...))
}

func (s *Server) createDashboard(w http.ResponseWriter, r *http.Request) {
	var d directus.Dashboard
	if err := render.DecodeJSON(r.Body, &d); err != nil {
		invalid(w, r, "%s", err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d.ID = fmt.Sprintf("dashboard-%d", len(s.dashboards)+1)
	s.dashboards = append(s.dashboards, d)
	respondData(w, r, http.StatusOK, d)
}

func (s *Server) listPanels(w http.ResponseWriter, r *http.Request) {
	dashboard := r.URL.Query().Get("filter[dashboard][_eq]")
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []directus.Panel{}
	for _, p := range s.panels {
		if dashboard == "" || p.Dashboard == dashboard {
			out = append(out, p)
		}
	}
	respondData(w, r, http.StatusOK, out)
}

func (s *Server) createPanel(w http.ResponseWriter, r *http.Request) {
	var p directus.Panel
	if err := render.DecodeJSON(r.Body, &p); err != nil {
		invalid(w, r, "%s", err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	for _, d := range s.dashboards {
		if d.ID == p.Dashboard {
			found = true
		}
	}
	if !found {
		invalid(w, r, "Invalid foreign key for field \"dashboard\"")
		return
	}
	p.ID = fmt.Sprintf("panel-%d", len(s.panels)+1)
	s.panels = append(s.panels, p)
	respondData(w, r, http.StatusOK, p)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	respondData(w, r, http.StatusOK, s.users[AdminUserID])
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var patch map[string]interface{}
	if err := render.DecodeJSON(r.Body, &patch); err != nil {
		invalid(w, r, "%s", err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		forbidden(w, r)
		return
	}
	for k, v := range patch {
		u[k] = v
	}
	respondData(w, r, http.StatusOK, u)
}
