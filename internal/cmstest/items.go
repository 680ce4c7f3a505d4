package cmstest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/directus-ops/cmsctl/pkg/directus"
)

// SeedItems stores items directly, assigning ids where missing.
func (s *Server) SeedItems(collection string, items ...directus.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range items {
		s.insertItem(collection, item)
	}
}

// Items returns a copy of the items in a collection.
func (s *Server) Items(collection string) []directus.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]directus.Item, 0, len(s.items[collection]))
	for _, item := range s.items[collection] {
		out = append(out, copyItem(item))
	}
	return out
}

func copyItem(item directus.Item) directus.Item {
	out := make(directus.Item, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

func (s *Server) insertItem(collection string, item directus.Item) directus.Item {
	item = copyItem(item)
	switch id := item["id"].(type) {
	case nil:
		s.nextID[collection]++
		item["id"] = float64(s.nextID[collection])
	case float64:
		if int(id) > s.nextID[collection] {
			s.nextID[collection] = int(id)
		}
	}
	s.items[collection] = append(s.items[collection], item)
	return item
}

func (s *Server) itemIndex(collection, id string) int {
	for i, item := range s.items[collection] {
		if sameID(item["id"], id) {
			return i
		}
	}
	return -1
}

func sameID(v interface{}, id string) bool {
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64) == id
	}
	return fmt.Sprintf("%v", v) == id
}

func (s *Server) listItems(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	q := r.URL.Query()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collectionIndex(collection) < 0 {
		forbidden(w, r)
		return
	}

	var filter map[string]interface{}
	if raw := q.Get("filter"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &filter); err != nil {
			invalid(w, r, "Invalid query. Invalid JSON for filter object.")
			return
		}
	}

	matched := []directus.Item{}
	for _, item := range s.items[collection] {
		if matches(item, filter) {
			matched = append(matched, copyItem(item))
		}
	}

	if agg := q.Get("aggregate[count]"); agg != "" {
		respondData(w, r, http.StatusOK, []map[string]interface{}{{"count": strconv.Itoa(len(matched))}})
		return
	}

	if limit := q.Get("limit"); limit != "" && limit != "-1" {
		if n, err := strconv.Atoi(limit); err == nil && n < len(matched) {
			matched = matched[:n]
		}
	}

	if fields := q.Get("fields"); fields != "" && fields != "*" {
		keep := strings.Split(fields, ",")
		for i, item := range matched {
			picked := directus.Item{}
			for _, f := range keep {
				if v, ok := item[f]; ok {
					picked[f] = v
				}
			}
			matched[i] = picked
		}
	}
	respondData(w, r, http.StatusOK, matched)
}

// matches implements the small filter subset the tooling uses: _eq, _neq,
// _null, _nnull, _in, _contains and _icontains on top-level fields.
func matches(item directus.Item, filter map[string]interface{}) bool {
	for field, cond := range filter {
		ops, ok := cond.(map[string]interface{})
		if !ok {
			continue
		}
		v := item[field]
		for op, want := range ops {
			switch op {
			case "_eq":
				if fmt.Sprintf("%v", v) != fmt.Sprintf("%v", want) {
					return false
				}
			case "_neq":
				if fmt.Sprintf("%v", v) == fmt.Sprintf("%v", want) {
					return false
				}
			case "_null":
				if (v == nil) != (want == true || want == "true") {
					return false
				}
			case "_nnull":
				if (v != nil) != (want == true || want == "true") {
					return false
				}
			case "_in":
				list, _ := want.([]interface{})
				found := false
				for _, candidate := range list {
					if fmt.Sprintf("%v", v) == fmt.Sprintf("%v", candidate) {
						found = true
					}
				}
				if !found {
					return false
				}
			case "_contains":
				if !strings.Contains(fmt.Sprintf("%v", v), fmt.Sprintf("%v", want)) {
					return false
				}
			case "_icontains":
				if !strings.Contains(strings.ToLower(fmt.Sprintf("%v", v)), strings.ToLower(fmt.Sprintf("%v", want))) {
					return false
				}
			}
		}
	}
	return true
}

func (s *Server) createItems(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	var raw json.RawMessage
	if err := render.DecodeJSON(r.Body, &raw); err != nil {
		invalid(w, r, "%s", err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collectionIndex(collection) < 0 {
		forbidden(w, r)
		return
	}

	if strings.HasPrefix(strings.TrimSpace(string(raw)), "[") {
		var batch []directus.Item
		if err := json.Unmarshal(raw, &batch); err != nil {
			invalid(w, r, "%s", err.Error())
			return
		}
		out := make([]directus.Item, 0, len(batch))
		for _, item := range batch {
			if err := s.checkUnique(collection, item); err != nil {
				respondError(w, r, http.StatusBadRequest, directus.CodeRecordNotUnique, err.Error())
				return
			}
			out = append(out, s.insertItem(collection, item))
		}
		respondData(w, r, http.StatusOK, out)
		return
	}

	var item directus.Item
	if err := json.Unmarshal(raw, &item); err != nil {
		invalid(w, r, "%s", err.Error())
		return
	}
	if err := s.checkUnique(collection, item); err != nil {
		respondError(w, r, http.StatusBadRequest, directus.CodeRecordNotUnique, err.Error())
		return
	}
	respondData(w, r, http.StatusOK, s.insertItem(collection, item))
}

// checkUnique enforces primary key uniqueness and any field whose schema
// sets is_unique.
func (s *Server) checkUnique(collection string, item directus.Item) error {
	unique := []string{"id"}
	for _, f := range s.fields[collection] {
		if u, _ := f.Schema["is_unique"].(bool); u {
			unique = append(unique, f.Field)
		}
	}
	for _, field := range unique {
		v, ok := item[field]
		if !ok || v == nil {
			continue
		}
		for _, existing := range s.items[collection] {
			if fmt.Sprintf("%v", existing[field]) == fmt.Sprintf("%v", v) {
				return fmt.Errorf("Value for field \"%s\" in collection \"%s\" has to be unique.", field, collection)
			}
		}
	}
	return nil
}

func (s *Server) getItem(w http.ResponseWriter, r *http.Request) {
	collection, id := chi.URLParam(r, "collection"), chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.itemIndex(collection, id)
	if i < 0 {
		forbidden(w, r)
		return
	}
	respondData(w, r, http.StatusOK, copyItem(s.items[collection][i]))
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	collection, id := chi.URLParam(r, "collection"), chi.URLParam(r, "id")
	var patch directus.Item
	if err := render.DecodeJSON(r.Body, &patch); err != nil {
		invalid(w, r, "%s", err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.itemIndex(collection, id)
	if i < 0 {
		forbidden(w, r)
		return
	}
	for k, v := range patch {
		if k == "id" {
			continue
		}
		s.items[collection][i][k] = v
	}
	respondData(w, r, http.StatusOK, copyItem(s.items[collection][i]))
}

func (s *Server) deleteItem(w http.ResponseWriter, r *http.Request) {
	collection, id := chi.URLParam(r, "collection"), chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.itemIndex(collection, id)
	if i < 0 {
		forbidden(w, r)
		return
	}
	s.items[collection] = append(s.items[collection][:i], s.items[collection][i+1:]...)
	noContent(w)
}
