package cmstest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/directus-ops/cmsctl/pkg/directus"
)

// SeedCollection creates a collection with an integer "id" field plus the
// given fields. It bypasses the HTTP layer.
func (s *Server) SeedCollection(name string, fields ...directus.Field) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addCollection(directus.Collection{Collection: name, Meta: map[string]interface{}{}, Schema: map[string]interface{}{"name": name}})
	for _, f := range fields {
		f.Collection = name
		s.fields[name] = append(s.fields[name], f)
	}
}

// SeedRelation adds a relation without going through the API.
func (s *Server) SeedRelation(rel directus.Relation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.relations = append(s.relations, rel)
}

// HasCollection reports whether name exists.
func (s *Server) HasCollection(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collectionIndex(name) >= 0
}

// Collection returns a copy of the named collection.
func (s *Server) Collection(name string) (directus.Collection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.collectionIndex(name); i >= 0 {
		return s.collections[i], true
	}
	return directus.Collection{}, false
}

// Field returns a copy of collection.field.
func (s *Server) Field(collection, field string) (directus.Field, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.fieldIndex(collection, field); i >= 0 {
		return s.fields[collection][i], true
	}
	return directus.Field{}, false
}

// FieldNames lists the fields of a collection in creation order.
func (s *Server) FieldNames(collection string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for _, f := range s.fields[collection] {
		names = append(names, f.Field)
	}
	return names
}

// Relations returns a copy of all relations.
func (s *Server) Relations() []directus.Relation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]directus.Relation(nil), s.relations...)
}

// AppliedDiffs returns every diff posted to /schema/apply.
func (s *Server) AppliedDiffs() []directus.SchemaDiff {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]directus.SchemaDiff(nil), s.applied...)
}

func (s *Server) collectionIndex(name string) int {
	for i, c := range s.collections {
		if c.Collection == name {
			return i
		}
	}
	return -1
}

func (s *Server) fieldIndex(collection, field string) int {
	for i, f := range s.fields[collection] {
		if f.Field == field {
			return i
		}
	}
	return -1
}

func (s *Server) relationIndex(collection, field string) int {
	for i, r := range s.relations {
		if r.Collection == collection && r.Field == field {
			return i
		}
	}
	return -1
}

func (s *Server) addCollection(col directus.Collection) {
	col.Fields = nil
	s.collections = append(s.collections, col)
	if col.Schema != nil {
		s.fields[col.Collection] = append(s.fields[col.Collection], directus.Field{
			Collection: col.Collection,
			Field:      "id",
			Type:       "integer",
			Meta:       map[string]interface{}{"hidden": true, "interface": "input", "readonly": true},
			Schema:     map[string]interface{}{"is_primary_key": true, "has_auto_increment": true},
		})
	}
	if _, ok := s.items[col.Collection]; !ok {
		s.items[col.Collection] = []directus.Item{}
	}
}

func (s *Server) listCollections(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []directus.Collection{{Collection: "directus_users", Meta: map[string]interface{}{"system": true}}}
	out = append(out, s.collections...)
	respondData(w, r, http.StatusOK, out)
}

func (s *Server) getCollection(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.collectionIndex(chi.URLParam(r, "collection"))
	if i < 0 {
		forbidden(w, r)
		return
	}
	respondData(w, r, http.StatusOK, s.collections[i])
}

func (s *Server) createCollection(w http.ResponseWriter, r *http.Request) {
	var col directus.Collection
	if err := render.DecodeJSON(r.Body, &col); err != nil {
		invalid(w, r, "%s", err.Error())
		return
	}
	if col.Collection == "" {
		invalid(w, r, "\"collection\" is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collectionIndex(col.Collection) >= 0 {
		invalid(w, r, "Collection \"%s\" already exists", col.Collection)
		return
	}
	inline := col.Fields
	s.addCollection(col)
	for _, f := range inline {
		if f.Field == "id" {
			continue
		}
		f.Collection = col.Collection
		s.fields[col.Collection] = append(s.fields[col.Collection], f)
	}
	respondData(w, r, http.StatusOK, s.collections[len(s.collections)-1])
}

func (s *Server) updateCollection(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "collection")
	var patch map[string]interface{}
	if err := render.DecodeJSON(r.Body, &patch); err != nil {
		invalid(w, r, "%s", err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.collectionIndex(name)
	if i < 0 {
		forbidden(w, r)
		return
	}
	if meta, ok := patch["meta"].(map[string]interface{}); ok {
		if s.collections[i].Meta == nil {
			s.collections[i].Meta = map[string]interface{}{}
		}
		for k, v := range meta {
			s.collections[i].Meta[k] = v
		}
	}
	if newName, ok := patch["collection"].(string); ok && newName != "" && newName != name {
		if s.collectionIndex(newName) >= 0 {
			invalid(w, r, "Collection \"%s\" already exists", newName)
			return
		}
		s.renameCollection(i, name, newName)
	}
	respondData(w, r, http.StatusOK, s.collections[i])
}

func (s *Server) renameCollection(i int, from, to string) {
	s.collections[i].Collection = to
	s.fields[to] = s.fields[from]
	for j := range s.fields[to] {
		s.fields[to][j].Collection = to
	}
	delete(s.fields, from)
	s.items[to] = s.items[from]
	delete(s.items, from)
	s.nextID[to] = s.nextID[from]
	delete(s.nextID, from)
	for j := range s.relations {
		if s.relations[j].Collection == from {
			s.relations[j].Collection = to
		}
		if s.relations[j].RelatedCollection == from {
			s.relations[j].RelatedCollection = to
		}
	}
}

func (s *Server) deleteCollection(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "collection")
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.collectionIndex(name)
	if i < 0 {
		forbidden(w, r)
		return
	}
	s.collections = append(s.collections[:i], s.collections[i+1:]...)
	delete(s.fields, name)
	delete(s.items, name)
	delete(s.nextID, name)
	kept := s.relations[:0]
	for _, rel := range s.relations {
		if rel.Collection != name {
			kept = append(kept, rel)
		}
	}
	s.relations = kept
	noContent(w)
}

func (s *Server) listFields(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "collection")
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collectionIndex(name) < 0 {
		forbidden(w, r)
		return
	}
	out := append([]directus.Field{}, s.fields[name]...)
	respondData(w, r, http.StatusOK, out)
}

func (s *Server) getField(w http.ResponseWriter, r *http.Request) {
	collection, field := chi.URLParam(r, "collection"), chi.URLParam(r, "field")
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.fieldIndex(collection, field)
	if i < 0 {
		forbidden(w, r)
		return
	}
	respondData(w, r, http.StatusOK, s.fields[collection][i])
}

func (s *Server) createField(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	var f directus.Field
	if err := render.DecodeJSON(r.Body, &f); err != nil {
		invalid(w, r, "%s", err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collectionIndex(collection) < 0 {
		forbidden(w, r)
		return
	}
	if f.Field == "" {
		invalid(w, r, "\"field\" is required")
		return
	}
	if s.fieldIndex(collection, f.Field) >= 0 {
		invalid(w, r, "Field \"%s\" already exists in collection \"%s\"", f.Field, collection)
		return
	}
	f.Collection = collection
	s.fields[collection] = append(s.fields[collection], f)
	respondData(w, r, http.StatusOK, f)
}

func (s *Server) updateField(w http.ResponseWriter, r *http.Request) {
	collection, field := chi.URLParam(r, "collection"), chi.URLParam(r, "field")
	var patch map[string]interface{}
	if err := render.DecodeJSON(r.Body, &patch); err != nil {
		invalid(w, r, "%s", err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.fieldIndex(collection, field)
	if i < 0 {
		forbidden(w, r)
		return
	}
	f := &s.fields[collection][i]
	if t, ok := patch["type"].(string); ok {
		f.Type = t
	}
	merge := func(dst *map[string]interface{}, src interface{}) {
		m, ok := src.(map[string]interface{})
		if !ok {
			return
		}
		if *dst == nil {
			*dst = map[string]interface{}{}
		}
		for k, v := range m {
			(*dst)[k] = v
		}
	}
	merge(&f.Meta, patch["meta"])
	merge(&f.Schema, patch["schema"])
	respondData(w, r, http.StatusOK, *f)
}

func (s *Server) deleteField(w http.ResponseWriter, r *http.Request) {
	collection, field := chi.URLParam(r, "collection"), chi.URLParam(r, "field")
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.fieldIndex(collection, field)
	if i < 0 {
		forbidden(w, r)
		return
	}
	s.fields[collection] = append(s.fields[collection][:i], s.fields[collection][i+1:]...)
	for _, item := range s.items[collection] {
		delete(item, field)
	}
	noContent(w)
}

func (s *Server) listRelations(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]directus.Relation{}, s.relations...)
	respondData(w, r, http.StatusOK, out)
}

func (s *Server) createRelation(w http.ResponseWriter, r *http.Request) {
	var rel directus.Relation
	if err := render.DecodeJSON(r.Body, &rel); err != nil {
		invalid(w, r, "%s", err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fieldIndex(rel.Collection, rel.Field) < 0 {
		invalid(w, r, "Field \"%s\" does not exist in collection \"%s\"", rel.Field, rel.Collection)
		return
	}
	if rel.RelatedCollection != "" && s.collectionIndex(rel.RelatedCollection) < 0 {
		invalid(w, r, "Collection \"%s\" doesn't exist", rel.RelatedCollection)
		return
	}
	if s.relationIndex(rel.Collection, rel.Field) >= 0 {
		invalid(w, r, "Field \"%s\" in collection \"%s\" already has an associated relationship", rel.Field, rel.Collection)
		return
	}
	s.relations = append(s.relations, rel)
	respondData(w, r, http.StatusOK, rel)
}

func (s *Server) updateRelation(w http.ResponseWriter, r *http.Request) {
	collection, field := chi.URLParam(r, "collection"), chi.URLParam(r, "field")
	var patch map[string]interface{}
	if err := render.DecodeJSON(r.Body, &patch); err != nil {
		invalid(w, r, "%s", err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.relationIndex(collection, field)
	if i < 0 {
		forbidden(w, r)
		return
	}
	rel := &s.relations[i]
	if rc, ok := patch["related_collection"].(string); ok {
		rel.RelatedCollection = rc
	}
	if meta, ok := patch["meta"].(map[string]interface{}); ok {
		if rel.Meta == nil {
			rel.Meta = map[string]interface{}{}
		}
		for k, v := range meta {
			rel.Meta[k] = v
		}
	}
	respondData(w, r, http.StatusOK, *rel)
}

func (s *Server) deleteRelation(w http.ResponseWriter, r *http.Request) {
	collection, field := chi.URLParam(r, "collection"), chi.URLParam(r, "field")
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.relationIndex(collection, field)
	if i < 0 {
		forbidden(w, r)
		return
	}
	s.relations = append(s.relations[:i], s.relations[i+1:]...)
	noContent(w)
}

func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var fields []directus.Field
	for _, c := range s.collections {
		fields = append(fields, s.fields[c.Collection]...)
	}
	respondData(w, r, http.StatusOK, map[string]interface{}{
		"version":     1,
		"directus":    "10.10.0",
		"vendor":      "postgres",
		"collections": s.collections,
		"fields":      fields,
		"relations":   s.relations,
	})
}

// diff reports the collections and fields present in the posted snapshot but
// missing on the instance.
func (s *Server) diff(w http.ResponseWriter, r *http.Request) {
	var snap struct {
		Collections []directus.Collection `json:"collections"`
		Fields      []directus.Field      `json:"fields"`
	}
	if err := render.DecodeJSON(r.Body, &snap); err != nil {
		invalid(w, r, "%s", err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var cols []directus.Collection
	for _, c := range snap.Collections {
		if s.collectionIndex(c.Collection) < 0 {
			cols = append(cols, c)
		}
	}
	var fields []directus.Field
	for _, f := range snap.Fields {
		if s.fieldIndex(f.Collection, f.Field) < 0 && f.Field != "id" {
			fields = append(fields, f)
		}
	}
	if len(cols) == 0 && len(fields) == 0 {
		noContent(w)
		return
	}
	respondData(w, r, http.StatusOK, map[string]interface{}{
		"hash": "fake",
		"diff": map[string]interface{}{"collections": cols, "fields": fields},
	})
}

func (s *Server) apply(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Hash string `json:"hash"`
		Diff struct {
			Collections []directus.Collection `json:"collections"`
			Fields      []directus.Field      `json:"fields"`
		} `json:"diff"`
	}
	if err := render.DecodeJSON(r.Body, &body); err != nil {
		invalid(w, r, "%s", err.Error())
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range body.Diff.Collections {
		if s.collectionIndex(c.Collection) < 0 {
			if c.Schema == nil {
				c.Schema = map[string]interface{}{}
			}
			s.addCollection(c)
		}
	}
	for _, f := range body.Diff.Fields {
		if s.fieldIndex(f.Collection, f.Field) < 0 {
			s.fields[f.Collection] = append(s.fields[f.Collection], f)
		}
	}
	s.applied = append(s.applied, directus.SchemaDiff{"hash": body.Hash})
	noContent(w)
}
