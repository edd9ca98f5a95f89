// Package platformtest provides an in-memory stand-in for the platform Admin API.
package platformtest

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/platform"
)

// mapping describes a many-to-many association written inline as [{id}] on the owner.
type mapping struct {
	entity string // mapping entity, e.g. product_category
	field  string // foreign key of the referenced entity
	target string // referenced entity
}

// owned describes a one-to-many association whose rows carry the owner id.
type owned struct {
	entity     string
	foreignKey string
}

var mappings = map[string]map[string]mapping{
	"product": {
		"categories": {entity: "product_category", field: "categoryId", target: "category"},
		"properties": {entity: "product_property", field: "optionId", target: "property_group_option"},
		"options":    {entity: "product_option", field: "optionId", target: "property_group_option"},
	},
}

var ownedBy = map[string]map[string]owned{
	"product": {
		"media":                {entity: "product_media", foreignKey: "productId"},
		"visibilities":         {entity: "product_visibility", foreignKey: "productId"},
		"configuratorSettings": {entity: "product_configurator_setting", foreignKey: "productId"},
		"children":             {entity: "product", foreignKey: "parentId"},
	},
	"promotion": {
		"discounts":       {entity: "promotion_discount", foreignKey: "promotionId"},
		"individualCodes": {entity: "promotion_individual_code", foreignKey: "promotionId"},
		"salesChannels":   {entity: "promotion_sales_channel", foreignKey: "promotionId"},
	},
	"property_group": {
		"options": {entity: "property_group_option", foreignKey: "groupId"},
	},
}

// mappingOwner returns the owner foreign key of a mapping entity.
func mappingOwner(entity string) (string, mapping, bool) {
	for owner, defs := range mappings {
		for _, m := range defs {
			if m.entity == entity {
				return owner + "Id", m, true
			}
		}
	}
	return "", mapping{}, false
}

type table struct {
	order []string
	rows  map[string]platform.Entity
}

// Upload records one UploadFromURL call.
type Upload struct {
	MediaID   string
	URL       string
	FileName  string
	Extension string
}

// Write records one Upsert or Delete call.
type Write struct {
	Action string
	Entity string
	Count  int
}

// Store implements platform.Repository, platform.MediaUploader and
// platform.DocumentSearcher in memory.
type Store struct {
	mu        sync.Mutex
	tables    map[string]*table
	documents map[string][]byte
	uploads   []Upload
	writes    []Write

	// FailUpsert makes Upsert of the named entity fail.
	FailUpsert map[string]error
	// FailUpload makes every UploadFromURL fail.
	FailUpload error
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		tables:     map[string]*table{},
		documents:  map[string][]byte{},
		FailUpsert: map[string]error{},
	}
}

func (s *Store) table(entity string) *table {
	t, ok := s.tables[entity]
	if !ok {
		t = &table{rows: map[string]platform.Entity{}}
		s.tables[entity] = t
	}
	return t
}

// Seed stores rows without recording writes.
func (s *Store) Seed(entity string, rows ...platform.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range rows {
		if err := s.upsertRow(entity, normalize(row)); err != nil {
			panic(err)
		}
	}
}

// SetDocument registers the JSON:API document returned for entity id.
func (s *Store) SetDocument(entity, id string, doc []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[entity+":"+id] = doc
}

// Rows returns all rows of entity in insertion order.
func (s *Store) Rows(entity string) []platform.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.table(entity)
	out := make([]platform.Entity, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, normalize(t.rows[id]))
	}
	return out
}

// Get returns a single row or nil.
func (s *Store) Get(entity, id string) platform.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.table(entity).rows[id]
	if !ok {
		return nil
	}
	return normalize(row)
}

// Count returns the number of rows of entity.
func (s *Store) Count(entity string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.table(entity).order)
}

// Uploads returns the recorded uploads.
func (s *Store) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Upload(nil), s.uploads...)
}

// Writes returns the recorded writes.
func (s *Store) Writes() []Write {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Write(nil), s.writes...)
}

// Search implements platform.Repository.
func (s *Store) Search(ctx context.Context, entity string, criteria *platform.Criteria) (*platform.SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if criteria == nil {
		criteria = platform.NewCriteria()
	}
	matched := s.match(entity, criteria)
	total := len(matched)

	if criteria.Limit > 0 {
		page := criteria.Page
		if page < 1 {
			page = 1
		}
		start := (page - 1) * criteria.Limit
		if start > len(matched) {
			start = len(matched)
		}
		end := start + criteria.Limit
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}

	data := make([]platform.Entity, 0, len(matched))
	for _, row := range matched {
		out := normalize(row)
		for name := range criteria.Associations {
			s.attach(entity, out, name)
		}
		data = append(data, out)
	}
	return &platform.SearchResult{Total: total, Data: data}, nil
}

// SearchIDs implements platform.Repository.
func (s *Store) SearchIDs(ctx context.Context, entity string, criteria *platform.Criteria) ([]string, error) {
	res, err := s.Search(ctx, entity, criteria)
	if err != nil {
		return nil, err
	}
	return platform.IDs(res.Data), nil
}

// SearchDocument implements platform.DocumentSearcher.
func (s *Store) SearchDocument(ctx context.Context, entity string, criteria *platform.Criteria) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if criteria != nil && len(criteria.IDs) > 0 {
		if doc, ok := s.documents[entity+":"+criteria.IDs[0]]; ok {
			return doc, nil
		}
	}
	return []byte(`{"data":[],"included":[]}`), nil
}

// Upsert implements platform.Repository.
func (s *Store) Upsert(ctx context.Context, entity string, payload []platform.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.FailUpsert[entity]; err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	s.writes = append(s.writes, Write{Action: "upsert", Entity: entity, Count: len(payload)})
	for _, row := range payload {
		if err := s.upsertRow(entity, normalize(row)); err != nil {
			return err
		}
	}
	return nil
}

// Delete implements platform.Repository.
func (s *Store) Delete(ctx context.Context, entity string, keys []platform.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(keys) == 0 {
		return nil
	}
	s.writes = append(s.writes, Write{Action: "delete", Entity: entity, Count: len(keys)})
	for _, key := range keys {
		if ownerKey, m, ok := mappingOwner(entity); ok {
			s.remove(entity, key.String(ownerKey)+"-"+key.String(m.field))
			continue
		}
		s.cascade(entity, key.ID())
	}
	return nil
}

// UploadFromURL implements platform.MediaUploader.
func (s *Store) UploadFromURL(ctx context.Context, mediaID, url, fileName, extension string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailUpload != nil {
		return s.FailUpload
	}
	s.uploads = append(s.uploads, Upload{MediaID: mediaID, URL: url, FileName: fileName, Extension: extension})
	if row, ok := s.table("media").rows[mediaID]; ok {
		row["fileName"] = fileName
		row["fileExtension"] = extension
		row["hasFile"] = true
	}
	return nil
}

func (s *Store) upsertRow(entity string, row platform.Entity) error {
	if ownerKey, m, ok := mappingOwner(entity); ok {
		s.put(entity, row.String(ownerKey)+"-"+row.String(m.field), row)
		return nil
	}

	id := row.ID()
	if id == "" {
		return &platform.APIError{Status: 400, Body: fmt.Sprintf("%s: missing id", entity)}
	}

	for name, m := range mappings[entity] {
		items, ok := platform.AsSlice(row[name])
		if !ok {
			continue
		}
		delete(row, name)
		for _, item := range items {
			ref, _ := platform.AsMap(item)
			refID := platform.AsString(ref["id"])
			if refID == "" {
				continue
			}
			if len(ref) > 1 {
				if err := s.upsertRow(m.target, platform.Entity(ref)); err != nil {
					return err
				}
			}
			s.put(m.entity, id+"-"+refID, platform.Entity{entity + "Id": id, m.field: refID})
		}
	}

	for name, o := range ownedBy[entity] {
		items, ok := platform.AsSlice(row[name])
		if !ok {
			continue
		}
		delete(row, name)
		for _, item := range items {
			child, _ := platform.AsMap(item)
			child[o.foreignKey] = id
			if err := s.upsertRow(o.entity, platform.Entity(child)); err != nil {
				return err
			}
		}
	}

	s.put(entity, id, row)
	return nil
}

func (s *Store) put(entity, key string, row platform.Entity) {
	t := s.table(entity)
	existing, ok := t.rows[key]
	if !ok {
		t.order = append(t.order, key)
		t.rows[key] = row
		return
	}
	for k, v := range row {
		existing[k] = v
	}
}

func (s *Store) remove(entity, key string) bool {
	t := s.table(entity)
	if _, ok := t.rows[key]; !ok {
		return false
	}
	delete(t.rows, key)
	for i, k := range t.order {
		if k == key {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

// cascade deletes a row together with its owned rows and mappings.
func (s *Store) cascade(entity, id string) {
	if !s.remove(entity, id) {
		return
	}
	for _, o := range ownedBy[entity] {
		for _, child := range s.filterRows(o.entity, o.foreignKey, id) {
			s.cascade(o.entity, child.ID())
		}
	}
	for _, m := range mappings[entity] {
		for _, row := range s.filterRows(m.entity, entity+"Id", id) {
			s.remove(m.entity, id+"-"+row.String(m.field))
		}
	}
}

func (s *Store) filterRows(entity, field, value string) []platform.Entity {
	var out []platform.Entity
	t := s.table(entity)
	for _, key := range t.order {
		if t.rows[key].String(field) == value {
			out = append(out, t.rows[key])
		}
	}
	return out
}

func (s *Store) attach(entity string, row platform.Entity, name string) {
	id := row.ID()
	if m, ok := mappings[entity][name]; ok {
		var refs []interface{}
		for _, link := range s.filterRows(m.entity, entity+"Id", id) {
			refID := link.String(m.field)
			target, ok := s.table(m.target).rows[refID]
			if !ok {
				target = platform.Entity{"id": refID}
			}
			refs = append(refs, map[string]interface{}(normalize(target)))
		}
		row[name] = refs
		return
	}
	if o, ok := ownedBy[entity][name]; ok {
		var children []interface{}
		for _, child := range s.filterRows(o.entity, o.foreignKey, id) {
			children = append(children, map[string]interface{}(normalize(child)))
		}
		row[name] = children
	}
}

func (s *Store) match(entity string, criteria *platform.Criteria) []platform.Entity {
	t := s.table(entity)
	var ids map[string]bool
	if len(criteria.IDs) > 0 {
		ids = map[string]bool{}
		for _, id := range criteria.IDs {
			ids[id] = true
		}
	}

	var out []platform.Entity
	for _, key := range t.order {
		row := t.rows[key]
		if ids != nil && !ids[row.ID()] {
			continue
		}
		if !matchAll(row, criteria.Filter) {
			continue
		}
		out = append(out, row)
	}

	if len(criteria.Sort) > 0 {
		sortBy := criteria.Sort[0]
		sort.SliceStable(out, func(i, j int) bool {
			a, _ := platform.Path(out[i], sortBy.Field)
			b, _ := platform.Path(out[j], sortBy.Field)
			if strings.EqualFold(sortBy.Order, "DESC") {
				return platform.AsString(a) > platform.AsString(b)
			}
			return platform.AsString(a) < platform.AsString(b)
		})
	}
	return out
}

func matchAll(row platform.Entity, filters []platform.Filter) bool {
	for _, f := range filters {
		if !matchFilter(row, f) {
			return false
		}
	}
	return true
}

func matchFilter(row platform.Entity, f platform.Filter) bool {
	switch f.Type {
	case "equals":
		v, ok := platform.Path(row, f.Field)
		if f.Value == nil {
			return !ok || v == nil
		}
		return ok && platform.AsString(v) == platform.AsString(f.Value)
	case "equalsAny":
		v, ok := platform.Path(row, f.Field)
		if !ok {
			return false
		}
		values, _ := f.Value.([]string)
		for _, want := range values {
			if platform.AsString(v) == want {
				return true
			}
		}
		return false
	case "range":
		v, ok := platform.Path(row, f.Field)
		if !ok {
			return false
		}
		got := platform.AsString(v)
		if gte, ok := f.Parameters["gte"]; ok && got < platform.AsString(gte) {
			return false
		}
		if lte, ok := f.Parameters["lte"]; ok && got > platform.AsString(lte) {
			return false
		}
		return true
	case "multi":
		if strings.EqualFold(f.Operator, "or") {
			for _, q := range f.Queries {
				if matchFilter(row, q) {
					return true
				}
			}
			return false
		}
		return matchAll(row, f.Queries)
	}
	return false
}

// normalize deep-copies a row through JSON so stored values look like decoded API data.
func normalize(row platform.Entity) platform.Entity {
	raw, err := json.Marshal(row)
	if err != nil {
		panic(err)
	}
	var out platform.Entity
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	return out
}
