package resolve

import (
	"reflect"
	"time"

	"github.com/ppiankov/govsift/internal/model"
	"github.com/ppiankov/govsift/internal/resolve/adapters"
	"github.com/ppiankov/govsift/internal/source"
	"go.uber.org/zap"
)

// Ingested pairs a resolved entity with whether this ingest first saw it
type Ingested struct {
	Entity *model.Entity
	IsNew  bool
}

// Conflict is one audit-trail entry for payloads that disagree on a field
// under the same dedup key. Last-write-wins was applied; the original value
// is retained here rather than discarded.
type Conflict struct {
	Key      model.EntityKey
	Field    string
	Original any
	Replaced any
	At       time.Time
}

// Resolver owns the entity lifecycle: deduplication on (source_kind,
// source_id), field-level merging across overlapping queries, and
// normalization through the adapter registry.
type Resolver struct {
	registry  *adapters.Registry
	entities  map[model.EntityKey]*model.Entity
	order     []model.EntityKey
	conflicts []Conflict
	log       *zap.Logger
}

// NewResolver creates a resolver with the built-in adapter registry
func NewResolver(logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		registry: adapters.NewRegistry(),
		entities: make(map[model.EntityKey]*model.Entity),
		log:      logger,
	}
}

// Ingest folds one result page into the corpus. Payloads that cannot be
// keyed at all are dropped with a warning; payloads with an id but no
// usable content become stub entities so "seen but unusable" stays
// countable.
func (r *Resolver) Ingest(endpoint string, page *source.ResultPage) []Ingested {
	var out []Ingested
	for _, payload := range page.Items {
		adapter := r.registry.Find(endpoint, payload)
		entity, err := adapter.Resolve(endpoint, payload)
		if err != nil {
			r.log.Warn("unresolvable payload",
				zap.String("adapter", adapter.Name()),
				zap.String("endpoint", endpoint),
				zap.Error(err))
			continue
		}
		out = append(out, r.admit(entity))
	}
	return out
}

// Normalize projects an entity into the classifier's record shape.
// Stub entities are not normalizable.
func (r *Resolver) Normalize(endpoint string, e *model.Entity) (*model.NormalizedRecord, error) {
	adapter := r.registry.Find(endpoint, e.RawPayload)
	return adapter.Normalize(e)
}

// admit applies the dedup invariant for one entity
func (r *Resolver) admit(e *model.Entity) Ingested {
	key := e.Key()
	existing, ok := r.entities[key]
	if !ok {
		r.entities[key] = e
		r.order = append(r.order, key)
		return Ingested{Entity: e, IsNew: true}
	}
	r.merge(existing, e)
	return Ingested{Entity: existing, IsNew: false}
}

// merge folds a re-seen payload into the retained entity: absent fields are
// adopted, list fields are unioned, scalar disagreements apply
// last-write-wins with the original recorded in the conflict audit trail.
func (r *Resolver) merge(dst, src *model.Entity) {
	if dst.Stub && !src.Stub {
		// A usable payload replaces a stub outright
		dst.RawPayload = src.RawPayload
		dst.Stub = false
		dst.FetchedAt = src.FetchedAt
		if dst.CanonicalURL == "" {
			dst.CanonicalURL = src.CanonicalURL
		}
		return
	}

	for k, v := range src.RawPayload {
		old, present := dst.RawPayload[k]
		switch {
		case !present:
			dst.RawPayload[k] = v
		case reflect.DeepEqual(old, v):
			// identical re-observation
		default:
			if oldList, ok := old.([]any); ok {
				if newList, ok := v.([]any); ok {
					dst.RawPayload[k] = unionList(oldList, newList)
					continue
				}
			}
			r.conflicts = append(r.conflicts, Conflict{
				Key:      dst.Key(),
				Field:    k,
				Original: old,
				Replaced: v,
				At:       time.Now().UTC(),
			})
			r.log.Warn("resolver conflict, last write wins",
				zap.String("entity", dst.Key().String()),
				zap.String("field", k))
			dst.RawPayload[k] = v
		}
	}
	if src.CanonicalURL != "" {
		dst.CanonicalURL = src.CanonicalURL
	}
	dst.FetchedAt = src.FetchedAt
}

// Len returns the number of distinct entities in the corpus
func (r *Resolver) Len() int {
	return len(r.entities)
}

// Get returns the retained entity for a dedup key
func (r *Resolver) Get(key model.EntityKey) (*model.Entity, bool) {
	e, ok := r.entities[key]
	return e, ok
}

// Entities returns the corpus in first-seen order
func (r *Resolver) Entities() []*model.Entity {
	out := make([]*model.Entity, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.entities[key])
	}
	return out
}

// Conflicts returns the audit trail of merge disagreements
func (r *Resolver) Conflicts() []Conflict {
	return r.conflicts
}

func unionList(a, b []any) []any {
	out := a
	for _, item := range b {
		found := false
		for _, have := range a {
			if reflect.DeepEqual(have, item) {
				found = true
				break
			}
		}
		if !found {
			out = append(out, item)
		}
	}
	return out
}
