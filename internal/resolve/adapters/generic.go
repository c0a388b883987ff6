package adapters

import (
	"fmt"
	"time"

	"github.com/ppiankov/govsift/internal/model"
)

// genericTextKeys are payload keys treated as text spans, in projection order
var genericTextKeys = []string{"title", "name", "summary", "comment", "body", "text", "description", "content"}

// GenericAdapter is the fallback for sources without a dedicated adapter.
// It keys on an explicit id field and projects common text-ish keys.
type GenericAdapter struct{}

// NewGenericAdapter creates a generic adapter
func NewGenericAdapter() *GenericAdapter {
	return &GenericAdapter{}
}

// Name returns the adapter name
func (a *GenericAdapter) Name() string { return "generic" }

// CanHandle accepts anything; the registry only consults it as fallback
func (a *GenericAdapter) CanHandle(string, map[string]any) bool { return true }

// Resolve extracts an entity keyed on the payload's id/source_id field
func (a *GenericAdapter) Resolve(endpoint string, payload map[string]any) (*model.Entity, error) {
	id, ok := stringField(payload, "source_id")
	if !ok {
		id, ok = stringField(payload, "id")
	}
	if !ok {
		if n, present := payload["id"]; present {
			id = numericID(n)
		}
	}
	if id == "" {
		return nil, fmt.Errorf("payload has no usable id")
	}

	kind := model.SourceWiki
	if k, ok := stringField(payload, "source_kind"); ok {
		switch model.SourceKind(k) {
		case model.SourceRepoHost, model.SourceWiki, model.SourceDiscussion, model.SourceRevision:
			kind = model.SourceKind(k)
		}
	}

	canonical, _ := stringField(payload, "url")

	e := &model.Entity{
		SourceID:     id,
		SourceKind:   kind,
		CanonicalURL: canonical,
		FetchedAt:    time.Now().UTC(),
		RawPayload:   payload,
	}
	if len(a.textFields(payload)) == 0 {
		e.Stub = true
	}
	return e, nil
}

// Normalize projects whatever text-ish keys the payload carries
func (a *GenericAdapter) Normalize(e *model.Entity) (*model.NormalizedRecord, error) {
	if e.Stub {
		return nil, fmt.Errorf("stub entity %s has no normalizable payload", e.Key())
	}

	rec := &model.NormalizedRecord{
		EntityID:     e.Key().String(),
		SourceKind:   e.SourceKind,
		CanonicalURL: e.CanonicalURL,
		TextFields:   a.textFields(e.RawPayload),
	}
	if actor, ok := stringField(e.RawPayload, "actor"); ok {
		rec.Actor = actor
	}
	if ts, ok := stringField(e.RawPayload, "timestamp"); ok {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			rec.Timestamp = parsed
		}
	}
	if parent, ok := stringField(e.RawPayload, "parent_entity_id"); ok {
		rec.ParentEntityID = parent
	}
	return rec, nil
}

func (a *GenericAdapter) textFields(payload map[string]any) []model.TextField {
	var fields []model.TextField
	for _, key := range genericTextKeys {
		if text, ok := stringField(payload, key); ok {
			name := key
			if key == "name" {
				name = "title"
			}
			fields = append(fields, model.TextField{Name: name, Text: text})
		}
	}
	return fields
}
