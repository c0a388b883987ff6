package model

import "time"

// SourceKind classifies the remote surface an entity came from
type SourceKind string

const (
	SourceRepoHost   SourceKind = "repo-host"   // repository hosting platform
	SourceWiki       SourceKind = "wiki"        // wiki page
	SourceDiscussion SourceKind = "discussion"  // discussion/talk thread
	SourceRevision   SourceKind = "revision"    // single page/article revision
)

// Entity is an addressable unit of study fetched from a remote source.
// (SourceKind, SourceID) is the dedup key; the resolver owns uniqueness.
type Entity struct {
	SourceID     string         `json:"source_id"`
	SourceKind   SourceKind     `json:"source_kind"`
	CanonicalURL string         `json:"canonical_url,omitempty"`
	FetchedAt    time.Time      `json:"fetched_at"`
	RawPayload   map[string]any `json:"raw_payload,omitempty"`

	// Stub marks an entity whose payload was empty or malformed. Stubs are
	// retained so "seen but unusable" stays distinguishable from "never seen".
	Stub bool `json:"stub,omitempty"`
}

// EntityKey is the composite dedup key for an entity
type EntityKey struct {
	Kind SourceKind
	ID   string
}

// Key returns the entity's dedup key
func (e *Entity) Key() EntityKey {
	return EntityKey{Kind: e.SourceKind, ID: e.SourceID}
}

func (k EntityKey) String() string {
	return string(k.Kind) + ":" + k.ID
}

// TextField is one named text span of a normalized record (title, body, summary, ...)
type TextField struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// NormalizedRecord is the source-agnostic projection of an Entity consumed
// by the classifier. Created only by the resolver. A source that lacks a
// field leaves it absent; adapters never synthesize defaults that a
// classification rule could mistake for signal.
type NormalizedRecord struct {
	EntityID       string      `json:"entity_id"`
	SourceKind     SourceKind  `json:"source_kind"`
	CanonicalURL   string      `json:"canonical_url,omitempty"`
	TextFields     []TextField `json:"text_fields"`
	Timestamp      time.Time   `json:"timestamp,omitempty"`
	Actor          string      `json:"actor,omitempty"`
	ParentEntityID string      `json:"parent_entity_id,omitempty"`
}

// Field returns the named text field and whether it is present
func (r *NormalizedRecord) Field(name string) (TextField, bool) {
	for _, f := range r.TextFields {
		if f.Name == name {
			return f, true
		}
	}
	return TextField{}, false
}
