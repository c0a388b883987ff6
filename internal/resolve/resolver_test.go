package resolve

import (
	"testing"
	"time"

	"github.com/ppiankov/govsift/internal/model"
	"github.com/ppiankov/govsift/internal/source"
)

const wikiEndpoint = "https://en.wikipedia.org/w/api.php"

func page(items ...map[string]any) *source.ResultPage {
	return &source.ResultPage{Items: items, FetchedAt: time.Now().UTC()}
}

func TestIngest_DedupIsIdempotent(t *testing.T) {
	r := NewResolver(nil)
	payload := map[string]any{
		"revid":     float64(12345),
		"title":     "Climate",
		"comment":   "copyedit",
		"timestamp": "2025-03-01T10:00:00Z",
	}

	first := r.Ingest(wikiEndpoint, page(payload))
	if len(first) != 1 || !first[0].IsNew {
		t.Fatalf("Expected one new entity on first ingest, got %+v", first)
	}

	// Same entity returned by an overlapping query
	second := r.Ingest(wikiEndpoint, page(payload))
	if len(second) != 1 || second[0].IsNew {
		t.Fatalf("Expected re-seen entity to not be new, got %+v", second)
	}
	if r.Len() != 1 {
		t.Errorf("Expected corpus size 1 after duplicate ingest, got %d", r.Len())
	}

	// A third pass changes nothing either
	r.Ingest(wikiEndpoint, page(payload))
	if r.Len() != 1 {
		t.Errorf("Expected corpus size to stay 1, got %d", r.Len())
	}
	if len(r.Conflicts()) != 0 {
		t.Errorf("Expected no conflicts for identical payloads, got %d", len(r.Conflicts()))
	}
}

func TestIngest_DistinctKindsSameID(t *testing.T) {
	r := NewResolver(nil)
	r.Ingest(wikiEndpoint, page(
		map[string]any{"revid": float64(77), "comment": "fix"},
		map[string]any{"title": "77", "comment": "page"},
	))
	// revision:77 and wiki:77 are distinct entities
	if r.Len() != 2 {
		t.Errorf("Expected 2 entities for same id under different kinds, got %d", r.Len())
	}
}

func TestMerge_ConflictAuditTrail(t *testing.T) {
	r := NewResolver(nil)
	r.Ingest(wikiEndpoint, page(map[string]any{
		"revid":   float64(555),
		"comment": "first summary",
	}))
	r.Ingest(wikiEndpoint, page(map[string]any{
		"revid":   float64(555),
		"comment": "second summary",
	}))

	conflicts := r.Conflicts()
	if len(conflicts) != 1 {
		t.Fatalf("Expected 1 conflict, got %d", len(conflicts))
	}
	c := conflicts[0]
	if c.Field != "comment" || c.Original != "first summary" || c.Replaced != "second summary" {
		t.Errorf("Unexpected conflict entry: %+v", c)
	}

	// Last write wins on the retained entity
	e, ok := r.Get(model.EntityKey{Kind: model.SourceRevision, ID: "555"})
	if !ok {
		t.Fatal("Expected entity to be retained")
	}
	if e.RawPayload["comment"] != "second summary" {
		t.Errorf("Expected last write to win, got %v", e.RawPayload["comment"])
	}
}

func TestMerge_AdoptsAbsentFields(t *testing.T) {
	r := NewResolver(nil)
	r.Ingest(wikiEndpoint, page(map[string]any{
		"revid":   float64(9),
		"comment": "summary",
	}))
	r.Ingest(wikiEndpoint, page(map[string]any{
		"revid": float64(9),
		"user":  "Editor1",
	}))

	e, _ := r.Get(model.EntityKey{Kind: model.SourceRevision, ID: "9"})
	if e.RawPayload["user"] != "Editor1" || e.RawPayload["comment"] != "summary" {
		t.Errorf("Expected merged payload to carry both fields, got %+v", e.RawPayload)
	}
	if len(r.Conflicts()) != 0 {
		t.Errorf("Expected no conflicts when fields do not overlap, got %d", len(r.Conflicts()))
	}
}

func TestMerge_StubReplacedByUsablePayload(t *testing.T) {
	r := NewResolver(nil)

	// Payload with an id but no text content resolves to a stub
	got := r.Ingest(wikiEndpoint, page(map[string]any{"pageid": float64(42)}))
	if len(got) != 1 || !got[0].Entity.Stub {
		t.Fatalf("Expected a stub entity, got %+v", got)
	}

	r.Ingest(wikiEndpoint, page(map[string]any{"pageid": float64(42), "content": "page body"}))
	e, _ := r.Get(model.EntityKey{Kind: model.SourceWiki, ID: "42"})
	if e.Stub {
		t.Error("Expected stub to be replaced by usable payload")
	}
	if e.RawPayload["content"] != "page body" {
		t.Errorf("Expected adopted payload, got %+v", e.RawPayload)
	}
}

func TestIngest_DropsUnkeyedPayloads(t *testing.T) {
	r := NewResolver(nil)
	got := r.Ingest(wikiEndpoint, page(
		map[string]any{"comment": "no id at all"},
		map[string]any{"revid": float64(1), "comment": "fine"},
	))
	if len(got) != 1 {
		t.Fatalf("Expected unkeyed payload to be dropped, got %d results", len(got))
	}
	if r.Len() != 1 {
		t.Errorf("Expected corpus size 1, got %d", r.Len())
	}
}

func TestNormalize_RevisionRecord(t *testing.T) {
	r := NewResolver(nil)
	got := r.Ingest(wikiEndpoint, page(map[string]any{
		"revid":     float64(100),
		"title":     "Solar power",
		"comment":   "Reverted unsourced additions",
		"user":      "PatrollerX",
		"timestamp": "2025-02-01T08:30:00Z",
	}))

	rec, err := r.Normalize(wikiEndpoint, got[0].Entity)
	if err != nil {
		t.Fatalf("Expected normalization to succeed, got %v", err)
	}
	if rec.EntityID != "revision:100" {
		t.Errorf("Unexpected entity id: %s", rec.EntityID)
	}
	if rec.Actor != "PatrollerX" {
		t.Errorf("Unexpected actor: %s", rec.Actor)
	}
	if rec.ParentEntityID != "wiki:Solar power" {
		t.Errorf("Expected parent back-reference to the article, got %q", rec.ParentEntityID)
	}
	if summary, ok := rec.Field("summary"); !ok || summary.Text != "Reverted unsourced additions" {
		t.Errorf("Expected summary field, got %+v", rec.TextFields)
	}
	if rec.Timestamp.IsZero() {
		t.Error("Expected timestamp to be parsed")
	}
}

func TestNormalize_StubFails(t *testing.T) {
	r := NewResolver(nil)
	got := r.Ingest(wikiEndpoint, page(map[string]any{"pageid": float64(7)}))
	if _, err := r.Normalize(wikiEndpoint, got[0].Entity); err == nil {
		t.Error("Expected stub normalization to fail")
	}
}

func TestEntities_FirstSeenOrder(t *testing.T) {
	r := NewResolver(nil)
	r.Ingest(wikiEndpoint, page(
		map[string]any{"revid": float64(3), "comment": "c"},
		map[string]any{"revid": float64(1), "comment": "a"},
		map[string]any{"revid": float64(2), "comment": "b"},
	))

	entities := r.Entities()
	want := []string{"3", "1", "2"}
	for i, e := range entities {
		if e.SourceID != want[i] {
			t.Errorf("Expected first-seen order %v, got position %d = %s", want, i, e.SourceID)
		}
	}
}
