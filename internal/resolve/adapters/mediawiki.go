package adapters

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/govsift/internal/model"
)

// MediaWikiAdapter understands the payload shapes MediaWiki query surfaces
// return: revision entries (revid + edit summary), search results
// (title + HTML snippet), and talk-page section entries.
type MediaWikiAdapter struct{}

// NewMediaWikiAdapter creates a MediaWiki adapter
func NewMediaWikiAdapter() *MediaWikiAdapter {
	return &MediaWikiAdapter{}
}

// Name returns the adapter name
func (a *MediaWikiAdapter) Name() string { return "mediawiki" }

// CanHandle matches MediaWiki API endpoints and revision-shaped payloads
func (a *MediaWikiAdapter) CanHandle(endpoint string, payload map[string]any) bool {
	lower := strings.ToLower(endpoint)
	if strings.Contains(lower, "api.php") ||
		strings.Contains(lower, "wikipedia.org") ||
		strings.Contains(lower, "wikimedia.org") {
		return true
	}
	_, hasRev := payload["revid"]
	_, hasPage := payload["pageid"]
	return hasRev || hasPage
}

// Resolve extracts the entity addressed by one MediaWiki payload
func (a *MediaWikiAdapter) Resolve(endpoint string, payload map[string]any) (*model.Entity, error) {
	kind, id := a.identify(payload)
	if id == "" {
		return nil, fmt.Errorf("mediawiki payload has no usable id")
	}

	e := &model.Entity{
		SourceID:     id,
		SourceKind:   kind,
		CanonicalURL: a.canonicalURL(endpoint, payload),
		FetchedAt:    time.Now().UTC(),
		RawPayload:   payload,
	}
	if len(a.textFields(payload)) == 0 {
		e.Stub = true
	}
	return e, nil
}

// Normalize projects a MediaWiki entity into the common record shape
func (a *MediaWikiAdapter) Normalize(e *model.Entity) (*model.NormalizedRecord, error) {
	if e.Stub {
		return nil, fmt.Errorf("stub entity %s has no normalizable payload", e.Key())
	}

	rec := &model.NormalizedRecord{
		EntityID:     e.Key().String(),
		SourceKind:   e.SourceKind,
		CanonicalURL: e.CanonicalURL,
		TextFields:   a.textFields(e.RawPayload),
	}

	if user, ok := stringField(e.RawPayload, "user"); ok {
		rec.Actor = user
	}
	if ts, ok := stringField(e.RawPayload, "timestamp"); ok {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			rec.Timestamp = parsed
		}
	}
	// A revision's parent is its article; a weak back-reference, not ownership
	if e.SourceKind == model.SourceRevision {
		if title, ok := stringField(e.RawPayload, "title"); ok {
			rec.ParentEntityID = model.EntityKey{Kind: model.SourceWiki, ID: title}.String()
		}
	}

	return rec, nil
}

// identify derives (kind, id) from the payload shape
func (a *MediaWikiAdapter) identify(payload map[string]any) (model.SourceKind, string) {
	if rev, ok := payload["revid"]; ok {
		if id := numericID(rev); id != "" {
			return model.SourceRevision, id
		}
	}

	title, hasTitle := stringField(payload, "title")
	if hasTitle && strings.HasPrefix(title, "Talk:") {
		return model.SourceDiscussion, title
	}
	if hasTitle {
		return model.SourceWiki, title
	}
	if pid, ok := payload["pageid"]; ok {
		if id := numericID(pid); id != "" {
			return model.SourceWiki, id
		}
	}
	return model.SourceWiki, ""
}

// textFields collects the payload's text spans in a stable order
func (a *MediaWikiAdapter) textFields(payload map[string]any) []model.TextField {
	var fields []model.TextField
	if title, ok := stringField(payload, "title"); ok {
		fields = append(fields, model.TextField{Name: "title", Text: title})
	}
	if comment, ok := stringField(payload, "comment"); ok {
		fields = append(fields, model.TextField{Name: "summary", Text: comment})
	}
	if snippet, ok := stringField(payload, "snippet"); ok {
		// Search snippets carry highlight markup
		fields = append(fields, model.TextField{Name: "snippet", Text: textFromHTML(snippet)})
	}
	if content, ok := stringField(payload, "content"); ok {
		fields = append(fields, model.TextField{Name: "body", Text: content})
	}
	return fields
}

func (a *MediaWikiAdapter) canonicalURL(endpoint string, payload map[string]any) string {
	if canonical, ok := stringField(payload, "canonicalurl"); ok {
		return canonical
	}
	title, ok := stringField(payload, "title")
	if !ok {
		return ""
	}
	parsed, err := url.Parse(endpoint)
	if err != nil || parsed.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s://%s/wiki/%s", parsed.Scheme, parsed.Host,
		url.PathEscape(strings.ReplaceAll(title, " ", "_")))
}

// numericID renders a JSON number (or numeric string) as a stable id
func numericID(v any) string {
	switch n := v.(type) {
	case float64:
		return strconv.FormatInt(int64(n), 10)
	case string:
		return n
	default:
		return ""
	}
}
