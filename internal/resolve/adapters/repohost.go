package adapters

import (
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/govsift/internal/model"
)

// RepoHostAdapter understands repository listings from hosting platforms
// (GitHub-style org/repo payloads and foundation project directories).
type RepoHostAdapter struct{}

// NewRepoHostAdapter creates a repo-host adapter
func NewRepoHostAdapter() *RepoHostAdapter {
	return &RepoHostAdapter{}
}

// Name returns the adapter name
func (a *RepoHostAdapter) Name() string { return "repo-host" }

// CanHandle matches repository-shaped payloads and known host APIs
func (a *RepoHostAdapter) CanHandle(endpoint string, payload map[string]any) bool {
	lower := strings.ToLower(endpoint)
	if strings.Contains(lower, "api.github.com") || strings.Contains(lower, "gitlab.com/api") {
		return true
	}
	_, hasFullName := payload["full_name"]
	_, hasHTMLURL := payload["html_url"]
	return hasFullName || hasHTMLURL
}

// Resolve extracts the repository entity from one payload
func (a *RepoHostAdapter) Resolve(endpoint string, payload map[string]any) (*model.Entity, error) {
	id, _ := stringField(payload, "full_name")
	if id == "" {
		id, _ = stringField(payload, "name")
	}
	if id == "" {
		return nil, fmt.Errorf("repo payload has no usable id")
	}

	canonical, _ := stringField(payload, "html_url")

	e := &model.Entity{
		SourceID:     id,
		SourceKind:   model.SourceRepoHost,
		CanonicalURL: canonical,
		FetchedAt:    time.Now().UTC(),
		RawPayload:   payload,
	}
	if len(a.textFields(payload)) == 0 {
		e.Stub = true
	}
	return e, nil
}

// Normalize projects a repository entity into the common record shape
func (a *RepoHostAdapter) Normalize(e *model.Entity) (*model.NormalizedRecord, error) {
	if e.Stub {
		return nil, fmt.Errorf("stub entity %s has no normalizable payload", e.Key())
	}

	rec := &model.NormalizedRecord{
		EntityID:     e.Key().String(),
		SourceKind:   e.SourceKind,
		CanonicalURL: e.CanonicalURL,
		TextFields:   a.textFields(e.RawPayload),
	}
	if owner, ok := e.RawPayload["owner"].(map[string]any); ok {
		if login, ok := stringField(owner, "login"); ok {
			rec.Actor = login
		}
	}
	if ts, ok := stringField(e.RawPayload, "updated_at"); ok {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			rec.Timestamp = parsed
		}
	}
	return rec, nil
}

func (a *RepoHostAdapter) textFields(payload map[string]any) []model.TextField {
	var fields []model.TextField
	if name, ok := stringField(payload, "full_name"); ok {
		fields = append(fields, model.TextField{Name: "title", Text: name})
	} else if name, ok := stringField(payload, "name"); ok {
		fields = append(fields, model.TextField{Name: "title", Text: name})
	}
	if desc, ok := stringField(payload, "description"); ok {
		fields = append(fields, model.TextField{Name: "description", Text: desc})
	}
	if list, ok := stringField(payload, "mailing_list"); ok {
		fields = append(fields, model.TextField{Name: "mailing_list", Text: list})
	}
	// has_issues marks an issue tracker hosted alongside the repository
	if enabled, ok := payload["has_issues"].(bool); ok && enabled {
		if htmlURL, ok := stringField(payload, "html_url"); ok {
			fields = append(fields, model.TextField{Name: "issue_tracker", Text: htmlURL + "/issues"})
		}
	}
	return fields
}
