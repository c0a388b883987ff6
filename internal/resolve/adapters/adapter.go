package adapters

import (
	"strings"

	"github.com/ppiankov/govsift/internal/model"
	"golang.org/x/net/html"
)

// Adapter maps one source's payload shape onto the common entity/record
// shape. A source that lacks a field leaves it absent; adapters never
// synthesize a default that a classification rule could mistake for signal.
type Adapter interface {
	// Name returns the adapter name
	Name() string

	// CanHandle checks if this adapter understands payloads from the
	// given endpoint
	CanHandle(endpoint string, payload map[string]any) bool

	// Resolve extracts the addressable entity from one raw payload.
	// A payload with a usable source id but empty/malformed content
	// yields a stub entity; a payload with no id at all yields an error.
	Resolve(endpoint string, payload map[string]any) (*model.Entity, error)

	// Normalize projects an entity into the classifier's record shape
	Normalize(e *model.Entity) (*model.NormalizedRecord, error)
}

// Registry manages source adapters
type Registry struct {
	adapters []Adapter
	generic  Adapter
}

// NewRegistry creates a registry with the built-in adapters registered
// and the generic adapter as fallback
func NewRegistry() *Registry {
	r := &Registry{}
	r.Register(NewMediaWikiAdapter())
	r.Register(NewRepoHostAdapter())
	r.generic = NewGenericAdapter()
	return r
}

// Register registers an additional adapter
func (r *Registry) Register(a Adapter) {
	r.adapters = append(r.adapters, a)
}

// Find returns the best adapter for the endpoint and payload
func (r *Registry) Find(endpoint string, payload map[string]any) Adapter {
	for _, a := range r.adapters {
		if a.CanHandle(endpoint, payload) {
			return a
		}
	}
	return r.generic
}

// stringField reads a string-typed key from a payload
func stringField(payload map[string]any, key string) (string, bool) {
	v, ok := payload[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// textFromHTML strips markup from an HTML fragment, keeping visible text.
// Scripts and styles are skipped.
func textFromHTML(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if buf.Len() > 0 {
					buf.WriteString(" ")
				}
				buf.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return buf.String()
}
