package classify

import (
	"regexp"

	"github.com/ppiankov/govsift/internal/model"
)

// shortcutPattern matches the namespace-prefixed policy shortcut grammar
// (WP:RS, MOS:AI, ...). Tokens outside the known vocabulary are noise.
var shortcutPattern = regexp.MustCompile(`\b([A-Z]{1,10}):([A-Z][A-Z0-9]*)\b`)

// DefaultPolicyVocabulary returns the known policy shortcuts observed in
// AI-related enforcement activity.
func DefaultPolicyVocabulary() map[string]bool {
	return map[string]bool{
		"WP:BOT":    true,
		"WP:V":      true,
		"WP:VERIFY": true,
		"WP:RS":     true,
		"WP:NOR":    true,
		"WP:NOTAI":  true,
		"WP:AI":     true,
		"WP:LLM":    true,
		"WP:COPIED": true,
		"WP:SPAM":   true,
		"WP:COI":    true,
		"WP:PROMO":  true,
		"MOS:AI":    true,
	}
}

// CitationRule extracts policy-shortcut citations. Deterministic: a token
// in the known vocabulary always yields a high-confidence policy-citation
// signal; anything else is discarded.
type CitationRule struct {
	vocabulary map[string]bool
}

// NewCitationRule creates a citation rule over the given vocabulary
func NewCitationRule(vocabulary map[string]bool) *CitationRule {
	return &CitationRule{vocabulary: vocabulary}
}

// Name returns the rule name
func (r *CitationRule) Name() string { return "citation-extraction" }

// Match extracts every known policy shortcut from every text field
func (r *CitationRule) Match(rec *model.NormalizedRecord) []model.Signal {
	var signals []model.Signal

	for _, field := range rec.TextFields {
		for _, loc := range shortcutPattern.FindAllStringIndex(field.Text, -1) {
			token := field.Text[loc[0]:loc[1]]
			if !r.vocabulary[token] {
				continue
			}
			signals = append(signals, model.Signal{
				Kind:            model.SignalPolicyCitation,
				SubjectEntityID: rec.EntityID,
				MatchedPattern:  token,
				MatchedSpan:     model.Span{Field: field.Name, Start: loc[0], End: loc[1]},
				Confidence:      model.ConfidenceHigh,
				EvidenceExcerpt: excerpt(field.Text, loc[0], loc[1]),
				Timestamp:       rec.Timestamp,
			})
		}
	}

	return signals
}
