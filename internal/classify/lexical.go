package classify

import (
	"strings"

	"github.com/ppiankov/govsift/internal/model"
)

// KeywordCategory groups lexicon entries by the signal family they feed
// once disambiguation confirms them.
type KeywordCategory string

const (
	CategoryAIMention     KeywordCategory = "ai-mention"
	CategoryDetectionTool KeywordCategory = "detection-tool"
)

// Keyword is one lexicon entry
type Keyword struct {
	Phrase   string
	Category KeywordCategory
}

// DefaultLexicon returns the AI-governance phrase set observed in wiki
// enforcement activity, plus the common AI-text detection tools.
func DefaultLexicon() []Keyword {
	ai := []string{
		"ai", "a.i.", "chatgpt", "gpt", "llm", "large language model",
		"artificial intelligence", "machine learning",
		"ai-generated", "ai generated", "machine-generated",
		"bot-generated", "auto-generated",
		"automated content", "automated edit", "neural network",
		"suspected ai", "suspected automation", "language model",
	}
	tools := []string{"gptzero", "zerogpt", "originality.ai", "copyleaks", "turnitin"}

	lexicon := make([]Keyword, 0, len(ai)+len(tools))
	for _, p := range ai {
		lexicon = append(lexicon, Keyword{Phrase: p, Category: CategoryAIMention})
	}
	for _, p := range tools {
		lexicon = append(lexicon, Keyword{Phrase: p, Category: CategoryDetectionTool})
	}
	return lexicon
}

// LexicalRule matches the keyword lexicon case-insensitively against a
// record's text fields. A bare hit always yields confidence=low and kind
// keyword-mention; whole-token confirmation and any upgrade are the
// disambiguation rule's job.
type LexicalRule struct {
	lexicon []Keyword
}

// NewLexicalRule creates a lexical rule over the given lexicon
func NewLexicalRule(lexicon []Keyword) *LexicalRule {
	return &LexicalRule{lexicon: lexicon}
}

// Name returns the rule name
func (r *LexicalRule) Name() string { return "lexical-hit" }

// Match finds every lexicon occurrence in every text field. Hits fully
// contained inside a longer hit (the "gpt" inside "chatgpt") are dropped.
func (r *LexicalRule) Match(rec *model.NormalizedRecord) []model.Signal {
	var signals []model.Signal

	for _, field := range rec.TextFields {
		lower := asciiLower(field.Text)

		var spans []model.Span
		var phrases []string
		for _, kw := range r.lexicon {
			phrase := strings.ToLower(kw.Phrase)
			from := 0
			for {
				idx := strings.Index(lower[from:], phrase)
				if idx < 0 {
					break
				}
				start := from + idx
				spans = append(spans, model.Span{Field: field.Name, Start: start, End: start + len(phrase)})
				phrases = append(phrases, kw.Phrase)
				from = start + len(phrase)
			}
		}

		for i, span := range spans {
			if containedInLonger(span, spans, i) {
				continue
			}
			signals = append(signals, model.Signal{
				Kind:            model.SignalKeywordMention,
				SubjectEntityID: rec.EntityID,
				MatchedPattern:  "keyword:" + phrases[i],
				MatchedSpan:     span,
				Confidence:      model.ConfidenceLow,
				EvidenceExcerpt: excerpt(field.Text, span.Start, span.End),
				Timestamp:       rec.Timestamp,
			})
		}
	}

	return signals
}

// Category looks up the lexicon category behind a matched pattern
func (r *LexicalRule) Category(pattern string) (KeywordCategory, bool) {
	phrase := strings.TrimPrefix(pattern, "keyword:")
	for _, kw := range r.lexicon {
		if kw.Phrase == phrase {
			return kw.Category, true
		}
	}
	return "", false
}

// asciiLower folds A-Z only. Full Unicode lowering can change byte
// lengths (U+0130 and friends), which would shift match offsets off the
// original text; the lexicon is plain ASCII, so this fold is enough.
func asciiLower(s string) string {
	var b []byte
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= 'A' && c <= 'Z' {
			if b == nil {
				b = []byte(s)
			}
			b[i] = c + 'a' - 'A'
		}
	}
	if b == nil {
		return s
	}
	return string(b)
}

func containedInLonger(s model.Span, all []model.Span, self int) bool {
	for i, other := range all {
		if i == self || other.Field != s.Field {
			continue
		}
		longer := (other.End - other.Start) > (s.End - s.Start)
		if longer && other.Start <= s.Start && other.End >= s.End {
			return true
		}
	}
	return false
}

// excerpt returns the match with a window of surrounding context
func excerpt(text string, start, end int) string {
	const window = 40
	lo := start - window
	if lo < 0 {
		lo = 0
	}
	hi := end + window
	if hi > len(text) {
		hi = len(text)
	}
	return strings.TrimSpace(text[lo:hi])
}
