package classify

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/ppiankov/govsift/internal/model"
)

// actionPatterns is the enforcement action-verb taxonomy observed in wiki
// edit summaries. Matching one of these alongside a confirmed keyword hit
// is what distinguishes "enforcement against AI content" from "a page that
// merely mentions AI".
var actionPatterns = []struct {
	Class   string
	Pattern *regexp.Regexp
}{
	{"revert", regexp.MustCompile(`(?i)\b(revert(ed|ing)?|undid|undo|rv)\b`)},
	{"removal", regexp.MustCompile(`(?i)\b(remov(e|ed|ing|al)|delet(e|ed|ing)|blank(ed|ing)?)\b`)},
	{"warning", regexp.MustCompile(`(?i)\b(warn(ed|ing)?|notice|tag(ged|ging)?)\b`)},
	{"block", regexp.MustCompile(`(?i)\b(block(ed|ing)?|ban(ned|ning)?)\b`)},
}

// DisambiguationRule runs only on records that already carry low-confidence
// lexical hits. It confirms that the matched span is a whole token (not the
// "ai" inside "again"), guards against pages that are merely about the
// matched term, and upgrades confirmed hits: medium on context confirmation,
// high plus kind=enforcement-action when an enforcement verb co-occurs.
type DisambiguationRule struct {
	categories map[string]KeywordCategory
}

// NewDisambiguationRule creates a disambiguation rule sharing the lexicon
func NewDisambiguationRule(lexicon []Keyword) *DisambiguationRule {
	categories := make(map[string]KeywordCategory, len(lexicon))
	for _, kw := range lexicon {
		categories[strings.ToLower(kw.Phrase)] = kw.Category
	}
	return &DisambiguationRule{categories: categories}
}

// Name returns the rule name
func (r *DisambiguationRule) Name() string { return "disambiguation" }

// Refine upgrades or passes through each lexical hit. Hits it cannot
// positively confirm stay exactly as they were: low confidence, never
// enforcement-action.
func (r *DisambiguationRule) Refine(rec *model.NormalizedRecord, hits []model.Signal) []model.Signal {
	out := make([]model.Signal, 0, len(hits))

	for _, hit := range hits {
		field, ok := rec.Field(hit.MatchedSpan.Field)
		if !ok {
			out = append(out, hit)
			continue
		}

		if !wholeToken(field.Text, hit.MatchedSpan.Start, hit.MatchedSpan.End) {
			out = append(out, hit)
			continue
		}

		actionClass := matchAction(field.Text)

		// A record about the matched term itself (the term is its title)
		// is not governance evidence unless an action verb co-occurs
		if r.topical(rec, hit) && actionClass == "" {
			out = append(out, hit)
			continue
		}

		upgraded := hit
		upgraded.Confidence = model.ConfidenceMedium
		if r.categories[phraseOf(hit.MatchedPattern)] == CategoryDetectionTool {
			upgraded.Kind = model.SignalDetectionToolUse
		}
		if actionClass != "" {
			upgraded.Confidence = model.ConfidenceHigh
			upgraded.Kind = model.SignalEnforcementAction
			upgraded.MatchedPattern = hit.MatchedPattern + " action:" + actionClass
		}
		out = append(out, upgraded)
	}

	return out
}

// topical reports whether the record is about the matched term: the hit sits
// in the title field, or the title is exactly the matched phrase.
func (r *DisambiguationRule) topical(rec *model.NormalizedRecord, hit model.Signal) bool {
	if hit.MatchedSpan.Field == "title" {
		return true
	}
	title, ok := rec.Field("title")
	if !ok {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(title.Text), phraseOf(hit.MatchedPattern))
}

// matchAction returns the first enforcement action class found in the text
func matchAction(text string) string {
	for _, action := range actionPatterns {
		if action.Pattern.MatchString(text) {
			return action.Class
		}
	}
	return ""
}

// wholeToken reports whether text[start:end] is bounded by non-letter,
// non-digit characters (or the ends of the text)
func wholeToken(text string, start, end int) bool {
	if start < 0 || end > len(text) || start >= end {
		return false
	}
	if start > 0 {
		before := []rune(text[:start])
		if r := before[len(before)-1]; unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	if end < len(text) {
		after := []rune(text[end:])
		if r := after[0]; unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func phraseOf(pattern string) string {
	return strings.ToLower(strings.TrimPrefix(pattern, "keyword:"))
}
