package classify

import (
	"testing"
	"time"

	"github.com/ppiankov/govsift/internal/model"
)

func record(fields ...model.TextField) *model.NormalizedRecord {
	return &model.NormalizedRecord{
		EntityID:   "revision:1",
		SourceKind: model.SourceRevision,
		TextFields: fields,
		Timestamp:  time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func kinds(signals []model.Signal) map[model.SignalKind]int {
	out := make(map[model.SignalKind]int)
	for _, s := range signals {
		out[s.Kind]++
	}
	return out
}

func TestClassify_EmbeddedKeywordStaysLow(t *testing.T) {
	c := NewClassifier(nil)
	signals := c.Classify(record(
		model.TextField{Name: "summary", Text: "Tried again to fix the formatting"},
	))

	if len(signals) != 1 {
		t.Fatalf("Expected 1 signal for embedded hit, got %d: %+v", len(signals), signals)
	}
	s := signals[0]
	if s.Kind != model.SignalKeywordMention {
		t.Errorf("Expected keyword-mention for substring inside a word, got %s", s.Kind)
	}
	if s.Confidence != model.ConfidenceLow {
		t.Errorf("Expected low confidence, got %s", s.Confidence)
	}
}

func TestClassify_EnforcementUpgrade(t *testing.T) {
	c := NewClassifier(nil)
	signals := c.Classify(record(
		model.TextField{Name: "summary", Text: "Reverted AI-generated additions sourced from ChatGPT"},
	))

	counts := kinds(signals)
	if counts[model.SignalEnforcementAction] == 0 {
		t.Fatalf("Expected enforcement-action signal, got %+v", signals)
	}
	for _, s := range signals {
		if s.Kind != model.SignalEnforcementAction {
			continue
		}
		if s.Confidence != model.ConfidenceHigh {
			t.Errorf("Expected high confidence for action co-occurrence, got %s", s.Confidence)
		}
		if s.EvidenceExcerpt == "" {
			t.Error("Expected evidence excerpt to be populated")
		}
	}
}

func TestClassify_DetectionToolUpgrade(t *testing.T) {
	c := NewClassifier(nil)
	signals := c.Classify(record(
		model.TextField{Name: "summary", Text: "Checked the draft with GPTZero before accepting"},
	))

	if len(signals) != 1 {
		t.Fatalf("Expected 1 signal, got %d: %+v", len(signals), signals)
	}
	if signals[0].Kind != model.SignalDetectionToolUse {
		t.Errorf("Expected detection-tool-use, got %s", signals[0].Kind)
	}
	if signals[0].Confidence != model.ConfidenceMedium {
		t.Errorf("Expected medium confidence without an action verb, got %s", signals[0].Confidence)
	}
}

func TestClassify_TopicalPageNotUpgraded(t *testing.T) {
	c := NewClassifier(nil)
	signals := c.Classify(record(
		model.TextField{Name: "title", Text: "Artificial intelligence"},
		model.TextField{Name: "summary", Text: "Updated the history section"},
	))

	for _, s := range signals {
		if s.Kind == model.SignalEnforcementAction {
			t.Errorf("Page about the term itself must not yield enforcement, got %+v", s)
		}
		if s.Confidence != model.ConfidenceLow {
			t.Errorf("Expected topical hit to stay low, got %s", s.Confidence)
		}
	}
}

func TestClassify_TopicalPageWithActionUpgrades(t *testing.T) {
	c := NewClassifier(nil)
	signals := c.Classify(record(
		model.TextField{Name: "title", Text: "Artificial intelligence"},
		model.TextField{Name: "summary", Text: "Reverted AI generated rewrite of the lead"},
	))

	if kinds(signals)[model.SignalEnforcementAction] == 0 {
		t.Errorf("Expected enforcement when an action verb co-occurs in the summary, got %+v", signals)
	}
}

func TestClassify_CitationVocabularyGate(t *testing.T) {
	c := NewClassifier(nil)
	signals := c.Classify(record(
		model.TextField{Name: "summary", Text: "Undid revision 12345 per WP:RS and XY:ZZ"},
	))

	var citations []model.Signal
	for _, s := range signals {
		if s.Kind == model.SignalPolicyCitation {
			citations = append(citations, s)
		}
	}
	if len(citations) != 1 {
		t.Fatalf("Expected exactly 1 citation (unknown token discarded), got %d: %+v", len(citations), signals)
	}
	if citations[0].MatchedPattern != "WP:RS" {
		t.Errorf("Expected matched pattern WP:RS, got %q", citations[0].MatchedPattern)
	}
	if citations[0].Confidence != model.ConfidenceHigh {
		t.Errorf("Expected high confidence for a known citation, got %s", citations[0].Confidence)
	}
}

func TestClassify_UnclassifiableFieldSkipped(t *testing.T) {
	c := NewClassifier(nil)
	signals := c.Classify(record(
		model.TextField{Name: "body", Text: "broken \xff\xfe bytes"},
		model.TextField{Name: "summary", Text: "Blanked the section written by ChatGPT"},
	))

	if len(signals) == 0 {
		t.Fatal("Expected remaining fields to still classify")
	}
	for _, s := range signals {
		if s.MatchedSpan.Field == "body" {
			t.Errorf("Expected malformed field to be skipped, got %+v", s)
		}
	}
	if kinds(signals)[model.SignalEnforcementAction] == 0 {
		t.Errorf("Expected enforcement from the clean field, got %+v", signals)
	}
}

func TestClassify_NoSignalsForPlainText(t *testing.T) {
	c := NewClassifier(nil)
	signals := c.Classify(record(
		model.TextField{Name: "summary", Text: "Fixed a broken reference in the history section"},
	))
	if len(signals) != 0 {
		t.Errorf("Expected no signals, got %+v", signals)
	}
}

func TestResolveTies_HigherConfidenceWins(t *testing.T) {
	span := model.Span{Field: "summary", Start: 0, End: 5}
	signals := []model.Signal{
		{Kind: model.SignalKeywordMention, MatchedSpan: span, Confidence: model.ConfidenceLow},
		{Kind: model.SignalEnforcementAction, MatchedSpan: span, Confidence: model.ConfidenceHigh},
	}

	out := resolveTies(signals)
	if len(out) != 1 || out[0].Kind != model.SignalEnforcementAction {
		t.Errorf("Expected the high-confidence signal to win the span, got %+v", out)
	}
}

func TestResolveTies_EqualConfidenceAllRetained(t *testing.T) {
	span := model.Span{Field: "summary", Start: 0, End: 5}
	signals := []model.Signal{
		{Kind: model.SignalPolicyCitation, MatchedSpan: span, Confidence: model.ConfidenceHigh},
		{Kind: model.SignalEnforcementAction, MatchedSpan: span, Confidence: model.ConfidenceHigh},
	}

	if out := resolveTies(signals); len(out) != 2 {
		t.Errorf("Expected equal-confidence tie to retain both, got %+v", out)
	}
}

func TestLexical_MultiByteTextKeepsSpansAligned(t *testing.T) {
	c := NewClassifier(nil)
	text := "İstanbul patrol removed AI content from the intro"
	signals := c.Classify(record(
		model.TextField{Name: "summary", Text: text},
	))

	if len(signals) != 1 {
		t.Fatalf("Expected 1 signal, got %d: %+v", len(signals), signals)
	}
	s := signals[0]
	if got := text[s.MatchedSpan.Start:s.MatchedSpan.End]; got != "AI" {
		t.Errorf("Span must index the original text, got %q", got)
	}
	// Aligned offsets also keep the whole-token check working past
	// multi-byte runes, so the removal verb still upgrades the hit
	if s.Kind != model.SignalEnforcementAction || s.Confidence != model.ConfidenceHigh {
		t.Errorf("Expected high enforcement signal, got %+v", s)
	}
}

func TestAsciiLower(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Reverted AI Edit", "reverted ai edit"},
		{"already lower", "already lower"},
		{"İstanbul AI", "İstanbul ai"},
	}
	for _, tt := range tests {
		got := asciiLower(tt.in)
		if got != tt.want {
			t.Errorf("asciiLower(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if len(got) != len(tt.in) {
			t.Errorf("asciiLower(%q) changed byte length", tt.in)
		}
	}
}

func TestLexical_ContainedHitDropped(t *testing.T) {
	rule := NewLexicalRule(DefaultLexicon())
	signals := rule.Match(record(
		model.TextField{Name: "summary", Text: "written with chatgpt"},
	))

	for _, s := range signals {
		if s.MatchedPattern == "keyword:gpt" {
			t.Errorf("Expected gpt hit inside chatgpt to be dropped, got %+v", s)
		}
	}
	if len(signals) != 1 {
		t.Errorf("Expected exactly the chatgpt hit, got %+v", signals)
	}
}

func TestWholeToken(t *testing.T) {
	tests := []struct {
		text  string
		start int
		end   int
		want  bool
	}{
		{"use ai tools", 4, 6, true},
		{"again", 2, 4, false},
		{"ai first", 0, 2, true},
		{"detail", 3, 5, false},
		{"(ai)", 1, 3, true},
	}
	for _, tt := range tests {
		if got := wholeToken(tt.text, tt.start, tt.end); got != tt.want {
			t.Errorf("wholeToken(%q, %d, %d) = %v, want %v", tt.text, tt.start, tt.end, got, tt.want)
		}
	}
}
