package model

import "time"

// SignalKind classifies a governance signal
type SignalKind string

const (
	SignalPlatformAdoption  SignalKind = "platform-adoption"
	SignalChannelAdoption   SignalKind = "channel-adoption"
	SignalEnforcementAction SignalKind = "enforcement-action"
	SignalPolicyCitation    SignalKind = "policy-citation"
	SignalDetectionToolUse  SignalKind = "detection-tool-use"

	// SignalKeywordMention carries bare or context-confirmed keyword hits
	// that no disambiguation rule has tied to an enforcement action or a
	// detection tool. A bare hit is never sufficient for those kinds.
	SignalKeywordMention SignalKind = "keyword-mention"
)

// Confidence grades how strongly a signal is supported by its evidence.
// High requires a disambiguation rule to have positively confirmed context;
// low means only a bare keyword hit occurred.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Rank orders confidence levels for tie-breaking (higher wins)
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

// Span locates a match inside a named text field of a record
type Span struct {
	Field string `json:"field"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Signal is an immutable classification result attached to an entity.
// Signals are append-only; a record can yield several, including zero.
type Signal struct {
	Kind            SignalKind `json:"kind"`
	SubjectEntityID string     `json:"subject_entity_id"`
	MatchedPattern  string     `json:"matched_pattern"`
	MatchedSpan     Span       `json:"matched_span"`
	Confidence      Confidence `json:"confidence"`
	EvidenceExcerpt string     `json:"evidence_excerpt,omitempty"`
	Timestamp       time.Time  `json:"timestamp"`
}
