package export

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/govsift/internal/model"
)

// SignalHeader is the column order of a signal's flat-row form
var SignalHeader = []string{
	"kind", "subject_entity_id", "confidence",
	"matched_pattern", "matched_span", "evidence_excerpt", "timestamp",
}

// RunHeader is the column order of a sampling run's flat-row form
var RunHeader = []string{
	"id", "strategy", "population_size", "entities_examined",
	"signals_found", "low_confidence_hits", "hit_rate",
	"attempted", "succeeded", "skipped_malformed",
	"failed_transient", "failed_permanent",
}

// SignalRow renders a signal as a flat row for tabular export.
// ParseSignalRow reverses it losslessly.
func SignalRow(s model.Signal) []string {
	ts := ""
	if !s.Timestamp.IsZero() {
		ts = s.Timestamp.UTC().Format(time.RFC3339Nano)
	}
	return []string{
		string(s.Kind),
		s.SubjectEntityID,
		string(s.Confidence),
		s.MatchedPattern,
		fmt.Sprintf("%s:%d:%d", s.MatchedSpan.Field, s.MatchedSpan.Start, s.MatchedSpan.End),
		s.EvidenceExcerpt,
		ts,
	}
}

// ParseSignalRow reconstructs a signal from its flat-row form
func ParseSignalRow(row []string) (model.Signal, error) {
	if len(row) != len(SignalHeader) {
		return model.Signal{}, fmt.Errorf("signal row has %d columns, want %d", len(row), len(SignalHeader))
	}

	span, err := parseSpan(row[4])
	if err != nil {
		return model.Signal{}, err
	}

	s := model.Signal{
		Kind:            model.SignalKind(row[0]),
		SubjectEntityID: row[1],
		Confidence:      model.Confidence(row[2]),
		MatchedPattern:  row[3],
		MatchedSpan:     span,
		EvidenceExcerpt: row[5],
	}
	if row[6] != "" {
		ts, err := time.Parse(time.RFC3339Nano, row[6])
		if err != nil {
			return model.Signal{}, fmt.Errorf("parse timestamp: %w", err)
		}
		s.Timestamp = ts
	}
	return s, nil
}

// RunRow renders a closed sampling run as a flat summary row
func RunRow(r *model.SamplingRun) []string {
	return []string{
		r.ID,
		string(r.Strategy),
		strconv.Itoa(r.PopulationSize),
		strconv.Itoa(r.EntitiesExamined),
		strconv.Itoa(r.SignalsFound),
		strconv.Itoa(r.LowConfidenceHits),
		strconv.FormatFloat(r.HitRate(), 'f', 4, 64),
		strconv.Itoa(r.Counts.Attempted),
		strconv.Itoa(r.Counts.Succeeded),
		strconv.Itoa(r.Counts.SkippedMalformed),
		strconv.Itoa(r.Counts.FailedTransient),
		strconv.Itoa(r.Counts.FailedPermanent),
	}
}

// parseSpan reverses the "field:start:end" span encoding. Field names never
// contain colons, but parsing from the right keeps this robust anyway.
func parseSpan(encoded string) (model.Span, error) {
	last := strings.LastIndex(encoded, ":")
	if last < 0 {
		return model.Span{}, fmt.Errorf("malformed span %q", encoded)
	}
	mid := strings.LastIndex(encoded[:last], ":")
	if mid < 0 {
		return model.Span{}, fmt.Errorf("malformed span %q", encoded)
	}

	start, err := strconv.Atoi(encoded[mid+1 : last])
	if err != nil {
		return model.Span{}, fmt.Errorf("malformed span %q: %w", encoded, err)
	}
	end, err := strconv.Atoi(encoded[last+1:])
	if err != nil {
		return model.Span{}, fmt.Errorf("malformed span %q: %w", encoded, err)
	}

	return model.Span{Field: encoded[:mid], Start: start, End: end}, nil
}
