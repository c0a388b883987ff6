package model

import (
	"time"

	"github.com/google/uuid"
)

// Strategy selects how entities are sampled for in-depth fetching
type Strategy string

const (
	StrategyRandom     Strategy = "random"
	StrategyTargeted   Strategy = "targeted"
	StrategyStratified Strategy = "stratified"
)

// RunCounts tracks processing outcomes so a zero-signal result stays
// distinguishable from a failed run. Attempted through SkippedMalformed
// count entities; the failure buckets count abandoned queries, split by
// whether the source refused outright or merely outlasted the retry budget.
type RunCounts struct {
	Attempted        int `json:"attempted"`
	Succeeded        int `json:"succeeded"`
	SkippedMalformed int `json:"skipped_malformed"`
	FailedTransient  int `json:"failed_transient"`
	FailedPermanent  int `json:"failed_permanent"`
}

// SamplingRun tracks one execution of a sampling strategy. It is mutated
// while entities are processed and becomes immutable once closed.
type SamplingRun struct {
	ID               string     `json:"id"`
	Strategy         Strategy   `json:"strategy"`
	PopulationSize   int        `json:"population_size"`
	EntitiesExamined int        `json:"entities_examined"`

	// SignalsFound counts entities that yielded at least one signal of
	// medium-or-higher confidence. Bare keyword hits are tallied separately
	// and never count toward the hit rate.
	SignalsFound      int `json:"signals_found"`
	LowConfidenceHits int `json:"low_confidence_hits"`

	Counts    RunCounts  `json:"counts"`
	StartedAt time.Time  `json:"started_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

// NewSamplingRun creates an open run for the given strategy
func NewSamplingRun(strategy Strategy, populationSize int) *SamplingRun {
	return &SamplingRun{
		ID:             uuid.NewString(),
		Strategy:       strategy,
		PopulationSize: populationSize,
		StartedAt:      time.Now().UTC(),
	}
}

// RecordEntity folds one examined entity's signals into the run tallies
func (r *SamplingRun) RecordEntity(signals []Signal) {
	if r.Closed() {
		return
	}
	r.EntitiesExamined++

	hit := false
	low := false
	for _, s := range signals {
		switch {
		case s.Confidence.Rank() >= ConfidenceMedium.Rank():
			hit = true
		case s.Confidence == ConfidenceLow:
			low = true
		}
	}
	if hit {
		r.SignalsFound++
	} else if low {
		r.LowConfidenceHits++
	}
}

// HitRate returns signals found over entities examined (0 when empty)
func (r *SamplingRun) HitRate() float64 {
	if r.EntitiesExamined == 0 {
		return 0
	}
	return float64(r.SignalsFound) / float64(r.EntitiesExamined)
}

// Close freezes the run. Subsequent mutation calls are ignored.
func (r *SamplingRun) Close() {
	if r.ClosedAt == nil {
		now := time.Now().UTC()
		r.ClosedAt = &now
	}
}

// Closed reports whether the run has been frozen
func (r *SamplingRun) Closed() bool {
	return r.ClosedAt != nil
}
