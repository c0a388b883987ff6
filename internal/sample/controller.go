package sample

import (
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/govsift/internal/model"
	"github.com/ppiankov/govsift/internal/source"
	"go.uber.org/zap"
)

// State is the controller's strategy state
type State string

const (
	StateRandom     State = "random"
	StateTargeted   State = "targeted"
	StateStratified State = "stratified"

	// StateEscalated is the in-between state after a random run came back
	// underpowered but before a targeted seed set has been supplied.
	StateEscalated State = "escalated"

	StateTerminated State = "terminated"
)

// Stratum is one slice of a stratified sample (recency, traffic, topic)
type Stratum struct {
	Name    string
	Filters map[string]string
}

// Controller decides which entities the resolver is asked to fetch in
// depth, tracks hit rate across runs, and escalates strategy. Its only
// side effect on the pipeline is query selection; it never inspects raw
// payloads.
type Controller struct {
	cfg      model.SamplingConfig
	state    State
	seedSet  []string
	strata   []Stratum
	started  time.Time
	examined int // cumulative, charged against the entity budget
	log      *zap.Logger
}

// NewController creates a controller in the configured initial state
func NewController(cfg model.SamplingConfig, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}

	state := StateRandom
	switch cfg.Strategy {
	case model.StrategyTargeted:
		state = StateTargeted
	case model.StrategyStratified:
		state = StateStratified
	}

	return &Controller{
		cfg:     cfg,
		state:   state,
		started: time.Now(),
		log:     logger,
	}
}

// State returns the current strategy state
func (c *Controller) State() State {
	return c.state
}

// SetSeedSet supplies entity ids linked from a known coordination hub.
// If the controller is waiting in the escalated state, this completes the
// transition to targeted.
func (c *Controller) SetSeedSet(ids []string) {
	c.seedSet = ids
	if c.state == StateEscalated && len(ids) > 0 {
		c.state = StateTargeted
	}
}

// BeginRun opens a sampling run for the current state
func (c *Controller) BeginRun(populationSize int) (*model.SamplingRun, error) {
	switch c.state {
	case StateTerminated:
		return nil, fmt.Errorf("controller is terminated")
	case StateEscalated:
		return nil, fmt.Errorf("escalated: a targeted seed set is required before the next run")
	}
	return model.NewSamplingRun(c.strategy(), populationSize), nil
}

// Advance closes the run, charges it against the budget, and computes the
// next state. A random run whose hit rate fell below the floor over at
// least the minimum sample size escalates — it never terminates on that
// evidence alone, because an underpowered random sample must not be read
// as "no signal exists".
func (c *Controller) Advance(run *model.SamplingRun) State {
	run.Close()
	c.examined += run.EntitiesExamined

	if c.state == StateRandom &&
		run.EntitiesExamined >= c.cfg.MinimumSampleSize &&
		run.HitRate() < c.cfg.HitRateFloor {
		// A configured hub is seeding in its own right; escalated is only
		// for the case where no seeding of any kind is available yet
		if len(c.seedSet) > 0 || c.cfg.SeedHub != "" {
			c.state = StateTargeted
		} else {
			c.state = StateEscalated
		}
		c.log.Info("escalating from random sampling",
			zap.Float64("hit_rate", run.HitRate()),
			zap.Float64("floor", c.cfg.HitRateFloor),
			zap.Int("examined", run.EntitiesExamined),
			zap.String("next_state", string(c.state)))
		return c.state
	}

	if c.budgetExhausted() {
		c.state = StateTerminated
		c.log.Info("budget exhausted, terminating",
			zap.Int("entities_examined", c.examined))
	}
	return c.state
}

// RequestStratified moves targeted -> stratified when the operator wants a
// per-category breakdown rather than a single aggregate hit rate
func (c *Controller) RequestStratified(strata []Stratum) error {
	if c.state != StateTargeted {
		return fmt.Errorf("stratified sampling requires the targeted state, currently %s", c.state)
	}
	if len(strata) == 0 {
		return fmt.Errorf("at least one stratum is required")
	}
	c.strata = strata
	c.state = StateStratified
	return nil
}

// NextQueries builds the source queries for the next batch under the
// current strategy. The base query supplies endpoint, page size and caps.
func (c *Controller) NextQueries(base source.Query) []source.Query {
	switch c.state {
	case StateRandom:
		q := withFilters(base, map[string]string{"sample": "random"})
		return []source.Query{q}

	case StateTargeted:
		filters := map[string]string{}
		if c.cfg.SeedHub != "" {
			filters["hub"] = c.cfg.SeedHub
		}
		if len(c.seedSet) > 0 {
			filters["seeds"] = strings.Join(c.seedSet, "|")
		}
		return []source.Query{withFilters(base, filters)}

	case StateStratified:
		queries := make([]source.Query, 0, len(c.strata))
		for _, stratum := range c.strata {
			filters := map[string]string{"stratum": stratum.Name}
			for k, v := range stratum.Filters {
				filters[k] = v
			}
			queries = append(queries, withFilters(base, filters))
		}
		return queries
	}
	return nil
}

// strategy maps the current state onto the run strategy label
func (c *Controller) strategy() model.Strategy {
	switch c.state {
	case StateTargeted:
		return model.StrategyTargeted
	case StateStratified:
		return model.StrategyStratified
	default:
		return model.StrategyRandom
	}
}

func (c *Controller) budgetExhausted() bool {
	if c.cfg.EntityBudget > 0 && c.examined >= c.cfg.EntityBudget {
		return true
	}
	if c.cfg.TimeBudget > 0 && time.Since(c.started) >= c.cfg.TimeBudget {
		return true
	}
	return false
}

// withFilters copies the base query with extra filters layered on
func withFilters(base source.Query, extra map[string]string) source.Query {
	q := base
	q.Filters = make(map[string]string, len(base.Filters)+len(extra))
	for k, v := range base.Filters {
		q.Filters[k] = v
	}
	for k, v := range extra {
		q.Filters[k] = v
	}
	return q
}
