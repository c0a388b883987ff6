package pipeline

import (
	"context"
	"errors"

	"github.com/ppiankov/govsift/internal/classify"
	"github.com/ppiankov/govsift/internal/model"
	"github.com/ppiankov/govsift/internal/resolve"
	"github.com/ppiankov/govsift/internal/sample"
	"github.com/ppiankov/govsift/internal/source"
	"go.uber.org/zap"
)

// Pipeline wires one survey together: the controller chooses queries, the
// source client pages through them, the resolver dedups and normalizes,
// the classifier tags, and the run tallies outcomes. Data flows bottom-up;
// aggregation beyond the run tallies happens at the export boundary.
type Pipeline struct {
	client     *source.Client
	resolver   *resolve.Resolver
	classifier *classify.Classifier
	controller *sample.Controller
	cfg        *model.Config
	log        *zap.Logger
}

// NewPipeline creates a pipeline from the given configuration
func NewPipeline(cfg *model.Config, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		client:     source.NewClient(cfg, logger),
		resolver:   resolve.NewResolver(logger),
		classifier: classify.NewClassifier(logger),
		controller: sample.NewController(cfg.Sampling, logger),
		cfg:        cfg,
		log:        logger,
	}
}

// Controller exposes the strategy controller for seed-set injection and
// stratification requests
func (p *Pipeline) Controller() *sample.Controller {
	return p.controller
}

// Resolver exposes the entity corpus and its conflict audit trail
func (p *Pipeline) Resolver() *resolve.Resolver {
	return p.resolver
}

// SurveyResult is the outcome of one sampling run
type SurveyResult struct {
	Run     *model.SamplingRun
	Signals []model.Signal
	State   sample.State
}

// SurveyOnce executes a single sampling run against the configured
// endpoint under the controller's current strategy, then advances the
// controller.
func (p *Pipeline) SurveyOnce(ctx context.Context) (*SurveyResult, error) {
	base := source.Query{
		Endpoint: p.cfg.Source.Endpoint,
		PageSize: p.cfg.Source.PageSize,
		MaxPages: p.cfg.Source.MaxPages,
	}

	run, err := p.controller.BeginRun(0)
	if err != nil {
		return nil, err
	}

	var signals []model.Signal
	for _, q := range p.controller.NextQueries(base) {
		if err := p.surveyQuery(ctx, q, run, &signals); err != nil {
			run.Close()
			return nil, err
		}
	}

	state := p.controller.Advance(run)
	return &SurveyResult{Run: run, Signals: signals, State: state}, nil
}

// surveyQuery walks one query's page sequence in fetch order: page N's
// entities are fully resolved and classified before page N+1 is requested.
// Failures local to a page or entity never abort the batch.
func (p *Pipeline) surveyQuery(ctx context.Context, q source.Query, run *model.SamplingRun, signals *[]model.Signal) error {
	pager := p.client.Pages(q)

	for {
		page, err := pager.Next(ctx)
		if errors.Is(err, source.ErrEndOfStream) {
			return nil
		}
		if err != nil {
			var rejected *source.SourceRejectedError
			if errors.As(err, &rejected) {
				run.Counts.FailedPermanent++
				p.log.Warn("source rejected query, continuing with next",
					zap.String("endpoint", q.Endpoint),
					zap.Error(err))
				return nil
			}
			var exhausted *source.RetryExhaustedError
			if errors.As(err, &exhausted) {
				run.Counts.FailedTransient++
				p.log.Warn("retries exhausted, skipping remainder of query",
					zap.String("endpoint", q.Endpoint),
					zap.String("cursor", pager.Cursor()),
					zap.Error(err))
				return nil
			}
			// Cancellation or a throttle failure: fatal to the run
			return err
		}

		for _, ingested := range p.resolver.Ingest(q.Endpoint, page) {
			if !ingested.IsNew {
				continue
			}
			run.Counts.Attempted++

			if ingested.Entity.Stub {
				run.Counts.SkippedMalformed++
				continue
			}

			rec, err := p.resolver.Normalize(q.Endpoint, ingested.Entity)
			if err != nil {
				run.Counts.SkippedMalformed++
				p.log.Warn("entity not normalizable",
					zap.String("entity", ingested.Entity.Key().String()),
					zap.Error(err))
				continue
			}

			sigs := p.classifier.Classify(rec)
			run.RecordEntity(sigs)
			run.Counts.Succeeded++
			*signals = append(*signals, sigs...)
		}
	}
}
