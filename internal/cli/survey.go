package cli

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/govsift/internal/export"
	"github.com/ppiankov/govsift/internal/model"
	"github.com/ppiankov/govsift/internal/pipeline"
	"github.com/ppiankov/govsift/internal/worker"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	outJSON       string
	outSignalsCSV string
	outRunsCSV    string
	timeout       time.Duration
	userAgent     string
	maxBytes      int64
	noCache       bool
	noRobots      bool
	interval      time.Duration
	pageSize      int
	maxPages      int
	strategy      string
	seedHub       string
	hitRateFloor  float64
	minSample     int
	entityBudget  int
	timeBudget    time.Duration
	endpointsFile string
	concurrency   int
)

// surveyCmd represents the survey command
var surveyCmd = &cobra.Command{
	Use:   "survey [endpoint]",
	Short: "Run a sampling survey against a paginated source endpoint",
	Long: `Survey pages through a source endpoint, resolves the returned records
into deduplicated entities, classifies governance signals in their text
fields, and writes the run summary and signals.

The sampling strategy starts random and escalates to targeted (hub-seeded)
sampling when a sufficiently large random sample comes back below the hit
rate floor.

Example:
  govsift survey https://en.wikipedia.org/w/api.php
  govsift survey https://api.github.com/repositories --json out.json --signals-csv signals.csv
  govsift survey --endpoints forges.txt --concurrency 4 --runs-csv runs.csv`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSurvey,
}

func init() {
	rootCmd.AddCommand(surveyCmd)

	// Output flags
	surveyCmd.Flags().StringVar(&outJSON, "json", "survey.json", "output JSON path")
	surveyCmd.Flags().StringVar(&outSignalsCSV, "signals-csv", "", "output CSV path for flat signal rows (optional)")
	surveyCmd.Flags().StringVar(&outRunsCSV, "runs-csv", "", "output CSV path for run summary rows (optional)")

	// HTTP and politeness flags
	surveyCmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "overall survey timeout")
	surveyCmd.Flags().StringVar(&userAgent, "ua", "govsift/0.1 (+https://github.com/ppiankov/govsift)", "HTTP User-Agent")
	surveyCmd.Flags().Int64Var(&maxBytes, "max-bytes", 2_000_000, "max response bytes to read per page")
	surveyCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable page cache (force fresh fetches)")
	surveyCmd.Flags().BoolVar(&noRobots, "no-robots", false, "skip robots.txt checks")
	surveyCmd.Flags().DurationVar(&interval, "interval", time.Second, "minimum delay between requests to the same host")

	// Paging flags
	surveyCmd.Flags().IntVar(&pageSize, "page-size", 50, "records requested per page")
	surveyCmd.Flags().IntVar(&maxPages, "max-pages", 0, "maximum pages per query (0 = until exhausted)")

	// Sampling flags
	surveyCmd.Flags().StringVar(&strategy, "strategy", "random", "initial sampling strategy (random, targeted, stratified)")
	surveyCmd.Flags().StringVar(&seedHub, "seed-hub", "", "coordination hub used to seed targeted sampling (e.g. a noticeboard title)")
	surveyCmd.Flags().Float64Var(&hitRateFloor, "hit-rate-floor", 0.05, "hit rate below which random sampling escalates")
	surveyCmd.Flags().IntVar(&minSample, "min-sample", 30, "entities a random run must examine before its hit rate counts")
	surveyCmd.Flags().IntVar(&entityBudget, "entity-budget", 500, "total entities to examine before terminating (0 = unlimited)")
	surveyCmd.Flags().DurationVar(&timeBudget, "time-budget", 30*time.Minute, "wall-clock budget before terminating (0 = unlimited)")

	// Batch flags
	surveyCmd.Flags().StringVar(&endpointsFile, "endpoints", "", "file with endpoints to survey, one per line")
	surveyCmd.Flags().IntVar(&concurrency, "concurrency", 2, "concurrent endpoint surveys in batch mode")
}

// pipelineSurveyor builds a fresh pipeline per endpoint so each endpoint
// is surveyed as its own population with its own dedup corpus and budget.
type pipelineSurveyor struct {
	cfg *model.Config
	log *zap.Logger
}

// Survey runs one survey against the given endpoint
func (s *pipelineSurveyor) Survey(ctx context.Context, endpoint string) (*pipeline.SurveyResult, error) {
	cfg := *s.cfg
	cfg.Source.Endpoint = endpoint
	return pipeline.NewPipeline(&cfg, s.log).SurveyOnce(ctx)
}

func runSurvey(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && endpointsFile == "" {
		return fmt.Errorf("an endpoint argument or --endpoints file is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	surveyor := &pipelineSurveyor{cfg: cfg, log: logger}

	var outcomes []*worker.SurveyOutcome
	if endpointsFile != "" {
		batch := worker.NewBatchProcessor(surveyor, concurrency)
		outcomes, err = batch.ProcessFile(ctx, endpointsFile)
		if err != nil {
			return err
		}
	} else {
		result, err := surveyor.Survey(ctx, args[0])
		outcomes = []*worker.SurveyOutcome{{Endpoint: args[0], Result: result, Error: err}}
	}

	failed := 0
	var documents []surveyDocument
	for _, outcome := range outcomes {
		if outcome.Error != nil {
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", outcome.Endpoint, outcome.Error)
			continue
		}
		run := outcome.Result.Run
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ %s: examined %d entities, %d with signals (hit rate %.1f%%), next state %s\n",
				outcome.Endpoint, run.EntitiesExamined, run.SignalsFound,
				run.HitRate()*100, outcome.Result.State)
		}
		documents = append(documents, surveyDocument{
			Endpoint: outcome.Endpoint,
			State:    string(outcome.Result.State),
			Document: export.Document{Run: run, Signals: outcome.Result.Signals},
		})
	}

	if err := writeOutputs(documents); err != nil {
		return err
	}

	if failed == len(outcomes) {
		return fmt.Errorf("all %d surveys failed", failed)
	}
	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d surveys failed\n", failed, len(outcomes))
	}
	return nil
}

// buildConfig layers the survey flags over the defaults
func buildConfig() (*model.Config, error) {
	st := model.Strategy(strategy)
	switch st {
	case model.StrategyRandom, model.StrategyTargeted, model.StrategyStratified:
	default:
		return nil, fmt.Errorf("unknown strategy %q", strategy)
	}

	cfg := model.DefaultConfig()
	cfg.Source.PageSize = pageSize
	cfg.Source.MaxPages = maxPages
	cfg.Source.MinRequestInterval = interval
	cfg.Source.RespectRobots = !noRobots
	cfg.HTTP.Timeout = timeout
	cfg.HTTP.UserAgent = userAgent
	cfg.HTTP.MaxBodyBytes = maxBytes
	cfg.Cache.Enabled = !noCache
	cfg.Sampling.Strategy = st
	cfg.Sampling.SeedHub = seedHub
	cfg.Sampling.HitRateFloor = hitRateFloor
	cfg.Sampling.MinimumSampleSize = minSample
	cfg.Sampling.EntityBudget = entityBudget
	cfg.Sampling.TimeBudget = timeBudget
	cfg.Output.Verbose = verbose
	return cfg, nil
}

// surveyDocument pairs a finished survey with the endpoint it covered
type surveyDocument struct {
	Endpoint string `json:"endpoint"`
	State    string `json:"next_state"`
	export.Document
}

func writeOutputs(documents []surveyDocument) error {
	if outJSON != "" {
		if err := writeJSON(outJSON, documents); err != nil {
			return fmt.Errorf("write JSON: %w", err)
		}
	}
	if outSignalsCSV != "" {
		if err := writeSignalsCSV(outSignalsCSV, documents); err != nil {
			return fmt.Errorf("write signals CSV: %w", err)
		}
	}
	if outRunsCSV != "" {
		if err := writeRunsCSV(outRunsCSV, documents); err != nil {
			return fmt.Errorf("write runs CSV: %w", err)
		}
	}
	return nil
}

func writeJSON(path string, documents []surveyDocument) error {
	data, err := json.MarshalIndent(documents, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func writeSignalsCSV(path string, documents []surveyDocument) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write(export.SignalHeader); err != nil {
		return err
	}
	for _, doc := range documents {
		for _, sig := range doc.Signals {
			if err := w.Write(export.SignalRow(sig)); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}

func writeRunsCSV(path string, documents []surveyDocument) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write(export.RunHeader); err != nil {
		return err
	}
	for _, doc := range documents {
		if err := w.Write(export.RunRow(doc.Run)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
