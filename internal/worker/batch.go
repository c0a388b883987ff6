package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/govsift/internal/pipeline"
)

// Surveyor defines the interface for surveying one source endpoint
type Surveyor interface {
	Survey(ctx context.Context, endpoint string) (*pipeline.SurveyResult, error)
}

// SurveyJob represents a single-endpoint survey job
type SurveyJob struct {
	Endpoint string
	Surveyor Surveyor
}

// Execute executes the survey job
func (j *SurveyJob) Execute(ctx context.Context) Result {
	result, err := j.Surveyor.Survey(ctx, j.Endpoint)
	return &SurveyOutcome{
		Endpoint: j.Endpoint,
		Result:   result,
		Error:    err,
	}
}

// SurveyOutcome represents the result of a survey job. Endpoints are
// independent populations, so one endpoint's failure never taints another's
// run summary.
type SurveyOutcome struct {
	Endpoint string
	Result   *pipeline.SurveyResult
	Error    error
}

// GetError returns the error from the survey outcome
func (r *SurveyOutcome) GetError() error {
	return r.Error
}

// BatchProcessor surveys multiple endpoints concurrently
type BatchProcessor struct {
	surveyor    Surveyor
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(surveyor Surveyor, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		surveyor:    surveyor,
		concurrency: concurrency,
	}
}

// ProcessEndpoints surveys multiple endpoints concurrently
func (b *BatchProcessor) ProcessEndpoints(ctx context.Context, endpoints []string) []*SurveyOutcome {
	if len(endpoints) == 0 {
		return []*SurveyOutcome{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	for _, endpoint := range endpoints {
		pool.Submit(&SurveyJob{
			Endpoint: endpoint,
			Surveyor: b.surveyor,
		})
	}

	results := pool.Wait()

	outcomes := make([]*SurveyOutcome, len(results))
	for i, result := range results {
		outcomes[i] = result.(*SurveyOutcome)
	}

	return outcomes
}

// ProcessFile reads endpoints from a file and surveys them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*SurveyOutcome, error) {
	endpoints, err := ReadEndpointsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read endpoints: %w", err)
	}

	return b.ProcessEndpoints(ctx, endpoints), nil
}

// ReadEndpointsFromFile reads endpoint URLs from a file (one per line)
func ReadEndpointsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var endpoints []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			endpoints = append(endpoints, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return endpoints, nil
}
