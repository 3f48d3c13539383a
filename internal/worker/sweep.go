package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/vanroute/vanroute/internal/candidate"
)

const instrumentationName = "github.com/vanroute/vanroute/internal/worker"

// SweepJob checks candidate coverage for a set of regions: it queries the
// configured sources, normalizes the records and counts what a planner
// would have to work with.
type SweepJob struct {
	config SweepConfig
	source candidate.Source
	logger zerolog.Logger
	now    func() time.Time

	candidates metric.Int64Counter
	skipped    metric.Int64Counter
	failures   metric.Int64Counter

	metrics *SweepMetrics
}

// SweepMetrics tracks sweep statistics across runs.
type SweepMetrics struct {
	mu sync.RWMutex

	TotalSweeps       int64
	RegionsSwept      int64
	RegionsFailed     int64
	CandidatesSeen    int64
	SkippedRecords    int64
	CoverageGaps      int64
	LastSweepAt       time.Time
	LastSweepDuration time.Duration
}

// SweepJobConfig holds configuration for creating a SweepJob.
type SweepJobConfig struct {
	Config SweepConfig
	Source candidate.Source
	Logger zerolog.Logger

	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

// NewSweepJob creates a new coverage sweep job.
func NewSweepJob(cfg SweepJobConfig) (*SweepJob, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("sweep job: source is required")
	}
	sc := cfg.Config
	if len(sc.Regions) == 0 {
		sc.Regions = DefaultRegions()
	}
	if sc.Concurrency <= 0 {
		sc.Concurrency = 4
	}
	if sc.Timeout <= 0 {
		sc.Timeout = 30 * time.Second
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	meter := otel.Meter(instrumentationName)
	candidates, err := meter.Int64Counter("worker.sweep.candidates",
		metric.WithDescription("Normalized candidates found by the coverage sweep"))
	if err != nil {
		return nil, err
	}
	skipped, err := meter.Int64Counter("worker.sweep.skipped",
		metric.WithDescription("Raw records dropped during normalization"))
	if err != nil {
		return nil, err
	}
	failures, err := meter.Int64Counter("worker.sweep.failures",
		metric.WithDescription("Regions whose source query failed"))
	if err != nil {
		return nil, err
	}

	return &SweepJob{
		config:     sc,
		source:     cfg.Source,
		logger:     cfg.Logger,
		now:        now,
		candidates: candidates,
		skipped:    skipped,
		failures:   failures,
		metrics:    &SweepMetrics{},
	}, nil
}

// Config returns the job's effective configuration.
func (j *SweepJob) Config() SweepConfig {
	return j.config
}

// RegionResult is the coverage of one region.
type RegionResult struct {
	Region     string
	Candidates int
	Skipped    int
	ByKind     map[candidate.Kind]int
	Err        error
}

// Gap reports whether the region cannot support a day plan: no overnight
// spot or nothing to visit.
func (r RegionResult) Gap() bool {
	return r.Err == nil && (r.ByKind[candidate.KindOvernight] == 0 || r.ByKind[candidate.KindPOI] == 0)
}

// SweepResult contains the result of a sweep.
type SweepResult struct {
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	Regions    []RegionResult
	Successful int
	Failed     int
	Candidates int
	Skipped    int
	ByKind     map[candidate.Kind]int
	Gaps       []string
}

// Run sweeps every configured region.
func (j *SweepJob) Run(ctx context.Context) *SweepResult {
	return j.RunRegions(ctx, j.config.Regions)
}

// RunRegions sweeps the given regions with the configured concurrency.
// Results keep the order of regions.
func (j *SweepJob) RunRegions(ctx context.Context, regions []Region) *SweepResult {
	start := j.now()
	result := &SweepResult{
		StartTime: start,
		Regions:   make([]RegionResult, len(regions)),
		ByKind:    make(map[candidate.Kind]int),
	}

	j.logger.Info().
		Int("regions", len(regions)).
		Int("concurrency", j.config.Concurrency).
		Msg("starting coverage sweep")

	type work struct {
		index  int
		region Region
	}
	jobs := make(chan work)

	var wg sync.WaitGroup
	for i := 0; i < min(j.config.Concurrency, max(len(regions), 1)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for w := range jobs {
				result.Regions[w.index] = j.sweepRegion(ctx, w.region)
			}
		}()
	}

feed:
	for i, r := range regions {
		select {
		case jobs <- work{index: i, region: r}:
		case <-ctx.Done():
			for k := i; k < len(regions); k++ {
				result.Regions[k] = RegionResult{Region: regions[k].Name, Err: ctx.Err()}
			}
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	for _, rr := range result.Regions {
		if rr.Err != nil {
			result.Failed++
			continue
		}
		result.Successful++
		result.Candidates += rr.Candidates
		result.Skipped += rr.Skipped
		for k, n := range rr.ByKind {
			result.ByKind[k] += n
		}
		if rr.Gap() {
			result.Gaps = append(result.Gaps, rr.Region)
		}
	}

	result.EndTime = j.now()
	result.Duration = result.EndTime.Sub(start)
	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Int("candidates", result.Candidates).
		Int("pois", result.ByKind[candidate.KindPOI]).
		Int("events", result.ByKind[candidate.KindEvent]).
		Int("overnights", result.ByKind[candidate.KindOvernight]).
		Int("skipped", result.Skipped).
		Strs("coverage_gaps", result.Gaps).
		Msg("coverage sweep completed")

	return result
}

func (j *SweepJob) sweepRegion(ctx context.Context, region Region) RegionResult {
	rr := RegionResult{Region: region.Name, ByKind: make(map[candidate.Kind]int)}

	regionCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	regionAttr := attribute.String("region", region.Name)
	raws, err := j.source.Nearby(regionCtx, candidate.Area{
		Center:   region.Center,
		RadiusKm: region.RadiusKm,
		Limit:    j.config.Limit,
	})
	if err != nil {
		rr.Err = err
		j.failures.Add(ctx, 1, metric.WithAttributes(regionAttr))
		j.logger.Warn().
			Err(err).
			Str("region", region.Name).
			Str("source", j.source.Name()).
			Msg("region sweep failed")
		return rr
	}

	norm := candidate.NormalizeAll(raws, region.Center)
	rr.Candidates = len(norm.Candidates)
	rr.Skipped = norm.Skipped
	for i := range norm.Candidates {
		rr.ByKind[norm.Candidates[i].Kind]++
	}

	for kind, n := range rr.ByKind {
		j.candidates.Add(ctx, int64(n), metric.WithAttributes(regionAttr, attribute.String("kind", string(kind))))
	}
	if rr.Skipped > 0 {
		j.skipped.Add(ctx, int64(rr.Skipped), metric.WithAttributes(regionAttr))
	}

	j.logger.Debug().
		Str("region", region.Name).
		Int("candidates", rr.Candidates).
		Int("skipped", rr.Skipped).
		Bool("gap", rr.Gap()).
		Msg("region swept")
	return rr
}

// HealthCheck issues one small query to verify the sources answer.
func (j *SweepJob) HealthCheck(ctx context.Context) error {
	region := j.config.Regions[0]
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	_, err := j.source.Nearby(ctx, candidate.Area{Center: region.Center, RadiusKm: 1, Limit: 1})
	if err != nil {
		return fmt.Errorf("health check against %s: %w", j.source.Name(), err)
	}
	return nil
}

func (j *SweepJob) updateMetrics(result *SweepResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalSweeps++
	j.metrics.RegionsSwept += int64(result.Successful)
	j.metrics.RegionsFailed += int64(result.Failed)
	j.metrics.CandidatesSeen += int64(result.Candidates)
	j.metrics.SkippedRecords += int64(result.Skipped)
	j.metrics.CoverageGaps += int64(len(result.Gaps))
	j.metrics.LastSweepAt = result.EndTime
	j.metrics.LastSweepDuration = result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *SweepJob) GetMetrics() SweepMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return SweepMetrics{
		TotalSweeps:       j.metrics.TotalSweeps,
		RegionsSwept:      j.metrics.RegionsSwept,
		RegionsFailed:     j.metrics.RegionsFailed,
		CandidatesSeen:    j.metrics.CandidatesSeen,
		SkippedRecords:    j.metrics.SkippedRecords,
		CoverageGaps:      j.metrics.CoverageGaps,
		LastSweepAt:       j.metrics.LastSweepAt,
		LastSweepDuration: j.metrics.LastSweepDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *SweepJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_sweeps":        m.TotalSweeps,
		"regions_swept":       m.RegionsSwept,
		"regions_failed":      m.RegionsFailed,
		"candidates_seen":     m.CandidatesSeen,
		"skipped_records":     m.SkippedRecords,
		"coverage_gaps":       m.CoverageGaps,
		"last_sweep_at":       m.LastSweepAt,
		"last_sweep_duration": m.LastSweepDuration.String(),
	}
}
