package pipeline

import (
	"context"
	"math"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/tokamak-network/hr-candidate-screening/internal/candidate"
	"github.com/tokamak-network/hr-candidate-screening/internal/evaluation"
	"github.com/tokamak-network/hr-candidate-screening/internal/github"
	"github.com/tokamak-network/hr-candidate-screening/internal/logger"
)

// ProgressFunc is invoked after each candidate resolves, with the number of
// completed candidates and the run total. Injected so the core stays
// embeddable without a web layer.
type ProgressFunc func(done, total int)

// Options configures a run.
type Options struct {
	// BatchSize is the chunk size; non-positive collapses to one batch
	// containing every candidate.
	BatchSize int
	// Workers bounds concurrency within a batch; non-positive corrects to 1.
	Workers int
	// DeviationThreshold flags batches whose score spread is wide relative to
	// the batch average.
	DeviationThreshold float64
	// ActivityWindowDays is passed through to feature extraction.
	ActivityWindowDays int
}

// BatchSummary is computed once per batch after all its candidates resolve
// and never mutated afterward.
type BatchSummary struct {
	BatchID            int     `json:"batch_id"`
	Count              int     `json:"count"`
	AvgTotal           float64 `json:"avg_total"`
	AvgEngineering     float64 `json:"avg_engineering"`
	AvgImpact          float64 `json:"avg_impact"`
	AvgActivity        float64 `json:"avg_activity"`
	AvgAIProductivity  float64 `json:"avg_ai_productivity"`
	DeviationFlag      bool    `json:"deviation_flag"`
	DeviationThreshold float64 `json:"deviation_threshold"`
}

// Result aggregates a full run. Profile order within a batch is completion
// order; batches are strictly ordered.
type Result struct {
	Profiles  []evaluation.Profile
	Summaries []BatchSummary
	// Kept holds the candidate rows behind Profiles, index-aligned, for
	// downstream dataset export.
	Kept []candidate.Candidate
}

// Orchestrator runs the evaluation pipeline over batched candidates.
type Orchestrator struct {
	collector github.Collector
	cache     *github.Cache
	opts      Options
	logger    *zap.Logger
	progress  ProgressFunc
}

// New builds an orchestrator. progress may be nil.
func New(collector github.Collector, cache *github.Cache, opts Options, logger *zap.Logger, progress ProgressFunc) *Orchestrator {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Orchestrator{
		collector: collector,
		cache:     cache,
		opts:      opts,
		logger:    logger,
		progress:  progress,
	}
}

type kept struct {
	profile evaluation.Profile
	cand    candidate.Candidate
}

// Run processes every candidate to completion or drop. A single candidate's
// failure never aborts the run; candidates without a handle or with an
// invalid profile are silently excluded.
func (o *Orchestrator) Run(ctx context.Context, candidates []candidate.Candidate, jobTokens []string) *Result {
	batchSize := o.opts.BatchSize
	if batchSize <= 0 {
		batchSize = len(candidates)
		if batchSize == 0 {
			batchSize = 1
		}
	}

	result := &Result{
		Profiles:  []evaluation.Profile{},
		Summaries: []BatchSummary{},
		Kept:      []candidate.Candidate{},
	}

	total := len(candidates)
	var done atomic.Int64

	batchID := 0
	for start := 0; start < len(candidates); start += batchSize {
		end := start + batchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		batchID++

		batchProfiles := o.runBatch(ctx, candidates[start:end], batchID, jobTokens, total, &done)

		for _, k := range batchProfiles {
			result.Profiles = append(result.Profiles, k.profile)
			result.Kept = append(result.Kept, k.cand)
		}
		result.Summaries = append(result.Summaries, o.summarize(batchProfiles, batchID))

		o.logger.Info("batch complete",
			zap.Int("batch_id", batchID),
			zap.Int("profiles", len(batchProfiles)),
		)
	}

	return result
}

// runBatch fans the batch out over a bounded worker pool and waits for every
// submitted candidate before returning. Results arrive in completion order.
func (o *Orchestrator) runBatch(ctx context.Context, batch []candidate.Candidate, batchID int, jobTokens []string, total int, done *atomic.Int64) []kept {
	results := make(chan kept, len(batch))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.Workers)

	for _, cand := range batch {
		cand := cand
		g.Go(func() error {
			defer func() {
				completed := int(done.Add(1))
				if o.progress != nil {
					o.progress(completed, total)
				}
				o.logger.Debug("candidate resolved",
					zap.Int("completed", completed),
					zap.Int("total", total),
				)
			}()

			if cand.Handle == "" {
				return nil
			}

			profile, ok := o.evaluate(gctx, cand, batchID, jobTokens)
			if ok {
				results <- kept{profile: profile, cand: cand}
			}
			return nil
		})
	}

	// Workers never return errors; drops happen inside evaluate.
	_ = g.Wait()
	close(results)

	collected := make([]kept, 0, len(batch))
	for k := range results {
		collected = append(collected, k)
	}
	return collected
}

// evaluate runs collector → extractor → matcher → scorer → validate for one
// candidate.
func (o *Orchestrator) evaluate(ctx context.Context, cand candidate.Candidate, batchID int, jobTokens []string) (evaluation.Profile, bool) {
	log := logger.WithCollectorFields(o.logger, o.collector.Source(), cand.Handle)

	snap := o.fetchSnapshot(ctx, cand.Handle, log)

	features := evaluation.ExtractFeatures(snap, o.opts.ActivityWindowDays)
	jobFit := evaluation.MatchJobFit(jobTokens, snap, features)
	features.JobFitCount = len(jobFit)
	scores := evaluation.ScoreCandidate(features)

	profile := evaluation.BuildProfile(cand, batchID, jobFit, features, scores)
	if err := profile.Validate(); err != nil {
		log.Debug("dropping candidate with invalid profile", zap.Error(err))
		return evaluation.Profile{}, false
	}

	return profile, true
}

func (o *Orchestrator) fetchSnapshot(ctx context.Context, handle string, log *zap.Logger) *github.Snapshot {
	if cached := o.cache.Read(handle, o.collector.Source()); cached != nil {
		log.Debug("cache hit")
		return cached
	}

	snap := o.collector.FetchSnapshot(ctx, handle)
	if snap == nil {
		return github.EmptySnapshot(handle)
	}

	o.cache.Write(handle, snap)
	return snap
}

func (o *Orchestrator) summarize(batch []kept, batchID int) BatchSummary {
	summary := BatchSummary{
		BatchID:            batchID,
		Count:              len(batch),
		DeviationThreshold: o.opts.DeviationThreshold,
	}

	totals := make([]int, 0, len(batch))
	var sumEng, sumImpact, sumActivity, sumAIProd int
	for _, k := range batch {
		s := k.profile.Scores
		totals = append(totals, s.Total)
		sumEng += s.Engineering
		sumImpact += s.Impact
		sumActivity += s.Activity
		sumAIProd += s.AIProductivity
	}

	summary.AvgTotal = average(totals)
	summary.AvgEngineering = round2(float64(sumEng) / float64(max(len(batch), 1)))
	summary.AvgImpact = round2(float64(sumImpact) / float64(max(len(batch), 1)))
	summary.AvgActivity = round2(float64(sumActivity) / float64(max(len(batch), 1)))
	summary.AvgAIProductivity = round2(float64(sumAIProd) / float64(max(len(batch), 1)))
	if len(batch) == 0 {
		summary.AvgEngineering, summary.AvgImpact = 0, 0
		summary.AvgActivity, summary.AvgAIProductivity = 0, 0
	}

	if len(totals) > 0 && summary.AvgTotal > 0 {
		lo, hi := totals[0], totals[0]
		for _, t := range totals[1:] {
			if t < lo {
				lo = t
			}
			if t > hi {
				hi = t
			}
		}
		deviation := float64(hi-lo) / summary.AvgTotal
		summary.DeviationFlag = deviation > o.opts.DeviationThreshold
	}

	return summary
}

func average(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return round2(float64(sum) / float64(len(values)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
