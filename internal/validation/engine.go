// internal/validation/engine.go
package validation

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rkbisoi/applus-backend-demo/internal/common/logger"
	"github.com/rkbisoi/applus-backend-demo/internal/common/metrics"
	"github.com/rkbisoi/applus-backend-demo/internal/common/observability"
	"github.com/rkbisoi/applus-backend-demo/internal/models"
)

// Config holds the engine's scoring weights and decision thresholds.
type Config struct {
	WeightFunctional  float64
	WeightPerformance float64
	WeightSecurity    float64
	ApproveScore      int
	MinPassingScore   int
}

// DefaultConfig returns the production weights and thresholds.
func DefaultConfig() Config {
	return Config{
		WeightFunctional:  0.4,
		WeightPerformance: 0.3,
		WeightSecurity:    0.3,
		ApproveScore:      70,
		MinPassingScore:   60,
	}
}

// RandomSource supplies the randomness used by the performance rubric and
// the request generators. Tests substitute a deterministic source.
type RandomSource interface {
	Float64() float64
	Intn(n int) int
}

// Engine scores payment validation requests against three rubrics and
// combines them into a weighted decision. Engines are safe for concurrent
// use once configured.
type Engine struct {
	cfg    Config
	logger logger.Logger
	obs    *observability.Observability

	random RandomSource
	sleep  func(ctx context.Context, d time.Duration)
	now    func() time.Time
}

// lockedSource serializes access to a shared rand.Rand. Concurrent
// evaluations draw from the same default source and rand.Rand is not safe
// for concurrent use.
type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

func (s *lockedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Intn(n)
}

// NewEngine builds an engine with real time and randomness.
func NewEngine(cfg Config, log logger.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		logger: log,
		random: &lockedSource{r: rand.New(rand.NewSource(time.Now().UnixNano()))},
		sleep:  sleepContext,
		now:    time.Now,
	}
}

// WithRandom replaces the randomness source.
func (e *Engine) WithRandom(r RandomSource) *Engine {
	e.random = r
	return e
}

// WithSleep replaces the simulated processing delay.
func (e *Engine) WithSleep(sleep func(ctx context.Context, d time.Duration)) *Engine {
	e.sleep = sleep
	return e
}

// WithClock replaces the wall clock.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// WithObservability attaches OpenTelemetry recording.
func (e *Engine) WithObservability(obs *observability.Observability) *Engine {
	e.obs = obs
	return e
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// Evaluate runs the three rubrics concurrently and combines their scores.
// The returned result is complete even when the decision is DECLINED; only
// a cancelled context yields an error.
func (e *Engine) Evaluate(ctx context.Context, req *models.ValidationRequest) (*models.ValidationResult, error) {
	start := e.now()

	var (
		wg          sync.WaitGroup
		functional  models.RubricResult
		performance models.RubricResult
		security    models.RubricResult
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		functional = e.evaluateFunctional(req)
	}()
	go func() {
		defer wg.Done()
		performance = e.evaluatePerformance(ctx, req)
	}()
	go func() {
		defer wg.Done()
		security = e.evaluateSecurity(req)
	}()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	overall := int(
		float64(functional.Score)*e.cfg.WeightFunctional +
			float64(performance.Score)*e.cfg.WeightPerformance +
			float64(security.Score)*e.cfg.WeightSecurity,
	)

	status := models.StatusDeclined
	switch {
	case overall >= e.cfg.ApproveScore:
		status = models.StatusApproved
	case overall >= e.cfg.MinPassingScore:
		status = models.StatusPending
	}

	reasons := make([]string, 0, len(functional.Issues)+len(performance.Issues)+len(security.Issues))
	reasons = append(reasons, functional.Issues...)
	reasons = append(reasons, performance.Issues...)
	reasons = append(reasons, security.Issues...)

	result := &models.ValidationResult{
		FunctionalScore:     functional.Score,
		PerformanceScore:    performance.Score,
		SecurityScore:       security.Score,
		OverallScore:        overall,
		OverallStatus:       status,
		FunctionalDetails:   functional.Breakdown,
		PerformanceDetails:  performance.Breakdown,
		SecurityDetails:     security.Breakdown,
		FailureReasons:      reasons,
		ValidationTimestamp: start.UTC().Format(time.RFC3339Nano),
	}

	elapsed := e.now().Sub(start)
	e.recordMetrics(ctx, result, elapsed)

	e.logger.Info("Payment validation completed", map[string]interface{}{
		"application_id":    req.ApplicationID,
		"functional_score":  result.FunctionalScore,
		"performance_score": result.PerformanceScore,
		"security_score":    result.SecurityScore,
		"overall_score":     result.OverallScore,
		"overall_status":    string(result.OverallStatus),
		"issue_count":       len(result.FailureReasons),
	})

	return result, nil
}

func (e *Engine) recordMetrics(ctx context.Context, result *models.ValidationResult, elapsed time.Duration) {
	status := string(result.OverallStatus)
	metrics.ValidationsTotal.WithLabelValues(status).Inc()
	metrics.ValidationDuration.WithLabelValues(status).Observe(elapsed.Seconds())
	metrics.RubricScore.WithLabelValues("functional").Observe(float64(result.FunctionalScore))
	metrics.RubricScore.WithLabelValues("performance").Observe(float64(result.PerformanceScore))
	metrics.RubricScore.WithLabelValues("security").Observe(float64(result.SecurityScore))

	if e.obs != nil {
		e.obs.RecordValidation(ctx, status)
		e.obs.RecordValidationDuration(ctx, elapsed, status)
	}
}
