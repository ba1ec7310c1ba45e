// internal/lifecycle/driver.go
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/rkbisoi/applus-backend-demo/internal/audit"
	"github.com/rkbisoi/applus-backend-demo/internal/common/config"
	"github.com/rkbisoi/applus-backend-demo/internal/common/metrics"
	"github.com/rkbisoi/applus-backend-demo/internal/validation"
)

// Pipeline run outcomes.
const (
	OutcomeIssued        = "issued"
	OutcomePaymentFailed = "payment_failed"
	OutcomeError         = "error"
)

// Run is the handle for one automatic pipeline execution. Outcome is valid
// only after Done is closed.
type Run struct {
	ApplicationID string
	Outcome       string
	Err           error

	done chan struct{}
}

// Done is closed when the pipeline run finishes.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the run finishes or the context expires.
func (r *Run) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// startAutoPipeline launches the staged background driver for a freshly
// submitted application. The run detaches from the submitter's context; a
// dropped HTTP request must not abandon a half-processed application.
func (c *Controller) startAutoPipeline(applicationID string) *Run {
	run := &Run{
		ApplicationID: applicationID,
		done:          make(chan struct{}),
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(run.done)
		c.runAutoPipeline(context.Background(), run)
	}()
	return run
}

// runAutoPipeline walks an application through document verification,
// payment validation and issuance with staged waits. Any failure stops the
// run, leaves a FAILED audit entry and is never retried.
func (c *Controller) runAutoPipeline(ctx context.Context, run *Run) {
	applicationID := run.ApplicationID

	defer func() {
		if r := recover(); r != nil {
			run.Outcome = OutcomeError
			run.Err = fmt.Errorf("auto-processing panic: %v", r)
			c.recordPipelineFailure(ctx, applicationID, run.Err)
		}
	}()

	c.wait(ctx, config.GetDuration(c.pipeline.DocumentWait))

	c.trail.Record(ctx, applicationID, audit.ActionAutoProcessing, map[string]interface{}{
		"message": "Starting automatic processing",
	})

	c.wait(ctx, config.GetDuration(c.pipeline.ValidationWait))

	req := validation.NewAutoRequest(applicationID, c.now())
	result, err := c.engine.Evaluate(ctx, req)
	if err != nil {
		run.Outcome = OutcomeError
		run.Err = err
		c.recordPipelineFailure(ctx, applicationID, err)
		return
	}

	if _, err := c.ApplyValidation(ctx, applicationID, result, true); err != nil {
		run.Outcome = OutcomeError
		run.Err = err
		c.recordPipelineFailure(ctx, applicationID, err)
		return
	}

	if !result.Approved() {
		run.Outcome = OutcomePaymentFailed
		metrics.PipelineRuns.WithLabelValues(OutcomePaymentFailed).Inc()
		c.logger.Info("Automatic processing stopped at payment validation", map[string]interface{}{
			"application_id": applicationID,
			"overall_score":  result.OverallScore,
			"overall_status": string(result.OverallStatus),
		})
		return
	}

	c.wait(ctx, config.GetDuration(c.pipeline.IssueWait))

	cert, err := c.Issue(ctx, applicationID, true)
	if err != nil {
		run.Outcome = OutcomeError
		run.Err = err
		c.recordPipelineFailure(ctx, applicationID, err)
		return
	}

	run.Outcome = OutcomeIssued
	metrics.PipelineRuns.WithLabelValues(OutcomeIssued).Inc()
	c.logger.Info("Automatic processing completed", map[string]interface{}{
		"application_id": applicationID,
		"certificate_id": cert.CertificateID,
	})
}

func (c *Controller) recordPipelineFailure(ctx context.Context, applicationID string, err error) {
	metrics.PipelineRuns.WithLabelValues(OutcomeError).Inc()
	c.trail.RecordFailure(ctx, applicationID, audit.ActionAutoProcessing, map[string]interface{}{
		"error": err.Error(),
	})
	c.logger.Error("Automatic processing failed", map[string]interface{}{
		"application_id": applicationID,
		"error":          err.Error(),
	})
}

func (c *Controller) wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
