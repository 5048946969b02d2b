package video

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"photoanimator/internal/domain"
)

var (
	pipelineRunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "studio_pipeline_run_duration_seconds",
		Help:    "Duration of pipeline runs in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 3, 5, 10, 30, 60, 120},
	}, []string{"pipeline", "outcome"})

	pipelineRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studio_pipeline_runs_total",
		Help: "Total number of pipeline runs by outcome",
	}, []string{"pipeline", "outcome", "format"})
)

// Outcome labels a finished pipeline run.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "succeeded"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, domain.ErrPipelineRejected):
		return "rejected"
	case errors.Is(err, domain.ErrPipelineUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}

type instrumentedPipeline struct {
	name string
	next Pipeline
}

// Instrumented records run counts and durations for next under name.
func Instrumented(name string, next Pipeline) Pipeline {
	return &instrumentedPipeline{name: name, next: next}
}

func (p *instrumentedPipeline) Run(ctx context.Context, img domain.ImageSource, req domain.AnimationRequest) (*domain.Artifact, error) {
	start := time.Now()
	artifact, err := p.next.Run(ctx, img, req)
	outcome := Outcome(err)
	if err != nil && ctx.Err() != nil {
		outcome = "canceled"
	}
	pipelineRunDuration.WithLabelValues(p.name, outcome).Observe(time.Since(start).Seconds())
	pipelineRunsTotal.WithLabelValues(p.name, outcome, string(req.Format())).Inc()
	return artifact, err
}
