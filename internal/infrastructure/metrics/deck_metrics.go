package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/janhq/deck-server/internal/domain/layout"
	"github.com/janhq/deck-server/internal/domain/pipeline"
	"github.com/janhq/deck-server/internal/domain/render"
	"github.com/janhq/deck-server/internal/domain/validation"
)

// Generation metrics
var (
	StagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "deck_api",
			Name:      "pipeline_stages_total",
			Help:      "Pipeline stage outcomes",
		},
		[]string{"stage", "state"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jan",
			Subsystem: "deck_api",
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30},
		},
		[]string{"stage"},
	)

	ValidationIssuesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "deck_api",
			Name:      "validation_issues_total",
			Help:      "Validation issues by stage and code",
		},
		[]string{"stage", "code"},
	)

	LayoutSlidesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "deck_api",
			Name:      "layout_slides_total",
			Help:      "Planned slides by degradation strategy",
		},
		[]string{"strategy"},
	)

	LayoutSafeTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "deck_api",
			Name:      "layout_safe_fallbacks_total",
			Help:      "Slides that ended on the text-only safe plan",
		},
	)

	RenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "jan",
			Subsystem: "deck_api",
			Name:      "render_duration_seconds",
			Help:      "Local render duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
	)

	ImageFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jan",
			Subsystem: "deck_api",
			Name:      "image_fetches_total",
			Help:      "Image fetch outcomes",
		},
		[]string{"outcome"},
	)
)

// Recorder adapts the package metrics to the domain observer interfaces.
type Recorder struct{}

// ObserveStage implements pipeline.Observer.
func (Recorder) ObserveStage(stage pipeline.Stage, state pipeline.State, d time.Duration) {
	StagesTotal.WithLabelValues(string(stage), string(state)).Inc()
	if state != pipeline.StateSkipped {
		StageDuration.WithLabelValues(string(stage)).Observe(d.Seconds())
	}
}

// ObserveIssues implements pipeline.Observer.
func (Recorder) ObserveIssues(stage pipeline.Stage, issues []validation.Issue) {
	for _, is := range issues {
		ValidationIssuesTotal.WithLabelValues(string(stage), string(is.Code)).Inc()
	}
}

// ObserveLayout implements deck.Observer.
func (Recorder) ObserveLayout(res layout.Result) {
	for strategy, n := range res.Strategies() {
		LayoutSlidesTotal.WithLabelValues(string(strategy)).Add(float64(n))
	}
	if res.Safe > 0 {
		LayoutSafeTotal.Add(float64(res.Safe))
	}
}

// ObserveRender implements deck.Observer.
func (Recorder) ObserveRender(_ render.Stats, d time.Duration) {
	RenderDuration.Observe(d.Seconds())
}

// ObserveImageFetch implements imagefetch.Observer.
func (Recorder) ObserveImageFetch(outcome string) {
	ImageFetchesTotal.WithLabelValues(outcome).Inc()
}
