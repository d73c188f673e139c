package jobmetrics

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
)

// Task outcomes. A discarded task failed with asynq.SkipRetry and will not
// be delivered again; a retried one goes back to the queue.
const (
	OutcomeSuccess   = "success"
	OutcomeRetried   = "retried"
	OutcomeDiscarded = "discarded"
)

// Metrics exposes Prometheus collectors for asynq task processing.
type Metrics struct {
	processed *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the task metrics against registerer, or the default
// Prometheus registerer when it is nil.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultMetrics = buildMetrics(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return buildMetrics(registerer)
}

// Middleware wraps every task handler of an asynq.ServeMux, labelling
// observations by task type and queue.
func (m *Metrics) Middleware(next asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		start := time.Now()
		err := next.ProcessTask(ctx, t)
		m.Observe(ctx, t.Type(), time.Since(start), err)
		return err
	})
}

// Observe records one processed task.
func (m *Metrics) Observe(ctx context.Context, taskType string, elapsed time.Duration, err error) {
	if m == nil || taskType == "" {
		return
	}
	queue, ok := asynq.GetQueueName(ctx)
	if !ok {
		queue = "unknown"
	}
	m.processed.WithLabelValues(taskType, queue, Outcome(err)).Inc()
	m.duration.WithLabelValues(taskType).Observe(elapsed.Seconds())
}

// Outcome classifies a handler result.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, asynq.SkipRetry):
		return OutcomeDiscarded
	default:
		return OutcomeRetried
	}
}

func buildMetrics(registerer prometheus.Registerer) *Metrics {
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "viajes_tasks_processed_total",
		Help: "Processed asynq tasks by type, queue and outcome.",
	}, []string{"task", "queue", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "viajes_task_duration_seconds",
		Help:    "Handler duration of asynq tasks by type.",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"task"})
	registerer.MustRegister(processed, duration)
	return &Metrics{processed: processed, duration: duration}
}
