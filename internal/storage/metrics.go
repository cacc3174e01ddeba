package storage

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type instrumentedBackend struct {
	next     Backend
	duration *prometheus.HistogramVec
}

// Instrument wraps next so every call is timed into the histogram
// tasks_store_operation_duration_seconds{operation, outcome}, registered
// on reg. Registering twice on the same registry reuses the collector.
func Instrument(next Backend, reg prometheus.Registerer) (Backend, error) {
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tasks",
		Subsystem: "store",
		Name:      "operation_duration_seconds",
		Help:      "Latency of task store operations.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.3, 1.2, 5, 10},
	}, []string{"operation", "outcome"})

	if err := reg.Register(duration); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, err
		}
		duration = already.ExistingCollector.(*prometheus.HistogramVec)
	}

	return &instrumentedBackend{next: next, duration: duration}, nil
}

func (b *instrumentedBackend) observe(op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	b.duration.WithLabelValues(op, outcome).Observe(time.Since(start).Seconds())
}

func (b *instrumentedBackend) EnsureCollection(ctx context.Context) (err error) {
	defer func(start time.Time) { b.observe("ensure_collection", start, err) }(time.Now())
	return b.next.EnsureCollection(ctx)
}

func (b *instrumentedBackend) Scan(ctx context.Context) (tasks []Task, err error) {
	defer func(start time.Time) { b.observe("scan", start, err) }(time.Now())
	return b.next.Scan(ctx)
}

func (b *instrumentedBackend) Put(ctx context.Context, task Task) (err error) {
	defer func(start time.Time) { b.observe("put", start, err) }(time.Now())
	return b.next.Put(ctx, task)
}

func (b *instrumentedBackend) Delete(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { b.observe("delete", start, err) }(time.Now())
	return b.next.Delete(ctx, id)
}

func (b *instrumentedBackend) Close(ctx context.Context) error {
	return b.next.Close(ctx)
}
