package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var storeOpDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "task_store_operation_duration_seconds",
		Help:    "Duration of task store operations",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"op", "outcome"},
)

func init() {
	prometheus.MustRegister(storeOpDuration)
}

type instrumentedRepo struct {
	next   Repository
	tracer trace.Tracer
}

// Instrument wraps repo so that each operation gets a span and a latency
// observation.
func Instrument(repo Repository) Repository {
	return &instrumentedRepo{next: repo, tracer: otel.Tracer("tasks")}
}

func (r *instrumentedRepo) observe(ctx context.Context, op string, id int64, fn func(ctx context.Context) error) {
	ctx, span := r.tracer.Start(ctx, "tasks."+op)
	defer span.End()
	if id != 0 {
		span.SetAttributes(attribute.Int64("task.id", id))
	}

	start := time.Now()
	err := fn(ctx)

	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	case errors.Is(err, ErrTitleRequired):
		outcome = "invalid"
	default:
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	storeOpDuration.WithLabelValues(op, outcome).Observe(time.Since(start).Seconds())
}

func (r *instrumentedRepo) List(ctx context.Context) (out []Task, err error) {
	r.observe(ctx, "list", 0, func(ctx context.Context) error {
		out, err = r.next.List(ctx)
		return err
	})
	return out, err
}

func (r *instrumentedRepo) Create(ctx context.Context, title, description string) (out Task, err error) {
	r.observe(ctx, "create", 0, func(ctx context.Context) error {
		out, err = r.next.Create(ctx, title, description)
		return err
	})
	return out, err
}

func (r *instrumentedRepo) Get(ctx context.Context, id int64) (out Task, err error) {
	r.observe(ctx, "get", id, func(ctx context.Context) error {
		out, err = r.next.Get(ctx, id)
		return err
	})
	return out, err
}

func (r *instrumentedRepo) Update(ctx context.Context, id int64, title, description string, completed bool) (out Task, err error) {
	r.observe(ctx, "update", id, func(ctx context.Context) error {
		out, err = r.next.Update(ctx, id, title, description, completed)
		return err
	})
	return out, err
}

func (r *instrumentedRepo) Toggle(ctx context.Context, id int64) (out Task, err error) {
	r.observe(ctx, "toggle", id, func(ctx context.Context) error {
		out, err = r.next.Toggle(ctx, id)
		return err
	})
	return out, err
}

func (r *instrumentedRepo) Delete(ctx context.Context, id int64) (err error) {
	r.observe(ctx, "delete", id, func(ctx context.Context) error {
		err = r.next.Delete(ctx, id)
		return err
	})
	return err
}

func (r *instrumentedRepo) Ping(ctx context.Context) error { return r.next.Ping(ctx) }

func (r *instrumentedRepo) Close() error { return r.next.Close() }
