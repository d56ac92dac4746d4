package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	jobmetrics "github.com/odyssey-erp/odyssey-pos/internal/jobs"
)

// LookupWarmer reloads cached brands and categories.
type LookupWarmer interface {
	WarmLookups(ctx context.Context) error
}

// SupplierWarmer reloads the cached supplier list.
type SupplierWarmer interface {
	WarmSuppliers(ctx context.Context) error
}

// DashboardWarmer reloads today's dashboard summary.
type DashboardWarmer interface {
	Warm(ctx context.Context) error
}

// WarmupJob handles both warmup task types.
type WarmupJob struct {
	Lookups   LookupWarmer
	Suppliers SupplierWarmer
	Dashboard DashboardWarmer
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	Timeout   time.Duration
	clock     func() time.Time
}

// NewWarmupJob wires dependencies for the warmup handlers. Nil warmers are skipped.
func NewWarmupJob(lookups LookupWarmer, suppliers SupplierWarmer, dashboard DashboardWarmer, logger *slog.Logger, metrics *jobmetrics.Metrics) *WarmupJob {
	return &WarmupJob{
		Lookups:   lookups,
		Suppliers: suppliers,
		Dashboard: dashboard,
		Logger:    logger,
		Metrics:   metrics,
		Timeout:   30 * time.Second,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// HandleLookups processes TaskLookupsWarmup.
func (j *WarmupJob) HandleLookups(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("lookups warmup: handler not configured")
	}
	payload, err := decodeWarmup(t)
	if err != nil {
		return err
	}
	return j.run(ctx, TaskLookupsWarmup, payload, func(ctx context.Context) error {
		g, gctx := errgroup.WithContext(ctx)
		if j.Lookups != nil {
			g.Go(func() error { return j.Lookups.WarmLookups(gctx) })
		}
		if j.Suppliers != nil {
			g.Go(func() error { return j.Suppliers.WarmSuppliers(gctx) })
		}
		return g.Wait()
	})
}

// HandleDashboard processes TaskDashboardWarmup.
func (j *WarmupJob) HandleDashboard(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	payload, err := decodeWarmup(t)
	if err != nil {
		return err
	}
	return j.run(ctx, TaskDashboardWarmup, payload, func(ctx context.Context) error {
		if j.Dashboard == nil {
			return nil
		}
		return j.Dashboard.Warm(ctx)
	})
}

func (j *WarmupJob) run(ctx context.Context, taskType string, payload WarmupPayload, fn func(context.Context) error) (resultErr error) {
	tracker := j.metrics().Track(taskType)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger(taskType).With(slog.String("reason", payload.Reason))
	started := j.now()

	runCtx := ctx
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}
	if err := fn(runCtx); err != nil {
		logger.Error("warmup failed", slog.Any("error", err))
		return err
	}
	logger.Info("warmup completed", slog.Duration("duration", j.now().Sub(started)))
	return nil
}

func decodeWarmup(t *asynq.Task) (WarmupPayload, error) {
	var payload WarmupPayload
	if len(t.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return payload, asynq.SkipRetry
	}
	return payload, nil
}

func (j *WarmupJob) logger(taskType string) *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", taskType))
	}
	return slog.Default().With(slog.String("job", taskType))
}

func (j *WarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return jobmetrics.NewMetrics(nil)
}

func (j *WarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
