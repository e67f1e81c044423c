package realtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"storefront/internal/models"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// MetricsSource computes the admin dashboard aggregate.
type MetricsSource interface {
	Metrics(ctx context.Context) (*models.DashboardMetrics, error)
}

// StockSource lists products at or below a stock threshold.
type StockSource interface {
	LowStock(ctx context.Context, threshold int) ([]models.Product, error)
}

// AnalyticsPruner deletes tracking rows older than a cutoff.
type AnalyticsPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Publisher is the subset of the hub the monitor and services publish with.
type Publisher interface {
	Publish(env Envelope) int
}

type MonitorOptions struct {
	Interval          time.Duration
	LowStockThreshold int
	// RepeatAlerts re-sends low-stock alerts every tick. When false a product
	// is alerted once per crossing below the threshold.
	RepeatAlerts bool
	// Retention bounds analytics rows; zero disables pruning.
	Retention time.Duration
}

// Monitor runs the periodic admin broadcasts
type Monitor struct {
	hub     Publisher
	metrics MetricsSource
	stock   StockSource
	pruner  AnalyticsPruner
	opts    MonitorOptions
	log     *zap.Logger
	cron    *cron.Cron

	mu      sync.Mutex
	alerted map[string]bool
}

func NewMonitor(hub Publisher, metrics MetricsSource, stock StockSource, pruner AnalyticsPruner, opts MonitorOptions, log *zap.Logger) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	log = log.Named("monitor")
	return &Monitor{
		hub:     hub,
		metrics: metrics,
		stock:   stock,
		pruner:  pruner,
		opts:    opts,
		log:     log,
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLogger{log}),
			cron.SkipIfStillRunning(cronLogger{log}),
		)),
		alerted: make(map[string]bool),
	}
}

// Start schedules the jobs. A tick that overruns the interval makes the next
// one skip rather than pile up.
func (m *Monitor) Start() error {
	every := fmt.Sprintf("@every %s", m.opts.Interval)

	if err := m.addCronJob(every, m.opts.Interval, m.BroadcastDashboardMetrics, "dashboard metrics broadcast failed"); err != nil {
		return err
	}
	if err := m.addCronJob(every, m.opts.Interval, m.CheckLowStock, "low stock check failed"); err != nil {
		return err
	}
	if m.pruner != nil && m.opts.Retention > 0 {
		if err := m.addCronJob("@daily", 5*time.Minute, m.PruneAnalytics, "analytics prune failed"); err != nil {
			return err
		}
	}

	m.cron.Start()
	m.log.Info("✓ Monitor started",
		zap.Duration("interval", m.opts.Interval),
		zap.Int("low_stock_threshold", m.opts.LowStockThreshold),
		zap.Bool("repeat_alerts", m.opts.RepeatAlerts))
	return nil
}

// Stop waits for running jobs to finish or ctx to expire.
func (m *Monitor) Stop(ctx context.Context) {
	select {
	case <-m.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// addCronJob registers a cron job with timeout and error logging.
func (m *Monitor) addCronJob(schedule string, timeout time.Duration, job func(context.Context) error, errMsg string) error {
	_, err := m.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := job(ctx); err != nil {
			m.log.Error(errMsg, zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule %q: %w", schedule, err)
	}
	return nil
}

// BroadcastDashboardMetrics recomputes the dashboard aggregate and pushes it
// to admins.
func (m *Monitor) BroadcastDashboardMetrics(ctx context.Context) error {
	metrics, err := m.metrics.Metrics(ctx)
	if err != nil {
		return err
	}
	m.hub.Publish(Envelope{Kind: KindDashboardMetrics, Target: ToAdmins(), Payload: metrics})
	return nil
}

// CheckLowStock publishes one low-stock-alert per product at or below the
// threshold.
func (m *Monitor) CheckLowStock(ctx context.Context) error {
	products, err := m.stock.LowStock(ctx, m.opts.LowStockThreshold)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	low := make(map[string]bool, len(products))
	for _, p := range products {
		low[p.ID] = true
		if !m.opts.RepeatAlerts && m.alerted[p.ID] {
			continue
		}
		m.hub.Publish(Envelope{
			Kind:   KindLowStockAlert,
			Target: ToAdmins(),
			Payload: models.LowStockAlert{
				ProductID: p.ID,
				Name:      p.Name,
				Stock:     p.Stock,
				Threshold: m.opts.LowStockThreshold,
			},
		})
	}
	// Products that recovered become eligible again.
	m.alerted = low

	if len(products) > 0 {
		m.log.Debug("low stock products", zap.Int("count", len(products)))
	}
	return nil
}

// PruneAnalytics drops tracking rows older than the retention window.
func (m *Monitor) PruneAnalytics(ctx context.Context) error {
	deleted, err := m.pruner.DeleteOlderThan(ctx, time.Now().Add(-m.opts.Retention))
	if err != nil {
		return err
	}
	m.log.Info("analytics pruned", zap.Int64("deleted", deleted))
	return nil
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	log *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
