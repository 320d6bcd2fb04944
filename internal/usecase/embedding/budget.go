// Package embedding guards provider calls with a token budget.
package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecfuse/internal/domain"
	"github.com/kailas-cloud/vecfuse/internal/repository/budget"
)

// BudgetAction defines behavior when the token budget is exhausted.
type BudgetAction string

const (
	// BudgetActionWarn logs and lets the request through.
	BudgetActionWarn BudgetAction = "warn"
	// BudgetActionReject fails the request with domain.ErrRateLimited.
	BudgetActionReject BudgetAction = "reject"
)

// Valid reports whether a is a known action.
func (a BudgetAction) Valid() bool {
	return a == BudgetActionWarn || a == BudgetActionReject
}

// BudgetStore persists counters across restarts and replicas.
type BudgetStore interface {
	IncrBy(ctx context.Context, key string, val int64) error
	Get(ctx context.Context, key string) (int64, error)
}

// BudgetConfig sets the limits; zero means unlimited.
type BudgetConfig struct {
	Provider     string
	DailyLimit   int64
	MonthlyLimit int64
	Action       BudgetAction
}

// Limited reports whether any limit is set.
func (c BudgetConfig) Limited() bool {
	return c.DailyLimit > 0 || c.MonthlyLimit > 0
}

// BudgetTracker counts tokens in memory and writes behind to an optional store.
// Check never leaves the process.
type BudgetTracker struct {
	mu          sync.Mutex
	cfg         BudgetConfig
	dailyUsed   int64
	monthlyUsed int64
	day         time.Time
	month       time.Time
	now         func() time.Time
	store       BudgetStore
	logger      *zap.Logger
}

// NewBudgetTracker creates a tracker. An empty action defaults to reject.
func NewBudgetTracker(cfg BudgetConfig, logger *zap.Logger) *BudgetTracker {
	if cfg.Action == "" {
		cfg.Action = BudgetActionReject
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &BudgetTracker{cfg: cfg, now: time.Now, logger: logger}
	now := b.now().UTC()
	b.day, b.month = truncateToDay(now), truncateToMonth(now)
	return b
}

// WithStore attaches a store and loads the current period's counters from it.
func (b *BudgetTracker) WithStore(ctx context.Context, store BudgetStore) *BudgetTracker {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.store = store
	now := b.now().UTC()
	if val, err := store.Get(ctx, budget.DailyKey(b.cfg.Provider, now)); err == nil {
		b.dailyUsed = val
	} else {
		b.logger.Warn("Failed to load daily budget", zap.Error(err))
	}
	if val, err := store.Get(ctx, budget.MonthlyKey(b.cfg.Provider, now)); err == nil {
		b.monthlyUsed = val
	} else {
		b.logger.Warn("Failed to load monthly budget", zap.Error(err))
	}

	b.logger.Info("Embedding budget loaded",
		zap.String("provider", b.cfg.Provider),
		zap.Int64("daily_used", b.dailyUsed),
		zap.Int64("monthly_used", b.monthlyUsed),
	)
	return b
}

// Check fails with domain.ErrRateLimited once a limit is reached and the action is reject.
func (b *BudgetTracker) Check(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()

	var period string
	switch {
	case b.cfg.DailyLimit > 0 && b.dailyUsed >= b.cfg.DailyLimit:
		period = "daily"
	case b.cfg.MonthlyLimit > 0 && b.monthlyUsed >= b.cfg.MonthlyLimit:
		period = "monthly"
	default:
		return nil
	}

	if b.cfg.Action == BudgetActionReject {
		return fmt.Errorf("%w: %s embedding token budget exhausted", domain.ErrRateLimited, period)
	}
	b.logger.Warn("Embedding token budget exceeded",
		zap.String("provider", b.cfg.Provider),
		zap.String("period", period),
		zap.Int64("daily_used", b.dailyUsed),
		zap.Int64("monthly_used", b.monthlyUsed),
	)
	return nil
}

// Record adds consumed tokens, then persists them when a store is attached.
func (b *BudgetTracker) Record(ctx context.Context, tokens int64) {
	if tokens <= 0 {
		return
	}
	b.mu.Lock()
	b.rollover()
	b.dailyUsed += tokens
	b.monthlyUsed += tokens
	store := b.store
	now := b.now().UTC()
	b.mu.Unlock()

	if store == nil {
		return
	}

	// The caller may already be past its deadline; the counters still have to land.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	for _, key := range []string{budget.DailyKey(b.cfg.Provider, now), budget.MonthlyKey(b.cfg.Provider, now)} {
		if err := store.IncrBy(ctx, key, tokens); err != nil {
			b.logger.Warn("Failed to persist embedding budget", zap.String("key", key), zap.Error(err))
		}
	}
}

// RemainingDaily returns tokens left today, -1 when unlimited.
func (b *BudgetTracker) RemainingDaily() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()
	return remaining(b.cfg.DailyLimit, b.dailyUsed)
}

// RemainingMonthly returns tokens left this month, -1 when unlimited.
func (b *BudgetTracker) RemainingMonthly() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()
	return remaining(b.cfg.MonthlyLimit, b.monthlyUsed)
}

func remaining(limit, used int64) int64 {
	if limit == 0 {
		return -1
	}
	return max(limit-used, 0)
}

// rollover zeroes counters when the UTC day or month changes. Caller holds mu.
func (b *BudgetTracker) rollover() {
	now := b.now().UTC()
	if today := truncateToDay(now); today.After(b.day) {
		b.dailyUsed = 0
		b.day = today
	}
	if month := truncateToMonth(now); month.After(b.month) {
		b.monthlyUsed = 0
		b.month = month
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func truncateToMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
