package budget

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"autoblog/internal/ports"
)

// Tracker enforces a daily spend ceiling for paid API calls. The
// accumulator resets at midnight UTC; admission and accounting share one
// mutex so concurrent stages cannot slip past the ceiling together.
type Tracker struct {
	mu      sync.Mutex
	ceiling float64
	warnAt  float64
	day     string
	spent   float64
	warned  bool
	logger  *slog.Logger
	now     func() time.Time
}

var _ ports.BudgetGate = (*Tracker)(nil)

// NewTracker builds a Tracker with the given daily ceiling and warning
// threshold, both in USD. A non-positive ceiling disables the gate.
func NewTracker(ceilingUSD, warnAtUSD float64, logger *slog.Logger) *Tracker {
	return &Tracker{
		ceiling: ceilingUSD,
		warnAt:  warnAtUSD,
		logger:  logger,
		now:     time.Now,
	}
}

// Allow reports whether a call with the given estimated cost may
// proceed. The gate closes once accumulated spend reaches the ceiling;
// an in-flight call that started below the ceiling is never aborted.
func (t *Tracker) Allow(estimate float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ceiling <= 0 {
		return nil
	}

	t.rollover()
	if t.spent >= t.ceiling {
		return fmt.Errorf("%w: spent %.2f USD of %.2f USD today", ports.ErrBudgetExceeded, t.spent, t.ceiling)
	}

	if t.warnAt > 0 && !t.warned && t.spent+estimate >= t.warnAt {
		t.warned = true
		if t.logger != nil {
			t.logger.Warn("approaching daily budget",
				"spent_usd", t.spent, "estimate_usd", estimate, "ceiling_usd", t.ceiling)
		}
	}
	return nil
}

// Add records actual spend after a call completes.
func (t *Tracker) Add(cost float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rollover()
	t.spent += cost
}

// Spent returns the accumulated spend for the current day.
func (t *Tracker) Spent() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rollover()
	return t.spent
}

// rollover resets the accumulator when the UTC day changed. Callers must
// hold the mutex.
func (t *Tracker) rollover() {
	day := t.now().UTC().Format("2006-01-02")
	if day != t.day {
		t.day = day
		t.spent = 0
		t.warned = false
	}
}
