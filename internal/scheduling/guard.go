package scheduling

import (
	"context"
	"fmt"
	"sync/atomic"
)

// DefaultMaxPerDay is the daily scheduled-appointment limit when none is
// configured.
const DefaultMaxPerDay = 2

// Limits holds the process-wide scheduling limits. The value is mutable at
// runtime and read fresh on every capacity check, so a change takes effect on
// the next operation without restarts.
type Limits struct {
	maxPerDay atomic.Int64
}

// NewLimits creates limits with the given daily maximum, falling back to
// DefaultMaxPerDay when the value is not positive.
func NewLimits(maxPerDay int) *Limits {
	l := &Limits{}
	if maxPerDay < 1 {
		maxPerDay = DefaultMaxPerDay
	}
	l.maxPerDay.Store(int64(maxPerDay))
	return l
}

// MaxPerDay returns the limit currently in force.
func (l *Limits) MaxPerDay() int { return int(l.maxPerDay.Load()) }

// SetMaxPerDay replaces the limit for subsequent capacity checks.
func (l *Limits) SetMaxPerDay(n int) error {
	if n < 1 {
		return fmt.Errorf("max per day must be at least 1, got %d", n)
	}
	l.maxPerDay.Store(int64(n))
	return nil
}

// Guard enforces the daily capacity limit on scheduled appointments.
type Guard struct {
	store  Store
	limits *Limits
}

// NewGuard creates a capacity guard over the given store and limits.
func NewGuard(store Store, limits *Limits) *Guard {
	return &Guard{store: store, limits: limits}
}

// CanBook reports whether date has room for one more scheduled appointment.
// excludeID skips an existing appointment from the count, so an edit never
// counts the appointment being edited against itself; pass 0 on creation.
func (g *Guard) CanBook(ctx context.Context, date Date, excludeID int) (bool, error) {
	count, err := g.store.CountScheduled(ctx, date, excludeID)
	if err != nil {
		return false, err
	}
	return count < g.limits.MaxPerDay(), nil
}

// AssertCapacity fails with a CapacityError when date is full. The error
// carries the count and limit observed at check time.
func (g *Guard) AssertCapacity(ctx context.Context, date Date, excludeID int) error {
	count, err := g.store.CountScheduled(ctx, date, excludeID)
	if err != nil {
		return err
	}
	if max := g.limits.MaxPerDay(); count >= max {
		return &CapacityError{Date: date, Count: count, Max: max}
	}
	return nil
}
