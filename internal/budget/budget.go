// Package budget implements a sliding time budget for chains of dependent
// asynchronous steps. A Budget captures a start instant and an original
// limit; the remaining time shrinks monotonically as wall time advances and
// is never recomputed from a fresh start instant, so a long step correctly
// reduces the time available to the steps after it.
package budget

import (
	"context"
	"fmt"
	"time"
)

// TimeoutError indicates that a Budget was exhausted before an operation
// completed. It is distinct from a connection error and is safe to retry at a
// higher level with a fresh budget.
type TimeoutError struct {
	Limit time.Duration
}

func (e TimeoutError) Error() string {
	return fmt.Sprintf("operation exceeded time limit of %v", e.Limit)
}

// Budget is an immutable sliding time budget. The zero value is an unlimited
// budget.
type Budget struct {
	start   time.Time
	limit   time.Duration
	limited bool
}

// New creates a budget of d starting now.
func New(d time.Duration) Budget {
	return Budget{start: time.Now(), limit: d, limited: true}
}

// Unlimited creates a budget that never expires.
func Unlimited() Budget {
	return Budget{}
}

// Limited reports whether this budget has a limit.
func (b Budget) Limited() bool { return b.limited }

// Remaining returns the elapsed-adjusted remaining duration. It never
// reports a negative value and never increases between sequential calls. An
// unlimited budget always reports the maximum duration.
func (b Budget) Remaining() time.Duration {
	if !b.limited {
		return time.Duration(1<<63 - 1)
	}
	remaining := b.limit - time.Since(b.start)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Expired reports whether the budget has been exhausted.
func (b Budget) Expired() bool {
	return b.limited && b.Remaining() == 0
}

// ErrIfExpired returns a TimeoutError when the remaining budget is zero.
// Callers must invoke this before attempting any further I/O so an exhausted
// budget fails immediately rather than touching the wire.
func (b Budget) ErrIfExpired() error {
	if b.Expired() {
		return TimeoutError{Limit: b.limit}
	}
	return nil
}

// Derive produces a budget for a sub-step. The derived budget's limit is the
// smaller of d and the parent's remaining time, measured at the moment of
// derivation, so no derivation can extend the chain's overall deadline.
func (b Budget) Derive(d time.Duration) Budget {
	if !b.limited {
		return New(d)
	}
	remaining := b.Remaining()
	if d < remaining {
		remaining = d
	}
	return New(remaining)
}

// Context applies the remaining budget to ctx as a deadline. The returned
// cancel function must always be called to release the derived context.
func (b Budget) Context(ctx context.Context) (context.Context, context.CancelFunc) {
	if !b.limited {
		return context.WithCancel(ctx)
	}
	return context.WithDeadline(ctx, b.start.Add(b.limit))
}

func (b Budget) String() string {
	if !b.limited {
		return "<unlimited>"
	}
	return fmt.Sprintf("%v remaining of %v", b.Remaining(), b.limit)
}
