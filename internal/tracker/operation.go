package tracker

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/quillhost/addons/internal/shared/id"
	"github.com/quillhost/addons/internal/shared/types"
)

// State is the lifecycle state of an installation operation
type State int32

const (
	StatePending State = iota
	StateRunning
	StateCancelled
	StateFailed
	StateCompleted
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is final
func (s State) Terminal() bool {
	return s == StateCancelled || s == StateFailed || s == StateCompleted
}

// Outcome is the terminal result of an operation, observable by waiters
// even after the tracker entry is removed.
type Outcome struct {
	State     State
	Installed *types.InstalledPackageRecord // set on StateCompleted only
	Err       error                         // set on StateFailed, ErrCancelled on StateCancelled
}

// Operation is one tracked, cancellable installation. Status, progress,
// and the cancellation flag live on the same entity; there is no separate
// cancellation handle.
type Operation struct {
	ID               id.OperationID
	Target           types.PackageIdentity
	Universe         types.Universe
	RequestedVersion *semver.Version // nil means "latest for tier"
	RequestedTier    types.StabilityTier
	StartedAt        time.Time

	seq       uint64 // registration order, assigned by the tracker
	state     atomic.Int32
	progress  atomic.Uint64 // float64 bits, monotonic 0..100
	cancelled atomic.Bool
	finished  atomic.Bool

	// outcome is written exactly once, happens-before close(done)
	outcome Outcome
	done    chan struct{}
}

func newOperation(target types.PackageIdentity, universe types.Universe, version *semver.Version, tier types.StabilityTier) *Operation {
	return &Operation{
		ID:               id.NewOperationID(),
		Target:           target,
		Universe:         universe,
		RequestedVersion: version,
		RequestedTier:    tier,
		StartedAt:        time.Now(),
		done:             make(chan struct{}),
	}
}

// State returns the current lifecycle state
func (o *Operation) State() State {
	return State(o.state.Load())
}

// Progress returns the current progress in percent (0..100)
func (o *Operation) Progress() float64 {
	return math.Float64frombits(o.progress.Load())
}

// SetProgress records progress. Called only by the owning coordinator
// execution; values never decrease and terminal operations ignore updates.
func (o *Operation) SetProgress(p float64) {
	if o.State().Terminal() {
		return
	}
	p = math.Min(100, math.Max(0, p))
	for {
		cur := o.progress.Load()
		if math.Float64frombits(cur) >= p {
			return
		}
		if o.progress.CompareAndSwap(cur, math.Float64bits(p)) {
			return
		}
	}
}

// RequestCancel flips the cancellation flag. Idempotent; setting it on an
// already-terminal operation has no effect.
func (o *Operation) RequestCancel() {
	o.cancelled.Store(true)
}

// CancelRequested reports whether cancellation has been requested
func (o *Operation) CancelRequested() bool {
	return o.cancelled.Load()
}

// Wait blocks until the operation reaches a terminal state or the context
// is done. The returned Outcome is valid even after the tracker entry has
// been removed.
func (o *Operation) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-o.done:
		return o.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// Done returns a channel closed on terminal transition
func (o *Operation) Done() <-chan struct{} {
	return o.done
}

// Outcome returns the terminal outcome. Valid only after Done is closed.
func (o *Operation) Outcome() Outcome {
	select {
	case <-o.done:
		return o.outcome
	default:
		return Outcome{State: o.State()}
	}
}

// markRunning transitions Pending -> Running
func (o *Operation) markRunning() {
	o.state.CompareAndSwap(int32(StatePending), int32(StateRunning))
}

// finish performs the single terminal transition. The outcome write
// happens-before the done channel close, so any waiter observes it.
func (o *Operation) finish(outcome Outcome) bool {
	if !o.finished.CompareAndSwap(false, true) {
		return false
	}
	o.outcome = outcome
	o.state.Store(int32(outcome.State))
	close(o.done)
	return true
}
