package tracker

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Masterminds/semver/v3"

	"github.com/quillhost/addons/internal/shared/id"
	"github.com/quillhost/addons/internal/shared/types"
)

// Tracker owns every InstallationOperation for its active lifetime
type Tracker struct {
	mu     sync.Mutex
	seq    uint64
	byID   map[id.OperationID]*Operation
	active map[activeKey]*Operation
}

// activeKey enforces single-active-per-identity. Names are case-folded.
type activeKey struct {
	name   string
	target types.TargetSystem
}

// New creates an empty tracker
func New() *Tracker {
	return &Tracker{
		byID:   make(map[id.OperationID]*Operation),
		active: make(map[activeKey]*Operation),
	}
}

// Register creates a new Pending operation with a fresh id. Returns
// types.ErrConflict when an active operation already exists for the same
// package identity; the existing operation is left untouched. A slot
// whose operation has reached a terminal state counts as free: the
// terminal outcome is published before the completing goroutine removes
// the entry, so a waiter may re-register the identity the moment it
// observes the outcome.
func (t *Tracker) Register(target types.PackageIdentity, universe types.Universe, version *semver.Version, tier types.StabilityTier) (*Operation, error) {
	key := activeKey{name: target.Key(), target: target.Target}

	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.active[key]; ok && !existing.State().Terminal() {
		return nil, fmt.Errorf("package %q (operation %s): %w", target.Name, existing.ID, types.ErrConflict)
	}

	op := newOperation(target, universe, version, tier)
	t.seq++
	op.seq = t.seq
	t.byID[op.ID] = op
	t.active[key] = op
	return op, nil
}

// Find returns the operation with the given id, if still tracked
func (t *Tracker) Find(opID id.OperationID) (*Operation, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	op, ok := t.byID[opID]
	if !ok {
		return nil, fmt.Errorf("operation %s: %w", opID, types.ErrNotFound)
	}
	return op, nil
}

// ListActive returns all tracked operations in registration order
func (t *Tracker) ListActive() []*Operation {
	t.mu.Lock()
	defer t.mu.Unlock()

	ops := make([]*Operation, 0, len(t.byID))
	for _, op := range t.byID {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].seq < ops[j].seq })
	return ops
}

// RequestCancel flips the cancellation flag on the operation with the
// given id. Returns whether an operation was found; cancelling is never
// an error.
func (t *Tracker) RequestCancel(opID id.OperationID) bool {
	op, err := t.Find(opID)
	if err != nil {
		return false
	}
	op.RequestCancel()
	return true
}

// MarkRunning transitions the operation to Running. Coordinator only.
func (t *Tracker) MarkRunning(op *Operation) {
	op.markRunning()
}

// Complete performs the operation's single terminal transition and then
// removes the tracker entry. The outcome is recorded on the operation
// before removal, so waiters observe it. Coordinator only.
func (t *Tracker) Complete(op *Operation, outcome Outcome) bool {
	if !op.finish(outcome) {
		return false
	}
	t.remove(op)
	return true
}

func (t *Tracker) remove(op *Operation) {
	key := activeKey{name: op.Target.Key(), target: op.Target.Target}

	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.byID, op.ID)
	// Guard against a slot already reused by a newer operation
	if cur, ok := t.active[key]; ok && cur == op {
		delete(t.active, key)
	}
}
