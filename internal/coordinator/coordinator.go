package coordinator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"

	"github.com/quillhost/addons/internal/catalog"
	"github.com/quillhost/addons/internal/infrastructure/monitoring"
	"github.com/quillhost/addons/internal/shared/id"
	"github.com/quillhost/addons/internal/shared/types"
	"github.com/quillhost/addons/internal/tracker"
)

// cancelPollInterval bounds how long a cancellation request can go
// unobserved while fetch or apply is blocked.
const cancelPollInterval = 50 * time.Millisecond

// Fetcher downloads a package payload with progress reporting. The
// context carries the cooperative cancellation signal; implementations
// must check it between chunks.
type Fetcher interface {
	Fetch(ctx context.Context, sourceURL string, onProgress func(float64)) ([]byte, error)
}

// Applier applies a fully verified payload. External collaborator; the
// unpack mechanics live outside the core.
type Applier interface {
	Apply(ctx context.Context, payload []byte, checksum string, target types.PackageIdentity) (*semver.Version, error)
}

// InstalledStore receives the record published on a successful apply,
// replacing any prior record for the same identity wholesale. The
// coordinator never reads installed state; the update aggregator
// declares its own read-side contract.
type InstalledStore interface {
	Publish(rec types.InstalledPackageRecord)
}

// Coordinator runs installations as cancellable background operations
type Coordinator struct {
	catalog *catalog.Catalog
	tracker *tracker.Tracker
	fetcher Fetcher
	applier Applier
	store   InstalledStore
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// New creates a coordinator
func New(cat *catalog.Catalog, tr *tracker.Tracker, fetcher Fetcher, applier Applier, store InstalledStore, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		catalog: cat,
		tracker: tr,
		fetcher: fetcher,
		applier: applier,
		store:   store,
		logger:  logger,
	}
}

// WithMetrics adds metrics tracking to the coordinator
func (c *Coordinator) WithMetrics(metrics *monitoring.Metrics) *Coordinator {
	c.metrics = metrics
	return c
}

// Install resolves and starts an installation. A nil version requests the
// latest version at or above the tier. Resolution misses and duplicate
// active installs return synchronously, without registering anything; the
// returned operation reports the asynchronous outcome via Wait.
func (c *Coordinator) Install(ctx context.Context, name string, version *semver.Version, tier types.StabilityTier) (*tracker.Operation, error) {
	snap := c.catalog.Current()

	desc, err := snap.Get(name, nil)
	if err != nil {
		c.rejected("not_found")
		return nil, err
	}

	var record types.PackageVersionRecord
	if version == nil {
		record, err = snap.ResolveLatest(name, &desc.Universe, tier)
	} else {
		record, err = snap.ResolveExact(name, &desc.Universe, tier, version)
	}
	if err != nil {
		c.rejected("not_found")
		return nil, err
	}

	op, err := c.tracker.Register(desc.Identity, desc.Universe, record.Version, tier)
	if err != nil {
		c.rejected("conflict")
		return nil, err
	}

	if c.metrics != nil {
		c.metrics.RecordInstallStart()
	}
	c.logger.Info("install started",
		zap.String("operation_id", op.ID.String()),
		zap.String("package", desc.Identity.Name),
		zap.String("version", record.Version.String()),
		zap.String("tier", record.Tier.String()),
	)

	go c.run(op, record)
	return op, nil
}

// Find returns a tracked operation by id
func (c *Coordinator) Find(opID id.OperationID) (*tracker.Operation, error) {
	return c.tracker.Find(opID)
}

// ListActive returns all in-flight operations
func (c *Coordinator) ListActive() []*tracker.Operation {
	return c.tracker.ListActive()
}

// RequestCancel asks an operation to stop. Returns whether it was found.
func (c *Coordinator) RequestCancel(opID id.OperationID) bool {
	return c.tracker.RequestCancel(opID)
}

func (c *Coordinator) rejected(reason string) {
	if c.metrics != nil {
		c.metrics.RecordInstallRejected(reason)
	}
}

// run executes one installation on its own goroutine. It owns the
// operation's progress writes and its single terminal transition.
func (c *Coordinator) run(op *tracker.Operation, record types.PackageVersionRecord) {
	c.tracker.MarkRunning(op)

	// Derive the cooperative cancellation signal: a watcher turns the
	// operation's flag into context cancellation for the blocking steps.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watchCancellation(ctx, cancel, op)

	if op.CancelRequested() {
		c.finish(op, tracker.Outcome{State: tracker.StateCancelled, Err: types.ErrCancelled})
		return
	}

	payload, err := c.fetcher.Fetch(ctx, record.SourceURL, op.SetProgress)
	if err != nil {
		if op.CancelRequested() {
			c.finish(op, tracker.Outcome{State: tracker.StateCancelled, Err: types.ErrCancelled})
			return
		}
		c.finish(op, tracker.Outcome{
			State: tracker.StateFailed,
			Err:   fmt.Errorf("fetch %s: %w: %v", record.SourceURL, types.ErrTransport, err),
		})
		return
	}

	if c.metrics != nil {
		c.metrics.BytesFetched.Add(float64(len(payload)))
	}

	if op.CancelRequested() {
		c.finish(op, tracker.Outcome{State: tracker.StateCancelled, Err: types.ErrCancelled})
		return
	}

	if err := verifyChecksum(payload, record.Checksum); err != nil {
		c.finish(op, tracker.Outcome{State: tracker.StateFailed, Err: err})
		return
	}

	if op.CancelRequested() {
		// No partial apply survives: the payload is discarded untouched
		c.finish(op, tracker.Outcome{State: tracker.StateCancelled, Err: types.ErrCancelled})
		return
	}

	applied, err := c.applier.Apply(ctx, payload, record.Checksum, op.Target)
	if err != nil {
		if op.CancelRequested() {
			c.finish(op, tracker.Outcome{State: tracker.StateCancelled, Err: types.ErrCancelled})
			return
		}
		c.finish(op, tracker.Outcome{
			State: tracker.StateFailed,
			Err:   fmt.Errorf("%w: %v", types.ErrApply, err),
		})
		return
	}
	if applied == nil {
		applied = record.Version
	}

	installed := types.InstalledPackageRecord{
		Identity: op.Target,
		Universe: op.Universe,
		Version:  applied,
	}
	c.store.Publish(installed)

	op.SetProgress(100)
	c.finish(op, tracker.Outcome{State: tracker.StateCompleted, Installed: &installed})
}

// finish performs the terminal transition and records telemetry
func (c *Coordinator) finish(op *tracker.Operation, outcome tracker.Outcome) {
	if !c.tracker.Complete(op, outcome) {
		return
	}

	if c.metrics != nil {
		c.metrics.RecordInstallFinish(outcome.State.String(), time.Since(op.StartedAt))
	}

	switch outcome.State {
	case tracker.StateCompleted:
		c.logger.Info("install completed",
			zap.String("operation_id", op.ID.String()),
			zap.String("package", op.Target.Name),
			zap.String("version", outcome.Installed.Version.String()),
		)
	case tracker.StateCancelled:
		c.logger.Info("install cancelled",
			zap.String("operation_id", op.ID.String()),
			zap.String("package", op.Target.Name),
		)
	default:
		c.logger.Warn("install failed",
			zap.String("operation_id", op.ID.String()),
			zap.String("package", op.Target.Name),
			zap.Error(outcome.Err),
		)
	}
}

// watchCancellation cancels ctx once the operation's flag is set,
// unblocking in-flight fetch or apply I/O.
func watchCancellation(ctx context.Context, cancel context.CancelFunc, op *tracker.Operation) {
	ticker := time.NewTicker(cancelPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if op.CancelRequested() {
				cancel()
				return
			}
		}
	}
}

// verifyChecksum compares the payload's sha256 against the catalog value
func verifyChecksum(payload []byte, expected string) error {
	sum := sha256.Sum256(payload)
	actual := hex.EncodeToString(sum[:])
	if !strings.EqualFold(actual, expected) {
		return fmt.Errorf("%w: expected %s, got %s", types.ErrIntegrity, expected, actual)
	}
	return nil
}
