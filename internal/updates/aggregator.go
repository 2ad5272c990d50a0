package updates

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/quillhost/addons/internal/catalog"
	"github.com/quillhost/addons/internal/infrastructure/monitoring"
	"github.com/quillhost/addons/internal/shared/types"
)

// HostUpdateChecker is the external host-application update check
type HostUpdateChecker interface {
	Check(ctx context.Context) (available bool, record *types.PackageVersionRecord, err error)
}

// InstalledStore provides the currently installed package records
type InstalledStore interface {
	Records(universe types.Universe) []types.InstalledPackageRecord
}

// Aggregator diffs installed versions against the catalog
type Aggregator struct {
	catalog *catalog.Catalog
	store   InstalledStore
	host    HostUpdateChecker
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// New creates an update aggregator
func New(cat *catalog.Catalog, store InstalledStore, host HostUpdateChecker, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		catalog: cat,
		store:   store,
		host:    host,
		logger:  logger,
	}
}

// WithMetrics adds metrics tracking to the aggregator
func (a *Aggregator) WithMetrics(metrics *monitoring.Metrics) *Aggregator {
	a.metrics = metrics
	return a
}

// Check returns the pending updates for the requested universe. For
// UniverseAll, System entries precede UserInstalled entries.
func (a *Aggregator) Check(ctx context.Context, universe types.Universe) (types.UpdateReport, error) {
	report := types.UpdateReport{Universe: universe}

	if universe == types.UniverseSystem || universe == types.UniverseAll {
		entries, err := a.checkSystem(ctx)
		if err != nil {
			return types.UpdateReport{}, err
		}
		report.Entries = append(report.Entries, entries...)
	}

	if universe == types.UniverseUserInstalled || universe == types.UniverseAll {
		report.Entries = append(report.Entries, a.checkUserInstalled()...)
	}

	if a.metrics != nil {
		a.metrics.UpdateChecks.WithLabelValues(string(universe)).Inc()
		a.metrics.UpdatesListed.Set(float64(len(report.Entries)))
	}
	a.logger.Debug("update check finished",
		zap.String("universe", string(universe)),
		zap.Int("pending", len(report.Entries)),
	)

	return report, nil
}

// checkSystem runs the external host-update check exactly once and maps
// its result onto the installed host record.
func (a *Aggregator) checkSystem(ctx context.Context) ([]types.UpdateEntry, error) {
	available, record, err := a.host.Check(ctx)
	if err != nil {
		return nil, fmt.Errorf("host update check: %w", err)
	}
	if !available || record == nil {
		return nil, nil
	}

	installed := a.store.Records(types.UniverseSystem)
	if len(installed) == 0 {
		// Host record not seeded; report the candidate without a baseline
		return []types.UpdateEntry{{Candidate: *record}}, nil
	}
	return []types.UpdateEntry{{Installed: installed[0], Candidate: *record}}, nil
}

// checkUserInstalled pairs each installed plugin with a strictly newer
// release-tier candidate. Results follow catalog order.
func (a *Aggregator) checkUserInstalled() []types.UpdateEntry {
	snap := a.catalog.Current()

	installed := make(map[string]types.InstalledPackageRecord)
	for _, rec := range a.store.Records(types.UniverseUserInstalled) {
		installed[rec.Identity.Key()] = rec
	}
	if len(installed) == 0 {
		return nil
	}

	universe := types.UniverseUserInstalled
	var entries []types.UpdateEntry
	for _, desc := range snap.List(catalog.Filter{Universe: &universe}) {
		rec, ok := installed[desc.Identity.Key()]
		if !ok {
			continue
		}

		candidate, err := snap.ResolveLatest(desc.Identity.Name, &universe, types.TierRelease)
		if err != nil {
			continue
		}
		if rec.Version != nil && !candidate.Version.GreaterThan(rec.Version) {
			continue
		}
		entries = append(entries, types.UpdateEntry{Installed: rec, Candidate: candidate})
	}
	return entries
}
