package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quillhost/addons/internal/infrastructure/monitoring"
	"github.com/quillhost/addons/internal/shared/id"
	"github.com/quillhost/addons/internal/shared/types"
)

// Feed interface for the external descriptor source
type Feed interface {
	Descriptors(ctx context.Context, hostVersion *semver.Version) ([]types.PackageDescriptor, error)
}

// Snapshot is an immutable point-in-time view of all known descriptors.
// Built once during Refresh, never mutated afterwards.
type Snapshot struct {
	ID        id.SnapshotID
	FetchID   string // uuid correlating feed request and snapshot in logs
	FetchedAt time.Time

	ordered []types.PackageDescriptor
	byKey   map[snapshotKey]int // index into ordered
}

type snapshotKey struct {
	universe types.Universe
	name     string // case-folded
}

// Catalog owns the current snapshot and is its sole writer
type Catalog struct {
	snapshot atomic.Pointer[Snapshot]
	feed     Feed
	logger   *zap.Logger
	metrics  *monitoring.Metrics
}

// New creates a catalog backed by the given feed
func New(feed Feed, logger *zap.Logger) *Catalog {
	c := &Catalog{
		feed:   feed,
		logger: logger,
	}
	c.snapshot.Store(emptySnapshot())
	return c
}

// WithMetrics adds metrics tracking to the catalog
func (c *Catalog) WithMetrics(metrics *monitoring.Metrics) *Catalog {
	c.metrics = metrics
	return c
}

// Refresh fetches the full descriptor list from the feed, drops version
// records that require a newer host than hostVersion, and atomically
// replaces the prior snapshot. Readers are never blocked.
func (c *Catalog) Refresh(ctx context.Context, hostVersion *semver.Version) (*Snapshot, error) {
	fetchID := uuid.New().String()

	descriptors, err := c.feed.Descriptors(ctx, hostVersion)
	if err != nil {
		if c.metrics != nil {
			c.metrics.CatalogRefreshes.WithLabelValues("error").Inc()
		}
		return nil, fmt.Errorf("catalog refresh: %w", err)
	}

	snap := buildSnapshot(descriptors, hostVersion)
	snap.FetchID = fetchID
	c.snapshot.Store(snap)

	if c.metrics != nil {
		c.metrics.CatalogRefreshes.WithLabelValues("ok").Inc()
		c.metrics.CatalogPackages.Set(float64(len(snap.ordered)))
	}
	c.logger.Info("catalog refreshed",
		zap.String("snapshot_id", snap.ID.String()),
		zap.String("fetch_id", fetchID),
		zap.Int("packages", len(snap.ordered)),
	)

	return snap, nil
}

// Current returns the active snapshot. Never nil.
func (c *Catalog) Current() *Snapshot {
	return c.snapshot.Load()
}

// Get looks up a descriptor by case-insensitive name. A nil universe
// searches UserInstalled first, then System.
func (c *Catalog) Get(name string, universe *types.Universe) (types.PackageDescriptor, error) {
	return c.Current().Get(name, universe)
}

// List returns descriptors matching the filter
func (c *Catalog) List(filter Filter) []types.PackageDescriptor {
	return c.Current().List(filter)
}

// Filter narrows List results. Absent fields do not narrow the match.
type Filter struct {
	Universe *types.Universe
	Targets  []types.TargetSystem // non-empty: package must match at least one
	Premium  *bool
}

// Get looks up a descriptor in this snapshot
func (s *Snapshot) Get(name string, universe *types.Universe) (types.PackageDescriptor, error) {
	search := []types.Universe{types.UniverseUserInstalled, types.UniverseSystem}
	if universe != nil {
		search = []types.Universe{*universe}
	}

	key := (types.PackageIdentity{Name: name}).Key()
	for _, u := range search {
		if idx, ok := s.byKey[snapshotKey{universe: u, name: key}]; ok {
			return s.ordered[idx], nil
		}
	}
	return types.PackageDescriptor{}, fmt.Errorf("package %q: %w", name, types.ErrNotFound)
}

// List returns descriptors matching the filter, in catalog order
func (s *Snapshot) List(filter Filter) []types.PackageDescriptor {
	out := make([]types.PackageDescriptor, 0, len(s.ordered))
	for _, d := range s.ordered {
		if filter.Universe != nil && d.Universe != *filter.Universe {
			continue
		}
		if len(filter.Targets) > 0 && !matchesTarget(d.Identity.Target, filter.Targets) {
			continue
		}
		if filter.Premium != nil && !matchesPremium(d, *filter.Premium) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Len returns the number of descriptors in the snapshot
func (s *Snapshot) Len() int {
	return len(s.ordered)
}

func matchesTarget(target types.TargetSystem, allowed []types.TargetSystem) bool {
	if target == types.TargetAny {
		return true
	}
	for _, t := range allowed {
		if t == target || t == types.TargetAny {
			return true
		}
	}
	return false
}

// matchesPremium checks the flag against the newest version record,
// which is what a storefront listing shows for the package.
func matchesPremium(d types.PackageDescriptor, premium bool) bool {
	latest, ok := d.Latest()
	return ok && latest.Premium == premium
}

func emptySnapshot() *Snapshot {
	return &Snapshot{
		ID:        id.NewSnapshotID(),
		FetchedAt: time.Time{},
		byKey:     make(map[snapshotKey]int),
	}
}

// buildSnapshot normalizes descriptors into an immutable snapshot:
// incompatible version records dropped, versions sorted newest first,
// packages with no surviving versions omitted.
func buildSnapshot(descriptors []types.PackageDescriptor, hostVersion *semver.Version) *Snapshot {
	snap := &Snapshot{
		ID:        id.NewSnapshotID(),
		FetchedAt: time.Now(),
		byKey:     make(map[snapshotKey]int, len(descriptors)),
	}

	for _, d := range descriptors {
		versions := make([]types.PackageVersionRecord, 0, len(d.Versions))
		for _, v := range d.Versions {
			if v.Version == nil {
				continue
			}
			if !v.CompatibleWith(hostVersion) {
				continue
			}
			versions = append(versions, v)
		}
		if len(versions) == 0 {
			continue
		}

		sort.SliceStable(versions, func(i, j int) bool {
			return versions[i].Version.GreaterThan(versions[j].Version)
		})

		key := snapshotKey{universe: d.Universe, name: d.Identity.Key()}
		if _, dup := snap.byKey[key]; dup {
			// First occurrence wins; the feed should not emit duplicates
			continue
		}

		d.Versions = versions
		snap.byKey[key] = len(snap.ordered)
		snap.ordered = append(snap.ordered, d)
	}

	return snap
}
