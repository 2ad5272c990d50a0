package catalog

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/quillhost/addons/internal/shared/types"
)

// ResolveLatest returns the newest version of the named package whose
// stability tier is at or above the requested minimum. Requesting
// TierRelease never yields a beta or dev build; requesting TierDev
// accepts anything. Pure read over this snapshot.
func (s *Snapshot) ResolveLatest(name string, universe *types.Universe, tier types.StabilityTier) (types.PackageVersionRecord, error) {
	d, err := s.Get(name, universe)
	if err != nil {
		return types.PackageVersionRecord{}, err
	}

	// Versions are sorted newest first, so the first qualifying record
	// is the maximum by the version order.
	for _, v := range d.Versions {
		if v.Tier >= tier {
			return v, nil
		}
	}
	return types.PackageVersionRecord{}, fmt.Errorf("package %q has no %s version: %w", name, tier, types.ErrNotFound)
}

// ResolveExact returns the record matching the exact version and tier.
// No fallback is attempted.
func (s *Snapshot) ResolveExact(name string, universe *types.Universe, tier types.StabilityTier, version *semver.Version) (types.PackageVersionRecord, error) {
	d, err := s.Get(name, universe)
	if err != nil {
		return types.PackageVersionRecord{}, err
	}

	for _, v := range d.Versions {
		if v.Tier == tier && v.Version.Equal(version) {
			return v, nil
		}
	}
	return types.PackageVersionRecord{}, fmt.Errorf("package %q version %s (%s): %w", name, version, tier, types.ErrNotFound)
}
