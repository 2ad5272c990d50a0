package types

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// StabilityTier classifies the maturity of a published version.
// Higher values are more stable.
type StabilityTier int

const (
	TierDev StabilityTier = iota
	TierBeta
	TierRelease
)

// String returns the string representation of the tier
func (t StabilityTier) String() string {
	switch t {
	case TierDev:
		return "dev"
	case TierBeta:
		return "beta"
	case TierRelease:
		return "release"
	default:
		return "unknown"
	}
}

// ParseTier converts a string to a StabilityTier
func ParseTier(s string) (StabilityTier, bool) {
	switch strings.ToLower(s) {
	case "dev":
		return TierDev, true
	case "beta":
		return TierBeta, true
	case "release", "stable":
		return TierRelease, true
	default:
		return TierDev, false
	}
}

// Universe distinguishes the two independent package populations
type Universe string

const (
	UniverseSystem        Universe = "system"         // The host application itself
	UniverseUserInstalled Universe = "user_installed" // Add-on plugins
	UniverseAll           Universe = "all"            // Filter value: both universes
)

// TargetSystem identifies the host platform class a package applies to
type TargetSystem string

const (
	TargetAny      TargetSystem = "any"
	TargetDesktop  TargetSystem = "desktop"
	TargetServer   TargetSystem = "server"
	TargetEmbedded TargetSystem = "embedded"
)

// PackageIdentity uniquely identifies a package independent of version.
// Name comparison is case-insensitive within a universe.
type PackageIdentity struct {
	Name   string       `json:"name"`
	Target TargetSystem `json:"target_system"`
}

// Key returns the canonical (case-folded) map key for the identity
func (p PackageIdentity) Key() string {
	return strings.ToLower(p.Name)
}

// PackageVersionRecord is one published version of a package
type PackageVersionRecord struct {
	Version        *semver.Version `json:"version"`
	Tier           StabilityTier   `json:"tier"`
	Premium        bool            `json:"premium"`
	SourceURL      string          `json:"source_url"`
	Checksum       string          `json:"checksum"`
	MinHostVersion *semver.Version `json:"min_host_version,omitempty"`
}

// CompatibleWith reports whether the record may run on the given host version.
// A record with no minimum requirement is compatible with any host.
func (r PackageVersionRecord) CompatibleWith(host *semver.Version) bool {
	if r.MinHostVersion == nil || host == nil {
		return true
	}
	return !r.MinHostVersion.GreaterThan(host)
}

// PackageDescriptor is a package identity plus its known versions,
// newest first, tagged with the universe it belongs to.
type PackageDescriptor struct {
	Identity PackageIdentity        `json:"identity"`
	Universe Universe               `json:"universe"`
	Versions []PackageVersionRecord `json:"versions"`
}

// Latest returns the newest version record, if any
func (d PackageDescriptor) Latest() (PackageVersionRecord, bool) {
	if len(d.Versions) == 0 {
		return PackageVersionRecord{}, false
	}
	return d.Versions[0], true
}

// InstalledPackageRecord is the currently applied version of a package.
// Records are replaced wholesale on successful re-install, never mutated.
type InstalledPackageRecord struct {
	Identity PackageIdentity `json:"identity"`
	Universe Universe        `json:"universe"`
	Version  *semver.Version `json:"version"`
}

// UpdateEntry pairs an installed record with a strictly newer candidate
type UpdateEntry struct {
	Installed InstalledPackageRecord `json:"installed"`
	Candidate PackageVersionRecord   `json:"candidate"`
}

// UpdateReport is the ordered set of pending updates for a universe query.
// System entries precede UserInstalled entries.
type UpdateReport struct {
	Universe Universe      `json:"universe"`
	Entries  []UpdateEntry `json:"entries"`
}
