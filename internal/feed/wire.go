package feed

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/quillhost/addons/internal/shared/types"
)

// wire DTOs for the descriptor feed. Versions travel as strings and tiers
// as names; parsing normalizes both into the shared types.

type wireDescriptor struct {
	Name     string        `json:"name" yaml:"name"`
	Target   string        `json:"target_system" yaml:"target_system"`
	Universe string        `json:"universe" yaml:"universe"`
	Versions []wireVersion `json:"versions" yaml:"versions"`
}

type wireVersion struct {
	Version        string `json:"version" yaml:"version"`
	Tier           string `json:"tier" yaml:"tier"`
	Premium        bool   `json:"premium" yaml:"premium"`
	SourceURL      string `json:"source_url" yaml:"source_url"`
	Checksum       string `json:"checksum" yaml:"checksum"`
	MinHostVersion string `json:"min_host_version,omitempty" yaml:"min_host_version,omitempty"`
}

type wireHostUpdate struct {
	Available bool         `json:"available"`
	Record    *wireVersion `json:"record,omitempty"`
}

func (w wireDescriptor) toDescriptor() (types.PackageDescriptor, error) {
	if w.Name == "" {
		return types.PackageDescriptor{}, fmt.Errorf("descriptor missing name")
	}

	universe := types.Universe(w.Universe)
	if universe != types.UniverseSystem && universe != types.UniverseUserInstalled {
		return types.PackageDescriptor{}, fmt.Errorf("descriptor %q: unknown universe %q", w.Name, w.Universe)
	}

	target := types.TargetSystem(w.Target)
	if target == "" {
		target = types.TargetAny
	}

	versions := make([]types.PackageVersionRecord, 0, len(w.Versions))
	for _, v := range w.Versions {
		record, err := v.toRecord()
		if err != nil {
			return types.PackageDescriptor{}, fmt.Errorf("descriptor %q: %w", w.Name, err)
		}
		versions = append(versions, record)
	}

	return types.PackageDescriptor{
		Identity: types.PackageIdentity{Name: w.Name, Target: target},
		Universe: universe,
		Versions: versions,
	}, nil
}

func (w wireVersion) toRecord() (types.PackageVersionRecord, error) {
	version, err := semver.NewVersion(w.Version)
	if err != nil {
		return types.PackageVersionRecord{}, fmt.Errorf("version %q: %w", w.Version, err)
	}

	tier, ok := types.ParseTier(w.Tier)
	if !ok {
		return types.PackageVersionRecord{}, fmt.Errorf("version %q: unknown tier %q", w.Version, w.Tier)
	}

	record := types.PackageVersionRecord{
		Version:   version,
		Tier:      tier,
		Premium:   w.Premium,
		SourceURL: w.SourceURL,
		Checksum:  w.Checksum,
	}

	if w.MinHostVersion != "" {
		minHost, err := semver.NewVersion(w.MinHostVersion)
		if err != nil {
			return types.PackageVersionRecord{}, fmt.Errorf("min host version %q: %w", w.MinHostVersion, err)
		}
		record.MinHostVersion = minHost
	}

	return record, nil
}

func toDescriptors(wires []wireDescriptor) ([]types.PackageDescriptor, error) {
	out := make([]types.PackageDescriptor, 0, len(wires))
	for _, w := range wires {
		d, err := w.toDescriptor()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
