package feed

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/goccy/go-yaml"
	"go.uber.org/zap"

	"github.com/quillhost/addons/internal/shared/types"
)

// Seeder loads bundled descriptor manifests from disk so a fresh host
// has a usable catalog before the first successful network refresh.
// Manifest files are YAML or JSON lists of descriptors.
type Seeder struct {
	dir    string
	logger *zap.Logger
}

// NewSeeder creates a seeder reading manifests from dir
func NewSeeder(dir string, logger *zap.Logger) *Seeder {
	return &Seeder{dir: dir, logger: logger}
}

// Load reads every manifest in the seed directory. Individual bad files
// are skipped with a warning; a missing directory yields an empty list.
func (s *Seeder) Load() ([]types.PackageDescriptor, error) {
	if _, err := os.Stat(s.dir); os.IsNotExist(err) {
		s.logger.Warn("seed directory not found", zap.String("dir", s.dir))
		return nil, nil
	}

	var descriptors []types.PackageDescriptor
	var loaded, failed int

	err := filepath.Walk(s.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		var batch []types.PackageDescriptor
		switch strings.ToLower(filepath.Ext(info.Name())) {
		case ".yaml", ".yml":
			batch, err = loadYAMLManifest(path)
		case ".json":
			batch, err = loadJSONManifest(path)
		default:
			return nil
		}

		if err != nil {
			failed++
			s.logger.Warn("skipping bad manifest", zap.String("path", path), zap.Error(err))
			return nil
		}

		descriptors = append(descriptors, batch...)
		loaded++
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("seed scan: %w", err)
	}

	s.logger.Info("seed manifests loaded",
		zap.Int("files", loaded),
		zap.Int("failed", failed),
		zap.Int("packages", len(descriptors)),
	)
	return descriptors, nil
}

func loadYAMLManifest(path string) ([]types.PackageDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var wires []wireDescriptor
	if err := yaml.Unmarshal(data, &wires); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return toDescriptors(wires)
}

func loadJSONManifest(path string) ([]types.PackageDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return decodeDescriptors(data)
}

// FallbackFeed serves descriptors from a primary feed, falling back to
// locally seeded manifests when the primary is unreachable.
type FallbackFeed struct {
	primary Feed
	seeder  *Seeder
	logger  *zap.Logger
}

// Feed is the descriptor source contract, mirrored here so the package
// can compose sources without importing its consumers.
type Feed interface {
	Descriptors(ctx context.Context, hostVersion *semver.Version) ([]types.PackageDescriptor, error)
}

// NewFallbackFeed wraps primary with a local-manifest fallback
func NewFallbackFeed(primary Feed, seeder *Seeder, logger *zap.Logger) *FallbackFeed {
	return &FallbackFeed{primary: primary, seeder: seeder, logger: logger}
}

// Descriptors tries the primary feed first. Host-compatibility filtering
// happens in the catalog, so the fallback path returns manifests as-is.
func (f *FallbackFeed) Descriptors(ctx context.Context, hostVersion *semver.Version) ([]types.PackageDescriptor, error) {
	descriptors, err := f.primary.Descriptors(ctx, hostVersion)
	if err == nil {
		return descriptors, nil
	}

	f.logger.Warn("primary feed unavailable, using seed manifests", zap.Error(err))
	seeded, seedErr := f.seeder.Load()
	if seedErr != nil || len(seeded) == 0 {
		// Nothing local either; surface the original failure
		return nil, err
	}
	return seeded, nil
}
