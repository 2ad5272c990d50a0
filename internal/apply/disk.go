// Package apply installs verified payloads onto the local filesystem.
package apply

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"

	"github.com/quillhost/addons/internal/shared/types"
)

// DiskApplier unpacks payloads into a per-package directory under root.
// Writes go through a temp file and a rename so a crash mid-apply never
// leaves a partial package behind.
type DiskApplier struct {
	root   string
	logger *zap.Logger
}

// NewDiskApplier creates an applier rooted at dir
func NewDiskApplier(dir string, logger *zap.Logger) *DiskApplier {
	return &DiskApplier{root: dir, logger: logger}
}

// Apply writes the payload for target, replacing any prior install. The
// checksum names the artifact on disk so repeated applies are idempotent.
func (a *DiskApplier) Apply(ctx context.Context, payload []byte, checksum string, target types.PackageIdentity) (*semver.Version, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := filepath.Join(a.root, target.Key())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create package dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".apply-*")
	if err != nil {
		return nil, fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close artifact: %w", err)
	}

	final := filepath.Join(dir, artifactName(checksum))
	if err := os.Rename(tmpName, final); err != nil {
		return nil, fmt.Errorf("commit artifact: %w", err)
	}

	a.logger.Info("package applied",
		zap.String("package", target.Name),
		zap.String("path", final),
		zap.Int("bytes", len(payload)),
	)

	// The catalog record's version is authoritative; the payload carries
	// no version of its own.
	return nil, nil
}

func artifactName(checksum string) string {
	if len(checksum) > 12 {
		checksum = checksum[:12]
	}
	return checksum + ".pkg"
}
