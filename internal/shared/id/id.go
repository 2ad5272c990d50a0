// Package id provides centralized ID generation for the add-on core.
//
// This package offers type-safe ULID generation with:
//   - Lexicographic sortability: operations list in start order
//   - Prefixed types: type-specific prefixes for debugging (op_*, snap_*)
//   - Type safety: separate types prevent ID misuse
//   - Zero reuse: every generated token is unique for the process lifetime
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// OperationID identifies a tracked installation operation
type OperationID string

// SnapshotID identifies one catalog snapshot for log correlation
type SnapshotID string

// ID prefixes for debugging and type identification
const (
	OperationPrefix = "op"
	SnapshotPrefix  = "snap"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	// Default generator with cryptographically secure entropy
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator
func NewGenerator() *Generator {
	return &Generator{
		entropy: rand.Reader,
	}
}

// NewGeneratorWithEntropy creates a generator with custom entropy source.
// Useful for testing with deterministic entropy.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: entropy,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// NewOperationID generates a new installation operation ID
func NewOperationID() OperationID {
	return OperationID(Default().GenerateWithPrefix(OperationPrefix))
}

// NewSnapshotID generates a new catalog snapshot ID
func NewSnapshotID() SnapshotID {
	return SnapshotID(Default().GenerateWithPrefix(SnapshotPrefix))
}

// String methods for ID types
func (id OperationID) String() string { return string(id) }
func (id SnapshotID) String() string  { return string(id) }

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := Parse(id)
	return err == nil
}

// Parse parses a ULID string
func Parse(id string) (ulid.ULID, error) {
	return ulid.Parse(id)
}

// Timestamp extracts the creation time from an unprefixed ULID string
func Timestamp(id string) (time.Time, error) {
	parsed, err := Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
