package feed

import (
	"sync"

	"github.com/quillhost/addons/internal/shared/types"
)

// MemoryStore is an in-memory installed-package record store. Publishing
// replaces any record for the same identity; durable persistence belongs
// to an external collaborator.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[memoryKey]types.InstalledPackageRecord
	order   []memoryKey
}

type memoryKey struct {
	universe types.Universe
	key      string
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[memoryKey]types.InstalledPackageRecord)}
}

// Publish records rec, replacing any prior record for the same identity
func (s *MemoryStore) Publish(rec types.InstalledPackageRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := memoryKey{universe: rec.Universe, key: rec.Identity.Key()}
	if _, exists := s.records[k]; !exists {
		s.order = append(s.order, k)
	}
	s.records[k] = rec
}

// Records returns the stored records for a universe in publish order.
// UniverseAll spans both universes.
func (s *MemoryStore) Records(universe types.Universe) []types.InstalledPackageRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.InstalledPackageRecord
	for _, k := range s.order {
		if universe != types.UniverseAll && k.universe != universe {
			continue
		}
		out = append(out, s.records[k])
	}
	return out
}
