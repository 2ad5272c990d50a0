package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"

	"github.com/quillhost/addons/internal/shared/types"
)

type stubFeed struct {
	mu          sync.Mutex
	descriptors []types.PackageDescriptor
	err         error
	calls       int
}

func (s *stubFeed) Descriptors(_ context.Context, _ *semver.Version) ([]types.PackageDescriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([]types.PackageDescriptor, len(s.descriptors))
	copy(out, s.descriptors)
	return out, nil
}

func (s *stubFeed) set(descriptors []types.PackageDescriptor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.descriptors = descriptors
}

func version(s string) *semver.Version { return semver.MustParse(s) }

func record(v string, tier types.StabilityTier) types.PackageVersionRecord {
	return types.PackageVersionRecord{Version: version(v), Tier: tier}
}

func descriptor(name string, universe types.Universe, target types.TargetSystem, records ...types.PackageVersionRecord) types.PackageDescriptor {
	return types.PackageDescriptor{
		Identity: types.PackageIdentity{Name: name, Target: target},
		Universe: universe,
		Versions: records,
	}
}

func refreshed(t *testing.T, feed *stubFeed, host string) *Catalog {
	t.Helper()
	cat := New(feed, zap.NewNop())
	if _, err := cat.Refresh(context.Background(), version(host)); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	return cat
}

func TestRefreshFiltersIncompatibleVersions(t *testing.T) {
	tooNew := record("3.0.0", types.TierRelease)
	tooNew.MinHostVersion = version("9.0.0")
	ok := record("2.0.0", types.TierRelease)
	ok.MinHostVersion = version("4.0.0")

	feed := &stubFeed{descriptors: []types.PackageDescriptor{
		descriptor("Foo", types.UniverseUserInstalled, types.TargetAny, tooNew, ok),
		descriptor("OnlyNew", types.UniverseUserInstalled, types.TargetAny, tooNew),
	}}
	cat := refreshed(t, feed, "5.0.0")

	d, err := cat.Get("Foo", nil)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(d.Versions) != 1 || !d.Versions[0].Version.Equal(version("2.0.0")) {
		t.Errorf("Incompatible version should be dropped, got %v", d.Versions)
	}

	// Packages with no compatible version disappear entirely
	if _, err := cat.Get("OnlyNew", nil); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestRefreshPropagatesFeedError(t *testing.T) {
	feed := &stubFeed{err: errors.New("feed down")}
	cat := New(feed, zap.NewNop())

	if _, err := cat.Refresh(context.Background(), version("5.0.0")); err == nil {
		t.Fatal("Expected refresh error")
	}

	// Prior (empty) snapshot stays intact
	if got := cat.Current().Len(); got != 0 {
		t.Errorf("Expected empty snapshot, got %d", got)
	}
}

func TestGetCaseInsensitive(t *testing.T) {
	feed := &stubFeed{descriptors: []types.PackageDescriptor{
		descriptor("GifMaker", types.UniverseUserInstalled, types.TargetAny, record("1.0.0", types.TierRelease)),
	}}
	cat := refreshed(t, feed, "5.0.0")

	for _, name := range []string{"GifMaker", "gifmaker", "GIFMAKER"} {
		if _, err := cat.Get(name, nil); err != nil {
			t.Errorf("Get(%q) failed: %v", name, err)
		}
	}
}

func TestGetUniverseScoped(t *testing.T) {
	feed := &stubFeed{descriptors: []types.PackageDescriptor{
		descriptor("Host", types.UniverseSystem, types.TargetAny, record("4.0.0", types.TierRelease)),
		descriptor("Plugin", types.UniverseUserInstalled, types.TargetAny, record("1.0.0", types.TierRelease)),
	}}
	cat := refreshed(t, feed, "5.0.0")

	system := types.UniverseSystem
	if _, err := cat.Get("Plugin", &system); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("Plugin should not resolve in the system universe, got %v", err)
	}
	if _, err := cat.Get("Host", &system); err != nil {
		t.Errorf("Host should resolve in the system universe: %v", err)
	}
}

func TestListFiltersConjunctive(t *testing.T) {
	premium := record("2.0.0", types.TierRelease)
	premium.Premium = true

	feed := &stubFeed{descriptors: []types.PackageDescriptor{
		descriptor("A", types.UniverseUserInstalled, types.TargetDesktop, record("1.0.0", types.TierRelease)),
		descriptor("B", types.UniverseUserInstalled, types.TargetServer, premium),
		descriptor("C", types.UniverseSystem, types.TargetAny, record("3.0.0", types.TierRelease)),
	}}
	cat := refreshed(t, feed, "5.0.0")

	// No filters: everything
	if got := len(cat.List(Filter{})); got != 3 {
		t.Errorf("Expected 3 descriptors, got %d", got)
	}

	user := types.UniverseUserInstalled
	if got := len(cat.List(Filter{Universe: &user})); got != 2 {
		t.Errorf("Expected 2 user descriptors, got %d", got)
	}

	// Target membership
	desktop := cat.List(Filter{Targets: []types.TargetSystem{types.TargetDesktop}})
	if len(desktop) != 2 { // A (desktop) + C (any)
		t.Errorf("Expected 2 desktop-capable descriptors, got %d", len(desktop))
	}

	// Premium equality, combined with universe
	isPremium := true
	got := cat.List(Filter{Universe: &user, Premium: &isPremium})
	if len(got) != 1 || got[0].Identity.Name != "B" {
		t.Errorf("Expected only B, got %v", got)
	}
}

func TestRefreshAtomicUnderConcurrentReads(t *testing.T) {
	old := []types.PackageDescriptor{
		descriptor("A", types.UniverseUserInstalled, types.TargetAny, record("1.0.0", types.TierRelease)),
	}
	replacement := []types.PackageDescriptor{
		descriptor("B", types.UniverseUserInstalled, types.TargetAny, record("1.0.0", types.TierRelease)),
		descriptor("C", types.UniverseUserInstalled, types.TargetAny, record("1.0.0", types.TierRelease)),
	}

	feed := &stubFeed{descriptors: old}
	cat := refreshed(t, feed, "5.0.0")
	feed.set(replacement)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				listed := cat.List(Filter{})
				// A reader sees either the old catalog {A} or the new
				// one {B, C}, never a mixture.
				switch len(listed) {
				case 1:
					if listed[0].Identity.Name != "A" {
						t.Errorf("Torn snapshot: %v", listed)
						return
					}
				case 2:
					if listed[0].Identity.Name != "B" || listed[1].Identity.Name != "C" {
						t.Errorf("Torn snapshot: %v", listed)
						return
					}
				default:
					t.Errorf("Torn snapshot size %d", len(listed))
					return
				}
			}
		}()
	}

	for i := 0; i < 20; i++ {
		if _, err := cat.Refresh(context.Background(), version("5.0.0")); err != nil {
			t.Errorf("Refresh failed: %v", err)
		}
	}
	close(stop)
	wg.Wait()
}
