package updates

import (
	"context"
	"errors"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quillhost/addons/internal/catalog"
	"github.com/quillhost/addons/internal/shared/types"
)

type stubFeed struct {
	descriptors []types.PackageDescriptor
}

func (s *stubFeed) Descriptors(_ context.Context, _ *semver.Version) ([]types.PackageDescriptor, error) {
	return s.descriptors, nil
}

type stubStore struct {
	records []types.InstalledPackageRecord
}

func (s *stubStore) Records(universe types.Universe) []types.InstalledPackageRecord {
	var out []types.InstalledPackageRecord
	for _, r := range s.records {
		if universe == types.UniverseAll || r.Universe == universe {
			out = append(out, r)
		}
	}
	return out
}

type stubHostCheck struct {
	available bool
	record    *types.PackageVersionRecord
	err       error
	calls     int
}

func (s *stubHostCheck) Check(_ context.Context) (bool, *types.PackageVersionRecord, error) {
	s.calls++
	return s.available, s.record, s.err
}

func version(s string) *semver.Version { return semver.MustParse(s) }

func record(v string, tier types.StabilityTier) types.PackageVersionRecord {
	return types.PackageVersionRecord{Version: version(v), Tier: tier}
}

func installed(name string, universe types.Universe, v string) types.InstalledPackageRecord {
	return types.InstalledPackageRecord{
		Identity: types.PackageIdentity{Name: name, Target: types.TargetDesktop},
		Universe: universe,
		Version:  version(v),
	}
}

func testCatalog(t *testing.T, descriptors ...types.PackageDescriptor) *catalog.Catalog {
	t.Helper()
	cat := catalog.New(&stubFeed{descriptors: descriptors}, zap.NewNop())
	_, err := cat.Refresh(context.Background(), version("5.0.0"))
	require.NoError(t, err)
	return cat
}

func userDescriptor(name string, records ...types.PackageVersionRecord) types.PackageDescriptor {
	return types.PackageDescriptor{
		Identity: types.PackageIdentity{Name: name, Target: types.TargetDesktop},
		Universe: types.UniverseUserInstalled,
		Versions: records,
	}
}

func TestCheckUserInstalledPinnedToRelease(t *testing.T) {
	// Installed Foo 1.0; catalog has Foo 1.2 (Release) and Foo 2.0 (Dev).
	// The update offer is 1.2, never 2.0.
	cat := testCatalog(t,
		userDescriptor("Foo",
			record("1.0.0", types.TierRelease),
			record("1.2.0", types.TierRelease),
			record("2.0.0", types.TierDev),
		),
	)
	store := &stubStore{records: []types.InstalledPackageRecord{
		installed("Foo", types.UniverseUserInstalled, "1.0.0"),
	}}

	agg := New(cat, store, &stubHostCheck{}, zap.NewNop())
	report, err := agg.Check(context.Background(), types.UniverseUserInstalled)
	require.NoError(t, err)

	require.Len(t, report.Entries, 1)
	assert.Equal(t, "1.2.0", report.Entries[0].Candidate.Version.String())
}

func TestCheckUserInstalledUpToDate(t *testing.T) {
	cat := testCatalog(t,
		userDescriptor("Foo", record("1.2.0", types.TierRelease)),
	)
	store := &stubStore{records: []types.InstalledPackageRecord{
		installed("Foo", types.UniverseUserInstalled, "1.2.0"),
	}}

	agg := New(cat, store, &stubHostCheck{}, zap.NewNop())
	report, err := agg.Check(context.Background(), types.UniverseUserInstalled)
	require.NoError(t, err)
	assert.Empty(t, report.Entries, "equal versions are not an update")
}

func TestCheckSystemUsesHostChecker(t *testing.T) {
	cat := testCatalog(t)
	store := &stubStore{records: []types.InstalledPackageRecord{
		installed("QuillHost", types.UniverseSystem, "4.0.0"),
	}}
	hostRecord := record("4.2.0", types.TierRelease)
	host := &stubHostCheck{available: true, record: &hostRecord}

	agg := New(cat, store, host, zap.NewNop())
	report, err := agg.Check(context.Background(), types.UniverseSystem)
	require.NoError(t, err)

	require.Len(t, report.Entries, 1)
	assert.Equal(t, "QuillHost", report.Entries[0].Installed.Identity.Name)
	assert.Equal(t, "4.2.0", report.Entries[0].Candidate.Version.String())
	assert.Equal(t, 1, host.calls, "host check runs exactly once")
}

func TestCheckSystemNoUpdate(t *testing.T) {
	agg := New(testCatalog(t), &stubStore{}, &stubHostCheck{available: false}, zap.NewNop())

	report, err := agg.Check(context.Background(), types.UniverseSystem)
	require.NoError(t, err)
	assert.Empty(t, report.Entries)
}

func TestCheckSystemError(t *testing.T) {
	host := &stubHostCheck{err: errors.New("host feed unreachable")}
	agg := New(testCatalog(t), &stubStore{}, host, zap.NewNop())

	_, err := agg.Check(context.Background(), types.UniverseSystem)
	assert.Error(t, err)
}

func TestCheckAllOrdersSystemFirst(t *testing.T) {
	cat := testCatalog(t,
		userDescriptor("Alpha", record("1.1.0", types.TierRelease)),
		userDescriptor("Beta", record("2.1.0", types.TierRelease)),
	)
	store := &stubStore{records: []types.InstalledPackageRecord{
		// Deliberately listed after the plugins: order must come from
		// the universe rule, not store order.
		installed("Beta", types.UniverseUserInstalled, "2.0.0"),
		installed("Alpha", types.UniverseUserInstalled, "1.0.0"),
		installed("QuillHost", types.UniverseSystem, "4.0.0"),
	}}
	hostRecord := record("4.5.0", types.TierRelease)
	host := &stubHostCheck{available: true, record: &hostRecord}

	agg := New(cat, store, host, zap.NewNop())
	report, err := agg.Check(context.Background(), types.UniverseAll)
	require.NoError(t, err)

	require.Len(t, report.Entries, 3)
	assert.Equal(t, "QuillHost", report.Entries[0].Installed.Identity.Name)
	// UserInstalled entries follow catalog order
	assert.Equal(t, "Alpha", report.Entries[1].Installed.Identity.Name)
	assert.Equal(t, "Beta", report.Entries[2].Installed.Identity.Name)
}

func TestCheckIgnoresUncataloguedInstalls(t *testing.T) {
	cat := testCatalog(t,
		userDescriptor("Known", record("1.1.0", types.TierRelease)),
	)
	store := &stubStore{records: []types.InstalledPackageRecord{
		installed("Known", types.UniverseUserInstalled, "1.0.0"),
		installed("Orphan", types.UniverseUserInstalled, "0.1.0"),
	}}

	agg := New(cat, store, &stubHostCheck{}, zap.NewNop())
	report, err := agg.Check(context.Background(), types.UniverseUserInstalled)
	require.NoError(t, err)

	require.Len(t, report.Entries, 1)
	assert.Equal(t, "Known", report.Entries[0].Installed.Identity.Name)
}
