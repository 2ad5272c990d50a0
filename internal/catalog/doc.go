// Package catalog maintains the point-in-time view of all known package
// descriptors and resolves concrete versions against it.
//
// The catalog is refreshed wholesale: Refresh builds a complete new
// Snapshot and swaps it in atomically, so readers always observe either
// the fully old or the fully new state. Read operations never touch the
// network.
//
// Resolution is a pure read over one snapshot: ResolveLatest picks the
// newest version at or above a requested stability tier, ResolveExact
// matches a single (version, tier) pair with no fallback.
package catalog
