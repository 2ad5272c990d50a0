// Package types provides shared data structures for the add-on catalog core.
//
// This package defines the entities exchanged between the catalog, resolver,
// tracker, coordinator, and update aggregator, plus the error taxonomy every
// component reports against.
//
// Core Types:
//   - PackageIdentity: (name, target system) key, version-independent
//   - PackageVersionRecord: one published version of a package
//   - PackageDescriptor: identity + ordered version history + universe
//   - InstalledPackageRecord: currently applied version of a package
//   - UpdateReport: pending updates across package universes
//
// Enums:
//   - StabilityTier: Dev < Beta < Release
//   - Universe: System (the host application) vs UserInstalled (plugins)
//   - TargetSystem: host platform class a package applies to
package types
