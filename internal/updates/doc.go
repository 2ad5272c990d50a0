// Package updates computes the delta between installed package versions
// and the catalog across the two package universes.
//
// The aggregator is a pure read path: it consults the current catalog
// snapshot and the installed-record store, never the installation
// tracker, and is safe to call concurrently with installs in progress.
// Plugin update checks are pinned to the Release tier; a newer dev or
// beta build is never offered as an update.
package updates
