// Package feed provides the default implementations of the external
// collaborators the core consumes: the HTTP descriptor feed, the chunked
// payload fetcher, the host-update check, and an in-memory
// installed-record store.
//
// The HTTP client layers retries (retryablehttp transport), a circuit
// breaker, and an optional download rate limit on top of resty. All
// blocking calls honor context cancellation, which is how the
// coordinator's cooperative cancellation reaches an in-flight download.
package feed
