// Package lookup resolves audio fingerprints and recording IDs against the
// external identification and metadata services with the persistent cache in
// front of both.
//
// The two services are consumed through small interfaces; their wire
// protocols live elsewhere. The Resolver implements the cache-first flow
// once: consult the cache, call the service on a miss, populate the cache
// with the result. Cache population is best-effort, but service failures are
// returned to the caller; the cache never masks a network error.
package lookup
