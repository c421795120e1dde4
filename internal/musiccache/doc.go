// Package musiccache persists fingerprint-identification and
// recording-metadata lookups in SQLite so repeated catalogue runs never
// re-issue identical paid network calls.
//
// The Store owns one database under the configured data directory plus a
// flock guaranteeing single-process ownership. Two tables back the two fixed
// key shapes: fingerprint_cache keyed by (fingerprint, duration) and
// recording_cache keyed by canonical recording ID, each carrying a cached_at
// timestamp with a covering index for expiry sweeps.
//
// Failure handling is asymmetric. Open fails loudly: a store
// that cannot create its directory, database, or schema must not be used, and
// there is no degraded no-op mode. After Open, every lookup and store call is
// best-effort: operational failures are logged and converted to a miss or a
// silent no-op, never returned to the caller.
//
// Staleness is decided on read by comparing cached_at against the configured
// TTL; rows past the TTL are reported as misses and handed to a background
// reaper for deletion. A sweep at Open clears aged rows in bulk, but the lazy
// read-time check alone guarantees stale data is never returned.
package musiccache
