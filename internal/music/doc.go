// Package music defines the domain model shared by the lookup services and
// the persistent cache: fingerprint identification candidates and recording
// metadata with its nested artist-credit, release, medium, and track
// structure.
//
// Recording IDs are UUIDs. CanonicalRecordingID is the single normalization
// point; every storage key and every comparison goes through it so that the
// same recording can never occupy two rows under differently-cased or
// whitespace-padded identifiers.
package music
