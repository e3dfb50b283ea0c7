// Package maskstore persists mask-count measurements in a SQLite file.
//
// The schema is versioned with embedded golang-migrate migrations that
// are applied on Open. A finished pipeline run is recorded with its
// measurements in one transaction under a new UUID.
package maskstore
