// Package sqlite contains the SQLite-backed parameter store and the
// conversion run log.
//
// The schema is managed by golang-migrate using migrations embedded in the
// binary, so a fresh database file is usable after Open. Stores take a
// *sql.DB and never own its lifecycle.
package sqlite
