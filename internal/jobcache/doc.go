// Package jobcache persists observed job snapshots and the segments of
// completed jobs in a local SQLite database.
//
// Segments of a completed job never change on the backend, so once they are
// stored here the job watcher serves them from disk instead of downloading
// the transcript again. Job snapshots are kept for offline display and for
// `bookscore cache` housekeeping.
package jobcache
