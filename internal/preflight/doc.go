// Package preflight provides readiness checks for the scoring backend, the
// local directories bookscore writes to, and the job cache.
//
// The CLI "bookscore status" command runs RunAll and renders each Result.
// Checks for optional features are skipped when the feature is off.
package preflight
