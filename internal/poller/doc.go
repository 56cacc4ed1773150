// Package poller keeps job views in step with the backend.
//
// A Poller runs timer-driven subscriptions keyed by a string. Each tick
// launches a fetch without waiting for the previous one; every fetch carries a
// sequence number and a result is applied only when it is newer than the last
// applied result for its key, so a slow response never overwrites a fresher
// one. A Done predicate ends the subscription once the fetched value is
// terminal, and cancelling the context or the subscription halts the timer.
//
// JobWatch and ListWatch build on that for the job detail and job list views.
// JobWatch also fetches segments once a job is past transcription and never
// fetches them again once they are known for a completed job.
package poller
