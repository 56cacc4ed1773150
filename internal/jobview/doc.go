// Package jobview derives display state from backend job records.
//
// Everything here is a pure function of the current job, segment, or stats
// value: status labels, terminal checks, progress visibility, mood colours,
// list aggregates and filters. Views call these on every refresh instead of
// storing derived fields. TabSelector is the one stateful helper; it tracks
// the detail tab across refreshes so a finished job flips to its results
// exactly once.
package jobview
