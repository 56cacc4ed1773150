// Package store holds client-local UI state: the submission draft and the
// job view selections (filter, detail tab, selected segment, drag flag).
//
// A Store is created once per command and passed to whatever needs it. State
// changes only through Dispatch; reducers are pure and never mutate the
// previous State, and subscribers run synchronously after each dispatch.
package store
