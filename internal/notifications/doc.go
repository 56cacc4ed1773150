// Package notifications delivers scoring job events via ntfy.
//
// NewService publishes to the topic configured in config.toml and degrades to
// a no-op when no topic is set. Callers only depend on the Service interface;
// per-event toggles in the [notifications] section decide which events are
// actually sent.
package notifications
