// Package notifications delivers pipeline events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and degrades to a no-op when no topic is set. Each event can be
// switched off in the [notifications] section; unknown events are dropped.
package notifications
