// Package notifications pushes sync and issue events to an ntfy topic.
// When no topic is configured every notification is a silent no-op.
package notifications
