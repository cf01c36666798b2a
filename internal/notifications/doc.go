// Package notifications delivers push notifications for run lifecycle events
// via ntfy. An unconfigured topic yields a noop service so callers never need
// nil checks.
package notifications
