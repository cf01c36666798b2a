// Package queue persists training runs and their lifecycle state in SQLite.
//
// A run walks the statuses pending → fetching → fetched → converting →
// converted → uploading → uploaded → submitting → submitted → training →
// trained → reporting → completed, or lands in failed. The Store owns all SQL
// and exposes typed operations for the workflow manager and CLI; heartbeat
// columns let stale in-flight runs be reclaimed after a crash.
package queue
