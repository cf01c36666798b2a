// Package workflow orchestrates the training pipeline over the run queue.
//
// The Manager polls SQLite for the oldest actionable run, transitions it to
// the stage's processing status, executes the stage handler with a heartbeat
// goroutine, and persists the resulting status. Stale in-flight runs left by
// a crashed process are rolled back to their pre-stage status before each
// poll. Stages are registered via ConfigureStages in pipeline order: fetch,
// convert, upload, submit, monitor, report.
package workflow
