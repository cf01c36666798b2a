// Package trainjob submits and tracks managed boosted-tree training jobs.
// It wraps the training service API behind a small interface so stage
// handlers and tests can run against fakes.
package trainjob
