// Package reporter collects the validation metric for a finished training
// job and renders it as a CSV file and a line chart in the artifacts
// directory.
package reporter
