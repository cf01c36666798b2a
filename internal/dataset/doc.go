// Package dataset downloads the source dataset into the staging area and
// verifies its integrity before the pipeline touches it.
package dataset
