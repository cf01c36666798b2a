// Package tabular loads the raw dataset into memory and prepares it for
// training: categorical columns are ordinal-encoded, the label column moves
// to the front, and rows are shuffled and split into channels.
package tabular
