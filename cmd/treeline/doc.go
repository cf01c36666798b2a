// Package main hosts the treeline CLI entrypoint and command graph.
//
// The Cobra-based command tree enqueues training runs, drives the pipeline
// daemon, inspects the run queue and training jobs, and scaffolds
// configuration. It centralizes configuration resolution, store access, and
// structured logging setup so subcommands can focus on user experience
// instead of wiring.
package main
