// Package services holds cross-cutting helpers shared by the external-facing
// service clients: sentinel error classification and context annotation for
// run IDs, stages, and correlation identifiers.
package services
