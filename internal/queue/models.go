package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a training run.
type Status string

const (
	StatusPending    Status = "pending"
	StatusFetching   Status = "fetching"
	StatusFetched    Status = "fetched"
	StatusConverting Status = "converting"
	StatusConverted  Status = "converted"
	StatusUploading  Status = "uploading"
	StatusUploaded   Status = "uploaded"
	StatusSubmitting Status = "submitting"
	StatusSubmitted  Status = "submitted"
	StatusTraining   Status = "training"
	StatusTrained    Status = "trained"
	StatusReporting  Status = "reporting"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// DaemonStopReason is the error message set when runs are failed due to daemon shutdown.
const DaemonStopReason = "Daemon stopped"

var allStatuses = []Status{
	StatusPending,
	StatusFetching,
	StatusFetched,
	StatusConverting,
	StatusConverted,
	StatusUploading,
	StatusUploaded,
	StatusSubmitting,
	StatusSubmitted,
	StatusTraining,
	StatusTrained,
	StatusReporting,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusFetching:   {},
	StatusConverting: {},
	StatusUploading:  {},
	StatusSubmitting: {},
	StatusTraining:   {},
	StatusReporting:  {},
}

// processingRollbacks maps an in-flight status back to the status a stale run
// should be reset to so the stage reruns from a consistent state.
var processingRollbacks = map[Status]Status{
	StatusFetching:   StatusPending,
	StatusConverting: StatusFetched,
	StatusUploading:  StatusConverted,
	StatusSubmitting: StatusUploaded,
	StatusTraining:   StatusSubmitted,
	StatusReporting:  StatusTrained,
}

// HealthSummary describes aggregated queue counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Failed     int
	Completed  int
}

// Run represents a training experiment persisted in SQLite.
type Run struct {
	ID              int64
	DatasetName     string
	SourceURL       string
	Status          Status
	RawFile         string
	TrainFile       string
	ValidationFile  string
	TrainRows       int64
	ValidationRows  int64
	TrainURI        string
	ValidationURI   string
	JobName         string
	JobARN          string
	SecondaryStatus string
	FailureReason   string
	BillableSeconds int64
	MetricsFile     string
	ChartFile       string
	ModelArtifact   string
	ErrorMessage    string
	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	LastHeartbeat   *time.Time
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessing returns true when the status reflects an in-flight operation.
func (r Run) IsProcessing() bool {
	_, ok := processingStatuses[r.Status]
	return ok
}

// IsProcessingStatus reports whether a status reflects an in-flight operation.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// IsTerminal reports whether the run has reached a final state.
func (r Run) IsTerminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}

// RollbackStatus returns the status an interrupted processing run should be
// reset to. The second result is false for non-processing statuses.
func RollbackStatus(status Status) (Status, bool) {
	target, ok := processingRollbacks[status]
	return target, ok
}

// SetProgress updates all three progress fields together.
func (r *Run) SetProgress(stage, message string, percent float64) {
	r.ProgressStage = stage
	r.ProgressMessage = message
	r.ProgressPercent = percent
}

// SetProgressComplete sets progress to 100% with the given stage and message.
func (r *Run) SetProgressComplete(stage, message string) {
	r.SetProgress(stage, message, 100)
}

// SetFailed marks the run as failed with the given error message.
func (r *Run) SetFailed(message string) {
	r.Status = StatusFailed
	r.ErrorMessage = message
	r.ProgressPercent = 0
	r.ProgressMessage = message
	r.LastHeartbeat = nil
	r.ProgressStage = "Failed"
}
