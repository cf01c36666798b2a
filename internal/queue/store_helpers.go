package queue

import (
	"database/sql"
	"strings"
	"time"
)

const runColumns = "id, dataset_name, source_url, status, raw_file, train_file, validation_file, train_rows, validation_rows, train_uri, validation_uri, job_name, job_arn, secondary_status, failure_reason, billable_seconds, metrics_file, chart_file, model_artifact, error_message, progress_stage, progress_percent, progress_message, created_at, updated_at, last_heartbeat"

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		id               int64
		datasetName      sql.NullString
		sourceURL        sql.NullString
		statusStr        string
		rawFile          sql.NullString
		trainFile        sql.NullString
		validationFile   sql.NullString
		trainRows        sql.NullInt64
		validationRows   sql.NullInt64
		trainURI         sql.NullString
		validationURI    sql.NullString
		jobName          sql.NullString
		jobARN           sql.NullString
		secondaryStatus  sql.NullString
		failureReason    sql.NullString
		billableSeconds  sql.NullInt64
		metricsFile      sql.NullString
		chartFile        sql.NullString
		modelArtifact    sql.NullString
		errorMessage     sql.NullString
		progressStage    sql.NullString
		progressPercent  sql.NullFloat64
		progressMessage  sql.NullString
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
		lastHeartbeatRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&datasetName,
		&sourceURL,
		&statusStr,
		&rawFile,
		&trainFile,
		&validationFile,
		&trainRows,
		&validationRows,
		&trainURI,
		&validationURI,
		&jobName,
		&jobARN,
		&secondaryStatus,
		&failureReason,
		&billableSeconds,
		&metricsFile,
		&chartFile,
		&modelArtifact,
		&errorMessage,
		&progressStage,
		&progressPercent,
		&progressMessage,
		&createdRaw,
		&updatedRaw,
		&lastHeartbeatRaw,
	); err != nil {
		return nil, err
	}

	run := &Run{
		ID:              id,
		DatasetName:     datasetName.String,
		SourceURL:       sourceURL.String,
		Status:          Status(statusStr),
		RawFile:         rawFile.String,
		TrainFile:       trainFile.String,
		ValidationFile:  validationFile.String,
		TrainRows:       trainRows.Int64,
		ValidationRows:  validationRows.Int64,
		TrainURI:        trainURI.String,
		ValidationURI:   validationURI.String,
		JobName:         jobName.String,
		JobARN:          jobARN.String,
		SecondaryStatus: secondaryStatus.String,
		FailureReason:   failureReason.String,
		BillableSeconds: billableSeconds.Int64,
		MetricsFile:     metricsFile.String,
		ChartFile:       chartFile.String,
		ModelArtifact:   modelArtifact.String,
		ErrorMessage:    errorMessage.String,
		ProgressStage:   progressStage.String,
		ProgressPercent: progressPercent.Float64,
		ProgressMessage: progressMessage.String,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		run.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		run.UpdatedAt = updated
	}
	if lastHeartbeatRaw.Valid {
		if heartbeat, err := parseTimeString(lastHeartbeatRaw.String); err == nil {
			run.LastHeartbeat = &heartbeat
		}
	}
	return run, nil
}

func parseTimeString(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, sql.ErrNoRows
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts, nil
	}
	return time.Parse(time.RFC3339, value)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", count), ", ")
}
