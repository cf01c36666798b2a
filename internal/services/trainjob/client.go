package trainjob

import (
	"context"
	"log/slog"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/sagemaker"

	"treeline/internal/config"
	"treeline/internal/logging"
	"treeline/internal/services"
)

// API is the subset of the training service client the pipeline depends on.
type API interface {
	CreateTrainingJobWithContext(aws.Context, *sagemaker.CreateTrainingJobInput, ...request.Option) (*sagemaker.CreateTrainingJobOutput, error)
	DescribeTrainingJobWithContext(aws.Context, *sagemaker.DescribeTrainingJobInput, ...request.Option) (*sagemaker.DescribeTrainingJobOutput, error)
	StopTrainingJobWithContext(aws.Context, *sagemaker.StopTrainingJobInput, ...request.Option) (*sagemaker.StopTrainingJobOutput, error)
}

// Metric is a single objective metric value emitted by a finished job.
type Metric struct {
	Name  string
	Value float64
}

// JobState is a point-in-time snapshot of a training job.
type JobState struct {
	Status          string
	SecondaryStatus string
	FailureReason   string
	BillableSeconds int64
	ModelArtifact   string
	FinalMetrics    []Metric
}

// Terminal reports whether the job has stopped making progress.
func (s JobState) Terminal() bool {
	switch s.Status {
	case sagemaker.TrainingJobStatusCompleted, sagemaker.TrainingJobStatusFailed, sagemaker.TrainingJobStatusStopped:
		return true
	default:
		return false
	}
}

// Succeeded reports whether the job finished with a usable model.
func (s JobState) Succeeded() bool {
	return s.Status == sagemaker.TrainingJobStatusCompleted
}

// Service submits, describes, and stops training jobs.
type Service struct {
	cfg    *config.Config
	api    API
	logger *slog.Logger
}

// NewService constructs a Service backed by an AWS session.
func NewService(cfg *config.Config, p client.ConfigProvider, logger *slog.Logger) *Service {
	return NewServiceWithAPI(cfg, sagemaker.New(p), logger)
}

// NewServiceWithAPI constructs a Service with an injected API (used in tests).
func NewServiceWithAPI(cfg *config.Config, api API, logger *slog.Logger) *Service {
	return &Service{
		cfg:    cfg,
		api:    api,
		logger: logging.NewComponentLogger(logger, "trainjob"),
	}
}

// Describe fetches the current state of a training job.
func (s *Service) Describe(ctx context.Context, jobName string) (JobState, error) {
	out, err := s.api.DescribeTrainingJobWithContext(ctx, &sagemaker.DescribeTrainingJobInput{
		TrainingJobName: aws.String(jobName),
	})
	if err != nil {
		return JobState{}, services.Wrap(services.ErrExternalService, "monitor", "describe job", jobName, err)
	}

	state := JobState{
		Status:          aws.StringValue(out.TrainingJobStatus),
		SecondaryStatus: aws.StringValue(out.SecondaryStatus),
		FailureReason:   aws.StringValue(out.FailureReason),
		BillableSeconds: aws.Int64Value(out.BillableTimeInSeconds),
	}
	if out.ModelArtifacts != nil {
		state.ModelArtifact = aws.StringValue(out.ModelArtifacts.S3ModelArtifacts)
	}
	for _, md := range out.FinalMetricDataList {
		if md == nil || md.MetricName == nil || md.Value == nil {
			continue
		}
		state.FinalMetrics = append(state.FinalMetrics, Metric{
			Name:  aws.StringValue(md.MetricName),
			Value: aws.Float64Value(md.Value),
		})
	}
	return state, nil
}

// Stop requests termination of a running training job.
func (s *Service) Stop(ctx context.Context, jobName string) error {
	_, err := s.api.StopTrainingJobWithContext(ctx, &sagemaker.StopTrainingJobInput{
		TrainingJobName: aws.String(jobName),
	})
	if err != nil {
		return services.Wrap(services.ErrExternalService, "monitor", "stop job", jobName, err)
	}
	s.logger.Info("requested training job stop", logging.String(logging.FieldJobName, jobName))
	return nil
}
