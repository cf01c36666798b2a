package trainjob_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/sagemaker"

	"treeline/internal/logging"
	"treeline/internal/queue"
	"treeline/internal/services"
	"treeline/internal/services/trainjob"
	"treeline/internal/testsupport"
)

type fakeAPI struct {
	createInput   *sagemaker.CreateTrainingJobInput
	createErr     error
	describeQueue []*sagemaker.DescribeTrainingJobOutput
	describeErr   error
	stopped       []string
}

func (f *fakeAPI) CreateTrainingJobWithContext(ctx aws.Context, input *sagemaker.CreateTrainingJobInput, opts ...request.Option) (*sagemaker.CreateTrainingJobOutput, error) {
	f.createInput = input
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &sagemaker.CreateTrainingJobOutput{
		TrainingJobArn: aws.String("arn:aws:sagemaker:us-east-1:000000000000:training-job/" + aws.StringValue(input.TrainingJobName)),
	}, nil
}

func (f *fakeAPI) DescribeTrainingJobWithContext(ctx aws.Context, input *sagemaker.DescribeTrainingJobInput, opts ...request.Option) (*sagemaker.DescribeTrainingJobOutput, error) {
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	if len(f.describeQueue) == 0 {
		return &sagemaker.DescribeTrainingJobOutput{
			TrainingJobStatus: aws.String(sagemaker.TrainingJobStatusInProgress),
		}, nil
	}
	out := f.describeQueue[0]
	if len(f.describeQueue) > 1 {
		f.describeQueue = f.describeQueue[1:]
	}
	return out, nil
}

func (f *fakeAPI) StopTrainingJobWithContext(ctx aws.Context, input *sagemaker.StopTrainingJobInput, opts ...request.Option) (*sagemaker.StopTrainingJobOutput, error) {
	f.stopped = append(f.stopped, aws.StringValue(input.TrainingJobName))
	return &sagemaker.StopTrainingJobOutput{}, nil
}

func TestSubmitBuildsJobRequest(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	api := &fakeAPI{}
	svc := trainjob.NewServiceWithAPI(cfg, api, logging.NewNop())

	run := &queue.Run{
		ID:            9,
		TrainURI:      "s3://treeline-test/run-9/train/train.parquet",
		ValidationURI: "s3://treeline-test/run-9/validation/validation.parquet",
	}
	name, arn, err := svc.Submit(context.Background(), run)
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if !strings.HasPrefix(name, cfg.Training.JobNamePrefix+"-") {
		t.Fatalf("job name %q does not carry the configured prefix", name)
	}
	if len(name) > 63 {
		t.Fatalf("job name %q exceeds the 63 character limit", name)
	}
	if arn == "" {
		t.Fatal("expected a job ARN")
	}

	input := api.createInput
	if input == nil {
		t.Fatal("expected a create call")
	}
	if got := aws.StringValue(input.RoleArn); got != cfg.Training.RoleARN {
		t.Fatalf("unexpected role ARN %q", got)
	}
	if got := aws.StringValue(input.AlgorithmSpecification.TrainingImage); !strings.Contains(got, "sagemaker-xgboost") {
		t.Fatalf("expected XGBoost image, got %q", got)
	}
	if got := aws.StringValue(input.HyperParameters["objective"]); got != "reg:squarederror" {
		t.Fatalf("unexpected objective hyperparameter %q", got)
	}
	if len(input.InputDataConfig) != 2 {
		t.Fatalf("expected two channels, got %d", len(input.InputDataConfig))
	}
	train := input.InputDataConfig[0]
	if aws.StringValue(train.ChannelName) != "train" {
		t.Fatalf("expected train channel first, got %q", aws.StringValue(train.ChannelName))
	}
	if got := aws.StringValue(train.ContentType); got != "application/x-parquet" {
		t.Fatalf("unexpected channel content type %q", got)
	}
	if got := aws.StringValue(train.DataSource.S3DataSource.S3Uri); got != run.TrainURI {
		t.Fatalf("unexpected train URI %q", got)
	}
	if got := aws.StringValue(input.OutputDataConfig.S3OutputPath); got != cfg.OutputPath(run.ID) {
		t.Fatalf("unexpected output path %q", got)
	}
	if got := aws.Int64Value(input.StoppingCondition.MaxRuntimeInSeconds); got != int64(cfg.Training.MaxRuntimeMinutes)*60 {
		t.Fatalf("unexpected max runtime %d", got)
	}
}

func TestSubmitPrefersConfiguredImage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Training.Image = "123456789012.dkr.ecr.us-east-1.amazonaws.com/custom-xgboost:latest"
	api := &fakeAPI{}
	svc := trainjob.NewServiceWithAPI(cfg, api, logging.NewNop())

	run := &queue.Run{ID: 1, TrainURI: "s3://b/t", ValidationURI: "s3://b/v"}
	if _, _, err := svc.Submit(context.Background(), run); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if got := aws.StringValue(api.createInput.AlgorithmSpecification.TrainingImage); got != cfg.Training.Image {
		t.Fatalf("expected configured image, got %q", got)
	}
}

func TestImageURIUnknownRegion(t *testing.T) {
	if _, err := trainjob.ImageURI("mars-north-1"); err == nil {
		t.Fatal("expected error for unknown region")
	}
	uri, err := trainjob.ImageURI("us-east-1")
	if err != nil {
		t.Fatalf("ImageURI failed: %v", err)
	}
	if !strings.Contains(uri, "us-east-1.amazonaws.com/sagemaker-xgboost") {
		t.Fatalf("unexpected image URI %q", uri)
	}
}

func TestDescribeMapsJobState(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	api := &fakeAPI{
		describeQueue: []*sagemaker.DescribeTrainingJobOutput{
			{
				TrainingJobStatus:     aws.String(sagemaker.TrainingJobStatusCompleted),
				SecondaryStatus:       aws.String("Completed"),
				BillableTimeInSeconds: aws.Int64(240),
				ModelArtifacts: &sagemaker.ModelArtifacts{
					S3ModelArtifacts: aws.String("s3://bucket/output/model.tar.gz"),
				},
				FinalMetricDataList: []*sagemaker.MetricData{
					{MetricName: aws.String("validation:rmse"), Value: aws.Float64(2.31)},
				},
			},
		},
	}
	svc := trainjob.NewServiceWithAPI(cfg, api, logging.NewNop())

	state, err := svc.Describe(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if !state.Terminal() || !state.Succeeded() {
		t.Fatalf("expected completed terminal state, got %#v", state)
	}
	if state.BillableSeconds != 240 || state.ModelArtifact == "" {
		t.Fatalf("unexpected state %#v", state)
	}
	if len(state.FinalMetrics) != 1 || state.FinalMetrics[0].Value != 2.31 {
		t.Fatalf("unexpected final metrics %#v", state.FinalMetrics)
	}
}

func TestMonitorPollsUntilCompletion(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	api := &fakeAPI{
		describeQueue: []*sagemaker.DescribeTrainingJobOutput{
			{
				TrainingJobStatus: aws.String(sagemaker.TrainingJobStatusInProgress),
				SecondaryStatus:   aws.String("Training"),
			},
			{
				TrainingJobStatus:     aws.String(sagemaker.TrainingJobStatusCompleted),
				SecondaryStatus:       aws.String("Completed"),
				BillableTimeInSeconds: aws.Int64(300),
				ModelArtifacts: &sagemaker.ModelArtifacts{
					S3ModelArtifacts: aws.String("s3://bucket/output/model.tar.gz"),
				},
			},
		},
	}
	svc := trainjob.NewServiceWithAPI(cfg, api, logging.NewNop())
	monitor := trainjob.NewMonitor(cfg, svc, store, logging.NewNop())

	run := testsupport.NewRun(t, store, "abalone", "https://example.com/a")
	run.JobName = "treeline-xgboost-test"

	ctx := context.Background()
	if err := monitor.Prepare(ctx, run); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if err := monitor.Execute(ctx, run); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if run.BillableSeconds != 300 || run.ModelArtifact == "" {
		t.Fatalf("expected billing and artifact recorded, got %#v", run)
	}
	if run.SecondaryStatus != "Completed" {
		t.Fatalf("expected final secondary status, got %q", run.SecondaryStatus)
	}
}

func TestMonitorSurfacesJobFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	api := &fakeAPI{
		describeQueue: []*sagemaker.DescribeTrainingJobOutput{
			{
				TrainingJobStatus: aws.String(sagemaker.TrainingJobStatusFailed),
				SecondaryStatus:   aws.String("Failed"),
				FailureReason:     aws.String("AlgorithmError: label column contains NaN"),
			},
		},
	}
	svc := trainjob.NewServiceWithAPI(cfg, api, logging.NewNop())
	monitor := trainjob.NewMonitor(cfg, svc, store, logging.NewNop())

	run := testsupport.NewRun(t, store, "abalone", "https://example.com/a")
	run.JobName = "treeline-xgboost-test"

	err := monitor.Execute(context.Background(), run)
	if err == nil {
		t.Fatal("expected failure error")
	}
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected external service error, got %v", err)
	}
	if !strings.Contains(err.Error(), "AlgorithmError") {
		t.Fatalf("expected failure reason in error, got %v", err)
	}
	if run.FailureReason == "" {
		t.Fatal("expected failure reason recorded on run")
	}
}

func TestMonitorPrepareRequiresJobName(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	svc := trainjob.NewServiceWithAPI(cfg, &fakeAPI{}, logging.NewNop())
	monitor := trainjob.NewMonitor(cfg, svc, store, logging.NewNop())

	run := &queue.Run{ID: 1}
	if err := monitor.Prepare(context.Background(), run); err == nil {
		t.Fatal("expected error for missing job name")
	}
}

func TestStopRequestsTermination(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	api := &fakeAPI{}
	svc := trainjob.NewServiceWithAPI(cfg, api, logging.NewNop())

	if err := svc.Stop(context.Background(), "job-1"); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if len(api.stopped) != 1 || api.stopped[0] != "job-1" {
		t.Fatalf("expected stop call for job-1, got %v", api.stopped)
	}
}
