package reporter_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/aws/aws-sdk-go/service/sagemaker"

	"treeline/internal/logging"
	"treeline/internal/queue"
	"treeline/internal/reporter"
	"treeline/internal/services/trainjob"
	"treeline/internal/testsupport"
)

type fakeMetricsAPI struct {
	input      *cloudwatch.GetMetricDataInput
	timestamps []time.Time
	values     []float64
	err        error
}

func (f *fakeMetricsAPI) GetMetricDataWithContext(ctx aws.Context, input *cloudwatch.GetMetricDataInput, opts ...request.Option) (*cloudwatch.GetMetricDataOutput, error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	result := &cloudwatch.MetricDataResult{Id: aws.String("m0")}
	for i := range f.timestamps {
		result.Timestamps = append(result.Timestamps, aws.Time(f.timestamps[i]))
		result.Values = append(result.Values, aws.Float64(f.values[i]))
	}
	return &cloudwatch.GetMetricDataOutput{
		MetricDataResults: []*cloudwatch.MetricDataResult{result},
	}, nil
}

type fakeJobAPI struct {
	out *sagemaker.DescribeTrainingJobOutput
}

func (f *fakeJobAPI) CreateTrainingJobWithContext(aws.Context, *sagemaker.CreateTrainingJobInput, ...request.Option) (*sagemaker.CreateTrainingJobOutput, error) {
	return &sagemaker.CreateTrainingJobOutput{}, nil
}

func (f *fakeJobAPI) DescribeTrainingJobWithContext(aws.Context, *sagemaker.DescribeTrainingJobInput, ...request.Option) (*sagemaker.DescribeTrainingJobOutput, error) {
	return f.out, nil
}

func (f *fakeJobAPI) StopTrainingJobWithContext(aws.Context, *sagemaker.StopTrainingJobInput, ...request.Option) (*sagemaker.StopTrainingJobOutput, error) {
	return &sagemaker.StopTrainingJobOutput{}, nil
}

func TestFetchJobMetricQueriesTrainingNamespace(t *testing.T) {
	now := time.Now()
	api := &fakeMetricsAPI{
		timestamps: []time.Time{now.Add(-2 * time.Minute), now.Add(-time.Minute)},
		values:     []float64{3.1, 2.4},
	}

	points, err := reporter.FetchJobMetric(context.Background(), api, "job-1", "validation:rmse", now.Add(-time.Hour), now)
	if err != nil {
		t.Fatalf("FetchJobMetric failed: %v", err)
	}
	if len(points) != 2 || points[0].Value != 3.1 {
		t.Fatalf("unexpected points %#v", points)
	}

	query := api.input.MetricDataQueries[0]
	if got := aws.StringValue(query.MetricStat.Metric.Namespace); got != "/aws/sagemaker/TrainingJobs" {
		t.Fatalf("unexpected namespace %q", got)
	}
	dimension := query.MetricStat.Metric.Dimensions[0]
	if aws.StringValue(dimension.Name) != "TrainingJobName" || aws.StringValue(dimension.Value) != "job-1" {
		t.Fatalf("unexpected dimension %v", dimension)
	}
}

func TestWriteMetricsCSV(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/metrics.csv"
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	points := []reporter.MetricPoint{
		{Timestamp: now, Value: 3.5},
		{Timestamp: now.Add(time.Minute), Value: 2.5},
	}

	if err := reporter.WriteMetricsCSV(path, "validation:rmse", points); err != nil {
		t.Fatalf("WriteMetricsCSV failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and two records, got %d lines", len(lines))
	}
	if lines[0] != "timestamp,validation:rmse" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], ",3.5") {
		t.Fatalf("unexpected first record %q", lines[1])
	}
}

func TestRenderChartWritesPNG(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/chart.png"
	now := time.Now()
	points := []reporter.MetricPoint{
		{Timestamp: now, Value: 3.5},
		{Timestamp: now.Add(time.Minute), Value: 2.9},
		{Timestamp: now.Add(2 * time.Minute), Value: 2.5},
	}

	if err := reporter.RenderChart(path, "validation:rmse", points); err != nil {
		t.Fatalf("RenderChart failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("chart not written: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("expected non-empty chart file")
	}
}

func TestReporterExecuteWritesArtifacts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	now := time.Now()
	metrics := &fakeMetricsAPI{
		timestamps: []time.Time{now.Add(-3 * time.Minute), now.Add(-2 * time.Minute), now.Add(-time.Minute)},
		values:     []float64{3.2, 2.8, 2.5},
	}
	jobs := trainjob.NewServiceWithAPI(cfg, &fakeJobAPI{}, logging.NewNop())
	rep := reporter.NewReporter(cfg, metrics, jobs, logging.NewNop())

	run := &queue.Run{ID: 3, JobName: "job-3", CreatedAt: now.Add(-time.Hour)}
	ctx := context.Background()
	if err := rep.Prepare(ctx, run); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if err := rep.Execute(ctx, run); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if run.MetricsFile == "" || run.ChartFile == "" {
		t.Fatalf("expected artifact paths on run, got %#v", run)
	}
	if _, err := os.Stat(run.MetricsFile); err != nil {
		t.Fatalf("metrics file missing: %v", err)
	}
	if _, err := os.Stat(run.ChartFile); err != nil {
		t.Fatalf("chart file missing: %v", err)
	}
}

func TestReporterFallsBackToFinalMetrics(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	metrics := &fakeMetricsAPI{}
	jobs := trainjob.NewServiceWithAPI(cfg, &fakeJobAPI{
		out: &sagemaker.DescribeTrainingJobOutput{
			TrainingJobStatus: aws.String(sagemaker.TrainingJobStatusCompleted),
			FinalMetricDataList: []*sagemaker.MetricData{
				{MetricName: aws.String("validation:rmse"), Value: aws.Float64(2.31)},
				{MetricName: aws.String("train:rmse"), Value: aws.Float64(1.88)},
			},
			ModelArtifacts: &sagemaker.ModelArtifacts{
				S3ModelArtifacts: aws.String("s3://bucket/output/model.tar.gz"),
			},
		},
	}, logging.NewNop())
	rep := reporter.NewReporter(cfg, metrics, jobs, logging.NewNop())

	run := &queue.Run{ID: 4, JobName: "job-4", CreatedAt: time.Now().Add(-time.Hour)}
	if err := rep.Execute(context.Background(), run); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	content, err := os.ReadFile(run.MetricsFile)
	if err != nil {
		t.Fatalf("read metrics csv: %v", err)
	}
	if !strings.Contains(string(content), "2.31") {
		t.Fatalf("expected fallback metric in csv, got %q", content)
	}
	if strings.Contains(string(content), "1.88") {
		t.Fatalf("expected only the tracked metric in csv, got %q", content)
	}
	if run.ModelArtifact == "" {
		t.Fatal("expected model artifact recorded from description")
	}
}

func TestReporterFailsWithoutAnyMetric(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	metrics := &fakeMetricsAPI{}
	jobs := trainjob.NewServiceWithAPI(cfg, &fakeJobAPI{
		out: &sagemaker.DescribeTrainingJobOutput{
			TrainingJobStatus: aws.String(sagemaker.TrainingJobStatusCompleted),
		},
	}, logging.NewNop())
	rep := reporter.NewReporter(cfg, metrics, jobs, logging.NewNop())

	run := &queue.Run{ID: 5, JobName: "job-5", CreatedAt: time.Now().Add(-time.Hour)}
	if err := rep.Execute(context.Background(), run); err == nil {
		t.Fatal("expected error when no metric values exist")
	}
}

func TestSummarize(t *testing.T) {
	points := []reporter.MetricPoint{
		{Value: 4.2},
		{Value: 2.1},
		{Value: 2.7},
	}
	summary := reporter.Summarize(points)
	if summary.Best != 2.1 {
		t.Fatalf("expected best 2.1, got %v", summary.Best)
	}
	if summary.Mean != 3.0 {
		t.Fatalf("expected mean 3.0, got %v", summary.Mean)
	}
	if summary.Final != 2.7 {
		t.Fatalf("expected final 2.7, got %v", summary.Final)
	}
	if got := reporter.Summarize(nil); got != (reporter.Summary{}) {
		t.Fatalf("expected zero summary for empty series, got %+v", got)
	}
}
