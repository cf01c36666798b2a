package reporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"treeline/internal/services"
)

// metricNamespace is where the training service publishes per-job metrics.
const metricNamespace = "/aws/sagemaker/TrainingJobs"

// MetricsAPI is the subset of the CloudWatch client used to read job metrics.
type MetricsAPI interface {
	GetMetricDataWithContext(aws.Context, *cloudwatch.GetMetricDataInput, ...request.Option) (*cloudwatch.GetMetricDataOutput, error)
}

// MetricPoint is one observation of the tracked validation metric.
type MetricPoint struct {
	Timestamp time.Time
	Value     float64
}

// FetchJobMetric reads the time series a training job emitted for metricName
// over the given window, oldest first.
func FetchJobMetric(ctx context.Context, api MetricsAPI, jobName, metricName string, start, end time.Time) ([]MetricPoint, error) {
	out, err := api.GetMetricDataWithContext(ctx, &cloudwatch.GetMetricDataInput{
		StartTime: aws.Time(start),
		EndTime:   aws.Time(end),
		ScanBy:    aws.String(cloudwatch.ScanByTimestampAscending),
		MetricDataQueries: []*cloudwatch.MetricDataQuery{
			{
				Id: aws.String("m0"),
				MetricStat: &cloudwatch.MetricStat{
					Metric: &cloudwatch.Metric{
						Namespace:  aws.String(metricNamespace),
						MetricName: aws.String(metricName),
						Dimensions: []*cloudwatch.Dimension{
							{Name: aws.String("TrainingJobName"), Value: aws.String(jobName)},
						},
					},
					Period: aws.Int64(60),
					Stat:   aws.String("Average"),
				},
			},
		},
	})
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, "report", "get metric data", jobName, err)
	}

	var points []MetricPoint
	for _, result := range out.MetricDataResults {
		for i, ts := range result.Timestamps {
			if ts == nil || i >= len(result.Values) || result.Values[i] == nil {
				continue
			}
			points = append(points, MetricPoint{Timestamp: *ts, Value: *result.Values[i]})
		}
	}
	return points, nil
}

// Summary holds aggregate values over a metric series.
type Summary struct {
	Best  float64
	Mean  float64
	Final float64
}

// Summarize reduces the series to its best (lowest), mean, and final values.
// Loss-style metrics improve downward, so Best is the minimum.
func Summarize(points []MetricPoint) Summary {
	if len(points) == 0 {
		return Summary{}
	}
	values := make([]float64, len(points))
	for i, point := range points {
		values[i] = point.Value
	}
	return Summary{
		Best:  floats.Min(values),
		Mean:  stat.Mean(values, nil),
		Final: values[len(values)-1],
	}
}

// WriteMetricsCSV writes the metric series to path with a header row.
func WriteMetricsCSV(path, metricName string, points []MetricPoint) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create artifacts directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"timestamp", metricName}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, point := range points {
		record := []string{
			point.Timestamp.UTC().Format(time.RFC3339),
			strconv.FormatFloat(point.Value, 'g', -1, 64),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}
