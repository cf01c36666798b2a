package trainjob

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sagemaker"
	"github.com/google/uuid"

	"treeline/internal/logging"
	"treeline/internal/queue"
	"treeline/internal/services"
	"treeline/internal/services/objectstore"
)

// maxJobNameLength is the service limit on training job names.
const maxJobNameLength = 63

// Submit creates a training job for the run's uploaded channels and returns
// the generated job name and ARN.
func (s *Service) Submit(ctx context.Context, run *queue.Run) (string, string, error) {
	image, err := s.resolveImage()
	if err != nil {
		return "", "", err
	}

	name := newJobName(s.cfg.Training.JobNamePrefix)
	input := &sagemaker.CreateTrainingJobInput{
		TrainingJobName: aws.String(name),
		RoleArn:         aws.String(s.cfg.Training.RoleARN),
		AlgorithmSpecification: &sagemaker.AlgorithmSpecification{
			TrainingImage:     aws.String(image),
			TrainingInputMode: aws.String(sagemaker.TrainingInputModeFile),
		},
		HyperParameters: aws.StringMap(s.cfg.Training.Hyperparameters),
		InputDataConfig: []*sagemaker.Channel{
			channel("train", run.TrainURI),
			channel("validation", run.ValidationURI),
		},
		OutputDataConfig: &sagemaker.OutputDataConfig{
			S3OutputPath: aws.String(s.cfg.OutputPath(run.ID)),
		},
		ResourceConfig: &sagemaker.ResourceConfig{
			InstanceType:   aws.String(s.cfg.Training.InstanceType),
			InstanceCount:  aws.Int64(int64(s.cfg.Training.InstanceCount)),
			VolumeSizeInGB: aws.Int64(int64(s.cfg.Training.VolumeGB)),
		},
		StoppingCondition: &sagemaker.StoppingCondition{
			MaxRuntimeInSeconds: aws.Int64(int64(s.cfg.Training.MaxRuntimeMinutes) * 60),
		},
	}

	out, err := s.api.CreateTrainingJobWithContext(ctx, input)
	if err != nil {
		return "", "", services.Wrap(services.ErrExternalService, "submit", "create job", name, err)
	}

	arn := aws.StringValue(out.TrainingJobArn)
	s.logger.Info("submitted training job",
		logging.String(logging.FieldJobName, name),
		logging.String("job_arn", arn),
		logging.String("image", image),
		logging.String("instance_type", s.cfg.Training.InstanceType),
	)
	return name, arn, nil
}

func (s *Service) resolveImage() (string, error) {
	if s.cfg.Training.Image != "" {
		return s.cfg.Training.Image, nil
	}
	return ImageURI(s.cfg.Storage.Region)
}

func channel(name, uri string) *sagemaker.Channel {
	return &sagemaker.Channel{
		ChannelName:     aws.String(name),
		ContentType:     aws.String(objectstore.ParquetContentType),
		CompressionType: aws.String(sagemaker.CompressionTypeNone),
		DataSource: &sagemaker.DataSource{
			S3DataSource: &sagemaker.S3DataSource{
				S3DataType:             aws.String(sagemaker.S3DataTypeS3prefix),
				S3Uri:                  aws.String(uri),
				S3DataDistributionType: aws.String(sagemaker.S3DataDistributionFullyReplicated),
			},
		},
	}
}

// newJobName builds a unique job name under the service's length limit. The
// timestamp keeps names sortable in the console while the suffix guards
// against collisions from runs submitted within the same second.
func newJobName(prefix string) string {
	timestamp := time.Now().UTC().Format("20060102-150405")
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]

	budget := maxJobNameLength - len(timestamp) - len(suffix) - 2
	if len(prefix) > budget {
		prefix = prefix[:budget]
	}
	prefix = strings.TrimRight(prefix, "-")
	return fmt.Sprintf("%s-%s-%s", prefix, timestamp, suffix)
}
