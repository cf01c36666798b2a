package awsconn

import (
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"

	"treeline/internal/config"
)

// New builds an AWS session from the storage configuration. The returned
// session is safe to share across service clients.
func New(cfg *config.Config) (*session.Session, error) {
	awsCfg := aws.NewConfig().WithRegion(cfg.Storage.Region)
	if cfg.Storage.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.Storage.Endpoint)
	}
	if cfg.Storage.ForcePathStyle {
		awsCfg = awsCfg.WithS3ForcePathStyle(true)
	}

	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            *awsCfg,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}
	return sess, nil
}
