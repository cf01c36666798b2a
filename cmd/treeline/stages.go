package main

import (
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go/service/cloudwatch"

	"treeline/internal/columnar"
	"treeline/internal/config"
	"treeline/internal/dataset"
	"treeline/internal/queue"
	"treeline/internal/reporter"
	"treeline/internal/services/awsconn"
	"treeline/internal/services/objectstore"
	"treeline/internal/services/trainjob"
	"treeline/internal/workflow"
)

// registerStages wires every pipeline stage onto the workflow manager. All
// cloud clients share one session.
func registerStages(mgr *workflow.Manager, cfg *config.Config, store *queue.Store, logger *slog.Logger) error {
	sess, err := awsconn.New(cfg)
	if err != nil {
		return fmt.Errorf("configure cloud session: %w", err)
	}

	uploads := objectstore.New(cfg, sess, logger)
	jobs := trainjob.NewService(cfg, sess, logger)
	metrics := cloudwatch.New(sess)

	mgr.ConfigureStages(workflow.StageSet{
		Fetcher:   dataset.NewFetcher(cfg, logger),
		Converter: columnar.NewConverter(cfg, logger),
		Uploader:  objectstore.NewStage(cfg, uploads, logger),
		Submitter: trainjob.NewSubmitter(cfg, jobs, logger),
		Monitor:   trainjob.NewMonitor(cfg, jobs, store, logger),
		Reporter:  reporter.NewReporter(cfg, metrics, jobs, logger),
	})
	return nil
}
