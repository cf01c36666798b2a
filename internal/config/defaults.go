package config

const (
	defaultStagingDir   = "~/.local/share/treeline/staging"
	defaultArtifactsDir = "~/.local/share/treeline/artifacts"
	defaultLogDir       = "~/.local/share/treeline/logs"

	defaultDatasetName     = "abalone"
	defaultDatasetURL      = "https://archive.ics.uci.edu/ml/machine-learning-databases/abalone/abalone.data"
	defaultLabelColumn     = "rings"
	defaultValidationSplit = 0.2
	defaultShuffleSeed     = 42
	defaultDownloadTimeout = 300

	defaultCompression  = "snappy"
	defaultRowGroupRows = 10000

	defaultRegion            = "us-east-1"
	defaultUploadPartSizeMiB = 8
	defaultUploadConcurrency = 4

	defaultInstanceType      = "ml.m5.xlarge"
	defaultInstanceCount     = 1
	defaultVolumeGB          = 20
	defaultMaxRuntimeMinutes = 60
	defaultJobNamePrefix     = "treeline-xgboost"
	defaultMetricName        = "validation:rmse"

	defaultQueuePollInterval  = 5
	defaultErrorRetryInterval = 10
	defaultHeartbeatInterval  = 15
	defaultHeartbeatTimeout   = 120
	defaultJobPollInterval    = 30

	defaultNotifyRequestTimeout = 10

	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 60
)

func defaultColumns() []string {
	return []string{
		"sex",
		"length",
		"diameter",
		"height",
		"whole_weight",
		"shucked_weight",
		"viscera_weight",
		"shell_weight",
		"rings",
	}
}

func defaultHyperparameters() map[string]string {
	return map[string]string{
		"max_depth":        "5",
		"eta":              "0.2",
		"gamma":            "4",
		"min_child_weight": "6",
		"subsample":        "0.7",
		"objective":        "reg:squarederror",
		"num_round":        "100",
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir:   defaultStagingDir,
			ArtifactsDir: defaultArtifactsDir,
			LogDir:       defaultLogDir,
		},
		Dataset: Dataset{
			Name:            defaultDatasetName,
			SourceURL:       defaultDatasetURL,
			Columns:         defaultColumns(),
			LabelColumn:     defaultLabelColumn,
			CategoryColumns: []string{"sex"},
			ValidationSplit: defaultValidationSplit,
			ShuffleSeed:     defaultShuffleSeed,
			DownloadTimeout: defaultDownloadTimeout,
		},
		Columnar: Columnar{
			Compression:  defaultCompression,
			RowGroupRows: defaultRowGroupRows,
		},
		Storage: Storage{
			Region:            defaultRegion,
			UploadPartSizeMiB: defaultUploadPartSizeMiB,
			UploadConcurrency: defaultUploadConcurrency,
		},
		Training: Training{
			InstanceType:      defaultInstanceType,
			InstanceCount:     defaultInstanceCount,
			VolumeGB:          defaultVolumeGB,
			MaxRuntimeMinutes: defaultMaxRuntimeMinutes,
			JobNamePrefix:     defaultJobNamePrefix,
			MetricName:        defaultMetricName,
			Hyperparameters:   defaultHyperparameters(),
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			HeartbeatInterval:  defaultHeartbeatInterval,
			HeartbeatTimeout:   defaultHeartbeatTimeout,
			JobPollInterval:    defaultJobPollInterval,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			RunStarted:     true,
			JobSubmitted:   true,
			RunCompleted:   true,
			Errors:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
