package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"treeline/internal/config"
	"treeline/internal/logging"
	"treeline/internal/notifications"
	"treeline/internal/queue"
	"treeline/internal/stage"
)

// StageSet bundles the concrete workflow handlers the manager orchestrates.
type StageSet struct {
	Fetcher   stage.Handler
	Converter stage.Handler
	Uploader  stage.Handler
	Submitter stage.Handler
	Monitor   stage.Handler
	Reporter  stage.Handler
}

type pipelineStage struct {
	name             string
	handler          stage.Handler
	startStatus      queue.Status
	processingStatus queue.Status
	doneStatus       queue.Status
}

// Manager coordinates run processing using registered stage handlers.
type Manager struct {
	cfg          *config.Config
	store        *queue.Store
	logger       *slog.Logger
	notifier     notifications.Service
	pollInterval time.Duration

	heartbeat *HeartbeatMonitor

	stages       []pipelineStage
	stageByStart map[queue.Status]pipelineStage
	statusOrder  []queue.Status

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
}

// NewManager constructs a new workflow manager.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Manager {
	return NewManagerWithNotifier(cfg, store, logger, notifications.NewService(cfg))
}

// NewManagerWithNotifier constructs a workflow manager with a custom notifier (used in tests).
func NewManagerWithNotifier(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service) *Manager {
	return &Manager{
		cfg:          cfg,
		store:        store,
		logger:       logging.NewComponentLogger(logger, "workflow"),
		notifier:     notifier,
		pollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		heartbeat: NewHeartbeatMonitor(
			store,
			logger,
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
	}
}

// ConfigureStages registers the pipeline stages in execution order.
func (m *Manager) ConfigureStages(set StageSet) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stages = []pipelineStage{
		{name: "fetch", handler: set.Fetcher, startStatus: queue.StatusPending, processingStatus: queue.StatusFetching, doneStatus: queue.StatusFetched},
		{name: "convert", handler: set.Converter, startStatus: queue.StatusFetched, processingStatus: queue.StatusConverting, doneStatus: queue.StatusConverted},
		{name: "upload", handler: set.Uploader, startStatus: queue.StatusConverted, processingStatus: queue.StatusUploading, doneStatus: queue.StatusUploaded},
		{name: "submit", handler: set.Submitter, startStatus: queue.StatusUploaded, processingStatus: queue.StatusSubmitting, doneStatus: queue.StatusSubmitted},
		{name: "monitor", handler: set.Monitor, startStatus: queue.StatusSubmitted, processingStatus: queue.StatusTraining, doneStatus: queue.StatusTrained},
		{name: "report", handler: set.Reporter, startStatus: queue.StatusTrained, processingStatus: queue.StatusReporting, doneStatus: queue.StatusCompleted},
	}

	m.stageByStart = make(map[queue.Status]pipelineStage, len(m.stages))
	m.statusOrder = make([]queue.Status, 0, len(m.stages))
	for _, stg := range m.stages {
		m.stageByStart[stg.startStatus] = stg
		m.statusOrder = append(m.statusOrder, stg.startStatus)
	}
}

// StageHealth reports readiness for every configured stage.
func (m *Manager) StageHealth(ctx context.Context) []stage.Health {
	m.mu.RLock()
	stages := m.stages
	m.mu.RUnlock()

	health := make([]stage.Health, 0, len(stages))
	for _, stg := range stages {
		if stg.handler == nil {
			health = append(health, stage.Unhealthy(stg.name, "handler not configured"))
			continue
		}
		health = append(health, stg.handler.HealthCheck(ctx))
	}
	return health
}

// LastError returns the most recent stage failure observed by the manager.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

// Start begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	if len(m.statusOrder) == 0 {
		m.mu.Unlock()
		return errors.New("workflow stages not configured")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	go m.runLoop(runCtx)
	return nil
}

// Stop terminates background processing and waits for completion.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}
