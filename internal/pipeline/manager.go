package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"subburn/internal/config"
	"subburn/internal/jobs"
	"subburn/internal/logging"
	"subburn/internal/stage"
)

// StageSet bundles the concrete stage handlers the manager orchestrates.
type StageSet struct {
	Extractor   stage.Handler
	Transcriber stage.Handler
	Translator  stage.Handler
	Renderer    stage.Handler
}

type pipelineStage struct {
	name             string
	handler          stage.Handler
	processingStatus jobs.Status

	// quick reports that the stage does no client-visible work for this
	// job, so its processing status is never entered and the claim moves
	// straight to the next stage's status.
	quick func(*jobs.Job) bool
}

// phase is a run of consecutive stages between two resting statuses. A job
// claimed at the phase's start status runs every stage before coming to rest
// at the done status.
type phase struct {
	name   string
	start  jobs.Status
	done   jobs.Status
	stages []pipelineStage
}

// claimStatus picks the processing status a fresh claim moves the job to,
// skipping past stages with nothing visible to do.
func (ph phase) claimStatus(job *jobs.Job) jobs.Status {
	for _, stg := range ph.stages {
		if stg.quick == nil || !stg.quick(job) {
			return stg.processingStatus
		}
	}
	return ph.stages[len(ph.stages)-1].processingStatus
}

type loggerAware interface {
	SetLogger(*slog.Logger)
}

// Manager claims ready jobs and drives them through the stage phases.
type Manager struct {
	cfg          *config.Config
	store        *jobs.Store
	logger       *slog.Logger
	pollInterval time.Duration
	sem          *semaphore.Weighted

	heartbeat *HeartbeatMonitor

	phases       []phase
	phaseByStart map[jobs.Status]phase

	poke chan struct{}

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	active  map[int64]context.CancelFunc
	lastErr error
	lastJob *jobs.Job
}

// NewManager constructs a pipeline manager bound to the store and config.
func NewManager(cfg *config.Config, store *jobs.Store, logger *slog.Logger) *Manager {
	maxActive := cfg.Workflow.MaxActiveJobs
	if maxActive <= 0 {
		maxActive = 1
	}
	pollInterval := time.Duration(cfg.Workflow.QueuePollInterval) * time.Second
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	return &Manager{
		cfg:          cfg,
		store:        store,
		logger:       logger,
		pollInterval: pollInterval,
		sem:          semaphore.NewWeighted(int64(maxActive)),
		heartbeat: NewHeartbeatMonitor(
			store,
			logger,
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
		poke:   make(chan struct{}, 1),
		active: make(map[int64]context.CancelFunc),
	}
}

// Cancel aborts the in-flight run for the given job, if any. It reports
// whether a run was active.
func (m *Manager) Cancel(id int64) bool {
	m.mu.Lock()
	cancel, ok := m.active[id]
	m.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

func (m *Manager) registerActive(id int64, cancel context.CancelFunc) {
	m.mu.Lock()
	m.active[id] = cancel
	m.mu.Unlock()
}

func (m *Manager) deregisterActive(id int64) {
	m.mu.Lock()
	delete(m.active, id)
	m.mu.Unlock()
}

// ConfigureStages registers the concrete stage handlers the pipeline will run.
func (m *Manager) ConfigureStages(set StageSet) {
	var phases []phase

	if set.Extractor != nil && set.Transcriber != nil {
		phases = append(phases, phase{
			name:  "transcription",
			start: jobs.StatusUploaded,
			done:  jobs.StatusTranscriptionComplete,
			stages: []pipelineStage{
				{name: "extraction", handler: set.Extractor, processingStatus: jobs.StatusExtractingAudio},
				{name: "transcription", handler: set.Transcriber, processingStatus: jobs.StatusTranscribing},
			},
		})
	}
	if set.Translator != nil && set.Renderer != nil {
		phases = append(phases, phase{
			name:  "render",
			start: jobs.StatusTranscriptionComplete,
			done:  jobs.StatusCompleted,
			stages: []pipelineStage{
				{
					name:             "translation",
					handler:          set.Translator,
					processingStatus: jobs.StatusTranslating,
					quick: func(job *jobs.Job) bool {
						return !job.NeedsTranslation()
					},
				},
				{name: "render", handler: set.Renderer, processingStatus: jobs.StatusRendering},
			},
		})
	}

	byStart := make(map[jobs.Status]phase, len(phases))
	for _, p := range phases {
		byStart[p.start] = p
	}

	m.mu.Lock()
	m.phases = phases
	m.phaseByStart = byStart
	m.mu.Unlock()
}

// Start begins background processing. Jobs left in a processing status by a
// previous run are rolled back to their resting status first.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("pipeline already running")
	}
	if len(m.phases) == 0 {
		m.mu.Unlock()
		return errors.New("pipeline stages not configured")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	if reset, err := m.store.ResetStuckProcessing(ctx); err != nil {
		m.dispatchLogger().Warn("failed to reset stuck jobs", logging.Error(err))
	} else if reset > 0 {
		m.dispatchLogger().Info("rolled back interrupted jobs", logging.Int64("count", reset))
	}

	go m.runDispatcher(runCtx)
	return nil
}

// Stop terminates background processing and waits for in-flight jobs.
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

// Poke wakes the dispatcher so a newly requested job is picked up without
// waiting for the next poll.
func (m *Manager) Poke() {
	select {
	case m.poke <- struct{}{}:
	default:
	}
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastJob(job *jobs.Job) {
	m.mu.Lock()
	if job != nil {
		snapshot := *job
		m.lastJob = &snapshot
	} else {
		m.lastJob = nil
	}
	m.mu.Unlock()
}
