package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"custody/internal/config"
	"custody/internal/jobs"
	"custody/internal/logging"
	"custody/internal/services"
	"custody/internal/stage"
)

// Manager coordinates queue processing using registered stage handlers.
type Manager struct {
	cfg          *config.Config
	store        *jobs.Store
	logger       *slog.Logger
	pollInterval time.Duration
	heartbeat    *HeartbeatMonitor

	handlers map[jobs.Kind]stage.Handler

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewManager constructs a workflow manager. Handlers are registered
// separately before Start.
func NewManager(cfg *config.Config, store *jobs.Store, logger *slog.Logger) *Manager {
	return &Manager{
		cfg:          cfg,
		store:        store,
		logger:       logging.NewComponentLogger(logger, "workflow"),
		pollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		heartbeat: NewHeartbeatMonitor(
			store,
			logger,
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
		handlers: make(map[jobs.Kind]stage.Handler),
	}
}

// Register binds a handler to a job kind. Not safe to call after Start.
func (m *Manager) Register(kind jobs.Kind, handler stage.Handler) {
	m.handlers[kind] = handler
}

// Health reports the readiness of every registered handler.
func (m *Manager) Health(ctx context.Context) []stage.Health {
	reports := make([]stage.Health, 0, len(m.handlers))
	for _, handler := range m.handlers {
		reports = append(reports, handler.HealthCheck(ctx))
	}
	return reports
}

// Start begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("workflow already running")
	}
	if len(m.handlers) == 0 {
		return errors.New("no stage handlers registered")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true

	m.wg.Add(2)
	go func() {
		defer m.wg.Done()
		m.heartbeat.Run(runCtx)
	}()
	go func() {
		defer m.wg.Done()
		m.runLoop(runCtx)
	}()
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

func (m *Manager) runLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		m.heartbeat.ReclaimStale(ctx)

		job, err := m.store.Claim(ctx)
		if err != nil {
			m.logger.Warn("claim failed", logging.Error(err))
			m.sleep(ctx)
			continue
		}
		if job == nil {
			m.sleep(ctx)
			continue
		}

		if err := m.processJob(ctx, job); err != nil && errors.Is(err, context.Canceled) {
			return
		}
	}
}

// RunOnce drains the queue synchronously, processing jobs until none remain.
// Used by the one-shot CLI path.
func (m *Manager) RunOnce(ctx context.Context) (int, error) {
	processed := 0
	for {
		job, err := m.store.Claim(ctx)
		if err != nil {
			return processed, err
		}
		if job == nil {
			return processed, nil
		}
		if err := m.processJob(ctx, job); err != nil && errors.Is(err, context.Canceled) {
			return processed, err
		}
		processed++
	}
}

func (m *Manager) processJob(ctx context.Context, job *jobs.Job) error {
	handler, ok := m.handlers[job.Kind]
	if !ok {
		job.SetFailed(fmt.Sprintf("no handler for kind %q", job.Kind))
		job.Status = jobs.StatusReview
		return m.store.Update(ctx, job)
	}

	jobCtx := services.WithJobID(ctx, job.ID)
	if job.EvidenceID != "" {
		jobCtx = services.WithEvidenceID(jobCtx, job.EvidenceID)
	}
	logger := logging.WithContext(jobCtx, m.logger)

	m.heartbeat.Track(job.ID)
	defer m.heartbeat.Untrack(job.ID)

	logger.Info("processing job", logging.String("kind", string(job.Kind)))

	if err := handler.Prepare(jobCtx, job); err != nil {
		return m.finishFailed(jobCtx, logger, job, err)
	}
	if err := m.store.Update(jobCtx, job); err != nil {
		return err
	}
	if err := handler.Execute(jobCtx, job); err != nil {
		return m.finishFailed(jobCtx, logger, job, err)
	}

	job.Status = jobs.StatusCompleted
	job.SetProgress("done", "completed", 100)
	if err := m.store.Update(jobCtx, job); err != nil {
		return err
	}
	logger.Info("job completed", logging.String("kind", string(job.Kind)))
	return nil
}

func (m *Manager) finishFailed(ctx context.Context, logger *slog.Logger, job *jobs.Job, failure error) error {
	if errors.Is(failure, context.Canceled) {
		// Leave the job processing; the stale reclaimer returns it to
		// pending once the heartbeat ages out.
		return failure
	}
	job.SetFailed(failure.Error())
	job.Status = services.FailureStatus(failure)
	logger.Error("job failed",
		logging.String("kind", string(job.Kind)),
		logging.String("status", string(job.Status)),
		logging.Error(failure),
	)
	if err := m.store.Update(ctx, job); err != nil {
		return err
	}
	return failure
}

func (m *Manager) sleep(ctx context.Context) {
	timer := time.NewTimer(m.pollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
