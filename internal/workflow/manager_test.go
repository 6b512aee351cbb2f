package workflow

import (
	"context"
	"testing"

	"custody/internal/jobs"
	"custody/internal/logging"
	"custody/internal/services"
	"custody/internal/stage"
	"custody/internal/testsupport"
)

type stubHandler struct {
	prepareErr error
	executeErr error
	executed   int
}

func (h *stubHandler) Prepare(ctx context.Context, job *jobs.Job) error {
	job.SetProgress("prepared", "", 10)
	return h.prepareErr
}

func (h *stubHandler) Execute(ctx context.Context, job *jobs.Job) error {
	h.executed++
	return h.executeErr
}

func (h *stubHandler) HealthCheck(ctx context.Context) stage.Health {
	return stage.Healthy("stub")
}

func newTestManager(t *testing.T) (*Manager, *jobs.Store) {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenQueue(t, cfg)
	return NewManager(cfg, store, logging.NewNop()), store
}

func TestRunOnceCompletesJobs(t *testing.T) {
	manager, store := newTestManager(t)
	handler := &stubHandler{}
	manager.Register(jobs.KindNormalize, handler)

	ctx := context.Background()
	job, err := store.Enqueue(ctx, jobs.KindNormalize, "ev-1", "", "")
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	processed, err := manager.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if processed != 1 || handler.executed != 1 {
		t.Fatalf("processed=%d executed=%d", processed, handler.executed)
	}

	loaded, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if loaded.Status != jobs.StatusCompleted || loaded.ProgressPercent != 100 {
		t.Fatalf("loaded = %+v", loaded)
	}
}

func TestRunOnceMarksFailedJob(t *testing.T) {
	manager, store := newTestManager(t)
	manager.Register(jobs.KindNormalize, &stubHandler{
		executeErr: services.Wrap(services.ErrExternalTool, "normalize", "ffmpeg", "exit 1", nil),
	})

	ctx := context.Background()
	job, err := store.Enqueue(ctx, jobs.KindNormalize, "ev-1", "", "")
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	if _, err := manager.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	loaded, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if loaded.Status != jobs.StatusFailed {
		t.Fatalf("status = %s, want failed", loaded.Status)
	}
	if loaded.ErrorMessage == "" {
		t.Fatal("failed job carries no error message")
	}
}

func TestRunOnceRoutesValidationToReview(t *testing.T) {
	manager, store := newTestManager(t)
	manager.Register(jobs.KindExport, &stubHandler{
		prepareErr: services.Wrap(services.ErrValidation, "export", "check request", "case reference is required", nil),
	})

	ctx := context.Background()
	job, err := store.Enqueue(ctx, jobs.KindExport, "", "2026-CR-0001", "")
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	if _, err := manager.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	loaded, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if loaded.Status != jobs.StatusReview {
		t.Fatalf("status = %s, want review", loaded.Status)
	}
}

func TestRunOnceUnknownKindGoesToReview(t *testing.T) {
	manager, store := newTestManager(t)
	manager.Register(jobs.KindNormalize, &stubHandler{})

	ctx := context.Background()
	job, err := store.Enqueue(ctx, jobs.Kind("transcode"), "ev-1", "", "")
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	if _, err := manager.RunOnce(ctx); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	loaded, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if loaded.Status != jobs.StatusReview {
		t.Fatalf("status = %s, want review", loaded.Status)
	}
}

func TestStartRequiresHandlers(t *testing.T) {
	manager, _ := newTestManager(t)
	if err := manager.Start(context.Background()); err == nil {
		manager.Stop()
		t.Fatal("Start accepted a manager with no handlers")
	}
}

func TestHealthReportsRegisteredHandlers(t *testing.T) {
	manager, _ := newTestManager(t)
	manager.Register(jobs.KindNormalize, &stubHandler{})
	manager.Register(jobs.KindExport, &stubHandler{})

	reports := manager.Health(context.Background())
	if len(reports) != 2 {
		t.Fatalf("health reports = %d, want 2", len(reports))
	}
	for _, report := range reports {
		if !report.Ready {
			t.Fatalf("handler not ready: %+v", report)
		}
	}
}
