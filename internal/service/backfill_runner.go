package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/preschool-ops-api/internal/models"
	appErrors "github.com/noah-isme/preschool-ops-api/pkg/errors"
	"github.com/noah-isme/preschool-ops-api/pkg/export"
	"github.com/noah-isme/preschool-ops-api/pkg/jobs"
)

const backfillJobType = "branch_backfill"

type backfillExecutor interface {
	Run(ctx context.Context, opts BackfillOptions) (*models.BackfillReport, error)
}

type reportStore interface {
	Save(filename string, data []byte) (string, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// BackfillRunnerConfig configures scheduled and on-demand runs.
type BackfillRunnerConfig struct {
	// Schedule is a standard five-field cron expression; empty disables scheduling.
	Schedule        string
	ReportRetention time.Duration
}

// BackfillRunStatus is what operators see about the runner.
type BackfillRunStatus struct {
	Report     *models.BackfillReport `json:"report,omitempty"`
	ReportPath string                 `json:"reportPath,omitempty"`
	Queued     int                    `json:"queued"`
	NextRun    *time.Time             `json:"nextRun,omitempty"`
	// LastError is set when the most recent run aborted before producing a
	// report; Report then still holds the previous successful run.
	LastError    string     `json:"lastError,omitempty"`
	LastFailedAt *time.Time `json:"lastFailedAt,omitempty"`
}

// BackfillRunner funnels every backfill run through a single-worker queue so
// runs never overlap, whether they come from the schedule or an operator.
type BackfillRunner struct {
	backfill backfillExecutor
	reports  reportStore
	queue    *jobs.Queue
	cron     *cron.Cron
	entry    cron.EntryID
	cfg      BackfillRunnerConfig
	logger   *zap.Logger

	mu       sync.RWMutex
	last     *models.BackfillReport
	lastPath string
	lastErr  error
	failedAt time.Time
	now      func() time.Time
}

// NewBackfillRunner constructs a runner. reports may be nil to skip report files.
func NewBackfillRunner(backfill backfillExecutor, reports reportStore, cfg BackfillRunnerConfig, logger *zap.Logger) *BackfillRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ReportRetention <= 0 {
		cfg.ReportRetention = 30 * 24 * time.Hour
	}
	r := &BackfillRunner{
		backfill: backfill,
		reports:  reports,
		cron:     cron.New(),
		cfg:      cfg,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
	r.queue = jobs.NewQueue(backfillJobType, r.handle, jobs.QueueConfig{
		Workers:    1,
		BufferSize: 1,
		MaxRetries: -1,
		Logger:     logger,
	})
	return r
}

// Start launches the worker and, when configured, the schedule.
func (r *BackfillRunner) Start(ctx context.Context) error {
	if r.cfg.Schedule != "" {
		id, err := r.cron.AddFunc(r.cfg.Schedule, func() {
			if _, err := r.Trigger(BackfillOptions{}); err != nil {
				r.logger.Warn("scheduled backfill skipped", zap.Error(err))
			}
		})
		if err != nil {
			return fmt.Errorf("parse backfill schedule %q: %w", r.cfg.Schedule, err)
		}
		r.entry = id
	}
	r.queue.Start(ctx)
	r.cron.Start()
	r.logger.Info("backfill runner started", zap.String("schedule", r.cfg.Schedule))
	return nil
}

// Stop halts the schedule and waits for an in-flight run to observe cancellation.
func (r *BackfillRunner) Stop() {
	<-r.cron.Stop().Done()
	r.queue.Stop()
}

// Trigger enqueues a run and returns its job id. A run already waiting in the
// queue makes the call fail with Conflict.
func (r *BackfillRunner) Trigger(opts BackfillOptions) (string, error) {
	job := jobs.Job{ID: uuid.NewString(), Type: backfillJobType, Payload: opts}
	if err := r.queue.TryEnqueue(job); err != nil {
		if errors.Is(err, jobs.ErrQueueFull) {
			return "", appErrors.Clone(appErrors.ErrConflict, "a backfill run is already queued")
		}
		return "", appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "backfill runner unavailable")
	}
	r.logger.Info("backfill run queued", zap.String("job_id", job.ID), zap.Bool("dry_run", opts.DryRun))
	return job.ID, nil
}

// Status returns the last completed report together with queue state.
func (r *BackfillRunner) Status() BackfillRunStatus {
	r.mu.RLock()
	status := BackfillRunStatus{Report: r.last, ReportPath: r.lastPath, Queued: r.queue.Len()}
	if r.lastErr != nil {
		failedAt := r.failedAt
		status.LastError = r.lastErr.Error()
		status.LastFailedAt = &failedAt
	}
	r.mu.RUnlock()
	if r.entry != 0 {
		if next := r.cron.Entry(r.entry).Next; !next.IsZero() {
			status.NextRun = &next
		}
	}
	return status
}

func (r *BackfillRunner) handle(ctx context.Context, job jobs.Job) error {
	opts, _ := job.Payload.(BackfillOptions)
	report, err := r.backfill.Run(ctx, opts)
	if err != nil {
		r.mu.Lock()
		r.lastErr = err
		r.failedAt = r.now()
		r.mu.Unlock()
		return err
	}
	path := r.writeReport(report)

	r.mu.Lock()
	r.last = report
	r.lastPath = path
	r.lastErr = nil
	r.failedAt = time.Time{}
	r.mu.Unlock()
	return nil
}

func (r *BackfillRunner) writeReport(report *models.BackfillReport) string {
	if r.reports == nil {
		return ""
	}
	body, err := RenderBackfillReport(report, export.FormatCSV)
	if err != nil {
		r.logger.Warn("render backfill report failed", zap.Error(err))
		return ""
	}
	name := fmt.Sprintf("backfill-%s-%s.csv", report.StartedAt.Format("20060102T150405Z"), shortRunID(report.RunID))
	path, err := r.reports.Save(name, body)
	if err != nil {
		r.logger.Warn("save backfill report failed", zap.Error(err))
		return ""
	}
	if removed, err := r.reports.CleanupOlderThan(r.cfg.ReportRetention); err != nil {
		r.logger.Warn("prune backfill reports failed", zap.Error(err))
	} else if len(removed) > 0 {
		r.logger.Info("pruned backfill reports", zap.Strings("files", removed))
	}
	return path
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
