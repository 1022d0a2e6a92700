package service

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/classroom-planner-api/internal/dto"
	"github.com/noah-isme/classroom-planner-api/internal/models"
	appErrors "github.com/noah-isme/classroom-planner-api/pkg/errors"
	"github.com/noah-isme/classroom-planner-api/pkg/jobs"
	"github.com/noah-isme/classroom-planner-api/pkg/middleware/requestid"
)

const exportJobKind = "schedule_export"

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type exportGenerator interface {
	Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error)
}

type exportFiles interface {
	ParseToken(token string, allowExpired bool) (exportID, relPath string, expiresAt time.Time, err error)
	Open(relPath string) (*os.File, error)
	Delete(relPath string) error
	Cleanup(ttl time.Duration) ([]string, error)
}

// ExportJobConfig governs result retention.
type ExportJobConfig struct {
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ExportDownload is a resolved, ready-to-stream export file.
type ExportDownload struct {
	File      *os.File
	Filename  string
	Format    models.ExportFormat
	ExpiresAt time.Time
}

// ExportJobService manages the lifecycle of schedule export jobs.
type ExportJobService struct {
	store     *exportJobStore
	queue     jobDispatcher
	files     exportFiles
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExportJobConfig
}

// NewExportJobService constructs the job service. The queue may be attached later with SetQueue.
func NewExportJobService(queue jobDispatcher, files exportFiles, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg ExportJobConfig) *ExportJobService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportJobService{
		store:     newExportJobStore(),
		queue:     queue,
		files:     files,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// SetQueue attaches the dispatcher once the queue has been built around this service's worker.
func (s *ExportJobService) SetQueue(queue jobDispatcher) {
	s.queue = queue
}

// CreateJob records a queued export and hands it to the worker pool.
func (s *ExportJobService) CreateJob(ctx context.Context, req dto.ScheduleExportRequest, requestedBy string) (*dto.ExportJobResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Invalid(err, "invalid export payload")
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "exports are disabled")
	}
	job := models.ExportJob{
		ID:          uuid.NewString(),
		Format:      models.ExportFormat(req.Format),
		Status:      models.ExportStatusQueued,
		RequestedBy: requestedBy,
		CreatedAt:   time.Now().UTC(),
	}
	s.store.Save(job)
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Kind: exportJobKind}); err != nil {
		s.finish(job.ID, models.ExportStatusFailed, nil, "failed to enqueue job")
		return nil, appErrors.Internal(err, "failed to enqueue export job")
	}
	s.logger.Info("schedule export queued", requestid.Field(ctx), zap.String("export_id", job.ID), zap.String("format", string(job.Format)))
	return &dto.ExportJobResponse{ID: job.ID, Status: job.Status}, nil
}

// GetStatus returns the job record.
func (s *ExportJobService) GetStatus(ctx context.Context, id string) (*models.ExportJob, error) {
	job, ok := s.store.Get(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	return &job, nil
}

// ResolveDownload validates a signed token and opens the file it points at.
func (s *ExportJobService) ResolveDownload(ctx context.Context, token string) (*ExportDownload, error) {
	if s.files == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "exports are disabled")
	}
	exportID, relPath, expiresAt, err := s.files.ParseToken(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, ok := s.store.Get(exportID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	if job.Status != models.ExportStatusFinished {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export not ready")
	}
	file, err := s.files.Open(relPath)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to open export file")
	}
	return &ExportDownload{File: file, Filename: filepath.Base(relPath), Format: job.Format, ExpiresAt: expiresAt}, nil
}

// HandleGiveUp marks a job failed once the queue stops retrying it.
func (s *ExportJobService) HandleGiveUp(job jobs.Job, err error) {
	s.finish(job.ID, models.ExportStatusFailed, nil, err.Error())
	s.logger.Error("schedule export failed", zap.String("export_id", job.ID), zap.Int("attempts", job.Attempt), zap.Error(err))
}

// StartCleanup purges expired jobs and files until ctx is done.
func (s *ExportJobService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupExpired()
			}
		}
	}()
}

func (s *ExportJobService) cleanupExpired() {
	cutoff := time.Now().UTC().Add(-s.cfg.ResultTTL)
	removed := s.store.DeleteFinishedBefore(cutoff)
	if s.files == nil {
		return
	}
	if _, err := s.files.Cleanup(s.cfg.ResultTTL); err != nil {
		s.logger.Warn("export file cleanup failed", zap.Error(err))
	}
	if len(removed) > 0 {
		s.logger.Info("expired export jobs removed", zap.Int("count", len(removed)))
	}
}

func (s *ExportJobService) markProcessing(id string) (models.ExportJob, bool) {
	return s.store.Update(id, func(job *models.ExportJob) {
		job.Status = models.ExportStatusProcessing
	})
}

func (s *ExportJobService) markRetry(id string, message string) {
	s.store.Update(id, func(job *models.ExportJob) {
		job.Status = models.ExportStatusQueued
		job.ErrorMessage = &message
	})
}

func (s *ExportJobService) finish(id string, status models.ExportStatus, resultURL *string, message string) {
	now := time.Now().UTC()
	s.store.Update(id, func(job *models.ExportJob) {
		job.Status = status
		job.ResultURL = resultURL
		job.FinishedAt = &now
		if message != "" {
			job.ErrorMessage = &message
		} else {
			job.ErrorMessage = nil
		}
	})
	s.metrics.RecordExport(status)
}

// ExportWorker runs queued export jobs.
type ExportWorker struct {
	jobs      *ExportJobService
	generator exportGenerator
	logger    *zap.Logger
}

// NewExportWorker constructs a worker.
func NewExportWorker(jobService *ExportJobService, generator exportGenerator, logger *zap.Logger) *ExportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportWorker{jobs: jobService, generator: generator, logger: logger}
}

// Handle processes one queue job. Returning an error asks the queue to retry.
func (w *ExportWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, ok := w.jobs.markProcessing(job.ID)
	if !ok {
		w.logger.Warn("export job vanished before processing", zap.String("export_id", job.ID))
		return nil
	}
	result, err := w.generator.Generate(ctx, &record)
	if err != nil {
		w.jobs.markRetry(job.ID, err.Error())
		return err
	}
	url := result.URL
	w.jobs.finish(job.ID, models.ExportStatusFinished, &url, "")
	w.logger.Info("schedule export finished", zap.String("export_id", job.ID), zap.String("format", string(result.Format)))
	return nil
}

type exportJobStore struct {
	mu    sync.RWMutex
	items map[string]models.ExportJob
}

func newExportJobStore() *exportJobStore {
	return &exportJobStore{items: make(map[string]models.ExportJob)}
}

func (s *exportJobStore) Save(job models.ExportJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[job.ID] = job
}

func (s *exportJobStore) Get(id string) (models.ExportJob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.items[id]
	return job, ok
}

func (s *exportJobStore) Update(id string, mutate func(job *models.ExportJob)) (models.ExportJob, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.items[id]
	if !ok {
		return models.ExportJob{}, false
	}
	mutate(&job)
	s.items[id] = job
	return job, true
}

// DeleteFinishedBefore drops jobs that completed before cutoff and returns their ids, oldest first.
func (s *exportJobStore) DeleteFinishedBefore(cutoff time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed []models.ExportJob
	for id, job := range s.items {
		if job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			removed = append(removed, job)
			delete(s.items, id)
		}
	}
	sort.Slice(removed, func(i, j int) bool { return removed[i].FinishedAt.Before(*removed[j].FinishedAt) })
	ids := make([]string, 0, len(removed))
	for _, job := range removed {
		ids = append(ids, job.ID)
	}
	return ids
}
