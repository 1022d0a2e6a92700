package service

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classroom-planner-api/internal/dto"
	"github.com/noah-isme/classroom-planner-api/internal/models"
	"github.com/noah-isme/classroom-planner-api/internal/planner"
	appErrors "github.com/noah-isme/classroom-planner-api/pkg/errors"
	"github.com/noah-isme/classroom-planner-api/pkg/jobs"
	"github.com/noah-isme/classroom-planner-api/pkg/storage"
)

type boardStub struct {
	board *dto.ScheduleBoard
	err   error
}

func (b *boardStub) Board(ctx context.Context) (*dto.ScheduleBoard, bool, error) {
	return b.board, false, b.err
}

type dispatcherStub struct {
	jobs []jobs.Job
	err  error
}

func (d *dispatcherStub) Enqueue(job jobs.Job) error {
	if d.err != nil {
		return d.err
	}
	d.jobs = append(d.jobs, job)
	return nil
}

func sampleBoard() *dto.ScheduleBoard {
	planID := "plan-1"
	fit := planner.FitResult{IsValid: true, Errors: []string{}, Warnings: []string{}, Total: 44, Status: planner.FitTight}
	return &dto.ScheduleBoard{
		Blocks: []dto.BoardBlock{
			{
				TimeBlock: models.TimeBlock{ID: "block-0-0", DayOfWeek: models.Monday, StartTime: "8:00 AM", Duration: 45, LessonPlanID: &planID},
				Day:       "Monday",
				Lesson:    &dto.BoardLesson{ID: planID, Name: "Fractions", Subject: models.SubjectMath, Duration: 44},
				Fit:       &fit,
			},
			{
				TimeBlock: models.TimeBlock{ID: "block-0-1", DayOfWeek: models.Monday, StartTime: "9:00 AM", Duration: 30},
				Day:       "Monday",
			},
		},
		Unassigned: []dto.BoardLesson{},
	}
}

func newTestExportService(t *testing.T, board boardProvider) *ExportService {
	t.Helper()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("secret", time.Hour)
	return NewExportService(board, files, signer, ExportConfig{APIPrefix: "/api/v1"}, nil, nil, nil)
}

func TestExportServiceGenerateCSV(t *testing.T) {
	svc := newTestExportService(t, &boardStub{board: sampleBoard()})

	result, err := svc.Generate(context.Background(), &models.ExportJob{ID: "job-1", Format: models.ExportFormatCSV})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.URL, "/api/v1/exports/download?token="))

	parsed, err := url.Parse(result.URL)
	require.NoError(t, err)
	exportID, relPath, _, err := svc.ParseToken(parsed.Query().Get("token"), false)
	require.NoError(t, err)
	assert.Equal(t, "job-1", exportID)
	assert.Equal(t, result.RelativePath, relPath)

	file, err := svc.Open(relPath)
	require.NoError(t, err)
	defer file.Close()
	content, err := io.ReadAll(file)
	require.NoError(t, err)
	text := string(content)
	assert.Contains(t, text, "Day,Start,Block (min),Lesson,Subject,Planned (min),Fit")
	assert.Contains(t, text, "Monday,8:00 AM,45,Fractions,math,44,tight")
	assert.Contains(t, text, "Monday,9:00 AM,30,-,,,")
}

func TestExportServiceGeneratePDF(t *testing.T) {
	svc := newTestExportService(t, &boardStub{board: sampleBoard()})

	result, err := svc.Generate(context.Background(), &models.ExportJob{ID: "job-2", Format: models.ExportFormatPDF})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(result.RelativePath, ".pdf"))
	assert.Equal(t, models.ExportFormatPDF, result.Format)
}

func TestExportServiceGeneratePropagatesBoardError(t *testing.T) {
	svc := newTestExportService(t, &boardStub{err: errors.New("db down")})

	_, err := svc.Generate(context.Background(), &models.ExportJob{ID: "job-3", Format: models.ExportFormatCSV})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestExportJobLifecycle(t *testing.T) {
	exports := newTestExportService(t, &boardStub{board: sampleBoard()})
	queue := &dispatcherStub{}
	jobSvc := NewExportJobService(queue, exports, nil, nil, nil, ExportJobConfig{})
	worker := NewExportWorker(jobSvc, exports, nil)

	created, err := jobSvc.CreateJob(context.Background(), dto.ScheduleExportRequest{Format: "csv"}, "teacher@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusQueued, created.Status)
	require.Len(t, queue.jobs, 1)

	require.NoError(t, worker.Handle(context.Background(), queue.jobs[0]))

	job, err := jobSvc.GetStatus(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExportStatusFinished, job.Status)
	require.NotNil(t, job.ResultURL)
	require.NotNil(t, job.FinishedAt)

	parsed, err := url.Parse(*job.ResultURL)
	require.NoError(t, err)
	download, err := jobSvc.ResolveDownload(context.Background(), parsed.Query().Get("token"))
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, models.ExportFormatCSV, download.Format)
	assert.True(t, strings.HasSuffix(download.Filename, ".csv"))
}

func TestExportJobCreateValidatesFormat(t *testing.T) {
	jobSvc := NewExportJobService(&dispatcherStub{}, nil, nil, nil, nil, ExportJobConfig{})

	_, err := jobSvc.CreateJob(context.Background(), dto.ScheduleExportRequest{Format: "xlsx"}, "teacher@example.com")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportJobEnqueueFailureMarksFailed(t *testing.T) {
	queue := &dispatcherStub{err: errors.New("queue full")}
	jobSvc := NewExportJobService(queue, nil, nil, nil, nil, ExportJobConfig{})

	_, err := jobSvc.CreateJob(context.Background(), dto.ScheduleExportRequest{Format: "pdf"}, "teacher@example.com")
	require.Error(t, err)

	jobSvc.store.mu.RLock()
	defer jobSvc.store.mu.RUnlock()
	require.Len(t, jobSvc.store.items, 1)
	for _, job := range jobSvc.store.items {
		assert.Equal(t, models.ExportStatusFailed, job.Status)
	}
}

func TestExportWorkerRetryAndGiveUp(t *testing.T) {
	exports := newTestExportService(t, &boardStub{err: errors.New("board unavailable")})
	queue := &dispatcherStub{}
	jobSvc := NewExportJobService(queue, exports, nil, nil, nil, ExportJobConfig{})
	worker := NewExportWorker(jobSvc, exports, nil)

	created, err := jobSvc.CreateJob(context.Background(), dto.ScheduleExportRequest{Format: "csv"}, "teacher@example.com")
	require.NoError(t, err)

	err = worker.Handle(context.Background(), queue.jobs[0])
	require.Error(t, err)
	job, _ := jobSvc.GetStatus(context.Background(), created.ID)
	assert.Equal(t, models.ExportStatusQueued, job.Status)
	require.NotNil(t, job.ErrorMessage)

	jobSvc.HandleGiveUp(queue.jobs[0], err)
	job, _ = jobSvc.GetStatus(context.Background(), created.ID)
	assert.Equal(t, models.ExportStatusFailed, job.Status)
	assert.NotNil(t, job.FinishedAt)
}

func TestExportResolveDownloadRejectsBadToken(t *testing.T) {
	exports := newTestExportService(t, &boardStub{board: sampleBoard()})
	jobSvc := NewExportJobService(&dispatcherStub{}, exports, nil, nil, nil, ExportJobConfig{})

	_, err := jobSvc.ResolveDownload(context.Background(), "not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestExportJobStoreDeleteFinishedBefore(t *testing.T) {
	store := newExportJobStore()
	old := time.Now().Add(-2 * time.Hour)
	recent := time.Now()
	store.Save(models.ExportJob{ID: "old", FinishedAt: &old})
	store.Save(models.ExportJob{ID: "recent", FinishedAt: &recent})
	store.Save(models.ExportJob{ID: "running"})

	removed := store.DeleteFinishedBefore(time.Now().Add(-time.Hour))
	assert.Equal(t, []string{"old"}, removed)
	_, ok := store.Get("recent")
	assert.True(t, ok)
	_, ok = store.Get("running")
	assert.True(t, ok)
}
