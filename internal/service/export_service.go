package service

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/classroom-planner-api/internal/dto"
	"github.com/noah-isme/classroom-planner-api/internal/models"
	"github.com/noah-isme/classroom-planner-api/pkg/export"
	"github.com/noah-isme/classroom-planner-api/pkg/storage"
)

var scheduleExportHeaders = []string{"Day", "Start", "Block (min)", "Lesson", "Subject", "Planned (min)", "Fit"}

type boardProvider interface {
	Board(ctx context.Context) (*dto.ScheduleBoard, bool, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures a stored export and its signed download link.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportService renders the weekly schedule board and stores the file.
type ExportService struct {
	board   boardProvider
	storage fileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportConfig
}

// NewExportService constructs an ExportService. Nil renderers fall back to the pkg/export defaults.
func NewExportService(board boardProvider, files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter(export.WithBOM())
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{board: board, storage: files, csv: csv, pdf: pdf, signer: signer, logger: logger, cfg: cfg}
}

// Generate renders the board in the job's format and returns a signed link to the file.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("export job is nil")
	}
	board, _, err := s.board.Board(ctx)
	if err != nil {
		return nil, fmt.Errorf("load schedule board: %w", err)
	}
	dataset := scheduleDataset(board)

	var payload []byte
	switch job.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, "Weekly Schedule")
	default:
		err = fmt.Errorf("unsupported format %s", job.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("schedule_%s_%s.%s", time.Now().UTC().Format("20060102_150405"), job.ID, job.Format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	s.logger.Debug("schedule export stored", zap.String("export_id", job.ID), zap.String("path", relPath), zap.Int("bytes", len(payload)))
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          prefix + "/exports/download?token=" + url.QueryEscape(token),
		Format:       job.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (exportID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl, defaulting to the configured result TTL.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func scheduleDataset(board *dto.ScheduleBoard) export.Dataset {
	rows := make([]map[string]string, 0, len(board.Blocks))
	for _, block := range board.Blocks {
		row := map[string]string{
			"Day":         block.Day,
			"Start":       block.StartTime,
			"Block (min)": strconv.Itoa(block.Duration),
			"Lesson":      "-",
		}
		if block.Lesson != nil {
			row["Lesson"] = block.Lesson.Name
			row["Subject"] = string(block.Lesson.Subject)
			row["Planned (min)"] = strconv.Itoa(block.Lesson.Duration)
		}
		if block.Fit != nil {
			row["Fit"] = string(block.Fit.Status)
		}
		rows = append(rows, row)
	}
	return export.Dataset{Headers: scheduleExportHeaders, Rows: rows}
}
