package dto

import "github.com/noah-isme/classroom-planner-api/internal/models"

// ScheduleExportRequest queues a weekly schedule export.
type ScheduleExportRequest struct {
	Format string `json:"format" validate:"required,oneof=csv pdf"`
}

// ExportJobResponse is returned after queueing an export.
type ExportJobResponse struct {
	ID     string              `json:"id"`
	Status models.ExportStatus `json:"status"`
}
