package main

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	promotionJob "novelstore-backend/internal/domains/promotion/job"
	"novelstore-backend/internal/infrastructure/storage"
	"novelstore-backend/internal/shared"
	"novelstore-backend/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	exportCouponReport *promotionJob.ExportCouponReportHandler
}

// initializeHandlers creates all job handlers with their dependencies
func initializeHandlers(ctx context.Context, c *container.Container) (*HandlerRegistry, error) {
	reports, err := storage.NewMinIOStorage(ctx, c.Config.MinIO)
	if err != nil {
		return nil, fmt.Errorf("init report storage: %w", err)
	}

	return &HandlerRegistry{
		exportCouponReport: promotionJob.NewExportCouponReportHandler(
			c.PromotionRepo,
			reports,
			c.Config.Worker.ReportsPrefix,
			c.Config.Worker.ReportURLTTL,
		),
	}, nil
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	// Promotion tasks
	mux.HandleFunc(shared.TypeExportCouponReport, h.exportCouponReport.ProcessTask)
}
