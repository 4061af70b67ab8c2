package job

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"novelstore-backend/internal/domains/promotion/model"
	"novelstore-backend/internal/domains/promotion/repository"
	"novelstore-backend/internal/shared/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportStorage là nơi lưu file report (MinIO trong production)
type ReportStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// ExportCouponReportHandler xử lý task promotion:export_coupon_report
type ExportCouponReportHandler struct {
	repo    repository.PromotionRepository
	storage ReportStorage
	prefix  string
	urlTTL  time.Duration
	now     func() time.Time
}

func NewExportCouponReportHandler(
	repo repository.PromotionRepository,
	storage ReportStorage,
	prefix string,
	urlTTL time.Duration,
) *ExportCouponReportHandler {
	return &ExportCouponReportHandler{
		repo:    repo,
		storage: storage,
		prefix:  prefix,
		urlTTL:  urlTTL,
		now:     time.Now,
	}
}

// ProcessTask build report, upload lên storage rồi ghi presigned URL vào task result
func (h *ExportCouponReportHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload CouponReportPayload
	if err := utils.UnmarshalTask(t, &payload); err != nil {
		// Payload hỏng thì retry cũng vô ích
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	log.Info().
		Str("requested_by", payload.RequestedBy).
		Interface("coupon_id", payload.CouponID).
		Msg("[REPORT] Exporting coupon report")

	rows, err := h.collectRows(ctx, payload)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("%w: coupon %s not found", asynq.SkipRetry, payload.CouponID)
		}
		return err
	}

	generatedAt := h.now()
	f, err := BuildCouponReport(rows, generatedAt)
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}

	key := path.Join(h.prefix, fmt.Sprintf("coupon-report-%s.xlsx", generatedAt.UTC().Format("20060102-150405")))
	if _, err := h.storage.Upload(ctx, key, buf.Bytes(), xlsxContentType); err != nil {
		return fmt.Errorf("upload report: %w", err)
	}

	url, err := h.storage.PresignedURL(ctx, key, h.urlTTL)
	if err != nil {
		return fmt.Errorf("presign report: %w", err)
	}

	result := CouponReportResult{
		ObjectKey:   key,
		DownloadURL: url,
		Coupons:     len(rows),
		GeneratedAt: generatedAt,
	}
	if w := t.ResultWriter(); w != nil {
		h.writeResult(w, result)
	}

	log.Info().
		Str("object_key", key).
		Int("coupons", len(rows)).
		Msg("[REPORT] Coupon report uploaded")
	return nil
}

// writeResult lỗi ở đây không fail task vì file đã upload xong
func (h *ExportCouponReportHandler) writeResult(w io.Writer, result CouponReportResult) {
	data, err := json.Marshal(result)
	if err != nil {
		log.Warn().Err(err).Msg("[REPORT] Failed to encode task result")
		return
	}
	if _, err := w.Write(data); err != nil {
		log.Warn().Err(err).Msg("[REPORT] Failed to write task result")
	}
}

func (h *ExportCouponReportHandler) collectRows(ctx context.Context, payload CouponReportPayload) ([]CouponReportRow, error) {
	var coupons []*model.Coupon
	if payload.CouponID != nil {
		coupon, err := h.repo.FindCouponByID(ctx, *payload.CouponID)
		if err != nil {
			return nil, err
		}
		coupons = []*model.Coupon{coupon}
	} else {
		all, _, err := h.repo.ListCoupons(ctx, &model.ListFilter{Status: "all"})
		if err != nil {
			return nil, fmt.Errorf("list coupons: %w", err)
		}
		coupons = all
	}

	rows := make([]CouponReportRow, 0, len(coupons))
	for _, c := range coupons {
		stats, err := h.repo.GetRedemptionStats(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("redemption stats for %s: %w", c.Code, err)
		}
		rows = append(rows, CouponReportRow{Coupon: c, Stats: stats})
	}
	return rows, nil
}
