package job

import (
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"novelstore-backend/internal/shared"
	"novelstore-backend/internal/shared/utils"
)

// CouponReportPayload - payload của task export coupon report
// CouponID nil = report toàn bộ coupons
type CouponReportPayload struct {
	CouponID    *uuid.UUID `json:"coupon_id,omitempty"`
	RequestedBy string     `json:"requested_by,omitempty"` // user id của admin, rỗng khi chạy theo lịch
}

// CouponReportResult được ghi vào asynq result để admin tra cứu qua inspector
type CouponReportResult struct {
	ObjectKey   string    `json:"object_key"`
	DownloadURL string    `json:"download_url"`
	Coupons     int       `json:"coupons"`
	GeneratedAt time.Time `json:"generated_at"`
}

// NewCouponReportTask tạo task export report trên queue reports
func NewCouponReportTask(payload CouponReportPayload) (*asynq.Task, error) {
	return utils.MarshalTask(
		shared.TypeExportCouponReport,
		payload,
		asynq.Queue(shared.QueueReports),
		asynq.MaxRetry(3),
		asynq.Timeout(5*time.Minute),
		asynq.Retention(24*time.Hour),
	)
}
