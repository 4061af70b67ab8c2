package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"novelstore-backend/internal/domains/promotion/job"
	"novelstore-backend/internal/domains/promotion/model"
	"novelstore-backend/internal/domains/promotion/service"
	"novelstore-backend/internal/shared/response"
)

// TaskEnqueuer là phần của *asynq.Client mà handler cần
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AdminHandler xử lý các API quản trị (admin-only)
type AdminHandler struct {
	service service.ServiceInterface
	queue   TaskEnqueuer // nil = report export bị tắt
}

// NewAdminHandler tạo handler instance
func NewAdminHandler(service service.ServiceInterface, queue TaskEnqueuer) *AdminHandler {
	return &AdminHandler{
		service: service,
		queue:   queue,
	}
}

// -------------------------------------------------------------------
// COUPONS
// -------------------------------------------------------------------

// CreateCoupon tạo coupon mới
// @Router       /v1/admin/coupons [post]
func (h *AdminHandler) CreateCoupon(c *gin.Context) {
	var req model.CreateCouponRequest
	if !bindJSON(c, &req) {
		return
	}

	coupon, err := h.service.CreateCoupon(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, coupon)
}

// UpdateCoupon cập nhật coupon (partial)
// @Router       /v1/admin/coupons/:id [put]
func (h *AdminHandler) UpdateCoupon(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req model.UpdateCouponRequest
	if !bindJSON(c, &req) {
		return
	}

	coupon, err := h.service.UpdateCoupon(c.Request.Context(), id, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, coupon)
}

// GetCoupon trả về coupon kèm remaining uses và stats
// @Router       /v1/admin/coupons/:id [get]
func (h *AdminHandler) GetCoupon(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	detail, err := h.service.GetCoupon(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, detail)
}

// ListCoupons liệt kê coupon với filter status + phân trang
// @Router       /v1/admin/coupons?status=&page=&limit= [get]
func (h *AdminHandler) ListCoupons(c *gin.Context) {
	filter, ok := bindListFilter(c)
	if !ok {
		return
	}

	coupons, total, err := h.service.ListCoupons(c.Request.Context(), filter)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Paginated(c, coupons, filter.Page, filter.Limit, total)
}

// UpdateCouponStatus bật/tắt coupon
// @Router       /v1/admin/coupons/:id/status [patch]
func (h *AdminHandler) UpdateCouponStatus(c *gin.Context) {
	h.updateStatus(c, h.service.UpdateCouponStatus)
}

// DeleteCoupon xóa coupon
// @Router       /v1/admin/coupons/:id [delete]
func (h *AdminHandler) DeleteCoupon(c *gin.Context) {
	h.deleteByID(c, h.service.DeleteCoupon)
}

// GetRedemptionHistory lịch sử apply coupon
// @Router       /v1/admin/coupons/:id/redemptions?page=&limit= [get]
func (h *AdminHandler) GetRedemptionHistory(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	page := parseIntQuery(c, "page", 1)
	limit := parseIntQuery(c, "limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	history, err := h.service.GetRedemptionHistory(c.Request.Context(), id, page, limit)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Paginated(c, history, page, limit, history.Total)
}

// -------------------------------------------------------------------
// SPECIAL OFFERS
// -------------------------------------------------------------------

// @Router       /v1/admin/offers [post]
func (h *AdminHandler) CreateOffer(c *gin.Context) {
	var req model.CreateOfferRequest
	if !bindJSON(c, &req) {
		return
	}

	offer, err := h.service.CreateOffer(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, offer)
}

// @Router       /v1/admin/offers/:id [put]
func (h *AdminHandler) UpdateOffer(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req model.UpdateOfferRequest
	if !bindJSON(c, &req) {
		return
	}

	offer, err := h.service.UpdateOffer(c.Request.Context(), id, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, offer)
}

// @Router       /v1/admin/offers/:id [get]
func (h *AdminHandler) GetOffer(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	offer, err := h.service.GetOffer(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, offer)
}

// @Router       /v1/admin/offers [get]
func (h *AdminHandler) ListOffers(c *gin.Context) {
	filter, ok := bindListFilter(c)
	if !ok {
		return
	}

	offers, total, err := h.service.ListOffers(c.Request.Context(), filter)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Paginated(c, offers, filter.Page, filter.Limit, total)
}

// @Router       /v1/admin/offers/:id/status [patch]
func (h *AdminHandler) UpdateOfferStatus(c *gin.Context) {
	h.updateStatus(c, h.service.UpdateOfferStatus)
}

// @Router       /v1/admin/offers/:id [delete]
func (h *AdminHandler) DeleteOffer(c *gin.Context) {
	h.deleteByID(c, h.service.DeleteOffer)
}

// -------------------------------------------------------------------
// VOLUME DISCOUNTS
// -------------------------------------------------------------------

// @Router       /v1/admin/volume-discounts [post]
func (h *AdminHandler) CreateVolumeDiscount(c *gin.Context) {
	var req model.CreateVolumeDiscountRequest
	if !bindJSON(c, &req) {
		return
	}

	tier, err := h.service.CreateVolumeDiscount(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, tier)
}

// @Router       /v1/admin/volume-discounts/:id [put]
func (h *AdminHandler) UpdateVolumeDiscount(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req model.UpdateVolumeDiscountRequest
	if !bindJSON(c, &req) {
		return
	}

	tier, err := h.service.UpdateVolumeDiscount(c.Request.Context(), id, &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, tier)
}

// @Router       /v1/admin/volume-discounts/:id [get]
func (h *AdminHandler) GetVolumeDiscount(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	tier, err := h.service.GetVolumeDiscount(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, tier)
}

// @Router       /v1/admin/volume-discounts [get]
func (h *AdminHandler) ListVolumeDiscounts(c *gin.Context) {
	filter, ok := bindListFilter(c)
	if !ok {
		return
	}

	tiers, total, err := h.service.ListVolumeDiscounts(c.Request.Context(), filter)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Paginated(c, tiers, filter.Page, filter.Limit, total)
}

// @Router       /v1/admin/volume-discounts/:id/status [patch]
func (h *AdminHandler) UpdateVolumeDiscountStatus(c *gin.Context) {
	h.updateStatus(c, h.service.UpdateVolumeDiscountStatus)
}

// @Router       /v1/admin/volume-discounts/:id [delete]
func (h *AdminHandler) DeleteVolumeDiscount(c *gin.Context) {
	h.deleteByID(c, h.service.DeleteVolumeDiscount)
}

// -------------------------------------------------------------------
// REPORTS
// -------------------------------------------------------------------

// ExportCouponReport enqueue task build xlsx report, trả về 202 + task id
// File được upload lên MinIO bởi worker
// @Router       /v1/admin/reports/coupons [post]
func (h *AdminHandler) ExportCouponReport(c *gin.Context) {
	if h.queue == nil {
		response.ErrorResponse(c, http.StatusServiceUnavailable, string(model.ErrCodeQueueUnavailable), "Report queue is not configured")
		return
	}

	var req model.CouponReportRequest
	// Body rỗng = report toàn bộ coupons
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.ErrorWithDetails(c, http.StatusBadRequest, string(model.ErrCodeValidationFailed), "Dữ liệu request không hợp lệ", gin.H{
				"info": err.Error(),
			})
			return
		}
	}

	task, err := job.NewCouponReportTask(job.CouponReportPayload{
		CouponID:    req.CouponID,
		RequestedBy: getUserIDFromContext(c),
	})
	if err != nil {
		handleError(c, err)
		return
	}

	info, err := h.queue.EnqueueContext(c.Request.Context(), task)
	if err != nil {
		log.Error().Err(err).Msg("Failed to enqueue coupon report")
		response.ErrorResponse(c, http.StatusServiceUnavailable, string(model.ErrCodeQueueUnavailable), "Không thể tạo report, vui lòng thử lại sau")
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{
		"task_id": info.ID,
		"queue":   info.Queue,
	})
}

// -------------------------------------------------------------------
// SHARED
// -------------------------------------------------------------------

func (h *AdminHandler) updateStatus(c *gin.Context, update func(ctx context.Context, id uuid.UUID, isActive bool) error) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req model.UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := update(c.Request.Context(), id, *req.IsActive); err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"id":        id,
		"is_active": *req.IsActive,
	})
}

func (h *AdminHandler) deleteByID(c *gin.Context, remove func(ctx context.Context, id uuid.UUID) error) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := remove(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func bindListFilter(c *gin.Context) (*model.ListFilter, bool) {
	var filter model.ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, string(model.ErrCodeValidationFailed), "Query không hợp lệ", gin.H{
			"info": err.Error(),
		})
		return nil, false
	}

	if err := filter.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, string(model.ErrCodeValidationFailed), "Query không hợp lệ", err)
		return nil, false
	}
	return &filter, true
}
