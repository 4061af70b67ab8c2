package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"novelstore-backend/internal/domains/promotion/model"
	"novelstore-backend/internal/domains/promotion/service"
	"novelstore-backend/internal/shared/response"
)

// PublicHandler xử lý các API công khai (checkout / product page)
type PublicHandler struct {
	service service.ServiceInterface
}

// NewPublicHandler tạo handler instance
func NewPublicHandler(promotionService service.ServiceInterface) *PublicHandler {
	return &PublicHandler{
		service: promotionService,
	}
}

// ValidateCoupon kiểm tra coupon, không tăng usage
//
// Coupon bị từ chối vẫn trả 200 với valid=false và reason code,
// UI tự quyết định message hiển thị.
// @Router       /v1/coupons/:code/validate [post]
func (h *PublicHandler) ValidateCoupon(c *gin.Context) {
	req := model.ValidateCouponRequest{Code: c.Param("code")}
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.service.ValidateCoupon(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// ApplyCoupon validate + tính discount + tăng usage
// @Router       /v1/coupons/:code/apply [post]
func (h *PublicHandler) ApplyCoupon(c *gin.Context) {
	req := model.ApplyCouponRequest{Code: c.Param("code")}
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.service.ApplyCoupon(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// GetActiveOffer trả về special offer tốt nhất cho novel tại giá price
// @Router       /v1/offers/active?novel_id=&price= [get]
func (h *PublicHandler) GetActiveOffer(c *gin.Context) {
	novelID := c.Query("novel_id")
	if novelID == "" {
		response.ErrorResponse(c, http.StatusBadRequest, string(model.ErrCodeValidationFailed), "novel_id là bắt buộc")
		return
	}

	price, err := decimal.NewFromString(c.Query("price"))
	if err != nil || price.IsNegative() {
		response.ErrorResponse(c, http.StatusBadRequest, string(model.ErrCodeValidationFailed), "price phải là số >= 0")
		return
	}

	result, err := h.service.ApplySpecialOffer(c.Request.Context(), novelID, price)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// EvaluateVolumeDiscount chọn bậc giảm giá theo số lượng
// @Router       /v1/volume-discount/evaluate [post]
func (h *PublicHandler) EvaluateVolumeDiscount(c *gin.Context) {
	var req model.EvaluateVolumeRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.service.ApplyVolumeDiscount(c.Request.Context(), req.Quantity, req.TotalPrice)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}
