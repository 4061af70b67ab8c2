package model

import (
	"errors"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var couponCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// -------------------------------------------------------------------
// PUBLIC REQUESTS
// -------------------------------------------------------------------

// ValidateCouponRequest - body của POST /coupons/:code/validate
type ValidateCouponRequest struct {
	Code           string           `json:"-"` // from path
	UserID         string           `json:"user_id"`
	NovelID        *string          `json:"novel_id"`
	PurchaseAmount *decimal.Decimal `json:"purchase_amount"`
}

// Validate validates ValidateCouponRequest
func (r ValidateCouponRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Code, validation.Required.Error("coupon code is required")),
		validation.Field(&r.UserID, validation.Required.Error("user_id is required")),
		validation.Field(&r.PurchaseAmount, validation.By(nonNegativeDecimal)),
	)
}

// ApplyCouponRequest - body của POST /coupons/:code/apply
type ApplyCouponRequest struct {
	Code           string          `json:"-"` // from path
	UserID         string           `json:"user_id"`
	NovelID        *string          `json:"novel_id"`
	PurchaseAmount *decimal.Decimal `json:"purchase_amount"` // bắt buộc, apply làm tăng usage
}

// Validate validates ApplyCouponRequest
func (r ApplyCouponRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Code, validation.Required.Error("coupon code is required")),
		validation.Field(&r.UserID, validation.Required.Error("user_id is required")),
		validation.Field(&r.PurchaseAmount,
			validation.NotNil.Error("purchase_amount is required"),
			validation.By(nonNegativeDecimal),
		),
	)
}

// EvaluateVolumeRequest - body của POST /volume-discount/evaluate
type EvaluateVolumeRequest struct {
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// Validate validates EvaluateVolumeRequest
func (r EvaluateVolumeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Quantity, validation.Min(0).Error("quantity must be >= 0")),
		validation.Field(&r.TotalPrice, validation.By(nonNegativeDecimal)),
	)
}

// -------------------------------------------------------------------
// RESULTS
// -------------------------------------------------------------------

// ValidationResult - kết quả validate coupon
type ValidationResult struct {
	Valid   bool      `json:"valid"`
	Code    ErrorCode `json:"code,omitempty"`
	Message string    `json:"message"`
	Coupon  *Coupon   `json:"coupon,omitempty"`
}

// ApplyResult - kết quả apply coupon
type ApplyResult struct {
	Success        bool            `json:"success"`
	Code           ErrorCode       `json:"code,omitempty"`
	Message        string          `json:"message"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Coupon         *Coupon         `json:"coupon,omitempty"`
}

// OfferResult - kết quả chọn special offer tốt nhất
type OfferResult struct {
	HasDiscount    bool             `json:"has_discount"`
	OriginalPrice  decimal.Decimal  `json:"original_price"`
	FinalPrice     decimal.Decimal  `json:"final_price"`
	DiscountAmount *decimal.Decimal `json:"discount_amount,omitempty"`
	Offer          *SpecialOffer    `json:"offer,omitempty"`
}

// VolumeResult - kết quả chọn bậc volume discount
type VolumeResult struct {
	HasDiscount    bool             `json:"has_discount"`
	OriginalPrice  decimal.Decimal  `json:"original_price"`
	FinalPrice     decimal.Decimal  `json:"final_price"`
	DiscountAmount *decimal.Decimal `json:"discount_amount,omitempty"`
	Discount       *VolumeDiscount  `json:"discount,omitempty"`
}

// -------------------------------------------------------------------
// ADMIN REQUESTS - COUPON
// -------------------------------------------------------------------

// CreateCouponRequest - Request để tạo coupon mới
type CreateCouponRequest struct {
	Code              string           `json:"code"`
	DiscountType      string           `json:"discount_type"`
	DiscountValue     decimal.Decimal  `json:"discount_value"`
	Currency          *string          `json:"currency"`
	MinPurchaseAmount *decimal.Decimal `json:"min_purchase_amount"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount"`
	StartDate         string           `json:"start_date"` // RFC3339 format
	EndDate           string           `json:"end_date"`
	UsageLimit        *int             `json:"usage_limit"`
	IsActive          bool             `json:"is_active"`
	Restriction       string           `json:"restriction"`
	RestrictionValues []string         `json:"restriction_values"`
}

// Validate validates CreateCouponRequest
func (r CreateCouponRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Code,
			validation.Required.Error("code is required"),
			validation.Length(3, 50).Error("code must be 3-50 characters"),
			validation.Match(couponCodePattern).Error("code may only contain letters, digits, '_' and '-'"),
		),
		validation.Field(&r.DiscountType,
			validation.Required.Error("discount_type is required"),
			validation.In(string(DiscountTypePercentage), string(DiscountTypeFixedAmount)).
				Error("discount_type must be 'percentage' or 'fixed_amount'"),
		),
		validation.Field(&r.DiscountValue, validation.By(nonNegativeDecimal)),
		validation.Field(&r.Currency,
			validation.When(r.DiscountType == string(DiscountTypeFixedAmount),
				validation.Required.Error("currency is required for fixed_amount coupons"),
			),
		),
		validation.Field(&r.MinPurchaseAmount,
			validation.By(nonNegativeDecimal),
			validation.When(r.Restriction == string(RestrictionMinimumPurchase),
				validation.Required.Error("min_purchase_amount is required for minimum_purchase coupons"),
			),
		),
		validation.Field(&r.MaxDiscountAmount, validation.By(nonNegativeDecimal)),
		validation.Field(&r.StartDate,
			validation.Required.Error("start_date is required"),
			validation.Date(time.RFC3339).Error("start_date must be RFC3339"),
		),
		validation.Field(&r.EndDate,
			validation.Required.Error("end_date is required"),
			validation.Date(time.RFC3339).Error("end_date must be RFC3339"),
			validation.By(dateRangeRule(r.StartDate, r.EndDate)),
		),
		validation.Field(&r.UsageLimit,
			validation.When(r.UsageLimit != nil, validation.Min(0).Error("usage_limit must be >= 0")),
		),
		validation.Field(&r.Restriction,
			validation.In(string(RestrictionNone), string(RestrictionFirstTimePurchase),
				string(RestrictionSpecificNovel), string(RestrictionMinimumPurchase)).
				Error("unknown restriction"),
		),
		validation.Field(&r.RestrictionValues,
			validation.When(r.Restriction == string(RestrictionSpecificNovel),
				validation.Required.Error("restriction_values is required for specific_novel coupons"),
			),
		),
	)
}

// UpdateCouponRequest - Request để update coupon (partial)
type UpdateCouponRequest struct {
	DiscountType      *string          `json:"discount_type"`
	DiscountValue     *decimal.Decimal `json:"discount_value"`
	Currency          *string          `json:"currency"`
	MinPurchaseAmount *decimal.Decimal `json:"min_purchase_amount"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount"`
	StartDate         *string          `json:"start_date"`
	EndDate           *string          `json:"end_date"`
	UsageLimit        *int             `json:"usage_limit"`
	IsActive          *bool            `json:"is_active"`
	Restriction       *string          `json:"restriction"`
	RestrictionValues []string         `json:"restriction_values"`

	// Clear* bỏ giới hạn tương ứng (set NULL); không được gửi kèm giá trị mới
	ClearMinPurchaseAmount bool `json:"clear_min_purchase_amount"`
	ClearMaxDiscountAmount bool `json:"clear_max_discount_amount"`
	ClearUsageLimit        bool `json:"clear_usage_limit"`
}

// Validate validates field formats; cross-field rules run against the merged coupon
func (r UpdateCouponRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ClearMinPurchaseAmount,
			validation.When(r.MinPurchaseAmount != nil, validation.Empty.Error("cannot set and clear min_purchase_amount")),
		),
		validation.Field(&r.ClearMaxDiscountAmount,
			validation.When(r.MaxDiscountAmount != nil, validation.Empty.Error("cannot set and clear max_discount_amount")),
		),
		validation.Field(&r.ClearUsageLimit,
			validation.When(r.UsageLimit != nil, validation.Empty.Error("cannot set and clear usage_limit")),
		),
		validation.Field(&r.DiscountType,
			validation.When(r.DiscountType != nil,
				validation.In(string(DiscountTypePercentage), string(DiscountTypeFixedAmount)).
					Error("discount_type must be 'percentage' or 'fixed_amount'"),
			),
		),
		validation.Field(&r.DiscountValue, validation.By(nonNegativeDecimal)),
		validation.Field(&r.MinPurchaseAmount, validation.By(nonNegativeDecimal)),
		validation.Field(&r.MaxDiscountAmount, validation.By(nonNegativeDecimal)),
		validation.Field(&r.StartDate,
			validation.When(r.StartDate != nil, validation.Date(time.RFC3339).Error("start_date must be RFC3339")),
		),
		validation.Field(&r.EndDate,
			validation.When(r.EndDate != nil, validation.Date(time.RFC3339).Error("end_date must be RFC3339")),
		),
		validation.Field(&r.UsageLimit,
			validation.When(r.UsageLimit != nil, validation.Min(0).Error("usage_limit must be >= 0")),
		),
		validation.Field(&r.Restriction,
			validation.When(r.Restriction != nil,
				validation.In(string(RestrictionNone), string(RestrictionFirstTimePurchase),
					string(RestrictionSpecificNovel), string(RestrictionMinimumPurchase)).
					Error("unknown restriction"),
			),
		),
	)
}

// -------------------------------------------------------------------
// ADMIN REQUESTS - SPECIAL OFFER
// -------------------------------------------------------------------

// CreateOfferRequest - Request để tạo special offer
type CreateOfferRequest struct {
	Name           string          `json:"name"`
	DiscountType   string          `json:"discount_type"`
	DiscountValue  decimal.Decimal `json:"discount_value"`
	StartDate      string          `json:"start_date"`
	EndDate        string          `json:"end_date"`
	IsActive       bool            `json:"is_active"`
	TargetNovelIDs []string        `json:"target_novel_ids"`
}

// Validate validates CreateOfferRequest
func (r CreateOfferRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.Required.Error("name is required"),
			validation.Length(3, 200).Error("name must be 3-200 characters"),
		),
		validation.Field(&r.DiscountType,
			validation.Required.Error("discount_type is required"),
			validation.In(string(DiscountTypePercentage), string(DiscountTypeFixedAmount)).
				Error("discount_type must be 'percentage' or 'fixed_amount'"),
		),
		validation.Field(&r.DiscountValue, validation.By(nonNegativeDecimal)),
		validation.Field(&r.StartDate,
			validation.Required.Error("start_date is required"),
			validation.Date(time.RFC3339).Error("start_date must be RFC3339"),
		),
		validation.Field(&r.EndDate,
			validation.Required.Error("end_date is required"),
			validation.Date(time.RFC3339).Error("end_date must be RFC3339"),
			validation.By(dateRangeRule(r.StartDate, r.EndDate)),
		),
	)
}

// UpdateOfferRequest - partial update
type UpdateOfferRequest struct {
	Name           *string          `json:"name"`
	DiscountType   *string          `json:"discount_type"`
	DiscountValue  *decimal.Decimal `json:"discount_value"`
	StartDate      *string          `json:"start_date"`
	EndDate        *string          `json:"end_date"`
	IsActive       *bool            `json:"is_active"`
	TargetNovelIDs []string         `json:"target_novel_ids"`
}

// Validate validates UpdateOfferRequest
func (r UpdateOfferRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.When(r.Name != nil, validation.Length(3, 200).Error("name must be 3-200 characters")),
		),
		validation.Field(&r.DiscountType,
			validation.When(r.DiscountType != nil,
				validation.In(string(DiscountTypePercentage), string(DiscountTypeFixedAmount)).
					Error("discount_type must be 'percentage' or 'fixed_amount'"),
			),
		),
		validation.Field(&r.DiscountValue, validation.By(nonNegativeDecimal)),
		validation.Field(&r.StartDate,
			validation.When(r.StartDate != nil, validation.Date(time.RFC3339).Error("start_date must be RFC3339")),
		),
		validation.Field(&r.EndDate,
			validation.When(r.EndDate != nil, validation.Date(time.RFC3339).Error("end_date must be RFC3339")),
		),
	)
}

// -------------------------------------------------------------------
// ADMIN REQUESTS - VOLUME DISCOUNT
// -------------------------------------------------------------------

// CreateVolumeDiscountRequest - Request để tạo volume tier
type CreateVolumeDiscountRequest struct {
	MinQuantity        int             `json:"min_quantity"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	IsActive           bool            `json:"is_active"`
	StartDate          string          `json:"start_date"`
	EndDate            string          `json:"end_date"`
}

// Validate validates CreateVolumeDiscountRequest
func (r CreateVolumeDiscountRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.MinQuantity, validation.Min(1).Error("min_quantity must be >= 1")),
		validation.Field(&r.DiscountPercentage, validation.By(nonNegativeDecimal)),
		validation.Field(&r.StartDate,
			validation.Required.Error("start_date is required"),
			validation.Date(time.RFC3339).Error("start_date must be RFC3339"),
		),
		validation.Field(&r.EndDate,
			validation.Required.Error("end_date is required"),
			validation.Date(time.RFC3339).Error("end_date must be RFC3339"),
			validation.By(dateRangeRule(r.StartDate, r.EndDate)),
		),
	)
}

// UpdateVolumeDiscountRequest - partial update
type UpdateVolumeDiscountRequest struct {
	MinQuantity        *int             `json:"min_quantity"`
	DiscountPercentage *decimal.Decimal `json:"discount_percentage"`
	IsActive           *bool            `json:"is_active"`
	StartDate          *string          `json:"start_date"`
	EndDate            *string          `json:"end_date"`
}

// Validate validates UpdateVolumeDiscountRequest
func (r UpdateVolumeDiscountRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.MinQuantity,
			validation.When(r.MinQuantity != nil, validation.Min(1).Error("min_quantity must be >= 1")),
		),
		validation.Field(&r.DiscountPercentage, validation.By(nonNegativeDecimal)),
		validation.Field(&r.StartDate,
			validation.When(r.StartDate != nil, validation.Date(time.RFC3339).Error("start_date must be RFC3339")),
		),
		validation.Field(&r.EndDate,
			validation.When(r.EndDate != nil, validation.Date(time.RFC3339).Error("end_date must be RFC3339")),
		),
	)
}

// -------------------------------------------------------------------
// ADMIN - SHARED
// -------------------------------------------------------------------

// UpdateStatusRequest - PATCH /:id/status
type UpdateStatusRequest struct {
	IsActive *bool `json:"is_active"`
}

// Validate validates UpdateStatusRequest
func (r UpdateStatusRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.IsActive, validation.NotNil.Error("is_active is required")),
	)
}

// ListFilter - Filter cho các list API (Admin)
type ListFilter struct {
	Status string `form:"status"` // active, inactive, all
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}

// Validate normalizes paging and validates status
func (f *ListFilter) Validate() error {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Status == "" {
		f.Status = "all"
	}
	return validation.ValidateStruct(f,
		validation.Field(&f.Status, validation.In("active", "inactive", "all")),
	)
}

// Offset returns the zero-based offset of the page
func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Matches reports whether isActive passes the status filter
func (f ListFilter) Matches(isActive bool) bool {
	switch f.Status {
	case "active":
		return isActive
	case "inactive":
		return !isActive
	}
	return true
}

// CouponDetailResponse - Chi tiết coupon (Admin)
type CouponDetailResponse struct {
	*Coupon
	RemainingUses *int             `json:"remaining_uses,omitempty"`
	Stats         *RedemptionStats `json:"stats,omitempty"`
}

// RedemptionHistoryResponse - Lịch sử sử dụng coupon
type RedemptionHistoryResponse struct {
	CouponID    uuid.UUID           `json:"coupon_id"`
	Code        string              `json:"code"`
	Statistics  RedemptionStats     `json:"statistics"`
	Redemptions []*CouponRedemption `json:"redemptions"`
	Total       int                 `json:"total"`
}

// CouponReportRequest - POST /admin/reports/coupons
type CouponReportRequest struct {
	CouponID *uuid.UUID `json:"coupon_id"`
}

// -------------------------------------------------------------------
// HELPERS
// -------------------------------------------------------------------

// ParseTime parses an RFC3339 timestamp
func ParseTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339, value)
}

func nonNegativeDecimal(value interface{}) error {
	var d decimal.Decimal
	switch v := value.(type) {
	case decimal.Decimal:
		d = v
	case *decimal.Decimal:
		if v == nil {
			return nil
		}
		d = *v
	default:
		return nil
	}
	if d.IsNegative() {
		return errors.New("must be >= 0")
	}
	return nil
}

// dateRangeRule kiểm tra end_date không được trước start_date
func dateRangeRule(start, end string) validation.RuleFunc {
	return func(interface{}) error {
		startsAt, err := ParseTime(start)
		if err != nil {
			return nil // Lỗi format đã được validate ở field riêng
		}
		endsAt, err := ParseTime(end)
		if err != nil {
			return nil
		}
		if endsAt.Before(startsAt) {
			return errors.New("end_date must not be before start_date")
		}
		return nil
	}
}
