package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountType is how a discount value is interpreted
type DiscountType string

const (
	DiscountTypePercentage  DiscountType = "percentage"
	DiscountTypeFixedAmount DiscountType = "fixed_amount"
)

func (dt DiscountType) IsValid() bool {
	switch dt {
	case DiscountTypePercentage, DiscountTypeFixedAmount:
		return true
	}
	return false
}

// RestrictionType is the eligibility predicate attached to a coupon
type RestrictionType string

const (
	RestrictionNone              RestrictionType = "none"
	RestrictionFirstTimePurchase RestrictionType = "first_time_purchase"
	RestrictionSpecificNovel     RestrictionType = "specific_novel"
	RestrictionMinimumPurchase   RestrictionType = "minimum_purchase"
)

func (rt RestrictionType) IsValid() bool {
	switch rt {
	case RestrictionNone, RestrictionFirstTimePurchase, RestrictionSpecificNovel, RestrictionMinimumPurchase:
		return true
	}
	return false
}

// Coupon là mã giảm giá do user nhập khi thanh toán
type Coupon struct {
	ID   uuid.UUID `json:"id" db:"id"`
	Code string    `json:"code" db:"code"` // case-sensitive

	// Discount details
	DiscountType      DiscountType     `json:"discount_type" db:"discount_type"`
	DiscountValue     decimal.Decimal  `json:"discount_value" db:"discount_value"`
	Currency          *string          `json:"currency,omitempty" db:"currency"` // required for fixed_amount
	MinPurchaseAmount *decimal.Decimal `json:"min_purchase_amount,omitempty" db:"min_purchase_amount"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount,omitempty" db:"max_discount_amount"`

	// Validity period (inclusive)
	StartDate time.Time `json:"start_date" db:"start_date"`
	EndDate   time.Time `json:"end_date" db:"end_date"`

	// Usage limits
	UsageLimit   *int `json:"usage_limit,omitempty" db:"usage_limit"`
	CurrentUsage int  `json:"current_usage" db:"current_usage"`

	IsActive bool `json:"is_active" db:"is_active"`

	// Applicability rules
	Restriction       RestrictionType `json:"restriction" db:"restriction"`
	RestrictionValues []string        `json:"restriction_values,omitempty" db:"restriction_values"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsWithinWindow checks start_date <= now <= end_date
func (c *Coupon) IsWithinWindow(now time.Time) bool {
	return withinWindow(now, c.StartDate, c.EndDate)
}

// IsUsageLimitReached checks whether the usage counter is saturated
func (c *Coupon) IsUsageLimitReached() bool {
	return c.UsageLimit != nil && c.CurrentUsage >= *c.UsageLimit
}

// RemainingUses returns nil when the coupon is unlimited
func (c *Coupon) RemainingUses() *int {
	if c.UsageLimit == nil {
		return nil
	}
	remaining := *c.UsageLimit - c.CurrentUsage
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}

// AllowsNovel reports whether novelID is listed in restriction_values
func (c *Coupon) AllowsNovel(novelID string) bool {
	return containsString(c.RestrictionValues, novelID)
}

// SpecialOffer là chương trình giảm giá tự động, không cần nhập mã
type SpecialOffer struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	Name           string          `json:"name" db:"name"`
	DiscountType   DiscountType    `json:"discount_type" db:"discount_type"`
	DiscountValue  decimal.Decimal `json:"discount_value" db:"discount_value"`
	StartDate      time.Time       `json:"start_date" db:"start_date"`
	EndDate        time.Time       `json:"end_date" db:"end_date"`
	IsActive       bool            `json:"is_active" db:"is_active"`
	TargetNovelIDs []string        `json:"target_novel_ids,omitempty" db:"target_novel_ids"` // empty = all novels
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// AppliesTo checks if the offer is live at now and targets novelID
func (o *SpecialOffer) AppliesTo(novelID string, now time.Time) bool {
	if !o.IsActive || !withinWindow(now, o.StartDate, o.EndDate) {
		return false
	}
	if len(o.TargetNovelIDs) == 0 {
		return true
	}
	return containsString(o.TargetNovelIDs, novelID)
}

// VolumeDiscount là một bậc giảm giá theo số lượng mua
type VolumeDiscount struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	MinQuantity        int             `json:"min_quantity" db:"min_quantity"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage" db:"discount_percentage"`
	IsActive           bool            `json:"is_active" db:"is_active"`
	StartDate          time.Time       `json:"start_date" db:"start_date"`
	EndDate            time.Time       `json:"end_date" db:"end_date"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

// IsLive checks is_active and the validity window
func (v *VolumeDiscount) IsLive(now time.Time) bool {
	return v.IsActive && withinWindow(now, v.StartDate, v.EndDate)
}

// CouponRedemption ghi lại mỗi lần apply coupon thành công
type CouponRedemption struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	CouponID       uuid.UUID       `json:"coupon_id" db:"coupon_id"`
	Code           string          `json:"code" db:"code"`
	UserID         string          `json:"user_id" db:"user_id"`
	NovelID        *string         `json:"novel_id,omitempty" db:"novel_id"`
	PurchaseAmount decimal.Decimal `json:"purchase_amount" db:"purchase_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount" db:"discount_amount"`
	FinalAmount    decimal.Decimal `json:"final_amount" db:"final_amount"`
	RedeemedAt     time.Time       `json:"redeemed_at" db:"redeemed_at"`
}

// RedemptionStats - thống kê sử dụng coupon
type RedemptionStats struct {
	TotalRedemptions   int             `json:"total_redemptions"`
	TotalDiscountGiven decimal.Decimal `json:"total_discount_given"`
	UniqueUsers        int             `json:"unique_users"`
}

func withinWindow(now, start, end time.Time) bool {
	return !now.Before(start) && !now.After(end)
}

func containsString(values []string, v string) bool {
	for _, item := range values {
		if item == v {
			return true
		}
	}
	return false
}
