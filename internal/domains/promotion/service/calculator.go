package service

import (
	"novelstore-backend/internal/domains/promotion/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DiscountCalculator xử lý logic tính toán discount
type DiscountCalculator struct {
	// roundingPlaces < 0: giữ nguyên kết quả, không làm tròn
	roundingPlaces int32
}

// NewDiscountCalculator tạo instance mới.
// roundingPlaces < 0 tắt làm tròn; 0 cho VND, 2 cho USD...
func NewDiscountCalculator(roundingPlaces int) *DiscountCalculator {
	return &DiscountCalculator{roundingPlaces: int32(roundingPlaces)}
}

// CouponDiscount tính số tiền giảm của coupon trên purchaseAmount
//
// Business Logic:
// 1. Percentage: discount = amount × value / 100, cap bởi max_discount_amount nếu có
// 2. Fixed: discount = value, không vượt quá amount
func (c *DiscountCalculator) CouponDiscount(coupon *model.Coupon, amount decimal.Decimal) decimal.Decimal {
	return c.CouponBreakdown(coupon, amount).FinalDiscount
}

// CouponBreakdown giống CouponDiscount nhưng giữ lại raw discount và lý do cap
func (c *DiscountCalculator) CouponBreakdown(coupon *model.Coupon, amount decimal.Decimal) DiscountBreakdown {
	return c.CalculateWithBreakdown(coupon.DiscountType, coupon.DiscountValue, coupon.MaxDiscountAmount, amount)
}

// OfferDiscount dùng cùng công thức với coupon nhưng offer không có cap
func (c *DiscountCalculator) OfferDiscount(offer *model.SpecialOffer, price decimal.Decimal) decimal.Decimal {
	return c.CalculateWithBreakdown(offer.DiscountType, offer.DiscountValue, nil, price).FinalDiscount
}

// VolumeDiscount = totalPrice × discount_percentage / 100
func (c *DiscountCalculator) VolumeDiscount(tier *model.VolumeDiscount, totalPrice decimal.Decimal) decimal.Decimal {
	return c.CalculateWithBreakdown(model.DiscountTypePercentage, tier.DiscountPercentage, nil, totalPrice).FinalDiscount
}

// CalculateWithBreakdown tính toán chi tiết từng bước; ApplyCoupon log breakdown ở debug level
func (c *DiscountCalculator) CalculateWithBreakdown(
	discountType model.DiscountType,
	value decimal.Decimal,
	maxDiscount *decimal.Decimal,
	amount decimal.Decimal,
) DiscountBreakdown {
	breakdown := DiscountBreakdown{
		Subtotal:     amount,
		DiscountType: string(discountType),
	}

	// Upper bound cho discount sau khi cap
	var limit *decimal.Decimal

	switch discountType {
	case model.DiscountTypePercentage:
		// VD: 400,000 × 20 / 100 = 80,000
		breakdown.RawDiscount = amount.Mul(value).Div(hundred)
		breakdown.FinalDiscount = breakdown.RawDiscount

		if maxDiscount != nil && breakdown.RawDiscount.GreaterThan(*maxDiscount) {
			breakdown.FinalDiscount = *maxDiscount
			breakdown.Capped = true
			breakdown.CapReason = "max_discount_amount"
		}
		limit = maxDiscount

	case model.DiscountTypeFixedAmount:
		// VD: Đơn 50k, discount 100k → chỉ giảm 50k
		breakdown.RawDiscount = value
		breakdown.FinalDiscount = value

		if value.GreaterThan(amount) {
			breakdown.FinalDiscount = amount
			breakdown.Capped = true
			breakdown.CapReason = "exceeds_subtotal"
		}
		limit = &amount

	default:
		breakdown.RawDiscount = decimal.Zero
		breakdown.FinalDiscount = decimal.Zero
		return breakdown
	}

	breakdown.FinalDiscount = c.round(breakdown.FinalDiscount, limit)
	return breakdown
}

// round làm tròn half-up, sau đó clamp lại để không vượt upper bound
func (c *DiscountCalculator) round(d decimal.Decimal, limit *decimal.Decimal) decimal.Decimal {
	if c.roundingPlaces < 0 {
		return d
	}
	rounded := d.Round(c.roundingPlaces)
	if limit != nil && rounded.GreaterThan(*limit) {
		return *limit
	}
	return rounded
}

// DiscountBreakdown chứa chi tiết tính toán (dùng cho logging/debugging)
type DiscountBreakdown struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	DiscountType  string          `json:"discount_type"`
	RawDiscount   decimal.Decimal `json:"raw_discount"`         // Trước khi cap
	FinalDiscount decimal.Decimal `json:"final_discount"`       // Sau khi cap
	Capped        bool            `json:"capped"`               // Có bị cap không
	CapReason     string          `json:"cap_reason,omitempty"` // Lý do cap
}
