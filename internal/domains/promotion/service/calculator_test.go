package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"novelstore-backend/internal/domains/promotion/model"
	"novelstore-backend/internal/domains/promotion/repository"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func TestDiscountCalculator_CouponDiscount(t *testing.T) {
	calc := NewDiscountCalculator(-1)

	tests := []struct {
		name   string
		coupon model.Coupon
		amount string
		want   string
	}{
		{
			name:   "percentage without cap",
			coupon: model.Coupon{DiscountType: model.DiscountTypePercentage, DiscountValue: d("20")},
			amount: "400000",
			want:   "80000",
		},
		{
			name:   "percentage capped by max discount",
			coupon: model.Coupon{DiscountType: model.DiscountTypePercentage, DiscountValue: d("50"), MaxDiscountAmount: dp("30")},
			amount: "100",
			want:   "30",
		},
		{
			name:   "percentage below cap",
			coupon: model.Coupon{DiscountType: model.DiscountTypePercentage, DiscountValue: d("10"), MaxDiscountAmount: dp("30")},
			amount: "100",
			want:   "10",
		},
		{
			name:   "fixed below amount",
			coupon: model.Coupon{DiscountType: model.DiscountTypeFixedAmount, DiscountValue: d("5")},
			amount: "60",
			want:   "5",
		},
		{
			name:   "fixed clamped to amount",
			coupon: model.Coupon{DiscountType: model.DiscountTypeFixedAmount, DiscountValue: d("100")},
			amount: "50",
			want:   "50",
		},
		{
			name:   "fractional percentage stays unrounded",
			coupon: model.Coupon{DiscountType: model.DiscountTypePercentage, DiscountValue: d("12.5")},
			amount: "19.99",
			want:   "2.49875",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.CouponDiscount(&tt.coupon, d(tt.amount))
			assert.True(t, d(tt.want).Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestDiscountCalculator_CapsHoldForAnyAmount(t *testing.T) {
	calc := NewDiscountCalculator(-1)
	percent := &model.Coupon{DiscountType: model.DiscountTypePercentage, DiscountValue: d("35"), MaxDiscountAmount: dp("20")}
	fixed := &model.Coupon{DiscountType: model.DiscountTypeFixedAmount, DiscountValue: d("15")}

	for _, amount := range []string{"0", "0.01", "14.99", "15", "57.14", "1000", "99999999.99"} {
		a := d(amount)
		assert.True(t, calc.CouponDiscount(percent, a).LessThanOrEqual(d("20")), "percentage cap at %s", amount)
		assert.True(t, calc.CouponDiscount(fixed, a).LessThanOrEqual(a), "fixed clamp at %s", amount)
		assert.False(t, a.Sub(calc.CouponDiscount(fixed, a)).IsNegative(), "negative final at %s", amount)
	}
}

func TestDiscountCalculator_Rounding(t *testing.T) {
	calc := NewDiscountCalculator(2)

	got := calc.CouponDiscount(&model.Coupon{DiscountType: model.DiscountTypePercentage, DiscountValue: d("12.5")}, d("19.99"))
	assert.Equal(t, "2.5", got.String())

	// Làm tròn không được đẩy discount vượt cap
	capped := calc.CalculateWithBreakdown(model.DiscountTypePercentage, d("50"), dp("3.333"), d("100"))
	assert.True(t, capped.FinalDiscount.LessThanOrEqual(d("3.333")))
	assert.True(t, capped.Capped)
	assert.Equal(t, "max_discount_amount", capped.CapReason)
}

func TestDiscountCalculator_Breakdown(t *testing.T) {
	calc := NewDiscountCalculator(-1)

	b := calc.CalculateWithBreakdown(model.DiscountTypeFixedAmount, d("100"), nil, d("50"))
	assert.True(t, d("100").Equal(b.RawDiscount))
	assert.True(t, d("50").Equal(b.FinalDiscount))
	assert.True(t, b.Capped)
	assert.Equal(t, "exceeds_subtotal", b.CapReason)

	unknown := calc.CalculateWithBreakdown(model.DiscountType("bogus"), d("10"), nil, d("50"))
	assert.True(t, unknown.FinalDiscount.IsZero())
}

func TestEngine_CouponBreakdown(t *testing.T) {
	engine := NewEngine(NewDiscountCalculator(2), repository.NewMemoryPurchaseHistory())
	coupon := &model.Coupon{DiscountType: model.DiscountTypePercentage, DiscountValue: d("10"), MaxDiscountAmount: dp("25")}

	b := engine.CouponBreakdown(coupon, d("400"))
	assert.True(t, d("40").Equal(b.RawDiscount))
	assert.True(t, d("25").Equal(b.FinalDiscount))
	assert.True(t, b.Capped)
	assert.Equal(t, "max_discount_amount", b.CapReason)

	b = engine.CouponBreakdown(coupon, d("100"))
	assert.False(t, b.Capped)
	assert.True(t, b.FinalDiscount.Equal(NewDiscountCalculator(2).CouponDiscount(coupon, d("100"))))
}

func TestDiscountCalculator_OfferIgnoresCap(t *testing.T) {
	calc := NewDiscountCalculator(-1)
	offer := &model.SpecialOffer{DiscountType: model.DiscountTypePercentage, DiscountValue: d("50")}

	assert.True(t, d("500").Equal(calc.OfferDiscount(offer, d("1000"))))
}
