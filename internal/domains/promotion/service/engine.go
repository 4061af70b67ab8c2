package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"novelstore-backend/internal/domains/promotion/model"
	"novelstore-backend/internal/domains/promotion/repository"

	"github.com/shopspring/decimal"
)

var errNoPurchaseHistory = errors.New("purchase history is not configured")

// Engine đánh giá coupon, special offer và volume tier.
// Không đọc đồng hồ hệ thống: mọi method nhận now từ caller.
type Engine struct {
	calculator *DiscountCalculator
	history    repository.PurchaseHistory
}

// NewEngine tạo engine mới
func NewEngine(calculator *DiscountCalculator, history repository.PurchaseHistory) *Engine {
	return &Engine{calculator: calculator, history: history}
}

// CouponCheck là input cho CheckCoupon
type CouponCheck struct {
	UserID         string
	NovelID        *string
	PurchaseAmount *decimal.Decimal
}

// CheckCoupon chạy các rule validate theo thứ tự:
// active/exists → validity window → usage limit → restriction.
// Trả về "" khi coupon hợp lệ. error chỉ dành cho lỗi hạ tầng.
func (e *Engine) CheckCoupon(ctx context.Context, coupon *model.Coupon, in CouponCheck, now time.Time) (model.ErrorCode, error) {
	if coupon == nil || !coupon.IsActive {
		return model.ErrCodeCouponNotFound, nil
	}

	if !coupon.IsWithinWindow(now) {
		return model.ErrCodeCouponExpired, nil
	}

	if coupon.IsUsageLimitReached() {
		return model.ErrCodeUsageLimitReached, nil
	}

	switch coupon.Restriction {
	case model.RestrictionFirstTimePurchase:
		if e.history == nil {
			return "", errNoPurchaseHistory
		}
		purchased, err := e.history.HasPurchased(ctx, in.UserID)
		if err != nil {
			return "", fmt.Errorf("lookup purchase history: %w", err)
		}
		if purchased {
			return model.ErrCodeNotFirstPurchase, nil
		}

	case model.RestrictionMinimumPurchase:
		amount := decimal.Zero
		if in.PurchaseAmount != nil {
			amount = *in.PurchaseAmount
		}
		if coupon.MinPurchaseAmount != nil && amount.LessThan(*coupon.MinPurchaseAmount) {
			return model.ErrCodeMinimumNotMet, nil
		}

	case model.RestrictionSpecificNovel:
		if in.NovelID == nil || !coupon.AllowsNovel(*in.NovelID) {
			return model.ErrCodeItemNotEligible, nil
		}
	}

	return "", nil
}

// CouponBreakdown tính discount của coupon trên amount, kèm chi tiết cap
func (e *Engine) CouponBreakdown(coupon *model.Coupon, amount decimal.Decimal) DiscountBreakdown {
	return e.calculator.CouponBreakdown(coupon, amount)
}

// BestOffer chọn offer có discount lớn nhất cho novelID.
// Hòa nhau thì giữ offer gặp trước theo thứ tự của slice offers.
func (e *Engine) BestOffer(offers []*model.SpecialOffer, novelID string, price decimal.Decimal, now time.Time) *model.OfferResult {
	result := &model.OfferResult{
		OriginalPrice: price,
		FinalPrice:    price,
	}

	var (
		best         *model.SpecialOffer
		bestDiscount decimal.Decimal
	)
	for _, offer := range offers {
		if !offer.AppliesTo(novelID, now) {
			continue
		}
		discount := e.calculator.OfferDiscount(offer, price)
		if best == nil || discount.GreaterThan(bestDiscount) {
			best = offer
			bestDiscount = discount
		}
	}

	if best == nil {
		return result
	}

	result.HasDiscount = true
	result.FinalPrice = price.Sub(bestDiscount)
	result.DiscountAmount = &bestDiscount
	result.Offer = best
	return result
}

// BestVolumeTier chọn bậc cao nhất mà quantity vẫn đạt
func (e *Engine) BestVolumeTier(tiers []*model.VolumeDiscount, quantity int, totalPrice decimal.Decimal, now time.Time) *model.VolumeResult {
	result := &model.VolumeResult{
		OriginalPrice: totalPrice,
		FinalPrice:    totalPrice,
	}

	live := make([]*model.VolumeDiscount, 0, len(tiers))
	for _, tier := range tiers {
		if tier.IsLive(now) {
			live = append(live, tier)
		}
	}

	// min_quantity giảm dần; cùng min_quantity giữ thứ tự ban đầu
	sort.SliceStable(live, func(i, j int) bool {
		return live[i].MinQuantity > live[j].MinQuantity
	})

	for _, tier := range live {
		if quantity < tier.MinQuantity {
			continue
		}
		discount := e.calculator.VolumeDiscount(tier, totalPrice)
		result.HasDiscount = true
		result.FinalPrice = totalPrice.Sub(discount)
		result.DiscountAmount = &discount
		result.Discount = tier
		return result
	}

	return result
}
