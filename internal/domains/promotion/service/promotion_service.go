package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"novelstore-backend/internal/domains/promotion/model"
	"novelstore-backend/internal/domains/promotion/repository"
	"novelstore-backend/pkg/cache"
	"novelstore-backend/pkg/logger"
)

const (
	cacheKeyActiveOffers = "promotion:offers:active"
	cacheKeyActiveTiers  = "promotion:volume:active"
)

// Options cấu hình các hành vi có thể thay đổi của service
type Options struct {
	// RoundingPlaces < 0 giữ discount không làm tròn
	RoundingPlaces int
	CacheTTL       time.Duration
	// Clock mặc định là time.Now
	Clock func() time.Time
}

// promotionService xử lý business logic cho promotion
type promotionService struct {
	repo     repository.PromotionRepository
	engine   *Engine
	cache    cache.Cache // nil = không cache
	cacheTTL time.Duration
	now      func() time.Time
}

// NewPromotionService tạo service instance mới
func NewPromotionService(
	repo repository.PromotionRepository,
	history repository.PurchaseHistory,
	c cache.Cache,
	opts Options,
) ServiceInterface {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}

	return &promotionService{
		repo:     repo,
		engine:   NewEngine(NewDiscountCalculator(opts.RoundingPlaces), history),
		cache:    c,
		cacheTTL: opts.CacheTTL,
		now:      opts.Clock,
	}
}

// -------------------------------------------------------------------
// VALIDATE COUPON
// -------------------------------------------------------------------

// ValidateCoupon kiểm tra coupon mà không thay đổi current_usage
func (s *promotionService) ValidateCoupon(ctx context.Context, req *model.ValidateCouponRequest) (*model.ValidationResult, error) {
	coupon, reason, err := s.checkCoupon(ctx, req.Code, CouponCheck{
		UserID:         req.UserID,
		NovelID:        req.NovelID,
		PurchaseAmount: req.PurchaseAmount,
	})
	if err != nil {
		return nil, err
	}

	if reason != "" {
		return &model.ValidationResult{
			Valid:   false,
			Code:    reason,
			Message: model.ReasonMessage(reason),
		}, nil
	}

	return &model.ValidationResult{
		Valid:   true,
		Message: "Coupon is valid",
		Coupon:  coupon,
	}, nil
}

// -------------------------------------------------------------------
// APPLY COUPON
// -------------------------------------------------------------------

// ApplyCoupon validate, tính discount rồi redeem coupon
//
// Business Flow:
// 1. Chạy cùng các rule như ValidateCoupon, fail thì trả về reason, không mutate
// 2. Tính discount (percentage có cap, fixed không vượt purchase amount)
// 3. RedeemCoupon tăng current_usage +1 và re-check usage_limit atomically
// 4. Ghi redemption record
func (s *promotionService) ApplyCoupon(ctx context.Context, req *model.ApplyCouponRequest) (*model.ApplyResult, error) {
	if err := req.Validate(); err != nil {
		return nil, model.NewValidationError(err)
	}
	amount := *req.PurchaseAmount

	coupon, reason, err := s.checkCoupon(ctx, req.Code, CouponCheck{
		UserID:         req.UserID,
		NovelID:        req.NovelID,
		PurchaseAmount: &amount,
	})
	if err != nil {
		return nil, err
	}
	if reason != "" {
		return rejectApply(reason, amount), nil
	}

	breakdown := s.engine.CouponBreakdown(coupon, amount)
	logger.DebugFields("Coupon discount computed", map[string]interface{}{
		"code":           coupon.Code,
		"subtotal":       breakdown.Subtotal.String(),
		"raw_discount":   breakdown.RawDiscount.String(),
		"final_discount": breakdown.FinalDiscount.String(),
		"capped":         breakdown.Capped,
		"cap_reason":     breakdown.CapReason,
	})

	discount := breakdown.FinalDiscount
	final := amount.Sub(discount)

	redemption := &model.CouponRedemption{
		CouponID:       coupon.ID,
		Code:           coupon.Code,
		UserID:         req.UserID,
		NovelID:        req.NovelID,
		PurchaseAmount: amount,
		DiscountAmount: discount,
		FinalAmount:    final,
		RedeemedAt:     s.now(),
	}

	updated, err := s.repo.RedeemCoupon(ctx, redemption)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrUsageLimitReached):
			// Request khác đã dùng lượt cuối giữa lúc validate và redeem
			return rejectApply(model.ErrCodeUsageLimitReached, amount), nil
		case errors.Is(err, model.ErrNotFound):
			return rejectApply(model.ErrCodeCouponNotFound, amount), nil
		}
		return nil, fmt.Errorf("redeem coupon: %w", err)
	}

	logger.Info("Coupon applied", map[string]interface{}{
		"coupon_id":       updated.ID,
		"code":            updated.Code,
		"user_id":         req.UserID,
		"discount_amount": discount.String(),
		"current_usage":   updated.CurrentUsage,
	})

	return &model.ApplyResult{
		Success:        true,
		Message:        "Coupon applied",
		FinalAmount:    final,
		DiscountAmount: discount,
		Coupon:         updated,
	}, nil
}

func rejectApply(reason model.ErrorCode, amount decimal.Decimal) *model.ApplyResult {
	return &model.ApplyResult{
		Success:        false,
		Code:           reason,
		Message:        model.ReasonMessage(reason),
		FinalAmount:    amount,
		DiscountAmount: decimal.Zero,
	}
}

// checkCoupon tìm coupon active theo code rồi chạy engine rules
func (s *promotionService) checkCoupon(ctx context.Context, code string, in CouponCheck) (*model.Coupon, model.ErrorCode, error) {
	coupon, err := s.repo.FindActiveCouponByCode(ctx, code)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, "", fmt.Errorf("find coupon: %w", err)
	}

	reason, err := s.engine.CheckCoupon(ctx, coupon, in, s.now())
	if err != nil {
		return nil, "", err
	}
	if reason != "" {
		logger.Debug(fmt.Sprintf("coupon %q rejected: %s", code, reason))
		return nil, reason, nil
	}
	return coupon, "", nil
}

// -------------------------------------------------------------------
// SPECIAL OFFERS & VOLUME DISCOUNTS
// -------------------------------------------------------------------

// ApplySpecialOffer chọn offer tốt nhất cho novel với giá price
func (s *promotionService) ApplySpecialOffer(ctx context.Context, novelID string, price decimal.Decimal) (*model.OfferResult, error) {
	offers, err := s.activeOffers(ctx)
	if err != nil {
		return nil, err
	}
	return s.engine.BestOffer(offers, novelID, price, s.now()), nil
}

// ApplyVolumeDiscount chọn bậc volume discount cao nhất đạt được
func (s *promotionService) ApplyVolumeDiscount(ctx context.Context, quantity int, totalPrice decimal.Decimal) (*model.VolumeResult, error) {
	tiers, err := s.activeTiers(ctx)
	if err != nil {
		return nil, err
	}
	return s.engine.BestVolumeTier(tiers, quantity, totalPrice, s.now()), nil
}

// activeOffers đọc cache trước, miss thì query repository (thứ tự tạo được giữ nguyên)
func (s *promotionService) activeOffers(ctx context.Context) ([]*model.SpecialOffer, error) {
	var offers []*model.SpecialOffer
	if s.cacheGet(ctx, cacheKeyActiveOffers, &offers) {
		return offers, nil
	}

	offers, _, err := s.repo.ListOffers(ctx, &model.ListFilter{Status: "active"})
	if err != nil {
		return nil, fmt.Errorf("list active offers: %w", err)
	}

	s.cacheSet(ctx, cacheKeyActiveOffers, offers)
	return offers, nil
}

func (s *promotionService) activeTiers(ctx context.Context) ([]*model.VolumeDiscount, error) {
	var tiers []*model.VolumeDiscount
	if s.cacheGet(ctx, cacheKeyActiveTiers, &tiers) {
		return tiers, nil
	}

	tiers, _, err := s.repo.ListVolumeDiscounts(ctx, &model.ListFilter{Status: "active"})
	if err != nil {
		return nil, fmt.Errorf("list active volume discounts: %w", err)
	}

	s.cacheSet(ctx, cacheKeyActiveTiers, tiers)
	return tiers, nil
}

// -------------------------------------------------------------------
// CACHE HELPERS
// -------------------------------------------------------------------

// Redis là non-critical: lỗi cache chỉ log rồi fallback về repository

func (s *promotionService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	found, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		logger.Warn("Cache get failed", map[string]interface{}{"key": key, "error": err.Error()})
		return false
	}
	return found
}

func (s *promotionService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		logger.Warn("Cache set failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

func (s *promotionService) invalidate(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, key); err != nil {
		logger.Warn("Cache invalidation failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}
