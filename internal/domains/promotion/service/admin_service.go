package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"novelstore-backend/internal/domains/promotion/model"
	"novelstore-backend/pkg/logger"
)

// -------------------------------------------------------------------
// COUPONS
// -------------------------------------------------------------------

// CreateCoupon tạo coupon mới; code phải unique (case-sensitive)
func (s *promotionService) CreateCoupon(ctx context.Context, req *model.CreateCouponRequest) (*model.Coupon, error) {
	startDate, err := model.ParseTime(req.StartDate)
	if err != nil {
		return nil, model.NewValidationError(err)
	}
	endDate, err := model.ParseTime(req.EndDate)
	if err != nil {
		return nil, model.NewValidationError(err)
	}

	restriction := model.RestrictionType(req.Restriction)
	if restriction == "" {
		restriction = model.RestrictionNone
	}

	coupon := &model.Coupon{
		Code:              req.Code,
		DiscountType:      model.DiscountType(req.DiscountType),
		DiscountValue:     req.DiscountValue,
		Currency:          req.Currency,
		MinPurchaseAmount: req.MinPurchaseAmount,
		MaxDiscountAmount: req.MaxDiscountAmount,
		StartDate:         startDate,
		EndDate:           endDate,
		UsageLimit:        req.UsageLimit,
		IsActive:          req.IsActive,
		Restriction:       restriction,
		RestrictionValues: req.RestrictionValues,
	}
	if err := coupon.Validate(); err != nil {
		return nil, model.NewValidationError(err)
	}

	if err := s.repo.CreateCoupon(ctx, coupon); err != nil {
		if errors.Is(err, model.ErrDuplicateCode) {
			return nil, model.ErrCouponCodeTaken
		}
		return nil, fmt.Errorf("create coupon: %w", err)
	}

	logger.Info("Coupon created", map[string]interface{}{
		"coupon_id": coupon.ID,
		"code":      coupon.Code,
	})
	return coupon, nil
}

// UpdateCoupon cập nhật partial; code và current_usage không đổi được
//
// Business Rules:
// - usage_limit không được nhỏ hơn current_usage
// - end_date >= start_date sau khi merge
func (s *promotionService) UpdateCoupon(ctx context.Context, id uuid.UUID, req *model.UpdateCouponRequest) (*model.Coupon, error) {
	existing, err := s.repo.FindCouponByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "find coupon")
	}

	updated := *existing
	if req.DiscountType != nil {
		updated.DiscountType = model.DiscountType(*req.DiscountType)
	}
	if req.DiscountValue != nil {
		updated.DiscountValue = *req.DiscountValue
	}
	if req.Currency != nil {
		updated.Currency = req.Currency
	}
	if req.MinPurchaseAmount != nil {
		updated.MinPurchaseAmount = req.MinPurchaseAmount
	}
	if req.ClearMinPurchaseAmount {
		updated.MinPurchaseAmount = nil
	}
	if req.MaxDiscountAmount != nil {
		updated.MaxDiscountAmount = req.MaxDiscountAmount
	}
	if req.ClearMaxDiscountAmount {
		updated.MaxDiscountAmount = nil
	}
	if req.StartDate != nil {
		if updated.StartDate, err = model.ParseTime(*req.StartDate); err != nil {
			return nil, model.NewValidationError(err)
		}
	}
	if req.EndDate != nil {
		if updated.EndDate, err = model.ParseTime(*req.EndDate); err != nil {
			return nil, model.NewValidationError(err)
		}
	}
	if req.UsageLimit != nil {
		updated.UsageLimit = req.UsageLimit
	}
	if req.ClearUsageLimit {
		updated.UsageLimit = nil
	}
	if req.IsActive != nil {
		updated.IsActive = *req.IsActive
	}
	if req.Restriction != nil {
		updated.Restriction = model.RestrictionType(*req.Restriction)
	}
	if req.RestrictionValues != nil {
		updated.RestrictionValues = req.RestrictionValues
	}

	if err := updated.Validate(); err != nil {
		return nil, model.NewValidationError(err)
	}

	if err := s.repo.UpdateCoupon(ctx, &updated); err != nil {
		return nil, mapRepoError(err, "update coupon")
	}
	return &updated, nil
}

// GetCoupon trả về coupon kèm remaining uses và thống kê redemption
func (s *promotionService) GetCoupon(ctx context.Context, id uuid.UUID) (*model.CouponDetailResponse, error) {
	coupon, err := s.repo.FindCouponByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "find coupon")
	}

	stats, err := s.repo.GetRedemptionStats(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get redemption stats: %w", err)
	}

	return &model.CouponDetailResponse{
		Coupon:        coupon,
		RemainingUses: coupon.RemainingUses(),
		Stats:         stats,
	}, nil
}

func (s *promotionService) ListCoupons(ctx context.Context, filter *model.ListFilter) ([]*model.Coupon, int, error) {
	return s.repo.ListCoupons(ctx, filter)
}

func (s *promotionService) UpdateCouponStatus(ctx context.Context, id uuid.UUID, isActive bool) error {
	if err := s.repo.UpdateCouponStatus(ctx, id, isActive); err != nil {
		return mapRepoError(err, "update coupon status")
	}
	logger.Info("Coupon status changed", map[string]interface{}{
		"coupon_id": id,
		"is_active": isActive,
	})
	return nil
}

// DeleteCoupon xóa hẳn record (không soft delete)
func (s *promotionService) DeleteCoupon(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteCoupon(ctx, id); err != nil {
		return mapRepoError(err, "delete coupon")
	}
	return nil
}

// GetRedemptionHistory lấy lịch sử apply coupon, mới nhất trước
func (s *promotionService) GetRedemptionHistory(ctx context.Context, id uuid.UUID, page, limit int) (*model.RedemptionHistoryResponse, error) {
	coupon, err := s.repo.FindCouponByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "find coupon")
	}

	redemptions, total, err := s.repo.ListRedemptions(ctx, id, page, limit)
	if err != nil {
		return nil, fmt.Errorf("list redemptions: %w", err)
	}

	stats, err := s.repo.GetRedemptionStats(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get redemption stats: %w", err)
	}

	return &model.RedemptionHistoryResponse{
		CouponID:    coupon.ID,
		Code:        coupon.Code,
		Statistics:  *stats,
		Redemptions: redemptions,
		Total:       total,
	}, nil
}

// -------------------------------------------------------------------
// SPECIAL OFFERS
// -------------------------------------------------------------------

func (s *promotionService) CreateOffer(ctx context.Context, req *model.CreateOfferRequest) (*model.SpecialOffer, error) {
	startDate, err := model.ParseTime(req.StartDate)
	if err != nil {
		return nil, model.NewValidationError(err)
	}
	endDate, err := model.ParseTime(req.EndDate)
	if err != nil {
		return nil, model.NewValidationError(err)
	}

	offer := &model.SpecialOffer{
		Name:           req.Name,
		DiscountType:   model.DiscountType(req.DiscountType),
		DiscountValue:  req.DiscountValue,
		StartDate:      startDate,
		EndDate:        endDate,
		IsActive:       req.IsActive,
		TargetNovelIDs: req.TargetNovelIDs,
	}
	if err := offer.Validate(); err != nil {
		return nil, model.NewValidationError(err)
	}

	if err := s.repo.CreateOffer(ctx, offer); err != nil {
		return nil, fmt.Errorf("create offer: %w", err)
	}
	s.invalidate(ctx, cacheKeyActiveOffers)

	logger.Info("Special offer created", map[string]interface{}{
		"offer_id": offer.ID,
		"name":     offer.Name,
	})
	return offer, nil
}

func (s *promotionService) UpdateOffer(ctx context.Context, id uuid.UUID, req *model.UpdateOfferRequest) (*model.SpecialOffer, error) {
	existing, err := s.repo.FindOfferByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "find offer")
	}

	updated := *existing
	if req.Name != nil {
		updated.Name = *req.Name
	}
	if req.DiscountType != nil {
		updated.DiscountType = model.DiscountType(*req.DiscountType)
	}
	if req.DiscountValue != nil {
		updated.DiscountValue = *req.DiscountValue
	}
	if req.StartDate != nil {
		if updated.StartDate, err = model.ParseTime(*req.StartDate); err != nil {
			return nil, model.NewValidationError(err)
		}
	}
	if req.EndDate != nil {
		if updated.EndDate, err = model.ParseTime(*req.EndDate); err != nil {
			return nil, model.NewValidationError(err)
		}
	}
	if req.IsActive != nil {
		updated.IsActive = *req.IsActive
	}
	if req.TargetNovelIDs != nil {
		updated.TargetNovelIDs = req.TargetNovelIDs
	}

	if err := updated.Validate(); err != nil {
		return nil, model.NewValidationError(err)
	}

	if err := s.repo.UpdateOffer(ctx, &updated); err != nil {
		return nil, mapRepoError(err, "update offer")
	}
	s.invalidate(ctx, cacheKeyActiveOffers)
	return &updated, nil
}

func (s *promotionService) GetOffer(ctx context.Context, id uuid.UUID) (*model.SpecialOffer, error) {
	offer, err := s.repo.FindOfferByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "find offer")
	}
	return offer, nil
}

func (s *promotionService) ListOffers(ctx context.Context, filter *model.ListFilter) ([]*model.SpecialOffer, int, error) {
	return s.repo.ListOffers(ctx, filter)
}

func (s *promotionService) UpdateOfferStatus(ctx context.Context, id uuid.UUID, isActive bool) error {
	if err := s.repo.UpdateOfferStatus(ctx, id, isActive); err != nil {
		return mapRepoError(err, "update offer status")
	}
	s.invalidate(ctx, cacheKeyActiveOffers)
	return nil
}

func (s *promotionService) DeleteOffer(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteOffer(ctx, id); err != nil {
		return mapRepoError(err, "delete offer")
	}
	s.invalidate(ctx, cacheKeyActiveOffers)
	return nil
}

// -------------------------------------------------------------------
// VOLUME DISCOUNTS
// -------------------------------------------------------------------

func (s *promotionService) CreateVolumeDiscount(ctx context.Context, req *model.CreateVolumeDiscountRequest) (*model.VolumeDiscount, error) {
	startDate, err := model.ParseTime(req.StartDate)
	if err != nil {
		return nil, model.NewValidationError(err)
	}
	endDate, err := model.ParseTime(req.EndDate)
	if err != nil {
		return nil, model.NewValidationError(err)
	}

	tier := &model.VolumeDiscount{
		MinQuantity:        req.MinQuantity,
		DiscountPercentage: req.DiscountPercentage,
		IsActive:           req.IsActive,
		StartDate:          startDate,
		EndDate:            endDate,
	}
	if err := tier.Validate(); err != nil {
		return nil, model.NewValidationError(err)
	}

	if err := s.repo.CreateVolumeDiscount(ctx, tier); err != nil {
		return nil, fmt.Errorf("create volume discount: %w", err)
	}
	s.invalidate(ctx, cacheKeyActiveTiers)
	return tier, nil
}

func (s *promotionService) UpdateVolumeDiscount(ctx context.Context, id uuid.UUID, req *model.UpdateVolumeDiscountRequest) (*model.VolumeDiscount, error) {
	existing, err := s.repo.FindVolumeDiscountByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "find volume discount")
	}

	updated := *existing
	if req.MinQuantity != nil {
		updated.MinQuantity = *req.MinQuantity
	}
	if req.DiscountPercentage != nil {
		updated.DiscountPercentage = *req.DiscountPercentage
	}
	if req.IsActive != nil {
		updated.IsActive = *req.IsActive
	}
	if req.StartDate != nil {
		if updated.StartDate, err = model.ParseTime(*req.StartDate); err != nil {
			return nil, model.NewValidationError(err)
		}
	}
	if req.EndDate != nil {
		if updated.EndDate, err = model.ParseTime(*req.EndDate); err != nil {
			return nil, model.NewValidationError(err)
		}
	}

	if err := updated.Validate(); err != nil {
		return nil, model.NewValidationError(err)
	}

	if err := s.repo.UpdateVolumeDiscount(ctx, &updated); err != nil {
		return nil, mapRepoError(err, "update volume discount")
	}
	s.invalidate(ctx, cacheKeyActiveTiers)
	return &updated, nil
}

func (s *promotionService) GetVolumeDiscount(ctx context.Context, id uuid.UUID) (*model.VolumeDiscount, error) {
	tier, err := s.repo.FindVolumeDiscountByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "find volume discount")
	}
	return tier, nil
}

func (s *promotionService) ListVolumeDiscounts(ctx context.Context, filter *model.ListFilter) ([]*model.VolumeDiscount, int, error) {
	return s.repo.ListVolumeDiscounts(ctx, filter)
}

func (s *promotionService) UpdateVolumeDiscountStatus(ctx context.Context, id uuid.UUID, isActive bool) error {
	if err := s.repo.UpdateVolumeDiscountStatus(ctx, id, isActive); err != nil {
		return mapRepoError(err, "update volume discount status")
	}
	s.invalidate(ctx, cacheKeyActiveTiers)
	return nil
}

func (s *promotionService) DeleteVolumeDiscount(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteVolumeDiscount(ctx, id); err != nil {
		return mapRepoError(err, "delete volume discount")
	}
	s.invalidate(ctx, cacheKeyActiveTiers)
	return nil
}

// mapRepoError chuyển ErrNotFound thành AppError 404, còn lại wrap
func mapRepoError(err error, op string) error {
	if errors.Is(err, model.ErrNotFound) {
		return model.ErrRecordNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
