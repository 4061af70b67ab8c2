package repository

import (
	"context"

	"novelstore-backend/internal/domains/promotion/model"

	"github.com/google/uuid"
)

// PromotionRepository định nghĩa interface cho promotion data access
//
// List methods return records in creation order; the offer engine relies on
// that order to break ties between equally good offers.
type PromotionRepository interface {
	// Coupons
	FindCouponByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error)
	FindActiveCouponByCode(ctx context.Context, code string) (*model.Coupon, error)
	ListCoupons(ctx context.Context, filter *model.ListFilter) ([]*model.Coupon, int, error)
	CreateCoupon(ctx context.Context, coupon *model.Coupon) error
	UpdateCoupon(ctx context.Context, coupon *model.Coupon) error
	UpdateCouponStatus(ctx context.Context, id uuid.UUID, isActive bool) error
	DeleteCoupon(ctx context.Context, id uuid.UUID) error

	// RedeemCoupon increments current_usage by one, re-checking usage_limit
	// atomically, and stores the redemption record. Returns
	// model.ErrUsageLimitReached when the counter is already saturated.
	RedeemCoupon(ctx context.Context, redemption *model.CouponRedemption) (*model.Coupon, error)
	ListRedemptions(ctx context.Context, couponID uuid.UUID, page, limit int) ([]*model.CouponRedemption, int, error)
	GetRedemptionStats(ctx context.Context, couponID uuid.UUID) (*model.RedemptionStats, error)

	// Special offers
	FindOfferByID(ctx context.Context, id uuid.UUID) (*model.SpecialOffer, error)
	ListOffers(ctx context.Context, filter *model.ListFilter) ([]*model.SpecialOffer, int, error)
	CreateOffer(ctx context.Context, offer *model.SpecialOffer) error
	UpdateOffer(ctx context.Context, offer *model.SpecialOffer) error
	UpdateOfferStatus(ctx context.Context, id uuid.UUID, isActive bool) error
	DeleteOffer(ctx context.Context, id uuid.UUID) error

	// Volume discounts
	FindVolumeDiscountByID(ctx context.Context, id uuid.UUID) (*model.VolumeDiscount, error)
	ListVolumeDiscounts(ctx context.Context, filter *model.ListFilter) ([]*model.VolumeDiscount, int, error)
	CreateVolumeDiscount(ctx context.Context, tier *model.VolumeDiscount) error
	UpdateVolumeDiscount(ctx context.Context, tier *model.VolumeDiscount) error
	UpdateVolumeDiscountStatus(ctx context.Context, id uuid.UUID, isActive bool) error
	DeleteVolumeDiscount(ctx context.Context, id uuid.UUID) error
}

// PurchaseHistory là collaborator bên ngoài dùng cho restriction first_time_purchase
type PurchaseHistory interface {
	HasPurchased(ctx context.Context, userID string) (bool, error)
}
