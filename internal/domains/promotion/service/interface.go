package service

import (
	"context"

	"novelstore-backend/internal/domains/promotion/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ServiceInterface interface {
	// Public - engine operations
	ValidateCoupon(ctx context.Context, req *model.ValidateCouponRequest) (*model.ValidationResult, error)
	ApplyCoupon(ctx context.Context, req *model.ApplyCouponRequest) (*model.ApplyResult, error)
	ApplySpecialOffer(ctx context.Context, novelID string, price decimal.Decimal) (*model.OfferResult, error)
	ApplyVolumeDiscount(ctx context.Context, quantity int, totalPrice decimal.Decimal) (*model.VolumeResult, error)

	// Admin - coupons
	CreateCoupon(ctx context.Context, req *model.CreateCouponRequest) (*model.Coupon, error)
	UpdateCoupon(ctx context.Context, id uuid.UUID, req *model.UpdateCouponRequest) (*model.Coupon, error)
	GetCoupon(ctx context.Context, id uuid.UUID) (*model.CouponDetailResponse, error)
	ListCoupons(ctx context.Context, filter *model.ListFilter) ([]*model.Coupon, int, error)
	UpdateCouponStatus(ctx context.Context, id uuid.UUID, isActive bool) error
	DeleteCoupon(ctx context.Context, id uuid.UUID) error
	GetRedemptionHistory(ctx context.Context, id uuid.UUID, page, limit int) (*model.RedemptionHistoryResponse, error)

	// Admin - special offers
	CreateOffer(ctx context.Context, req *model.CreateOfferRequest) (*model.SpecialOffer, error)
	UpdateOffer(ctx context.Context, id uuid.UUID, req *model.UpdateOfferRequest) (*model.SpecialOffer, error)
	GetOffer(ctx context.Context, id uuid.UUID) (*model.SpecialOffer, error)
	ListOffers(ctx context.Context, filter *model.ListFilter) ([]*model.SpecialOffer, int, error)
	UpdateOfferStatus(ctx context.Context, id uuid.UUID, isActive bool) error
	DeleteOffer(ctx context.Context, id uuid.UUID) error

	// Admin - volume discounts
	CreateVolumeDiscount(ctx context.Context, req *model.CreateVolumeDiscountRequest) (*model.VolumeDiscount, error)
	UpdateVolumeDiscount(ctx context.Context, id uuid.UUID, req *model.UpdateVolumeDiscountRequest) (*model.VolumeDiscount, error)
	GetVolumeDiscount(ctx context.Context, id uuid.UUID) (*model.VolumeDiscount, error)
	ListVolumeDiscounts(ctx context.Context, filter *model.ListFilter) ([]*model.VolumeDiscount, int, error)
	UpdateVolumeDiscountStatus(ctx context.Context, id uuid.UUID, isActive bool) error
	DeleteVolumeDiscount(ctx context.Context, id uuid.UUID) error
}
