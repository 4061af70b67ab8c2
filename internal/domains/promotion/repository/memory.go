package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"novelstore-backend/internal/domains/promotion/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemoryRepository giữ toàn bộ promotion data trong process.
// Mỗi collection có một mutex riêng; records are stored in insertion order.
type MemoryRepository struct {
	couponMu    sync.RWMutex
	coupons     map[uuid.UUID]*model.Coupon
	couponOrder []uuid.UUID
	redemptions []*model.CouponRedemption

	offerMu    sync.RWMutex
	offers     map[uuid.UUID]*model.SpecialOffer
	offerOrder []uuid.UUID

	tierMu    sync.RWMutex
	tiers     map[uuid.UUID]*model.VolumeDiscount
	tierOrder []uuid.UUID

	now func() time.Time
}

// NewMemoryRepository tạo repository rỗng
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		coupons: make(map[uuid.UUID]*model.Coupon),
		offers:  make(map[uuid.UUID]*model.SpecialOffer),
		tiers:   make(map[uuid.UUID]*model.VolumeDiscount),
		now:     time.Now,
	}
}

// -------------------------------------------------------------------
// COUPONS
// -------------------------------------------------------------------

func (r *MemoryRepository) FindCouponByID(_ context.Context, id uuid.UUID) (*model.Coupon, error) {
	r.couponMu.RLock()
	defer r.couponMu.RUnlock()

	c, ok := r.coupons[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return cloneCoupon(c), nil
}

// FindActiveCouponByCode matches code exactly (case-sensitive) among active coupons
func (r *MemoryRepository) FindActiveCouponByCode(_ context.Context, code string) (*model.Coupon, error) {
	r.couponMu.RLock()
	defer r.couponMu.RUnlock()

	for _, id := range r.couponOrder {
		c := r.coupons[id]
		if c.IsActive && c.Code == code {
			return cloneCoupon(c), nil
		}
	}
	return nil, model.ErrNotFound
}

func (r *MemoryRepository) ListCoupons(_ context.Context, filter *model.ListFilter) ([]*model.Coupon, int, error) {
	r.couponMu.RLock()
	defer r.couponMu.RUnlock()

	matched := make([]*model.Coupon, 0, len(r.couponOrder))
	for _, id := range r.couponOrder {
		c := r.coupons[id]
		if filter.Matches(c.IsActive) {
			matched = append(matched, cloneCoupon(c))
		}
	}
	return paginate(matched, filter), len(matched), nil
}

func (r *MemoryRepository) CreateCoupon(_ context.Context, coupon *model.Coupon) error {
	r.couponMu.Lock()
	defer r.couponMu.Unlock()

	for _, existing := range r.coupons {
		if existing.Code == coupon.Code {
			return model.ErrDuplicateCode
		}
	}

	if coupon.ID == uuid.Nil {
		coupon.ID = uuid.New()
	}
	now := r.now()
	coupon.CreatedAt = now
	coupon.UpdatedAt = now

	r.coupons[coupon.ID] = cloneCoupon(coupon)
	r.couponOrder = append(r.couponOrder, coupon.ID)
	return nil
}

func (r *MemoryRepository) UpdateCoupon(_ context.Context, coupon *model.Coupon) error {
	r.couponMu.Lock()
	defer r.couponMu.Unlock()

	existing, ok := r.coupons[coupon.ID]
	if !ok {
		return model.ErrNotFound
	}

	coupon.Code = existing.Code
	coupon.CurrentUsage = existing.CurrentUsage
	coupon.CreatedAt = existing.CreatedAt
	coupon.UpdatedAt = r.now()
	r.coupons[coupon.ID] = cloneCoupon(coupon)
	return nil
}

func (r *MemoryRepository) UpdateCouponStatus(_ context.Context, id uuid.UUID, isActive bool) error {
	r.couponMu.Lock()
	defer r.couponMu.Unlock()

	c, ok := r.coupons[id]
	if !ok {
		return model.ErrNotFound
	}
	c.IsActive = isActive
	c.UpdatedAt = r.now()
	return nil
}

func (r *MemoryRepository) DeleteCoupon(_ context.Context, id uuid.UUID) error {
	r.couponMu.Lock()
	defer r.couponMu.Unlock()

	if _, ok := r.coupons[id]; !ok {
		return model.ErrNotFound
	}
	delete(r.coupons, id)
	r.couponOrder = removeID(r.couponOrder, id)
	return nil
}

func (r *MemoryRepository) RedeemCoupon(_ context.Context, redemption *model.CouponRedemption) (*model.Coupon, error) {
	r.couponMu.Lock()
	defer r.couponMu.Unlock()

	c, ok := r.coupons[redemption.CouponID]
	if !ok {
		return nil, model.ErrNotFound
	}
	if c.IsUsageLimitReached() {
		return nil, model.ErrUsageLimitReached
	}

	c.CurrentUsage++
	c.UpdatedAt = r.now()

	if redemption.ID == uuid.Nil {
		redemption.ID = uuid.New()
	}
	stored := *redemption
	r.redemptions = append(r.redemptions, &stored)

	return cloneCoupon(c), nil
}

func (r *MemoryRepository) ListRedemptions(_ context.Context, couponID uuid.UUID, page, limit int) ([]*model.CouponRedemption, int, error) {
	r.couponMu.RLock()
	defer r.couponMu.RUnlock()

	var matched []*model.CouponRedemption
	for _, rd := range r.redemptions {
		if rd.CouponID == couponID {
			copied := *rd
			matched = append(matched, &copied)
		}
	}

	// Mới nhất trước
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].RedeemedAt.After(matched[j].RedeemedAt)
	})

	filter := &model.ListFilter{Page: page, Limit: limit}
	return paginate(matched, filter), len(matched), nil
}

func (r *MemoryRepository) GetRedemptionStats(_ context.Context, couponID uuid.UUID) (*model.RedemptionStats, error) {
	r.couponMu.RLock()
	defer r.couponMu.RUnlock()

	stats := &model.RedemptionStats{TotalDiscountGiven: decimal.Zero}
	users := make(map[string]struct{})
	for _, rd := range r.redemptions {
		if rd.CouponID != couponID {
			continue
		}
		stats.TotalRedemptions++
		stats.TotalDiscountGiven = stats.TotalDiscountGiven.Add(rd.DiscountAmount)
		users[rd.UserID] = struct{}{}
	}
	stats.UniqueUsers = len(users)
	return stats, nil
}

// -------------------------------------------------------------------
// SPECIAL OFFERS
// -------------------------------------------------------------------

func (r *MemoryRepository) FindOfferByID(_ context.Context, id uuid.UUID) (*model.SpecialOffer, error) {
	r.offerMu.RLock()
	defer r.offerMu.RUnlock()

	o, ok := r.offers[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return cloneOffer(o), nil
}

func (r *MemoryRepository) ListOffers(_ context.Context, filter *model.ListFilter) ([]*model.SpecialOffer, int, error) {
	r.offerMu.RLock()
	defer r.offerMu.RUnlock()

	matched := make([]*model.SpecialOffer, 0, len(r.offerOrder))
	for _, id := range r.offerOrder {
		o := r.offers[id]
		if filter.Matches(o.IsActive) {
			matched = append(matched, cloneOffer(o))
		}
	}
	return paginate(matched, filter), len(matched), nil
}

func (r *MemoryRepository) CreateOffer(_ context.Context, offer *model.SpecialOffer) error {
	r.offerMu.Lock()
	defer r.offerMu.Unlock()

	if offer.ID == uuid.Nil {
		offer.ID = uuid.New()
	}
	now := r.now()
	offer.CreatedAt = now
	offer.UpdatedAt = now

	r.offers[offer.ID] = cloneOffer(offer)
	r.offerOrder = append(r.offerOrder, offer.ID)
	return nil
}

func (r *MemoryRepository) UpdateOffer(_ context.Context, offer *model.SpecialOffer) error {
	r.offerMu.Lock()
	defer r.offerMu.Unlock()

	existing, ok := r.offers[offer.ID]
	if !ok {
		return model.ErrNotFound
	}
	offer.CreatedAt = existing.CreatedAt
	offer.UpdatedAt = r.now()
	r.offers[offer.ID] = cloneOffer(offer)
	return nil
}

func (r *MemoryRepository) UpdateOfferStatus(_ context.Context, id uuid.UUID, isActive bool) error {
	r.offerMu.Lock()
	defer r.offerMu.Unlock()

	o, ok := r.offers[id]
	if !ok {
		return model.ErrNotFound
	}
	o.IsActive = isActive
	o.UpdatedAt = r.now()
	return nil
}

func (r *MemoryRepository) DeleteOffer(_ context.Context, id uuid.UUID) error {
	r.offerMu.Lock()
	defer r.offerMu.Unlock()

	if _, ok := r.offers[id]; !ok {
		return model.ErrNotFound
	}
	delete(r.offers, id)
	r.offerOrder = removeID(r.offerOrder, id)
	return nil
}

// -------------------------------------------------------------------
// VOLUME DISCOUNTS
// -------------------------------------------------------------------

func (r *MemoryRepository) FindVolumeDiscountByID(_ context.Context, id uuid.UUID) (*model.VolumeDiscount, error) {
	r.tierMu.RLock()
	defer r.tierMu.RUnlock()

	t, ok := r.tiers[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *MemoryRepository) ListVolumeDiscounts(_ context.Context, filter *model.ListFilter) ([]*model.VolumeDiscount, int, error) {
	r.tierMu.RLock()
	defer r.tierMu.RUnlock()

	matched := make([]*model.VolumeDiscount, 0, len(r.tierOrder))
	for _, id := range r.tierOrder {
		t := r.tiers[id]
		if filter.Matches(t.IsActive) {
			copied := *t
			matched = append(matched, &copied)
		}
	}
	return paginate(matched, filter), len(matched), nil
}

func (r *MemoryRepository) CreateVolumeDiscount(_ context.Context, tier *model.VolumeDiscount) error {
	r.tierMu.Lock()
	defer r.tierMu.Unlock()

	if tier.ID == uuid.Nil {
		tier.ID = uuid.New()
	}
	now := r.now()
	tier.CreatedAt = now
	tier.UpdatedAt = now

	copied := *tier
	r.tiers[tier.ID] = &copied
	r.tierOrder = append(r.tierOrder, tier.ID)
	return nil
}

func (r *MemoryRepository) UpdateVolumeDiscount(_ context.Context, tier *model.VolumeDiscount) error {
	r.tierMu.Lock()
	defer r.tierMu.Unlock()

	existing, ok := r.tiers[tier.ID]
	if !ok {
		return model.ErrNotFound
	}
	tier.CreatedAt = existing.CreatedAt
	tier.UpdatedAt = r.now()
	copied := *tier
	r.tiers[tier.ID] = &copied
	return nil
}

func (r *MemoryRepository) UpdateVolumeDiscountStatus(_ context.Context, id uuid.UUID, isActive bool) error {
	r.tierMu.Lock()
	defer r.tierMu.Unlock()

	t, ok := r.tiers[id]
	if !ok {
		return model.ErrNotFound
	}
	t.IsActive = isActive
	t.UpdatedAt = r.now()
	return nil
}

func (r *MemoryRepository) DeleteVolumeDiscount(_ context.Context, id uuid.UUID) error {
	r.tierMu.Lock()
	defer r.tierMu.Unlock()

	if _, ok := r.tiers[id]; !ok {
		return model.ErrNotFound
	}
	delete(r.tiers, id)
	r.tierOrder = removeID(r.tierOrder, id)
	return nil
}

// -------------------------------------------------------------------
// HELPERS
// -------------------------------------------------------------------

func paginate[T any](items []T, filter *model.ListFilter) []T {
	if filter == nil || filter.Limit <= 0 {
		return items
	}
	start := filter.Offset()
	if start < 0 {
		start = 0
	}
	if start >= len(items) {
		return []T{}
	}
	end := start + filter.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func cloneCoupon(c *model.Coupon) *model.Coupon {
	copied := *c
	if c.RestrictionValues != nil {
		copied.RestrictionValues = append([]string(nil), c.RestrictionValues...)
	}
	if c.UsageLimit != nil {
		limit := *c.UsageLimit
		copied.UsageLimit = &limit
	}
	return &copied
}

func cloneOffer(o *model.SpecialOffer) *model.SpecialOffer {
	copied := *o
	if o.TargetNovelIDs != nil {
		copied.TargetNovelIDs = append([]string(nil), o.TargetNovelIDs...)
	}
	return &copied
}

var _ PromotionRepository = (*MemoryRepository)(nil)

