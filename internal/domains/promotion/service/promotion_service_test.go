package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novelstore-backend/internal/domains/promotion/model"
	"novelstore-backend/internal/domains/promotion/repository"
)

// fakeCache lưu JSON giống RedisCache để bắt lỗi serialize
type fakeCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	gets    int
	deletes []string
	failGet bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (c *fakeCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.failGet {
		return false, errors.New("redis down")
	}
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}

func (c *fakeCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
		c.deletes = append(c.deletes, k)
	}
	return nil
}

func (c *fakeCache) Ping(context.Context) error { return nil }

func (c *fakeCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

type serviceFixture struct {
	svc     ServiceInterface
	repo    *repository.MemoryRepository
	history *repository.MemoryPurchaseHistory
	cache   *fakeCache
}

func newFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		repo:    repository.NewMemoryRepository(),
		history: repository.NewMemoryPurchaseHistory(),
		cache:   newFakeCache(),
	}
	f.svc = NewPromotionService(f.repo, f.history, f.cache, Options{
		RoundingPlaces: -1,
		Clock:          func() time.Time { return testNow },
	})
	return f
}

func (f *serviceFixture) addCoupon(t *testing.T, mutate func(c *model.Coupon)) *model.Coupon {
	t.Helper()
	c := activeCoupon(mutate)
	require.NoError(t, f.repo.CreateCoupon(context.Background(), c))
	return c
}

func usage(t *testing.T, f *serviceFixture, id uuid.UUID) int {
	t.Helper()
	c, err := f.repo.FindCouponByID(context.Background(), id)
	require.NoError(t, err)
	return c.CurrentUsage
}

// -------------------------------------------------------------------
// VALIDATE / APPLY
// -------------------------------------------------------------------

func TestValidateCoupon_NeverMutatesUsage(t *testing.T) {
	f := newFixture(t)
	c := f.addCoupon(t, func(c *model.Coupon) { c.Code = "SAVE10"; c.UsageLimit = intPtr(1) })

	for i := 0; i < 5; i++ {
		res, err := f.svc.ValidateCoupon(context.Background(), &model.ValidateCouponRequest{Code: "SAVE10", UserID: "u1"})
		require.NoError(t, err)
		assert.True(t, res.Valid)
		assert.Equal(t, "SAVE10", res.Coupon.Code)
	}

	assert.Equal(t, 0, usage(t, f, c.ID))
}

func TestValidateCoupon_Rejections(t *testing.T) {
	f := newFixture(t)
	f.addCoupon(t, func(c *model.Coupon) {
		c.Code = "MIN50"
		c.Restriction = model.RestrictionMinimumPurchase
		c.MinPurchaseAmount = dp("50")
	})
	f.addCoupon(t, func(c *model.Coupon) { c.Code = "OFF"; c.IsActive = false })

	tests := []struct {
		name      string
		req       model.ValidateCouponRequest
		wantValid bool
		wantCode  model.ErrorCode
	}{
		{"unknown code", model.ValidateCouponRequest{Code: "NOPE", UserID: "u"}, false, model.ErrCodeCouponNotFound},
		{"case sensitive", model.ValidateCouponRequest{Code: "min50", UserID: "u"}, false, model.ErrCodeCouponNotFound},
		{"inactive", model.ValidateCouponRequest{Code: "OFF", UserID: "u"}, false, model.ErrCodeCouponNotFound},
		{"49 below minimum", model.ValidateCouponRequest{Code: "MIN50", UserID: "u", PurchaseAmount: dp("49")}, false, model.ErrCodeMinimumNotMet},
		{"50 meets minimum", model.ValidateCouponRequest{Code: "MIN50", UserID: "u", PurchaseAmount: dp("50")}, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.svc.ValidateCoupon(context.Background(), &tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, res.Valid)
			assert.Equal(t, tt.wantCode, res.Code)
			assert.NotEmpty(t, res.Message)
			if !tt.wantValid {
				assert.Nil(t, res.Coupon)
			}
		})
	}
}

func TestApplyCoupon_UsageLimitN(t *testing.T) {
	f := newFixture(t)
	const n = 3
	c := f.addCoupon(t, func(c *model.Coupon) { c.Code = "THREE"; c.UsageLimit = intPtr(n) })

	for i := 1; i <= n; i++ {
		res, err := f.svc.ApplyCoupon(context.Background(), &model.ApplyCouponRequest{Code: "THREE", UserID: "u", PurchaseAmount: dp("100")})
		require.NoError(t, err)
		require.True(t, res.Success, "apply #%d", i)
		assert.Equal(t, i, res.Coupon.CurrentUsage)
		assert.True(t, d("90").Equal(res.FinalAmount))
		assert.True(t, d("10").Equal(res.DiscountAmount))
	}

	res, err := f.svc.ApplyCoupon(context.Background(), &model.ApplyCouponRequest{Code: "THREE", UserID: "u", PurchaseAmount: dp("100")})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, model.ErrCodeUsageLimitReached, res.Code)
	assert.True(t, d("100").Equal(res.FinalAmount))
	assert.True(t, res.DiscountAmount.IsZero())

	assert.Equal(t, n, usage(t, f, c.ID))
}

func TestApplyCoupon_FailureDoesNotMutate(t *testing.T) {
	f := newFixture(t)
	c := f.addCoupon(t, func(c *model.Coupon) {
		c.Code = "NOVEL"
		c.Restriction = model.RestrictionSpecificNovel
		c.RestrictionValues = []string{"n1"}
	})

	res, err := f.svc.ApplyCoupon(context.Background(), &model.ApplyCouponRequest{Code: "NOVEL", UserID: "u", NovelID: strPtr("n2"), PurchaseAmount: dp("40")})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, model.ErrCodeItemNotEligible, res.Code)
	assert.Equal(t, 0, usage(t, f, c.ID))

	history, err := f.svc.GetRedemptionHistory(context.Background(), c.ID, 1, 20)
	require.NoError(t, err)
	assert.Zero(t, history.Total)
}

func TestApplyCoupon_MissingAmountRejected(t *testing.T) {
	f := newFixture(t)
	c := f.addCoupon(t, func(c *model.Coupon) { c.Code = "LIMITED"; c.UsageLimit = intPtr(1) })

	_, err := f.svc.ApplyCoupon(context.Background(), &model.ApplyCouponRequest{Code: "LIMITED", UserID: "u"})
	var appErr *model.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, model.ErrCodeValidationFailed, appErr.Code)
	assert.Equal(t, 0, usage(t, f, c.ID))
}

func TestApplyCoupon_FirstTimePurchase(t *testing.T) {
	f := newFixture(t)
	f.addCoupon(t, func(c *model.Coupon) { c.Code = "WELCOME"; c.Restriction = model.RestrictionFirstTimePurchase })
	f.history.RecordPurchase("returning")

	res, err := f.svc.ApplyCoupon(context.Background(), &model.ApplyCouponRequest{Code: "WELCOME", UserID: "returning", PurchaseAmount: dp("20")})
	require.NoError(t, err)
	assert.Equal(t, model.ErrCodeNotFirstPurchase, res.Code)

	res, err = f.svc.ApplyCoupon(context.Background(), &model.ApplyCouponRequest{Code: "WELCOME", UserID: "fresh", PurchaseAmount: dp("20")})
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestApplyCoupon_CapsAndClamps(t *testing.T) {
	f := newFixture(t)
	f.addCoupon(t, func(c *model.Coupon) { c.Code = "HALF"; c.DiscountValue = d("50"); c.MaxDiscountAmount = dp("20") })
	f.addCoupon(t, func(c *model.Coupon) {
		c.Code = "FIVER"
		c.DiscountType = model.DiscountTypeFixedAmount
		c.DiscountValue = d("5")
		c.Currency = strPtr("USD")
	})

	res, err := f.svc.ApplyCoupon(context.Background(), &model.ApplyCouponRequest{Code: "HALF", UserID: "u", PurchaseAmount: dp("300")})
	require.NoError(t, err)
	assert.True(t, d("20").Equal(res.DiscountAmount))
	assert.True(t, d("280").Equal(res.FinalAmount))

	res, err = f.svc.ApplyCoupon(context.Background(), &model.ApplyCouponRequest{Code: "FIVER", UserID: "u", PurchaseAmount: dp("3")})
	require.NoError(t, err)
	assert.True(t, d("3").Equal(res.DiscountAmount))
	assert.True(t, res.FinalAmount.IsZero())
}

func TestApplyCoupon_ConcurrentRespectsLimit(t *testing.T) {
	f := newFixture(t)
	const limit = 5
	c := f.addCoupon(t, func(c *model.Coupon) { c.Code = "RACE"; c.UsageLimit = intPtr(limit) })

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.svc.ApplyCoupon(context.Background(), &model.ApplyCouponRequest{Code: "RACE", UserID: "u", PurchaseAmount: dp("10")})
			if err == nil && res.Success {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, limit, successes)
	assert.Equal(t, limit, usage(t, f, c.ID))
}

func TestApplyCoupon_RecordsRedemption(t *testing.T) {
	f := newFixture(t)
	c := f.addCoupon(t, func(c *model.Coupon) { c.Code = "TRACK" })

	for _, user := range []string{"a", "b", "a"} {
		_, err := f.svc.ApplyCoupon(context.Background(), &model.ApplyCouponRequest{Code: "TRACK", UserID: user, PurchaseAmount: dp("50")})
		require.NoError(t, err)
	}

	history, err := f.svc.GetRedemptionHistory(context.Background(), c.ID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, history.Total)
	assert.Len(t, history.Redemptions, 2)
	assert.Equal(t, 3, history.Statistics.TotalRedemptions)
	assert.Equal(t, 2, history.Statistics.UniqueUsers)
	assert.True(t, d("15").Equal(history.Statistics.TotalDiscountGiven))

	detail, err := f.svc.GetCoupon(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Nil(t, detail.RemainingUses)
	assert.Equal(t, 3, detail.Stats.TotalRedemptions)
}

// -------------------------------------------------------------------
// OFFERS & VOLUME TIERS
// -------------------------------------------------------------------

func TestApplySpecialOffer_PicksLargestAndCaches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.repo.CreateOffer(ctx, offer("ten", model.DiscountTypeFixedAmount, "10")))
	require.NoError(t, f.repo.CreateOffer(ctx, offer("fifteen", model.DiscountTypeFixedAmount, "15")))

	res, err := f.svc.ApplySpecialOffer(ctx, "n1", d("100"))
	require.NoError(t, err)
	require.True(t, res.HasDiscount)
	assert.Equal(t, "fifteen", res.Offer.Name)
	assert.True(t, f.cache.has(cacheKeyActiveOffers))

	// Cache hit trả cùng kết quả, kể cả tie-break order
	res, err = f.svc.ApplySpecialOffer(ctx, "n1", d("100"))
	require.NoError(t, err)
	assert.Equal(t, "fifteen", res.Offer.Name)
}

func TestOfferWrites_InvalidateCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ApplySpecialOffer(ctx, "n1", d("100"))
	require.NoError(t, err)
	require.True(t, f.cache.has(cacheKeyActiveOffers))

	created, err := f.svc.CreateOffer(ctx, &model.CreateOfferRequest{
		Name:          "Flash sale",
		DiscountType:  "percentage",
		DiscountValue: d("25"),
		StartDate:     testStart.Format(time.RFC3339),
		EndDate:       testEnd.Format(time.RFC3339),
		IsActive:      true,
	})
	require.NoError(t, err)
	assert.False(t, f.cache.has(cacheKeyActiveOffers))

	res, err := f.svc.ApplySpecialOffer(ctx, "n1", d("100"))
	require.NoError(t, err)
	require.True(t, res.HasDiscount)
	assert.Equal(t, created.ID, res.Offer.ID)

	require.NoError(t, f.svc.UpdateOfferStatus(ctx, created.ID, false))
	res, err = f.svc.ApplySpecialOffer(ctx, "n1", d("100"))
	require.NoError(t, err)
	assert.False(t, res.HasDiscount)
}

func TestApplySpecialOffer_CacheErrorFallsBack(t *testing.T) {
	f := newFixture(t)
	f.cache.failGet = true
	require.NoError(t, f.repo.CreateOffer(context.Background(), offer("ten", model.DiscountTypeFixedAmount, "10")))

	res, err := f.svc.ApplySpecialOffer(context.Background(), "n1", d("100"))
	require.NoError(t, err)
	assert.True(t, res.HasDiscount)
}

func TestApplyVolumeDiscount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, tr := range []*model.VolumeDiscount{tier(2, "10"), tier(5, "20"), tier(10, "30")} {
		require.NoError(t, f.repo.CreateVolumeDiscount(ctx, tr))
	}

	res, err := f.svc.ApplyVolumeDiscount(ctx, 7, d("100"))
	require.NoError(t, err)
	require.True(t, res.HasDiscount)
	assert.Equal(t, 5, res.Discount.MinQuantity)
	assert.True(t, d("80").Equal(res.FinalPrice))

	res, err = f.svc.ApplyVolumeDiscount(ctx, 1, d("100"))
	require.NoError(t, err)
	assert.False(t, res.HasDiscount)
	assert.True(t, d("100").Equal(res.FinalPrice))
}

// -------------------------------------------------------------------
// ADMIN
// -------------------------------------------------------------------

func TestCreateCoupon(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := &model.CreateCouponRequest{
		Code:          "NEW10",
		DiscountType:  "percentage",
		DiscountValue: d("10"),
		StartDate:     testStart.Format(time.RFC3339),
		EndDate:       testEnd.Format(time.RFC3339),
		IsActive:      true,
	}

	coupon, err := f.svc.CreateCoupon(ctx, req)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, coupon.ID)
	assert.Equal(t, model.RestrictionNone, coupon.Restriction)

	_, err = f.svc.CreateCoupon(ctx, req)
	assert.ErrorIs(t, err, model.ErrCouponCodeTaken)
}

func TestUpdateCoupon(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.addCoupon(t, func(c *model.Coupon) { c.Code = "EDIT" })
	for i := 0; i < 2; i++ {
		_, err := f.svc.ApplyCoupon(ctx, &model.ApplyCouponRequest{Code: "EDIT", UserID: "u", PurchaseAmount: dp("10")})
		require.NoError(t, err)
	}

	t.Run("partial update keeps usage", func(t *testing.T) {
		updated, err := f.svc.UpdateCoupon(ctx, c.ID, &model.UpdateCouponRequest{DiscountValue: dp("15"), UsageLimit: intPtr(5)})
		require.NoError(t, err)
		assert.True(t, d("15").Equal(updated.DiscountValue))
		assert.Equal(t, 2, updated.CurrentUsage)
		assert.Equal(t, "EDIT", updated.Code)
	})

	t.Run("usage limit below current usage", func(t *testing.T) {
		_, err := f.svc.UpdateCoupon(ctx, c.ID, &model.UpdateCouponRequest{UsageLimit: intPtr(1)})
		var appErr *model.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, model.ErrCodeValidationFailed, appErr.Code)
	})

	t.Run("end before start after merge", func(t *testing.T) {
		end := testStart.Add(-time.Hour).Format(time.RFC3339)
		_, err := f.svc.UpdateCoupon(ctx, c.ID, &model.UpdateCouponRequest{EndDate: &end})
		var appErr *model.AppError
		require.ErrorAs(t, err, &appErr)
	})

	t.Run("clear flags unset nullable fields", func(t *testing.T) {
		capped := f.addCoupon(t, func(c *model.Coupon) {
			c.Code = "CAPPED"
			c.UsageLimit = intPtr(10)
			c.MaxDiscountAmount = dp("5")
			c.MinPurchaseAmount = dp("20")
		})

		updated, err := f.svc.UpdateCoupon(ctx, capped.ID, &model.UpdateCouponRequest{
			ClearUsageLimit:        true,
			ClearMaxDiscountAmount: true,
			ClearMinPurchaseAmount: true,
		})
		require.NoError(t, err)
		assert.Nil(t, updated.UsageLimit)
		assert.Nil(t, updated.MaxDiscountAmount)
		assert.Nil(t, updated.MinPurchaseAmount)

		stored, err := f.repo.FindCouponByID(ctx, capped.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.UsageLimit)
		assert.Nil(t, stored.MaxDiscountAmount)
		assert.Nil(t, stored.MinPurchaseAmount)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := f.svc.UpdateCoupon(ctx, uuid.New(), &model.UpdateCouponRequest{})
		assert.ErrorIs(t, err, model.ErrRecordNotFound)
	})
}

func TestDeleteAndStatus_NotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := uuid.New()

	assert.ErrorIs(t, f.svc.DeleteCoupon(ctx, id), model.ErrRecordNotFound)
	assert.ErrorIs(t, f.svc.UpdateCouponStatus(ctx, id, true), model.ErrRecordNotFound)
	assert.ErrorIs(t, f.svc.DeleteOffer(ctx, id), model.ErrRecordNotFound)
	assert.ErrorIs(t, f.svc.DeleteVolumeDiscount(ctx, id), model.ErrRecordNotFound)
	_, err := f.svc.GetVolumeDiscount(ctx, id)
	assert.ErrorIs(t, err, model.ErrRecordNotFound)
}

func TestVolumeDiscountWrites_InvalidateCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreateVolumeDiscount(ctx, &model.CreateVolumeDiscountRequest{
		MinQuantity:        3,
		DiscountPercentage: d("5"),
		IsActive:           true,
		StartDate:          testStart.Format(time.RFC3339),
		EndDate:            testEnd.Format(time.RFC3339),
	})
	require.NoError(t, err)

	res, err := f.svc.ApplyVolumeDiscount(ctx, 3, d("200"))
	require.NoError(t, err)
	assert.True(t, d("190").Equal(res.FinalPrice))
	assert.True(t, f.cache.has(cacheKeyActiveTiers))

	_, err = f.svc.UpdateVolumeDiscount(ctx, created.ID, &model.UpdateVolumeDiscountRequest{DiscountPercentage: dp("10")})
	require.NoError(t, err)
	assert.False(t, f.cache.has(cacheKeyActiveTiers))

	res, err = f.svc.ApplyVolumeDiscount(ctx, 3, d("200"))
	require.NoError(t, err)
	assert.True(t, d("180").Equal(res.FinalPrice))

	require.NoError(t, f.svc.DeleteVolumeDiscount(ctx, created.ID))
	assert.Contains(t, f.cache.deletes, cacheKeyActiveTiers)
}

func TestNilCacheWorks(t *testing.T) {
	repo := repository.NewMemoryRepository()
	svc := NewPromotionService(repo, repository.NewMemoryPurchaseHistory(), nil, Options{RoundingPlaces: -1, Clock: func() time.Time { return testNow }})
	require.NoError(t, repo.CreateVolumeDiscount(context.Background(), tier(2, "10")))

	res, err := svc.ApplyVolumeDiscount(context.Background(), 2, d("10"))
	require.NoError(t, err)
	assert.True(t, d("9").Equal(res.FinalPrice))
}
