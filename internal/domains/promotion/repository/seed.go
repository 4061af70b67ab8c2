package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"novelstore-backend/internal/domains/promotion/model"
)

// DemoReturningBuyers là các user đã có lịch sử mua, seed cùng demo data
// để coupon first_time_purchase có thể bị từ chối ở memory mode
var DemoReturningBuyers = []string{"demo-returning-buyer"}

// SeedDemoData nạp bộ promotion mẫu cho môi trường dev (memory store)
// Các record có hiệu lực từ now-1 ngày đến now+90 ngày
func SeedDemoData(ctx context.Context, repo PromotionRepository, now time.Time) error {
	start := now.AddDate(0, 0, -1)
	end := now.AddDate(0, 0, 90)

	usd := "USD"
	fifty := decimal.NewFromInt(50)
	maxDiscount := decimal.NewFromInt(25)
	limit := 100

	coupons := []*model.Coupon{
		{
			Code:              "WELCOME10",
			DiscountType:      model.DiscountTypePercentage,
			DiscountValue:     decimal.NewFromInt(10),
			MaxDiscountAmount: &maxDiscount,
			StartDate:         start,
			EndDate:           end,
			IsActive:          true,
			Restriction:       model.RestrictionFirstTimePurchase,
		},
		{
			Code:              "SAVE5",
			DiscountType:      model.DiscountTypeFixedAmount,
			DiscountValue:     decimal.NewFromInt(5),
			Currency:          &usd,
			MinPurchaseAmount: &fifty,
			StartDate:         start,
			EndDate:           end,
			UsageLimit:        &limit,
			IsActive:          true,
			Restriction:       model.RestrictionMinimumPurchase,
		},
		{
			Code:              "SAGA20",
			DiscountType:      model.DiscountTypePercentage,
			DiscountValue:     decimal.NewFromInt(20),
			StartDate:         start,
			EndDate:           end,
			IsActive:          true,
			Restriction:       model.RestrictionSpecificNovel,
			RestrictionValues: []string{"novel-1", "novel-2"},
		},
	}
	for _, c := range coupons {
		if err := repo.CreateCoupon(ctx, c); err != nil {
			return fmt.Errorf("seed coupon %s: %w", c.Code, err)
		}
	}

	offers := []*model.SpecialOffer{
		{
			Name:          "Launch week",
			DiscountType:  model.DiscountTypePercentage,
			DiscountValue: decimal.NewFromInt(15),
			StartDate:     start,
			EndDate:       end,
			IsActive:      true,
		},
		{
			Name:           "Featured novel",
			DiscountType:   model.DiscountTypeFixedAmount,
			DiscountValue:  decimal.NewFromInt(3),
			StartDate:      start,
			EndDate:        end,
			IsActive:       true,
			TargetNovelIDs: []string{"novel-1"},
		},
	}
	for _, o := range offers {
		if err := repo.CreateOffer(ctx, o); err != nil {
			return fmt.Errorf("seed offer %s: %w", o.Name, err)
		}
	}

	tiers := []struct {
		min     int
		percent int64
	}{
		{2, 10},
		{5, 20},
		{10, 30},
	}
	for _, t := range tiers {
		tier := &model.VolumeDiscount{
			MinQuantity:        t.min,
			DiscountPercentage: decimal.NewFromInt(t.percent),
			IsActive:           true,
			StartDate:          start,
			EndDate:            end,
		}
		if err := repo.CreateVolumeDiscount(ctx, tier); err != nil {
			return fmt.Errorf("seed volume tier %d: %w", t.min, err)
		}
	}

	return nil
}
