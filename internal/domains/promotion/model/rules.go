package model

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Validate kiểm tra coupon sau khi merge partial update
func (c Coupon) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.DiscountType,
			validation.By(func(interface{}) error {
				if !c.DiscountType.IsValid() {
					return errors.New("unknown discount_type")
				}
				return nil
			}),
		),
		validation.Field(&c.DiscountValue, validation.By(nonNegativeDecimal)),
		validation.Field(&c.Currency,
			validation.When(c.DiscountType == DiscountTypeFixedAmount,
				validation.Required.Error("currency is required for fixed_amount coupons"),
			),
		),
		validation.Field(&c.MinPurchaseAmount,
			validation.By(nonNegativeDecimal),
			validation.When(c.Restriction == RestrictionMinimumPurchase,
				validation.Required.Error("min_purchase_amount is required for minimum_purchase coupons"),
			),
		),
		validation.Field(&c.MaxDiscountAmount, validation.By(nonNegativeDecimal)),
		validation.Field(&c.EndDate, validation.By(endNotBefore(c.StartDate, c.EndDate))),
		validation.Field(&c.UsageLimit,
			validation.When(c.UsageLimit != nil,
				validation.Min(c.CurrentUsage).Error("usage_limit must not be below current_usage"),
			),
		),
		validation.Field(&c.Restriction,
			validation.By(func(interface{}) error {
				if !c.Restriction.IsValid() {
					return errors.New("unknown restriction")
				}
				return nil
			}),
		),
		validation.Field(&c.RestrictionValues,
			validation.When(c.Restriction == RestrictionSpecificNovel,
				validation.Required.Error("restriction_values is required for specific_novel coupons"),
			),
		),
	)
}

// Validate kiểm tra offer sau khi merge partial update
func (o SpecialOffer) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Name, validation.Required, validation.Length(3, 200)),
		validation.Field(&o.DiscountType,
			validation.By(func(interface{}) error {
				if !o.DiscountType.IsValid() {
					return errors.New("unknown discount_type")
				}
				return nil
			}),
		),
		validation.Field(&o.DiscountValue, validation.By(nonNegativeDecimal)),
		validation.Field(&o.EndDate, validation.By(endNotBefore(o.StartDate, o.EndDate))),
	)
}

// Validate kiểm tra volume tier sau khi merge partial update
func (v VolumeDiscount) Validate() error {
	return validation.ValidateStruct(&v,
		validation.Field(&v.MinQuantity, validation.Min(1).Error("min_quantity must be >= 1")),
		validation.Field(&v.DiscountPercentage, validation.By(nonNegativeDecimal)),
		validation.Field(&v.EndDate, validation.By(endNotBefore(v.StartDate, v.EndDate))),
	)
}

func endNotBefore(start, end time.Time) validation.RuleFunc {
	return func(interface{}) error {
		if end.Before(start) {
			return errors.New("end_date must not be before start_date")
		}
		return nil
	}
}
