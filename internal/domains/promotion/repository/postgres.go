package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"novelstore-backend/internal/domains/promotion/model"
	"novelstore-backend/pkg/database"
	"novelstore-backend/pkg/logger"
)

// PostgresRepository triển khai PromotionRepository với PostgreSQL
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository tạo instance mới
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const couponColumns = `
	id, code, discount_type, discount_value, currency,
	min_purchase_amount, max_discount_amount,
	start_date, end_date, usage_limit, current_usage, is_active,
	restriction, restriction_values,
	created_at, updated_at`

const offerColumns = `
	id, name, discount_type, discount_value,
	start_date, end_date, is_active, target_novel_ids,
	created_at, updated_at`

const volumeColumns = `
	id, min_quantity, discount_percentage, is_active,
	start_date, end_date, created_at, updated_at`

// statusClause trả về điều kiện WHERE cho status filter
func statusClause(filter *model.ListFilter) string {
	switch filter.Status {
	case "active":
		return "WHERE is_active = true"
	case "inactive":
		return "WHERE is_active = false"
	}
	return ""
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// -------------------------------------------------------------------
// COUPONS
// -------------------------------------------------------------------

func scanCoupon(row pgx.Row) (*model.Coupon, error) {
	var c model.Coupon
	err := row.Scan(
		&c.ID,
		&c.Code,
		&c.DiscountType,
		&c.DiscountValue,
		&c.Currency,          // nullable
		&c.MinPurchaseAmount, // nullable
		&c.MaxDiscountAmount, // nullable
		&c.StartDate,
		&c.EndDate,
		&c.UsageLimit, // nullable = unlimited
		&c.CurrentUsage,
		&c.IsActive,
		&c.Restriction,
		pq.Array(&c.RestrictionValues),
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PostgresRepository) FindCouponByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1`

	c, err := scanCoupon(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("find coupon by id: %w", err)
	}
	return c, nil
}

// FindActiveCouponByCode so khớp code chính xác (case-sensitive)
func (r *PostgresRepository) FindActiveCouponByCode(ctx context.Context, code string) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE code = $1 AND is_active = true`

	c, err := scanCoupon(r.db.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("find coupon by code: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) ListCoupons(ctx context.Context, filter *model.ListFilter) ([]*model.Coupon, int, error) {
	where := statusClause(filter)
	query := fmt.Sprintf(`SELECT %s FROM coupons %s ORDER BY created_at ASC, id ASC`, couponColumns, where)

	var args []interface{}
	if filter.Limit > 0 {
		query += ` LIMIT $1 OFFSET $2`
		args = append(args, filter.Limit, filter.Offset())
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list coupons: %w", err)
	}
	defer rows.Close()

	coupons := make([]*model.Coupon, 0)
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan coupon: %w", err)
		}
		coupons = append(coupons, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate coupons: %w", err)
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM coupons "+where).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count coupons: %w", err)
	}

	return coupons, total, nil
}

func (r *PostgresRepository) CreateCoupon(ctx context.Context, c *model.Coupon) error {
	query := `
		INSERT INTO coupons (
			code, discount_type, discount_value, currency,
			min_purchase_amount, max_discount_amount,
			start_date, end_date, usage_limit, current_usage, is_active,
			restriction, restriction_values,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, 0, $10, $11, $12, NOW(), NOW()
		)
		RETURNING id, current_usage, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		c.Code,
		c.DiscountType,
		c.DiscountValue,
		c.Currency,
		c.MinPurchaseAmount,
		c.MaxDiscountAmount,
		c.StartDate,
		c.EndDate,
		c.UsageLimit,
		c.IsActive,
		c.Restriction,
		pq.Array(c.RestrictionValues),
	).Scan(&c.ID, &c.CurrentUsage, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrDuplicateCode
		}
		logger.Error("create coupon failed", err)
		return fmt.Errorf("create coupon: %w", err)
	}
	return nil
}

// UpdateCoupon cập nhật mọi field trừ code và current_usage
func (r *PostgresRepository) UpdateCoupon(ctx context.Context, c *model.Coupon) error {
	query := `
		UPDATE coupons
		SET
			discount_type = $2,
			discount_value = $3,
			currency = $4,
			min_purchase_amount = $5,
			max_discount_amount = $6,
			start_date = $7,
			end_date = $8,
			usage_limit = $9,
			is_active = $10,
			restriction = $11,
			restriction_values = $12,
			updated_at = NOW()
		WHERE id = $1
		RETURNING current_usage, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		c.ID,
		c.DiscountType,
		c.DiscountValue,
		c.Currency,
		c.MinPurchaseAmount,
		c.MaxDiscountAmount,
		c.StartDate,
		c.EndDate,
		c.UsageLimit,
		c.IsActive,
		c.Restriction,
		pq.Array(c.RestrictionValues),
	).Scan(&c.CurrentUsage, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrNotFound
		}
		return fmt.Errorf("update coupon: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateCouponStatus(ctx context.Context, id uuid.UUID, isActive bool) error {
	return r.updateStatus(ctx, "coupons", id, isActive)
}

func (r *PostgresRepository) DeleteCoupon(ctx context.Context, id uuid.UUID) error {
	return r.deleteByID(ctx, "coupons", id)
}

// RedeemCoupon tăng current_usage và ghi redemption trong cùng transaction.
// Điều kiện current_usage < usage_limit nằm trong câu UPDATE nên hai request
// đồng thời không thể cùng vượt limit.
func (r *PostgresRepository) RedeemCoupon(ctx context.Context, rd *model.CouponRedemption) (*model.Coupon, error) {
	return database.WithTransactionResult(ctx, r.db, func(tx pgx.Tx) (*model.Coupon, error) {
		query := `
			UPDATE coupons
			SET current_usage = current_usage + 1, updated_at = NOW()
			WHERE id = $1
			  AND (usage_limit IS NULL OR current_usage < usage_limit)
			RETURNING ` + couponColumns

		c, err := scanCoupon(tx.QueryRow(ctx, query, rd.CouponID))
		if err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("increment coupon usage: %w", err)
			}
			// Phân biệt coupon không tồn tại với coupon đã hết lượt
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM coupons WHERE id = $1)`, rd.CouponID).Scan(&exists); err != nil {
				return nil, fmt.Errorf("check coupon exists: %w", err)
			}
			if !exists {
				return nil, model.ErrNotFound
			}
			return nil, model.ErrUsageLimitReached
		}

		insert := `
			INSERT INTO coupon_redemptions (
				coupon_id, code, user_id, novel_id,
				purchase_amount, discount_amount, final_amount, redeemed_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id
		`
		err = tx.QueryRow(ctx, insert,
			rd.CouponID,
			rd.Code,
			rd.UserID,
			rd.NovelID,
			rd.PurchaseAmount,
			rd.DiscountAmount,
			rd.FinalAmount,
			rd.RedeemedAt,
		).Scan(&rd.ID)
		if err != nil {
			return nil, fmt.Errorf("insert coupon redemption: %w", err)
		}

		return c, nil
	})
}

func (r *PostgresRepository) ListRedemptions(ctx context.Context, couponID uuid.UUID, page, limit int) ([]*model.CouponRedemption, int, error) {
	offset := (page - 1) * limit
	query := `
		SELECT id, coupon_id, code, user_id, novel_id,
		       purchase_amount, discount_amount, final_amount, redeemed_at
		FROM coupon_redemptions
		WHERE coupon_id = $1
		ORDER BY redeemed_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, couponID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list redemptions: %w", err)
	}
	defer rows.Close()

	items := make([]*model.CouponRedemption, 0)
	for rows.Next() {
		var rd model.CouponRedemption
		if err := rows.Scan(
			&rd.ID, &rd.CouponID, &rd.Code, &rd.UserID, &rd.NovelID,
			&rd.PurchaseAmount, &rd.DiscountAmount, &rd.FinalAmount, &rd.RedeemedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan redemption: %w", err)
		}
		items = append(items, &rd)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate redemptions: %w", err)
	}

	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM coupon_redemptions WHERE coupon_id = $1`, couponID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count redemptions: %w", err)
	}

	return items, total, nil
}

func (r *PostgresRepository) GetRedemptionStats(ctx context.Context, couponID uuid.UUID) (*model.RedemptionStats, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(discount_amount), 0),
			COUNT(DISTINCT user_id)
		FROM coupon_redemptions
		WHERE coupon_id = $1
	`

	stats := &model.RedemptionStats{TotalDiscountGiven: decimal.Zero}
	err := r.db.QueryRow(ctx, query, couponID).Scan(
		&stats.TotalRedemptions,
		&stats.TotalDiscountGiven,
		&stats.UniqueUsers,
	)
	if err != nil {
		return nil, fmt.Errorf("get redemption stats: %w", err)
	}
	return stats, nil
}

// -------------------------------------------------------------------
// SPECIAL OFFERS
// -------------------------------------------------------------------

func scanOffer(row pgx.Row) (*model.SpecialOffer, error) {
	var o model.SpecialOffer
	err := row.Scan(
		&o.ID,
		&o.Name,
		&o.DiscountType,
		&o.DiscountValue,
		&o.StartDate,
		&o.EndDate,
		&o.IsActive,
		pq.Array(&o.TargetNovelIDs),
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *PostgresRepository) FindOfferByID(ctx context.Context, id uuid.UUID) (*model.SpecialOffer, error) {
	query := `SELECT ` + offerColumns + ` FROM special_offers WHERE id = $1`

	o, err := scanOffer(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("find offer by id: %w", err)
	}
	return o, nil
}

// ListOffers trả về theo thứ tự tạo; Limit = 0 nghĩa là lấy tất cả
func (r *PostgresRepository) ListOffers(ctx context.Context, filter *model.ListFilter) ([]*model.SpecialOffer, int, error) {
	where := statusClause(filter)
	query := fmt.Sprintf(`SELECT %s FROM special_offers %s ORDER BY created_at ASC, id ASC`, offerColumns, where)

	var args []interface{}
	if filter.Limit > 0 {
		query += ` LIMIT $1 OFFSET $2`
		args = append(args, filter.Limit, filter.Offset())
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list offers: %w", err)
	}
	defer rows.Close()

	offers := make([]*model.SpecialOffer, 0)
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan offer: %w", err)
		}
		offers = append(offers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate offers: %w", err)
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM special_offers "+where).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count offers: %w", err)
	}

	return offers, total, nil
}

func (r *PostgresRepository) CreateOffer(ctx context.Context, o *model.SpecialOffer) error {
	query := `
		INSERT INTO special_offers (
			name, discount_type, discount_value,
			start_date, end_date, is_active, target_novel_ids,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		o.Name,
		o.DiscountType,
		o.DiscountValue,
		o.StartDate,
		o.EndDate,
		o.IsActive,
		pq.Array(o.TargetNovelIDs),
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create offer: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateOffer(ctx context.Context, o *model.SpecialOffer) error {
	query := `
		UPDATE special_offers
		SET
			name = $2,
			discount_type = $3,
			discount_value = $4,
			start_date = $5,
			end_date = $6,
			is_active = $7,
			target_novel_ids = $8,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query,
		o.ID,
		o.Name,
		o.DiscountType,
		o.DiscountValue,
		o.StartDate,
		o.EndDate,
		o.IsActive,
		pq.Array(o.TargetNovelIDs),
	).Scan(&o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrNotFound
		}
		return fmt.Errorf("update offer: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateOfferStatus(ctx context.Context, id uuid.UUID, isActive bool) error {
	return r.updateStatus(ctx, "special_offers", id, isActive)
}

func (r *PostgresRepository) DeleteOffer(ctx context.Context, id uuid.UUID) error {
	return r.deleteByID(ctx, "special_offers", id)
}

// -------------------------------------------------------------------
// VOLUME DISCOUNTS
// -------------------------------------------------------------------

func scanVolumeDiscount(row pgx.Row) (*model.VolumeDiscount, error) {
	var v model.VolumeDiscount
	err := row.Scan(
		&v.ID,
		&v.MinQuantity,
		&v.DiscountPercentage,
		&v.IsActive,
		&v.StartDate,
		&v.EndDate,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *PostgresRepository) FindVolumeDiscountByID(ctx context.Context, id uuid.UUID) (*model.VolumeDiscount, error) {
	query := `SELECT ` + volumeColumns + ` FROM volume_discounts WHERE id = $1`

	v, err := scanVolumeDiscount(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("find volume discount by id: %w", err)
	}
	return v, nil
}

func (r *PostgresRepository) ListVolumeDiscounts(ctx context.Context, filter *model.ListFilter) ([]*model.VolumeDiscount, int, error) {
	where := statusClause(filter)
	query := fmt.Sprintf(`SELECT %s FROM volume_discounts %s ORDER BY created_at ASC, id ASC`, volumeColumns, where)

	var args []interface{}
	if filter.Limit > 0 {
		query += ` LIMIT $1 OFFSET $2`
		args = append(args, filter.Limit, filter.Offset())
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list volume discounts: %w", err)
	}
	defer rows.Close()

	tiers := make([]*model.VolumeDiscount, 0)
	for rows.Next() {
		v, err := scanVolumeDiscount(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan volume discount: %w", err)
		}
		tiers = append(tiers, v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate volume discounts: %w", err)
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM volume_discounts "+where).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count volume discounts: %w", err)
	}

	return tiers, total, nil
}

func (r *PostgresRepository) CreateVolumeDiscount(ctx context.Context, v *model.VolumeDiscount) error {
	query := `
		INSERT INTO volume_discounts (
			min_quantity, discount_percentage, is_active,
			start_date, end_date, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		v.MinQuantity,
		v.DiscountPercentage,
		v.IsActive,
		v.StartDate,
		v.EndDate,
	).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create volume discount: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateVolumeDiscount(ctx context.Context, v *model.VolumeDiscount) error {
	query := `
		UPDATE volume_discounts
		SET
			min_quantity = $2,
			discount_percentage = $3,
			is_active = $4,
			start_date = $5,
			end_date = $6,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query,
		v.ID,
		v.MinQuantity,
		v.DiscountPercentage,
		v.IsActive,
		v.StartDate,
		v.EndDate,
	).Scan(&v.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrNotFound
		}
		return fmt.Errorf("update volume discount: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateVolumeDiscountStatus(ctx context.Context, id uuid.UUID, isActive bool) error {
	return r.updateStatus(ctx, "volume_discounts", id, isActive)
}

func (r *PostgresRepository) DeleteVolumeDiscount(ctx context.Context, id uuid.UUID) error {
	return r.deleteByID(ctx, "volume_discounts", id)
}

// -------------------------------------------------------------------
// SHARED
// -------------------------------------------------------------------

// table luôn là hằng số nội bộ, không bao giờ đến từ request
func (r *PostgresRepository) updateStatus(ctx context.Context, table string, id uuid.UUID, isActive bool) error {
	query := fmt.Sprintf(`UPDATE %s SET is_active = $2, updated_at = NOW() WHERE id = $1`, pq.QuoteIdentifier(table))

	result, err := r.db.Exec(ctx, query, id, isActive)
	if err != nil {
		return fmt.Errorf("update %s status: %w", table, err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) deleteByID(ctx context.Context, table string, id uuid.UUID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, pq.QuoteIdentifier(table))

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if result.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

var _ PromotionRepository = (*PostgresRepository)(nil)
