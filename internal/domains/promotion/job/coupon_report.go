package job

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"novelstore-backend/internal/domains/promotion/model"
)

const couponReportSheet = "Coupon usage"

var couponReportHeaders = []string{
	"Code",
	"Discount Type",
	"Discount Value",
	"Currency",
	"Restriction",
	"Start Date",
	"End Date",
	"Active",
	"Usage Limit",
	"Current Usage",
	"Remaining Uses",
	"Redemptions",
	"Total Discount Given",
	"Unique Users",
}

// CouponReportRow - một coupon cùng thống kê redemption của nó
type CouponReportRow struct {
	Coupon *model.Coupon
	Stats  *model.RedemptionStats
}

// BuildCouponReport render danh sách coupon thành file xlsx một sheet
//
// Row 1 là header, data bắt đầu từ row 2, dòng cuối ghi thời điểm generate.
func BuildCouponReport(rows []CouponReportRow, generatedAt time.Time) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", couponReportSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for colIdx, header := range couponReportHeaders {
		cell, _ := excelize.CoordinatesToCellName(colIdx+1, 1)
		f.SetCellValue(couponReportSheet, cell, header)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err == nil {
		lastHeader, _ := excelize.CoordinatesToCellName(len(couponReportHeaders), 1)
		f.SetCellStyle(couponReportSheet, "A1", lastHeader, headerStyle)
	}

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := couponReportValues(row)
		if err := f.SetSheetRow(couponReportSheet, cell, &values); err != nil {
			f.Close()
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	footer, _ := excelize.CoordinatesToCellName(1, len(rows)+3)
	f.SetCellValue(couponReportSheet, footer, "Generated at "+generatedAt.UTC().Format(time.RFC3339))

	return f, nil
}

func couponReportValues(row CouponReportRow) []interface{} {
	c := row.Coupon

	currency := ""
	if c.Currency != nil {
		currency = *c.Currency
	}

	var usageLimit, remaining interface{} = "unlimited", "unlimited"
	if c.UsageLimit != nil {
		usageLimit = *c.UsageLimit
		remaining = *c.RemainingUses()
	}

	stats := row.Stats
	if stats == nil {
		stats = &model.RedemptionStats{TotalDiscountGiven: decimal.Zero}
	}

	return []interface{}{
		c.Code,
		string(c.DiscountType),
		c.DiscountValue.InexactFloat64(),
		currency,
		string(c.Restriction),
		c.StartDate.UTC().Format(time.RFC3339),
		c.EndDate.UTC().Format(time.RFC3339),
		c.IsActive,
		usageLimit,
		c.CurrentUsage,
		remaining,
		stats.TotalRedemptions,
		stats.TotalDiscountGiven.InexactFloat64(),
		stats.UniqueUsers,
	}
}
