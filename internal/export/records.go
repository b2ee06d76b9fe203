// Package export lays assets out as spreadsheet rows, for the XLSX download
// and the inventory sheet sync.
package export

import (
	"time"

	"github.com/mamadbah2/assetdesk/internal/domain/models"
)

const dateLayout = "2006-01-02"

// Header is the column row shared by every export.
var Header = []string{
	"设备 ID",
	"类型",
	"品牌型号",
	"状态",
	"使用者",
	"所属部门",
	"采购时间",
	"采购价格",
	"市场价格",
	"允许回购",
	"可回购时间",
	"最近维修",
	"维修次数",
	"备注",
}

// Record returns the cells of one asset in Header order. Missing values are
// empty strings so spreadsheet cells stay blank.
func Record(a models.Asset) []any {
	return []any{
		a.Code,
		string(a.Type),
		a.BrandModel,
		string(a.Status),
		text(a.AssignedToName),
		text(a.DepartmentName),
		date(a.PurchasedAt),
		number(a.PurchasePrice),
		number(a.MarketPrice),
		yesNo(a.BuybackAllowed),
		date(a.BuybackAvailableAt),
		date(a.LastRepairAt),
		a.RepairCount,
		text(a.Notes),
	}
}

// Records converts a list of assets, header first.
func Records(assets []models.Asset) [][]any {
	rows := make([][]any, 0, len(assets)+1)
	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	rows = append(rows, header)
	for _, a := range assets {
		rows = append(rows, Record(a))
	}
	return rows
}

func text(s *string) any {
	if s == nil {
		return ""
	}
	return *s
}

func date(t *time.Time) any {
	if t == nil {
		return ""
	}
	return t.UTC().Format(dateLayout)
}

func number(f *float64) any {
	if f == nil {
		return ""
	}
	return *f
}

func yesNo(b bool) string {
	if b {
		return "是"
	}
	return "否"
}
