package postgrest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mamadbah2/assetdesk/internal/domain/models"
)

type assetRow struct {
	ID                 string             `json:"id"`
	Code               string             `json:"asset_code"`
	Type               models.AssetType   `json:"asset_type"`
	BrandModel         string             `json:"brand_model"`
	PurchasedAt        *timestamp         `json:"purchased_at"`
	PurchasePrice      *float64           `json:"purchase_price"`
	MarketPrice        *float64           `json:"market_price"`
	AssignedTo         *string            `json:"assigned_to"`
	DepartmentID       *string            `json:"department_id"`
	Status             models.AssetStatus `json:"status"`
	BuybackAllowed     bool               `json:"is_buyback_allowed"`
	BuybackAvailableAt *timestamp         `json:"buyback_available_at"`
	LastRepairAt       *timestamp         `json:"last_repair_at"`
	RepairCount        *int               `json:"repair_count"`
	Notes              *string            `json:"notes"`
	Department         *departmentRow     `json:"department"`
	Assignee           *profileRow        `json:"assignee"`
}

type departmentRow struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type profileRow struct {
	UserID   string `json:"user_id"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

func (r assetRow) toModel() models.Asset {
	asset := models.Asset{
		ID:                 r.ID,
		Code:               r.Code,
		Type:               r.Type,
		BrandModel:         r.BrandModel,
		PurchasedAt:        r.PurchasedAt.timePtr(),
		PurchasePrice:      r.PurchasePrice,
		MarketPrice:        r.MarketPrice,
		AssignedTo:         r.AssignedTo,
		DepartmentID:       r.DepartmentID,
		Status:             r.Status,
		BuybackAllowed:     r.BuybackAllowed,
		BuybackAvailableAt: r.BuybackAvailableAt.timePtr(),
		LastRepairAt:       r.LastRepairAt.timePtr(),
		Notes:              r.Notes,
	}
	if r.RepairCount != nil {
		asset.RepairCount = *r.RepairCount
	}
	if r.Assignee != nil {
		name := r.Assignee.FullName
		asset.AssignedToName = &name
	}
	if r.Department != nil {
		name := r.Department.Name
		asset.DepartmentName = &name
		if asset.DepartmentID == nil && r.Department.ID != "" {
			id := r.Department.ID
			asset.DepartmentID = &id
		}
	}
	return asset
}

// writeRow is the JSON body of inserts and updates. Unlike AssetWrite it
// keeps every key present so an update clears columns set to null.
type writeRow struct {
	Code               string             `json:"asset_code"`
	Type               models.AssetType   `json:"asset_type"`
	BrandModel         string             `json:"brand_model"`
	PurchasedAt        *string            `json:"purchased_at"`
	PurchasePrice      *float64           `json:"purchase_price"`
	MarketPrice        *float64           `json:"market_price"`
	AssignedTo         *string            `json:"assigned_to"`
	DepartmentID       *string            `json:"department_id"`
	Status             models.AssetStatus `json:"status"`
	BuybackAllowed     bool               `json:"is_buyback_allowed"`
	BuybackAvailableAt *string            `json:"buyback_available_at"`
	Notes              *string            `json:"notes"`
}

func newWriteRow(w models.AssetWrite) writeRow {
	return writeRow{
		Code:               w.Code,
		Type:               w.Type,
		BrandModel:         w.BrandModel,
		PurchasedAt:        isoTime(w.PurchasedAt),
		PurchasePrice:      w.PurchasePrice,
		MarketPrice:        w.MarketPrice,
		AssignedTo:         w.AssignedTo,
		DepartmentID:       w.DepartmentID,
		Status:             w.Status,
		BuybackAllowed:     w.BuybackAllowed,
		BuybackAvailableAt: isoTime(w.BuybackAvailableAt),
		Notes:              w.Notes,
	}
}

func isoTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format("2006-01-02T15:04:05.000Z")
	return &s
}

// timestamp decodes both timestamptz ("2024-01-02T08:00:00+00:00") and
// date ("2024-01-02") columns.
type timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999-07",
	"2006-01-02",
}

func (t *timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode timestamp: %w", err)
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", raw)
}

func (t *timestamp) timePtr() *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}
