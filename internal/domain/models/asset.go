package models

import "time"

// AssetStatus is the lifecycle state of a tracked device.
type AssetStatus string

const (
	StatusInService         AssetStatus = "in_service"
	StatusUnderRepair       AssetStatus = "under_repair"
	StatusBuybackCompleted  AssetStatus = "buyback_completed"
	StatusDisposed          AssetStatus = "disposed"
	StatusPendingAssignment AssetStatus = "pending_assignment"
)

// AssetStatuses lists every status in display order.
var AssetStatuses = []AssetStatus{
	StatusInService,
	StatusUnderRepair,
	StatusBuybackCompleted,
	StatusDisposed,
	StatusPendingAssignment,
}

// Valid reports whether s is a member of the status enumeration.
func (s AssetStatus) Valid() bool {
	for _, candidate := range AssetStatuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// AssetType classifies the hardware.
type AssetType string

const (
	TypeLaptop  AssetType = "laptop"
	TypeDesktop AssetType = "desktop"
	TypeMonitor AssetType = "monitor"
	TypePhone   AssetType = "phone"
	TypeTablet  AssetType = "tablet"
)

// AssetTypes lists every device type in display order.
var AssetTypes = []AssetType{TypeLaptop, TypeDesktop, TypeMonitor, TypePhone, TypeTablet}

// Valid reports whether t is a member of the type enumeration.
func (t AssetType) Valid() bool {
	for _, candidate := range AssetTypes {
		if t == candidate {
			return true
		}
	}
	return false
}

// Asset is the denormalized view record of one row of the assets table.
// AssignedToName and DepartmentName are resolved from their foreign keys.
type Asset struct {
	ID                 string      `json:"id"`
	Code               string      `json:"asset_code"`
	Type               AssetType   `json:"asset_type"`
	BrandModel         string      `json:"brand_model"`
	PurchasedAt        *time.Time  `json:"purchased_at"`
	PurchasePrice      *float64    `json:"purchase_price"`
	MarketPrice        *float64    `json:"market_price"`
	AssignedTo         *string     `json:"assigned_to"`
	AssignedToName     *string     `json:"assigned_to_name"`
	DepartmentID       *string     `json:"department_id"`
	DepartmentName     *string     `json:"department_name"`
	Status             AssetStatus `json:"status"`
	BuybackAllowed     bool        `json:"is_buyback_allowed"`
	BuybackAvailableAt *time.Time  `json:"buyback_available_at"`
	LastRepairAt       *time.Time  `json:"last_repair_at"`
	RepairCount        int         `json:"repair_count"`
	Notes              *string     `json:"notes"`
}

// AssetWrite is the column set written by both the insert and the update
// path. Repair columns are maintained elsewhere and never written here.
type AssetWrite struct {
	Code               string      `json:"asset_code" bson:"asset_code"`
	Type               AssetType   `json:"asset_type" bson:"asset_type"`
	BrandModel         string      `json:"brand_model" bson:"brand_model"`
	PurchasedAt        *time.Time  `json:"purchased_at" bson:"purchased_at"`
	PurchasePrice      *float64    `json:"purchase_price" bson:"purchase_price"`
	MarketPrice        *float64    `json:"market_price" bson:"market_price"`
	AssignedTo         *string     `json:"assigned_to" bson:"assigned_to"`
	DepartmentID       *string     `json:"department_id" bson:"department_id"`
	Status             AssetStatus `json:"status" bson:"status"`
	BuybackAllowed     bool        `json:"is_buyback_allowed" bson:"is_buyback_allowed"`
	BuybackAvailableAt *time.Time  `json:"buyback_available_at" bson:"buyback_available_at"`
	Notes              *string     `json:"notes" bson:"notes"`
}
