package models

// Sortable columns of the asset list. Anything else falls back to
// SortByCode so arbitrary column names never reach the store.
const (
	SortByCode       = "asset_code"
	SortByType       = "asset_type"
	SortByStatus     = "status"
	SortByPrice      = "purchase_price"
	SortByBrandModel = "brand_model"
)

// SortFields is the sort allow-list.
var SortFields = []string{SortByCode, SortByType, SortByStatus, SortByPrice, SortByBrandModel}

// FilterAll disables the status or type filter.
const FilterAll = "all"

// AssetQuery is a normalized list request. Status and Type keep the raw
// requested value so it can be echoed back; only enum members are applied.
type AssetQuery struct {
	Page      int
	PageSize  int
	Search    string
	Status    string
	Type      string
	SortField string
	SortDesc  bool
}

// StatusFilter returns the status to filter on, if any.
func (q AssetQuery) StatusFilter() (AssetStatus, bool) {
	status := AssetStatus(q.Status)
	if q.Status == "" || q.Status == FilterAll || !status.Valid() {
		return "", false
	}
	return status, true
}

// TypeFilter returns the device type to filter on, if any.
func (q AssetQuery) TypeFilter() (AssetType, bool) {
	assetType := AssetType(q.Type)
	if q.Type == "" || q.Type == FilterAll || !assetType.Valid() {
		return "", false
	}
	return assetType, true
}

// OrderColumn returns the effective ordering column.
func (q AssetQuery) OrderColumn() string {
	for _, field := range SortFields {
		if q.SortField == field {
			return field
		}
	}
	return SortByCode
}

// Range returns the inclusive zero-based row interval of the page.
func (q AssetQuery) Range() (from, to int) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	from = (page - 1) * q.PageSize
	return from, from + q.PageSize - 1
}
