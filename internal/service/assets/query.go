package assets

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/mamadbah2/assetdesk/internal/domain/models"
)

// PageSize is the fixed number of rows per list page.
const PageSize = 10

// URL parameters of the asset list.
const (
	ParamPage      = "page"
	ParamSearch    = "search"
	ParamStatus    = "status"
	ParamType      = "type"
	ParamSortField = "sortField"
	ParamSortOrder = "sortOrder"
)

const sortDescending = "desc"

// ListQuery is the normalized form of the list URL parameters.
type ListQuery struct {
	models.AssetQuery
}

// ParseListQuery normalizes raw URL parameters. It never fails: unusable
// values fall back to their defaults.
func ParseListQuery(values url.Values) ListQuery {
	page, err := strconv.Atoi(strings.TrimSpace(values.Get(ParamPage)))
	if err != nil || page < 1 {
		page = 1
	}

	q := models.AssetQuery{
		Page:     page,
		PageSize: PageSize,
		Search:   strings.TrimSpace(values.Get(ParamSearch)),
		Status:   valueOr(values.Get(ParamStatus), models.FilterAll),
		Type:     valueOr(values.Get(ParamType), models.FilterAll),
		SortDesc: values.Get(ParamSortOrder) == sortDescending,
	}
	q.SortField = values.Get(ParamSortField)
	q.SortField = q.OrderColumn()

	return ListQuery{AssetQuery: q}
}

// SortOrder returns "asc" or "desc".
func (q ListQuery) SortOrder() string {
	if q.SortDesc {
		return sortDescending
	}
	return "asc"
}

// Values returns the canonical parameters of q. Empty and "all" filters
// are left out.
func (q ListQuery) Values() url.Values {
	values := url.Values{}
	set := func(key, value string) {
		if value != "" && value != models.FilterAll {
			values.Set(key, value)
		}
	}
	set(ParamPage, strconv.Itoa(q.Page))
	set(ParamSearch, q.Search)
	set(ParamStatus, q.Status)
	set(ParamType, q.Type)
	set(ParamSortField, q.SortField)
	set(ParamSortOrder, q.SortOrder())
	return values
}

// Encode returns the canonical query string of q with overrides applied.
// An empty override removes the parameter.
func (q ListQuery) Encode(overrides map[string]string) string {
	values := q.Values()
	for key, value := range overrides {
		if value == "" || value == models.FilterAll {
			values.Del(key)
			continue
		}
		values.Set(key, value)
	}
	return values.Encode()
}

// CacheKey identifies the result set of q.
func (q ListQuery) CacheKey() string {
	return q.Encode(nil)
}

func valueOr(value, fallback string) string {
	if value = strings.TrimSpace(value); value != "" {
		return value
	}
	return fallback
}
