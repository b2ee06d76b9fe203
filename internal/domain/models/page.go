package models

// Paged is one range-bounded slice of a larger result set.
type Paged[T any] struct {
	Data     []T   `json:"data"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
}

// NewPaged never returns a nil Data slice so JSON encodes an empty array.
func NewPaged[T any](data []T, total int64, page, pageSize int) Paged[T] {
	if data == nil {
		data = []T{}
	}
	return Paged[T]{Data: data, Total: total, Page: page, PageSize: pageSize}
}
