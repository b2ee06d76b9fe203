// Package table renders server-driven tables: the rows arrive already
// sorted and paged, and every control is a link back to the server.
package table

// EmptyText is shown in the placeholder row of an empty table.
const EmptyText = "暂无数据"

// Column describes one table column over rows of type T.
type Column[T any] struct {
	Key      string
	Header   string
	Sortable bool
	Value    func(T) string
	// Class optionally styles the cell, e.g. a status badge.
	Class func(T) string
	// Link optionally turns the cell into a link.
	Link func(T) string
}

// State is the sort and page position the rows were loaded with.
type State struct {
	Page      int
	PageSize  int
	Total     int64
	SortField string
	SortDesc  bool
}

// PageCount returns ceil(Total / PageSize).
func (s State) PageCount() int {
	if s.PageSize <= 0 || s.Total <= 0 {
		return 0
	}
	return int((s.Total + int64(s.PageSize) - 1) / int64(s.PageSize))
}

// Links builds URLs for the table controls.
type Links struct {
	Page func(page int) string
	Sort func(field string, desc bool) string
}

// Header is a rendered header cell.
type Header struct {
	Key       string
	Label     string
	Sortable  bool
	Active    bool
	Indicator string
	SortURL   string
}

// Cell is a rendered body cell.
type Cell struct {
	Text  string
	Class string
	URL   string
}

// Pager is the rendered pagination bar.
type Pager struct {
	Page      int
	PageCount int
	Total     int64
	Label     string
	HasPrev   bool
	HasNext   bool
	PrevURL   string
	NextURL   string
}

// View is the template input of a rendered table.
type View struct {
	Headers   []Header
	Rows      [][]Cell
	Empty     bool
	EmptyText string
	ColSpan   int
	Pager     Pager
}
