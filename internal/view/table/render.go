package table

import "fmt"

const (
	indicatorAsc  = "↑"
	indicatorDesc = "↓"
)

// Render lays rows out under columns. Rows are rendered in the order given.
func Render[T any](rows []T, columns []Column[T], state State, links Links) View {
	view := View{
		Headers:   make([]Header, 0, len(columns)),
		Rows:      make([][]Cell, 0, len(rows)),
		EmptyText: EmptyText,
		ColSpan:   len(columns),
	}

	for _, col := range columns {
		header := Header{Key: col.Key, Label: col.Header, Sortable: col.Sortable}
		if col.Sortable {
			header.Active = state.SortField == col.Key
			nextDesc := false
			if header.Active {
				header.Indicator = indicatorAsc
				if state.SortDesc {
					header.Indicator = indicatorDesc
				} else {
					nextDesc = true
				}
			}
			if links.Sort != nil {
				header.SortURL = links.Sort(col.Key, nextDesc)
			}
		}
		view.Headers = append(view.Headers, header)
	}

	for _, row := range rows {
		cells := make([]Cell, 0, len(columns))
		for _, col := range columns {
			var cell Cell
			if col.Value != nil {
				cell.Text = col.Value(row)
			}
			if col.Class != nil {
				cell.Class = col.Class(row)
			}
			if col.Link != nil {
				cell.URL = col.Link(row)
			}
			cells = append(cells, cell)
		}
		view.Rows = append(view.Rows, cells)
	}
	view.Empty = len(view.Rows) == 0

	view.Pager = renderPager(state, links)
	return view
}

func renderPager(state State, links Links) Pager {
	page := state.Page
	if page < 1 {
		page = 1
	}
	pageCount := state.PageCount()

	pager := Pager{
		Page:      page,
		PageCount: pageCount,
		Total:     state.Total,
		Label:     fmt.Sprintf("第 %d / %d 页（共 %d 条）", page, max(pageCount, 1), state.Total),
		HasPrev:   page > 1,
		HasNext:   page < pageCount,
	}
	if links.Page != nil {
		if pager.HasPrev {
			pager.PrevURL = links.Page(page - 1)
		}
		if pager.HasNext {
			pager.NextURL = links.Page(page + 1)
		}
	}
	return pager
}
