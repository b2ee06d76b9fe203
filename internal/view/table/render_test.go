package table

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name  string
	Price int
}

var itemColumns = []Column[item]{
	{Key: "name", Header: "名称", Sortable: true, Value: func(i item) string { return i.Name }},
	{Key: "price", Header: "价格", Sortable: true, Value: func(i item) string { return strconv.Itoa(i.Price) }},
	{Key: "actions", Header: "操作", Value: func(item) string { return "编辑" }, Link: func(i item) string { return "/items/" + i.Name }},
}

var itemLinks = Links{
	Page: func(page int) string { return fmt.Sprintf("?page=%d", page) },
	Sort: func(field string, desc bool) string {
		if desc {
			return "?sort=" + field + "&order=desc"
		}
		return "?sort=" + field + "&order=asc"
	},
}

func TestRenderEmpty(t *testing.T) {
	view := Render([]item(nil), itemColumns, State{Page: 1, PageSize: 10}, itemLinks)

	assert.True(t, view.Empty)
	assert.Equal(t, "暂无数据", view.EmptyText)
	assert.Equal(t, 3, view.ColSpan)
	assert.Equal(t, "第 1 / 1 页（共 0 条）", view.Pager.Label)
	assert.False(t, view.Pager.HasPrev)
	assert.False(t, view.Pager.HasNext)
}

func TestRenderKeepsRowOrder(t *testing.T) {
	rows := []item{{"b", 2}, {"a", 1}, {"c", 3}}
	view := Render(rows, itemColumns, State{Page: 1, PageSize: 10, Total: 3}, itemLinks)

	require.Len(t, view.Rows, 3)
	assert.Equal(t, "b", view.Rows[0][0].Text)
	assert.Equal(t, "a", view.Rows[1][0].Text)
	assert.Equal(t, "/items/c", view.Rows[2][2].URL)
}

func TestRenderSortToggle(t *testing.T) {
	view := Render([]item{{"a", 1}}, itemColumns, State{Page: 1, PageSize: 10, Total: 1, SortField: "name"}, itemLinks)
	assert.True(t, view.Headers[0].Active)
	assert.Equal(t, "↑", view.Headers[0].Indicator)
	assert.Equal(t, "?sort=name&order=desc", view.Headers[0].SortURL)
	assert.False(t, view.Headers[1].Active)
	assert.Empty(t, view.Headers[1].Indicator)
	assert.Equal(t, "?sort=price&order=asc", view.Headers[1].SortURL)
	assert.Empty(t, view.Headers[2].SortURL)

	view = Render([]item{{"a", 1}}, itemColumns, State{Page: 1, PageSize: 10, Total: 1, SortField: "name", SortDesc: true}, itemLinks)
	assert.Equal(t, "↓", view.Headers[0].Indicator)
	assert.Equal(t, "?sort=name&order=asc", view.Headers[0].SortURL)
}

func TestRenderPagerBoundaries(t *testing.T) {
	cases := []struct {
		page      int
		total     int64
		label     string
		prev      string
		next      string
		pageCount int
	}{
		{1, 25, "第 1 / 3 页（共 25 条）", "", "?page=2", 3},
		{2, 25, "第 2 / 3 页（共 25 条）", "?page=1", "?page=3", 3},
		{3, 25, "第 3 / 3 页（共 25 条）", "?page=2", "", 3},
		{2, 5, "第 2 / 1 页（共 5 条）", "?page=1", "", 1},
		{1, 10, "第 1 / 1 页（共 10 条）", "", "", 1},
	}
	for _, tc := range cases {
		pager := Render([]item{}, itemColumns, State{Page: tc.page, PageSize: 10, Total: tc.total}, itemLinks).Pager
		assert.Equal(t, tc.label, pager.Label)
		assert.Equal(t, tc.pageCount, pager.PageCount)
		assert.Equal(t, tc.prev, pager.PrevURL)
		assert.Equal(t, tc.next, pager.NextURL)
		assert.Equal(t, tc.prev != "", pager.HasPrev)
		assert.Equal(t, tc.next != "", pager.HasNext)
	}
}

func TestStatePageCount(t *testing.T) {
	assert.Equal(t, 0, State{PageSize: 10}.PageCount())
	assert.Equal(t, 1, State{PageSize: 10, Total: 10}.PageCount())
	assert.Equal(t, 2, State{PageSize: 10, Total: 11}.PageCount())
	assert.Equal(t, 0, State{Total: 11}.PageCount())
}
