package view

import (
	"bytes"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/assetdesk/internal/domain/models"
	"github.com/mamadbah2/assetdesk/internal/service/assets"
)

func listPage(q assets.ListQuery, data []models.Asset, total int64) assets.ListPage {
	return assets.ListPage{
		Query:  q,
		Assets: models.NewPaged(data, total, q.Page, q.PageSize),
		Lookups: models.Lookups{
			Departments: []models.Department{{ID: "d1", Name: "研发部"}},
			Employees:   []models.Employee{{UserID: "u1", FullName: "张三"}},
		},
	}
}

func TestAssetColumnsPlaceholders(t *testing.T) {
	q := assets.ParseListQuery(url.Values{})
	asset := models.Asset{ID: "a1", Code: "DEV-2024-AB12", Type: models.TypeLaptop, Status: models.StatusPendingAssignment}

	view := NewAssetsPage(models.User{}, listPage(q, []models.Asset{asset}, 1), nil).Table
	require.Len(t, view.Rows, 1)
	cells := view.Rows[0]

	assert.Equal(t, "DEV-2024-AB12", cells[0].Text)
	assert.Equal(t, "bg-sky-100 text-sky-700", cells[3].Class)
	assert.Equal(t, "未分配", cells[4].Text)
	assert.Equal(t, "未绑定", cells[5].Text)
	assert.Equal(t, "—", cells[6].Text)
	assert.Equal(t, "/assets?edit=a1&page=1&sortField=asset_code&sortOrder=asc", cells[7].URL)
}

func TestFormatPrice(t *testing.T) {
	zero, price := 0.0, 12999.5
	assert.Equal(t, "—", FormatPrice(nil))
	assert.Equal(t, "¥0.00", FormatPrice(&zero))
	assert.Equal(t, "¥12999.50", FormatPrice(&price))
}

func TestStatusBadgeClass(t *testing.T) {
	assert.Equal(t, "bg-yellow-100 text-yellow-800", StatusBadgeClass(models.StatusUnderRepair))
	assert.Equal(t, "bg-gray-200 text-gray-700", StatusBadgeClass(models.StatusDisposed))
	assert.Equal(t, "bg-emerald-100 text-emerald-700", StatusBadgeClass(models.StatusBuybackCompleted))
	assert.Equal(t, "bg-emerald-50 text-emerald-700", StatusBadgeClass(models.StatusInService))
}

func TestAssetLinksKeepQuery(t *testing.T) {
	q := assets.ParseListQuery(url.Values{"status": {"under_repair"}, "page": {"2"}})
	links := AssetLinks(q)

	assert.Equal(t, "/assets?page=3&sortField=asset_code&sortOrder=asc&status=under_repair", links.Page(3))
	assert.Equal(t, "/assets?page=2&sortField=purchase_price&sortOrder=desc&status=under_repair", links.Sort(models.SortByPrice, true))
}

func TestNewFormViewOptions(t *testing.T) {
	q := assets.ParseListQuery(url.Values{})
	form := assets.NewAssetForm()
	form.DepartmentID = "d1"

	drawer := NewFormView(form, nil, models.Lookups{
		Departments: []models.Department{{ID: "d1", Name: "研发部"}},
		Employees:   []models.Employee{{UserID: "u1", FullName: "张三"}},
	}, q, "sub-1")

	assert.Equal(t, "新建设备", drawer.Title)
	assert.Equal(t, "sub-1", drawer.Form.SubmissionID)
	require.Len(t, drawer.DepartmentOptions, 2)
	assert.False(t, drawer.DepartmentOptions[0].Selected)
	assert.True(t, drawer.DepartmentOptions[1].Selected)
	assert.True(t, drawer.EmployeeOptions[0].Selected)
	assert.Len(t, drawer.TypeOptions, len(models.AssetTypes))

	form.ID = "a1"
	form.Code = "DEV-2024-AB12"
	assert.Equal(t, "编辑：DEV-2024-AB12", NewFormView(form, nil, models.Lookups{}, q, "sub-2").Title)
}

func TestTemplatesRender(t *testing.T) {
	tmpl, err := Templates()
	require.NoError(t, err)

	q := assets.ParseListQuery(url.Values{"status": {"under_repair"}, "page": {"2"}})
	drawer := NewFormView(assets.NewAssetForm(), assets.FieldErrors{assets.FieldCode: "设备 ID 必填"}, models.Lookups{}, q, "sub-1")
	page := NewAssetsPage(models.User{Email: "it@company.com"}, listPage(q, nil, 5), drawer)

	var buf bytes.Buffer
	require.NoError(t, tmpl.ExecuteTemplate(&buf, AssetsTemplate, page))
	html := buf.String()
	assert.Contains(t, html, "暂无数据")
	assert.Contains(t, html, "第 2 / 1 页（共 5 条）")
	assert.Contains(t, html, "设备 ID 必填")
	assert.Contains(t, html, `name="submission_id" value="sub-1"`)
	assert.Contains(t, html, "it@company.com")

	buf.Reset()
	require.NoError(t, tmpl.ExecuteTemplate(&buf, LoginTemplate, NewLoginPage("x", map[string]string{"email": "请输入有效的公司邮箱"}, "")))
	assert.Contains(t, buf.String(), "请输入有效的公司邮箱")

	buf.Reset()
	require.NoError(t, tmpl.ExecuteTemplate(&buf, ErrorTemplate, NewErrorPage(LoadFailedMessage, "/assets")))
	assert.Contains(t, buf.String(), LoadFailedMessage)
}
