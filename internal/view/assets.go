package view

import (
	"fmt"

	"github.com/mamadbah2/assetdesk/internal/domain/models"
	"github.com/mamadbah2/assetdesk/internal/service/assets"
	"github.com/mamadbah2/assetdesk/internal/view/table"
)

// URL parameters that open the drawer on a list page.
const (
	ParamEdit = "edit"
	ParamNew  = "new"
	// ParamReturn carries the list query a form submission returns to.
	ParamReturn = "return"
)

const (
	assetsPath         = "/assets"
	exportPath         = "/assets/export.xlsx"
	missingPrice       = "—"
	unassignedEmployee = "未分配"
	unboundDepartment  = "未绑定"
)

// StatusBadgeClass returns the badge colors of a status.
func StatusBadgeClass(status models.AssetStatus) string {
	switch status {
	case models.StatusUnderRepair:
		return "bg-yellow-100 text-yellow-800"
	case models.StatusDisposed:
		return "bg-gray-200 text-gray-700"
	case models.StatusBuybackCompleted:
		return "bg-emerald-100 text-emerald-700"
	case models.StatusPendingAssignment:
		return "bg-sky-100 text-sky-700"
	default:
		return "bg-emerald-50 text-emerald-700"
	}
}

// FormatPrice renders a monetary cell.
func FormatPrice(price *float64) string {
	if price == nil {
		return missingPrice
	}
	return fmt.Sprintf("¥%.2f", *price)
}

func orPlaceholder(value *string, placeholder string) string {
	if value == nil || *value == "" {
		return placeholder
	}
	return *value
}

// AssetColumns returns the column set of the asset list. Edit links keep
// the current query so the drawer opens over the same page.
func AssetColumns(q assets.ListQuery) []table.Column[models.Asset] {
	return []table.Column[models.Asset]{
		{Key: models.SortByCode, Header: "设备 ID", Sortable: true, Value: func(a models.Asset) string { return a.Code }},
		{Key: models.SortByType, Header: "类型", Sortable: true, Value: func(a models.Asset) string { return string(a.Type) }},
		{Key: models.SortByBrandModel, Header: "品牌型号", Sortable: true, Value: func(a models.Asset) string { return a.BrandModel }},
		{
			Key:      models.SortByStatus,
			Header:   "状态",
			Sortable: true,
			Value:    func(a models.Asset) string { return string(a.Status) },
			Class:    func(a models.Asset) string { return StatusBadgeClass(a.Status) },
		},
		{Key: "assigned_to_name", Header: "使用者", Value: func(a models.Asset) string {
			return orPlaceholder(a.AssignedToName, unassignedEmployee)
		}},
		{Key: "department_name", Header: "所属部门", Value: func(a models.Asset) string {
			return orPlaceholder(a.DepartmentName, unboundDepartment)
		}},
		{Key: models.SortByPrice, Header: "采购价", Sortable: true, Value: func(a models.Asset) string { return FormatPrice(a.PurchasePrice) }},
		{
			Key:    "actions",
			Header: "操作",
			Value:  func(models.Asset) string { return "编辑" },
			Link:   func(a models.Asset) string { return assetsPath + "?" + q.Encode(map[string]string{ParamEdit: a.ID}) },
		},
	}
}

// AssetLinks builds pager and sort links that keep the other parameters.
func AssetLinks(q assets.ListQuery) table.Links {
	return table.Links{
		Page: func(page int) string {
			return assetsPath + "?" + q.Encode(map[string]string{assets.ParamPage: fmt.Sprint(page)})
		},
		Sort: func(field string, desc bool) string {
			order := "asc"
			if desc {
				order = "desc"
			}
			return assetsPath + "?" + q.Encode(map[string]string{assets.ParamSortField: field, assets.ParamSortOrder: order})
		},
	}
}

// Filters is the filter bar of the list page.
type Filters struct {
	Search        string
	StatusOptions []Option
	TypeOptions   []Option
}

// FormView is the drawer form.
type FormView struct {
	Title             string
	Action            string
	Return            string
	CloseURL          string
	Form              assets.AssetForm
	Errors            assets.FieldErrors
	TypeOptions       []Option
	StatusOptions     []Option
	DepartmentOptions []Option
	EmployeeOptions   []Option
}

// AssetsPage is the input of the asset list template.
type AssetsPage struct {
	Title     string
	User      models.User
	Filters   Filters
	Table     table.View
	ListURL   string
	NewURL    string
	ExportURL string
	Drawer    *FormView
}

// NewAssetsPage assembles the list page. drawer may be nil.
func NewAssetsPage(user models.User, page assets.ListPage, drawer *FormView) AssetsPage {
	q := page.Query
	state := table.State{
		Page:      page.Assets.Page,
		PageSize:  page.Assets.PageSize,
		Total:     page.Assets.Total,
		SortField: q.SortField,
		SortDesc:  q.SortDesc,
	}
	return AssetsPage{
		Title: AppTitle,
		User:  user,
		Filters: Filters{
			Search:        q.Search,
			StatusOptions: filterOptions(statusValues(), q.Status),
			TypeOptions:   filterOptions(typeValues(), q.Type),
		},
		Table:     table.Render(page.Assets.Data, AssetColumns(q), state, AssetLinks(q)),
		ListURL:   assetsPath + "?" + q.Encode(nil),
		NewURL:    assetsPath + "?" + q.Encode(map[string]string{ParamNew: "1"}),
		ExportURL: exportPath + "?" + q.Encode(map[string]string{assets.ParamPage: ""}),
		Drawer:    drawer,
	}
}

// NewFormView prepares the drawer for form. submissionID is embedded so a
// double submit is detected server side.
func NewFormView(form assets.AssetForm, errs assets.FieldErrors, lookups models.Lookups, q assets.ListQuery, submissionID string) *FormView {
	title := "新建设备"
	if form.IsEdit() {
		title = "编辑：" + form.Code
	}
	form.SubmissionID = submissionID

	departments := []Option{{Value: "", Label: unassignedEmployee, Selected: form.DepartmentID == ""}}
	for _, d := range lookups.Departments {
		departments = append(departments, Option{Value: d.ID, Label: d.Name, Selected: d.ID == form.DepartmentID})
	}
	employees := []Option{{Value: "", Label: unassignedEmployee, Selected: form.AssignedTo == ""}}
	for _, e := range lookups.Employees {
		employees = append(employees, Option{Value: e.UserID, Label: e.FullName, Selected: e.UserID == form.AssignedTo})
	}

	return &FormView{
		Title:             title,
		Action:            assetsPath,
		Return:            q.Encode(nil),
		CloseURL:          assetsPath + "?" + q.Encode(nil),
		Form:              form,
		Errors:            errs,
		TypeOptions:       selectOptions(typeValues(), form.Type),
		StatusOptions:     selectOptions(statusValues(), form.Status),
		DepartmentOptions: departments,
		EmployeeOptions:   employees,
	}
}

func statusValues() []string {
	values := make([]string, 0, len(models.AssetStatuses))
	for _, s := range models.AssetStatuses {
		values = append(values, string(s))
	}
	return values
}

func typeValues() []string {
	values := make([]string, 0, len(models.AssetTypes))
	for _, t := range models.AssetTypes {
		values = append(values, string(t))
	}
	return values
}

func filterOptions(values []string, selected string) []Option {
	options := []Option{{Value: models.FilterAll, Label: "全部", Selected: selected == models.FilterAll || selected == ""}}
	return append(options, selectOptions(values, selected)...)
}

func selectOptions(values []string, selected string) []Option {
	options := make([]Option, 0, len(values))
	for _, value := range values {
		options = append(options, Option{Value: value, Label: value, Selected: value == selected})
	}
	return options
}
