package assets

import (
	"fmt"
	"math"
	"net/url"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mamadbah2/assetdesk/internal/domain/models"
)

// Form field names, shared by the HTML form, the JSON payload and FieldErrors.
const (
	FieldID                 = "id"
	FieldSubmissionID       = "submission_id"
	FieldCode               = "asset_code"
	FieldType               = "asset_type"
	FieldBrandModel         = "brand_model"
	FieldPurchasedAt        = "purchased_at"
	FieldPurchasePrice      = "purchase_price"
	FieldMarketPrice        = "market_price"
	FieldAssignedTo         = "assigned_to"
	FieldDepartmentID       = "department_id"
	FieldStatus             = "status"
	FieldBuybackAllowed     = "is_buyback_allowed"
	FieldBuybackAvailableAt = "buyback_available_at"
	FieldNotes              = "notes"
)

const dateLayout = "2006-01-02"

var assetCodePattern = regexp.MustCompile(`(?i)^DEV-[0-9]{4}-[0-9A-Z]{4}$`)

var v = newValidator()

func newValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	if err := registerValidations(validate, customValidations); err != nil {
		panic(err)
	}
	return validate
}

var customValidations = map[string]validator.Func{
	"asset_code": func(fl validator.FieldLevel) bool {
		return assetCodePattern.MatchString(fl.Field().String())
	},
	"asset_type": func(fl validator.FieldLevel) bool {
		return models.AssetType(fl.Field().String()).Valid()
	},
	"asset_status": func(fl validator.FieldLevel) bool {
		return models.AssetStatus(fl.Field().String()).Valid()
	},
}

func registerValidations(validate *validator.Validate, funcs map[string]validator.Func) error {
	for tag, fn := range funcs {
		if err := validate.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %q validation: %w", tag, err)
		}
	}
	return nil
}

// messages maps field and failed validation tag to the message shown next
// to the input.
var messages = map[string]map[string]string{
	FieldID:            {"uuid": "设备记录无效"},
	FieldCode:          {"required": "设备 ID 必填", "asset_code": "建议使用 DEV-YYYY-XXXX 结构"},
	FieldType:          {"asset_type": "设备类型不在枚举范围内"},
	FieldBrandModel:    {"required": "品牌型号必填"},
	FieldPurchasePrice: {"gte": "采购价格需大于等于 0"},
	FieldMarketPrice:   {"gte": "市场价格需大于等于 0"},
	FieldAssignedTo:    {"uuid": "使用者需选择"},
	FieldDepartmentID:  {"uuid": "所属部门需选择"},
	FieldStatus:        {"asset_status": "设备状态不在枚举范围内"},
	FieldNotes:         {"max": "备注不能超过 255 字"},
}

const (
	msgInvalidNumber = "请输入有效的数字"
	msgInvalidDate   = "日期格式应为 YYYY-MM-DD"
	msgInvalidValue  = "输入无效"
)

// FieldErrors maps a form field to the first message raised for it.
type FieldErrors map[string]string

// Add records msg for field unless the field already has a message.
func (e FieldErrors) Add(field, msg string) {
	if _, exists := e[field]; !exists {
		e[field] = msg
	}
}

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	slices.Sort(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+e[field])
	}
	return "invalid asset form: " + strings.Join(parts, "; ")
}

// AssetForm holds the raw values of the asset drawer form. It is both what
// a submission is parsed from and what the form is rendered with.
type AssetForm struct {
	ID                 string
	SubmissionID       string
	Code               string
	Type               string
	BrandModel         string
	PurchasedAt        string
	PurchasePrice      string
	MarketPrice        string
	AssignedTo         string
	DepartmentID       string
	Status             string
	BuybackAllowed     bool
	BuybackAvailableAt string
	Notes              string
}

// ParseAssetForm reads a urlencoded form submission.
func ParseAssetForm(values url.Values) AssetForm {
	return AssetForm{
		ID:                 strings.TrimSpace(values.Get(FieldID)),
		SubmissionID:       strings.TrimSpace(values.Get(FieldSubmissionID)),
		Code:               values.Get(FieldCode),
		Type:               values.Get(FieldType),
		BrandModel:         values.Get(FieldBrandModel),
		PurchasedAt:        values.Get(FieldPurchasedAt),
		PurchasePrice:      values.Get(FieldPurchasePrice),
		MarketPrice:        values.Get(FieldMarketPrice),
		AssignedTo:         values.Get(FieldAssignedTo),
		DepartmentID:       values.Get(FieldDepartmentID),
		Status:             values.Get(FieldStatus),
		BuybackAllowed:     parseCheckbox(values.Get(FieldBuybackAllowed)),
		BuybackAvailableAt: values.Get(FieldBuybackAvailableAt),
		Notes:              values.Get(FieldNotes),
	}
}

// NewAssetForm returns the blank create form.
func NewAssetForm() AssetForm {
	return AssetForm{
		Type:   string(models.TypeLaptop),
		Status: string(models.StatusInService),
	}
}

// FormFromAsset returns the edit form of an existing asset.
func FormFromAsset(asset models.Asset) AssetForm {
	form := AssetForm{
		ID:                 asset.ID,
		Code:               asset.Code,
		Type:               string(asset.Type),
		BrandModel:         asset.BrandModel,
		PurchasedAt:        formatDate(asset.PurchasedAt),
		PurchasePrice:      formatPrice(asset.PurchasePrice),
		MarketPrice:        formatPrice(asset.MarketPrice),
		Status:             string(asset.Status),
		BuybackAllowed:     asset.BuybackAllowed,
		BuybackAvailableAt: formatDate(asset.BuybackAvailableAt),
	}
	if asset.AssignedTo != nil {
		form.AssignedTo = *asset.AssignedTo
	}
	if asset.DepartmentID != nil {
		form.DepartmentID = *asset.DepartmentID
	}
	if asset.Notes != nil {
		form.Notes = *asset.Notes
	}
	return form
}

// IsEdit reports whether the form updates an existing asset.
func (f AssetForm) IsEdit() bool {
	return f.ID != ""
}

// AssetPayload is the JSON body accepted by the API.
type AssetPayload struct {
	ID                 string   `json:"id"`
	SubmissionID       string   `json:"submission_id"`
	Code               string   `json:"asset_code"`
	Type               string   `json:"asset_type"`
	BrandModel         string   `json:"brand_model"`
	PurchasedAt        string   `json:"purchased_at"`
	PurchasePrice      *float64 `json:"purchase_price"`
	MarketPrice        *float64 `json:"market_price"`
	AssignedTo         *string  `json:"assigned_to"`
	DepartmentID       *string  `json:"department_id"`
	Status             string   `json:"status"`
	BuybackAllowed     bool     `json:"is_buyback_allowed"`
	BuybackAvailableAt string   `json:"buyback_available_at"`
	Notes              *string  `json:"notes"`
}

// Form converts the payload to the shape shared with HTML submissions.
func (p AssetPayload) Form() AssetForm {
	return AssetForm{
		ID:                 strings.TrimSpace(p.ID),
		SubmissionID:       strings.TrimSpace(p.SubmissionID),
		Code:               p.Code,
		Type:               p.Type,
		BrandModel:         p.BrandModel,
		PurchasedAt:        p.PurchasedAt,
		PurchasePrice:      formatPrice(p.PurchasePrice),
		MarketPrice:        formatPrice(p.MarketPrice),
		AssignedTo:         deref(p.AssignedTo),
		DepartmentID:       deref(p.DepartmentID),
		Status:             p.Status,
		BuybackAllowed:     p.BuybackAllowed,
		BuybackAvailableAt: p.BuybackAvailableAt,
		Notes:              deref(p.Notes),
	}
}

// AssetInput is a form whose values have been converted to their types but
// not yet checked against the business rules.
type AssetInput struct {
	ID                 string             `form:"id" validate:"omitempty,uuid"`
	Code               string             `form:"asset_code" validate:"required,asset_code"`
	Type               models.AssetType   `form:"asset_type" validate:"asset_type"`
	BrandModel         string             `form:"brand_model" validate:"required"`
	PurchasedAt        *time.Time         `form:"purchased_at"`
	PurchasePrice      *float64           `form:"purchase_price" validate:"omitempty,gte=0"`
	MarketPrice        *float64           `form:"market_price" validate:"omitempty,gte=0"`
	AssignedTo         *string            `form:"assigned_to" validate:"omitempty,uuid"`
	DepartmentID       *string            `form:"department_id" validate:"omitempty,uuid"`
	Status             models.AssetStatus `form:"status" validate:"asset_status"`
	BuybackAllowed     bool               `form:"is_buyback_allowed"`
	BuybackAvailableAt *time.Time         `form:"buyback_available_at"`
	Notes              *string            `form:"notes" validate:"omitempty,max=255"`
}

// Input converts the raw values. Fields that cannot be converted are
// reported in the returned FieldErrors, which is nil when all conversions
// succeed.
func (f AssetForm) Input() (AssetInput, FieldErrors) {
	errs := FieldErrors{}
	in := AssetInput{
		ID:             f.ID,
		Code:           strings.TrimSpace(f.Code),
		Type:           models.AssetType(strings.TrimSpace(f.Type)),
		BrandModel:     strings.TrimSpace(f.BrandModel),
		AssignedTo:     optionalString(f.AssignedTo),
		DepartmentID:   optionalString(f.DepartmentID),
		Status:         models.AssetStatus(strings.TrimSpace(f.Status)),
		BuybackAllowed: f.BuybackAllowed,
		Notes:          optionalText(f.Notes),
	}

	var err error
	if in.PurchasedAt, err = parseDate(f.PurchasedAt); err != nil {
		errs.Add(FieldPurchasedAt, msgInvalidDate)
	}
	if in.BuybackAvailableAt, err = parseDate(f.BuybackAvailableAt); err != nil {
		errs.Add(FieldBuybackAvailableAt, msgInvalidDate)
	}
	if in.PurchasePrice, err = parseAmount(f.PurchasePrice); err != nil {
		errs.Add(FieldPurchasePrice, msgInvalidNumber)
	}
	if in.MarketPrice, err = parseAmount(f.MarketPrice); err != nil {
		errs.Add(FieldMarketPrice, msgInvalidNumber)
	}

	if len(errs) == 0 {
		return in, nil
	}
	return in, errs
}

// Validate checks the business rules and returns the column set to write.
func (in AssetInput) Validate() (models.AssetWrite, FieldErrors) {
	if err := v.Struct(in); err != nil {
		validationErrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return models.AssetWrite{}, FieldErrors{FieldCode: msgInvalidValue}
		}
		errs := FieldErrors{}
		for _, fieldErr := range validationErrs {
			errs.Add(fieldErr.Field(), messageFor(fieldErr.Field(), fieldErr.Tag()))
		}
		return models.AssetWrite{}, errs
	}

	return models.AssetWrite{
		Code:               in.Code,
		Type:               in.Type,
		BrandModel:         in.BrandModel,
		PurchasedAt:        in.PurchasedAt,
		PurchasePrice:      in.PurchasePrice,
		MarketPrice:        in.MarketPrice,
		AssignedTo:         in.AssignedTo,
		DepartmentID:       in.DepartmentID,
		Status:             in.Status,
		BuybackAllowed:     in.BuybackAllowed,
		BuybackAvailableAt: in.BuybackAvailableAt,
		Notes:              in.Notes,
	}, nil
}

// Result is the outcome of validating a form: either Write is usable or
// Errors is non-empty.
type Result struct {
	ID     string
	Write  models.AssetWrite
	Errors FieldErrors
}

// Valid reports whether the form passed both validation stages.
func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

// Validate runs both stages. Conversion and rule errors are merged so every
// field reports at most one message.
func (f AssetForm) Validate() Result {
	in, convErrs := f.Input()
	write, ruleErrs := in.Validate()

	if len(convErrs) == 0 && len(ruleErrs) == 0 {
		return Result{ID: in.ID, Write: write}
	}
	errs := FieldErrors{}
	for field, msg := range convErrs {
		errs.Add(field, msg)
	}
	for field, msg := range ruleErrs {
		errs.Add(field, msg)
	}
	return Result{ID: in.ID, Errors: errs}
}

func messageFor(field, tag string) string {
	if byTag, ok := messages[field]; ok {
		if msg, ok := byTag[tag]; ok {
			return msg
		}
	}
	return msgInvalidValue
}

// parseCheckbox accepts the values browsers and scripts send for a checked box.
func parseCheckbox(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "on", "true", "1", "yes":
		return true
	default:
		return false
	}
}

// parseAmount returns nil for empty input. Zero is a value.
func parseAmount(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, strconv.ErrSyntax
	}
	return &value, nil
}

// parseDate accepts YYYY-MM-DD or a full RFC 3339 timestamp and returns the
// UTC start of that day.
func parseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		stamp, stampErr := time.Parse(time.RFC3339, raw)
		if stampErr != nil {
			return nil, err
		}
		parsed = stamp
	}
	day := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
	return &day, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(dateLayout)
}

func formatPrice(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func optionalString(raw string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	return &raw
}

// optionalText keeps inner whitespace of free text but drops blank input.
func optionalText(raw string) *string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return &raw
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
