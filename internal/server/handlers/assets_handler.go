package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/assetdesk/internal/domain/models"
	"github.com/mamadbah2/assetdesk/internal/export"
	"github.com/mamadbah2/assetdesk/internal/server/middleware"
	"github.com/mamadbah2/assetdesk/internal/service/assets"
	"github.com/mamadbah2/assetdesk/internal/view"
)

// AssetService is the asset use-case surface the handlers call.
type AssetService interface {
	List(ctx context.Context, session models.Session, q assets.ListQuery) (assets.ListPage, error)
	Lookups(ctx context.Context) (models.Lookups, error)
	Upsert(ctx context.Context, session models.Session, form assets.AssetForm) (models.Asset, assets.FieldErrors, error)
	Export(ctx context.Context, q assets.ListQuery) ([]models.Asset, int64, error)
}

// AssetsHandler serves the asset list, the drawer form and the JSON API.
type AssetsHandler struct {
	svc    AssetService
	now    func() time.Time
	logger *zap.Logger
}

// NewAssetsHandler constructs the asset HTTP handler.
func NewAssetsHandler(svc AssetService, logger *zap.Logger) *AssetsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssetsHandler{svc: svc, now: time.Now, logger: logger}
}

// List renders one page of the asset table. ?new=1 or ?edit=<id> opens the
// drawer over it.
func (h *AssetsHandler) List(c *gin.Context) {
	session, _ := middleware.SessionFrom(c)
	q := assets.ParseListQuery(c.Request.URL.Query())

	page, err := h.svc.List(c.Request.Context(), session, q)
	if err != nil {
		h.renderLoadFailed(c, q, err)
		return
	}

	var drawer *view.FormView
	if id := c.Query(view.ParamEdit); id != "" {
		for _, asset := range page.Assets.Data {
			if asset.ID == id {
				drawer = view.NewFormView(assets.FormFromAsset(asset), nil, page.Lookups, q, assets.NewSubmissionID())
				break
			}
		}
	} else if c.Query(view.ParamNew) != "" {
		drawer = view.NewFormView(assets.NewAssetForm(), nil, page.Lookups, q, assets.NewSubmissionID())
	}

	c.HTML(http.StatusOK, view.AssetsTemplate, view.NewAssetsPage(session.User, page, drawer))
}

// Save handles the drawer form submission. Success redirects back to the
// list the form was opened from; a rejected submission re-renders the list
// with the drawer open.
func (h *AssetsHandler) Save(c *gin.Context) {
	session, _ := middleware.SessionFrom(c)
	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusBadRequest, "invalid form")
		return
	}
	form := assets.ParseAssetForm(c.Request.PostForm)
	q := returnQuery(c.Request.PostForm.Get(view.ParamReturn))
	listURL := homePath + "?" + q.Encode(nil)

	_, fieldErrs, err := h.svc.Upsert(c.Request.Context(), session, form)
	switch {
	case errors.Is(err, assets.ErrDuplicateSubmission):
		h.logger.Info("duplicate asset submission ignored", zap.String("user_id", session.User.ID))
		c.Redirect(http.StatusSeeOther, listURL)
		return
	case len(fieldErrs) > 0:
		status := http.StatusUnprocessableEntity
		if err != nil {
			status = http.StatusBadGateway
		}
		h.renderForm(c, status, session, q, form, fieldErrs)
		return
	case err != nil:
		h.logger.Error("asset save failed", zap.Error(err))
		c.HTML(http.StatusBadGateway, view.ErrorTemplate, view.NewErrorPage("保存失败", listURL))
		return
	}

	c.Redirect(http.StatusSeeOther, listURL)
}

// Export downloads the filtered list as a workbook.
func (h *AssetsHandler) Export(c *gin.Context) {
	q := assets.ParseListQuery(c.Request.URL.Query())

	rows, total, err := h.svc.Export(c.Request.Context(), q)
	if err != nil {
		h.renderLoadFailed(c, q, err)
		return
	}
	data, err := export.Workbook(rows)
	if err != nil {
		h.logger.Error("failed to build workbook", zap.Error(err))
		c.HTML(http.StatusInternalServerError, view.ErrorTemplate, view.NewErrorPage("导出失败", homePath+"?"+q.Encode(nil)))
		return
	}

	if total > int64(len(rows)) {
		c.Header("X-Export-Truncated", "true")
	}
	filename := fmt.Sprintf("assets-%s.xlsx", h.now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, export.ContentTypeXLSX, data)
}

// APIList returns one page of assets with the form lookups as JSON.
func (h *AssetsHandler) APIList(c *gin.Context) {
	session, _ := middleware.SessionFrom(c)
	q := assets.ParseListQuery(c.Request.URL.Query())

	page, err := h.svc.List(c.Request.Context(), session, q)
	if err != nil {
		h.logger.Error("failed to load assets", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load assets"})
		return
	}
	c.JSON(http.StatusOK, page)
}

// APILookups returns the departments and employees offered by the form.
func (h *AssetsHandler) APILookups(c *gin.Context) {
	lookups, err := h.svc.Lookups(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to load lookups", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load lookups"})
		return
	}
	c.JSON(http.StatusOK, lookups)
}

// APISave creates or updates an asset from a JSON payload.
func (h *AssetsHandler) APISave(c *gin.Context) {
	session, _ := middleware.SessionFrom(c)

	var payload assets.AssetPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	form := payload.Form()

	asset, fieldErrs, err := h.svc.Upsert(c.Request.Context(), session, form)
	switch {
	case errors.Is(err, assets.ErrDuplicateSubmission):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	case len(fieldErrs) > 0:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": fieldErrs})
		return
	}

	status := http.StatusCreated
	if form.IsEdit() {
		status = http.StatusOK
	}
	c.JSON(status, asset)
}

func (h *AssetsHandler) renderForm(c *gin.Context, status int, session models.Session, q assets.ListQuery, form assets.AssetForm, fieldErrs assets.FieldErrors) {
	page, err := h.svc.List(c.Request.Context(), session, q)
	if err != nil {
		h.renderLoadFailed(c, q, err)
		return
	}
	drawer := view.NewFormView(form, fieldErrs, page.Lookups, q, assets.NewSubmissionID())
	c.HTML(status, view.AssetsTemplate, view.NewAssetsPage(session.User, page, drawer))
}

func (h *AssetsHandler) renderLoadFailed(c *gin.Context, q assets.ListQuery, err error) {
	h.logger.Error("failed to load assets", zap.Error(err))
	c.HTML(http.StatusInternalServerError, view.ErrorTemplate, view.NewErrorPage(view.LoadFailedMessage, homePath+"?"+q.Encode(nil)))
}

// returnQuery restores the list query a form was opened from. The raw value
// is re-normalized so it can only ever point back at the list.
func returnQuery(raw string) assets.ListQuery {
	values, err := url.ParseQuery(raw)
	if err != nil {
		values = url.Values{}
	}
	return assets.ParseListQuery(values)
}
