package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/assetdesk/internal/domain/models"
	"github.com/mamadbah2/assetdesk/internal/server/middleware"
	"github.com/mamadbah2/assetdesk/internal/service/auth"
	"github.com/mamadbah2/assetdesk/internal/view"
)

const (
	homePath  = "/assets"
	loginPath = "/login"
)

// Authenticator signs users in and out.
type Authenticator interface {
	SignIn(ctx context.Context, creds auth.Credentials) (models.Session, error)
	Resolve(ctx context.Context, accessToken, refreshToken string) (auth.Resolution, error)
	SignOut(ctx context.Context, accessToken string) error
}

// AuthHandler serves the login page and the sign-in and sign-out actions.
type AuthHandler struct {
	auth    Authenticator
	cookies middleware.Cookies
	logger  *zap.Logger
}

// NewAuthHandler constructs the login HTTP handler.
func NewAuthHandler(authenticator Authenticator, cookies middleware.Cookies, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{auth: authenticator, cookies: cookies, logger: logger}
}

// ShowLogin renders the login form, or sends signed-in users to the list.
func (h *AuthHandler) ShowLogin(c *gin.Context) {
	access, refresh := h.cookies.Read(c)
	if access != "" || refresh != "" {
		res, err := h.auth.Resolve(c.Request.Context(), access, refresh)
		if err == nil {
			if res.Refreshed {
				h.cookies.Write(c, res.Session)
			}
			c.Redirect(http.StatusFound, homePath)
			return
		}
	}
	c.HTML(http.StatusOK, view.LoginTemplate, view.NewLoginPage("", nil, ""))
}

// Login validates the credentials and starts a session.
func (h *AuthHandler) Login(c *gin.Context) {
	creds := auth.Credentials{
		Email:    strings.TrimSpace(c.PostForm(auth.FieldEmail)),
		Password: c.PostForm(auth.FieldPassword),
	}
	if errs := creds.Validate(); errs != nil {
		c.HTML(http.StatusUnprocessableEntity, view.LoginTemplate, view.NewLoginPage(creds.Email, errs, ""))
		return
	}

	session, err := h.auth.SignIn(c.Request.Context(), creds)
	if err != nil {
		var credErr *auth.InvalidCredentialsError
		if errors.As(err, &credErr) {
			c.HTML(http.StatusUnauthorized, view.LoginTemplate, view.NewLoginPage(creds.Email, nil, credErr.Message))
			return
		}
		h.logger.Error("sign in failed", zap.Error(err))
		c.HTML(http.StatusBadGateway, view.LoginTemplate, view.NewLoginPage(creds.Email, nil, view.AuthUnavailableMessage))
		return
	}

	h.cookies.Write(c, session)
	c.Redirect(http.StatusSeeOther, homePath)
}

// Logout revokes the session and clears the cookies. Revocation failures
// are logged only.
func (h *AuthHandler) Logout(c *gin.Context) {
	access, _ := h.cookies.Read(c)
	if err := h.auth.SignOut(c.Request.Context(), access); err != nil {
		h.logger.Warn("sign out failed", zap.Error(err))
	}
	h.cookies.Clear(c)
	c.Redirect(http.StatusSeeOther, loginPath)
}
