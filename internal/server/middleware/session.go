package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/assetdesk/internal/domain/models"
	"github.com/mamadbah2/assetdesk/internal/service/auth"
	"github.com/mamadbah2/assetdesk/internal/view"
	"github.com/mamadbah2/assetdesk/pkg/clients/supabase"
)

// Session cookie names.
const (
	AccessTokenCookie  = "sb-access-token"
	RefreshTokenCookie = "sb-refresh-token"
)

const (
	sessionKey       = "session"
	loginPath        = "/login"
	refreshCookieAge = 30 * 24 * time.Hour
	minAccessAge     = time.Minute
)

// SessionResolver turns a cookie pair into a session.
type SessionResolver interface {
	Resolve(ctx context.Context, accessToken, refreshToken string) (auth.Resolution, error)
}

// Cookies writes and clears the session cookie pair.
type Cookies struct {
	Secure bool
	now    func() time.Time
}

// NewCookies returns a cookie writer. secure sets the Secure attribute.
func NewCookies(secure bool) Cookies {
	return Cookies{Secure: secure, now: time.Now}
}

// Read returns the access and refresh tokens carried by the request.
func (ck Cookies) Read(c *gin.Context) (string, string) {
	access, _ := c.Cookie(AccessTokenCookie)
	refresh, _ := c.Cookie(RefreshTokenCookie)
	return access, refresh
}

// Write stores session in the cookie pair.
func (ck Cookies) Write(c *gin.Context, session models.Session) {
	now := time.Now
	if ck.now != nil {
		now = ck.now
	}
	accessAge := minAccessAge
	if !session.ExpiresAt.IsZero() {
		if remaining := session.ExpiresAt.Sub(now()); remaining > accessAge {
			accessAge = remaining
		}
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessTokenCookie, session.AccessToken, int(accessAge.Seconds()), "/", "", ck.Secure, true)
	if session.RefreshToken != "" {
		c.SetCookie(RefreshTokenCookie, session.RefreshToken, int(refreshCookieAge.Seconds()), "/", "", ck.Secure, true)
	}
}

// Clear expires both cookies.
func (ck Cookies) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessTokenCookie, "", -1, "/", "", ck.Secure, true)
	c.SetCookie(RefreshTokenCookie, "", -1, "/", "", ck.Secure, true)
}

// RequireSession aborts requests without a valid session before any handler
// runs. Browser routes are redirected to the login page, /api routes get a
// 401. An unreachable auth service fails the load (503) and leaves the
// cookies untouched. On success the session is available through
// SessionFrom and the request context carries the access token for
// row-level security.
func RequireSession(resolver SessionResolver, cookies Cookies, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		access, refresh := cookies.Read(c)
		res, err := resolver.Resolve(c.Request.Context(), access, refresh)
		if err != nil {
			if errors.Is(err, auth.ErrUnavailable) {
				// The cookies may still be valid; keep them and fail this load.
				logger.Warn("auth service unavailable",
					zap.String("path", c.Request.URL.Path), zap.Error(err))
				rejectUnavailable(c)
				return
			}
			if access != "" || refresh != "" {
				cookies.Clear(c)
			}
			rejectUnauthenticated(c)
			return
		}

		if res.Refreshed {
			cookies.Write(c, res.Session)
		}

		c.Set(sessionKey, res.Session)
		c.Request = c.Request.WithContext(supabase.ContextWithAccessToken(c.Request.Context(), res.Session.AccessToken))
		c.Next()
	}
}

// SessionFrom returns the session stored by RequireSession.
func SessionFrom(c *gin.Context) (models.Session, bool) {
	value, ok := c.Get(sessionKey)
	if !ok {
		return models.Session{}, false
	}
	session, ok := value.(models.Session)
	return session, ok
}

// IsAPIRequest reports whether the request targets the JSON API.
func IsAPIRequest(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, "/api/")
}

func rejectUnavailable(c *gin.Context) {
	if IsAPIRequest(c) {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "auth service unavailable"})
		return
	}
	c.HTML(http.StatusServiceUnavailable, view.ErrorTemplate, view.NewErrorPage(view.AuthUnavailableMessage, c.Request.URL.RequestURI()))
	c.Abort()
}

func rejectUnauthenticated(c *gin.Context) {
	if IsAPIRequest(c) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	c.Redirect(http.StatusFound, loginPath)
	c.Abort()
}
