package router

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mamadbah2/assetdesk/internal/server/handlers"
	"github.com/mamadbah2/assetdesk/internal/server/middleware"
)

// Dependencies groups what the routes need. Changes is nil when the
// journal is disabled.
type Dependencies struct {
	Templates *template.Template
	Auth      *handlers.AuthHandler
	Assets    *handlers.AssetsHandler
	Changes   *handlers.ChangesHandler
	Sessions  middleware.SessionResolver
	Cookies   middleware.Cookies
	Health    gin.HandlerFunc
}

// New wires the Gin engine with required routes and middlewares.
func New(deps Dependencies, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Metrics())
	r.Use(middleware.RequestLogger(logger))
	r.SetHTMLTemplate(deps.Templates)

	health := deps.Health
	if health == nil {
		health = handlers.Health(nil)
	}
	r.GET("/healthz", health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/login", deps.Auth.ShowLogin)
	r.POST("/login", deps.Auth.Login)
	r.POST("/logout", deps.Auth.Logout)

	protected := r.Group("/", middleware.RequireSession(deps.Sessions, deps.Cookies, logger.Named("session")))
	protected.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/assets")
	})
	protected.GET("/assets", deps.Assets.List)
	protected.POST("/assets", deps.Assets.Save)
	protected.GET("/assets/export.xlsx", deps.Assets.Export)

	api := protected.Group("/api")
	api.GET("/assets", deps.Assets.APIList)
	api.POST("/assets", deps.Assets.APISave)
	api.GET("/lookups", deps.Assets.APILookups)
	if deps.Changes != nil {
		api.GET("/assets/:id/changes", deps.Changes.APIList)
	}

	logger.Info("router initialized")

	return r
}
