package storefront

import (
	"net/http"

	"github.com/appser/appser-store/internal/auth"
	"github.com/appser/appser-store/internal/health"
	"github.com/appser/appser-store/internal/middleware"
	"github.com/appser/appser-store/internal/render"
	"github.com/appser/appser-store/internal/websocket"
	"github.com/appser/appser-store/pkg/config"
	"github.com/appser/appser-store/pkg/metrics"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RouterConfig collects the handlers mounted on the HTTP router. Nil
// optional handlers leave their routes out.
type RouterConfig struct {
	Handler     *Handler
	Auth        *auth.Handler
	Health      *health.Handler
	Metrics     *metrics.Handler
	Live        *websocket.Server
	Limiter     *middleware.RateLimiter
	Services    *config.ServicesConfig
	FrontendURL string
}

func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	tmpl, err := render.Templates()
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	router.SetHTMLTemplate(tmpl)

	corsConfig := cors.DefaultConfig()
	if cfg.FrontendURL != "" {
		corsConfig.AllowOrigins = []string{cfg.FrontendURL}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	corsConfig.ExposeHeaders = []string{"Content-Length"}
	corsConfig.AllowCredentials = cfg.FrontendURL != ""
	router.Use(cors.New(corsConfig))

	writes := []gin.HandlerFunc{}
	if cfg.Limiter != nil {
		writes = append(writes, cfg.Limiter.Handler())
	}

	h := cfg.Handler

	// Pages
	router.GET("/", h.Index)
	router.GET("/app", h.Detail)
	pageWrites := router.Group("/app", writes...)
	{
		pageWrites.POST("/download", h.Download)
		pageWrites.POST("/like", h.Like)
		pageWrites.POST("/review", h.Review)
	}

	// JSON API
	api := router.Group("/api/apps")
	{
		api.GET("", h.ListApps)
		api.GET("/:id", h.GetApp)
		api.GET("/:id/share", h.ShareApp)
		api.GET("/:id/reviews", h.ListReviews)

		apiWrites := api.Group("", writes...)
		apiWrites.POST("/:id/download", h.DownloadApp)
		apiWrites.POST("/:id/like", h.LikeApp)
		apiWrites.POST("/:id/reviews", h.SubmitReview)

		if cfg.Auth != nil {
			api.PUT("/:id", cfg.Auth.RequireAdmin(), h.UpsertApp)
		}
	}

	if cfg.Auth != nil {
		authGroup := router.Group("/auth", writes...)
		authGroup.POST("/token", cfg.Auth.IssueToken)
		authGroup.POST("/logout", cfg.Auth.Logout)
	}

	if cfg.Live != nil {
		router.GET("/ws/apps/:id", cfg.Live.HandleWebSocket)
	}

	if cfg.Health != nil {
		router.GET("/healthz", cfg.Health.Healthz)
		router.GET("/readyz", cfg.Health.Readyz)
	}
	if cfg.Metrics != nil {
		router.GET("/metrics", cfg.Metrics.Prometheus)
		router.GET("/metrics/summary", cfg.Metrics.Summary)
	}
	if cfg.Services != nil {
		router.GET("/api/services", func(c *gin.Context) {
			c.JSON(http.StatusOK, cfg.Services.GetDiscoveryResponse())
		})
	}

	router.NoRoute(func(c *gin.Context) {
		c.HTML(http.StatusNotFound, render.PageError, h.render.Error(render.MsgNotFound))
	})
	return router, nil
}
