package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/yuridenisov/oims/internal/health"
	"github.com/yuridenisov/oims/internal/version"
)

// Handlers — набор handler'ов, монтируемых на роутер.
type Handlers struct {
	Orders   *OrderHandler
	Products *ProductHandler
	Users    *UserHandler
	Reports  *ReportHandler
	Health   *health.Handler
}

// NewRouter собирает gin-роутер: API под /api/v1, служебные эндпоинты в корне.
func NewRouter(handlers Handlers, logger *log.Entry) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if logger != nil {
		router.Use(requestLogger(logger))
	}

	api := router.Group("/api/v1")
	if handlers.Orders != nil {
		handlers.Orders.RegisterRoutes(api)
	}
	if handlers.Products != nil {
		handlers.Products.RegisterRoutes(api)
	}
	if handlers.Users != nil {
		handlers.Users.RegisterRoutes(api)
	}
	if handlers.Reports != nil {
		handlers.Reports.RegisterRoutes(api)
	}

	if handlers.Health != nil {
		router.GET("/health", gin.WrapH(handlers.Health))
		router.GET("/health/live", gin.WrapF(health.LivenessHandler))
		router.GET("/health/ready", gin.WrapF(handlers.Health.ReadinessHandler))
	}
	router.GET("/version", func(c *gin.Context) {
		v, commit, date := version.Info()
		c.JSON(http.StatusOK, gin.H{"version": v, "commit": commit, "date": date})
	})

	return router
}

// requestLogger пишет строку на каждый запрос после обработки.
func requestLogger(logger *log.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start).String(),
		}).Info("http request")
	}
}
