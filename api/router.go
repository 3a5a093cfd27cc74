package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Charlesagui/scraptor/api/handler"
	"github.com/Charlesagui/scraptor/api/middleware"
	"github.com/Charlesagui/scraptor/config"
)

// NewRouter creates a configured Gin engine with all routes.
//
// Health is outside the rate limiter so monitoring probes always work;
// quotes sits behind a per-IP token bucket because each request drives
// real traffic at the upstream site.
func NewRouter(runner handler.Runner, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")
	v1.GET("/health", handler.Health(startTime))

	limited := v1.Group("")
	limited.Use(middleware.RateLimit(cfg.Server))
	limited.GET("/quotes", handler.Quotes(runner))

	return r
}
