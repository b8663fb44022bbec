package routes

import (
	"io"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"storymap/internal/config"
	"storymap/internal/controllers"
	"storymap/internal/metrics"
	"storymap/internal/middleware"
)

// SetupRouter wires every endpoint. accessLog receives one line per request.
func SetupRouter(accessLog io.Writer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(accessLog))
	r.Use(metrics.Middleware())

	r.GET("/healthz", controllers.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("/config", controllers.GetClientConfig)
	PlaceRoutes(api)
	RouteRoutes(api)
	JourneyRoutes(api)
	QuizRoutes(api)
	WebSocketRoutes(r)

	if config.Store != nil {
		prefix := "/media"
		if config.App != nil && config.App.MediaURLPrefix != "" {
			prefix = config.App.MediaURLPrefix
		}
		r.Static(prefix, config.Store.MediaRoot())
	}
	return r
}
