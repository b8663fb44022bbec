package routes

import (
	"storymap/internal/controllers"

	"github.com/gin-gonic/gin"
)

func RouteRoutes(rg *gin.RouterGroup) {
	routes := rg.Group("/routes")
	{
		routes.GET("", controllers.GetRoutes)
		routes.POST("", controllers.SaveRoutes)
	}
}
