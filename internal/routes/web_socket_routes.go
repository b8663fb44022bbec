package routes

import (
	"storymap/internal/controllers"

	"github.com/gin-gonic/gin"
)

func WebSocketRoutes(r *gin.Engine) {
	ws := r.Group("/ws")
	{
		ws.GET("/journey", controllers.HandleJourneyWebSocket)
	}
}
