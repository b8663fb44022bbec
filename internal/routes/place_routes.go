package routes

import (
	"storymap/internal/controllers"

	"github.com/gin-gonic/gin"
)

func PlaceRoutes(rg *gin.RouterGroup) {
	places := rg.Group("/places")
	{
		places.GET("", controllers.GetPlaces)
		places.POST("", controllers.SavePlaces)
		places.PUT("", controllers.UploadMedia)
		places.PUT("/:key", controllers.UpsertPlace)
		places.DELETE("/:key", controllers.DeletePlace)
		places.GET("/:key/detail", controllers.GetPlaceDetail)
	}
}
