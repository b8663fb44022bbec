package routes

import (
	"storymap/internal/controllers"

	"github.com/gin-gonic/gin"
)

func JourneyRoutes(rg *gin.RouterGroup) {
	j := rg.Group("/journey")
	{
		j.GET("", controllers.GetJourney)
		j.GET("/plan", controllers.GetJourneyPlan)
	}
}

func QuizRoutes(rg *gin.RouterGroup) {
	q := rg.Group("/quiz")
	{
		q.GET("", controllers.GetQuiz)
		q.POST("/score", controllers.ScoreQuiz)
	}
}
