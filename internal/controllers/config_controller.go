package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storymap/internal/config"
)

// GetClientConfig hands the map front-end its provider token.
func GetClientConfig(c *gin.Context) {
	token := ""
	if config.App != nil {
		token = config.App.MapToken
	}
	c.JSON(http.StatusOK, gin.H{"mapToken": token})
}

// Health reports liveness and the number of open playback sessions.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": Journeys.Count()})
}
