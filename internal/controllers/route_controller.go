package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storymap/internal/config"
	"storymap/internal/editor"
	"storymap/internal/metrics"
	"storymap/internal/models"
)

// GetRoutes returns the route FeatureCollection.
func GetRoutes(c *gin.Context) {
	rc, err := config.Store.LoadRoutes(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Error("GetRoutes: failed to load routes")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load routes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"routes": rc})
}

// SaveRoutes replaces the features of the collection, keeping its metadata.
func SaveRoutes(c *gin.Context) {
	var input struct {
		Routes []*models.RouteFeature `json:"routes" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		logrus.WithError(err).Warn("SaveRoutes: invalid input payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	ctx := c.Request.Context()
	if current, err := config.Store.LoadRoutes(ctx); err == nil {
		if ed, err := editor.New(current.Features); err == nil {
			ed.Replace(input.Routes)
			if !ed.Dirty() {
				c.JSON(http.StatusOK, gin.H{"ok": true, "unchanged": true})
				return
			}
		}
	}

	err := config.Store.SaveRoutes(ctx, input.Routes)
	metrics.DocumentSaves.WithLabelValues("routes", metrics.Outcome(err)).Inc()
	if err != nil {
		logrus.WithError(err).Error("SaveRoutes: failed to write routes")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save routes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
