package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"storymap/internal/config"
	"storymap/internal/journey"
	"storymap/internal/models"
)

// loadJourney reads both documents concurrently and builds the playback data.
func loadJourney(ctx context.Context) (*journey.Journey, error) {
	var (
		places []models.Place
		routes *models.RouteCollection
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		places, err = config.Store.LoadPlaces(gctx)
		return err
	})
	g.Go(func() (err error) {
		routes, err = config.Store.LoadRoutes(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return journey.Build(places, routes.Features), nil
}

// GetJourney returns the sorted renderable places, the hop segments and
// the route features in playback order.
func GetJourney(c *gin.Context) {
	j, err := loadJourney(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Error("GetJourney: failed to load journey")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load journey"})
		return
	}
	places := j.Places
	if places == nil {
		places = []models.Place{}
	}
	routes := j.Routes
	if routes == nil {
		routes = []*models.RouteFeature{}
	}
	segments := j.Segments
	if segments == nil {
		segments = []*journey.Segment{}
	}
	c.JSON(http.StatusOK, gin.H{
		"places":   places,
		"segments": segments,
		"routes":   routes,
		"skipped":  j.Skipped,
	})
}

// GetJourneyPlan describes the transition between two steps without running it.
func GetJourneyPlan(c *gin.Context) {
	from, errFrom := strconv.Atoi(c.DefaultQuery("from", "0"))
	to, errTo := strconv.Atoi(c.Query("to"))
	if errFrom != nil || errTo != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to must be integers"})
		return
	}

	j, err := loadJourney(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Error("GetJourneyPlan: failed to load journey")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load journey"})
		return
	}
	if j.Len() == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No places to play"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"plan": j.Plan(from, to, config.App.Timing())})
}
