package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storymap/internal/config"
	"storymap/internal/editor"
	"storymap/internal/metrics"
	"storymap/internal/models"
	"storymap/internal/render"
	"storymap/internal/store"
)

// GetPlaces returns the whole places document.
func GetPlaces(c *gin.Context) {
	places, err := config.Store.LoadPlaces(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Error("GetPlaces: failed to load places")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load places"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"places": places})
}

// SavePlaces overwrites the places document with the submitted array.
func SavePlaces(c *gin.Context) {
	var input struct {
		Places []models.Place `json:"places" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		logrus.WithError(err).Warn("SavePlaces: invalid input payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}

	ctx := c.Request.Context()
	current, err := config.Store.LoadPlaces(ctx)
	if err != nil {
		logrus.WithError(err).Warn("SavePlaces: current places unreadable, overwriting")
		current = nil
	}
	ed, err := editor.New(current)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save places"})
		return
	}
	ed.Replace(input.Places)
	if current != nil && !ed.Dirty() {
		c.JSON(http.StatusOK, gin.H{"ok": true, "unchanged": true})
		return
	}

	err = config.Store.SavePlaces(ctx, ed.Items())
	metrics.DocumentSaves.WithLabelValues("places", metrics.Outcome(err)).Inc()
	if err != nil {
		logrus.WithError(err).Error("SavePlaces: failed to write places")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save places"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// UploadMedia stores a single multipart "file" under the media folder
// selected by ?type=image|video|audio and returns its public URL.
func UploadMedia(c *gin.Context) {
	kind, err := store.ParseMediaKind(c.Query("type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be image, video or audio"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes())
	fh, err := c.FormFile("file")
	if err != nil {
		logrus.WithError(err).Warn("UploadMedia: missing file field")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload failed"})
		return
	}
	defer f.Close()

	up, err := config.Store.SaveUpload(kind, fh.Filename, f)
	metrics.Uploads.WithLabelValues(string(kind), metrics.Outcome(err)).Inc()
	if err != nil {
		logrus.WithError(err).WithField("filename", fh.Filename).Error("UploadMedia: failed to store file")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": up.URL, "mime": up.MIME})
}

// GetPlaceDetail renders the level texts of one place for the detail panel.
func GetPlaceDetail(c *gin.Context) {
	places, err := config.Store.LoadPlaces(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Error("GetPlaceDetail: failed to load places")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load places"})
		return
	}
	place, idx, ok := render.FindPlace(places, c.Param("key"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Place not found"})
		return
	}
	detail, err := render.Detail(place, idx)
	if err != nil {
		logrus.WithError(err).WithField("key", c.Param("key")).Error("GetPlaceDetail: render failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render place"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": detail})
}

// UpsertPlace replaces the place stored under :key, or appends the body
// as a new place when no place has that key.
func UpsertPlace(c *gin.Context) {
	var place models.Place
	if err := c.ShouldBindJSON(&place); err != nil {
		logrus.WithError(err).Warn("UpsertPlace: invalid input payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	editPlaces(c, "UpsertPlace", func(ed *editor.Editor[models.Place], idx int) error {
		if idx < 0 {
			ed.Add(place)
			return nil
		}
		if _, err := ed.Select(idx); err != nil {
			return err
		}
		return ed.Update(idx, place)
	})
}

// DeletePlace removes the place stored under :key.
func DeletePlace(c *gin.Context) {
	editPlaces(c, "DeletePlace", func(ed *editor.Editor[models.Place], idx int) error {
		if idx < 0 {
			return editor.ErrOutOfRange
		}
		if _, err := ed.Select(idx); err != nil {
			return err
		}
		return ed.Remove(idx)
	})
}

// editPlaces applies one form operation to the stored places and saves
// the result when it changed anything. idx is -1 when :key matches no place.
func editPlaces(c *gin.Context, op string, apply func(ed *editor.Editor[models.Place], idx int) error) {
	ctx := c.Request.Context()
	key := c.Param("key")
	places, err := config.Store.LoadPlaces(ctx)
	if err != nil {
		logrus.WithError(err).Error(op + ": failed to load places")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load places"})
		return
	}
	ed, err := editor.New(places)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save places"})
		return
	}
	_, idx, _ := render.FindPlace(places, key)
	if err := apply(ed, idx); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Place not found"})
		return
	}
	if !ed.Dirty() {
		c.JSON(http.StatusOK, gin.H{"ok": true, "unchanged": true, "index": ed.Selected()})
		return
	}

	err = config.Store.SavePlaces(ctx, ed.Items())
	metrics.DocumentSaves.WithLabelValues("places", metrics.Outcome(err)).Inc()
	if err != nil {
		logrus.WithError(err).WithField("key", key).Error(op + ": failed to write places")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save places"})
		return
	}
	if err := ed.MarkSaved(); err != nil {
		logrus.WithError(err).Warn(op + ": snapshot failed")
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "index": ed.Selected(), "count": ed.Len()})
}

func maxUploadBytes() int64 {
	if config.App != nil && config.App.MaxUploadMB > 0 {
		return config.App.MaxUploadMB << 20
	}
	return 200 << 20
}
