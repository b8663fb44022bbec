// Package store persists the story map content as flat JSON files plus an
// uploaded-media tree. Every save overwrites the whole document; the last
// writer wins.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"

	"storymap/internal/models"
)

const (
	PlacesFile = "places.json"
	RoutesFile = "routes.json"
	QuizFile   = "quiz.json"
	MediaDir   = "media"
)

// Store reads and writes the content files under a single data directory.
type Store struct {
	dir         string
	mediaPrefix string

	// mu keeps a write from interleaving with a concurrent read of the
	// same file. It is not a concurrency-control scheme for editors.
	mu sync.RWMutex
}

// New prepares dir (and its media subfolders) and returns a Store.
// mediaPrefix is the public URL prefix uploaded files are served under.
func New(dir, mediaPrefix string) (*Store, error) {
	if mediaPrefix == "" {
		mediaPrefix = "/media"
	}
	s := &Store{dir: dir, mediaPrefix: mediaPrefix}
	for _, kind := range []MediaKind{MediaImage, MediaVideo, MediaAudio} {
		if err := os.MkdirAll(s.mediaPath(kind), 0o755); err != nil {
			return nil, fmt.Errorf("create media dir: %w", err)
		}
	}
	return s, nil
}

func (s *Store) Dir() string       { return s.dir }
func (s *Store) MediaRoot() string { return filepath.Join(s.dir, MediaDir) }
func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// LoadPlaces returns the places in file order. A missing file is an empty list.
func (s *Store) LoadPlaces(ctx context.Context) ([]models.Place, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	places := []models.Place{}
	if _, err := s.readJSON(PlacesFile, &places); err != nil {
		return nil, fmt.Errorf("load places: %w", err)
	}
	if places == nil {
		places = []models.Place{}
	}
	return places, nil
}

// SavePlaces overwrites places.json with places.
func (s *Store) SavePlaces(ctx context.Context, places []models.Place) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if places == nil {
		places = []models.Place{}
	}
	if err := s.writeJSON(PlacesFile, places); err != nil {
		return fmt.Errorf("save places: %w", err)
	}
	logrus.WithField("count", len(places)).Info("places saved")
	return nil
}

// LoadRoutes returns the route FeatureCollection. A missing file is an
// empty collection.
func (s *Store) LoadRoutes(ctx context.Context) (*models.RouteCollection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rc := models.NewRouteCollection()
	if _, err := s.readJSON(RoutesFile, rc); err != nil {
		return nil, fmt.Errorf("load routes: %w", err)
	}
	return rc, nil
}

// SaveRoutes replaces the features of routes.json and keeps every other
// member of the existing collection.
func (s *Store) SaveRoutes(ctx context.Context, features []*models.RouteFeature) error {
	existing, err := s.LoadRoutes(ctx)
	if err != nil {
		// An unreadable document is replaced rather than blocking the save.
		logrus.WithError(err).Warn("SaveRoutes: existing routes unreadable, starting fresh")
		existing = models.NewRouteCollection()
	}
	existing.Features = features
	if err := s.writeJSON(RoutesFile, existing); err != nil {
		return fmt.Errorf("save routes: %w", err)
	}
	logrus.WithField("count", len(features)).Info("routes saved")
	return nil
}

// LoadQuiz returns the static question bank.
func (s *Store) LoadQuiz(ctx context.Context) ([]models.QuizQuestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var questions []models.QuizQuestion
	if _, err := s.readJSON(QuizFile, &questions); err != nil {
		return nil, fmt.Errorf("load quiz: %w", err)
	}
	return questions, nil
}

// readJSON decodes name into v. found is false when the file does not exist.
func (s *Store) readJSON(name string, v any) (found bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return true, nil
	}
	return true, json.Unmarshal(data, v)
}

// writeJSON encodes v to a temp file next to name and renames it over name.
func (s *Store) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, "."+name+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path(name))
}
