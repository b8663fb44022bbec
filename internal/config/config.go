package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"storymap/internal/journey"
	"storymap/internal/store"
)

// Settings is the runtime configuration, read from the environment.
type Settings struct {
	Addr           string
	DataDir        string
	MediaURLPrefix string
	MapToken       string
	LogFile        string
	LogLevel       string
	MaxUploadMB    int64
	CORSOrigins    []string

	RouteAnimation string
	RouteSpeedKmps float64
	AutoPlayDelay  time.Duration
	WatchDebounce  time.Duration
}

var (
	// App holds the loaded settings.
	App *Settings
	// Store is the globally accessible content store.
	Store *store.Store
)

// Load reads .env (if present) and the environment into App.
func Load() *Settings {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found – relying on env vars")
	}

	App = &Settings{
		Addr:           getEnv("ADDR", "0.0.0.0:8080"),
		DataDir:        getEnv("DATA_DIR", "./data"),
		MediaURLPrefix: getEnv("MEDIA_URL_PREFIX", "/media"),
		MapToken:       getEnv("MAP_TOKEN", ""),
		LogFile:        getEnv("LOG_FILE", "./logs/app.log"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		MaxUploadMB:    int64(getEnvInt("MAX_UPLOAD_MB", 200)),
		CORSOrigins:    getEnvList("CORS_ORIGINS"),
		RouteAnimation: getEnv("ROUTE_ANIMATION", string(journey.RouteFixed)),
		RouteSpeedKmps: getEnvFloat("ROUTE_SPEED_KMPS", journey.DefaultTiming().SpeedKmPerSec),
		AutoPlayDelay:  time.Duration(getEnvInt("AUTOPLAY_DELAY_MS", 2500)) * time.Millisecond,
		WatchDebounce:  time.Duration(getEnvInt("WATCH_DEBOUNCE_MS", 300)) * time.Millisecond,
	}
	return App
}

// InitStore opens the content store under the configured data directory.
func InitStore() {
	s, err := store.New(App.DataDir, App.MediaURLPrefix)
	if err != nil {
		log.Fatalf("failed to open data dir %s: %v", App.DataDir, err)
	}
	Store = s
}

// Timing returns the journey animation parameters for these settings.
func (s *Settings) Timing() journey.Timing {
	t := journey.DefaultTiming()
	if s == nil {
		return t
	}
	if s.RouteAnimation == string(journey.RouteDistance) {
		t.RouteMode = journey.RouteDistance
	}
	if s.RouteSpeedKmps > 0 {
		t.SpeedKmPerSec = s.RouteSpeedKmps
	}
	if s.AutoPlayDelay > 0 {
		t.AutoPlayDelay = s.AutoPlayDelay
	}
	return t
}

// getEnv reads an environment variable or returns the provided default
func getEnv(key, defaultValue string) string {
	if v, exists := os.LookupEnv(key); exists {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return v
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping empty entries.
func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(getEnv(key, ""), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
