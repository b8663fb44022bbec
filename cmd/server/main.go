package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storymap/internal/config"
	"storymap/internal/controllers"
	"storymap/internal/logger"
	"storymap/internal/middleware"
	"storymap/internal/routes"
)

func main() {
	cfg := config.Load()

	// Initialize structured logging to file
	accessLog := logger.Setup(cfg.LogFile, cfg.LogLevel)

	// Open the content store
	config.InitStore()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Live playback sessions follow edits to places.json / routes.json
	if err := config.Store.Watch(ctx, cfg.WatchDebounce, controllers.Journeys.Reload); err != nil {
		logrus.WithError(err).Warn("content watcher disabled")
	}

	gin.SetMode(gin.ReleaseMode)
	r := routes.SetupRouter(accessLog)

	// Wrap with CORS
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           middleware.EnableCORS(r, cfg.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.WithField("addr", cfg.Addr).Info("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	logrus.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("graceful shutdown failed")
	}
}
