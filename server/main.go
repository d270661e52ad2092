package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Luzifer/rconfig/v2"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

var cfg = Config{}

// main starts the camera frame relay server.
func main() {
	if err := rconfig.ParseAndValidate(&cfg); err != nil {
		log.Fatalf("Unable to parse commandline options: %s", err)
	}

	if l, err := log.ParseLevel(cfg.LogLevel); err != nil {
		log.WithError(err).Fatal("Unable to parse log level")
	} else {
		log.SetLevel(l)
	}

	// Captured streams need ffmpeg; pushed streams do not. A missing binary
	// only degrades the RTMP namespace, so it is not fatal.
	ffmpegPath, err := resolveFFmpeg(cfg.FFmpegPath)
	if err != nil {
		log.WithError(err).Warn("ffmpeg not found, RTMP frame capture will fail until it is installed")
	} else {
		log.WithField("path", ffmpegPath).Info("using ffmpeg")
	}

	s := newServer(cfg, ffmpegPath)

	r := gin.Default()
	s.routes(r)

	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: r,
	}

	go func() {
		log.WithField("addr", cfg.Listen).Info("camera relay server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	// Stopping streams first cancels capture workers and ends the open
	// viewer responses so Shutdown can drain quickly.
	s.stopAll()

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("forced shutdown")
	}

	log.Info("server exited")
}
