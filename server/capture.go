package main

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// newCaptureWorker creates a worker that feeds entry from sourceURL. The
// worker is inert until start is called, but can already be stopped: its
// context is created here, so a removal racing ahead of start still wins
// and the later start exits immediately.
func newCaptureWorker(entry *StreamEntry, sourceURL string, interval, timeout time.Duration, grab grabFunc) *CaptureWorker {
	ctx, cancel := context.WithCancel(context.Background())
	return &CaptureWorker{
		entry:     entry,
		sourceURL: sourceURL,
		interval:  interval,
		timeout:   timeout,
		grab:      grab,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// start launches the capture loop. The loop runs until stop is called; it
// never gives up on a failing source by itself.
func (w *CaptureWorker) start() {
	go w.run(w.ctx)
	log.WithField("stream", w.entry.id).Infof("capture worker started for %s", w.sourceURL)
}

// stop cancels the loop and kills any in-flight grab.
func (w *CaptureWorker) stop() {
	w.cancel()
}

func (w *CaptureWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.WithField("stream", w.entry.id).Info("capture worker stopped")
			return
		case <-ticker.C:
			w.captureOnce(ctx)
		}
	}
}

// captureOnce performs a single grab. It runs synchronously on the loop
// goroutine so grabs for one stream never overlap.
func (w *CaptureWorker) captureOnce(ctx context.Context) {
	grabCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	payload, err := w.grab(grabCtx, w.sourceURL)
	if err != nil {
		w.mu.Lock()
		w.failures++
		n := w.failures
		w.mu.Unlock()

		entry := log.WithField("stream", w.entry.id).WithField("consecutive_failures", n)
		if n == MaxConsecutiveGrabFailures {
			entry.WithError(err).Error("repeated grab failures, stream appears offline")
		} else {
			entry.WithError(err).Warn("frame grab failed")
		}
		return
	}

	// The grab may have finished while the stream was being removed.
	// storeFrame serializes with removal, so a removed entry's buffer sees
	// no late writes.
	if !w.entry.storeFrame(payload) {
		return
	}

	w.mu.Lock()
	recovered := w.failures > 0
	w.failures = 0
	w.mu.Unlock()
	if recovered {
		log.WithField("stream", w.entry.id).Info("frame grab recovered")
	}
}

// failureCount returns the current consecutive failure count.
func (w *CaptureWorker) failureCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.failures
}

// ffmpegGrab extracts a single JPEG frame from sourceURL using ffmpeg.
// Cancelling ctx kills the process.
func ffmpegGrab(ffmpegPath string) grabFunc {
	return func(ctx context.Context, sourceURL string) ([]byte, error) {
		args := []string{
			"-hide_banner",
			"-loglevel", "error",
			"-i", sourceURL,
			"-frames:v", "1",
			"-f", "image2",
			"-c:v", "mjpeg",
			"-q:v", "5",
			"pipe:1",
		}

		cmd := exec.CommandContext(ctx, ffmpegPath, args...)
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("grab timed out: %w", ctx.Err())
			}
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				return nil, fmt.Errorf("ffmpeg: %v: %s", err, msg)
			}
			return nil, fmt.Errorf("ffmpeg: %w", err)
		}

		frame := stdout.Bytes()
		if len(frame) == 0 {
			return nil, fmt.Errorf("ffmpeg produced no frame data")
		}
		return frame, nil
	}
}

// resolveFFmpeg locates the ffmpeg binary: an explicit configured path wins,
// otherwise the system PATH is searched.
func resolveFFmpeg(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	return exec.LookPath("ffmpeg")
}
