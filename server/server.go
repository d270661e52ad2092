package main

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// Server wires the two stream registries to the HTTP surface.
type Server struct {
	cfg      Config
	push     *Registry
	captured *Registry
	grab     grabFunc
}

// newServer creates a server with empty registries. ffmpegPath may be empty
// when ffmpeg is unavailable; captured streams then fail per tick and report
// offline, while the push namespace keeps working.
func newServer(cfg Config, ffmpegPath string) *Server {
	return &Server{
		cfg:      cfg,
		push:     NewRegistry("push"),
		captured: NewRegistry("rtmp"),
		grab:     ffmpegGrab(ffmpegPath),
	}
}

// routes registers the HTTP surface on r.
func (s *Server) routes(r *gin.Engine) {
	r.Use(corsMiddleware())

	r.POST("/push/:id", s.handlePush)
	r.GET("/view/:id", s.handleView)
	r.GET("/snapshot/:id", s.handleSnapshot)
	r.GET("/list", s.handleList)
	r.GET("/status/:id", s.handleStatus)
	r.DELETE("/remove/:id", s.handleRemove)
	r.GET("/ws/:id", s.handleWebSocket)
	r.GET("/health", handleHealth)

	rtmp := r.Group("/rtmp")
	{
		rtmp.GET("/view/:id", s.handleRTMPView)
		rtmp.GET("/snapshot/:id", s.handleRTMPSnapshot)
		rtmp.GET("/list", s.handleRTMPList)
		rtmp.GET("/status/:id", s.handleRTMPStatus)
		rtmp.DELETE("/remove/:id", s.handleRTMPRemove)
	}
}

// capturedEntry returns the entry for a captured stream, lazily registering
// it and starting its capture worker on first access. Only the goroutine
// that wins the creation race starts a worker, so each stream gets one.
func (s *Server) capturedEntry(id string) *StreamEntry {
	entry, created := s.captured.GetOrCreate(id)
	if created {
		w := newCaptureWorker(entry, s.sourceURL(id), s.cfg.CaptureInterval, s.cfg.CaptureTimeout, s.grab)
		if entry.attachWorker(w) {
			w.start()
		}
	}
	return entry
}

// sourceURL builds the RTMP URL a stream id is captured from.
func (s *Server) sourceURL(id string) string {
	return strings.TrimRight(s.cfg.RTMPBase, "/") + "/" + id
}

// stopAll removes every stream in both namespaces, stopping capture workers
// and disconnecting viewers.
func (s *Server) stopAll() {
	s.push.RemoveAll()
	s.captured.RemoveAll()
}

// corsMiddleware allows browser clients from any origin, the way camera
// dashboards embed the viewer endpoints.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
