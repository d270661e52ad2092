package main

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// getUpgrader returns a WebSocket upgrader configured to allow all origins
func getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// handlePush ingests one frame pushed by a camera. The entry is created on
// first contact; the payload is stored as-is without validation.
func (s *Server) handlePush(c *gin.Context) {
	id := c.Param("id")

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read frame data"})
		return
	}
	if len(body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no frame data"})
		return
	}

	entry, _ := s.push.GetOrCreate(id)
	entry.frame.Write(body)

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// handleView serves the MJPEG feed for a pushed stream.
func (s *Server) handleView(c *gin.Context) {
	entry, ok := s.push.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "stream not found"})
		return
	}
	s.streamMJPEG(c, entry)
}

// handleSnapshot returns the latest cached frame of a pushed stream. A known
// stream that never produced a frame yields 204, distinct from 404.
func (s *Server) handleSnapshot(c *gin.Context) {
	entry, ok := s.push.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "stream not found"})
		return
	}
	writeSnapshot(c, entry)
}

func (s *Server) handleList(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"streams": s.push.List(s.cfg.LivenessThreshold)})
}

func (s *Server) handleStatus(c *gin.Context) {
	entry, ok := s.push.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "stream not found"})
		return
	}
	c.JSON(http.StatusOK, entry.status(s.cfg.LivenessThreshold))
}

// handleRemove deletes a pushed stream. Removal is idempotent: removing an
// unknown id reports removed=false with status 200.
func (s *Server) handleRemove(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"removed": s.push.Remove(c.Param("id"))})
}

// handleWebSocket upgrades the connection and streams frames of a pushed
// stream as binary messages.
func (s *Server) handleWebSocket(c *gin.Context) {
	entry, ok := s.push.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "stream not found"})
		return
	}

	upgrader := getUpgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := newWSClient(entry, conn, s.cfg.ViewerInterval)
	client.log.Info("websocket viewer connected")
	go client.writePump()
	go client.readPump()
}

// Captured (RTMP-origin) namespace. Read access lazily registers the stream
// and starts its capture worker, so viewing an unseen id begins grabbing
// frames from the media server.

func (s *Server) handleRTMPView(c *gin.Context) {
	s.streamMJPEG(c, s.capturedEntry(c.Param("id")))
}

func (s *Server) handleRTMPSnapshot(c *gin.Context) {
	writeSnapshot(c, s.capturedEntry(c.Param("id")))
}

func (s *Server) handleRTMPList(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"streams": s.captured.List(s.cfg.LivenessThreshold)})
}

func (s *Server) handleRTMPStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.capturedEntry(c.Param("id")).status(s.cfg.LivenessThreshold))
}

func (s *Server) handleRTMPRemove(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"removed": s.captured.Remove(c.Param("id"))})
}

// writeSnapshot responds with the entry's current frame, or 204 if none has
// arrived yet.
func writeSnapshot(c *gin.Context, entry *StreamEntry) {
	rec := entry.frame.Read()
	if rec.Sequence == 0 {
		c.Status(http.StatusNoContent)
		return
	}
	c.Data(http.StatusOK, "image/jpeg", rec.Payload)
}

// handleHealth reports process liveness.
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	})
}
