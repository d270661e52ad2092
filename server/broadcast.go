package main

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// streamMJPEG serves one viewer a multipart MJPEG response from the entry's
// frame buffer. Each tick the current frame is emitted only if the sequence
// advanced, so the viewer's rate is decoupled from the producer's: slow
// viewers skip frames instead of queueing them. The loop ends when the
// viewer disconnects or the stream is removed, never because the buffer is
// empty.
func (s *Server) streamMJPEG(c *gin.Context, entry *StreamEntry) {
	c.Header("Content-Type", "multipart/x-mixed-replace; boundary="+MJPEGBoundary)
	c.Header("Cache-Control", "no-cache")

	viewer := log.WithField("stream", entry.id).WithField("viewer", c.ClientIP())
	viewer.Info("mjpeg viewer connected")
	defer viewer.Info("mjpeg viewer disconnected")

	ticker := time.NewTicker(s.cfg.ViewerInterval)
	defer ticker.Stop()

	ctx := c.Request.Context()
	var lastSeq uint64

	for {
		select {
		case <-ctx.Done():
			return
		case <-entry.done:
			return
		case <-ticker.C:
			rec := entry.frame.Read()
			if rec.Sequence == 0 || rec.Sequence == lastSeq {
				continue
			}
			lastSeq = rec.Sequence

			if err := writePart(c, rec.Payload); err != nil {
				return
			}
			c.Writer.Flush()
		}
	}
}

// writePart emits one boundary-delimited JPEG part.
func writePart(c *gin.Context, payload []byte) error {
	header := fmt.Sprintf("--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", MJPEGBoundary, len(payload))
	if _, err := c.Writer.WriteString(header); err != nil {
		return err
	}
	if _, err := c.Writer.Write(payload); err != nil {
		return err
	}
	_, err := c.Writer.WriteString("\r\n")
	return err
}
