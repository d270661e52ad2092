package main

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// wsClient is one WebSocket viewer of a stream. Unlike the MJPEG path it
// delivers bare JPEG frames as binary messages, which native clients decode
// without multipart parsing.
type wsClient struct {
	id       string
	entry    *StreamEntry
	conn     *websocket.Conn
	interval time.Duration
	log      *log.Entry
}

func newWSClient(entry *StreamEntry, conn *websocket.Conn, interval time.Duration) *wsClient {
	id := uuid.Must(uuid.NewV4()).String()
	return &wsClient{
		id:       id,
		entry:    entry,
		conn:     conn,
		interval: interval,
		log:      log.WithField("stream", entry.id).WithField("client", id),
	}
}

// readPump drains incoming messages so pongs and close frames are processed.
// Any read error means the client went away; closing the connection makes
// writePump exit on its next write.
func (c *wsClient) readPump() {
	defer c.conn.Close()

	c.conn.SetReadLimit(WebSocketReadLimit)
	c.conn.SetReadDeadline(time.Now().Add(WebSocketReadDeadline))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(WebSocketReadDeadline))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.WithError(err).Warn("websocket read error")
			}
			return
		}
	}
}

// writePump polls the frame buffer at the viewer cadence and sends each new
// frame as a binary message. It ends when the client disconnects or the
// stream is removed.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(c.interval)
	pinger := time.NewTicker(WebSocketPingInterval)
	defer func() {
		ticker.Stop()
		pinger.Stop()
		c.conn.Close()
		c.log.Info("websocket viewer disconnected")
	}()

	var lastSeq uint64
	for {
		select {
		case <-c.entry.done:
			c.conn.SetWriteDeadline(time.Now().Add(WebSocketWriteDeadline))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "stream removed"))
			return

		case <-ticker.C:
			rec := c.entry.frame.Read()
			if rec.Sequence == 0 || rec.Sequence == lastSeq {
				continue
			}
			lastSeq = rec.Sequence

			c.conn.SetWriteDeadline(time.Now().Add(WebSocketWriteDeadline))
			if err := c.conn.WriteMessage(websocket.BinaryMessage, rec.Payload); err != nil {
				return
			}

		case <-pinger.C:
			c.conn.SetWriteDeadline(time.Now().Add(WebSocketWriteDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
