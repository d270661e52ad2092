package main

import "time"

// Server tuning constants. Anything operators may need to change per
// deployment lives in Config instead.
const (
	// MJPEGBoundary separates parts in multipart viewer responses
	MJPEGBoundary = "frame"

	// MaxConsecutiveGrabFailures is how many grab failures in a row are
	// tolerated before the stream is reported as likely offline
	MaxConsecutiveGrabFailures = 5

	// WebSocketPingInterval is how often to send ping messages to clients
	WebSocketPingInterval = 54 * time.Second

	// WebSocketReadDeadline is the deadline for reading WebSocket messages
	WebSocketReadDeadline = 60 * time.Second

	// WebSocketWriteDeadline is the deadline for writing WebSocket messages
	WebSocketWriteDeadline = 10 * time.Second

	// WebSocketReadLimit is the maximum message size for incoming WebSocket messages
	WebSocketReadLimit = 512

	// ShutdownTimeout is how long to wait for in-flight requests on shutdown
	ShutdownTimeout = 5 * time.Second
)
