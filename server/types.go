package main

import (
	"context"
	"sync"
	"time"
)

// FrameRecord is one cached frame together with its metadata. Payload is an
// opaque byte buffer (normally a complete JPEG image) and must never be
// mutated after the record has been stored.
type FrameRecord struct {
	Payload    []byte
	CapturedAt time.Time
	Sequence   uint64
}

// FrameBuffer holds the single latest frame of one stream. Writes replace
// the whole record under the lock so a reader can never observe payload and
// metadata from two different writes.
type FrameBuffer struct {
	mu     sync.RWMutex
	record FrameRecord
}

// StreamEntry is one registered stream: its frame buffer plus, for
// capture-origin streams, the worker that feeds it. Entries are owned by a
// Registry and must only be obtained through one.
type StreamEntry struct {
	id    string
	frame FrameBuffer

	mu      sync.Mutex
	worker  *CaptureWorker
	removed bool

	// done is closed when the entry is removed, terminating all viewers.
	done chan struct{}
}

// Registry maps stream identifiers to their entries for one namespace.
// Pushed streams and captured streams live in separate registries.
type Registry struct {
	namespace string
	mu        sync.RWMutex
	streams   map[string]*StreamEntry
}

// CaptureWorker periodically grabs a single frame from a source URL and
// writes it into its entry's frame buffer. One worker per captured stream;
// invocations never overlap.
type CaptureWorker struct {
	entry     *StreamEntry
	sourceURL string
	interval  time.Duration
	timeout   time.Duration
	grab      grabFunc

	// ctx and cancel exist from construction, so stopping a worker is
	// effective even if its loop was never started.
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	failures int
}

// grabFunc fetches one frame from a source URL, honoring ctx for
// cancellation and deadline. The default implementation shells out to ffmpeg.
type grabFunc func(ctx context.Context, sourceURL string) ([]byte, error)

// StreamStatus is the wire representation of a stream in status and list
// responses. LastUpdate is null until the first frame arrives.
type StreamStatus struct {
	ID           string     `json:"id"`
	CaptureCount uint64     `json:"capture_count"`
	IsOnline     bool       `json:"is_online"`
	LastUpdate   *time.Time `json:"last_update"`
}
