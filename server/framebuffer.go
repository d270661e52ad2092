package main

import "time"

// Write stores payload as the stream's current frame, stamps it with the
// current wall-clock time and advances the sequence counter. The caller must
// not modify payload afterwards.
func (b *FrameBuffer) Write(payload []byte) {
	b.mu.Lock()
	b.record = FrameRecord{
		Payload:    payload,
		CapturedAt: time.Now(),
		Sequence:   b.record.Sequence + 1,
	}
	b.mu.Unlock()
}

// Read returns a snapshot of the current record. A zero Sequence means no
// frame has ever been written. The returned payload is shared and must be
// treated as read-only.
func (b *FrameBuffer) Read() FrameRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.record
}

// isOnline reports whether rec was captured within threshold of now.
// A stream that never produced a frame is always offline.
func isOnline(rec FrameRecord, threshold time.Duration, now time.Time) bool {
	if rec.Sequence == 0 {
		return false
	}
	return now.Sub(rec.CapturedAt) < threshold
}
