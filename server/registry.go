package main

import (
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
)

// NewRegistry creates an empty registry for one stream namespace.
func NewRegistry(namespace string) *Registry {
	return &Registry{
		namespace: namespace,
		streams:   make(map[string]*StreamEntry),
	}
}

// GetOrCreate returns the entry for id, inserting a fresh empty one if it
// does not exist yet. Concurrent callers racing on the same unseen id all
// receive the same entry; created is true for exactly one of them.
func (r *Registry) GetOrCreate(id string) (entry *StreamEntry, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.streams[id]; ok {
		return e, false
	}

	e := &StreamEntry{
		id:   id,
		done: make(chan struct{}),
	}
	r.streams[id] = e
	log.WithField("stream", id).Infof("registered %s stream", r.namespace)
	return e, true
}

// Get looks up id without creating it.
func (r *Registry) Get(id string) (*StreamEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.streams[id]
	return e, ok
}

// Remove deletes the entry for id, stopping its capture worker and
// terminating its viewers. Removing an unknown id is not an error.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	e, ok := r.streams[id]
	if ok {
		delete(r.streams, id)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	e.close()
	log.WithField("stream", id).Infof("removed %s stream", r.namespace)
	return true
}

// List returns a point-in-time status summary of every registered stream,
// sorted by id. Per-entry values are consistent; the listing as a whole is
// not atomic across entries.
func (r *Registry) List(threshold time.Duration) []StreamStatus {
	r.mu.RLock()
	entries := make([]*StreamEntry, 0, len(r.streams))
	for _, e := range r.streams {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	statuses := make([]StreamStatus, 0, len(entries))
	for _, e := range entries {
		statuses = append(statuses, e.status(threshold))
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].ID < statuses[j].ID })
	return statuses
}

// RemoveAll removes every registered stream. Used during shutdown.
func (r *Registry) RemoveAll() {
	r.mu.RLock()
	ids := make([]string, 0, len(r.streams))
	for id := range r.streams {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	for _, id := range ids {
		r.Remove(id)
	}
}

// attachWorker binds w to the entry. It fails if the entry was already
// removed or already has a worker, in which case w must not be started.
func (e *StreamEntry) attachWorker(w *CaptureWorker) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed || e.worker != nil {
		return false
	}
	e.worker = w
	return true
}

// storeFrame writes payload into the entry's buffer unless the entry has
// been removed. Stores and removal serialize on e.mu, so once Remove returns
// no further frame can land in the buffer.
func (e *StreamEntry) storeFrame(payload []byte) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return false
	}
	e.frame.Write(payload)
	return true
}

// close marks the entry removed, stops its worker and signals viewers.
// Safe to call more than once.
func (e *StreamEntry) close() {
	e.mu.Lock()
	if e.removed {
		e.mu.Unlock()
		return
	}
	e.removed = true
	w := e.worker
	e.mu.Unlock()

	if w != nil {
		w.stop()
	}
	close(e.done)
}

// status summarizes the entry for list and status responses.
func (e *StreamEntry) status(threshold time.Duration) StreamStatus {
	rec := e.frame.Read()
	st := StreamStatus{
		ID:           e.id,
		CaptureCount: rec.Sequence,
		IsOnline:     isOnline(rec, threshold, time.Now()),
	}
	if rec.Sequence > 0 {
		t := rec.CapturedAt
		st.LastUpdate = &t
	}
	return st
}
