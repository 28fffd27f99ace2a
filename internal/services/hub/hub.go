package hub

import (
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/narrato/internal/models"
)

// Conn is the write side of a subscriber connection. WebSocket connections
// satisfy this through a per-connection locked writer.
type Conn interface {
	SendEvent(event *models.JobEvent) error
}

// Hub fans job events out to subscribed connections. A connection may watch
// any number of jobs and a job may have any number of watchers; the two
// index maps are kept in lockstep under one mutex.
type Hub struct {
	mu     sync.RWMutex
	byJob  map[string]map[Conn]bool
	byConn map[Conn]map[string]bool
	logger arbor.ILogger
}

// NewHub creates an empty notification hub
func NewHub(logger arbor.ILogger) *Hub {
	return &Hub{
		byJob:  make(map[string]map[Conn]bool),
		byConn: make(map[Conn]map[string]bool),
		logger: logger,
	}
}

// Subscribe registers a connection's interest in a job. Subscribing twice
// to the same job is a no-op.
func (h *Hub) Subscribe(conn Conn, jobID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.byJob[jobID] == nil {
		h.byJob[jobID] = make(map[Conn]bool)
	}
	h.byJob[jobID][conn] = true

	if h.byConn[conn] == nil {
		h.byConn[conn] = make(map[string]bool)
	}
	h.byConn[conn][jobID] = true

	h.logger.Debug().
		Str("job_id", jobID).
		Int("watchers", len(h.byJob[jobID])).
		Msg("Connection subscribed to job")
}

// Unsubscribe removes a connection's interest in a single job
func (h *Hub) Unsubscribe(conn Conn, jobID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeLocked(conn, jobID)
}

// RemoveConn drops a connection and all of its subscriptions. Called on
// disconnect.
func (h *Hub) RemoveConn(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for jobID := range h.byConn[conn] {
		h.removeLocked(conn, jobID)
	}
}

func (h *Hub) removeLocked(conn Conn, jobID string) {
	if watchers, ok := h.byJob[jobID]; ok {
		delete(watchers, conn)
		if len(watchers) == 0 {
			delete(h.byJob, jobID)
		}
	}
	if jobs, ok := h.byConn[conn]; ok {
		delete(jobs, jobID)
		if len(jobs) == 0 {
			delete(h.byConn, conn)
		}
	}
}

// Publish delivers an event to every watcher of the job. Delivery is
// fire-and-forget: a failed send is logged and the connection dropped,
// and events published before a subscription existed are not replayed.
func (h *Hub) Publish(event *models.JobEvent) {
	h.mu.RLock()
	watchers := make([]Conn, 0, len(h.byJob[event.JobID]))
	for conn := range h.byJob[event.JobID] {
		watchers = append(watchers, conn)
	}
	h.mu.RUnlock()

	var failed []Conn
	for _, conn := range watchers {
		if err := conn.SendEvent(event); err != nil {
			h.logger.Warn().
				Err(err).
				Str("job_id", event.JobID).
				Msg("Dropping connection after failed push")
			failed = append(failed, conn)
		}
	}

	for _, conn := range failed {
		h.RemoveConn(conn)
	}
}

// WatcherCount returns the number of connections watching a job
func (h *Hub) WatcherCount(jobID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byJob[jobID])
}
