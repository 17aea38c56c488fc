package remote

import (
	"context"
	"log"
	"net/http"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/devfolio/folio/internal/media"
)

// Hub accepts page connections and keeps track of the live sessions.
type Hub struct {
	sinks    func(sessionID string) media.Sink
	opts     Options
	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
	wg       sync.WaitGroup
}

// NewHub returns a hub whose sessions report to the sink sinks returns for
// their ID. sinks may be nil.
func NewHub(sinks func(sessionID string) media.Sink, opts Options) *Hub {
	return &Hub{
		sinks: sinks,
		opts:  opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		sessions: make(map[string]*Session),
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("remote: upgrade: %v", err)
		return
	}

	id := uuid.NewString()
	var sink media.Sink
	if h.sinks != nil {
		sink = h.sinks(id)
	}
	s := NewSession(id, conn, sink, h.opts)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.sessions[id] = s
	h.wg.Add(1)
	h.mu.Unlock()
	defer h.wg.Done()
	defer func() {
		h.mu.Lock()
		delete(h.sessions, id)
		h.mu.Unlock()
	}()

	log.Printf("remote: session %s opened", id)
	err = s.Serve(r.Context())
	if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
		log.Printf("remote: session %s: %v", id, err)
	}
	log.Printf("remote: session %s closed", id)
}

// Len reports the number of open sessions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

func (h *Hub) list() []*Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Snapshots returns the debug view of every open session. Sessions closing
// while they are read are left out.
func (h *Hub) Snapshots(ctx context.Context) []Snapshot {
	out := []Snapshot{}
	for _, s := range h.list() {
		snap, err := s.Snapshot(ctx)
		if err != nil {
			continue
		}
		out = append(out, snap)
	}
	return out
}

// Close disconnects every page and waits for their sessions to finish.
// Connections arriving afterwards are refused.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	for _, s := range h.list() {
		s.conn.Close()
	}
	h.wg.Wait()
}
