package remote

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/devfolio/folio/internal/dispatch"
	"github.com/devfolio/folio/internal/media"
)

// Conn is the part of *websocket.Conn a session uses.
type Conn interface {
	ReadJSON(v any) error
	WriteJSON(v any) error
	Close() error
}

// Options tune a session.
type Options struct {
	// PlayTimeout rejects a play request the page did not answer in time.
	PlayTimeout time.Duration
	// QueueSize bounds the messages waiting to be written to the page.
	QueueSize int
}

func (o Options) withDefaults() Options {
	if o.PlayTimeout <= 0 {
		o.PlayTimeout = 10 * time.Second
	}
	if o.QueueSize <= 0 {
		o.QueueSize = 64
	}
	return o
}

// Session is one open page. Everything except the read and write pumps runs
// on the session loop.
type Session struct {
	ID string

	conn        Conn
	loop        *dispatch.Loop
	coord       *media.Coordinator
	out         chan Outbound
	playTimeout time.Duration
	seq         uint64
	scans       int

	order   []string
	videos  map[string]*Video
	buttons map[string]*buttons
	cards   map[string]*Card
}

type buttons struct {
	playPause *Control
	mute      *Control
}

func NewSession(id string, conn Conn, sink media.Sink, opts Options) *Session {
	opts = opts.withDefaults()
	return &Session{
		ID:          id,
		conn:        conn,
		loop:        dispatch.New(),
		coord:       media.NewCoordinator(sink),
		out:         make(chan Outbound, opts.QueueSize),
		playTimeout: opts.PlayTimeout,
		videos:      make(map[string]*Video),
		buttons:     make(map[string]*buttons),
		cards:       make(map[string]*Card),
	}
}

// Serve runs the session until the page disconnects or ctx is done.
func (s *Session) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.loop.Run(ctx)
	go s.writePump(ctx)

	err := s.readPump()

	if doErr := s.loop.Do(ctx, s.teardown); doErr != nil && !errors.Is(doErr, dispatch.ErrStopped) {
		log.Printf("remote: session %s teardown: %v", s.ID, doErr)
	}
	s.loop.Stop()
	s.conn.Close()
	return err
}

func (s *Session) readPump() error {
	for {
		var in Inbound
		if err := s.conn.ReadJSON(&in); err != nil {
			return err
		}
		if !s.loop.Post(func() { s.handle(in) }) {
			return dispatch.ErrStopped
		}
	}
}

func (s *Session) writePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			// unblocks readPump
			s.conn.Close()
			return
		case msg := <-s.out:
			if err := s.conn.WriteJSON(msg); err != nil {
				log.Printf("remote: session %s write: %v", s.ID, err)
				s.conn.Close()
				return
			}
		}
	}
}

// send queues msg for the page. A page that stops reading loses messages
// rather than stalling the loop.
func (s *Session) send(msg Outbound) error {
	select {
	case <-s.loop.Done():
		return ErrClosed
	default:
	}
	select {
	case s.out <- msg:
		return nil
	default:
		log.Printf("remote: session %s outbound queue full, dropping %s for %s", s.ID, msg.Type, msg.ID)
		return ErrQueueFull
	}
}

func (s *Session) nextSeq() uint64 {
	s.seq++
	return s.seq
}

func (s *Session) handle(in Inbound) {
	switch in.Type {
	case TypeScan:
		s.scan(in.Widgets)
	case TypeActivate:
		s.activate(in.ID, in.Control)
	case TypeMedia:
		v, ok := s.videos[in.ID]
		if !ok {
			s.reject("media event for unknown video %q", in.ID)
			return
		}
		if !v.observe(in.Event, in.Error) {
			s.reject("unknown media event %q", in.Event)
		}
	case TypePlayed:
		v, ok := s.videos[in.ID]
		if !ok {
			s.reject("play result for unknown video %q", in.ID)
			return
		}
		var err error
		if in.Error != "" {
			err = errors.New(in.Error)
		}
		v.settle(in.Seq, err)
	default:
		s.reject("unknown message type %q", in.Type)
	}
}

func (s *Session) activate(id, control string) {
	switch control {
	case ControlMedia:
		if v, ok := s.videos[id]; ok {
			v.activated.Emit(struct{}{})
			return
		}
	case ControlPlayPause:
		if b, ok := s.buttons[id]; ok && b.playPause != nil {
			b.playPause.activate()
			return
		}
	case ControlMute:
		if b, ok := s.buttons[id]; ok && b.mute != nil {
			b.mute.activate()
			return
		}
	default:
		s.reject("unknown control %q", control)
		return
	}
	s.reject("%s activated on unknown video %q", control, id)
}

func (s *Session) reject(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Printf("remote: session %s: %s", s.ID, msg)
	s.send(Outbound{Type: TypeError, Message: msg})
}

// scan turns the containers the page found into handles and binds them.
// Elements are reused across scans so rebinding replaces listeners instead
// of stacking them.
func (s *Session) scan(containers []Container) {
	s.scans++
	handles := make([]media.Handle, 0, len(containers))
	for i, c := range containers {
		if c.ID == "" {
			c.ID = fmt.Sprintf("video-%d", i)
		}
		if _, ok := s.cards[c.ID]; !ok {
			s.order = append(s.order, c.ID)
			s.cards[c.ID] = &Card{id: c.ID, s: s}
			s.buttons[c.ID] = &buttons{}
		}
		h := media.Handle{ID: c.ID, Overlay: s.cards[c.ID]}

		if c.Media {
			v, ok := s.videos[c.ID]
			if ok {
				v.update(c)
			} else {
				v = newVideo(s, c)
				s.videos[c.ID] = v
			}
			h.Media = v
		} else if v, ok := s.videos[c.ID]; ok {
			v.abandon()
			delete(s.videos, c.ID)
		}

		b := s.buttons[c.ID]
		if c.PlayPause {
			if b.playPause == nil {
				b.playPause = &Control{}
			}
			h.PlayPause = b.playPause
		} else {
			b.playPause = nil
		}
		if c.Mute {
			if b.mute == nil {
				b.mute = &Control{}
			}
			h.Mute = b.mute
		} else {
			b.mute = nil
		}

		handles = append(handles, h)
	}
	s.coord.DiscoverAndBind(handles)
}

func (s *Session) teardown() {
	s.coord.Close()
	for _, v := range s.videos {
		v.abandon()
	}
}

// Snapshot is the debug view of a session.
type Snapshot struct {
	ID      string        `json:"id"`
	Scans   int           `json:"scans"`
	Widgets []WidgetState `json:"widgets"`
}

// WidgetState joins what the page reported with the coordinator's model.
type WidgetState struct {
	ID        string `json:"id"`
	Bound     bool   `json:"bound"`
	Media     bool   `json:"media"`
	PlayPause bool   `json:"playPause"`
	Mute      bool   `json:"mute"`
	Overlay   bool   `json:"overlay"`
	Src       string `json:"src,omitempty"`
	Paused    bool   `json:"paused"`
	Muted     bool   `json:"muted"`
	Playing   bool   `json:"playing"`
	Pending   int    `json:"pendingPlays"`
}

// Snapshot reads the session state on its loop.
func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.loop.Do(ctx, func() {
		snap = Snapshot{ID: s.ID, Scans: s.scans}
		for _, id := range s.order {
			ws := WidgetState{ID: id}
			if w, ok := s.coord.Widget(id); ok {
				ws.Bound = true
				ws.Playing = w.Playing
			}
			if v, ok := s.videos[id]; ok {
				ws.Media = true
				ws.Src = v.src
				ws.Overlay = v.overlay
				ws.Paused = v.paused
				ws.Muted = v.muted
				ws.Pending = len(v.pending)
			}
			b := s.buttons[id]
			ws.PlayPause = b.playPause != nil
			ws.Mute = b.mute != nil
			snap.Widgets = append(snap.Widgets, ws)
		}
	})
	return snap, err
}
