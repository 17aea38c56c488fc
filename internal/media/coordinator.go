package media

import (
	"fmt"
	"sort"
)

// Coordinator owns the widgets discovered on one page.
//
// Exclusivity is enforced from the media "play" signal rather than from the
// buttons, so playback started by any path (button, click on the video,
// another script) pauses the rest. When two widgets start in quick succession
// the last observed play wins.
type Coordinator struct {
	sink    Sink
	widgets []*widget
	byID    map[string]*widget
}

type widget struct {
	id      string
	handle  Handle
	overlay Overlay
	playing bool
	muted   bool
	bound   bool
	subs    []Disposer

	// stops counts the times the widget was paused or ended. A play
	// completion only counts if nothing stopped the widget since the request.
	stops int
}

// NewCoordinator returns an empty coordinator reporting faults to sink.
// A nil sink discards them.
func NewCoordinator(sink Sink) *Coordinator {
	if sink == nil {
		sink = SinkFunc(func(string, error) {})
	}
	return &Coordinator{
		sink: sink,
		byID: make(map[string]*widget),
	}
}

// DiscoverAndBind wires every complete handle. It can be called again with
// the same handles: a widget that is already bound has its previous
// subscriptions disposed before the new ones are registered. A rebound widget
// whose controls disappeared is unbound.
func (c *Coordinator) DiscoverAndBind(handles []Handle) {
	for i, h := range handles {
		if h.ID == "" {
			h.ID = fmt.Sprintf("video-%d", i)
		}
		if h.Media == nil || h.PlayPause == nil || h.Mute == nil {
			c.unbind(h.ID)
			c.sink.Report(h.ID, &MissingControlError{
				Index:     i,
				ID:        h.ID,
				Media:     h.Media != nil,
				PlayPause: h.PlayPause != nil,
				Mute:      h.Mute != nil,
			})
			continue
		}
		c.bind(h)
	}
}

func (c *Coordinator) bind(h Handle) {
	w, ok := c.byID[h.ID]
	if ok {
		w.dispose()
	} else {
		w = &widget{id: h.ID}
		c.byID[h.ID] = w
		c.widgets = append(c.widgets, w)
	}
	w.handle = h
	w.overlay = h.Overlay
	if w.overlay == nil {
		w.overlay = noOverlay{}
	}
	w.bound = true

	h.Media.SetMuted(true)
	c.setMuted(w, true)
	if h.Media.Paused() {
		c.setPlaying(w, false)
	} else {
		c.started(w)
	}

	w.subs = []Disposer{
		h.PlayPause.OnActivated(func() { c.guard(w, func() { c.toggle(w) }) }),
		h.Media.OnActivated(func() { c.guard(w, func() { c.toggle(w) }) }),
		h.Mute.OnActivated(func() { c.guard(w, func() { c.toggleMute(w) }) }),
		h.Media.OnPlay(func() { c.guard(w, func() { c.started(w) }) }),
		h.Media.OnPause(func() { c.guard(w, func() { c.stopped(w) }) }),
		h.Media.OnEnded(func() { c.guard(w, func() { c.stopped(w) }) }),
		h.Media.OnError(func(err error) {
			c.guard(w, func() { c.sink.Report(w.id, &PlaybackRuntimeError{ID: w.id, Err: err}) })
		}),
	}
}

func (c *Coordinator) unbind(id string) {
	w, ok := c.byID[id]
	if !ok {
		return
	}
	w.dispose()
	delete(c.byID, id)
	for i, other := range c.widgets {
		if other == w {
			c.widgets = append(c.widgets[:i], c.widgets[i+1:]...)
			break
		}
	}
}

func (w *widget) dispose() {
	for _, d := range w.subs {
		d()
	}
	w.subs = nil
	w.bound = false
}

func (c *Coordinator) toggle(w *widget) {
	m := w.handle.Media
	if !m.Paused() {
		m.Pause()
		c.stopped(w)
		return
	}
	stops := w.stops
	m.Play(func(err error) {
		c.guard(w, func() {
			if !w.bound {
				return
			}
			if err != nil {
				c.sink.Report(w.id, &PlaybackRejected{ID: w.id, Err: err})
				return
			}
			if w.stops != stops {
				return
			}
			c.started(w)
		})
	})
}

func (c *Coordinator) toggleMute(w *widget) {
	m := w.handle.Media
	muted := !m.Muted()
	m.SetMuted(muted)
	c.setMuted(w, muted)
}

// started runs for every play signal, including the ones this coordinator
// caused. The redundant pass for self-initiated plays is what catches plays
// started from outside.
func (c *Coordinator) started(w *widget) {
	c.setPlaying(w, true)
	for _, other := range c.widgets {
		if other == w || !other.playing {
			continue
		}
		other.handle.Media.Pause()
		c.stopped(other)
	}
}

func (c *Coordinator) stopped(w *widget) {
	w.stops++
	c.setPlaying(w, false)
}

func (c *Coordinator) setPlaying(w *widget, playing bool) {
	w.playing = playing
	w.overlay.SetPlayingVisual(playing)
}

func (c *Coordinator) setMuted(w *widget, muted bool) {
	w.muted = muted
	w.overlay.SetMutedVisual(muted)
}

// guard keeps a fault in one widget's reaction from escaping to the host.
func (c *Coordinator) guard(w *widget, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.sink.Report(w.id, fmt.Errorf("video %s: reaction panicked: %v", w.id, r))
		}
	}()
	fn()
}

// Widgets returns the bound widgets in discovery order.
func (c *Coordinator) Widgets() []Widget {
	out := make([]Widget, 0, len(c.widgets))
	for _, w := range c.widgets {
		out = append(out, Widget{ID: w.id, Playing: w.playing, Muted: w.muted})
	}
	return out
}

// Widget looks up a bound widget by ID.
func (c *Coordinator) Widget(id string) (Widget, bool) {
	w, ok := c.byID[id]
	if !ok {
		return Widget{}, false
	}
	return Widget{ID: w.id, Playing: w.playing, Muted: w.muted}, true
}

// Playing returns the sorted IDs of the widgets marked playing.
func (c *Coordinator) Playing() []string {
	var ids []string
	for _, w := range c.widgets {
		if w.playing {
			ids = append(ids, w.id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Close disposes every subscription. The coordinator is empty afterwards.
func (c *Coordinator) Close() {
	for _, w := range c.widgets {
		w.dispose()
	}
	c.widgets = nil
	c.byID = make(map[string]*widget)
}
