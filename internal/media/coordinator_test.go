package media

import (
	"errors"
	"math/rand"
	"testing"
)

type fakeButton struct {
	activated Signal[struct{}]
}

func (b *fakeButton) OnActivated(fn func()) Disposer { return Void(&b.activated, fn) }

func (b *fakeButton) click() { b.activated.Emit(struct{}{}) }

type fakeMedia struct {
	fakeButton
	paused  bool
	muted   bool
	playErr error
	hold    bool
	pending []func(error)

	play, pause, ended Signal[struct{}]
	errs               Signal[error]
}

func newFakeMedia() *fakeMedia { return &fakeMedia{paused: true} }

func (m *fakeMedia) Play(done func(error)) {
	if m.hold {
		m.pending = append(m.pending, done)
		return
	}
	m.resolve(done, m.playErr)
}

func (m *fakeMedia) resolve(done func(error), err error) {
	if err == nil {
		m.start()
	}
	done(err)
}

// start simulates playback beginning for any reason.
func (m *fakeMedia) start() {
	if m.paused {
		m.paused = false
		m.play.Emit(struct{}{})
	}
}

func (m *fakeMedia) Pause() {
	if !m.paused {
		m.paused = true
		m.pause.Emit(struct{}{})
	}
}

func (m *fakeMedia) finish() {
	m.paused = true
	m.ended.Emit(struct{}{})
}

func (m *fakeMedia) Paused() bool    { return m.paused }
func (m *fakeMedia) Muted() bool     { return m.muted }
func (m *fakeMedia) SetMuted(v bool) { m.muted = v }

func (m *fakeMedia) OnPlay(fn func()) Disposer       { return Void(&m.play, fn) }
func (m *fakeMedia) OnPause(fn func()) Disposer      { return Void(&m.pause, fn) }
func (m *fakeMedia) OnEnded(fn func()) Disposer      { return Void(&m.ended, fn) }
func (m *fakeMedia) OnError(fn func(error)) Disposer { return m.errs.Subscribe(fn) }

type fakeOverlay struct {
	playing, muted bool
}

func (o *fakeOverlay) SetPlayingVisual(v bool) { o.playing = v }
func (o *fakeOverlay) SetMutedVisual(v bool)   { o.muted = v }

type rig struct {
	media     *fakeMedia
	playPause *fakeButton
	mute      *fakeButton
	overlay   *fakeOverlay
}

func (r *rig) handle(id string) Handle {
	return Handle{ID: id, Media: r.media, PlayPause: r.playPause, Mute: r.mute, Overlay: r.overlay}
}

func newRig() *rig {
	return &rig{media: newFakeMedia(), playPause: &fakeButton{}, mute: &fakeButton{}, overlay: &fakeOverlay{}}
}

type report struct {
	id  string
	err error
}

type recordingSink struct {
	reports []report
}

func (s *recordingSink) Report(id string, err error) { s.reports = append(s.reports, report{id, err}) }

func setup(t *testing.T, ids ...string) (*Coordinator, map[string]*rig, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	c := NewCoordinator(sink)
	rigs := make(map[string]*rig)
	var handles []Handle
	for _, id := range ids {
		r := newRig()
		rigs[id] = r
		handles = append(handles, r.handle(id))
	}
	c.DiscoverAndBind(handles)
	return c, rigs, sink
}

func TestDiscoverAndBind_InitialStateMuted(t *testing.T) {
	sink := &recordingSink{}
	c := NewCoordinator(sink)
	a, b := newRig(), newRig()
	a.media.muted = false
	b.media.muted = true
	c.DiscoverAndBind([]Handle{a.handle("a"), b.handle("b")})

	for id, r := range map[string]*rig{"a": a, "b": b} {
		if !r.media.muted {
			t.Fatalf("%s: expected media muted", id)
		}
		if !r.overlay.muted {
			t.Fatalf("%s: expected muted visual", id)
		}
		w, ok := c.Widget(id)
		if !ok || !w.Muted || w.Playing {
			t.Fatalf("%s: unexpected widget state %+v (found=%v)", id, w, ok)
		}
	}
	if len(sink.reports) != 0 {
		t.Fatalf("expected no reports, got %v", sink.reports)
	}
}

func TestDiscoverAndBind_DefaultsMissingIDs(t *testing.T) {
	c := NewCoordinator(nil)
	c.DiscoverAndBind([]Handle{newRig().handle(""), newRig().handle("")})
	ws := c.Widgets()
	if len(ws) != 2 || ws[0].ID != "video-0" || ws[1].ID != "video-1" {
		t.Fatalf("unexpected widgets %+v", ws)
	}
}

func TestMuteToggleTwiceRestoresState(t *testing.T) {
	c, rigs, _ := setup(t, "a")
	a := rigs["a"]

	a.mute.click()
	if a.media.muted || a.overlay.muted {
		t.Fatalf("expected unmuted after first toggle")
	}
	if w, _ := c.Widget("a"); w.Muted {
		t.Fatalf("model still muted")
	}

	a.mute.click()
	if !a.media.muted || !a.overlay.muted {
		t.Fatalf("expected muted after second toggle")
	}
}

func TestSkipOnMissingControl(t *testing.T) {
	sink := &recordingSink{}
	c := NewCoordinator(sink)
	a, b := newRig(), newRig()
	hb := b.handle("b")
	hb.Mute = nil

	c.DiscoverAndBind([]Handle{a.handle("a"), hb})

	if _, ok := c.Widget("b"); ok {
		t.Fatalf("widget without mute button must not be bound")
	}
	if len(sink.reports) != 1 {
		t.Fatalf("expected one report, got %d", len(sink.reports))
	}
	var missing *MissingControlError
	if !errors.As(sink.reports[0].err, &missing) {
		t.Fatalf("expected MissingControlError, got %T", sink.reports[0].err)
	}
	if missing.Index != 1 || !missing.Media || !missing.PlayPause || missing.Mute {
		t.Fatalf("unexpected error fields %+v", missing)
	}

	// b playing from the outside is not coordinated, and a is unaffected.
	a.playPause.click()
	b.media.start()
	if a.media.paused {
		t.Fatalf("unbound widget must not take part in exclusivity")
	}
	if b.mute.activated.Len() != 0 || b.playPause.activated.Len() != 0 || b.media.play.Len() != 0 {
		t.Fatalf("skipped widget must have no listeners")
	}
}

func TestRejectedPlayLeavesStateUnchanged(t *testing.T) {
	c, rigs, sink := setup(t, "a")
	a := rigs["a"]
	a.media.playErr = errors.New("NotAllowedError")

	a.playPause.click()

	if a.overlay.playing {
		t.Fatalf("playing visual must stay false")
	}
	if w, _ := c.Widget("a"); w.Playing {
		t.Fatalf("model must stay not-playing")
	}
	if len(sink.reports) != 1 {
		t.Fatalf("expected exactly one report, got %d", len(sink.reports))
	}
	var rejected *PlaybackRejected
	if !errors.As(sink.reports[0].err, &rejected) || rejected.ID != "a" {
		t.Fatalf("expected PlaybackRejected for a, got %v", sink.reports[0].err)
	}

	// The user may retry.
	a.media.playErr = nil
	a.playPause.click()
	if !a.overlay.playing {
		t.Fatalf("retry should play")
	}
}

func TestScenarioThreeWidgets(t *testing.T) {
	c, rigs, _ := setup(t, "a", "b", "c")
	a, b, cc := rigs["a"], rigs["b"], rigs["c"]

	a.playPause.click()
	if a.media.paused || !a.overlay.playing {
		t.Fatalf("a should be playing")
	}
	if !b.media.paused || !cc.media.paused {
		t.Fatalf("b and c should be unaffected")
	}

	b.playPause.click()
	if !a.media.paused || a.overlay.playing {
		t.Fatalf("a should have been paused by b starting")
	}
	if b.media.paused || !b.overlay.playing {
		t.Fatalf("b should be playing")
	}
	if !cc.media.paused || cc.overlay.playing {
		t.Fatalf("c should be paused")
	}
	if got := c.Playing(); len(got) != 1 || got[0] != "b" {
		t.Fatalf("expected only b playing, got %v", got)
	}
}

func TestMediaClickTogglesLikeButton(t *testing.T) {
	c, rigs, _ := setup(t, "a")
	a := rigs["a"]

	a.media.click()
	if w, _ := c.Widget("a"); !w.Playing {
		t.Fatalf("click on media should start playback")
	}
	a.media.click()
	if w, _ := c.Widget("a"); w.Playing || !a.media.paused || a.overlay.playing {
		t.Fatalf("second click should pause")
	}
}

func TestExternalPlayEnforcesExclusivity(t *testing.T) {
	c, rigs, _ := setup(t, "a", "b")
	rigs["a"].playPause.click()

	// Started by something other than the coordinator.
	rigs["b"].media.start()

	if got := c.Playing(); len(got) != 1 || got[0] != "b" {
		t.Fatalf("expected only b playing, got %v", got)
	}
	if !rigs["a"].media.paused {
		t.Fatalf("a should have been paused")
	}
}

func TestPendingPlaysLastObservedWins(t *testing.T) {
	c, rigs, _ := setup(t, "a", "b")
	a, b := rigs["a"], rigs["b"]
	a.media.hold = true
	b.media.hold = true

	a.playPause.click()
	b.playPause.click()

	b.media.resolve(b.media.pending[0], nil)
	a.media.resolve(a.media.pending[0], nil)

	if got := c.Playing(); len(got) != 1 || got[0] != "a" {
		t.Fatalf("expected a (last to start) playing, got %v", got)
	}
	if !b.media.paused {
		t.Fatalf("b should have been paused")
	}
}

func TestEndedAndPauseClearPlaying(t *testing.T) {
	_, rigs, _ := setup(t, "a")
	a := rigs["a"]

	a.playPause.click()
	a.media.finish()
	if a.overlay.playing {
		t.Fatalf("ended should clear playing visual")
	}

	a.playPause.click()
	a.media.Pause()
	if a.overlay.playing {
		t.Fatalf("pause should clear playing visual")
	}
}

func TestRuntimeErrorKeepsState(t *testing.T) {
	c, rigs, sink := setup(t, "a")
	a := rigs["a"]
	a.playPause.click()

	a.media.errs.Emit(errors.New("MEDIA_ERR_NETWORK"))

	if w, _ := c.Widget("a"); !w.Playing || !a.overlay.playing {
		t.Fatalf("error must not change playing state")
	}
	var runtime *PlaybackRuntimeError
	if len(sink.reports) != 1 || !errors.As(sink.reports[0].err, &runtime) {
		t.Fatalf("expected one PlaybackRuntimeError, got %v", sink.reports)
	}
}

func TestRebindDoesNotDoubleRegister(t *testing.T) {
	sink := &recordingSink{}
	c := NewCoordinator(sink)
	a := newRig()
	c.DiscoverAndBind([]Handle{a.handle("a")})
	c.DiscoverAndBind([]Handle{a.handle("a")})

	if n := a.playPause.activated.Len(); n != 1 {
		t.Fatalf("expected 1 play/pause listener, got %d", n)
	}
	if n := a.mute.activated.Len(); n != 1 {
		t.Fatalf("expected 1 mute listener, got %d", n)
	}
	if n := a.media.play.Len(); n != 1 {
		t.Fatalf("expected 1 play listener, got %d", n)
	}

	a.mute.click()
	if a.media.muted {
		t.Fatalf("a doubled listener would have toggled mute back")
	}
	if len(c.Widgets()) != 1 {
		t.Fatalf("expected one widget, got %d", len(c.Widgets()))
	}
}

func TestRebindWithMissingControlUnbinds(t *testing.T) {
	sink := &recordingSink{}
	c := NewCoordinator(sink)
	a := newRig()
	c.DiscoverAndBind([]Handle{a.handle("a")})

	h := a.handle("a")
	h.PlayPause = nil
	c.DiscoverAndBind([]Handle{h})

	if _, ok := c.Widget("a"); ok {
		t.Fatalf("expected a to be unbound")
	}
	if a.media.play.Len() != 0 || a.mute.activated.Len() != 0 {
		t.Fatalf("expected listeners disposed")
	}
}

func TestReactionPanicReported(t *testing.T) {
	sink := &recordingSink{}
	c := NewCoordinator(sink)
	a, b := newRig(), newRig()
	c.DiscoverAndBind([]Handle{a.handle("a"), b.handle("b")})

	a.media.playErr = errors.New("boom")
	c.sink = SinkFunc(func(id string, err error) {
		sink.Report(id, err)
		var rejected *PlaybackRejected
		if errors.As(err, &rejected) {
			panic("sink exploded")
		}
	})

	a.playPause.click()
	b.playPause.click()

	if w, _ := c.Widget("b"); !w.Playing {
		t.Fatalf("a fault in a must not affect b")
	}
}

func TestLateCompletionAfterPauseIsIgnored(t *testing.T) {
	c, rigs, _ := setup(t, "a", "b")
	a, b := rigs["a"], rigs["b"]
	a.media.hold = true

	a.playPause.click()
	a.media.start()
	b.media.start()
	if !a.media.paused {
		t.Fatalf("b starting should have paused a")
	}

	// a's play request completes after b took over.
	a.media.pending[0](nil)

	if got := c.Playing(); len(got) != 1 || got[0] != "b" {
		t.Fatalf("expected only b playing, got %v", got)
	}
	if a.overlay.playing {
		t.Fatalf("a shows playing while its media is paused")
	}
}

func TestCompletionWithoutPlaySignalPausesOthers(t *testing.T) {
	c, rigs, _ := setup(t, "a", "b")
	a, b := rigs["a"], rigs["b"]
	a.media.hold = true

	a.playPause.click()
	b.playPause.click()

	// The completion arrives before a's play signal.
	a.media.pending[0](nil)

	if got := c.Playing(); len(got) != 1 || got[0] != "a" {
		t.Fatalf("expected only a playing, got %v", got)
	}
	if !b.media.paused || b.overlay.playing {
		t.Fatalf("b should have been paused")
	}
}

func TestBindAlreadyPlayingLastWins(t *testing.T) {
	c := NewCoordinator(nil)
	a, b := newRig(), newRig()
	a.media.paused = false
	b.media.paused = false

	c.DiscoverAndBind([]Handle{a.handle("a"), b.handle("b")})

	if got := c.Playing(); len(got) != 1 || got[0] != "b" {
		t.Fatalf("expected only b playing, got %v", got)
	}
	if !a.media.paused || a.overlay.playing {
		t.Fatalf("a should have been paused")
	}
	if !b.overlay.playing {
		t.Fatalf("b should show playing")
	}
}

func TestExclusivityProperty(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e"}
	sink := &recordingSink{}
	c := NewCoordinator(sink)
	rigs := make(map[string]*rig)
	var handles []Handle
	for i, id := range ids {
		r := newRig()
		// some media are already playing when the page is scanned
		r.media.paused = i%2 == 0
		rigs[id] = r
		handles = append(handles, r.handle(id))
	}
	c.DiscoverAndBind(handles)
	rng := rand.New(rand.NewSource(42))

	for step := 0; step < 2000; step++ {
		r := rigs[ids[rng.Intn(len(ids))]]
		switch rng.Intn(9) {
		case 0:
			r.playPause.click()
		case 1:
			r.media.click()
		case 2:
			r.media.start()
		case 3:
			r.media.Pause()
		case 4:
			r.mute.click()
		case 5:
			r.media.hold = !r.media.hold
		case 6:
			if len(r.media.pending) > 0 {
				done := r.media.pending[0]
				r.media.pending = r.media.pending[1:]
				var err error
				if rng.Intn(4) == 0 {
					err = errors.New("NotAllowedError")
				}
				r.media.resolve(done, err)
			}
		case 7:
			r.media.finish()
		case 8:
			c.DiscoverAndBind(handles)
		}

		if got := c.Playing(); len(got) > 1 {
			t.Fatalf("step %d: more than one playing: %v", step, got)
		}
		for id, r := range rigs {
			w, _ := c.Widget(id)
			if w.Playing != r.overlay.playing || w.Muted != r.overlay.muted {
				t.Fatalf("step %d: %s visual diverged from model", step, id)
			}
			if w.Playing && r.media.paused {
				t.Fatalf("step %d: %s marked playing while paused", step, id)
			}
		}
	}
}

func TestCloseDisposesEverything(t *testing.T) {
	c, rigs, _ := setup(t, "a", "b")
	c.Close()
	for id, r := range rigs {
		if r.playPause.activated.Len()+r.mute.activated.Len()+r.media.activated.Len()+
			r.media.play.Len()+r.media.pause.Len()+r.media.ended.Len()+r.media.errs.Len() != 0 {
			t.Fatalf("%s still has listeners", id)
		}
	}
	if len(c.Widgets()) != 0 {
		t.Fatalf("expected no widgets after Close")
	}
}
