package remote

import (
	"errors"
	"time"

	"github.com/devfolio/folio/internal/media"
)

var (
	// ErrPlayTimeout rejects a play the browser never answered.
	ErrPlayTimeout = errors.New("play request timed out")
	// ErrClosed rejects plays still pending when the page goes away.
	ErrClosed = errors.New("page closed")
	// ErrQueueFull rejects a play that could not be sent because the page
	// is not reading its messages.
	ErrQueueFull = errors.New("outbound queue full")
)

// Video mirrors one <video> element of the page. Its state is only touched on
// the session loop.
type Video struct {
	id      string
	src     string
	overlay bool
	paused  bool
	muted   bool

	// stoppedAt is the last play sequence issued when the video was paused.
	// Plays up to it no longer unpause the mirror when they complete.
	stoppedAt uint64

	s       *Session
	pending map[uint64]*pendingPlay

	activated          media.Signal[struct{}]
	play, pause, ended media.Signal[struct{}]
	errs               media.Signal[error]
}

type pendingPlay struct {
	done  func(error)
	timer *time.Timer
}

var _ media.Media = (*Video)(nil)

func newVideo(s *Session, c Container) *Video {
	v := &Video{id: c.ID, s: s, pending: make(map[uint64]*pendingPlay)}
	v.update(c)
	return v
}

func (v *Video) update(c Container) {
	v.src = c.Src
	v.overlay = c.Overlay
	v.paused = c.Paused
	v.muted = c.Muted
}

func (v *Video) Play(done func(error)) {
	seq := v.s.nextSeq()
	if err := v.s.send(Outbound{Type: TypePlay, ID: v.id, Seq: seq}); err != nil {
		v.s.loop.Post(func() { done(err) })
		return
	}
	p := &pendingPlay{done: done}
	p.timer = time.AfterFunc(v.s.playTimeout, func() {
		v.s.loop.Post(func() { v.settle(seq, ErrPlayTimeout) })
	})
	v.pending[seq] = p
}

// settle completes the play request seq. Unknown or already settled
// sequences are ignored.
func (v *Video) settle(seq uint64, err error) {
	p, ok := v.pending[seq]
	if !ok {
		return
	}
	delete(v.pending, seq)
	p.timer.Stop()
	if err == nil && seq > v.stoppedAt {
		v.paused = false
	}
	p.done(err)
}

func (v *Video) abandon() {
	for seq, p := range v.pending {
		p.timer.Stop()
		delete(v.pending, seq)
	}
}

func (v *Video) Pause() {
	v.stop()
	v.s.send(Outbound{Type: TypePause, ID: v.id})
}

func (v *Video) Paused() bool { return v.paused }

func (v *Video) Muted() bool { return v.muted }

func (v *Video) SetMuted(muted bool) {
	v.muted = muted
	v.s.send(Outbound{Type: TypeMuted, ID: v.id, Muted: muted})
}

func (v *Video) stop() {
	v.paused = true
	v.stoppedAt = v.s.seq
}

// observe applies a media event reported by the page.
func (v *Video) observe(event, message string) bool {
	switch event {
	case EventPlay:
		v.paused = false
		v.play.Emit(struct{}{})
	case EventPause:
		v.stop()
		v.pause.Emit(struct{}{})
	case EventEnded:
		v.stop()
		v.ended.Emit(struct{}{})
	case EventError:
		if message == "" {
			message = "unknown media error"
		}
		v.errs.Emit(errors.New(message))
	default:
		return false
	}
	return true
}

func (v *Video) OnActivated(fn func()) media.Disposer { return media.Void(&v.activated, fn) }
func (v *Video) OnPlay(fn func()) media.Disposer      { return media.Void(&v.play, fn) }
func (v *Video) OnPause(fn func()) media.Disposer     { return media.Void(&v.pause, fn) }
func (v *Video) OnEnded(fn func()) media.Disposer     { return media.Void(&v.ended, fn) }

func (v *Video) OnError(fn func(error)) media.Disposer { return v.errs.Subscribe(fn) }

// Control is a button of a video card.
type Control struct {
	activated media.Signal[struct{}]
}

var _ media.Button = (*Control)(nil)

func (c *Control) OnActivated(fn func()) media.Disposer { return media.Void(&c.activated, fn) }

func (c *Control) activate() { c.activated.Emit(struct{}{}) }

// Card is the class list of a .project-video-container: video-playing and
// video-muted. Changes are pushed to the page.
type Card struct {
	id      string
	s       *Session
	playing bool
	muted   bool
}

var _ media.Overlay = (*Card)(nil)

func (c *Card) SetPlayingVisual(playing bool) {
	c.playing = playing
	c.push()
}

func (c *Card) SetMutedVisual(muted bool) {
	c.muted = muted
	c.push()
}

func (c *Card) push() {
	c.s.send(Outbound{Type: TypeVisual, ID: c.id, Playing: c.playing, Muted: c.muted})
}
