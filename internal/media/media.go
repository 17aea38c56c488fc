// Package media coordinates playback across the project video widgets of a
// page: at most one widget plays at a time, and every widget's playing and
// muted visuals follow the state of its media element.
//
// The coordinator never touches a DOM. It talks to the capability set below,
// which the remote package implements on top of a websocket and the tests
// implement with fakes. All methods are expected to be called from a single
// logical thread (see the dispatch package); nothing here takes a lock.
package media

// Disposer removes a subscription. Calling it more than once is harmless.
type Disposer func()

// Button is anything the user can activate.
type Button interface {
	OnActivated(fn func()) Disposer
}

// Media is the control surface of one playable element.
type Media interface {
	Button

	// Play requests playback. done is the deferred completion: it receives
	// nil once playback started, or the reason it was refused. It must be
	// invoked on the same thread as every other callback.
	Play(done func(error))
	Pause()
	Paused() bool
	Muted() bool
	SetMuted(muted bool)

	OnPlay(fn func()) Disposer
	OnPause(fn func()) Disposer
	OnEnded(fn func()) Disposer
	OnError(fn func(error)) Disposer
}

// Overlay carries the visual flags of a widget.
type Overlay interface {
	SetPlayingVisual(playing bool)
	SetMutedVisual(muted bool)
}

// Sink receives the faults of individual widgets.
type Sink interface {
	Report(widgetID string, err error)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(widgetID string, err error)

func (f SinkFunc) Report(widgetID string, err error) { f(widgetID, err) }

// Handle is one discovered widget as handed over by the presentation layer.
// Any control may be nil when the page did not render it.
type Handle struct {
	ID        string
	Media     Media
	PlayPause Button
	Mute      Button
	Overlay   Overlay
}

// Widget is a snapshot of a bound widget's model.
type Widget struct {
	ID      string `json:"id"`
	Playing bool   `json:"playing"`
	Muted   bool   `json:"muted"`
}

type noOverlay struct{}

func (noOverlay) SetPlayingVisual(bool) {}
func (noOverlay) SetMutedVisual(bool)   {}
