package media

import (
	"fmt"
	"strings"
)

// MissingControlError is reported for a widget that lacks its media element
// or one of its buttons. The widget is skipped; the others are unaffected.
type MissingControlError struct {
	Index     int
	ID        string
	Media     bool
	PlayPause bool
	Mute      bool
}

func (e *MissingControlError) Error() string {
	var missing []string
	if !e.Media {
		missing = append(missing, "media")
	}
	if !e.PlayPause {
		missing = append(missing, "play/pause button")
	}
	if !e.Mute {
		missing = append(missing, "mute button")
	}
	return fmt.Sprintf("video %d (%s) missing elements: %s", e.Index, e.ID, strings.Join(missing, ", "))
}

// PlaybackRejected is reported when the media layer refused a play request,
// e.g. because of an autoplay policy. The widget stays not-playing.
type PlaybackRejected struct {
	ID  string
	Err error
}

func (e *PlaybackRejected) Error() string {
	return fmt.Sprintf("video %s: play failed: %v", e.ID, e.Err)
}

func (e *PlaybackRejected) Unwrap() error { return e.Err }

// PlaybackRuntimeError is reported when the media element signals an error
// while loaded or playing. No state is changed.
type PlaybackRuntimeError struct {
	ID  string
	Err error
}

func (e *PlaybackRuntimeError) Error() string {
	return fmt.Sprintf("video %s error: %v", e.ID, e.Err)
}

func (e *PlaybackRuntimeError) Unwrap() error { return e.Err }
