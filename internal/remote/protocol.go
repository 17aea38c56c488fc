// Package remote drives the project videos of an open page. The page reports
// what it rendered and forwards clicks and media events over a websocket; the
// server runs the media coordinator and sends back commands and class-list
// updates.
package remote

// Message types sent by the browser.
const (
	TypeScan     = "scan"
	TypeActivate = "activate"
	TypeMedia    = "media"
	TypePlayed   = "played"
)

// Message types sent by the server.
const (
	TypePlay   = "play"
	TypePause  = "pause"
	TypeMuted  = "muted"
	TypeVisual = "visual"
	TypeError  = "error"
)

// Controls named in activate messages.
const (
	ControlPlayPause = "play-pause"
	ControlMute      = "mute"
	ControlMedia     = "media"
)

// Media events named in media messages.
const (
	EventPlay  = "play"
	EventPause = "pause"
	EventEnded = "ended"
	EventError = "error"
)

// Inbound is a browser message.
type Inbound struct {
	Type    string      `json:"type"`
	ID      string      `json:"id,omitempty"`
	Control string      `json:"control,omitempty"`
	Event   string      `json:"event,omitempty"`
	Seq     uint64      `json:"seq,omitempty"`
	Error   string      `json:"error,omitempty"`
	Widgets []Container `json:"widgets,omitempty"`
}

// Container describes one .project-video-container found by the page scan.
type Container struct {
	ID        string `json:"id"`
	Media     bool   `json:"media"`
	PlayPause bool   `json:"playPause"`
	Mute      bool   `json:"mute"`
	Overlay   bool   `json:"overlay"`
	Src       string `json:"src,omitempty"`
	Paused    bool   `json:"paused"`
	Muted     bool   `json:"muted"`
}

// Outbound is a server message.
type Outbound struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Seq     uint64 `json:"seq,omitempty"`
	Playing bool   `json:"playing,omitempty"`
	Muted   bool   `json:"muted,omitempty"`
	Message string `json:"message,omitempty"`
}
