package model

import (
	"fmt"
	"strings"
)

// Client is a terminal client attached to a multiplexer session.
type Client struct {
	// Name is the client identifier (e.g., "/dev/ttys003").
	Name string `json:"name"`
	// Session is the name of the session the client is attached to.
	Session string `json:"session"`
	// Activity is the client's last activity time in unix seconds.
	Activity int64 `json:"activity"`
}

// Pane represents a terminal multiplexer pane.
type Pane struct {
	// Target is the fully qualified pane identifier (e.g., "session:0.0").
	Target string `json:"target"`
	// Session is the session name.
	Session string `json:"session"`
	// Window is the window index.
	Window int `json:"window"`
	// Pane is the pane index.
	Pane int `json:"pane"`
	// PID is the pane's shell process ID.
	PID int `json:"pid"`
	// Title is the pane title as set by the program running in it. May be empty.
	Title string `json:"title"`
	// Command is the current command running in the pane (e.g., "node", "bash").
	Command string `json:"command"`
	// Active is true when this is the focused pane of its window.
	// At most one pane per window is active.
	Active bool `json:"active"`
	// WindowActive is true when the pane's window is the current window of its session.
	WindowActive bool `json:"window_active"`
}

// MatchKind names the signal that identified an assistant pane.
type MatchKind string

const (
	// MatchTitle means the pane title contains an assistant name.
	MatchTitle MatchKind = "title"
	// MatchProcess means an assistant process runs below the pane's shell.
	MatchProcess MatchKind = "process"
)

// Resolution is the pane selected to receive injected text.
type Resolution struct {
	// Target is the pane address text is sent to.
	Target string `json:"target"`
	// Session is the session the search was scoped to.
	Session string `json:"session"`
	// Match is the signal that identified the pane.
	Match MatchKind `json:"match"`
	// Focused is true when the pane is the active pane of its window.
	Focused bool `json:"focused"`
}

// String renders the resolution for log lines and CLI output.
func (r Resolution) String() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s (by %s", r.Target, r.Match))
	if !r.Focused {
		b.WriteString(", not focused")
	}
	b.WriteString(")")
	return b.String()
}

// Delivery is the outcome of sending text into a pane.
type Delivery struct {
	// Session is the pane target the text was sent to.
	Session string `json:"session"`
	// Text is the text that was injected.
	Text string `json:"text"`
}
