// Package mux provides an abstraction over terminal multiplexers (tmux, zellij).
//
// This package is pure transport. It reports session topology, pane titles
// and process IDs as the multiplexer sees them and writes keystrokes into
// panes. Deciding which pane belongs to the assistant is left to the resolver.
package mux

import (
	"context"

	"github.com/glebglazov/vibe-coding-done-right/internal/model"
)

// Multiplexer abstracts terminal multiplexer operations.
// Implementations exist for tmux and (future) zellij.
type Multiplexer interface {
	// Name returns the multiplexer name (e.g., "tmux", "zellij").
	Name() string

	// ListClients returns every connected client with its attached session
	// and last activity time.
	ListClients(ctx context.Context) ([]model.Client, error)

	// ActivePane describes the focused pane of the session's current window.
	ActivePane(ctx context.Context, session string) (model.Pane, error)

	// ListPanes returns all panes of a session across its windows.
	// An empty session returns the panes of every session.
	ListPanes(ctx context.Context, session string) ([]model.Pane, error)

	// SendText types text into the target pane literally; key names in the
	// text are not interpreted.
	SendText(ctx context.Context, target, text string) error

	// SendKey presses a single named key (e.g., "Enter") in the target pane.
	SendKey(ctx context.Context, target, key string) error
}
