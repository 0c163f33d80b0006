package mux

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/glebglazov/vibe-coding-done-right/internal/model"
)

// ErrNoServer is returned when no tmux server is running on the socket.
var ErrNoServer = errors.New("no tmux server running")

// Field separator for -F formats. Titles and session names may contain
// spaces, tabs are practically never used in either.
const sep = "\t"

const (
	clientFormat = "#{client_activity}" + sep + "#{client_session}" + sep + "#{client_name}"
	targetFormat = "#{session_name}:#{window_index}.#{pane_index}"
	// The title goes last so a stray tab inside it stays part of the title.
	paneFormat = targetFormat + sep + "#{pane_pid}" + sep + "#{pane_active}" + sep +
		"#{window_active}" + sep + "#{pane_current_command}" + sep + "#{pane_title}"
)

// Tmux implements the Multiplexer interface for tmux.
type Tmux struct {
	// SocketName selects a named server socket (tmux -L). Empty uses the default.
	SocketName string
	// SocketPath selects a server socket by path (tmux -S). Takes precedence over SocketName.
	SocketPath string
}

// NewTmux creates a new tmux multiplexer on the default socket.
func NewTmux() *Tmux {
	return &Tmux{}
}

// Name returns "tmux".
func (t *Tmux) Name() string {
	return "tmux"
}

// ListClients returns all clients attached to the tmux server.
// A server without clients returns an empty slice and no error.
func (t *Tmux) ListClients(ctx context.Context) ([]model.Client, error) {
	out, err := t.run(ctx, "list-clients", "-F", clientFormat)
	if err != nil {
		return nil, fmt.Errorf("tmux list-clients: %w", err)
	}
	return parseClients(out), nil
}

// ActivePane describes the active pane of the given session.
func (t *Tmux) ActivePane(ctx context.Context, session string) (model.Pane, error) {
	out, err := t.run(ctx, "display-message", "-t", session, "-p", paneFormat)
	if err != nil {
		return model.Pane{}, fmt.Errorf("tmux display-message -t %s: %w", session, err)
	}
	line := strings.TrimRight(out, "\r\n")
	pane, err := parsePaneLine(line)
	if err != nil {
		return model.Pane{}, fmt.Errorf("tmux display-message -t %s: %w", session, err)
	}
	return pane, nil
}

// ListPanes returns the panes of a session (all windows), or of every
// session when session is empty.
func (t *Tmux) ListPanes(ctx context.Context, session string) ([]model.Pane, error) {
	args := []string{"list-panes", "-F", paneFormat}
	if session == "" {
		args = append(args, "-a")
	} else {
		args = append(args, "-s", "-t", session)
	}
	out, err := t.run(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("tmux list-panes: %w", err)
	}
	return parsePanes(out), nil
}

// SendText sends text with send-keys -l so words like "Enter" are typed, not pressed.
// "--" keeps text starting with a dash from being read as a flag.
func (t *Tmux) SendText(ctx context.Context, target, text string) error {
	if _, err := t.run(ctx, "send-keys", "-t", target, "-l", "--", text); err != nil {
		return fmt.Errorf("tmux send-keys -t %s: %w", target, err)
	}
	return nil
}

// SendKey presses a named key in the target pane.
func (t *Tmux) SendKey(ctx context.Context, target, key string) error {
	if _, err := t.run(ctx, "send-keys", "-t", target, key); err != nil {
		return fmt.Errorf("tmux send-keys -t %s %s: %w", target, key, err)
	}
	return nil
}

// args prefixes tmux arguments with the socket selection flags.
func (t *Tmux) args(args ...string) []string {
	var all []string
	switch {
	case t.SocketPath != "":
		all = append(all, "-S", t.SocketPath)
	case t.SocketName != "":
		all = append(all, "-L", t.SocketName)
	}
	return append(all, args...)
}

// run executes a tmux command and returns its stdout.
func (t *Tmux) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "tmux", t.args(args...)...)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr := strings.TrimSpace(string(exitErr.Stderr))
			if strings.Contains(stderr, "no server running") || strings.Contains(stderr, "error connecting to") {
				return "", fmt.Errorf("%w: %s", ErrNoServer, stderr)
			}
			return "", fmt.Errorf("%w: %s", err, stderr)
		}
		return "", err
	}
	return string(out), nil
}

// parseClients parses list-clients output. Rows without a session are kept;
// an unparsable activity counts as zero.
func parseClients(out string) []model.Client {
	var clients []model.Client
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.SplitN(line, sep, 3)
		activity, _ := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
		c := model.Client{Activity: activity}
		if len(parts) > 1 {
			c.Session = parts[1]
		}
		if len(parts) > 2 {
			c.Name = parts[2]
		}
		clients = append(clients, c)
	}
	return clients
}

// parsePanes parses list-panes output, skipping malformed rows.
func parsePanes(out string) []model.Pane {
	var panes []model.Pane
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		pane, err := parsePaneLine(line)
		if err != nil {
			continue
		}
		panes = append(panes, pane)
	}
	return panes
}

// parsePaneLine parses one row produced by paneFormat.
func parsePaneLine(line string) (model.Pane, error) {
	parts := strings.SplitN(line, sep, 6)
	if len(parts) != 6 {
		return model.Pane{}, fmt.Errorf("invalid pane line %q: want 6 fields, got %d", line, len(parts))
	}

	pane, err := parseTarget(parts[0])
	if err != nil {
		return model.Pane{}, err
	}
	pane.PID, _ = strconv.Atoi(parts[1])
	pane.Active = parts[2] == "1"
	pane.WindowActive = parts[3] == "1"
	pane.Command = parts[4]
	pane.Title = parts[5]
	return pane, nil
}

// parseTarget parses a tmux target string "session:window.pane" into a Pane.
func parseTarget(target string) (model.Pane, error) {
	// Split "session:window.pane"
	colonIdx := strings.LastIndex(target, ":")
	if colonIdx < 0 {
		return model.Pane{}, fmt.Errorf("invalid target %q: missing ':'", target)
	}

	session := target[:colonIdx]
	rest := target[colonIdx+1:]

	dotIdx := strings.LastIndex(rest, ".")
	if dotIdx < 0 {
		return model.Pane{}, fmt.Errorf("invalid target %q: missing '.'", target)
	}

	window, err := strconv.Atoi(rest[:dotIdx])
	if err != nil {
		return model.Pane{}, fmt.Errorf("invalid window index in %q: %w", target, err)
	}

	pane, err := strconv.Atoi(rest[dotIdx+1:])
	if err != nil {
		return model.Pane{}, fmt.Errorf("invalid pane index in %q: %w", target, err)
	}

	return model.Pane{
		Target:  target,
		Session: session,
		Window:  window,
		Pane:    pane,
	}, nil
}
