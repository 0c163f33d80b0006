package mux

import (
	"fmt"
	"os"
	"os/exec"
)

// Options configures the multiplexer returned by Detect and FromName.
type Options struct {
	// SocketName is the tmux -L socket name.
	SocketName string
	// SocketPath is the tmux -S socket path.
	SocketPath string
}

// Detect auto-detects the active terminal multiplexer.
// It checks environment variables first, then falls back to tmux if the
// binary is installed.
//
// The service usually runs outside tmux and may start before the tmux
// server does, so a server that is not running yet is not an error here.
// Each call reports it instead.
func Detect(opts Options) (Multiplexer, error) {
	// Check environment variables first.
	if os.Getenv("TMUX") != "" {
		return newTmux(opts), nil
	}
	if os.Getenv("ZELLIJ") != "" {
		return nil, fmt.Errorf("zellij support is not yet implemented")
	}

	if tmuxPath, err := exec.LookPath("tmux"); err == nil && tmuxPath != "" {
		return newTmux(opts), nil
	}

	return nil, fmt.Errorf("no supported terminal multiplexer detected (install tmux)")
}

// FromName creates a Multiplexer by name.
func FromName(name string, opts Options) (Multiplexer, error) {
	switch name {
	case "tmux":
		return newTmux(opts), nil
	case "zellij":
		return nil, fmt.Errorf("zellij support is not yet implemented")
	default:
		return nil, fmt.Errorf("unknown multiplexer: %q (supported: tmux)", name)
	}
}

func newTmux(opts Options) *Tmux {
	return &Tmux{SocketName: opts.SocketName, SocketPath: opts.SocketPath}
}
