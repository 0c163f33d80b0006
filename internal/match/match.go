// Package match holds the predicates that decide whether a pane title or a
// process command line belongs to the coding assistant.
//
// The predicates only look at the text they are given. They know nothing
// about tmux format strings or ps column layouts, so callers can feed them
// fields from any source.
package match

import (
	"path/filepath"
	"strings"
)

// DefaultNames is the assistant name matched when none is configured.
var DefaultNames = []string{"claude"}

// interpreters run a script whose path carries the assistant's name
// (e.g. "node /usr/lib/node_modules/@anthropic-ai/claude-code/cli.js").
var interpreters = map[string]bool{
	"node": true,
	"bun":  true,
	"npx":  true,
	"deno": true,
}

// Matcher matches titles and command lines against assistant names.
// The zero value matches DefaultNames.
type Matcher struct {
	// Names are matched case-insensitively as substrings.
	Names []string
	// Exclude lists executable basenames that never count as the assistant,
	// e.g. this service's own binary.
	Exclude []string
}

// New returns a Matcher for the given names. Empty names fall back to DefaultNames.
func New(names []string, exclude ...string) *Matcher {
	var cleaned []string
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			cleaned = append(cleaned, n)
		}
	}
	return &Matcher{Names: cleaned, Exclude: exclude}
}

func (m *Matcher) names() []string {
	if m == nil || len(m.Names) == 0 {
		return DefaultNames
	}
	return m.Names
}

// contains reports whether s contains any assistant name, ignoring case.
func (m *Matcher) contains(s string) bool {
	lower := strings.ToLower(s)
	for _, n := range m.names() {
		if strings.Contains(lower, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

// Title reports whether a pane title names the assistant.
func (m *Matcher) Title(title string) bool {
	if strings.TrimSpace(title) == "" {
		return false
	}
	return m.contains(title)
}

// Command reports whether a full process command line runs the assistant.
// Only the executable, or the script handed to a known interpreter, is
// considered: "vim claude.md" is not the assistant.
func (m *Matcher) Command(args string) bool {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return false
	}

	exe := filepath.Base(fields[0])
	if m.excluded(exe) {
		return false
	}
	if m.contains(exe) {
		return true
	}
	if !interpreters[strings.ToLower(exe)] {
		return false
	}
	for _, arg := range fields[1:] {
		if strings.HasPrefix(arg, "-") {
			continue
		}
		return m.contains(arg)
	}
	return false
}

func (m *Matcher) excluded(exe string) bool {
	if m == nil {
		return false
	}
	for _, e := range m.Exclude {
		if e != "" && strings.EqualFold(exe, e) {
			return true
		}
	}
	return false
}
