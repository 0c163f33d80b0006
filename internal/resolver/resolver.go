// Package resolver finds the tmux pane running the coding assistant.
//
// The search is scoped to the session of the most recently active client:
//
//  1. the session's active pane, matched by title;
//  2. the same pane, matched by its running command or an assistant process
//     below its shell;
//  3. every pane of the session, title first then process, preferring a
//     match that is the focused pane of its window.
//
// When nothing matches the resolver reports ErrNoAssistantPane rather than
// guessing. Multiplexer failures are reported as ErrCommandFailed. Nothing
// is retried.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/glebglazov/vibe-coding-done-right/internal/match"
	"github.com/glebglazov/vibe-coding-done-right/internal/model"
	"github.com/glebglazov/vibe-coding-done-right/internal/mux"
	ppotel "github.com/glebglazov/vibe-coding-done-right/internal/otel"
	"github.com/glebglazov/vibe-coding-done-right/internal/procs"
)

var (
	// ErrNoActiveSession means no client is attached to any session.
	ErrNoActiveSession = errors.New("no active multiplexer session")
	// ErrNoAssistantPane means no pane in the session runs the assistant.
	ErrNoAssistantPane = errors.New("no assistant pane found")
	// ErrCommandFailed means a multiplexer command could not be run.
	ErrCommandFailed = errors.New("multiplexer command failed")
)

// IsNotFound reports whether err means "no pane to send to".
// Multiplexer failures count as not found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNoActiveSession) ||
		errors.Is(err, ErrNoAssistantPane) ||
		errors.Is(err, ErrCommandFailed)
}

// DefaultProcessDepth is how many levels below a pane's shell are searched
// for the assistant process. Covers wrapper scripts and version manager shims.
const DefaultProcessDepth = 3

var tracer = otel.Tracer("vibe-voice/resolver")

// Resolver locates the assistant pane.
type Resolver struct {
	Mux     mux.Multiplexer
	Procs   procs.Lister   // nil disables process matching
	Match   *match.Matcher // nil matches the default assistant names
	Depth   int            // process tree depth; <= 0 uses DefaultProcessDepth
	Metrics *ppotel.Metrics
	Logger  *slog.Logger
}

// candidate is a pane that matched one of the signals.
type candidate struct {
	pane  model.Pane
	match model.MatchKind
}

// lookup evaluates the assistant signals for one resolution. The process
// table is snapshotted at most once, and only if a process check is needed.
type lookup struct {
	r       *Resolver
	table   *procs.Table
	fetched bool
}

// Resolve returns the pane that should receive injected text.
func (r *Resolver) Resolve(ctx context.Context) (*model.Resolution, error) {
	ctx, span := tracer.Start(ctx, "resolve")
	defer span.End()

	res, err := r.resolve(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		r.Metrics.RecordResolution(ctx, outcome(err), "")
		return nil, err
	}
	span.SetAttributes(
		attribute.String("pane.target", res.Target),
		attribute.String("resolve.match", string(res.Match)),
		attribute.Bool("resolve.focused", res.Focused),
	)
	r.Metrics.RecordResolution(ctx, "found", string(res.Match))
	return res, nil
}

func (r *Resolver) resolve(ctx context.Context) (*model.Resolution, error) {
	log := r.logger()

	clients, err := r.Mux.ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCommandFailed, err)
	}
	session, ok := MostRecentSession(clients)
	if !ok {
		return nil, ErrNoActiveSession
	}
	log.Info("using most recently active session", "session", session)

	active, err := r.Mux.ActivePane(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCommandFailed, err)
	}

	l := &lookup{r: r}

	if r.Match.Title(active.Title) {
		log.Info("found assistant in active pane", "target", active.Target, "match", model.MatchTitle)
		return resolution(session, candidate{pane: active, match: model.MatchTitle}, true), nil
	}
	if l.runsAssistant(ctx, active) {
		log.Info("found assistant in active pane", "target", active.Target, "match", model.MatchProcess)
		return resolution(session, candidate{pane: active, match: model.MatchProcess}, true), nil
	}

	panes, err := r.Mux.ListPanes(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCommandFailed, err)
	}

	var matches []candidate
	for _, p := range panes {
		if kind, ok := l.classify(ctx, p); ok {
			matches = append(matches, candidate{pane: p, match: kind})
		}
	}

	best, ok := choose(matches)
	if !ok {
		log.Warn("no assistant pane in session", "session", session, "panes", len(panes))
		return nil, fmt.Errorf("%w in session %q", ErrNoAssistantPane, session)
	}
	log.Info("found assistant pane", "target", best.pane.Target, "match", best.match,
		"focused", best.pane.Active, "candidates", len(matches))
	return resolution(session, best, best.pane.Active), nil
}

// MostRecentSession returns the session of the client with the latest
// activity. Ties go to the client listed first.
func MostRecentSession(clients []model.Client) (string, bool) {
	if len(clients) == 0 {
		return "", false
	}
	sorted := slices.Clone(clients)
	slices.SortStableFunc(sorted, func(a, b model.Client) int {
		switch {
		case a.Activity > b.Activity:
			return -1
		case a.Activity < b.Activity:
			return 1
		}
		return 0
	})
	if sorted[0].Session == "" {
		return "", false
	}
	return sorted[0].Session, true
}

// choose prefers the first match that is focused in its window, then the
// first match in enumeration order.
func choose(matches []candidate) (candidate, bool) {
	if len(matches) == 0 {
		return candidate{}, false
	}
	for _, m := range matches {
		if m.pane.Active {
			return m, true
		}
	}
	return matches[0], true
}

func resolution(session string, c candidate, focused bool) *model.Resolution {
	return &model.Resolution{
		Target:  c.pane.Target,
		Session: session,
		Match:   c.match,
		Focused: focused,
	}
}

// classify checks the title first, then the processes.
func (l *lookup) classify(ctx context.Context, p model.Pane) (model.MatchKind, bool) {
	if l.r.Match.Title(p.Title) {
		return model.MatchTitle, true
	}
	if l.runsAssistant(ctx, p) {
		return model.MatchProcess, true
	}
	return "", false
}

// runsAssistant reports whether the pane's own foreground command or a
// process below its shell is the assistant. A pane started directly with
// the assistant has no shell to look under.
func (l *lookup) runsAssistant(ctx context.Context, p model.Pane) bool {
	if l.r.Match.Command(p.Command) {
		return true
	}
	return l.hasProcess(ctx, p.PID)
}

// hasProcess reports whether an assistant process runs below pid.
// A failing process listing counts as no match.
func (l *lookup) hasProcess(ctx context.Context, pid int) bool {
	if l.r.Procs == nil || pid <= 0 {
		return false
	}
	if !l.fetched {
		l.fetched = true
		table, err := l.r.Procs.Snapshot(ctx)
		if err != nil {
			l.r.logger().Warn("process listing failed, skipping process match", "err", err)
		}
		l.table = table
	}
	if l.table == nil {
		return false
	}
	_, ok := l.table.Find(pid, l.r.depth(), l.r.Match.Command)
	return ok
}

func (r *Resolver) depth() int {
	if r.Depth <= 0 {
		return DefaultProcessDepth
	}
	return r.Depth
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrNoActiveSession):
		return "no_session"
	case errors.Is(err, ErrNoAssistantPane):
		return "not_found"
	default:
		return "error"
	}
}
