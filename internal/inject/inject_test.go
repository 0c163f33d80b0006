package inject

import (
	"context"
	"errors"
	"testing"

	"github.com/glebglazov/vibe-coding-done-right/internal/model"
)

// sendCall records a single keystroke call to the mock multiplexer.
type sendCall struct {
	target  string
	literal bool
	keys    string
}

type recordingMux struct {
	calls   []sendCall
	textErr error
	keyErr  error
}

func (r *recordingMux) Name() string { return "recording" }
func (r *recordingMux) ListClients(context.Context) ([]model.Client, error) {
	return nil, nil
}
func (r *recordingMux) ActivePane(context.Context, string) (model.Pane, error) {
	return model.Pane{}, nil
}
func (r *recordingMux) ListPanes(context.Context, string) ([]model.Pane, error) {
	return nil, nil
}

func (r *recordingMux) SendText(_ context.Context, target, text string) error {
	r.calls = append(r.calls, sendCall{target, true, text})
	return r.textErr
}

func (r *recordingMux) SendKey(_ context.Context, target, key string) error {
	r.calls = append(r.calls, sendCall{target, false, key})
	return r.keyErr
}

func TestInject_LiteralWithoutSubmit(t *testing.T) {
	m := &recordingMux{}
	inj := &Injector{Mux: m}

	if err := inj.Inject(context.Background(), "work:0.1", "press Enter then C-c"); err != nil {
		t.Fatalf("Inject() error: %v", err)
	}

	// Key names inside the text are typed literally and no Enter follows
	if len(m.calls) != 1 {
		t.Fatalf("expected 1 send-keys call, got %d", len(m.calls))
	}
	want := sendCall{"work:0.1", true, "press Enter then C-c"}
	if m.calls[0] != want {
		t.Errorf("got %+v, want %+v", m.calls[0], want)
	}
}

func TestInject_Submit(t *testing.T) {
	m := &recordingMux{}
	inj := &Injector{Mux: m, Submit: true}

	if err := inj.Inject(context.Background(), "work:0.1", "run the tests"); err != nil {
		t.Fatalf("Inject() error: %v", err)
	}

	if len(m.calls) != 2 {
		t.Fatalf("expected literal text + Enter, got %d calls", len(m.calls))
	}
	if m.calls[1] != (sendCall{"work:0.1", false, "Enter"}) {
		t.Errorf("call 2: got %+v, want Enter on work:0.1", m.calls[1])
	}
}

func TestInject_TwiceSubmitsTwice(t *testing.T) {
	m := &recordingMux{}
	inj := &Injector{Mux: m}

	for range 2 {
		if err := inj.Inject(context.Background(), "work:0.1", "hello"); err != nil {
			t.Fatalf("Inject() error: %v", err)
		}
	}
	if len(m.calls) != 2 {
		t.Fatalf("expected 2 submissions, got %d", len(m.calls))
	}
	if m.calls[0] != m.calls[1] {
		t.Errorf("submissions differ: %+v vs %+v", m.calls[0], m.calls[1])
	}
}

func TestInject_Errors(t *testing.T) {
	tests := []struct {
		name      string
		mux       *recordingMux
		submit    bool
		wantCalls int
	}{
		{"text fails", &recordingMux{textErr: errors.New("can't find pane: work:0.9")}, true, 1},
		{"enter fails", &recordingMux{keyErr: errors.New("server exited")}, true, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&Injector{Mux: tt.mux, Submit: tt.submit}).Inject(context.Background(), "work:0.9", "hi")
			if !errors.Is(err, ErrInjection) {
				t.Fatalf("expected ErrInjection, got %v", err)
			}
			// Failures are reported, never retried
			if len(tt.mux.calls) != tt.wantCalls {
				t.Errorf("expected %d calls, got %d", tt.wantCalls, len(tt.mux.calls))
			}
		})
	}
}
