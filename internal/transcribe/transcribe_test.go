package transcribe

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAudio(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestNewUnknownBackend(t *testing.T) {
	_, err := New(Config{Backend: "vosk"})
	require.ErrorIs(t, err, ErrUnsupported)
	assert.Contains(t, err.Error(), "vosk")
}

func TestNewWhisperServerNeedsURL(t *testing.T) {
	_, err := New(Config{Backend: BackendWhisperServer})
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestNewOpenAIDefaultModel(t *testing.T) {
	tr, err := New(Config{Backend: BackendOpenAI, APIKey: "sk-test"})
	require.NoError(t, err)
	o, ok := tr.(*OpenAI)
	require.True(t, ok)
	assert.Equal(t, DefaultOpenAIModel, o.model)
	assert.Equal(t, BackendOpenAI, o.Name())
}

func TestWhisperServerTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/inference", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "rec.webm", hdr.Filename)
		assert.Equal(t, "fake-audio", string(data))
		assert.Equal(t, "en", r.FormValue("language"))
		assert.Equal(t, "json", r.FormValue("response_format"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":" Refactor the parser please."}`))
	}))
	defer srv.Close()

	tr, err := New(Config{Backend: BackendWhisperServer, ServerURL: srv.URL + "/", Language: "en"})
	require.NoError(t, err)

	text, err := tr.Transcribe(t.Context(), writeAudio(t, "rec.webm", []byte("fake-audio")))
	require.NoError(t, err)
	assert.Equal(t, " Refactor the parser please.", text, "text is returned verbatim")
}

func TestWhisperServerAutoLanguageOmitted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, present := r.MultipartForm.Value["language"]
		assert.False(t, present)
		_, _ = w.Write([]byte(`{"text":"hi"}`))
	}))
	defer srv.Close()

	tr, err := NewWhisperServer(Config{ServerURL: srv.URL, Language: "auto"})
	require.NoError(t, err)
	_, err = tr.Transcribe(t.Context(), writeAudio(t, "a.wav", []byte("x")))
	require.NoError(t, err)
}

func TestWhisperServerErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"http error", http.StatusInternalServerError, "model not loaded", "HTTP 500: model not loaded"},
		{"error field", http.StatusOK, `{"error":"failed to read WAV file"}`, "failed to read WAV file"},
		{"bad json", http.StatusOK, `not json`, "parse JSON response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.Copy(io.Discard, r.Body)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			tr, err := NewWhisperServer(Config{ServerURL: srv.URL})
			require.NoError(t, err)
			_, err = tr.Transcribe(t.Context(), writeAudio(t, "a.wav", []byte("x")))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWhisperServerMissingFile(t *testing.T) {
	tr, err := NewWhisperServer(Config{ServerURL: "http://127.0.0.1:1"})
	require.NoError(t, err)
	_, err = tr.Transcribe(t.Context(), filepath.Join(t.TempDir(), "missing.wav"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestOpenAITranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "de", r.FormValue("language"))
		_, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "note.ogg", hdr.Filename)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"Hallo Welt"}`))
	}))
	defer srv.Close()

	tr := NewOpenAI(Config{BaseURL: srv.URL + "/v1", APIKey: "sk-test", Language: "de"})
	text, err := tr.Transcribe(t.Context(), writeAudio(t, "note.ogg", []byte("ogg")))
	require.NoError(t, err)
	assert.Equal(t, "Hallo Welt", text)
}

type stubTranscriber struct {
	text   string
	err    error
	closed bool
}

func (s *stubTranscriber) Name() string { return "stub" }
func (s *stubTranscriber) Transcribe(context.Context, string) (string, error) {
	return s.text, s.err
}
func (s *stubTranscriber) Close() error {
	s.closed = true
	return nil
}

func TestInstrumentPassesThrough(t *testing.T) {
	stub := &stubTranscriber{text: "hello"}
	tr := Instrument(stub, nil)
	assert.Equal(t, "stub", tr.Name())

	text, err := tr.Transcribe(t.Context(), "ignored")
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	stub.err = errors.New("engine crashed")
	_, err = tr.Transcribe(t.Context(), "ignored")
	require.EqualError(t, err, "engine crashed")

	require.NoError(t, Close(tr))
	assert.True(t, stub.closed, "Close reaches the wrapped backend")
}
