package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// WhisperServer posts audio files to a whisper.cpp whisper-server.
type WhisperServer struct {
	url        string
	language   string
	model      string
	httpClient *http.Client
}

// NewWhisperServer returns a client for the whisper-server at cfg.ServerURL.
func NewWhisperServer(cfg Config) (*WhisperServer, error) {
	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("%w: whisper-server backend needs whisper_server_url", ErrUnsupported)
	}
	return &WhisperServer{
		url:        strings.TrimRight(cfg.ServerURL, "/"),
		language:   cfg.Language,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}, nil
}

// Name returns "whisper-server".
func (s *WhisperServer) Name() string { return BackendWhisperServer }

// Transcribe uploads the file to POST /inference as multipart/form-data.
// The server decodes the container itself.
func (s *WhisperServer) Transcribe(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("whisper-server: open audio: %w", err)
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(s.writeForm(mw, f, filepath.Base(path)))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url+"/inference", pr)
	if err != nil {
		pr.Close()
		return "", fmt.Errorf("whisper-server: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("whisper-server: http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("whisper-server: read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("whisper-server: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var result struct {
		Text  string `json:"text"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("whisper-server: parse JSON response: %w", err)
	}
	if result.Error != "" {
		return "", fmt.Errorf("whisper-server: %s", result.Error)
	}
	return result.Text, nil
}

func (s *WhisperServer) writeForm(mw *multipart.Writer, audio io.Reader, filename string) error {
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(fw, audio); err != nil {
		return err
	}

	fields := map[string]string{"response_format": "json"}
	if !autoLanguage(s.language) {
		fields["language"] = s.language
	}
	if s.model != "" {
		fields["model"] = s.model
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	return mw.Close()
}
