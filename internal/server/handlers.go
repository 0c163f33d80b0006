package server

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/glebglazov/vibe-coding-done-right/internal/inject"
	"github.com/glebglazov/vibe-coding-done-right/internal/resolver"
)

//go:embed static/index.html
var static embed.FS

// Response details. Recorder pages and scripts match on these strings.
const (
	detailNotAudio      = "File must be an audio file"
	detailNotFound      = "Claude Code session not found"
	detailSendFailed    = "Failed to send text to Claude session"
	detailTranscription = "Transcription failed"
	messageSent         = "Text sent to Claude Code"
	messageRunning      = "Voice Transcription API is running"
)

type sendRequest struct {
	Text *string `json:"text"`
}

type sendResponse struct {
	Success bool   `json:"success"`
	Session string `json:"session"`
	Message string `json:"message"`
}

func (s *Server) index(c echo.Context) error {
	page, err := static.ReadFile("static/index.html")
	if err != nil {
		return err
	}
	return c.HTMLBlob(http.StatusOK, page)
}

func (s *Server) root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"message": messageRunning})
}

func (s *Server) transcribe(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		if he := asHTTPError(err); he != nil {
			return he
		}
		return invalid(http.StatusUnprocessableEntity, "Field required: file", err)
	}
	if !strings.HasPrefix(fh.Header.Get(echo.HeaderContentType), "audio/") {
		return invalid(http.StatusBadRequest, detailNotAudio,
			fmt.Errorf("content type %q", fh.Header.Get(echo.HeaderContentType)))
	}

	path, err := saveUpload(fh)
	if err != nil {
		return fmt.Errorf("save upload: %w", err)
	}
	defer os.Remove(path)

	result, err := s.relay.Transcribe(c.Request().Context(), path)
	if err != nil {
		s.logger.Error("transcription failed", "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, detailTranscription).SetInternal(err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) sendToClaude(c echo.Context) error {
	var req sendRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		if he := asHTTPError(err); he != nil {
			return he
		}
		return invalid(http.StatusBadRequest, "Invalid JSON body", err)
	}
	if req.Text == nil {
		return invalid(http.StatusUnprocessableEntity, "Field required: text", errors.New("missing text"))
	}

	delivery, err := s.relay.Send(c.Request().Context(), *req.Text)
	switch {
	case err == nil:
	case resolver.IsNotFound(err):
		return echo.NewHTTPError(http.StatusNotFound, detailNotFound).SetInternal(err)
	case errors.Is(err, inject.ErrInjection):
		return echo.NewHTTPError(http.StatusInternalServerError, detailSendFailed).SetInternal(err)
	default:
		return err
	}

	return c.JSON(http.StatusOK, sendResponse{
		Success: true,
		Session: delivery.Session,
		Message: messageSent,
	})
}

// asHTTPError unwraps errors raised by middleware while the body is read,
// such as the body limit.
func asHTTPError(err error) *echo.HTTPError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	return nil
}

func invalid(code int, detail string, cause error) *echo.HTTPError {
	return echo.NewHTTPError(code, detail).SetInternal(fmt.Errorf("%w: %v", ErrInvalidInput, cause))
}

// saveUpload copies the upload to a temp file, keeping its extension so the
// engine can tell the container format. The caller removes the file.
func saveUpload(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if ext == "" {
		ext = ".wav"
	}
	dst, err := os.CreateTemp("", "vibe-voice-*"+ext)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", err
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	return dst.Name(), nil
}
