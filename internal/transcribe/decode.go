package transcribe

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// sampleRate is the input rate whisper.cpp models are trained on.
const sampleRate = 16000

// decodeArgs builds the ffmpeg invocation that writes path to stdout as
// raw 16 kHz mono s16le PCM.
func decodeArgs(path string) []string {
	return []string{
		"-nostdin", "-hide_banner", "-loglevel", "error",
		"-i", path,
		"-f", "s16le", "-ac", "1", "-ar", strconv.Itoa(sampleRate),
		"-",
	}
}

// decodePCM runs ffmpeg to decode any container the browser produced
// (webm/opus, ogg, mp4, wav) into whisper's input format.
func decodePCM(ctx context.Context, path string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg", decodeArgs(path)...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("ffmpeg decode %s: %w: %s", path, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("ffmpeg decode %s: %w", path, err)
	}
	return out, nil
}
