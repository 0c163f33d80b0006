//go:build !whisper

package transcribe

import "fmt"

func newNative(Config) (Transcriber, error) {
	return nil, fmt.Errorf("%w: whisper backend not compiled in (rebuild with -tags whisper, or use %s/%s)",
		ErrUnsupported, BackendWhisperServer, BackendOpenAI)
}
