package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/glebglazov/vibe-coding-done-right/internal/transcribe"
)

var flagSend bool

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <file>",
	Short: "Transcribe an audio file",
	Long: `Transcribe an audio file with the configured backend and print the text.

With --send the text is also typed into the Claude Code pane and the result
is printed as JSON, the same body POST /transcribe returns.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path := args[0]
		if _, err := os.Stat(path); err != nil {
			return err
		}

		t, err := newTranscriber(cfg, nil)
		if err != nil {
			return err
		}
		defer func() {
			if err := transcribe.Close(t); err != nil {
				slog.Warn("closing transcriber failed", "err", err)
			}
		}()

		if !flagSend {
			text, err := t.Transcribe(cmd.Context(), path)
			if err != nil {
				return err
			}
			fmt.Println(text)
			return nil
		}

		m, err := getMultiplexer(cfg)
		if err != nil {
			return err
		}
		r, err := newRelay(cfg, m, t, nil)
		if err != nil {
			return err
		}
		result, err := r.Transcribe(cmd.Context(), path)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
		if !result.SentToClaude {
			return fmt.Errorf("not sent: %s", result.Error)
		}
		return nil
	},
}

func init() {
	transcribeCmd.Flags().BoolVar(&flagSend, "send", false, "type the transcription into the Claude Code pane")
	rootCmd.AddCommand(transcribeCmd)
}
