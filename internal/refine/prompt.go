package refine

import (
	_ "embed"
	"strings"
)

// SystemPrompt instructs the model to clean up a dictated transcript.
//
//go:embed prompts/system.md
var SystemPrompt string

// UserPromptTemplate precedes the transcript in the user message.
//
//go:embed prompts/user.md
var UserPromptTemplate string

// userMessage wraps the transcript so instructions spoken in it are not
// mistaken for instructions to the model.
func userMessage(transcript string) string {
	return UserPromptTemplate + "<transcript>\n" + transcript + "\n</transcript>"
}

// cleanOutput strips markdown fences, transcript tags and wrapping quotes
// that models sometimes add despite the instructions.
func cleanOutput(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		} else {
			s = ""
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	s = strings.TrimPrefix(s, "<transcript>")
	s = strings.TrimSuffix(s, "</transcript>")
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}
