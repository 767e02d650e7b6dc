package gemini_test

import (
	"strings"
	"testing"

	"github.com/asqlan/brutalbot/internal/database"
	"github.com/asqlan/brutalbot/internal/gemini"
)

func TestBuildReplyPrompt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mode    database.Mode
		message string
	}{
		{
			name:    "brutal mode",
			mode:    database.ModeBrutal,
			message: "Should I quit my job to become a streamer?",
		},
		{
			name:    "philosophical mode",
			mode:    database.ModePhilosophical,
			message: "Why do I keep procrastinating?",
		},
		{
			name:    "sarcastic mode",
			mode:    database.ModeSarcastic,
			message: "I think I'm always right.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			prompt := gemini.BuildReplyPrompt(tt.mode, tt.message, 4096)

			if !strings.Contains(prompt, "User's message: "+tt.message) {
				t.Errorf("prompt does not embed the user message: %q", prompt)
			}
			if !strings.HasSuffix(prompt, string(tt.mode)+". No explanations, no extra text.") {
				t.Errorf("prompt does not request mode %q at the end: %q", tt.mode, prompt)
			}
			if !strings.Contains(prompt, "no more than 4096 characters") {
				t.Errorf("prompt does not carry the length limit: %q", prompt)
			}
		})
	}
}

func TestBuildReplyPrompt_DistinctPerMode(t *testing.T) {
	t.Parallel()

	msg := "same message"
	seen := make(map[string]database.Mode)
	for _, mode := range database.Modes() {
		prompt := gemini.BuildReplyPrompt(mode, msg, 1000)
		if prev, dup := seen[prompt]; dup {
			t.Fatalf("modes %q and %q produce identical prompts", prev, mode)
		}
		seen[prompt] = mode
	}
}
