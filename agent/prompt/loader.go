package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/assistant.txt
	assistantRaw string

	//go:embed template/summary.txt
	summaryRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	// Assistant is the system instruction set for the dialogue model.
	Assistant string
	// Summary is the end-of-call summarization prompt with {actions},
	// {name} and {phone} placeholders.
	Summary string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings. Safe for
// concurrent use; the embed is compile-time and trimming is cheap.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Assistant: strings.TrimSpace(assistantRaw),
		Summary:   strings.TrimSpace(summaryRaw),
	}
}
