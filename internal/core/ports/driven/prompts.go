package driven

// PromptStore loads user-editable prompt templates.
// Implementations fall back to built-in defaults when a template is missing.
type PromptStore interface {
	// Load returns the template for the given prompt name.
	Load(name string) (string, error)
}

// Prompt names.
const (
	// PromptSummariseSystem is the system message for chunk summaries.
	PromptSummariseSystem = "summarise_system"

	// PromptSummarise is the user message for chunk summaries.
	// Placeholders: %d target word count, %s chunk text.
	PromptSummarise = "summarise"
)
