package domain

// CompletionRequest carries the inputs of a single completion call.
// The system instruction travels alongside the prompt, never interpolated
// into it.
type CompletionRequest struct {
	Prompt       string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
}

// CompletionResult carries the generated text and token usage.
type CompletionResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
