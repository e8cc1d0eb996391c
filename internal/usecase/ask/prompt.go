package ask

import "fmt"

// SystemPrompt is the constant instruction delivered to the completion
// provider alongside every prompt, never interpolated into it.
const SystemPrompt = `You are an expert research analyst specializing in academic paper analysis.

Your task:
1. Analyze provided scientific paper fragments
2. Give accurate, fact-based answers to user questions
3. Cite specific sources of information
4. If information is insufficient - honestly state this

Rules:
- Answer only based on provided context
- Do not make up information
- Structure answers logically
- Use scientific terminology
- Be concise but informative`

// promptTemplate merges the assembled context and the question. The requested
// three-part answer structure is advisory: the model's compliance is not
// verified downstream.
const promptTemplate = `Context from scientific papers:
%s

User question: %s

Analyze the provided context and answer the question. If there is insufficient information in the context for a complete answer, indicate this and answer based on available data.

Structure your answer as follows:
1. Brief direct answer to the question
2. Detailed explanation with facts from sources
3. If there are data limitations - specify them

Answer:`

// BuildPrompt fills the fixed template with the context block and question.
func BuildPrompt(query, context string) string {
	return fmt.Sprintf(promptTemplate, context, query)
}
