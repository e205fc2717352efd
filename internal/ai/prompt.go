package ai

import "fmt"

const legalSystemPrompt = `You are an expert AI Legal Assistant. Your role is to:

1. Provide accurate, well-cited answers to legal questions
2. Adjust your explanation complexity based on user preference
3. Always include proper citations and sources
4. Clearly state when you're uncertain or when a human lawyer should be consulted

Guidelines:
- For complex legal matters, recommend consulting a qualified lawyer
- If you cannot find relevant information, say so clearly

Current complexity level: %s
`

// LegalMessages builds the conversation sent to a provider for one question.
func LegalMessages(question, complexity string) []Message {
	if complexity == "" {
		complexity = "simple"
	}
	return []Message{
		{Role: "system", Content: fmt.Sprintf(legalSystemPrompt, complexity)},
		{Role: "user", Content: question},
	}
}
