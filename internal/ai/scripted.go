package ai

import (
	"context"
	"strings"
)

// ScriptedProvider answers without a model. Reply maps the user question to
// the answer; when nil a fixed disclaimer-style answer is used.
type ScriptedProvider struct {
	Reply func(question string) string
}

func (p *ScriptedProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	q := lastUser(messages)
	if p.Reply != nil {
		return p.Reply(q), nil
	}
	return "This is general legal information about \"" + strings.TrimSpace(q) +
		"\". Consult a qualified lawyer for advice on your situation.", nil
}

func lastUser(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	return ""
}
