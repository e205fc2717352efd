package ai

import (
	"context"
	"strings"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider generates one complete reply.
type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// Stream yields the reply of p chunk by chunk. Providers without native
// streaming are called once and their reply is split into word chunks.
// Both channels are closed when the reply ends; at most one error is sent.
func Stream(ctx context.Context, p Provider, messages []Message) (<-chan string, <-chan error) {
	if sp, ok := p.(StreamProvider); ok {
		return sp.StreamChat(ctx, messages)
	}

	chunks := make(chan string, 16)
	errs := make(chan error, 1)
	go func() {
		defer close(chunks)
		defer close(errs)

		reply, err := p.Chat(ctx, messages)
		if err != nil {
			errs <- err
			return
		}
		for _, w := range SplitWords(reply) {
			if !send(ctx, chunks, w) {
				errs <- ctx.Err()
				return
			}
		}
	}()
	return chunks, errs
}

// SplitWords cuts s into chunks that each end after a run of spaces, so
// concatenating them gives s back.
func SplitWords(s string) []string {
	var out []string
	for s != "" {
		i := strings.IndexByte(s, ' ')
		if i < 0 {
			out = append(out, s)
			break
		}
		j := i
		for j < len(s) && s[j] == ' ' {
			j++
		}
		out = append(out, s[:j])
		s = s[j:]
	}
	return out
}
