package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvent(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		want    Event
	}{
		{"sentinel", "[DONE]", DoneEvent{}},
		{"status", `{"type":"status","message":"Searching statutes"}`, StatusEvent{Message: "Searching statutes"}},
		{"token", `{"type":"token","content":"Hello"}`, TokenEvent{Content: "Hello"}},
		{"empty token", `{"type":"token","content":""}`, TokenEvent{Content: ""}},
		{"error message", `{"type":"error","message":"quota exceeded"}`, ErrorEvent{Message: "quota exceeded"}},
		{"error field", `{"type":"error","error":"boom"}`, ErrorEvent{Message: "boom"}},
		{"error bare", `{"type":"error"}`, ErrorEvent{Message: defaultServerError}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseEvent(tc.payload)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseEvent_Complete(t *testing.T) {
	ev, err := ParseEvent(`{"type":"complete","data":{"answer":"X","confidence":0.8,"tools_used":["search"],"from_cache":true,"source_documents":[{"source":"ipc.pdf","page":12}]}}`)
	require.NoError(t, err)
	c, ok := ev.(CompleteEvent)
	require.True(t, ok)
	assert.Equal(t, "X", c.Payload.Answer)
	assert.InDelta(t, 0.8, c.Payload.Confidence, 1e-9)
	assert.True(t, c.Payload.FromCache)
	require.Len(t, c.Payload.SourceDocuments, 1)
	assert.Equal(t, "ipc.pdf", c.Payload.SourceDocuments[0].Source)
}

func TestParseEvent_Malformed(t *testing.T) {
	for _, payload := range []string{
		`{"type":"token","content":`,
		`not json`,
		`{"content":"x"}`,
		`{"type":"token"}`,
		`{"type":"status"}`,
		`{"type":"complete"}`,
		`{"type":"complete","data":null}`,
		`{"type":"complete","data":"oops"}`,
		`{"type":"shrug"}`,
	} {
		_, err := ParseEvent(payload)
		assert.ErrorIs(t, err, ErrMalformedEvent, payload)
	}
}
