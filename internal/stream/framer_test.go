package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func feedAll(f *Framer, chunks ...string) []string {
	var out []string
	for _, c := range chunks {
		out = append(out, f.Feed([]byte(c))...)
	}
	return out
}

func TestFramer_SplitsOnBlankLine(t *testing.T) {
	var f Framer
	got := feedAll(&f, "data: one\n\ndata: two\n\ndata: thr", "ee\n\n")
	assert.Equal(t, []string{"one", "two", "three"}, got)
	assert.Empty(t, f.Flush())
}

func TestFramer_KeepsPartialEventAcrossChunks(t *testing.T) {
	var f Framer
	assert.Empty(t, f.Feed([]byte("data: {\"type\":\"tok")))
	assert.Empty(t, f.Feed([]byte("en\",\"content\":\"x\"}\n")))
	assert.Equal(t, []string{`{"type":"token","content":"x"}`}, f.Feed([]byte("\n")))
}

func TestFramer_CRLF(t *testing.T) {
	var f Framer
	got := feedAll(&f, "data: a\r\n\r", "\ndata: b\r\n\r\n")
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestFramer_BareCarriageReturn(t *testing.T) {
	var f Framer
	got := feedAll(&f, "data: a\r\rdata: b\r", "\rdata: c\r\r")
	got = append(got, f.Flush()...)
	assert.Equal(t, []string{"a", "b", "c"}, got)

	// a CR at the end of a chunk may still pair with the next LF
	var g Framer
	got = feedAll(&g, "data: a\r", "\n\r", "\ndata: b\n\n")
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestFramer_MultiByteRuneSplitAcrossChunks(t *testing.T) {
	payload := []byte("data: ¿Qué? 法律 ✓\n\n")
	// split inside every multi-byte rune position
	for cut := 1; cut < len(payload); cut++ {
		var f Framer
		got := append(f.Feed(payload[:cut]), f.Feed(payload[cut:])...)
		assert.Equal(t, []string{"¿Qué? 法律 ✓"}, got, "cut at %d", cut)
	}
}

func TestFramer_ByteAtATime(t *testing.T) {
	payload := []byte("data: 日本\n\ndata: [DONE]\n\n")
	var f Framer
	var got []string
	for i := range payload {
		got = append(got, f.Feed(payload[i:i+1])...)
	}
	assert.Equal(t, []string{"日本", DoneSentinel}, got)
}

func TestFramer_IgnoresCommentsAndOtherFields(t *testing.T) {
	var f Framer
	got := feedAll(&f, ": keep-alive\n\nevent: chunk\nid: 3\ndata: hello\n\nretry: 10\n\n")
	assert.Equal(t, []string{"hello"}, got)
}

func TestFramer_JoinsMultipleDataLines(t *testing.T) {
	var f Framer
	assert.Equal(t, []string{"a\n  b"}, feedAll(&f, "data: a\ndata:  b\n\n"))
}

func TestFramer_FlushReturnsUnterminatedEvent(t *testing.T) {
	var f Framer
	assert.Empty(t, f.Feed([]byte("data: tail")))
	assert.Equal(t, []string{"tail"}, f.Flush())
	assert.Empty(t, f.Flush())
}

func TestCompletePrefix(t *testing.T) {
	euro := []byte("€") // 3 bytes
	assert.Equal(t, 0, completePrefix(euro[:1]))
	assert.Equal(t, 0, completePrefix(euro[:2]))
	assert.Equal(t, 3, completePrefix(euro))
	assert.Equal(t, 2, completePrefix(append([]byte("ab"), euro[:2]...)))
	// stray continuation bytes are not held back
	assert.Equal(t, 2, completePrefix([]byte{'a', 0x80}))
}
