package stream

import (
	"strings"
	"unicode/utf8"
)

// Framer turns a chunked event-stream body into data payloads. It holds back
// an incomplete trailing UTF-8 sequence and an incomplete trailing event
// until more bytes arrive.
type Framer struct {
	pending []byte
	text    string
}

// Feed consumes chunk and returns the data payloads of every event it completed.
func (f *Framer) Feed(chunk []byte) []string {
	data := append(f.pending, chunk...)
	cut := completePrefix(data)
	f.text += string(data[:cut])
	f.pending = append([]byte(nil), data[cut:]...)
	return f.drain()
}

// Flush is called at end of body. It decodes whatever is left and returns the
// payload of a trailing event that was never terminated by a blank line.
func (f *Framer) Flush() []string {
	f.text += string(f.pending)
	f.pending = nil
	out := f.drain()
	rest := lineEnds.Replace(f.text)
	f.text = ""
	if data, ok := dataOf(rest); ok {
		out = append(out, data)
	}
	return out
}

// CRLF, LF and a lone CR all end a line.
var lineEnds = strings.NewReplacer("\r\n", "\n", "\r", "\n")

func (f *Framer) drain() []string {
	text, hold := f.text, ""
	// a trailing CR may be the first half of a CRLF split across reads
	if strings.HasSuffix(text, "\r") {
		text, hold = text[:len(text)-1], "\r"
	}
	text = lineEnds.Replace(text)
	var out []string
	for {
		i := strings.Index(text, "\n\n")
		if i < 0 {
			break
		}
		block := text[:i]
		text = text[i+2:]
		if data, ok := dataOf(block); ok {
			out = append(out, data)
		}
	}
	f.text = text + hold
	return out
}

// dataOf joins the data fields of one event. Comment lines and other fields
// (event, id, retry) are ignored.
func dataOf(block string) (string, bool) {
	var parts []string
	for _, line := range strings.Split(block, "\n") {
		if rest, ok := strings.CutPrefix(line, "data:"); ok {
			parts = append(parts, rest)
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.TrimSpace(strings.Join(parts, "\n")), true
}

// completePrefix returns the length of b without a trailing partial rune.
func completePrefix(b []byte) int {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if !utf8.FullRune(b[i:]) {
				return i
			}
			break
		}
	}
	return len(b)
}
