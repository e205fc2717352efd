package stream

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/suPer8Hu/legal-assistant/internal/api"
)

// DoneSentinel is the data payload that ends a stream.
const DoneSentinel = "[DONE]"

// ErrMalformedEvent marks an event payload that cannot be dispatched. The
// reader skips such events and keeps going.
var ErrMalformedEvent = errors.New("stream: malformed event")

// Event is the closed set of inputs to Transition: the wire events below plus
// the client-local lifecycle events in state.go.
type Event interface {
	isEvent()
}

// StatusEvent updates the progress label.
type StatusEvent struct{ Message string }

// TokenEvent carries the next fragment of the answer.
type TokenEvent struct{ Content string }

// CompleteEvent carries the structured answer metadata.
type CompleteEvent struct{ Payload api.Answer }

// ErrorEvent is a server-reported failure; it ends the session.
type ErrorEvent struct{ Message string }

// DoneEvent is the end-of-stream sentinel.
type DoneEvent struct{}

func (StatusEvent) isEvent()   {}
func (TokenEvent) isEvent()    {}
func (CompleteEvent) isEvent() {}
func (ErrorEvent) isEvent()    {}
func (DoneEvent) isEvent()     {}

type envelope struct {
	Type    string          `json:"type"`
	Message *string         `json:"message"`
	Content *string         `json:"content"`
	Error   *string         `json:"error"`
	Data    json.RawMessage `json:"data"`
}

const defaultServerError = "the assistant reported an error"

// ParseEvent decodes one data payload. Unknown types and missing required
// fields are reported as ErrMalformedEvent.
func ParseEvent(payload string) (Event, error) {
	if payload == DoneSentinel {
		return DoneEvent{}, nil
	}
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	switch env.Type {
	case "status":
		if env.Message == nil {
			return nil, fmt.Errorf("%w: status without message", ErrMalformedEvent)
		}
		return StatusEvent{Message: *env.Message}, nil
	case "token":
		if env.Content == nil {
			return nil, fmt.Errorf("%w: token without content", ErrMalformedEvent)
		}
		return TokenEvent{Content: *env.Content}, nil
	case "complete":
		if len(env.Data) == 0 || string(env.Data) == "null" {
			return nil, fmt.Errorf("%w: complete without data", ErrMalformedEvent)
		}
		var a api.Answer
		if err := json.Unmarshal(env.Data, &a); err != nil {
			return nil, fmt.Errorf("%w: complete data: %v", ErrMalformedEvent, err)
		}
		return CompleteEvent{Payload: a}, nil
	case "error":
		msg := defaultServerError
		switch {
		case env.Message != nil && *env.Message != "":
			msg = *env.Message
		case env.Error != nil && *env.Error != "":
			msg = *env.Error
		}
		return ErrorEvent{Message: msg}, nil
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformedEvent)
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrMalformedEvent, env.Type)
	}
}
