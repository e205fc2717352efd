package stream

import "github.com/suPer8Hu/legal-assistant/internal/api"

type Status string

const (
	StatusIdle       Status = "idle"
	StatusConnecting Status = "connecting"
	StatusStreaming  Status = "streaming"
	StatusComplete   Status = "complete"
	StatusError      Status = "error"
	StatusStopped    Status = "stopped"
)

// Terminal reports whether no further event can change a session in s.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusError || s == StatusStopped
}

// Active reports whether a transfer is in flight.
func (s Status) Active() bool {
	return s == StatusConnecting || s == StatusStreaming
}

// State is a snapshot of one streaming session.
type State struct {
	RequestID string
	Status    Status
	Progress  string
	Text      string
	Final     *api.Answer
	Err       string
	Tokens    int
	// Seeded is set once Text was filled from a complete payload.
	Seeded bool
}

// Client-local lifecycle events.
type (
	// Started resets the session for a new request.
	Started struct{ RequestID string }
	// Rejected resets the session straight into error; no request was sent.
	Rejected struct{ Message string }
	// Opened means the server accepted the request and the body is readable.
	Opened struct{}
	// Failed is a transport or HTTP failure.
	Failed struct{ Message string }
	// Stopped is a consumer cancellation.
	Stopped struct{}
	// Ended means the body ended without a sentinel.
	Ended struct{}
)

func (Started) isEvent()  {}
func (Rejected) isEvent() {}
func (Opened) isEvent()   {}
func (Failed) isEvent()   {}
func (Stopped) isEvent()  {}
func (Ended) isEvent()    {}

// Transition applies ev to s. It is pure: s is never modified in place.
// Terminal and idle sessions ignore everything except a reset.
func Transition(s State, ev Event) State {
	switch e := ev.(type) {
	case Started:
		return State{RequestID: e.RequestID, Status: StatusConnecting}
	case Rejected:
		return State{Status: StatusError, Err: e.Message}
	}
	if !s.Status.Active() {
		return s
	}

	switch e := ev.(type) {
	case Opened:
		s.Status = StatusStreaming
	case StatusEvent:
		s.Status = StatusStreaming
		s.Progress = e.Message
	case TokenEvent:
		s.Status = StatusStreaming
		s.Text += e.Content
		s.Tokens++
	case CompleteEvent:
		s.Status = StatusStreaming
		final := e.Payload
		s.Final = &final
		if s.Tokens == 0 && !s.Seeded {
			s.Text = final.Answer
			s.Seeded = true
		}
	case ErrorEvent:
		s.Status = StatusError
		s.Err = e.Message
		s.Progress = ""
	case Failed:
		s.Status = StatusError
		s.Err = e.Message
		s.Progress = ""
	case DoneEvent, Ended:
		s.Status = StatusComplete
		s.Progress = ""
	case Stopped:
		s.Status = StatusStopped
		s.Progress = ""
	}
	return s
}
