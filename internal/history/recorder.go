package history

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/suPer8Hu/legal-assistant/internal/api"
	"github.com/suPer8Hu/legal-assistant/internal/stream"
)

// Publisher ships a transcript to another process.
type Publisher interface {
	PublishTranscript(ctx context.Context, t *Transcript) error
}

// Recorder persists finished sessions. Either sink may be nil.
type Recorder struct {
	Repo      *Repo
	Publisher Publisher
	Log       logrus.FieldLogger
}

// FromState builds the transcript for a terminal session state.
func FromState(req api.ChatRequest, st stream.State) *Transcript {
	t := &Transcript{
		RequestID:  st.RequestID,
		UserID:     req.UserID,
		Question:   req.Question,
		Complexity: req.Complexity,
		Answer:     st.Text,
		Status:     string(st.Status),
		Tokens:     st.Tokens,
	}
	if t.Complexity == "" {
		t.Complexity = api.ComplexitySimple
	}
	if st.Final != nil {
		t.Confidence = st.Final.Confidence
		t.FromCache = st.Final.FromCache
		if t.Answer == "" {
			t.Answer = st.Final.Answer
		}
	}
	if st.Err != "" {
		msg := st.Err
		t.Error = &msg
	}
	return t
}

// Record stores st if it is terminal and carries a request id. Sessions
// rejected before sending are skipped.
func (r *Recorder) Record(ctx context.Context, req api.ChatRequest, st stream.State) error {
	if !st.Status.Terminal() || st.RequestID == "" {
		return nil
	}
	t := FromState(req, st)

	var errs []error
	if r.Repo != nil {
		if _, _, err := r.Repo.InsertOrGetExisting(ctx, t); err != nil {
			errs = append(errs, err)
		}
	}
	if r.Publisher != nil {
		if err := r.Publisher.PublishTranscript(ctx, t); err != nil {
			errs = append(errs, err)
		}
	}
	err := errors.Join(errs...)
	if err != nil && r.Log != nil {
		r.Log.WithError(err).WithField("request_id", t.RequestID).Warn("history: record failed")
	}
	return err
}
