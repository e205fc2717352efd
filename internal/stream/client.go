package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/suPer8Hu/legal-assistant/internal/api"
	"github.com/suPer8Hu/legal-assistant/internal/auth"
	"github.com/suPer8Hu/legal-assistant/internal/common"
	"github.com/suPer8Hu/legal-assistant/internal/logging"
	"github.com/suPer8Hu/legal-assistant/internal/pubsub"
)

var ErrEmptyQuestion = errors.New("stream: question is empty")

const (
	defaultStreamPath = "/api/chat/stream"
	defaultReadSize   = 4 * 1024
)

type Option func(*Client)

// WithHTTPClient replaces the transport. Its Timeout should be zero; the
// context given to Send bounds the request instead.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) { c.log = l }
}

func WithStreamPath(p string) Option {
	return func(c *Client) {
		if p != "" {
			c.path = "/" + strings.TrimLeft(p, "/")
		}
	}
}

// WithRequestIDs overrides the per-call request id generator.
func WithRequestIDs(f func() (string, error)) Option {
	return func(c *Client) { c.newID = f }
}

func WithReadSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.readSize = n
		}
	}
}

type session struct {
	gen    uint64
	id     string
	cancel context.CancelFunc
	done   chan struct{}
}

// Client runs one streaming chat session at a time against the legal
// assistant and publishes a State snapshot on every change.
//
// Send and Stop may be called from any goroutine. Only the reader of the
// current session writes State; writes from a superseded session are dropped.
type Client struct {
	*pubsub.Broker[State]

	baseURL  string
	path     string
	http     *http.Client
	tokens   auth.TokenProvider
	log      logrus.FieldLogger
	newID    func() (string, error)
	readSize int

	mu    sync.Mutex
	state State
	gen   uint64
	cur   *session
}

func New(baseURL string, tokens auth.TokenProvider, opts ...Option) *Client {
	c := &Client{
		Broker:   pubsub.NewBroker[State](),
		baseURL:  strings.TrimRight(baseURL, "/"),
		path:     defaultStreamPath,
		http:     &http.Client{},
		tokens:   tokens,
		log:      logging.Discard(),
		newID:    common.NewULID,
		readSize: defaultReadSize,
		state:    State{Status: StatusIdle},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Snapshot returns the current session state.
func (c *Client) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Send starts a new session for req, first cancelling the active one and
// waiting for its connection to be released. Precondition failures (empty
// question, missing or expired credential) are returned and also recorded
// as StatusError; nothing is sent in that case. Transport and protocol
// outcomes are only reported through State.
func (c *Client) Send(ctx context.Context, req api.ChatRequest) error {
	c.abandon()

	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return c.reject(ErrEmptyQuestion)
	}
	if req.Complexity == "" {
		req.Complexity = api.ComplexitySimple
	}
	if c.tokens == nil {
		return c.reject(auth.ErrNoToken)
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return c.reject(err)
	}
	id, err := c.newID()
	if err != nil {
		return c.reject(fmt.Errorf("stream: request id: %w", err))
	}
	req.RequestID = id

	body, err := json.Marshal(req)
	if err != nil {
		return c.reject(err)
	}

	sctx, cancel := context.WithCancel(ctx)
	s := &session{id: id, cancel: cancel, done: make(chan struct{})}

	c.mu.Lock()
	prev := c.cur
	c.gen++
	s.gen = c.gen
	c.cur = s
	c.state = Transition(c.state, Started{RequestID: id})
	c.Publish(pubsub.EventTypeUpdated, c.state)
	c.mu.Unlock()

	// a concurrent Send may have slipped in between abandon and here
	if prev != nil {
		prev.cancel()
		<-prev.done
	}

	c.log.WithFields(logrus.Fields{"request_id": id, "complexity": req.Complexity}).Debug("stream: send")

	go c.run(sctx, s, token, body)
	return nil
}

// Stop cancels the in-flight transfer and waits until its body is closed.
// It is a no-op when no session is active.
func (c *Client) Stop() {
	c.mu.Lock()
	s := c.cur
	if s == nil || !c.state.Status.Active() {
		c.mu.Unlock()
		return
	}
	c.state = Transition(c.state, Stopped{})
	c.Publish(pubsub.EventTypeUpdated, c.state)
	id := c.state.RequestID
	c.mu.Unlock()

	s.cancel()
	<-s.done
	c.log.WithField("request_id", id).Debug("stream: stopped")
}

// Wait blocks until the current session's reader has exited or ctx is done.
func (c *Client) Wait(ctx context.Context) (State, error) {
	c.mu.Lock()
	s := c.cur
	c.mu.Unlock()
	if s == nil {
		return c.Snapshot(), nil
	}
	select {
	case <-s.done:
		return c.Snapshot(), nil
	case <-ctx.Done():
		return c.Snapshot(), ctx.Err()
	}
}

// Close stops the active session and closes all subscriptions.
func (c *Client) Close() {
	c.Stop()
	c.Shutdown()
}

// abandon invalidates the current session's writes, cancels it and waits for
// its reader to exit.
func (c *Client) abandon() {
	c.mu.Lock()
	s := c.cur
	c.gen++
	c.mu.Unlock()
	if s == nil {
		return
	}
	s.cancel()
	<-s.done
}

func (c *Client) reject(err error) error {
	c.mu.Lock()
	c.gen++
	c.state = Transition(c.state, Rejected{Message: err.Error()})
	c.Publish(pubsub.EventTypeUpdated, c.state)
	c.mu.Unlock()
	return err
}

// apply runs ev through Transition for session gen. It returns true when the
// reader should stop: the session ended or was superseded.
//
// Snapshots are published under mu so subscribers see them in commit order;
// Publish never blocks.
func (c *Client) apply(gen uint64, ev Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return true
	}
	next := Transition(c.state, ev)
	if next != c.state {
		c.state = next
		c.Publish(pubsub.EventTypeUpdated, next)
	}
	return next.Status.Terminal()
}

func (c *Client) run(ctx context.Context, s *session, token string, body []byte) {
	defer close(s.done)
	defer s.cancel()

	log := c.log.WithField("request_id", s.id)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.path, bytes.NewReader(body))
	if err != nil {
		c.apply(s.gen, Failed{Message: err.Error()})
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		c.fail(ctx, s.gen, err, log)
		return
	}
	defer resp.Body.Close()
	// closing the body is what unblocks a pending Read on cancellation
	release := context.AfterFunc(ctx, func() { _ = resp.Body.Close() })
	defer release()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		he := common.ResponseError(resp)
		msg := he.Message
		if he.Unauthorized() {
			msg = "authentication failed: " + msg
		}
		log.WithField("status", resp.StatusCode).Warn("stream: request rejected")
		c.apply(s.gen, Failed{Message: msg})
		return
	}
	if c.apply(s.gen, Opened{}) {
		return
	}
	c.read(ctx, s.gen, resp.Body, log)
}

func (c *Client) read(ctx context.Context, gen uint64, body io.Reader, log logrus.FieldLogger) {
	var f Framer
	buf := make([]byte, c.readSize)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			for _, p := range f.Feed(buf[:n]) {
				if c.dispatch(gen, p, log) {
					return
				}
			}
		}
		if errors.Is(err, io.EOF) {
			for _, p := range f.Flush() {
				if c.dispatch(gen, p, log) {
					return
				}
			}
			c.apply(gen, Ended{})
			return
		}
		if err != nil {
			c.fail(ctx, gen, err, log)
			return
		}
	}
}

func (c *Client) dispatch(gen uint64, payload string, log logrus.FieldLogger) bool {
	ev, err := ParseEvent(payload)
	if err != nil {
		log.WithError(err).Warn("stream: skipping event")
		return false
	}
	return c.apply(gen, ev)
}

func (c *Client) fail(ctx context.Context, gen uint64, err error, log logrus.FieldLogger) {
	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		c.apply(gen, Stopped{})
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		c.apply(gen, Failed{Message: "request timed out"})
	default:
		log.WithError(err).Warn("stream: transfer failed")
		c.apply(gen, Failed{Message: "network error: could not reach the legal assistant"})
	}
}
