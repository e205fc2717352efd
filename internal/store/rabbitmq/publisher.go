package rabbitmq

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/suPer8Hu/legal-assistant/internal/history"
)

// Publisher sends finished transcripts to the history worker.
type Publisher struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

// Queue names derived from the main queue. The worker declares the same set.
func RetryQueue(queue string) string { return queue + ".retry" }
func DeadQueue(queue string) string  { return queue + ".dlq" }

func NewPublisher(url, queue string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := DeclareQueues(ch, queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &Publisher{conn: conn, ch: ch, queue: queue}, nil
}

// DeclareQueues declares queue with its retry and dead-letter companions:
// rejected messages dead-letter to the DLQ, and messages parked on the retry
// queue expire back onto the main queue.
func DeclareQueues(ch *amqp.Channel, queue string) error {
	if _, err := ch.QueueDeclare(DeadQueue(queue), true, false, false, false, nil); err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(
		RetryQueue(queue),
		true,
		false,
		false,
		false,
		amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": queue,
		},
	); err != nil {
		return err
	}
	_, err := ch.QueueDeclare(
		queue,
		true,
		false,
		false,
		false,
		amqp.Table{
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": DeadQueue(queue),
		},
	)
	return err
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// Encode is the wire form of a transcript message.
func Encode(t *history.Transcript) (amqp.Publishing, error) {
	body, err := json.Marshal(t)
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    t.RequestID,
		Body:         body,
		Timestamp:    time.Now(),
	}, nil
}

// Decode reverses Encode. Messages without a request id are rejected.
func Decode(body []byte) (*history.Transcript, error) {
	var t history.Transcript
	if err := json.Unmarshal(body, &t); err != nil {
		return nil, err
	}
	if t.RequestID == "" {
		return nil, errMissingRequestID
	}
	// the worker assigns its own primary keys
	t.ID = 0
	return &t, nil
}

func (p *Publisher) PublishTranscript(ctx context.Context, t *history.Transcript) error {
	msg, err := Encode(t)
	if err != nil {
		return err
	}

	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(cctx,
		"",      // default exchange
		p.queue, // routing key = queue
		false,
		false,
		msg,
	)
}
