package main

import (
	"context"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"github.com/suPer8Hu/legal-assistant/internal/history"
	"github.com/suPer8Hu/legal-assistant/internal/store/rabbitmq"
)

const (
	maxAttempts   = 3
	retryDelay    = 2 * time.Second
	attemptHeader = "x-attempt"
)

type acker interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

type retrier interface {
	Retry(ctx context.Context, msg amqp.Publishing) error
}

type worker struct {
	repo  *history.Repo
	retry retrier
	log   logrus.FieldLogger
}

func (w *worker) deliver(ctx context.Context, workerID int, d amqp.Delivery) {
	w.handle(ctx, workerID, d, d.Body, d.Headers)
}

// handle stores one transcript message. Undecodable messages go straight to
// the DLQ; storage failures are parked on the retry queue until maxAttempts.
func (w *worker) handle(ctx context.Context, workerID int, a acker, body []byte, headers amqp.Table) {
	log := w.log.WithField("worker", workerID)

	t, err := rabbitmq.Decode(body)
	if err != nil {
		log.WithError(err).Warn("bad message")
		_ = a.Nack(false, false)
		return
	}
	log = log.WithField("request_id", t.RequestID)

	start := time.Now()
	_, created, err := w.repo.InsertOrGetExisting(ctx, t)
	if err == nil {
		if !created {
			log.Debug("duplicate transcript")
		}
		if err := a.Ack(false); err != nil {
			log.WithError(err).Warn("ack failed")
		}
		if cost := time.Since(start); cost > 500*time.Millisecond {
			log.WithField("cost", cost).Info("slow store")
		}
		return
	}

	attempt := attemptOf(headers) + 1
	if attempt >= maxAttempts || w.retry == nil {
		log.WithError(err).WithField("attempt", attempt).Error("store failed, dead-lettering")
		_ = a.Nack(false, false)
		return
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    t.RequestID,
		Body:         body,
		Headers:      amqp.Table{attemptHeader: int32(attempt)},
		Expiration:   strconv.FormatInt(retryDelay.Milliseconds(), 10),
		Timestamp:    time.Now(),
	}
	if rerr := w.retry.Retry(ctx, msg); rerr != nil {
		log.WithError(rerr).Error("retry publish failed")
		_ = a.Nack(false, false)
		return
	}
	log.WithError(err).WithField("attempt", attempt).Warn("store failed, retrying")
	_ = a.Ack(false)
}

func attemptOf(h amqp.Table) int {
	switch v := h[attemptHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}
