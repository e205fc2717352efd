package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"github.com/suPer8Hu/legal-assistant/internal/config"
	"github.com/suPer8Hu/legal-assistant/internal/db"
	"github.com/suPer8Hu/legal-assistant/internal/history"
	"github.com/suPer8Hu/legal-assistant/internal/logging"
	"github.com/suPer8Hu/legal-assistant/internal/store/rabbitmq"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel)

	if cfg.RabbitURL == "" {
		log.Fatal("RABBIT_URL is required")
	}

	gdb, err := db.Connect(cfg.HistoryDSN)
	if err != nil {
		log.WithError(err).Fatal("db connect")
	}
	repo, err := history.NewRepo(gdb)
	if err != nil {
		log.WithError(err).Fatal("history migrate")
	}

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.WithError(err).Fatal("rabbit dial")
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.WithError(err).Fatal("rabbit channel")
	}
	defer ch.Close()

	if err := rabbitmq.DeclareQueues(ch, cfg.RabbitQueue); err != nil {
		log.WithError(err).Fatal("queue declare")
	}

	//  strict concurrency control
	concurrency := cfg.WorkerConcurrency
	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.WithError(err).Fatal("qos")
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		log.WithError(err).Fatal("consume")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(logrus.Fields{"queue": cfg.RabbitQueue, "concurrency": concurrency}).Info("worker started")

	w := &worker{repo: repo, retry: channelRetrier{ch: ch, queue: rabbitmq.RetryQueue(cfg.RabbitQueue)}, log: log}

	// worker pool
	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				w.deliver(ctx, workerID, d)
			}
		}(i)
	}

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			log.Info("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				log.Warn("delivery channel closed")
				close(jobs)
				wg.Wait()
				return
			}
			jobs <- d
		}
	}
}

type channelRetrier struct {
	ch    *amqp.Channel
	queue string
}

func (r channelRetrier) Retry(ctx context.Context, msg amqp.Publishing) error {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return r.ch.PublishWithContext(cctx, "", r.queue, false, false, msg)
}
