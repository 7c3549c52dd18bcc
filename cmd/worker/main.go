package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"agenda/internal/config"
	"agenda/internal/notifier"
	"agenda/internal/queue"
	"agenda/internal/store"
)

// Worker consumes appointment events from the queue and forwards them to the
// configured webhook. Delivery is best-effort: failures are logged and the
// event is dropped.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "agenda:events")
	}

	hook := notifier.New(cfg.WebhookURL, cfg.WebhookSkip)
	if !cfg.WebhookSkip {
		if err := hook.Health(ctx); err != nil {
			log.Printf("WARNING: webhook not available: %v", err)
			log.Println("Worker will keep forwarding as events arrive")
		} else {
			log.Println("Webhook reachable")
		}
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for events...")
	for msg := range messages {
		var evt notifier.AppointmentEvent
		if err := json.Unmarshal(msg.Body, &evt); err != nil {
			log.Printf("drop malformed event %s: %v", msg.ID, err)
			continue
		}

		if err := hook.Notify(ctx, evt); err != nil {
			log.Printf("forward event %s (%s) failed: %v", msg.ID, evt.Action, err)
			continue
		}
		log.Printf("event %s forwarded: %s appointment %d on %s %s",
			msg.ID, evt.Action, evt.AppointmentID, evt.Date, evt.Time)
	}

	log.Println("worker stopped")
}
