package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"attendanceledger/internal/audit"
	"attendanceledger/internal/config"
	"attendanceledger/internal/queue"
	"attendanceledger/internal/store"
)

// Worker consumes queue messages from the API and writes the audit
// trail, keeping audit I/O off the request path.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "attendance:audit")
	}

	auditRepo := audit.NewRepository(db.Client)

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("audit worker started, waiting for messages...")
	for msg := range messages {
		switch msg.Type {
		case queue.TypeCheckin, queue.TypeTokenIssued, queue.TypeLeaveReview, queue.TypeCorrectionReview:
		default:
			log.Printf("skipping unknown message type %q", msg.Type)
			continue
		}

		if err := auditRepo.Insert(ctx, msg.Type, msg.SubjectID, msg.Detail); err != nil {
			log.Printf("audit insert failed for %s %s: %v", msg.Type, msg.SubjectID, err)
			continue
		}
		log.Printf("audited %s %s", msg.Type, msg.SubjectID)
	}

	log.Println("worker stopped")
}
