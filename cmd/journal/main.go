package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"logbook/config"
	"logbook/internal/messaging/consumer"
	worker "logbook/processing"
	"logbook/storage/store"
)

const defaultConfigPath = "./config/journal.defaults.yml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to the journal YAML config")
	flag.Parse()

	logger := log.New(os.Stdout, "[JOURNAL] ", log.LstdFlags|log.Lshortfile)
	logger.Println("Starting event journal...")

	cfg, err := config.LoadJournalConfig(*configPath)
	if err != nil {
		logger.Fatalf("FATAL: Failed to load journal configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbStore, err := store.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatalf("FATAL: Failed to initialize store: %v", err)
	}
	defer dbStore.Close()

	pingCtx, pingCancel := context.WithTimeout(ctx, 10*time.Second)
	if err := dbStore.Ping(pingCtx); err != nil {
		if cfg.Database.FailFast {
			logger.Fatalf("FATAL: Error connecting to database: %v", err)
		}
		logger.Printf("Error connecting to database: %v", err)
	}
	pingCancel()

	var mqConsumers []consumer.Consumer
	if !cfg.KafkaConsumer.IsMock() {
		logger.Printf("Initializing %d Kafka consumers...", cfg.KafkaConsumer.Count)
		for i := 0; i < cfg.KafkaConsumer.Count; i++ {
			kafkaConsumer, err := consumer.NewKafkaConsumer(cfg.KafkaConsumer, logger)
			if err != nil {
				logger.Fatalf("FATAL: Failed to initialize Kafka consumer %d: %v", i, err)
			}
			mqConsumers = append(mqConsumers, kafkaConsumer)
		}
	} else {
		logger.Println("Initializing mock consumer...")
		mqConsumers = append(mqConsumers, consumer.NewMockConsumer(logger))
	}

	var wg sync.WaitGroup
	for i, c := range mqConsumers {
		w := worker.New(cfg.Worker, logger, dbStore, c)

		wg.Add(1)
		go func(workerID int, w *worker.Worker) {
			defer wg.Done()
			logger.Printf("Starting worker %d with its dedicated consumer...", workerID)
			w.Run(ctx)
			logger.Printf("Worker %d stopped.", workerID)
		}(i+1, w)
	}

	logger.Printf("Event journal started with %d workers. Press Ctrl+C to stop.", len(mqConsumers))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Println("Received shutdown signal, initiating graceful shutdown...")
	cancel()

	wg.Wait()
	for _, c := range mqConsumers {
		c.Close()
	}

	logger.Println("Event journal shut down gracefully.")
}
