package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"logbook/config"
	"logbook/internal/messaging/producer"
	core "logbook/logservice/core"
	grpchandler "logbook/logservice/grpc"
	httphandler "logbook/logservice/http"
	"logbook/storage/store"
)

const defaultConfigPath = "./config/server.defaults.yml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to the server YAML config")
	flag.Parse()

	logger := log.New(os.Stdout, "[API] ", log.LstdFlags|log.Lshortfile)
	logger.Println("Starting logbook API server...")

	// 1. Load configuration
	cfg, err := config.LoadServerConfig(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load server configuration: %v", err)
	}
	logger.Printf("Environment: %s", cfg.Environment)
	cfg.Database.LogConfiguration()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Open the store once; it is injected into the service and closed on exit
	dbStore, err := store.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize store: %v", err)
	}
	defer dbStore.Close()

	pingCtx, pingCancel := context.WithTimeout(ctx, 10*time.Second)
	if err := dbStore.Ping(pingCtx); err != nil {
		if cfg.Database.FailFast {
			logger.Fatalf("Error connecting to database: %v", err)
		}
		logger.Printf("Error connecting to database: %v (continuing; requests will fail until it is reachable)", err)
	} else {
		logger.Println("Connected to database")
	}
	pingCancel()

	// 3. Event producer
	var eventProducer producer.Producer = producer.NopProducer{}
	if cfg.Events.Enabled {
		kafkaProducer, err := producer.NewKafkaProducer(cfg.Events.KafkaProducer, logger)
		if err != nil {
			logger.Fatalf("Failed to initialize Kafka producer: %v", err)
		}
		defer kafkaProducer.Close()
		eventProducer = kafkaProducer
	} else {
		logger.Println("Lifecycle events disabled")
	}

	// 4. Core service and transports
	coreService := core.NewService(dbStore, eventProducer, logger, cfg.Events.BatchProcessor)
	defer coreService.Close() // Flush pending events before the producer closes

	var wg sync.WaitGroup

	var httpServer *http.Server
	if cfg.HttpListenAddr != "" {
		logHttpHandler := httphandler.NewLogHandler(coreService, logger, cfg.HttpServer.MaxBodyBytes)
		router := httphandler.NewRouter(logHttpHandler, httphandler.RouterOptions{
			AllowedOrigins: cfg.CORS.AllowedOrigins(cfg.Environment),
			AllowedMethods: cfg.CORS.Methods,
			StaticDir:      cfg.StaticDir,
			HealthPath:     cfg.HealthPath,
		})

		httpServer = &http.Server{
			Addr:           cfg.HttpListenAddr,
			Handler:        router,
			ReadTimeout:    cfg.HttpServer.ReadTimeout,
			WriteTimeout:   cfg.HttpServer.WriteTimeout,
			IdleTimeout:    cfg.HttpServer.IdleTimeout,
			MaxHeaderBytes: cfg.HttpServer.MaxHeaderBytes,
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Printf("HTTP server listening on %s", cfg.HttpListenAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatalf("HTTP server startup failed: %v", err)
			}
			logger.Println("HTTP server stopped listening.")
		}()
	} else {
		logger.Println("http_listen_addr not configured, skipping HTTP server startup.")
	}

	var grpcServer *grpc.Server
	if cfg.GrpcListenAddr != "" {
		lis, err := net.Listen("tcp", cfg.GrpcListenAddr)
		if err != nil {
			logger.Fatalf("Unable to listen on gRPC port %s: %v", cfg.GrpcListenAddr, err)
		}
		grpcServer = grpc.NewServer()
		grpchandler.RegisterLogServiceServer(grpcServer, grpchandler.NewServer(coreService, logger))
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Printf("gRPC server listening on %s", cfg.GrpcListenAddr)
			if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				logger.Fatalf("gRPC server startup failed: %v", err)
			}
			logger.Println("gRPC server stopped listening.")
		}()
	} else {
		logger.Println("grpc_listen_addr not configured, skipping gRPC server startup.")
	}

	// 5. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Printf("Received shutdown signal: %s, shutting down...", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("HTTP server shutdown failed: %v", err)
		}
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}

	wg.Wait()
	logger.Println("All servers stopped.")
}
