package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fdly/internal/cache"
	"fdly/internal/config"
	"fdly/internal/db"
	"fdly/internal/discovery"
	"fdly/internal/feedly"
	"fdly/internal/fetcher"
	"fdly/internal/logger"
	"fdly/internal/metrics"
	"fdly/internal/models"
	"fdly/internal/queue"
	"fdly/internal/server"
	"fdly/internal/worker"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON config file, empty for environment only")
	flag.Parse()

	logger.Init("")
	defer logger.Log.Info("Application stopped")

	// Загрузка конфигурации
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Log.Fatalf("Config load error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Log.Fatalf("Invalid config: %v", err)
	}

	logger.SetLevel(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Инициализация БД
	database, err := db.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatalf("DB connection error: %v", err)
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		logger.Log.Fatalf("DB migration error: %v", err)
	}

	// Клиент Feedly
	collector := metrics.New()
	client := feedly.New(
		models.User{ID: cfg.Feedly.UserID, AuthToken: cfg.Feedly.APIKey},
		feedly.WithBaseURL(cfg.Feedly.BaseURL),
		feedly.WithAPIVersion(cfg.Feedly.APIVersion),
		feedly.WithTimeout(cfg.FeedlyTimeout()),
		feedly.WithRateLimit(cfg.Feedly.RequestsPerSecond, cfg.Feedly.Burst),
		feedly.WithObserver(collector),
		feedly.WithLogger(logger.Component("feedly")),
	)

	if !client.IsAvailable(ctx) {
		logger.Log.Warn("Feedly is not reachable, polling will retry on the next tick")
	} else if !client.CanAuthenticate(ctx) {
		logger.Log.Fatal("Feedly rejected the API key")
	}

	opts := feedly.DefaultEntriesOptions()
	opts.Count = cfg.EntriesPerPoll
	opts.UnreadOnly = cfg.UnreadOnly

	categoryCache := cache.NewCategoryCache(cfg.CacheTTL())
	fetch := fetcher.NewFetcher(client, database, categoryCache, opts, collector)

	categoryIDs, err := fetch.ResolveCategories(ctx, cfg.Categories)
	if err != nil {
		logger.Log.Fatalf("Resolve categories error: %v", err)
	}

	// Настройка RabbitMQ Producer
	producer, err := queue.NewProducer(cfg.RabbitMQ.URL)
	if err != nil {
		logger.Log.Fatalf("RabbitMQ producer error: %v", err)
	}
	defer producer.Close()

	// Настройка RabbitMQ Consumer
	consumer, err := queue.NewConsumer(
		cfg.RabbitMQ.URL,
		cfg.RabbitMQ.Queue,
		cfg.RabbitMQ.Workers,
	)
	if err != nil {
		logger.Log.Fatalf("RabbitMQ consumer error: %v", err)
	}
	defer consumer.Close()

	// Запуск воркеров
	wrk := worker.NewWorker(fetch, client, database, collector, 2*cfg.FeedlyTimeout())
	if err := consumer.Consume(ctx, wrk.HandleTask); err != nil {
		logger.Log.Fatalf("RabbitMQ consume error: %v", err)
	}

	// Запуск периодического опроса
	go fetcher.StartPolling(
		ctx,
		producer,
		fetch,
		categoryIDs,
		cfg.PollEvery(),
		cfg.RabbitMQ.Queue,
	)

	// HTTP сервер
	srv := server.NewServer(database, producer, cfg.RabbitMQ.Queue, discovery.NewTitleResolver(), collector.Handler())

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Log.Infof("Starting HTTP server on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down...")
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		logger.Log.Errorf("Forced shutdown: %v", err)
	}
}
