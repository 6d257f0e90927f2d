package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"titleboost/internal/adapters/eventbus"
	"titleboost/internal/adapters/localstorage"
	"titleboost/internal/adapters/memstore"
	"titleboost/internal/adapters/mysqlstore"
	"titleboost/internal/adapters/openai"
	"titleboost/internal/adapters/resend"
	"titleboost/internal/adapters/youtube"
	"titleboost/internal/config"
	"titleboost/internal/core/domain"
	"titleboost/internal/core/ports"
	"titleboost/internal/httpapi"
	"titleboost/internal/service"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Environment variables might be set manually
		log.Println("No .env file found")
	}

	configPath := flag.String("config", "", "Path to a YAML config file")
	addr := flag.String("addr", "", "Listen address (overrides config)")
	channel := flag.String("channel", "", "Run a single job for this channel name or @handle")
	email := flag.String("email", "", "Recipient email for -channel")
	flag.Parse()

	logger := log.New(os.Stdout, "", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		logger.Fatalf("Failed to open job store: %v", err)
	}
	defer closeStore()

	bus := eventbus.New(ctx, logger)
	pipeline := service.NewPipeline(
		store,
		bus,
		youtube.NewClient(cfg.YouTube.APIKey, cfg.YouTube.BaseURL),
		youtube.NewClient(cfg.YouTube.APIKey, cfg.YouTube.BaseURL),
		openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model, cfg.OpenAI.Temperature),
		resend.NewClient(cfg.Resend.APIKey, cfg.Resend.From, cfg.Resend.BaseURL),
		logger,
		service.Options{MaxVideos: cfg.YouTube.MaxVideos, RecipientName: cfg.Resend.Recipient},
	)
	pipeline.Register()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if *channel != "" || *email != "" {
		code := runOnce(ctx, pipeline, bus, store, *channel, *email, sigChan, cfg.Bus.ShutdownTimeout, logger)
		closeStore()
		os.Exit(code)
	}

	logger.Println("=== TitleBoost ===")
	logger.Printf("Store: %s", cfg.Store.Driver)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           httpapi.NewServer(pipeline, logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Printf("Listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	<-sigChan
	logger.Println("Received interrupt signal, shutting down...")

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.Bus.ShutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("HTTP shutdown: %v", err)
	}
	if !bus.Shutdown(cfg.Bus.ShutdownTimeout) {
		logger.Printf("Timed out waiting for in-flight jobs")
	}
}

func openStore(ctx context.Context, cfg config.StoreConfig, logger *log.Logger) (ports.JobStore, func(), error) {
	switch cfg.Driver {
	case "file":
		logger.Printf("Data Directory: %s", cfg.Dir)
		return localstorage.NewLocalStorage(cfg.Dir), func() {}, nil
	case "mysql":
		store, err := mysqlstore.Open(ctx, cfg.DSN, cfg.Table)
		if err != nil {
			return nil, nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	default:
		return memstore.New(), func() {}, nil
	}
}

// runOnce submits one job, waits for its outcome and prints a summary.
func runOnce(
	ctx context.Context,
	pipeline *service.Pipeline,
	bus *eventbus.Bus,
	store ports.JobStore,
	channel, email string,
	sigChan <-chan os.Signal,
	timeout time.Duration,
	logger *log.Logger,
) int {
	if channel == "" || email == "" {
		fmt.Println("Usage: titleboost -channel <name-or-@handle> -email <address> [-config <path>]")
		fmt.Println("\nExample:")
		fmt.Println("  titleboost -channel @mkbhd -email me@example.com")
		return 1
	}

	outcome := make(chan domain.Event, 1)
	notify := func(_ context.Context, ev domain.Event) error {
		select {
		case outcome <- ev:
		default:
		}
		return nil
	}
	bus.Subscribe(domain.TopicSent, notify)
	for _, topic := range domain.FailureTopics {
		bus.Subscribe(topic, notify)
	}

	jobID, err := pipeline.Submit(ctx, channel, email)
	if err != nil {
		logger.Printf("Job failed: %v", err)
		return 1
	}

	var ev domain.Event
	select {
	case ev = <-outcome:
	case <-sigChan:
		logger.Println("Received interrupt signal, cancelling...")
	}
	bus.Shutdown(timeout)

	job, err := store.Get(context.Background(), jobID)
	if err != nil {
		logger.Printf("Failed to read job %s: %v", jobID, err)
		return 1
	}

	fmt.Println("\n=== Job Summary ===")
	fmt.Printf("Job ID:       %s\n", job.JobID)
	fmt.Printf("Channel:      %s (%s)\n", job.ChannelName, job.ChannelID)
	fmt.Printf("Status:       %s\n", job.Status)
	fmt.Printf("Videos:       %d\n", len(job.Videos))
	for i, s := range job.Suggestions {
		fmt.Printf("  %d. %s\n     -> %s\n", i+1, s.OriginalTitle, s.ImprovedTitle)
	}
	if job.Error != "" {
		fmt.Printf("Error:        %s\n", job.Error)
	}
	fmt.Printf("Updated At:   %s\n", job.UpdatedAt.Format("2006-01-02 15:04:05 UTC"))

	if ev == nil || ev.Topic() != domain.TopicSent {
		return 1
	}
	return 0
}
