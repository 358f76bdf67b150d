package cmd

import (
	"context"
	"fmt"
	"time"

	"lbclottery/application"
	"lbclottery/bot"
	"lbclottery/config"
	"lbclottery/database"
	"lbclottery/domain/events"
	"lbclottery/domain/interfaces"
	"lbclottery/domain/services"
	"lbclottery/httpapi"
	"lbclottery/infrastructure"
	"lbclottery/infrastructure/observability"

	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()
	ConfigureLogging(cfg.LogLevel)

	log.Info("Starting lbclottery bot...")

	// Initialize metrics
	if err := observability.InitializeGlobalMetrics(ctx, cfg); err != nil {
		log.Warnf("Failed to initialize metrics, continuing without them: %v", err)
	}
	var metrics application.LedgerMetrics
	var recorder infrastructure.PublishRecorder
	if mp := observability.GetMetrics(); mp != nil {
		metrics = mp
		recorder = mp
	}

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	// Initialize event publishing
	eventPublisher, natsClient, err := newEventPublisher(ctx, cfg, recorder)
	if err != nil {
		return err
	}
	if natsClient != nil {
		defer func() {
			if err := natsClient.Close(); err != nil {
				log.Errorf("Error closing NATS connection: %v", err)
			}
		}()
	}

	uowFactory := infrastructure.NewUnitOfWorkFactory(db, eventPublisher)
	ledgerHandler := application.NewLedgerHandler(uowFactory, LedgerDefaults(cfg), services.SystemClock{}, metrics)

	// Initialize Discord bot
	log.Info("Initializing Discord bot...")
	discordBot, err := bot.New(bot.Config{
		Token:            cfg.DiscordToken,
		GuildID:          cfg.GuildID,
		LotteryChannelID: cfg.LotteryChannelID,
	}, ledgerHandler)
	if err != nil {
		return fmt.Errorf("failed to initialize Discord bot: %w", err)
	}
	log.Info("Discord bot initialized successfully")

	// Start background workers
	roundWatcher := application.NewRoundWatcherWorker(uowFactory, discordBot, services.SystemClock{})
	stopRoundWatcher := roundWatcher.Start(ctx)

	// Start status API
	checks := map[string]httpapi.HealthCheck{
		"database": db.HealthCheck,
	}
	if natsClient != nil {
		checks["nats"] = func(ctx context.Context) error {
			if !natsClient.IsConnected() {
				return fmt.Errorf("not connected")
			}
			return nil
		}
	}
	statusAPI := httpapi.NewServer(cfg.HTTPAddr, ledgerHandler, checks)
	statusAPI.Start()

	log.Infof("Bot is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	log.Info("Shutting down bot...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := statusAPI.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Error stopping status API: %v", err)
	}

	stopRoundWatcher()
	log.Info("Background workers stopped")

	if err := discordBot.Close(); err != nil {
		log.Errorf("Error closing Discord bot: %v", err)
	}

	if err := observability.ShutdownGlobalMetrics(shutdownCtx); err != nil {
		log.Errorf("Error shutting down metrics: %v", err)
	}

	log.Info("Shutdown completed")
	return nil
}

// ConfigureLogging applies the configured logrus level, falling back to info
func ConfigureLogging(level string) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	parsed, err := log.ParseLevel(level)
	if err != nil {
		log.Warnf("Unknown log level %q, using info", level)
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)
}

// LedgerDefaults builds the parameters new guild ledgers are created with
func LedgerDefaults(cfg *config.Config) application.LedgerDefaults {
	return application.LedgerDefaults{
		Administrator:  cfg.AdministratorID,
		CustodyAccount: cfg.LedgerAccountID,
		TokenAddress:   cfg.LedgerTokenAddress(),
		TicketPrice:    cfg.TicketPrice,
		MaxBuyLimit:    cfg.MaxBuyLimit,
	}
}

// newEventPublisher connects to NATS when configured, otherwise events stay in-process
func newEventPublisher(ctx context.Context, cfg *config.Config, recorder infrastructure.PublishRecorder) (interfaces.EventPublisher, *infrastructure.NATSClient, error) {
	if cfg.NATSServers == "" {
		log.Warn("NATS_SERVERS is empty, ledger events stay in-process")
		bus := infrastructure.NewLocalEventBus()
		bus.Subscribe(events.EventTypeRoundEnded, logRoundEnded)
		return bus, nil, nil
	}

	log.Info("Connecting to NATS...")
	natsClient := infrastructure.NewNATSClient(cfg.NATSServers)
	if err := natsClient.Connect(ctx); err != nil {
		return nil, nil, err
	}

	publisher := infrastructure.NewNATSEventPublisher(natsClient, infrastructure.NewEventSubjectMapper(), recorder)
	if err := publisher.EnsureLedgerEventStream(); err != nil {
		natsClient.Close()
		return nil, nil, fmt.Errorf("failed to ensure ledger event stream: %w", err)
	}
	publisher.RegisterLocalHandler(events.EventTypeRoundEnded, logRoundEnded)

	return publisher, natsClient, nil
}

func logRoundEnded(ctx context.Context, event events.Event) error {
	ended, ok := event.(events.RoundEndedEvent)
	if !ok {
		return fmt.Errorf("unexpected event %T", event)
	}
	log.WithFields(log.Fields{
		"guild_id":     ended.GuildID,
		"round":        ended.Round,
		"tickets_sold": ended.TicketsSold,
		"prize_pool":   ended.PrizePool,
	}).Debug("Round ended event dispatched")
	return nil
}
