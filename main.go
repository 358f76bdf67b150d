package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"lbclottery/application"
	"lbclottery/cmd"
	"lbclottery/config"
	"lbclottery/database"
	"lbclottery/domain/services"
	"lbclottery/infrastructure"

	log "github.com/sirupsen/logrus"
)

func main() {
	// Check for migration subcommands
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := handleMigrationCommand(); err != nil {
			log.Fatal("Migration error: ", err)
		}
		return
	}

	// Credit test tokens to an account
	if len(os.Args) > 1 && os.Args[1] == "mint" {
		if err := handleMint(); err != nil {
			log.Fatal("Mint error: ", err)
		}
		return
	}

	// Normal bot operation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	if err := cmd.Run(ctx); err != nil {
		log.Fatal("Application error: ", err)
	}
}

func handleMigrationCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: lbclottery migrate [up|down|status] [args...]")
	}

	command := os.Args[2]
	switch command {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := "1"
		if len(os.Args) > 3 {
			steps = os.Args[3]
		}
		return database.MigrateDown(steps)
	case "status":
		return database.MigrateStatus()
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}
}

func handleMint() error {
	if len(os.Args) < 5 {
		return fmt.Errorf("usage: lbclottery mint guild-id account amount")
	}
	guildID, err := strconv.ParseInt(os.Args[2], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid guild id: %w", err)
	}
	account, err := strconv.ParseInt(os.Args[3], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid account: %w", err)
	}
	amount, err := strconv.ParseInt(os.Args[4], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}

	ctx := context.Background()
	cfg := config.Get()
	cmd.ConfigureLogging(cfg.LogLevel)

	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Minting is an operator action, nothing listens for it
	uowFactory := infrastructure.NewUnitOfWorkFactory(db, infrastructure.NewNoopEventPublisher())
	handler := application.NewLedgerHandler(uowFactory, cmd.LedgerDefaults(cfg), services.SystemClock{}, nil)

	info, err := handler.Mint(ctx, guildID, account, amount)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"guild_id": guildID,
		"account":  account,
		"token":    info.Token,
		"balance":  info.Balance,
	}).Info("Minted tokens")
	return nil
}
