package cmd

import (
	"context"
	"testing"

	"lbclottery/config"
	"lbclottery/domain/events"
	"lbclottery/infrastructure"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerDefaults(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.TokenAddress = "0xABCDEF"

	defaults := LedgerDefaults(cfg)

	assert.Equal(t, int64(111111), defaults.Administrator)
	assert.Equal(t, int64(999999), defaults.CustodyAccount)
	assert.Equal(t, "0xabcdef", defaults.TokenAddress.String())
	assert.Equal(t, cfg.TicketPrice, defaults.TicketPrice)
	assert.Equal(t, cfg.MaxBuyLimit, defaults.MaxBuyLimit)
}

func TestConfigureLogging(t *testing.T) {
	original := log.GetLevel()
	t.Cleanup(func() { log.SetLevel(original) })

	ConfigureLogging("debug")
	assert.Equal(t, log.DebugLevel, log.GetLevel())

	ConfigureLogging("loud")
	assert.Equal(t, log.InfoLevel, log.GetLevel())
}

func TestNewEventPublisher_InProcessWithoutNATS(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.NATSServers = ""

	publisher, natsClient, err := newEventPublisher(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, natsClient)
	assert.IsType(t, &infrastructure.LocalEventBus{}, publisher)
	assert.NoError(t, publisher.Publish(events.RoundEndedEvent{GuildID: 1, Round: 1}))
}

func TestLogRoundEnded(t *testing.T) {
	assert.NoError(t, logRoundEnded(context.Background(), events.RoundEndedEvent{GuildID: 1, Round: 2}))
	assert.Error(t, logRoundEnded(context.Background(), events.LotteryPausedEvent{GuildID: 1}))
}
