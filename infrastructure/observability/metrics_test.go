package observability

import (
	"context"
	"testing"

	"lbclottery/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestProvider(t *testing.T) (*MetricsProvider, *sdkmetric.ManualReader) {
	t.Helper()
	cfg := config.NewTestConfig()
	cfg.OTelEnabled = true

	reader := sdkmetric.NewManualReader()
	mp := NewMetricsProvider(cfg)
	require.NoError(t, mp.initializeWithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp, reader
}

func collectSums(t *testing.T, reader *sdkmetric.ManualReader) map[string][]metricdata.DataPoint[int64] {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	sums := make(map[string][]metricdata.DataPoint[int64])
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				sums[m.Name] = sum.DataPoints
			}
		}
	}
	return sums
}

func TestMetricsProvider_RecordsLedgerActivity(t *testing.T) {
	t.Parallel()
	mp, reader := newTestProvider(t)

	mp.RecordLedgerOperation("buy_tickets", "success")
	mp.RecordLedgerOperation("buy_tickets", "success")
	mp.RecordLedgerOperation("pause", "rejected")
	mp.RecordTicketsPurchased(3, 150000)
	mp.RecordTicketsPurchased(2, 100000)
	mp.RecordFundsWithdrawn(250000)
	mp.RecordNATSMessagePublished("tickets_purchased")

	sums := collectSums(t, reader)

	require.Len(t, sums[TicketsPurchasedTotal], 1)
	assert.Equal(t, int64(5), sums[TicketsPurchasedTotal][0].Value)
	assert.Equal(t, int64(250000), sums[TicketSalesAmount][0].Value)
	assert.Equal(t, int64(250000), sums[FundsWithdrawnAmount][0].Value)
	assert.Equal(t, int64(1), sums[NATSMessagesPublishedTotal][0].Value)

	byOutcome := map[string]int64{}
	for _, dp := range sums[LedgerOperationsTotal] {
		op, _ := dp.Attributes.Value(attribute.Key(LabelOperation))
		outcome, _ := dp.Attributes.Value(attribute.Key(LabelOutcome))
		byOutcome[op.AsString()+"/"+outcome.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"buy_tickets/success": 2, "pause/rejected": 1}, byOutcome)
}

func TestMetricsProvider_DisabledIsNoop(t *testing.T) {
	t.Parallel()

	cfg := config.NewTestConfig()
	mp := NewMetricsProvider(cfg)
	require.NoError(t, mp.Initialize(context.Background()))
	assert.False(t, mp.isEnabled())

	assert.NotPanics(t, func() {
		mp.RecordLedgerOperation("buy_tickets", "success")
		mp.RecordTicketsPurchased(1, 1)
		mp.RecordFundsWithdrawn(1)
	})

	var nilProvider *MetricsProvider
	assert.NotPanics(t, func() { nilProvider.RecordNATSMessagePublished("x") })
}

func TestMetricsProvider_ExporterNoneIsNoop(t *testing.T) {
	t.Parallel()

	cfg := config.NewTestConfig()
	cfg.OTelEnabled = true
	cfg.OTelExporterType = "none"

	mp := NewMetricsProvider(cfg)
	require.NoError(t, mp.Initialize(context.Background()))
	assert.False(t, mp.isEnabled())
	assert.NotPanics(t, func() { mp.RecordFundsWithdrawn(10) })
}

func TestMetricsProvider_UnknownExporter(t *testing.T) {
	t.Parallel()

	cfg := config.NewTestConfig()
	cfg.OTelEnabled = true
	cfg.OTelExporterType = "carrier-pigeon"

	err := NewMetricsProvider(cfg).Initialize(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown exporter type")
}
