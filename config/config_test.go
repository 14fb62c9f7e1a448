package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ruanmelo/cambiovivo/internal/domain"
)

func TestParseFullYaml(t *testing.T) {
	t.Setenv("MONGO_URI", "")

	raw := []byte(`
mongo_uri: mongodb://localhost:27017
database: Zoho
pair: USD_BRL
feed_base_url: http://feed.local
history_limit: 50
refresh_interval: 30s
idle_interval: 2m
timezone: America/Sao_Paulo
gate_enabled: false
reload_records: true
dashboard_addr: ":9090"
`)

	cfg, err := Parse(raw)
	require.NoError(t, err)

	require.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	require.Equal(t, domain.Pair{From: "USD", To: "BRL"}, cfg.Pair)
	require.Equal(t, "http://feed.local", cfg.FeedBaseURL)
	require.Equal(t, 50, cfg.HistoryLimit)
	require.Equal(t, 30*time.Second, cfg.RefreshInterval)
	require.Equal(t, 2*time.Minute, cfg.IdleInterval)
	require.False(t, cfg.GateEnabled)
	require.True(t, cfg.ReloadRecords)
	require.Equal(t, ":9090", cfg.DashboardAddr)
	require.Equal(t, "America/Sao_Paulo", cfg.Timezone.String())
}

func TestParseDefaults(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://env-wins:27017")

	cfg, err := Parse([]byte(`mongo_uri: mongodb://yaml:27017`))
	require.NoError(t, err)

	// environment overrides the yaml URI
	require.Equal(t, "mongodb://env-wins:27017", cfg.MongoURI)
	require.Equal(t, "Zoho", cfg.Database)
	require.Equal(t, domain.Pair{From: "USD", To: "BRL"}, cfg.Pair)
	require.Equal(t, 100, cfg.HistoryLimit)
	require.Equal(t, time.Minute, cfg.RefreshInterval)
	require.Equal(t, time.Minute, cfg.IdleInterval)
	require.True(t, cfg.GateEnabled)
	require.False(t, cfg.ReloadRecords)
	require.Equal(t, ":8080", cfg.DashboardAddr)
	require.Equal(t, "America/Sao_Paulo", cfg.Timezone.String())
}

func TestParseRequiresMongoURI(t *testing.T) {
	t.Setenv("MONGO_URI", "")

	_, err := Parse([]byte(`pair: USD_BRL`))
	require.Error(t, err)
}

func TestParseRejectsBadPair(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")

	_, err := Parse([]byte(`pair: USDBRL`))
	require.Error(t, err)
}

func TestParseRejectsBadTimezone(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")

	_, err := Parse([]byte(`timezone: Mars/Olympus`))
	require.Error(t, err)
}
