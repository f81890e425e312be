package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
database:
  host: "localhost"
  port: 5432
  username: "u"
  password: "p"
  name: "db"
kafka:
  host: "localhost"
  port: 9092
  failure_topic_name: "reconcile.failure"
  forwarded_topic_name: "tracking.forwarded"
redis:
  host: "localhost"
  port: 6379
relay:
  http_addr: ":8082"
  pass_interval_seconds: 60
  carrier_base_url: "http://pegas:9100"
  carrier_access_key: "00000000-0000-0000-0000-000000000000"
  carrier_throttle_seconds: 2
  partner_base_url: "http://partner:9200"
  message_settle_seconds: 1
  dispatch_retry_seconds: 60
  generate_test_statuses: true
`), 0o600))

	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	require.Equal(t, "u", cfg.Database.Username)
	require.Equal(t, "reconcile.failure", cfg.Kafka.FailureTopicName)
	require.Equal(t, 6379, cfg.Redis.Port)
	require.Equal(t, ":8082", cfg.Relay.HTTPAddr)
	require.Equal(t, 60, cfg.Relay.PassIntervalSeconds)
	require.Equal(t, "http://pegas:9100", cfg.Relay.CarrierBaseURL)
	require.True(t, cfg.Relay.GenerateTestStatuses)
}

func TestLoadConfig_missingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
