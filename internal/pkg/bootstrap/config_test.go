package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "inventory-service", cfg.App.ServiceName)
	assert.Equal(t, 8082, cfg.App.Port)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Infra.Kafka.Brokers)
	assert.Equal(t, "inventory-service-group", cfg.Infra.Kafka.GroupID)
	assert.Equal(t, "order.created", cfg.Infra.Kafka.CreatedTopic)
	assert.Equal(t, "order.updated", cfg.Infra.Kafka.UpdatedTopic)
	assert.Equal(t, "order.cancelled", cfg.Infra.Kafka.CancelledTopic)
	assert.Equal(t, 3, cfg.Consumer.MaxRetryAttempts)
	assert.Equal(t, 2*time.Second, cfg.RetryBackoff())
	assert.Equal(t, 30*time.Second, cfg.AttemptTimeout())
	assert.Equal(t, "local", cfg.Inventory.LockMode)
}

func TestLoadConfig_YamlFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
app:
  port: 9090
infra:
  kafka:
    brokers: ["kafka-1:9092", "kafka-2:9092"]
    groupId: "inventory-test-group"
consumer:
  workers: 5
  retryBackoffMs: 500
inventory:
  lockMode: "zk"
  reorderRule: "available < 5"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Infra.Kafka.Brokers)
	assert.Equal(t, "inventory-test-group", cfg.Infra.Kafka.GroupID)
	assert.Equal(t, 5, cfg.Consumer.Workers)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryBackoff())
	assert.Equal(t, "zk", cfg.Inventory.LockMode)
	assert.Equal(t, "available < 5", cfg.Inventory.ReorderRule)

	// 文件里没写的字段保持默认值
	assert.Equal(t, "order.created", cfg.Infra.Kafka.CreatedTopic)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8082, cfg.App.Port)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker-a:9092,broker-b:9092")
	t.Setenv("INVENTORY_LOCK_MODE", "zk")
	t.Setenv("RETRY_MAX_ATTEMPTS", "7")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, []string{"broker-a:9092", "broker-b:9092"}, cfg.Infra.Kafka.Brokers)
	assert.Equal(t, "zk", cfg.Inventory.LockMode)
	assert.Equal(t, 7, cfg.Consumer.MaxRetryAttempts)
}

func TestGetCurrentConfig_ReflectsLastLoad(t *testing.T) {
	t.Setenv("KAFKA_GROUP_ID", "another-group")
	_, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "another-group", GetCurrentConfig().Infra.Kafka.GroupID)
}
