package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-testing-purposes"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment.Name)
	assert.False(t, cfg.Environment.IsProduction())
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTTL)
	assert.False(t, cfg.Admin.Enabled())
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 2*time.Second, cfg.Outbox.PollInterval)
	assert.Equal(t, 100, cfg.Outbox.BatchSize)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("OUTBOX_POLL_INTERVAL", "500ms")
	t.Setenv("PAYMENT_BANK_NAME", "Test Bank")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTP.Port)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 500*time.Millisecond, cfg.Outbox.PollInterval)
	assert.Equal(t, "Test Bank", cfg.Payment.BankName)
}

func TestLoad_ShortJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "too-short")

	_, err := Load()
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidate_ProductionRequiresWebhookSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("ENVIRONMENT", "production")

	_, err := Load()
	assert.ErrorIs(t, err, ErrInvalidConfig)

	t.Setenv("PAYMENT_WEBHOOK_SECRET", "whsec")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Environment.IsProduction())
}

func TestValidate_BatchSize(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("OUTBOX_BATCH_SIZE", "0")

	_, err := Load()
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidate_RefreshShorterThanAccess(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("JWT_ACCESS_TTL", "2h")
	t.Setenv("JWT_REFRESH_TTL", "1h")

	_, err := Load()
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidate_AdminBootstrap(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("ADMIN_EMAIL", "root@example.com")

	_, err := Load()
	assert.ErrorIs(t, err, ErrInvalidConfig)

	t.Setenv("ADMIN_PASSWORD", "correct-horse")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Admin.Enabled())
	assert.Equal(t, "Administrator", cfg.Admin.Name)
}

func TestLoadNotifier_NoJWTRequired(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("KAFKA_GROUP_ID", "mailer")

	cfg, err := LoadNotifier()
	require.NoError(t, err)
	assert.Equal(t, "mailer", cfg.Kafka.GroupID)
	assert.Equal(t, "localhost", cfg.SMTP.Host)
}
