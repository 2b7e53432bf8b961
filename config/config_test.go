package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SECRET_KEY", "  s3cret ")
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("AI_TIMEOUT", "")

	cfg := LoadConfig()

	assert.Equal(t, "s3cret", cfg.SecretKey)
	assert.Equal(t, 5001, cfg.ServerPort)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.AI.Model)
	assert.InDelta(t, 0.7, cfg.AI.Temperature, 0.0001)
	assert.Empty(t, cfg.AI.APIKey)
	assert.Equal(t, 45*time.Second, cfg.AI.Timeout)
	assert.Equal(t, "none", cfg.MQ.Backend)
	assert.Equal(t, "admin", cfg.Admin.Username)
	assert.Empty(t, cfg.Admin.Password)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_USE_SSL", "true")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/edu")
	t.Setenv("AI_TEMPERATURE", "0.2")
	t.Setenv("AI_TIMEOUT", "20s")
	t.Setenv("MQ_BACKEND", "RabbitMQ")
	t.Setenv("RABBITMQ_PREFETCH", "not-a-number")
	t.Setenv("STORE_BACKEND", "Memory")

	cfg := LoadConfig()

	assert.Equal(t, 9090, cfg.ServerPort)
	assert.True(t, cfg.Database.UseSSL)
	assert.Equal(t, "postgres://u:p@db:5432/edu", cfg.Database.URL)
	assert.InDelta(t, 0.2, cfg.AI.Temperature, 0.0001)
	assert.Equal(t, 20*time.Second, cfg.AI.Timeout)
	assert.Equal(t, "rabbitmq", cfg.MQ.Backend)
	assert.Equal(t, 10, cfg.MQ.RabbitMQ.PrefetchCount)
	assert.Equal(t, "memory", cfg.StoreBackend)
}
