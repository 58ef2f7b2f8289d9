package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("ACCESS_TOKEN_DURATION", "")
	t.Setenv("MAX_UPLOAD_SIZE", "")

	cfg := LoadConfig()

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, time.Hour, cfg.AccessTokenDuration)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxUploadSize)
	assert.Equal(t, "posts", cfg.Redis.Channel)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_NAME", "feed_test")
	t.Setenv("MINIO_SECRET_KEY", "secret")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("JWT_SECRET_KEY", "jwt-secret")
	t.Setenv("ACCESS_TOKEN_DURATION", "15m")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg := LoadConfig()

	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "feed_test", cfg.DB.DbNAME)
	assert.Equal(t, "secret", cfg.MinIO.SecretKey)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, "jwt-secret", cfg.JWTSecretKey)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenDuration)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected time.Duration
	}{
		{name: "valid duration", value: "2h", expected: 2 * time.Hour},
		{name: "days are not supported", value: "7d", expected: time.Minute},
		{name: "negative duration", value: "-1h", expected: time.Minute},
		{name: "empty", value: "", expected: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseDuration(tt.value, time.Minute))
		})
	}
}

func TestParseMaxUploadSize(t *testing.T) {
	assert.Equal(t, int64(2048), parseMaxUploadSize("2048"))
	assert.Equal(t, int64(10*1024*1024), parseMaxUploadSize("abc"))
	assert.Equal(t, int64(10*1024*1024), parseMaxUploadSize("0"))
}
