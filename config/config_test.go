package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"STORE_DRIVER", "SESSION_TTL", "CORS_ALLOWED_ORIGINS", "ELASTICSEARCH_ADDRS", "TRUST_PROXY", "API_RATE_LIMIT"} {
		t.Setenv(k, "")
	}
	c := Load()
	assert.Equal(t, "postgres", c.StoreDriver)
	assert.False(t, c.UseMemoryStore())
	assert.Equal(t, 24*time.Hour, c.SessionTTL)
	assert.Equal(t, []string{"http://localhost:3000"}, c.CORSOrigins())
	assert.Empty(t, c.ESAddrs())
	assert.False(t, c.TrustProxy)
	assert.Equal(t, 300, c.APIRateLimit)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("TRUST_PROXY", "true")
	t.Setenv("API_RATE_LIMIT", "lots")
	t.Setenv("DB_USER", "shelf")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_NAME", "books")
	t.Setenv("DB_SSLMODE", "require")

	c := Load()
	assert.True(t, c.UseMemoryStore())
	assert.Equal(t, 90*time.Minute, c.SessionTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.CORSOrigins())
	assert.True(t, c.TrustProxy)
	assert.Equal(t, 300, c.APIRateLimit, "unparsable values keep the default")
	assert.Equal(t, "postgres://shelf:pw@db:6543/books?sslmode=require", c.PostgresDSN())
}
