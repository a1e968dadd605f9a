package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Success loading from env", func(t *testing.T) {
		// t.Setenv sets the environment variable for the duration of the test
		// and automatically restores it afterwards.
		t.Setenv("DB_HOST", "localhost")
		t.Setenv("DB_USER", "testuser")
		t.Setenv("DB_PASSWORD", "testpass")
		t.Setenv("DB_NAME", "testdb")
		t.Setenv("DB_PORT", "5432")
		t.Setenv("APP_PORT", "8080")
		t.Setenv("APP_ENV", "test")
		t.Setenv("REDIS_ADDR", "localhost:6379")
		t.Setenv("REDIS_DB", "2")
		t.Setenv("CHECKOUT_TOKEN_SECRET", "secret")
		t.Setenv("PAGSEGURO_API_URL", "https://sandbox.pagseguro.test/v2/checkout")
		t.Setenv("PAGSEGURO_API_REDIRECT_URL", "https://sandbox.pagseguro.test/v2/checkout/payment.html")
		t.Setenv("PAGSEGURO_ACCOUNT_EMAIL", "merchant@example.com")
		t.Setenv("PAGSEGURO_ACCOUNT_TOKEN", "tok")
		t.Setenv("PAGSEGURO_OPEN_IN_OTHER_PAGE", "true")
		t.Setenv("PAGSEGURO_AUTHORIZE_ENABLED", "false")
		t.Setenv("PAGSEGURO_TIMEOUT", "5s")
		t.Setenv("PENDING_TTL", "1m")
		t.Setenv("ADMIN_API_SECRET", "admin")
		t.Setenv("RATE_LIMIT_STRICT_RPS", "0.5")
		t.Setenv("RATE_LIMIT_STRICT_BURST", "1")
		t.Setenv("RATE_LIMIT_GENERAL_RPS", "50")
		t.Setenv("RATE_LIMIT_GENERAL_BURST", "100")
		t.Setenv("RATE_LIMIT_IDLE_TTL", "10m")

		cfg := LoadConfig()

		assert.NotNil(t, cfg)
		assert.Equal(t, "localhost", cfg.DBHost)
		assert.Equal(t, "testuser", cfg.DBUser)
		assert.Equal(t, "testpass", cfg.DBPassword)
		assert.Equal(t, "testdb", cfg.DBName)
		assert.Equal(t, "5432", cfg.DBPort)
		assert.Equal(t, "8080", cfg.AppPort)
		assert.Equal(t, "test", cfg.AppEnv)
		assert.Equal(t, "localhost:6379", cfg.RedisAddr)
		assert.Equal(t, 2, cfg.RedisDB)
		assert.Equal(t, "secret", cfg.CheckoutTokenSecret)
		assert.Equal(t, "admin", cfg.AdminAPISecret)
		assert.Equal(t, RateLimitConfig{
			StrictRPS:    0.5,
			StrictBurst:  1,
			GeneralRPS:   50,
			GeneralBurst: 100,
			IdleTTL:      10 * time.Minute,
		}, cfg.RateLimit)

		ps := cfg.PagSeguro
		assert.Equal(t, "https://sandbox.pagseguro.test/v2/checkout", ps.APIURL)
		assert.Equal(t, "https://sandbox.pagseguro.test/v2/checkout/payment.html", ps.RedirectURL)
		assert.Equal(t, "merchant@example.com", ps.AccountEmail)
		assert.Equal(t, "tok", ps.AccountToken)
		assert.True(t, ps.OpenInOtherPage)
		assert.False(t, ps.AuthorizeEnabled)
		assert.Equal(t, 5*time.Second, ps.Timeout)
		assert.Equal(t, time.Minute, ps.PendingTTL)
	})

	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("DB_HOST", "localhost")
		t.Setenv("APP_PORT", "")
		t.Setenv("PAGSEGURO_API_URL", "")
		t.Setenv("PAGSEGURO_AUTHORIZE_ENABLED", "")
		t.Setenv("PAGSEGURO_OPEN_IN_OTHER_PAGE", "")
		t.Setenv("PAGSEGURO_TIMEOUT", "not-a-duration")
		t.Setenv("PENDING_TTL", "")
		t.Setenv("ADMIN_API_SECRET", "")
		t.Setenv("RATE_LIMIT_STRICT_RPS", "-1")
		t.Setenv("RATE_LIMIT_GENERAL_BURST", "")

		cfg := LoadConfig()

		assert.Equal(t, "8080", cfg.AppPort)
		assert.Equal(t, defaultAPIURL, cfg.PagSeguro.APIURL)
		assert.Equal(t, defaultSuccessURL, cfg.PagSeguro.SuccessURL)
		assert.True(t, cfg.PagSeguro.AuthorizeEnabled)
		assert.False(t, cfg.PagSeguro.OpenInOtherPage)
		assert.Equal(t, 30*time.Second, cfg.PagSeguro.Timeout)
		assert.Equal(t, defaultPendingTTL, cfg.PagSeguro.PendingTTL)
		assert.Empty(t, cfg.AdminAPISecret)
		assert.Equal(t, float64(defaultStrictRPS), cfg.RateLimit.StrictRPS)
		assert.Equal(t, defaultGeneralBurst, cfg.RateLimit.GeneralBurst)
	})
}
