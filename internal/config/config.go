package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is built once at process start and handed to the components that
// need it. Nothing reads the environment after Load returns.
type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// AMQP (optional; empty URL disables rate-change events)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Upstream rate providers
	DolarAPIURL     string
	CoinGeckoAPIURL string
	FetchTimeout    time.Duration

	// Daily-refresh worker
	RefreshInterval time.Duration
}

func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8080"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/fintrack.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "fintrack"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "rate_updates"),

		DolarAPIURL:     getEnv("DOLAR_API_URL", "https://dolarapi.com/v1/dolares"),
		CoinGeckoAPIURL: getEnv("COINGECKO_API_URL", "https://api.coingecko.com/api/v3/simple/price"),
		FetchTimeout:    getEnvDuration("RATE_FETCH_TIMEOUT", 10*time.Second),

		RefreshInterval: getEnvDuration("RATE_REFRESH_INTERVAL", time.Hour),
	}
}

// Validate returns every configuration problem at once.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errs = append(errs, "SQLite database path cannot be empty")
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	for name, raw := range map[string]string{
		"DOLAR_API_URL":     c.DolarAPIURL,
		"COINGECKO_API_URL": c.CoinGeckoAPIURL,
	} {
		if parsed, err := url.Parse(raw); err != nil || parsed.Scheme == "" || parsed.Host == "" {
			errs = append(errs, fmt.Sprintf("invalid %s '%s'", name, raw))
		}
	}

	if c.FetchTimeout < time.Second || c.FetchTimeout > time.Minute {
		errs = append(errs, fmt.Sprintf("invalid fetch timeout %v: must be between 1s and 1m", c.FetchTimeout))
	}
	if c.RefreshInterval < time.Minute || c.RefreshInterval > 24*time.Hour {
		errs = append(errs, fmt.Sprintf("invalid refresh interval %v: must be between 1m and 24h", c.RefreshInterval))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
