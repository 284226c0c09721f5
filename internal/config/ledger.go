package config

import (
	"os"
	"strconv"
	"time"
)

type LedgerConfig struct {
	// ApplyMaxRetries bounds internal retries after a version conflict
	// before the conflict is surfaced to the caller.
	ApplyMaxRetries int
	RetryBackoff    time.Duration
	ListPageSize    int
	MaxListPageSize int
	// SettlementQueue is the redis list pending disbursements are pushed to
	// after commit.
	SettlementQueue string
	BalanceCacheTTL time.Duration
}

func LoadLedgerConfig() *LedgerConfig {
	return &LedgerConfig{
		ApplyMaxRetries: getEnvAsInt("LEDGER_APPLY_MAX_RETRIES", 3),
		RetryBackoff:    getEnvAsDuration("LEDGER_RETRY_BACKOFF", 25*time.Millisecond),
		ListPageSize:    getEnvAsInt("LEDGER_LIST_PAGE_SIZE", 50),
		MaxListPageSize: getEnvAsInt("LEDGER_MAX_LIST_PAGE_SIZE", 200),
		SettlementQueue: getEnv("LEDGER_SETTLEMENT_QUEUE", "disbursement_queue"),
		BalanceCacheTTL: getEnvAsDuration("LEDGER_BALANCE_CACHE_TTL", 30*time.Second),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}
