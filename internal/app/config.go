package app

import (
	"time"

	"github.com/propflow/propflow-backend/internal/platform/envutil"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

// Config carries the process-level knobs. Service-level settings (JWT,
// billing grace, AI quotas) are read by the services themselves from env.
type Config struct {
	Port        string
	Environment string
	Version     string

	RateLimitRPS   int
	RateLimitBurst int

	// Cron specs; empty disables the schedule. The admin endpoints stay
	// the canonical triggers either way.
	BillingSweepCron string
	WeeklyDigestCron string
	TokenPurgeCron   string

	MetricsAddr string
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:        envutil.String("PORT", "8080"),
		Environment: envutil.String("APP_ENV", "development"),
		Version:     envutil.String("APP_VERSION", "dev"),

		RateLimitRPS:   envutil.Int("RATE_LIMIT_RPS", 25),
		RateLimitBurst: envutil.Int("RATE_LIMIT_BURST", 50),

		BillingSweepCron: envutil.String("BILLING_SWEEP_CRON", ""),
		WeeklyDigestCron: envutil.String("WEEKLY_DIGEST_CRON", ""),
		TokenPurgeCron:   envutil.String("TOKEN_PURGE_CRON", ""),

		MetricsAddr: envutil.String("METRICS_ADDR", ""),
	}
	log.Info("Loaded config",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"billing_sweep_cron", cfg.BillingSweepCron != "",
		"weekly_digest_cron", cfg.WeeklyDigestCron != "",
	)
	return cfg
}

// HTTPAddr is the listen address for the API server.
func (c Config) HTTPAddr() string {
	return ":" + c.Port
}

// otelShutdownTimeout bounds how long Close waits for trace flushing.
const otelShutdownTimeout = 5 * time.Second
