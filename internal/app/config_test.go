package app

import "testing"

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("RATE_LIMIT_RPS", "")
	t.Setenv("BILLING_SWEEP_CRON", "")

	cfg := LoadConfig(testLogger(t))
	if got, want := cfg.HTTPAddr(), ":8080"; got != want {
		t.Fatalf("unexpected addr: got=%q want=%q", got, want)
	}
	if cfg.RateLimitRPS != 25 {
		t.Fatalf("unexpected rate limit: got=%d want=25", cfg.RateLimitRPS)
	}
	if cfg.BillingSweepCron != "" {
		t.Fatalf("expected billing sweep disabled by default, got %q", cfg.BillingSweepCron)
	}
}

func TestLoadConfigReadsEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("RATE_LIMIT_RPS", "5")
	t.Setenv("WEEKLY_DIGEST_CRON", "0 7 * * MON")

	cfg := LoadConfig(testLogger(t))
	if got, want := cfg.HTTPAddr(), ":9090"; got != want {
		t.Fatalf("unexpected addr: got=%q want=%q", got, want)
	}
	if cfg.RateLimitRPS != 5 {
		t.Fatalf("unexpected rate limit: got=%d want=5", cfg.RateLimitRPS)
	}
	if cfg.WeeklyDigestCron == "" {
		t.Fatal("expected weekly digest cron to be set")
	}
}
