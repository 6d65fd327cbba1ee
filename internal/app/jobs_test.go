package app

import (
	"testing"

	"github.com/propflow/propflow-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func TestWireJobsDisabledWithoutSpecs(t *testing.T) {
	jobs, err := wireJobs(testLogger(t), Config{}, Services{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if jobs != nil {
		t.Fatal("expected nil Jobs when no cron spec is set")
	}
	// Nil Jobs must be safe to drive.
	jobs.Start()
	jobs.Stop()
}

func TestWireJobsRejectsInvalidSpec(t *testing.T) {
	_, err := wireJobs(testLogger(t), Config{BillingSweepCron: "not a cron spec"}, Services{})
	if err == nil {
		t.Fatal("expected error for invalid BILLING_SWEEP_CRON")
	}
}

func TestWireJobsAcceptsStandardSpecs(t *testing.T) {
	cfg := Config{
		BillingSweepCron: "0 3 * * *",
		WeeklyDigestCron: "0 7 * * MON",
		TokenPurgeCron:   "30 2 * * *",
	}
	jobs, err := wireJobs(testLogger(t), cfg, Services{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if jobs == nil {
		t.Fatal("expected Jobs when specs are set")
	}
	jobs.Start()
	jobs.Stop()
}
