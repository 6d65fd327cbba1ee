package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/propflow/propflow-backend/internal/observability"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

// Jobs runs the optional in-process schedules. Every job calls the same
// service method its admin endpoint calls; the endpoints stay the
// canonical triggers and all schedules are off unless their cron spec
// is set.
type Jobs struct {
	log  *logger.Logger
	cron *cron.Cron
}

func wireJobs(log *logger.Logger, cfg Config, serviceset Services) (*Jobs, error) {
	if cfg.BillingSweepCron == "" && cfg.WeeklyDigestCron == "" && cfg.TokenPurgeCron == "" {
		return nil, nil
	}
	jobLog := log.With("component", "jobs")
	c := cron.New()

	if cfg.BillingSweepCron != "" {
		_, err := c.AddFunc(cfg.BillingSweepCron, func() {
			runJob(jobLog, "billing_renewal_sweep", func(ctx context.Context) error {
				res, err := serviceset.Subscription.RunRenewalSweep(ctx, time.Now().UTC(), 0)
				if err != nil {
					return err
				}
				jobLog.Info("Renewal sweep finished",
					"scanned", res.Scanned,
					"marked_past_due", res.MarkedPastDue,
					"cancelled", res.Cancelled,
					"expired", res.Expired,
				)
				return nil
			})
		})
		if err != nil {
			return nil, fmt.Errorf("invalid BILLING_SWEEP_CRON: %w", err)
		}
	}

	if cfg.WeeklyDigestCron != "" {
		_, err := c.AddFunc(cfg.WeeklyDigestCron, func() {
			runJob(jobLog, "weekly_report_digest", func(ctx context.Context) error {
				res, err := serviceset.Report.RunWeeklyDigest(ctx)
				if err != nil {
					return err
				}
				jobLog.Info("Weekly digest finished",
					"projects_reported", res.ProjectsReported,
					"emails_sent", res.EmailsSent,
				)
				return nil
			})
		})
		if err != nil {
			return nil, fmt.Errorf("invalid WEEKLY_DIGEST_CRON: %w", err)
		}
	}

	if cfg.TokenPurgeCron != "" {
		_, err := c.AddFunc(cfg.TokenPurgeCron, func() {
			runJob(jobLog, "token_purge", func(ctx context.Context) error {
				return serviceset.Auth.PurgeExpiredTokens(ctx)
			})
		})
		if err != nil {
			return nil, fmt.Errorf("invalid TOKEN_PURGE_CRON: %w", err)
		}
	}

	return &Jobs{log: jobLog, cron: c}, nil
}

func runJob(log *logger.Logger, name string, fn func(ctx context.Context) error) {
	start := time.Now()
	err := fn(context.Background())
	status := "success"
	if err != nil {
		status = "error"
		log.Error("Scheduled job failed", "job", name, "error", err)
	}
	observability.Current().ObserveJobRun(name, status, time.Since(start))
}

func (j *Jobs) Start() {
	if j == nil {
		return
	}
	j.log.Info("Starting scheduled jobs")
	j.cron.Start()
}

func (j *Jobs) Stop() {
	if j == nil {
		return
	}
	j.cron.Stop()
}
