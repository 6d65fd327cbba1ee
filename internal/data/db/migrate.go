package db

import (
	"fmt"

	types "github.com/propflow/propflow-backend/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(

		// =========================
		// Tenancy + auth
		// =========================
		&types.Organization{},
		&types.User{},
		&types.UserToken{},

		// =========================
		// CRM intake
		// =========================
		&types.Lead{},
		&types.ArtisanProfile{},

		// =========================
		// RFQ -> quotation -> work order
		// =========================
		&types.RFQ{},
		&types.Quotation{},
		&types.QuotationItem{},
		&types.WorkOrder{},

		// =========================
		// Projects + financial tracking
		// =========================
		&types.Project{},
		&types.Milestone{},
		&types.WeeklyBudgetUpdate{},
		&types.Expense{},
		&types.ChangeOrder{},
		&types.ProjectRisk{},
		&types.QualityCheckpoint{},

		// =========================
		// Invoicing (two tables, one number namespace)
		// =========================
		&types.ContractorInvoice{},
		&types.PropertyManagerInvoice{},

		// =========================
		// Payments
		// =========================
		&types.PaymentRequest{},
		&types.Payslip{},

		// =========================
		// Chat
		// =========================
		&types.Conversation{},
		&types.ConversationParticipant{},
		&types.Message{},

		// =========================
		// Notifications
		// =========================
		&types.Notification{},

		// =========================
		// Subscription billing
		// =========================
		&types.Subscription{},

		// =========================
		// AI assist audit trail
		// =========================
		&types.AICallLog{},

		// =========================
		// Generated documents
		// =========================
		&types.ReportDocument{},
	)
}

func EnsureWorkflowIndexes(db *gorm.DB) error {
	// uuid-ossp is already enabled in NewPostgresService, but safe to re-run
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return fmt.Errorf("enable uuid-ossp: %w", err)
	}

	// Lead pipeline listing per organization.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_lead_org_status_created
		ON lead (org_id, status, created_at DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_lead_org_status_created: %w", err)
	}

	// Quotation browsing per RFQ.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_quotation_rfq_status
		ON quotation (rfq_id, status);
	`).Error; err != nil {
		return fmt.Errorf("create idx_quotation_rfq_status: %w", err)
	}

	// Work order board per organization.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_work_order_org_status_created
		ON work_order (org_id, status, created_at DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_work_order_org_status_created: %w", err)
	}

	// Milestone cost recomputation sums every update for one milestone;
	// week_start keeps report ordering on the same scan.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_weekly_budget_update_milestone_week
		ON weekly_budget_update (milestone_id, week_start);
	`).Error; err != nil {
		return fmt.Errorf("create idx_weekly_budget_update_milestone_week: %w", err)
	}

	// Expense history per project.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_expense_project_created
		ON expense (project_id, created_at DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_expense_project_created: %w", err)
	}

	// Invoice listing per organization, both tables.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_contractor_invoice_org_status_created
		ON contractor_invoice (org_id, status, created_at DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_contractor_invoice_org_status_created: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_pm_invoice_org_status_created
		ON property_manager_invoice (org_id, status, created_at DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_pm_invoice_org_status_created: %w", err)
	}

	// Approval queue scans.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_payment_request_org_status_created
		ON payment_request (org_id, status, created_at DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_payment_request_org_status_created: %w", err)
	}

	return nil
}

func EnsureChatIndexes(db *gorm.DB) error {
	// Fast message pagination per conversation.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_message_conversation_sent
		ON message (conversation_id, sent_at DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_message_conversation_sent: %w", err)
	}

	// Lexical search over message bodies.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_message_fts
		ON message
		USING GIN (to_tsvector('english', body))
		WHERE deleted_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_message_fts: %w", err)
	}

	// Fast conversation listing per organization.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_conversation_org_last_message
		ON conversation (org_id, last_message_at DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_conversation_org_last_message: %w", err)
	}

	return nil
}

func EnsureNotificationIndexes(db *gorm.DB) error {
	// Unread feed and badge counts.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_notification_user_unread
		ON notification (user_id, created_at DESC)
		WHERE read_at IS NULL AND deleted_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_notification_user_unread: %w", err)
	}

	// Full feed pagination per user.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_notification_user_created
		ON notification (user_id, created_at DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_notification_user_created: %w", err)
	}

	return nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureWorkflowIndexes(s.db); err != nil {
		s.log.Error("Workflow index migration failed", "error", err)
		return err
	}
	if err := EnsureChatIndexes(s.db); err != nil {
		s.log.Error("Chat index migration failed", "error", err)
		return err
	}
	if err := EnsureNotificationIndexes(s.db); err != nil {
		s.log.Error("Notification index migration failed", "error", err)
		return err
	}

	return nil
}
