package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/propflow/propflow-backend/internal/data/repos"
	types "github.com/propflow/propflow-backend/internal/domain"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

type CreateCheckpointInput struct {
	ProjectID   uuid.UUID  `json:"project_id"`
	MilestoneID *uuid.UUID `json:"milestone_id,omitempty"`
	Name        string     `json:"name"`
	Notes       string     `json:"notes"`
}

type InspectCheckpointInput struct {
	Passed bool   `json:"passed"`
	Score  *int   `json:"score,omitempty"`
	Notes  string `json:"notes"`
}

// QualityService manages inspection checkpoints. A checkpoint is PENDING
// until someone inspects it; the pass rate feeds the health score.
type QualityService interface {
	Create(ctx context.Context, in CreateCheckpointInput) (*types.QualityCheckpoint, error)
	List(ctx context.Context, projectID uuid.UUID, status string) ([]*types.QualityCheckpoint, error)
	Inspect(ctx context.Context, checkpointID uuid.UUID, in InspectCheckpointInput) (*types.QualityCheckpoint, error)
}

type qualityService struct {
	log         *logger.Logger
	checkpoints repos.QualityRepo
	projects    repos.ProjectRepo
}

func NewQualityService(log *logger.Logger, checkpoints repos.QualityRepo, projects repos.ProjectRepo) QualityService {
	return &qualityService{log: log.With("service", "QualityService"), checkpoints: checkpoints, projects: projects}
}

func (s *qualityService) Create(ctx context.Context, in CreateCheckpointInput) (*types.QualityCheckpoint, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleAdmin, types.RolePropertyManager); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, validationErr("name is required")
	}
	if _, err := s.loadProject(ctx, rd.OrgID, in.ProjectID); err != nil {
		return nil, err
	}
	checkpoint := &types.QualityCheckpoint{
		ProjectID:   in.ProjectID,
		MilestoneID: in.MilestoneID,
		Name:        strings.TrimSpace(in.Name),
		Status:      types.CheckpointStatusPending,
		Notes:       in.Notes,
	}
	if _, err := s.checkpoints.Create(readCtx(ctx), []*types.QualityCheckpoint{checkpoint}); err != nil {
		return nil, err
	}
	return checkpoint, nil
}

func (s *qualityService) List(ctx context.Context, projectID uuid.UUID, status string) ([]*types.QualityCheckpoint, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if status != "" {
		switch status {
		case types.CheckpointStatusPending, types.CheckpointStatusPassed, types.CheckpointStatusFailed:
		default:
			return nil, validationErr(fmt.Sprintf("unknown checkpoint status: %s", status))
		}
	}
	if _, err := s.loadProject(ctx, rd.OrgID, projectID); err != nil {
		return nil, err
	}
	return s.checkpoints.ListByProject(readCtx(ctx), projectID, status)
}

// Inspect records the verdict. Re-inspection overwrites the previous
// result; the latest inspection wins.
func (s *qualityService) Inspect(ctx context.Context, checkpointID uuid.UUID, in InspectCheckpointInput) (*types.QualityCheckpoint, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleAdmin, types.RolePropertyManager); err != nil {
		return nil, err
	}
	if in.Score != nil && (*in.Score < 0 || *in.Score > 100) {
		return nil, validationErr("score must be between 0 and 100")
	}
	if _, err := s.load(ctx, rd.OrgID, checkpointID); err != nil {
		return nil, err
	}

	status := types.CheckpointStatusFailed
	if in.Passed {
		status = types.CheckpointStatusPassed
	}
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":       status,
		"inspected_by": rd.UserID,
		"inspected_at": now,
		"updated_at":   now,
	}
	if in.Score != nil {
		updates["score"] = *in.Score
	}
	if in.Notes != "" {
		updates["notes"] = in.Notes
	}
	if err := s.checkpoints.UpdateFields(readCtx(ctx), checkpointID, updates); err != nil {
		return nil, err
	}
	s.log.Info("checkpoint inspected", "checkpoint_id", checkpointID, "status", status, "by", rd.UserID)
	return s.load(ctx, rd.OrgID, checkpointID)
}

func (s *qualityService) load(ctx context.Context, orgID, checkpointID uuid.UUID) (*types.QualityCheckpoint, error) {
	rows, err := s.checkpoints.GetByIDs(readCtx(ctx), []uuid.UUID{checkpointID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, notFoundErr("checkpoint", checkpointID)
	}
	if _, err := s.loadProject(ctx, orgID, rows[0].ProjectID); err != nil {
		return nil, notFoundErr("checkpoint", checkpointID)
	}
	return rows[0], nil
}

func (s *qualityService) loadProject(ctx context.Context, orgID, projectID uuid.UUID) (*types.Project, error) {
	rows, err := s.projects.GetByIDs(readCtx(ctx), []uuid.UUID{projectID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0].OrgID != orgID {
		return nil, notFoundErr("project", projectID)
	}
	return rows[0], nil
}
