package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/propflow/propflow-backend/internal/data/repos"
	types "github.com/propflow/propflow-backend/internal/domain"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

type UpsertArtisanProfileInput struct {
	UserID          uuid.UUID `json:"user_id"`
	Specialty       string    `json:"specialty"`
	DailyRate       float64   `json:"daily_rate"`
	YearsExperience int       `json:"years_experience"`
	Bio             string    `json:"bio"`
}

type RateArtisanInput struct {
	Rating        *float64 `json:"rating,omitempty"`
	JobsCompleted *int     `json:"jobs_completed,omitempty"`
}

// ArtisanService maintains the org's artisan directory. Profiles attach
// to ARTISAN users; rating and job counts feed payment review and AI
// ranking.
type ArtisanService interface {
	Upsert(ctx context.Context, in UpsertArtisanProfileInput) (*types.ArtisanProfile, error)
	Get(ctx context.Context, profileID uuid.UUID) (*types.ArtisanProfile, error)
	GetByUser(ctx context.Context, userID uuid.UUID) (*types.ArtisanProfile, error)
	List(ctx context.Context, specialty string, limit int) ([]*types.ArtisanProfile, error)
	Rate(ctx context.Context, profileID uuid.UUID, in RateArtisanInput) (*types.ArtisanProfile, error)
	Delete(ctx context.Context, profileID uuid.UUID) error
}

type artisanService struct {
	log      *logger.Logger
	profiles repos.ArtisanProfileRepo
	users    repos.UserRepo
}

func NewArtisanService(log *logger.Logger, profiles repos.ArtisanProfileRepo, users repos.UserRepo) ArtisanService {
	return &artisanService{log: log.With("service", "ArtisanService"), profiles: profiles, users: users}
}

// Upsert creates the profile for an ARTISAN user, or updates the trade
// fields when one already exists.
func (s *artisanService) Upsert(ctx context.Context, in UpsertArtisanProfileInput) (*types.ArtisanProfile, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleAdmin, types.RolePropertyManager); err != nil {
		return nil, err
	}
	if in.UserID == uuid.Nil {
		return nil, validationErr("user_id is required")
	}
	if strings.TrimSpace(in.Specialty) == "" {
		return nil, validationErr("specialty is required")
	}
	if in.DailyRate < 0 {
		return nil, validationErr("daily_rate cannot be negative")
	}
	if in.YearsExperience < 0 {
		return nil, validationErr("years_experience cannot be negative")
	}

	dbc := readCtx(ctx)
	users, err := s.users.GetByIDs(dbc, []uuid.UUID{in.UserID})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 || users[0].OrgID != rd.OrgID {
		return nil, notFoundErr("user", in.UserID)
	}
	if users[0].Role != types.RoleArtisan {
		return nil, validationErr("artisan profiles can only be attached to ARTISAN users")
	}

	existing, err := s.profiles.GetByUserIDs(dbc, []uuid.UUID{in.UserID})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		profile := existing[0]
		if err := s.profiles.UpdateFields(dbc, profile.ID, map[string]interface{}{
			"specialty":        strings.TrimSpace(in.Specialty),
			"daily_rate":       in.DailyRate,
			"years_experience": in.YearsExperience,
			"bio":              in.Bio,
			"updated_at":       time.Now().UTC(),
		}); err != nil {
			return nil, err
		}
		return s.load(ctx, rd.OrgID, profile.ID)
	}

	profile := &types.ArtisanProfile{
		OrgID:           rd.OrgID,
		UserID:          in.UserID,
		Specialty:       strings.TrimSpace(in.Specialty),
		DailyRate:       in.DailyRate,
		YearsExperience: in.YearsExperience,
		Bio:             in.Bio,
	}
	if _, err := s.profiles.Create(dbc, []*types.ArtisanProfile{profile}); err != nil {
		return nil, err
	}
	s.log.Info("artisan profile created", "profile_id", profile.ID, "user_id", in.UserID)
	return profile, nil
}

func (s *artisanService) Get(ctx context.Context, profileID uuid.UUID) (*types.ArtisanProfile, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, rd.OrgID, profileID)
}

func (s *artisanService) GetByUser(ctx context.Context, userID uuid.UUID) (*types.ArtisanProfile, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.profiles.GetByUserIDs(readCtx(ctx), []uuid.UUID{userID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0].OrgID != rd.OrgID {
		return nil, notFoundErr("artisan profile", userID)
	}
	return rows[0], nil
}

func (s *artisanService) List(ctx context.Context, specialty string, limit int) ([]*types.ArtisanProfile, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	return s.profiles.ListByOrg(readCtx(ctx), rd.OrgID, strings.TrimSpace(specialty), limit)
}

// Rate adjusts the track-record fields only. Trade details go through
// Upsert.
func (s *artisanService) Rate(ctx context.Context, profileID uuid.UUID, in RateArtisanInput) (*types.ArtisanProfile, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleAdmin, types.RolePropertyManager); err != nil {
		return nil, err
	}
	if _, err := s.load(ctx, rd.OrgID, profileID); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if in.Rating != nil {
		if *in.Rating < 0 || *in.Rating > 5 {
			return nil, validationErr("rating must be between 0 and 5")
		}
		updates["rating"] = *in.Rating
	}
	if in.JobsCompleted != nil {
		if *in.JobsCompleted < 0 {
			return nil, validationErr("jobs_completed cannot be negative")
		}
		updates["jobs_completed"] = *in.JobsCompleted
	}
	if len(updates) == 0 {
		return nil, validationErr("no updatable fields provided")
	}
	updates["updated_at"] = time.Now().UTC()
	if err := s.profiles.UpdateFields(readCtx(ctx), profileID, updates); err != nil {
		return nil, err
	}
	return s.load(ctx, rd.OrgID, profileID)
}

func (s *artisanService) Delete(ctx context.Context, profileID uuid.UUID) error {
	rd, err := requestData(ctx)
	if err != nil {
		return err
	}
	if err := requireRole(rd, types.RoleAdmin); err != nil {
		return err
	}
	if _, err := s.load(ctx, rd.OrgID, profileID); err != nil {
		return err
	}
	return s.profiles.SoftDeleteByIDs(readCtx(ctx), []uuid.UUID{profileID})
}

func (s *artisanService) load(ctx context.Context, orgID, profileID uuid.UUID) (*types.ArtisanProfile, error) {
	rows, err := s.profiles.GetByIDs(readCtx(ctx), []uuid.UUID{profileID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0].OrgID != orgID {
		return nil, notFoundErr("artisan profile", profileID)
	}
	return rows[0], nil
}
