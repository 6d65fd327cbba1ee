package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/propflow/propflow-backend/internal/data/repos"
	types "github.com/propflow/propflow-backend/internal/domain"
	"github.com/propflow/propflow-backend/internal/platform/ctxutil"
	"github.com/propflow/propflow-backend/internal/platform/dbctx"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

type CreateUserInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
}

type UpdateProfileInput struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Phone     *string `json:"phone,omitempty"`
}

type UserService interface {
	Create(ctx context.Context, in CreateUserInput) (*types.User, error)
	Me(ctx context.Context) (*types.User, error)
	Get(ctx context.Context, userID uuid.UUID) (*types.User, error)
	List(ctx context.Context, role string, limit int) ([]*types.User, error)
	UpdateProfile(ctx context.Context, in UpdateProfileInput) (*types.User, error)
	UpdateRole(ctx context.Context, userID uuid.UUID, role string) (*types.User, error)
	UpdatePassword(ctx context.Context, current, next string) error
	UploadAvatar(ctx context.Context, raw []byte) (*types.User, error)
	Deactivate(ctx context.Context, userID uuid.UUID) error
}

type UserServiceDeps struct {
	DB            *gorm.DB
	Users         repos.UserRepo
	Tokens        repos.UserTokenRepo
	Subscriptions SubscriptionService
	Avatars       AvatarService
}

type userService struct {
	log  *logger.Logger
	deps UserServiceDeps
}

func NewUserService(log *logger.Logger, deps UserServiceDeps) UserService {
	return &userService{log: log.With("service", "UserService"), deps: deps}
}

// Create adds a member to the caller's org. Admin only; the plan seat cap
// is checked before any row is written.
func (s *userService) Create(ctx context.Context, in CreateUserInput) (*types.User, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleAdmin); err != nil {
		return nil, err
	}

	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	switch {
	case in.Email == "" || !strings.Contains(in.Email, "@"):
		return nil, validationErr("a valid email is required")
	case len(in.Password) < 8:
		return nil, validationErr("password must be at least 8 characters")
	case strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "":
		return nil, validationErr("first and last name are required")
	case !types.ValidRole(in.Role):
		return nil, validationErr(fmt.Sprintf("unknown role: %s", in.Role))
	}

	if s.deps.Subscriptions != nil {
		if err := s.deps.Subscriptions.EnsureSeatAvailable(ctx, rd.OrgID); err != nil {
			return nil, err
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &types.User{
		OrgID:     rd.OrgID,
		Email:     in.Email,
		Password:  string(hashed),
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Phone:     strings.TrimSpace(in.Phone),
		Role:      in.Role,
	}
	err = s.deps.DB.Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctxutil.Default(ctx), Tx: tx}
		exists, err := s.deps.Users.EmailExists(dbc, in.Email)
		if err != nil {
			return err
		}
		if exists {
			return conflictErr("a user with that email already exists")
		}
		_, err = s.deps.Users.Create(dbc, []*types.User{user})
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.deps.Avatars != nil {
		dbc := readCtx(ctx)
		if err := s.deps.Avatars.GenerateAndUploadUserAvatar(dbc, user); err != nil {
			s.log.Warn("avatar render failed (ignored)", "user_id", user.ID, "error", err)
		} else if err := s.deps.Users.UpdateFields(dbc, user.ID, map[string]interface{}{
			"avatar_bucket_key": user.AvatarBucketKey,
			"avatar_url":        user.AvatarURL,
			"avatar_color":      user.AvatarColor,
		}); err != nil {
			s.log.Warn("avatar persist failed (ignored)", "user_id", user.ID, "error", err)
		}
	}

	s.log.Info("user created", "user_id", user.ID, "role", user.Role, "by", rd.UserID)
	return user, nil
}

func (s *userService) Me(ctx context.Context) (*types.User, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, rd.OrgID, rd.UserID)
}

func (s *userService) Get(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, rd.OrgID, userID)
}

func (s *userService) List(ctx context.Context, role string, limit int) ([]*types.User, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if role != "" && !types.ValidRole(role) {
		return nil, validationErr(fmt.Sprintf("unknown role: %s", role))
	}
	return s.deps.Users.ListByOrg(readCtx(ctx), rd.OrgID, role, limit)
}

func (s *userService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*types.User, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if in.FirstName != nil {
		if strings.TrimSpace(*in.FirstName) == "" {
			return nil, validationErr("first_name cannot be empty")
		}
		updates["first_name"] = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		if strings.TrimSpace(*in.LastName) == "" {
			return nil, validationErr("last_name cannot be empty")
		}
		updates["last_name"] = strings.TrimSpace(*in.LastName)
	}
	if in.Phone != nil {
		updates["phone"] = strings.TrimSpace(*in.Phone)
	}
	if len(updates) == 0 {
		return nil, validationErr("no updatable fields provided")
	}
	updates["updated_at"] = time.Now().UTC()
	if err := s.deps.Users.UpdateFields(readCtx(ctx), rd.UserID, updates); err != nil {
		return nil, err
	}
	return s.load(ctx, rd.OrgID, rd.UserID)
}

func (s *userService) UpdateRole(ctx context.Context, userID uuid.UUID, role string) (*types.User, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleAdmin); err != nil {
		return nil, err
	}
	if !types.ValidRole(role) {
		return nil, validationErr(fmt.Sprintf("unknown role: %s", role))
	}
	// Admins cannot change their own role: an org must always keep at
	// least the acting admin.
	if userID == rd.UserID {
		return nil, validationErr("you cannot change your own role")
	}
	if _, err := s.load(ctx, rd.OrgID, userID); err != nil {
		return nil, err
	}
	if err := s.deps.Users.UpdateFields(readCtx(ctx), userID, map[string]interface{}{
		"role":       role,
		"updated_at": time.Now().UTC(),
	}); err != nil {
		return nil, err
	}
	return s.load(ctx, rd.OrgID, userID)
}

func (s *userService) UpdatePassword(ctx context.Context, current, next string) error {
	rd, err := requestData(ctx)
	if err != nil {
		return err
	}
	if len(next) < 8 {
		return validationErr("password must be at least 8 characters")
	}
	user, err := s.load(ctx, rd.OrgID, rd.UserID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)) != nil {
		return validationErr("current password is incorrect")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.deps.Users.UpdateFields(readCtx(ctx), rd.UserID, map[string]interface{}{
		"password":   string(hashed),
		"updated_at": time.Now().UTC(),
	})
}

func (s *userService) UploadAvatar(ctx context.Context, raw []byte) (*types.User, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, validationErr("avatar image is empty")
	}
	user, err := s.load(ctx, rd.OrgID, rd.UserID)
	if err != nil {
		return nil, err
	}
	dbc := readCtx(ctx)
	if err := s.deps.Avatars.UploadUserAvatarImage(dbc, user, raw); err != nil {
		return nil, err
	}
	if err := s.deps.Users.UpdateFields(dbc, user.ID, map[string]interface{}{
		"avatar_bucket_key": user.AvatarBucketKey,
		"avatar_url":        user.AvatarURL,
	}); err != nil {
		return nil, err
	}
	return user, nil
}

// Deactivate soft-deletes a member and revokes every session they hold.
func (s *userService) Deactivate(ctx context.Context, userID uuid.UUID) error {
	rd, err := requestData(ctx)
	if err != nil {
		return err
	}
	if err := requireRole(rd, types.RoleAdmin); err != nil {
		return err
	}
	if userID == rd.UserID {
		return validationErr("you cannot deactivate your own account")
	}
	if _, err := s.load(ctx, rd.OrgID, userID); err != nil {
		return err
	}
	return s.deps.DB.Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctxutil.Default(ctx), Tx: tx}
		if err := s.deps.Users.SoftDeleteByIDs(dbc, []uuid.UUID{userID}); err != nil {
			return err
		}
		return s.deps.Tokens.SoftDeleteByUserIDs(dbc, []uuid.UUID{userID})
	})
}

func (s *userService) load(ctx context.Context, orgID, userID uuid.UUID) (*types.User, error) {
	users, err := s.deps.Users.GetByIDs(readCtx(ctx), []uuid.UUID{userID})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 || users[0].OrgID != orgID {
		return nil, notFoundErr("user", userID)
	}
	return users[0], nil
}
