package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/propflow/propflow-backend/internal/billing"
	"github.com/propflow/propflow-backend/internal/data/repos"
	types "github.com/propflow/propflow-backend/internal/domain"
	"github.com/propflow/propflow-backend/internal/platform/apierr"
	"github.com/propflow/propflow-backend/internal/platform/ctxutil"
	"github.com/propflow/propflow-backend/internal/platform/dbctx"
	"github.com/propflow/propflow-backend/internal/platform/envutil"
	"github.com/propflow/propflow-backend/internal/platform/logger"
)

// tokenExpiryBuffer treats access tokens as already expired shortly
// before their real expiry so a request never outlives its token.
const tokenExpiryBuffer = 5 * time.Minute

type RegisterInput struct {
	OrgName   string `json:"org_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

type AuthResult struct {
	User         *types.User         `json:"user"`
	Organization *types.Organization `json:"organization,omitempty"`
	AccessToken  string              `json:"access_token"`
	RefreshToken string              `json:"refresh_token"`
	ExpiresAt    time.Time           `json:"expires_at"`
}

// AuthService owns registration, the JWT/refresh token lifecycle, and
// turning a bearer token into request-scoped identity.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)
	Logout(ctx context.Context) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	PurgeExpiredTokens(ctx context.Context) error
}

type AuthServiceDeps struct {
	DB            *gorm.DB
	Users         repos.UserRepo
	Tokens        repos.UserTokenRepo
	Orgs          repos.OrganizationRepo
	Subscriptions repos.SubscriptionRepo
	Catalog       *billing.Catalog
	Avatars       AvatarService
}

type authService struct {
	log  *logger.Logger
	deps AuthServiceDeps

	jwtSecret  []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

type jwtClaims struct {
	jwt.RegisteredClaims
}

func NewAuthService(log *logger.Logger, deps AuthServiceDeps) (AuthService, error) {
	secret := strings.TrimSpace(envutil.String("JWT_SECRET", ""))
	if secret == "" {
		return nil, fmt.Errorf("env var JWT_SECRET is empty")
	}
	return &authService{
		log:        log.With("service", "AuthService"),
		deps:       deps,
		jwtSecret:  []byte(secret),
		issuer:     envutil.String("JWT_ISSUER", "propflow"),
		accessTTL:  envutil.Duration("AUTH_ACCESS_TOKEN_TTL", 24*time.Hour),
		refreshTTL: envutil.Duration("AUTH_REFRESH_TOKEN_TTL", 30*24*time.Hour),
	}, nil
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.OrgName = strings.TrimSpace(in.OrgName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	switch {
	case in.OrgName == "":
		return nil, validationErr("org_name is required")
	case in.Email == "" || !strings.Contains(in.Email, "@"):
		return nil, validationErr("a valid email is required")
	case len(in.Password) < 8:
		return nil, validationErr("password must be at least 8 characters")
	case in.FirstName == "" || in.LastName == "":
		return nil, validationErr("first_name and last_name are required")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	plan := s.deps.Catalog.DefaultPlan()
	if plan.Code == "" {
		return nil, fmt.Errorf("billing catalog has no default plan")
	}
	trialEnds := now.AddDate(0, 0, plan.TrialDays)

	org := &types.Organization{ID: uuid.New(), Name: in.OrgName}
	user := &types.User{
		ID:        uuid.New(),
		OrgID:     org.ID,
		Email:     in.Email,
		Password:  string(hashed),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     strings.TrimSpace(in.Phone),
		Role:      types.RoleAdmin,
	}

	var result *AuthResult
	err = s.deps.DB.Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctxutil.Default(ctx), Tx: tx}

		exists, err := s.deps.Users.EmailExists(dbc, in.Email)
		if err != nil {
			return err
		}
		if exists {
			return conflictErr("an account with this email already exists")
		}

		org.Slug, err = s.uniqueSlug(dbc, in.OrgName)
		if err != nil {
			return err
		}
		if _, err := s.deps.Orgs.Create(dbc, []*types.Organization{org}); err != nil {
			return err
		}
		if _, err := s.deps.Users.Create(dbc, []*types.User{user}); err != nil {
			return err
		}

		sub := &types.Subscription{
			ID:          uuid.New(),
			OrgID:       org.ID,
			PlanCode:    plan.Code,
			Status:      types.SubscriptionStatusTrialing,
			Seats:       plan.MaxSeats,
			PeriodStart: now,
			PeriodEnd:   trialEnds,
			TrialEndsAt: &trialEnds,
		}
		if _, err := s.deps.Subscriptions.Create(dbc, []*types.Subscription{sub}); err != nil {
			return err
		}

		result, err = s.issueTokens(dbc, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	// Initials logo + avatar render after commit; a storage hiccup must
	// not lose the registration.
	s.renderIdentityAssets(ctx, org, user)

	result.Organization = org
	s.log.Info("organization registered", "org_id", org.ID, "plan", plan.Code)
	return result, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, validationErr("email and password are required")
	}

	dbc := readCtx(ctx)
	user, err := s.deps.Users.GetByEmail(dbc, email)
	if err != nil {
		return nil, err
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, apierr.New(http.StatusUnauthorized, "unauthorized", errors.New("invalid email or password"))
	}

	return s.issueTokens(dbc, user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, validationErr("refresh_token is required")
	}

	var result *AuthResult
	err := s.deps.DB.Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctxutil.Default(ctx), Tx: tx}

		row, err := s.deps.Tokens.GetByRefreshToken(dbc, refreshToken)
		if err != nil {
			return err
		}
		if row == nil {
			return ErrUnauthorized
		}
		users, err := s.deps.Users.GetByIDs(dbc, []uuid.UUID{row.UserID})
		if err != nil {
			return err
		}
		if len(users) == 0 {
			return ErrUnauthorized
		}

		// Rotation: the presented refresh token is consumed either way.
		if err := s.deps.Tokens.SoftDeleteByIDs(dbc, []uuid.UUID{row.ID}); err != nil {
			return err
		}
		result, err = s.issueTokens(dbc, users[0])
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *authService) Logout(ctx context.Context) error {
	rd, err := requestData(ctx)
	if err != nil {
		return err
	}
	dbc := readCtx(ctx)
	row, err := s.deps.Tokens.GetByAccessToken(dbc, rd.TokenString)
	if err != nil {
		return err
	}
	if row == nil {
		return nil
	}
	return s.deps.Tokens.SoftDeleteByIDs(dbc, []uuid.UUID{row.ID})
}

func (s *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return ctx, ErrUnauthorized
	}

	claims := &jwtClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return ctx, ErrUnauthorized
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, ErrUnauthorized
	}

	dbc := readCtx(ctx)
	row, err := s.deps.Tokens.GetByAccessToken(dbc, tokenString)
	if err != nil {
		return ctx, err
	}
	if row == nil || row.UserID != userID {
		return ctx, ErrUnauthorized
	}
	if time.Now().After(row.ExpiresAt.Add(-tokenExpiryBuffer)) {
		return ctx, apierr.New(http.StatusUnauthorized, "token_expired", errors.New("access token expired"))
	}

	users, err := s.deps.Users.GetByIDs(dbc, []uuid.UUID{userID})
	if err != nil {
		return ctx, err
	}
	if len(users) == 0 {
		return ctx, ErrUnauthorized
	}
	u := users[0]

	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		UserID:       u.ID,
		OrgID:        u.OrgID,
		Role:         u.Role,
		TokenString:  tokenString,
		RefreshToken: row.RefreshToken,
	}), nil
}

// PurgeExpiredTokens drops token rows older than the refresh window;
// a purged row can no longer be refreshed.
func (s *authService) PurgeExpiredTokens(ctx context.Context) error {
	cutoff := time.Now().Add(-s.refreshTTL)
	return s.deps.Tokens.DeleteExpiredBefore(readCtx(ctx), cutoff)
}

// issueTokens signs a new access JWT, pairs it with an opaque refresh
// token, and persists the row.
func (s *authService) issueTokens(dbc dbctx.Context, user *types.User) (*AuthResult, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(s.accessTTL)

	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refreshToken := newOpaqueToken()

	row := &types.UserToken{
		ID:           uuid.New(),
		UserID:       user.ID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}
	if _, err := s.deps.Tokens.Create(dbc, []*types.UserToken{row}); err != nil {
		return nil, err
	}

	return &AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}

// uniqueSlug derives the org slug from the name, suffixing on collision.
func (s *authService) uniqueSlug(dbc dbctx.Context, name string) (string, error) {
	base := slugify(name)
	if base == "" {
		base = "org"
	}
	slug := base
	for attempt := 0; attempt < 5; attempt++ {
		existing, err := s.deps.Orgs.GetBySlug(dbc, slug)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%s", base, strings.ToLower(strings.ReplaceAll(uuid.NewString(), "-", "")[:5]))
	}
	return "", conflictErr("could not allocate a unique organization slug")
}

func (s *authService) renderIdentityAssets(ctx context.Context, org *types.Organization, user *types.User) {
	if s.deps.Avatars == nil {
		return
	}
	dbc := readCtx(ctx)

	if err := s.deps.Avatars.GenerateAndUploadOrgLogo(dbc, org); err != nil {
		s.log.Warn("org logo render failed (ignored)", "org_id", org.ID, "error", err)
	} else if err := s.deps.Orgs.UpdateFields(dbc, org.ID, map[string]interface{}{
		"logo_bucket_key": org.LogoBucketKey,
		"logo_url":        org.LogoURL,
		"avatar_color":    org.AvatarColor,
	}); err != nil {
		s.log.Warn("org logo persist failed (ignored)", "org_id", org.ID, "error", err)
	}

	if err := s.deps.Avatars.GenerateAndUploadUserAvatar(dbc, user); err != nil {
		s.log.Warn("user avatar render failed (ignored)", "user_id", user.ID, "error", err)
	} else if err := s.deps.Users.UpdateFields(dbc, user.ID, map[string]interface{}{
		"avatar_bucket_key": user.AvatarBucketKey,
		"avatar_url":        user.AvatarURL,
		"avatar_color":      user.AvatarColor,
	}); err != nil {
		s.log.Warn("user avatar persist failed (ignored)", "user_id", user.ID, "error", err)
	}
}

func newOpaqueToken() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

// slugify lowercases and collapses non-alphanumerics to single dashes.
func slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
