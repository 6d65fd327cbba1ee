package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/propflow/propflow-backend/internal/data/repos"
	types "github.com/propflow/propflow-backend/internal/domain"
	"github.com/propflow/propflow-backend/internal/platform/apierr"
	"github.com/propflow/propflow-backend/internal/platform/ctxutil"
	"github.com/propflow/propflow-backend/internal/platform/envutil"
	"github.com/propflow/propflow-backend/internal/platform/logger"
	"github.com/propflow/propflow-backend/internal/platform/openai"
)

const defaultAssistDailyLimit = 200

type DraftEmailInput struct {
	Kind      string   `json:"kind"`
	Recipient string   `json:"recipient"`
	Subject   string   `json:"subject"`
	Points    []string `json:"points"`
	Tone      string   `json:"tone"`
}

type DraftEmailResult struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Model   string `json:"model"`
}

type RiskFinding struct {
	Title      string `json:"title"`
	Severity   string `json:"severity"`
	Rationale  string `json:"rationale"`
	Mitigation string `json:"mitigation"`
}

// RiskAnalysisResult is advisory output. Nothing here is written to the
// project's risk register; the user decides what to keep.
type RiskAnalysisResult struct {
	ProjectID uuid.UUID     `json:"project_id"`
	Findings  []RiskFinding `json:"findings"`
	Model     string        `json:"model"`
}

type RankArtisansInput struct {
	Specialty   string `json:"specialty"`
	Requirement string `json:"requirement"`
	Limit       int    `json:"limit"`
}

type RankedArtisan struct {
	UserID    uuid.UUID `json:"user_id"`
	ProfileID uuid.UUID `json:"profile_id"`
	Name      string    `json:"name"`
	Specialty string    `json:"specialty"`
	Rating    float64   `json:"rating"`
	Score     float64   `json:"score"`
	Reason    string    `json:"reason"`
}

// AssistService fronts the LLM-backed helpers. Every call is gated on a
// live subscription and the org's daily call budget, and leaves an
// AICallLog row behind whether it succeeded or not.
type AssistService interface {
	DraftEmail(ctx context.Context, in DraftEmailInput) (*DraftEmailResult, error)
	AnalyzeProjectRisks(ctx context.Context, projectID uuid.UUID) (*RiskAnalysisResult, error)
	RankArtisans(ctx context.Context, in RankArtisansInput) ([]RankedArtisan, error)
	History(ctx context.Context, kind string, limit int) ([]*types.AICallLog, error)
}

type AssistServiceDeps struct {
	AI            openai.Client
	CallLogs      repos.CallLogRepo
	Projects      repos.ProjectRepo
	Risks         repos.RiskRepo
	Profiles      repos.ArtisanProfileRepo
	Users         repos.UserRepo
	Rollups       RollupService
	Subscriptions SubscriptionService
}

type assistService struct {
	log        *logger.Logger
	deps       AssistServiceDeps
	dailyLimit int64

	draftClient openai.Client
	riskClient  openai.Client
	rankClient  openai.Client
}

func NewAssistService(log *logger.Logger, deps AssistServiceDeps) AssistService {
	limit := int64(envutil.Int("AI_DAILY_CALL_LIMIT", defaultAssistDailyLimit))
	if limit <= 0 {
		limit = defaultAssistDailyLimit
	}
	return &assistService{
		log:         log.With("service", "AssistService"),
		deps:        deps,
		dailyLimit:  limit,
		draftClient: openai.WithFeature(deps.AI, types.AIKindDraftEmail),
		riskClient:  openai.WithFeature(deps.AI, types.AIKindRiskAnalysis),
		rankClient:  openai.WithFeature(deps.AI, types.AIKindRankArtisans),
	}
}

func (s *assistService) DraftEmail(ctx context.Context, in DraftEmailInput) (*DraftEmailResult, error) {
	rd, err := s.gate(ctx)
	if err != nil {
		return nil, err
	}
	if len(in.Points) == 0 && strings.TrimSpace(in.Subject) == "" {
		return nil, validationErr("provide a subject or at least one content point")
	}

	var user strings.Builder
	fmt.Fprintf(&user, "Email kind: %s\n", fallback(in.Kind, "general"))
	if in.Recipient != "" {
		fmt.Fprintf(&user, "Recipient: %s\n", in.Recipient)
	}
	if in.Subject != "" {
		fmt.Fprintf(&user, "Subject hint: %s\n", in.Subject)
	}
	if in.Tone != "" {
		fmt.Fprintf(&user, "Tone: %s\n", in.Tone)
	}
	if len(in.Points) > 0 {
		user.WriteString("Points to cover:\n")
		for _, p := range in.Points {
			fmt.Fprintf(&user, "- %s\n", p)
		}
	}

	start := time.Now()
	obj, callErr := s.draftClient.GenerateJSON(ctx,
		"Draft a professional email for a property maintenance workflow. "+
			"Write a clear subject line and a complete body ready to send. "+
			"Address the recipient directly and keep the body under 250 words.",
		user.String(), "email_draft", draftEmailSchema)
	s.logCall(ctx, rd, types.AIKindDraftEmail, callErr, time.Since(start), map[string]any{
		"kind": fallback(in.Kind, "general"),
	})
	if callErr != nil {
		return nil, s.mapProviderError(callErr)
	}

	result := &DraftEmailResult{
		Subject: stringField(obj, "subject"),
		Body:    stringField(obj, "body"),
		Model:   s.draftClient.Model(),
	}
	if result.Subject == "" || result.Body == "" {
		return nil, apierr.New(http.StatusBadGateway, "ai_failed",
			errors.New("the model returned an incomplete draft"))
	}
	return result, nil
}

func (s *assistService) AnalyzeProjectRisks(ctx context.Context, projectID uuid.UUID) (*RiskAnalysisResult, error) {
	rd, err := s.gate(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleAdmin, types.RolePropertyManager); err != nil {
		return nil, err
	}
	projects, err := s.deps.Projects.GetByIDs(readCtx(ctx), []uuid.UUID{projectID})
	if err != nil {
		return nil, err
	}
	if len(projects) == 0 || projects[0].OrgID != rd.OrgID {
		return nil, notFoundErr("project", projectID)
	}
	project := projects[0]

	fin, err := s.deps.Rollups.Compute(ctx, project)
	if err != nil {
		return nil, err
	}
	risks, err := s.deps.Risks.ListByProject(readCtx(ctx), project.ID, "")
	if err != nil {
		return nil, err
	}

	var user strings.Builder
	fmt.Fprintf(&user, "Project: %s (status %s)\n", project.Name, project.Status)
	fmt.Fprintf(&user, "Budget: total %.2f, actual spend %.2f, variance %.2f %s\n",
		fin.BudgetTotal, fin.ActualCostSum, fin.BudgetVariance, fin.Currency)
	fmt.Fprintf(&user, "Schedule progress: %.0f%%; health score %.0f/100 (%s)\n",
		fin.ScheduleProgress*100, fin.HealthScore, fin.HealthLabel)
	user.WriteString("Milestones:\n")
	for _, m := range fin.Milestones {
		fmt.Fprintf(&user, "- %s: %s, budgeted %.2f, actual %.2f\n",
			m.Name, m.Status, m.BudgetedCost, m.ActualCost)
	}
	user.WriteString("Risks already on the register:\n")
	registered := 0
	for _, r := range risks {
		if r.Status == types.RiskStatusClosed {
			continue
		}
		registered++
		fmt.Fprintf(&user, "- [%s] %s\n", r.Severity, r.Title)
	}
	if registered == 0 {
		user.WriteString("- none\n")
	}

	start := time.Now()
	obj, callErr := s.riskClient.GenerateJSON(ctx,
		"Analyze a construction/maintenance project's financial and schedule data "+
			"and identify risks that are NOT already on the register. For each risk give "+
			"a short title, a severity of LOW, MEDIUM, HIGH or CRITICAL, why the data "+
			"supports it, and a concrete mitigation.",
		user.String(), "risk_analysis", riskAnalysisSchema)
	s.logCall(ctx, rd, types.AIKindRiskAnalysis, callErr, time.Since(start), map[string]any{
		"project_id": project.ID,
	})
	if callErr != nil {
		return nil, s.mapProviderError(callErr)
	}

	result := &RiskAnalysisResult{ProjectID: project.ID, Model: s.riskClient.Model()}
	for _, item := range arrayField(obj, "risks") {
		finding := RiskFinding{
			Title:      stringField(item, "title"),
			Severity:   normalizeSeverity(stringField(item, "severity")),
			Rationale:  stringField(item, "rationale"),
			Mitigation: stringField(item, "mitigation"),
		}
		if finding.Title == "" {
			continue
		}
		result.Findings = append(result.Findings, finding)
	}
	return result, nil
}

func (s *assistService) RankArtisans(ctx context.Context, in RankArtisansInput) ([]RankedArtisan, error) {
	rd, err := s.gate(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleAdmin, types.RolePropertyManager); err != nil {
		return nil, err
	}
	specialty := strings.TrimSpace(in.Specialty)
	if specialty == "" {
		return nil, validationErr("specialty is required")
	}
	limit := in.Limit
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	profiles, err := s.deps.Profiles.ListByOrg(readCtx(ctx), rd.OrgID, specialty, limit)
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, validationErr("no artisan profiles match the requested specialty")
	}

	userIDs := make([]uuid.UUID, 0, len(profiles))
	for _, p := range profiles {
		userIDs = append(userIDs, p.UserID)
	}
	users, err := s.deps.Users.GetByIDs(readCtx(ctx), userIDs)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(users))
	for _, u := range users {
		names[u.ID] = strings.TrimSpace(u.FirstName + " " + u.LastName)
	}

	candidates := make(map[uuid.UUID]*types.ArtisanProfile, len(profiles))
	var user strings.Builder
	fmt.Fprintf(&user, "Specialty needed: %s\n", specialty)
	if in.Requirement != "" {
		fmt.Fprintf(&user, "Job requirement: %s\n", in.Requirement)
	}
	user.WriteString("Candidates:\n")
	for _, p := range profiles {
		candidates[p.UserID] = p
		fmt.Fprintf(&user, "- id=%s name=%q specialty=%s rating=%.1f/5 jobs_completed=%d years_experience=%d daily_rate=%.2f\n",
			p.UserID, names[p.UserID], p.Specialty, p.Rating, p.JobsCompleted, p.YearsExperience, p.DailyRate)
	}

	start := time.Now()
	obj, callErr := s.rankClient.GenerateJSON(ctx,
		"Rank artisan candidates for a job by fit: specialty match first, then track "+
			"record (rating, completed jobs, experience) and value for money. Score each "+
			"candidate 0-100 and explain the ordering in one sentence each. Use only the "+
			"candidate ids provided.",
		user.String(), "artisan_ranking", rankArtisansSchema)
	s.logCall(ctx, rd, types.AIKindRankArtisans, callErr, time.Since(start), map[string]any{
		"specialty":  specialty,
		"candidates": len(profiles),
	})
	if callErr != nil {
		return nil, s.mapProviderError(callErr)
	}

	var out []RankedArtisan
	seen := make(map[uuid.UUID]bool, len(profiles))
	for _, item := range arrayField(obj, "ranking") {
		id, err := uuid.Parse(stringField(item, "artisan_id"))
		if err != nil {
			continue
		}
		p, ok := candidates[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, RankedArtisan{
			UserID:    p.UserID,
			ProfileID: p.ID,
			Name:      names[p.UserID],
			Specialty: p.Specialty,
			Rating:    p.Rating,
			Score:     clampScore(floatField(item, "score")),
			Reason:    stringField(item, "reason"),
		})
	}
	if len(out) == 0 {
		return nil, apierr.New(http.StatusBadGateway, "ai_failed",
			errors.New("the model returned no usable ranking"))
	}
	return out, nil
}

func (s *assistService) History(ctx context.Context, kind string, limit int) ([]*types.AICallLog, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if err := requireRole(rd, types.RoleAdmin); err != nil {
		return nil, err
	}
	return s.deps.CallLogs.ListByOrg(readCtx(ctx), rd.OrgID, kind, limit)
}

// gate runs the checks shared by every generation call: configured
// client, live subscription, and the org's daily call budget.
func (s *assistService) gate(ctx context.Context) (*ctxutil.RequestData, error) {
	rd, err := requestData(ctx)
	if err != nil {
		return nil, err
	}
	if s.deps.AI == nil {
		return nil, apierr.New(http.StatusServiceUnavailable, "ai_unavailable",
			errors.New("AI assistance is not configured on this server"))
	}
	if err := s.deps.Subscriptions.EnsureUsable(ctx, rd.OrgID); err != nil {
		return nil, err
	}
	since := time.Now().UTC().Add(-24 * time.Hour)
	count, err := s.deps.CallLogs.CountByOrgSince(readCtx(ctx), rd.OrgID, since)
	if err != nil {
		return nil, err
	}
	if count >= s.dailyLimit {
		return nil, apierr.New(http.StatusTooManyRequests, "rate_limited",
			fmt.Errorf("organization reached its daily AI call limit (%d)", s.dailyLimit))
	}
	return rd, nil
}

// mapProviderError turns a raw provider failure into the typed error the
// handlers surface. The raw cause stays in the server log only.
func (s *assistService) mapProviderError(err error) error {
	category := openai.ClassifyError(err)
	s.log.Warn("AI call failed", "category", string(category), "error", err)
	switch category {
	case openai.ErrorCategoryQuota:
		return apierr.New(http.StatusPaymentRequired, "ai_quota_exceeded",
			errors.New("the AI provider account has no remaining credit; contact your administrator"))
	case openai.ErrorCategoryRateLimit:
		return apierr.New(http.StatusTooManyRequests, "ai_rate_limited",
			errors.New("the AI provider is throttling requests, try again in a moment"))
	case openai.ErrorCategoryAuth:
		return apierr.New(http.StatusBadGateway, "ai_auth_failed",
			errors.New("the AI provider rejected the server credentials"))
	case openai.ErrorCategoryUnavailable:
		return apierr.New(http.StatusServiceUnavailable, "ai_unavailable",
			errors.New("the AI provider is currently unavailable, try again shortly"))
	}
	return apierr.New(http.StatusBadGateway, "ai_failed",
		errors.New("the AI request could not be completed"))
}

func (s *assistService) logCall(ctx context.Context, rd *ctxutil.RequestData, kind string, callErr error, dur time.Duration, meta map[string]any) {
	row := &types.AICallLog{
		OrgID:      rd.OrgID,
		UserID:     rd.UserID,
		Kind:       kind,
		Model:      s.deps.AI.Model(),
		Status:     types.AICallStatusOK,
		DurationMS: dur.Milliseconds(),
	}
	if callErr != nil {
		row.Status = types.AICallStatusFailed
		row.ErrorCode = string(openai.ClassifyError(callErr))
	}
	if len(meta) > 0 {
		if raw, err := json.Marshal(meta); err == nil {
			row.Metadata = datatypes.JSON(raw)
		}
	}
	if _, err := s.deps.CallLogs.Create(readCtx(ctx), []*types.AICallLog{row}); err != nil {
		s.log.Warn("AI call log write failed (ignored)", "kind", kind, "error", err)
	}
}

var draftEmailSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"subject": map[string]any{"type": "string"},
		"body":    map[string]any{"type": "string"},
	},
	"required": []string{"subject", "body"},
}

var riskAnalysisSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"risks": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"title":      map[string]any{"type": "string"},
					"severity":   map[string]any{"type": "string", "enum": []string{"LOW", "MEDIUM", "HIGH", "CRITICAL"}},
					"rationale":  map[string]any{"type": "string"},
					"mitigation": map[string]any{"type": "string"},
				},
				"required": []string{"title", "severity", "rationale", "mitigation"},
			},
		},
	},
	"required": []string{"risks"},
}

var rankArtisansSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"ranking": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"artisan_id": map[string]any{"type": "string"},
					"score":      map[string]any{"type": "number"},
					"reason":     map[string]any{"type": "string"},
				},
				"required": []string{"artisan_id", "score", "reason"},
			},
		},
	},
	"required": []string{"ranking"},
}

func stringField(obj map[string]any, key string) string {
	if obj == nil {
		return ""
	}
	if v, ok := obj[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func floatField(obj map[string]any, key string) float64 {
	if obj == nil {
		return 0
	}
	switch v := obj[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
	}
	return 0
}

func arrayField(obj map[string]any, key string) []map[string]any {
	if obj == nil {
		return nil
	}
	raw, ok := obj[key].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func normalizeSeverity(severity string) string {
	switch strings.ToUpper(strings.TrimSpace(severity)) {
	case types.RiskSeverityLow:
		return types.RiskSeverityLow
	case types.RiskSeverityHigh:
		return types.RiskSeverityHigh
	case types.RiskSeverityCritical:
		return types.RiskSeverityCritical
	default:
		return types.RiskSeverityMedium
	}
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func fallback(value, def string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return def
	}
	return value
}
