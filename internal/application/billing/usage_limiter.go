package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/thegridhub/backend/internal/domain/billing"
	"github.com/thegridhub/backend/internal/domain/identity"
	"github.com/thegridhub/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// unrecognizedActionNote is attached to decisions for actions outside the known set
const unrecognizedActionNote = "Unrecognized action; no limit applies"

// CheckLimitInput contains input for checking a plan limit
type CheckLimitInput struct {
	TenantID      uuid.UUID
	Action        string
	FileSizeBytes int64 // Only used by upload_file
}

// UsageSummary describes a tenant's plan, limits and current usage
type UsageSummary struct {
	TenantID uuid.UUID             `json:"tenantId"`
	Plan     billing.PlanID        `json:"plan"`
	Limits   billing.PlanLimits    `json:"limits"`
	Usage    billing.UsageSnapshot `json:"usage"`
}

// UsageLimiter decides whether a tenant may perform an action under its plan.
// It only reads: it does not reserve quota, so two concurrent checks can both pass.
type UsageLimiter struct {
	plans   *billing.PlanCatalog
	tenants identity.TenantRepository
	usage   billing.UsageCounter
	metrics LimiterMetrics
	logger  *zap.Logger
	now     func() time.Time
}

// UsageLimiterConfig contains dependencies for UsageLimiter
type UsageLimiterConfig struct {
	Plans   *billing.PlanCatalog
	Tenants identity.TenantRepository
	Usage   billing.UsageCounter
	Metrics LimiterMetrics
	Logger  *zap.Logger
	Clock   func() time.Time
}

// NewUsageLimiter creates a new UsageLimiter
func NewUsageLimiter(cfg UsageLimiterConfig) *UsageLimiter {
	l := &UsageLimiter{
		plans:   cfg.Plans,
		tenants: cfg.Tenants,
		usage:   cfg.Usage,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
		now:     cfg.Clock,
	}
	if l.plans == nil {
		l.plans = billing.DefaultPlanCatalog()
	}
	if l.metrics == nil {
		l.metrics = nopMetrics{}
	}
	if l.logger == nil {
		l.logger = zap.NewNop()
	}
	if l.now == nil {
		l.now = time.Now
	}
	return l
}

// CheckLimit authorizes or denies an action. A denial is returned as a decision with
// Allowed=false; errors are returned only for authentication and datastore failures.
func (l *UsageLimiter) CheckLimit(ctx context.Context, input CheckLimitInput) (*billing.LimitDecision, error) {
	if input.FileSizeBytes < 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "File size cannot be negative")
	}

	plan, err := l.resolvePlan(ctx, input.TenantID)
	if err != nil {
		return nil, err
	}
	limits := l.plans.Limits(plan)
	action := billing.ParseAction(input.Action)

	decision, err := l.decide(ctx, input, action, plan, limits)
	if err != nil {
		l.logger.Error("Usage lookup failed",
			zap.String("tenant_id", input.TenantID.String()),
			zap.String("action", input.Action),
			zap.Error(err))
		return nil, err
	}

	l.metrics.RecordLimitCheck(ctx, action, decision.Allowed)
	if !decision.Allowed {
		l.logger.Info("Plan limit reached",
			zap.String("tenant_id", input.TenantID.String()),
			zap.String("plan", plan.String()),
			zap.String("action", action.String()),
			zap.String("reason", decision.Reason))
	}

	return decision, nil
}

func (l *UsageLimiter) decide(
	ctx context.Context,
	input CheckLimitInput,
	action billing.Action,
	plan billing.PlanID,
	limits billing.PlanLimits,
) (*billing.LimitDecision, error) {
	switch action {
	case billing.ActionCreateProject:
		if billing.IsUnlimited(limits.MaxProjects) {
			return billing.Allow(), nil
		}
		n, err := l.usage.CountProjects(ctx, input.TenantID)
		if err != nil {
			return nil, fmt.Errorf("failed to count projects: %w", err)
		}
		if billing.CountExceeded(limits.MaxProjects, n) {
			return l.deny(plan, fmt.Sprintf("Project limit reached (%d/%d)", n, limits.MaxProjects)), nil
		}
		return billing.Allow(), nil

	case billing.ActionInviteMember:
		if billing.IsUnlimited(limits.MaxTeamMembers) {
			return billing.Allow(), nil
		}
		n, err := l.usage.CountTeamMembers(ctx, input.TenantID)
		if err != nil {
			return nil, fmt.Errorf("failed to count team members: %w", err)
		}
		if billing.CountExceeded(limits.MaxTeamMembers, n) {
			return l.deny(plan, fmt.Sprintf("Team member limit reached (%d/%d)", n, limits.MaxTeamMembers)), nil
		}
		return billing.Allow(), nil

	case billing.ActionUseAI:
		if billing.IsUnlimited(limits.AISuggestionsPerDay) {
			return billing.Allow(), nil
		}
		n, err := l.usage.CountAISuggestionsSince(ctx, input.TenantID, startOfDay(l.now()))
		if err != nil {
			return nil, fmt.Errorf("failed to count AI suggestions: %w", err)
		}
		if billing.CountExceeded(limits.AISuggestionsPerDay, n) {
			return l.deny(plan, fmt.Sprintf("Daily AI suggestion limit reached (%d/%d)", n, limits.AISuggestionsPerDay)), nil
		}
		return billing.Allow(), nil

	case billing.ActionUploadFile:
		if billing.IsUnlimited(limits.StorageMB) {
			return billing.Allow(), nil
		}
		used, err := l.usage.SumStorageBytes(ctx, input.TenantID)
		if err != nil {
			return nil, fmt.Errorf("failed to sum storage: %w", err)
		}
		if billing.StorageExceeded(limits.StorageMB, billing.BytesToMB(used), input.FileSizeBytes) {
			return l.deny(plan, fmt.Sprintf("Storage limit of %d MB would be exceeded", limits.StorageMB)), nil
		}
		return billing.Allow(), nil

	case billing.ActionCreateTask:
		// tasks have no plan limit
		return billing.Allow(), nil

	case billing.ActionUnrecognized:
		d := billing.Allow()
		d.Note = unrecognizedActionNote
		return d, nil
	}

	return nil, fmt.Errorf("unhandled action %d", action)
}

func (l *UsageLimiter) deny(plan billing.PlanID, reason string) *billing.LimitDecision {
	upgrade, _ := l.plans.UpgradeTarget(plan)
	return billing.Deny(reason, upgrade)
}

// UsageSummary returns the plan, limits and a fresh usage snapshot for a tenant
func (l *UsageLimiter) UsageSummary(ctx context.Context, tenantID uuid.UUID) (*UsageSummary, error) {
	plan, err := l.resolvePlan(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	projects, err := l.usage.CountProjects(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to count projects: %w", err)
	}
	members, err := l.usage.CountTeamMembers(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to count team members: %w", err)
	}
	ai, err := l.usage.CountAISuggestionsSince(ctx, tenantID, startOfDay(l.now()))
	if err != nil {
		return nil, fmt.Errorf("failed to count AI suggestions: %w", err)
	}
	storage, err := l.usage.SumStorageBytes(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum storage: %w", err)
	}

	return &UsageSummary{
		TenantID: tenantID,
		Plan:     plan,
		Limits:   l.plans.Limits(plan),
		Usage: billing.UsageSnapshot{
			Projects:           projects,
			TeamMembers:        members,
			AISuggestionsToday: ai,
			StorageMB:          billing.BytesToMB(storage).Round(2),
		},
	}, nil
}

// resolvePlan loads the tenant and maps its plan through the catalog.
// A missing tenant means the caller is not a known identity.
func (l *UsageLimiter) resolvePlan(ctx context.Context, tenantID uuid.UUID) (billing.PlanID, error) {
	if tenantID == uuid.Nil {
		return "", shared.ErrNotAuthenticated
	}

	tenant, err := l.tenants.FindByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", shared.ErrNotAuthenticated
		}
		return "", fmt.Errorf("failed to load tenant: %w", err)
	}

	return l.plans.Resolve(tenant.Plan), nil
}

// startOfDay returns midnight UTC of t's day
func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
