package identity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/thegridhub/backend/internal/domain/shared"
)

// Tenant is the owner of projects, teams and files. In TheGridHub a tenant is a user profile;
// its Plan field is the raw plan identifier written by billing.
type Tenant struct {
	ID               uuid.UUID
	Email            string
	Name             string
	Plan             string
	StripeCustomerID string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewTenant creates a tenant on the free plan
func NewTenant(email, name string) (*Tenant, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Tenant{
		ID:        uuid.New(),
		Email:     email,
		Name:      strings.TrimSpace(name),
		Plan:      "FREE",
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// SetPlan stores the raw plan identifier
func (t *Tenant) SetPlan(plan string) {
	t.Plan = strings.ToUpper(strings.TrimSpace(plan))
	t.UpdatedAt = time.Now()
}

// SetStripeCustomerID links the tenant to a provider customer
func (t *Tenant) SetStripeCustomerID(customerID string) {
	t.StripeCustomerID = customerID
	t.UpdatedAt = time.Now()
}

func validateEmail(email string) error {
	if email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || strings.Count(email, "@") != 1 {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}
