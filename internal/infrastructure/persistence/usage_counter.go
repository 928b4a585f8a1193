package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/thegridhub/backend/internal/domain/billing"
	"gorm.io/gorm"
)

// The usage tables are owned by the product application. Only the columns read here are mapped.

// ProjectModel maps the projects table
type ProjectModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:varchar(200);not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for the model
func (ProjectModel) TableName() string { return "projects" }

// TeamModel maps the teams table
type TeamModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:varchar(200);not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for the model
func (TeamModel) TableName() string { return "teams" }

// TeamMemberModel maps the team_members table
type TeamMemberModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	TeamID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Email     string    `gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for the model
func (TeamMemberModel) TableName() string { return "team_members" }

// AISuggestionModel maps the ai_suggestions table
type AISuggestionModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;index:idx_ai_suggestions_tenant_created"`
	CreatedAt time.Time `gorm:"not null;index:idx_ai_suggestions_tenant_created"`
}

// TableName returns the table name for the model
func (AISuggestionModel) TableName() string { return "ai_suggestions" }

// FileModel maps the files table
type FileModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	UploadedBy uuid.UUID `gorm:"type:uuid;not null;index"`
	Name       string    `gorm:"type:varchar(500);not null"`
	SizeBytes  int64     `gorm:"not null;default:0"`
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for the model
func (FileModel) TableName() string { return "files" }

// GormUsageCounter implements billing.UsageCounter with count queries
type GormUsageCounter struct {
	db *gorm.DB
}

// NewGormUsageCounter creates a new GormUsageCounter
func NewGormUsageCounter(db *gorm.DB) *GormUsageCounter {
	return &GormUsageCounter{db: db}
}

// CountProjects counts projects owned by the tenant
func (c *GormUsageCounter) CountProjects(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var n int64
	err := c.db.WithContext(ctx).Model(&ProjectModel{}).
		Where("owner_id = ?", tenantID).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count projects: %w", err)
	}
	return n, nil
}

// CountTeamMembers counts members of all teams owned by the tenant
func (c *GormUsageCounter) CountTeamMembers(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var n int64
	err := c.db.WithContext(ctx).Model(&TeamMemberModel{}).
		Joins("JOIN teams ON teams.id = team_members.team_id").
		Where("teams.owner_id = ?", tenantID).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count team members: %w", err)
	}
	return n, nil
}

// CountAISuggestionsSince counts AI suggestions requested at or after since
func (c *GormUsageCounter) CountAISuggestionsSince(ctx context.Context, tenantID uuid.UUID, since time.Time) (int64, error) {
	var n int64
	err := c.db.WithContext(ctx).Model(&AISuggestionModel{}).
		Where("tenant_id = ? AND created_at >= ?", tenantID, since).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count ai suggestions: %w", err)
	}
	return n, nil
}

// SumStorageBytes sums the size of all files uploaded by the tenant
func (c *GormUsageCounter) SumStorageBytes(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var total int64
	err := c.db.WithContext(ctx).Model(&FileModel{}).
		Select("COALESCE(SUM(size_bytes), 0)").
		Where("uploaded_by = ?", tenantID).
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("sum storage: %w", err)
	}
	return total, nil
}

// Ensure GormUsageCounter implements UsageCounter
var _ billing.UsageCounter = (*GormUsageCounter)(nil)
