package categoryaxis

import (
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/classification/modules/classification/domain/entitykind"
)

// CategoryAxis is a named classification dimension ("Region", "Material
// Category", ...). Each axis targets exactly one entity kind; hierarchy
// support is restricted to ITEM axes.
type CategoryAxis struct {
	ID                int64
	TenantID          uuid.UUID
	AxisCode          string
	AxisName          string
	TargetEntityKind  entitykind.EntityKind
	SupportsHierarchy bool
	DisplayOrder      int
	Description       string
	IsActive          bool
	Version           int64
	CreatedBy         string
	UpdatedBy         string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
