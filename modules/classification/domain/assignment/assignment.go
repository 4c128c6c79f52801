package assignment

import (
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/classification/modules/classification/domain/entitykind"
)

// SegmentAssignment binds one segment to one polymorphically referenced
// entity, for one axis. At most one active row may exist per
// (tenant, entity kind, entity id, axis) — "one axis, one value".
// Deactivation is terminal for a row; a later upsert inserts a fresh one.
type SegmentAssignment struct {
	ID             int64
	TenantID       uuid.UUID
	EntityKind     entitykind.EntityKind
	EntityID       string
	CategoryAxisID int64
	SegmentID      int64
	IsActive       bool
	Version        int64
	CreatedBy      string
	UpdatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// EntityClassification is the read-side join of an active assignment
// with its axis and segment, as served to callers resolving everything
// an entity is classified as.
type EntityClassification struct {
	AssignmentID int64
	AxisID       int64
	AxisCode     string
	AxisName     string
	SegmentID    int64
	SegmentCode  string
	SegmentName  string
}
