package models

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type CategoryAxis struct {
	ID                int64
	TenantID          pgtype.UUID
	AxisCode          string
	AxisName          string
	TargetEntityKind  string
	SupportsHierarchy bool
	DisplayOrder      int32
	Description       string
	IsActive          bool
	Version           int64
	CreatedBy         string
	UpdatedBy         string
	CreatedAt         pgtype.Timestamptz
	UpdatedAt         pgtype.Timestamptz
}

type Segment struct {
	ID              int64
	TenantID        pgtype.UUID
	CategoryAxisID  int64
	SegmentCode     string
	SegmentName     string
	ParentSegmentID *int64
	HierarchyLevel  int32
	HierarchyPath   string
	DisplayOrder    int32
	Description     string
	IsActive        bool
	Version         int64
	CreatedBy       string
	UpdatedBy       string
	CreatedAt       pgtype.Timestamptz
	UpdatedAt       pgtype.Timestamptz
}

type SegmentAssignment struct {
	ID             int64
	TenantID       pgtype.UUID
	EntityKind     string
	EntityID       string
	CategoryAxisID int64
	SegmentID      int64
	IsActive       bool
	Version        int64
	CreatedBy      string
	UpdatedBy      string
	CreatedAt      pgtype.Timestamptz
	UpdatedAt      pgtype.Timestamptz
}
