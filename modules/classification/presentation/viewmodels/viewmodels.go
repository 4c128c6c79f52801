package viewmodels

import "time"

type CategoryAxis struct {
	ID                int64     `json:"id"`
	AxisCode          string    `json:"axis_code"`
	AxisName          string    `json:"axis_name"`
	TargetEntityKind  string    `json:"target_entity_kind"`
	SupportsHierarchy bool      `json:"supports_hierarchy"`
	DisplayOrder      int       `json:"display_order"`
	Description       string    `json:"description,omitempty"`
	IsActive          bool      `json:"is_active"`
	Version           int64     `json:"version"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type Segment struct {
	ID              int64     `json:"id"`
	CategoryAxisID  int64     `json:"category_axis_id"`
	SegmentCode     string    `json:"segment_code"`
	SegmentName     string    `json:"segment_name"`
	ParentSegmentID *int64    `json:"parent_segment_id,omitempty"`
	HierarchyLevel  int       `json:"hierarchy_level"`
	HierarchyPath   string    `json:"hierarchy_path"`
	DisplayOrder    int       `json:"display_order"`
	Description     string    `json:"description,omitempty"`
	IsActive        bool      `json:"is_active"`
	Version         int64     `json:"version"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// SegmentTreeNode nests segments for tree rendering. Children are
// ordered the way the service returns them: level, then display order.
type SegmentTreeNode struct {
	Segment  *Segment           `json:"segment"`
	Children []*SegmentTreeNode `json:"children"`
}

type Assignment struct {
	ID             int64     `json:"id"`
	EntityKind     string    `json:"entity_kind"`
	EntityID       string    `json:"entity_id"`
	CategoryAxisID int64     `json:"category_axis_id"`
	SegmentID      int64     `json:"segment_id"`
	IsActive       bool      `json:"is_active"`
	Version        int64     `json:"version"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// EntityClassification is the flattened "what is this entity" row: one
// axis, the segment bound on it.
type EntityClassification struct {
	AssignmentID int64  `json:"assignment_id"`
	AxisID       int64  `json:"axis_id"`
	AxisCode     string `json:"axis_code"`
	AxisName     string `json:"axis_name"`
	SegmentID    int64  `json:"segment_id"`
	SegmentCode  string `json:"segment_code"`
	SegmentName  string `json:"segment_name"`
}
