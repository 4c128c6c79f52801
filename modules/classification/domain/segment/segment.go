package segment

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxHierarchyDepth bounds hierarchy_level. Level 1 is a root.
const MaxHierarchyDepth = 5

// Segment is a value node within exactly one axis. Under a hierarchical
// axis segments form a tree; the parent pointer is the source of truth
// and hierarchy_level/hierarchy_path are maintained eagerly alongside it
// so descendant queries stay a prefix match instead of a recursive join.
type Segment struct {
	ID              int64
	TenantID        uuid.UUID
	CategoryAxisID  int64
	SegmentCode     string
	SegmentName     string
	ParentSegmentID *int64
	HierarchyLevel  int
	// HierarchyPath is the self-inclusive materialized path: the ids of
	// the ancestor chain joined and terminated with "/", e.g. "/3/17/42/".
	HierarchyPath string
	DisplayOrder  int
	Description   string
	IsActive      bool
	Version       int64
	CreatedBy     string
	UpdatedBy     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (s *Segment) IsRoot() bool {
	return s.ParentSegmentID == nil
}

// PathFor computes the materialized path of a segment given its parent's
// path ("" for roots) and its own id.
func PathFor(parentPath string, id int64) string {
	if parentPath == "" {
		return fmt.Sprintf("/%d/", id)
	}
	return fmt.Sprintf("%s%d/", parentPath, id)
}

// IsPathPrefix reports whether candidate lies inside the subtree rooted
// at the segment owning prefix (prefix is self-inclusive).
func IsPathPrefix(prefix, candidate string) bool {
	return strings.HasPrefix(candidate, prefix)
}
