package mappers

import (
	"github.com/iota-uz/classification/modules/classification/domain/assignment"
	"github.com/iota-uz/classification/modules/classification/domain/categoryaxis"
	"github.com/iota-uz/classification/modules/classification/domain/segment"
	"github.com/iota-uz/classification/modules/classification/presentation/viewmodels"
	"github.com/iota-uz/classification/modules/classification/services"
)

func CategoryAxisToViewModel(a *categoryaxis.CategoryAxis) *viewmodels.CategoryAxis {
	return &viewmodels.CategoryAxis{
		ID:                a.ID,
		AxisCode:          a.AxisCode,
		AxisName:          a.AxisName,
		TargetEntityKind:  a.TargetEntityKind.String(),
		SupportsHierarchy: a.SupportsHierarchy,
		DisplayOrder:      a.DisplayOrder,
		Description:       a.Description,
		IsActive:          a.IsActive,
		Version:           a.Version,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

func SegmentToViewModel(s *segment.Segment) *viewmodels.Segment {
	return &viewmodels.Segment{
		ID:              s.ID,
		CategoryAxisID:  s.CategoryAxisID,
		SegmentCode:     s.SegmentCode,
		SegmentName:     s.SegmentName,
		ParentSegmentID: s.ParentSegmentID,
		HierarchyLevel:  s.HierarchyLevel,
		HierarchyPath:   s.HierarchyPath,
		DisplayOrder:    s.DisplayOrder,
		Description:     s.Description,
		IsActive:        s.IsActive,
		Version:         s.Version,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

// SegmentTreeToViewModel converts the service forest recursively.
// Children is always non-nil so the JSON renders [] instead of null.
func SegmentTreeToViewModel(nodes []*services.TreeNode) []*viewmodels.SegmentTreeNode {
	out := make([]*viewmodels.SegmentTreeNode, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, &viewmodels.SegmentTreeNode{
			Segment:  SegmentToViewModel(node.Segment),
			Children: SegmentTreeToViewModel(node.Children),
		})
	}
	return out
}

func AssignmentToViewModel(a *assignment.SegmentAssignment) *viewmodels.Assignment {
	return &viewmodels.Assignment{
		ID:             a.ID,
		EntityKind:     a.EntityKind.String(),
		EntityID:       a.EntityID,
		CategoryAxisID: a.CategoryAxisID,
		SegmentID:      a.SegmentID,
		IsActive:       a.IsActive,
		Version:        a.Version,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func EntityClassificationToViewModel(c *assignment.EntityClassification) *viewmodels.EntityClassification {
	return &viewmodels.EntityClassification{
		AssignmentID: c.AssignmentID,
		AxisID:       c.AxisID,
		AxisCode:     c.AxisCode,
		AxisName:     c.AxisName,
		SegmentID:    c.SegmentID,
		SegmentCode:  c.SegmentCode,
		SegmentName:  c.SegmentName,
	}
}
