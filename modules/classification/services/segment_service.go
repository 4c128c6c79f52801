package services

import (
	"context"
	"strings"

	"github.com/go-faster/errors"

	"github.com/iota-uz/classification/modules/classification/domain/categoryaxis"
	"github.com/iota-uz/classification/modules/classification/domain/segment"
	"github.com/iota-uz/classification/modules/classification/infrastructure/persistence"
	"github.com/iota-uz/classification/pkg/composables"
	"github.com/iota-uz/classification/pkg/constants"
	"github.com/iota-uz/classification/pkg/eventbus"
)

const maxHierarchyDepth = segment.MaxHierarchyDepth

type SegmentService struct {
	repo      segment.Repository
	axisRepo  categoryaxis.Repository
	publisher eventbus.EventBus
}

func NewSegmentService(repo segment.Repository, axisRepo categoryaxis.Repository, publisher eventbus.EventBus) *SegmentService {
	return &SegmentService{
		repo:      repo,
		axisRepo:  axisRepo,
		publisher: publisher,
	}
}

func (s *SegmentService) Count(ctx context.Context, axisID int64) (int64, error) {
	return s.repo.Count(ctx, axisID)
}

func (s *SegmentService) GetPaginated(ctx context.Context, axisID int64, params *segment.FindParams) ([]*segment.Segment, error) {
	return s.repo.GetPaginated(ctx, axisID, params)
}

func (s *SegmentService) GetByID(ctx context.Context, id int64) (*segment.Segment, error) {
	seg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrSegmentNotFound) {
			return nil, errSegmentNotFound(id)
		}
		return nil, err
	}
	return seg, nil
}

// TreeNode is one entry of the assembled segment tree.
type TreeNode struct {
	Segment  *segment.Segment
	Children []*TreeNode
}

// GetTree assembles the active segments of an axis into a forest.
// A segment whose parent is not in the active set (deactivated parent)
// is promoted to a root rather than dropped.
func (s *SegmentService) GetTree(ctx context.Context, axisID int64) ([]*TreeNode, error) {
	segments, err := s.repo.ListActiveByAxis(ctx, axisID)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*TreeNode, len(segments))
	for _, seg := range segments {
		byID[seg.ID] = &TreeNode{Segment: seg}
	}

	roots := make([]*TreeNode, 0, 8)
	for _, seg := range segments {
		node := byID[seg.ID]
		if seg.ParentSegmentID != nil {
			if parent, ok := byID[*seg.ParentSegmentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots, nil
}

// FindAncestors walks the parent chain of a segment and returns it
// ordered root-first, excluding the segment itself.
func (s *SegmentService) FindAncestors(ctx context.Context, id int64) ([]*segment.Segment, error) {
	seg, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ancestors := make([]*segment.Segment, 0, maxHierarchyDepth)
	parentID := seg.ParentSegmentID
	for parentID != nil {
		parent, err := s.repo.GetByID(ctx, *parentID)
		if err != nil {
			if errors.Is(err, persistence.ErrSegmentNotFound) {
				break
			}
			return nil, err
		}
		ancestors = append([]*segment.Segment{parent}, ancestors...)
		if len(ancestors) > maxHierarchyDepth {
			return nil, errCircularReference(id)
		}
		parentID = parent.ParentSegmentID
	}
	return ancestors, nil
}

// FindDescendantIDs returns the segment's id plus every active
// descendant id, resolved through the materialized-path prefix match.
func (s *SegmentService) FindDescendantIDs(ctx context.Context, id int64) ([]int64, error) {
	ids, err := s.repo.FindDescendantIDs(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrSegmentNotFound) {
			return nil, errSegmentNotFound(id)
		}
		return nil, err
	}
	return ids, nil
}

type CreateSegmentInput struct {
	CategoryAxisID  int64  `validate:"required"`
	SegmentCode     string `validate:"required,max=50"`
	SegmentName     string `validate:"required,max=255"`
	ParentSegmentID *int64
	DisplayOrder    int
	Description     string
}

func (in *CreateSegmentInput) normalize() {
	in.SegmentCode = strings.TrimSpace(in.SegmentCode)
	in.SegmentName = strings.TrimSpace(in.SegmentName)
	in.Description = strings.TrimSpace(in.Description)
}

// Create inserts a segment under an axis. The materialized path depends
// on the row's own generated id, so creation is two-phase: insert with
// the parent's path as a placeholder, then persist the final path once
// the id is known. Both writes run in one transaction so a crash cannot
// leave the placeholder behind.
func (s *SegmentService) Create(ctx context.Context, in CreateSegmentInput) (*segment.Segment, error) {
	in.normalize()
	if err := constants.Validate.Struct(in); err != nil {
		return nil, err
	}

	seg, err := composables.InTxResult(ctx, func(txCtx context.Context) (*segment.Segment, error) {
		axis, err := s.axisRepo.GetByID(txCtx, in.CategoryAxisID)
		if err != nil {
			if errors.Is(err, persistence.ErrCategoryAxisNotFound) {
				return nil, errAxisNotFound(in.CategoryAxisID)
			}
			return nil, err
		}

		level := 1
		parentPath := ""
		if in.ParentSegmentID != nil {
			parent, err := s.resolveParent(txCtx, axis, *in.ParentSegmentID)
			if err != nil {
				return nil, err
			}
			level = parent.HierarchyLevel + 1
			if level > maxHierarchyDepth {
				return nil, errHierarchyDepthExceeded(level)
			}
			parentPath = parent.HierarchyPath
		}

		existing, err := s.repo.GetByCode(txCtx, in.CategoryAxisID, in.SegmentCode)
		if err != nil && !errors.Is(err, persistence.ErrSegmentNotFound) {
			return nil, err
		}
		if existing != nil {
			return nil, errSegmentCodeDuplicate(in.SegmentCode)
		}

		provisionalPath := parentPath
		if provisionalPath == "" {
			provisionalPath = "/"
		}
		data := &segment.Segment{
			CategoryAxisID:  in.CategoryAxisID,
			SegmentCode:     in.SegmentCode,
			SegmentName:     in.SegmentName,
			ParentSegmentID: in.ParentSegmentID,
			HierarchyLevel:  level,
			HierarchyPath:   provisionalPath,
			DisplayOrder:    in.DisplayOrder,
			Description:     in.Description,
			IsActive:        true,
			CreatedBy:       composables.UseActor(txCtx),
		}
		if err := s.repo.Create(txCtx, data); err != nil {
			return nil, err
		}

		data.HierarchyPath = segment.PathFor(parentPath, data.ID)
		if err := s.repo.UpdatePath(txCtx, data.ID, data.HierarchyPath, level); err != nil {
			return nil, err
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish("classification.segment.created", seg)
	return seg, nil
}

type UpdateSegmentInput struct {
	ExpectedVersion int64
	SegmentName     *string
	// ParentSegmentID reparents when set. The outer pointer distinguishes
	// "leave alone" (nil) from "set" (non-nil); the inner pointer may be
	// nil to promote the segment to a root.
	ParentSegmentID **int64
	DisplayOrder    *int
	Description     *string
	IsActive        *bool
}

// Update mutates a segment and may reparent it, which re-triggers the
// same-axis, depth and cycle checks and rewrites the subtree's paths.
func (s *SegmentService) Update(ctx context.Context, id int64, in UpdateSegmentInput) (*segment.Segment, error) {
	seg, err := composables.InTxResult(ctx, func(txCtx context.Context) (*segment.Segment, error) {
		current, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			if errors.Is(err, persistence.ErrSegmentNotFound) {
				return nil, errSegmentNotFound(id)
			}
			return nil, err
		}
		if current.Version != in.ExpectedVersion {
			return nil, errConcurrentUpdate()
		}

		if in.SegmentName != nil {
			current.SegmentName = strings.TrimSpace(*in.SegmentName)
		}
		if in.DisplayOrder != nil {
			current.DisplayOrder = *in.DisplayOrder
		}
		if in.Description != nil {
			current.Description = strings.TrimSpace(*in.Description)
		}
		if in.IsActive != nil {
			current.IsActive = *in.IsActive
		}
		current.UpdatedBy = composables.UseActor(txCtx)

		oldPath := current.HierarchyPath
		oldLevel := current.HierarchyLevel
		reparented := in.ParentSegmentID != nil && !sameParent(current.ParentSegmentID, *in.ParentSegmentID)
		if reparented {
			if err := s.reparent(txCtx, current, *in.ParentSegmentID); err != nil {
				return nil, err
			}
		}

		if err := s.repo.Update(txCtx, current); err != nil {
			if errors.Is(err, persistence.ErrSegmentNotFound) {
				return nil, errConcurrentUpdate()
			}
			return nil, err
		}

		// The moved row carries its own new path; descendants are
		// rebased in bulk so path and level never drift apart.
		if reparented {
			if err := s.repo.RebasePaths(txCtx, oldPath, current.HierarchyPath, current.HierarchyLevel-oldLevel, current.ID); err != nil {
				return nil, err
			}
		}
		return current, nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish("classification.segment.updated", seg)
	return seg, nil
}

// Deactivate soft-deletes a segment. Children stay attached to the
// deactivated parent; there is no cascade and no reactivation path.
func (s *SegmentService) Deactivate(ctx context.Context, id, expectedVersion int64) (*segment.Segment, error) {
	inactive := false
	return s.Update(ctx, id, UpdateSegmentInput{
		ExpectedVersion: expectedVersion,
		IsActive:        &inactive,
	})
}

// reparent validates the proposed parent and recomputes the moved
// segment's level and path. Depth is checked against the deepest node of
// the moving subtree, not just the segment itself, so no descendant can
// end up below the bound.
func (s *SegmentService) reparent(ctx context.Context, current *segment.Segment, newParentID *int64) error {
	axis, err := s.axisRepo.GetByID(ctx, current.CategoryAxisID)
	if err != nil {
		if errors.Is(err, persistence.ErrCategoryAxisNotFound) {
			return errAxisNotFound(current.CategoryAxisID)
		}
		return err
	}

	newLevel := 1
	parentPath := ""
	if newParentID != nil {
		parent, err := s.resolveParent(ctx, axis, *newParentID)
		if err != nil {
			return err
		}
		if err := s.checkNoCycle(ctx, current.ID, parent); err != nil {
			return err
		}
		newLevel = parent.HierarchyLevel + 1
		parentPath = parent.HierarchyPath
	}

	deepest, err := s.repo.MaxSubtreeLevel(ctx, current.HierarchyPath)
	if err != nil {
		return err
	}
	if deepest < current.HierarchyLevel {
		deepest = current.HierarchyLevel
	}
	if newLevel+(deepest-current.HierarchyLevel) > maxHierarchyDepth {
		return errHierarchyDepthExceeded(newLevel + deepest - current.HierarchyLevel)
	}

	current.ParentSegmentID = newParentID
	current.HierarchyLevel = newLevel
	current.HierarchyPath = segment.PathFor(parentPath, current.ID)
	return nil
}

// resolveParent loads a prospective parent and enforces that the axis is
// hierarchical and the parent lives in the same axis.
func (s *SegmentService) resolveParent(ctx context.Context, axis *categoryaxis.CategoryAxis, parentID int64) (*segment.Segment, error) {
	if !axis.SupportsHierarchy {
		return nil, errHierarchyNotAllowed(axis.ID)
	}
	parent, err := s.repo.GetByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, persistence.ErrSegmentNotFound) {
			return nil, errParentSegmentNotFound(parentID)
		}
		return nil, err
	}
	if parent.CategoryAxisID != axis.ID {
		return nil, errParentSegmentWrongAxis(axis.ID, parent.CategoryAxisID)
	}
	return parent, nil
}

// checkNoCycle walks the ancestor chain of the proposed parent and
// rejects the move if the segment being moved appears in it. The walk is
// O(depth), bounded by the hierarchy depth limit.
func (s *SegmentService) checkNoCycle(ctx context.Context, movedID int64, proposedParent *segment.Segment) error {
	node := proposedParent
	for steps := 0; ; steps++ {
		if node.ID == movedID {
			return errCircularReference(movedID)
		}
		if node.ParentSegmentID == nil {
			return nil
		}
		if steps >= maxHierarchyDepth {
			// Corrupt chain longer than the depth bound; treat as a cycle
			// rather than walking forever.
			return errCircularReference(movedID)
		}
		parent, err := s.repo.GetByID(ctx, *node.ParentSegmentID)
		if err != nil {
			if errors.Is(err, persistence.ErrSegmentNotFound) {
				return nil
			}
			return err
		}
		node = parent
	}
}

func sameParent(a *int64, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
