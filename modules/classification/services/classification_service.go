package services

import (
	"context"
	"strings"

	"github.com/go-faster/errors"

	"github.com/iota-uz/classification/modules/classification/domain/assignment"
	"github.com/iota-uz/classification/modules/classification/domain/categoryaxis"
	"github.com/iota-uz/classification/modules/classification/domain/entitykind"
	"github.com/iota-uz/classification/modules/classification/domain/segment"
	"github.com/iota-uz/classification/modules/classification/infrastructure/persistence"
	"github.com/iota-uz/classification/pkg/composables"
	"github.com/iota-uz/classification/pkg/eventbus"
)

// ClassificationService owns segment assignments: the binding of one
// segment to one entity per axis. It stores nothing of its own but is
// where every cross-entity invariant is actually checked.
type ClassificationService struct {
	axisRepo       categoryaxis.Repository
	segmentRepo    segment.Repository
	assignmentRepo assignment.Repository
	segments       *SegmentService
	oracles        *OracleRegistry
	publisher      eventbus.EventBus
}

func NewClassificationService(
	axisRepo categoryaxis.Repository,
	segmentRepo segment.Repository,
	assignmentRepo assignment.Repository,
	segments *SegmentService,
	oracles *OracleRegistry,
	publisher eventbus.EventBus,
) *ClassificationService {
	return &ClassificationService{
		axisRepo:       axisRepo,
		segmentRepo:    segmentRepo,
		assignmentRepo: assignmentRepo,
		segments:       segments,
		oracles:        oracles,
		publisher:      publisher,
	}
}

type UpsertAssignmentInput struct {
	EntityKind     entitykind.EntityKind
	EntityID       string
	CategoryAxisID int64
	SegmentID      int64
}

// UpsertAssignment applies "one axis, one value": the existing active
// assignment for the (kind, entity, axis) key is rebound to the new
// segment, or a fresh row is inserted when none exists. Every check runs
// before the write; the partial unique index backstops the insert race.
func (s *ClassificationService) UpsertAssignment(ctx context.Context, in UpsertAssignmentInput) (*assignment.SegmentAssignment, error) {
	in.EntityID = strings.TrimSpace(in.EntityID)
	if in.EntityID == "" {
		return nil, errors.New("entity id is required")
	}
	if !in.EntityKind.IsValid() {
		return nil, errors.Errorf("unknown entity kind: %q", in.EntityKind)
	}

	asg, err := composables.InTxResult(ctx, func(txCtx context.Context) (*assignment.SegmentAssignment, error) {
		axis, err := s.axisRepo.GetByID(txCtx, in.CategoryAxisID)
		if err != nil {
			if errors.Is(err, persistence.ErrCategoryAxisNotFound) {
				return nil, errAxisNotFound(in.CategoryAxisID)
			}
			return nil, err
		}
		if axis.TargetEntityKind != in.EntityKind {
			return nil, errInvalidEntityKind(axis.TargetEntityKind, in.EntityKind)
		}

		seg, err := s.segmentRepo.GetByID(txCtx, in.SegmentID)
		if err != nil {
			if errors.Is(err, persistence.ErrSegmentNotFound) {
				return nil, errSegmentNotFound(in.SegmentID)
			}
			return nil, err
		}
		// Deactivated segments accept no new bindings; they are invisible
		// to the caller, same as in descendant queries.
		if !seg.IsActive {
			return nil, errSegmentNotFound(in.SegmentID)
		}
		if seg.CategoryAxisID != in.CategoryAxisID {
			return nil, errSegmentNotInAxis(in.SegmentID, in.CategoryAxisID)
		}

		tenantID, err := composables.UseTenantID(txCtx)
		if err != nil {
			return nil, err
		}
		exists, err := s.oracles.Exists(txCtx, tenantID, in.EntityKind, in.EntityID)
		if err != nil {
			if errors.Is(err, ErrEntityKindNotSupported) {
				return nil, errEntityKindNotSupported(in.EntityKind)
			}
			return nil, err
		}
		if !exists {
			return nil, errEntityNotFound(in.EntityKind, in.EntityID)
		}

		actor := composables.UseActor(txCtx)
		existing, err := s.assignmentRepo.GetByEntityAndAxis(txCtx, in.EntityKind, in.EntityID, in.CategoryAxisID)
		if err != nil && !errors.Is(err, persistence.ErrAssignmentNotFound) {
			return nil, err
		}

		if existing != nil {
			existing.SegmentID = in.SegmentID
			existing.UpdatedBy = actor
			if err := s.assignmentRepo.Update(txCtx, existing); err != nil {
				if errors.Is(err, persistence.ErrAssignmentNotFound) {
					return nil, errConcurrentUpdate()
				}
				return nil, err
			}
			return existing, nil
		}

		data := &assignment.SegmentAssignment{
			EntityKind:     in.EntityKind,
			EntityID:       in.EntityID,
			CategoryAxisID: in.CategoryAxisID,
			SegmentID:      in.SegmentID,
			IsActive:       true,
			CreatedBy:      actor,
		}
		if err := s.assignmentRepo.Create(txCtx, data); err != nil {
			if errors.Is(err, persistence.ErrDuplicateActiveAssignment) {
				return nil, errConcurrentUpdate()
			}
			return nil, err
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish("classification.assignment.upserted", asg)
	return asg, nil
}

// DeleteAssignment deactivates an assignment. The row is terminal once
// inactive; a subsequent upsert for the same key creates a new row.
func (s *ClassificationService) DeleteAssignment(ctx context.Context, id, expectedVersion int64) error {
	err := composables.InTx(ctx, func(txCtx context.Context) error {
		current, err := s.assignmentRepo.GetByID(txCtx, id)
		if err != nil {
			if errors.Is(err, persistence.ErrAssignmentNotFound) {
				return errAssignmentNotFound(id)
			}
			return err
		}
		if !current.IsActive || current.Version != expectedVersion {
			return errConcurrentUpdate()
		}

		if err := s.assignmentRepo.SoftDelete(txCtx, id, expectedVersion, composables.UseActor(txCtx)); err != nil {
			if errors.Is(err, persistence.ErrAssignmentNotFound) {
				return errConcurrentUpdate()
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publisher.Publish("classification.assignment.deleted", id)
	return nil
}

// GetEntitySegments resolves everything an entity is classified as: one
// (axis, segment) tuple per active assignment. A read-side convenience,
// not a new invariant.
func (s *ClassificationService) GetEntitySegments(ctx context.Context, kind entitykind.EntityKind, entityID string) ([]*assignment.EntityClassification, error) {
	if !kind.IsValid() {
		return nil, errors.Errorf("unknown entity kind: %q", kind)
	}
	return s.assignmentRepo.ListEntityClassifications(ctx, kind, entityID)
}

func (s *ClassificationService) ListByEntity(ctx context.Context, kind entitykind.EntityKind, entityID string) ([]*assignment.SegmentAssignment, error) {
	return s.assignmentRepo.ListByEntity(ctx, kind, entityID)
}

func (s *ClassificationService) ListBySegment(ctx context.Context, segmentID int64, params *assignment.FindParams) ([]*assignment.SegmentAssignment, error) {
	return s.assignmentRepo.ListBySegments(ctx, []int64{segmentID}, params)
}

// ListBySegmentWithDescendants lists assignments bound to a segment or
// anything under it. The descendant set comes from the segment side; the
// assignment store never interprets hierarchy.
func (s *ClassificationService) ListBySegmentWithDescendants(ctx context.Context, segmentID int64, params *assignment.FindParams) ([]*assignment.SegmentAssignment, error) {
	ids, err := s.segments.FindDescendantIDs(ctx, segmentID)
	if err != nil {
		return nil, err
	}
	return s.assignmentRepo.ListBySegments(ctx, ids, params)
}
