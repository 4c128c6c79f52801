package assignment

import (
	"context"

	"github.com/iota-uz/classification/modules/classification/domain/entitykind"
)

type FindParams struct {
	Limit  int
	Offset int
}

type Repository interface {
	GetByID(ctx context.Context, id int64) (*SegmentAssignment, error)
	// GetByEntityAndAxis returns the single active assignment for the
	// (kind, entity, axis) key, or the store's not-found sentinel.
	GetByEntityAndAxis(ctx context.Context, kind entitykind.EntityKind, entityID string, axisID int64) (*SegmentAssignment, error)
	ListByEntity(ctx context.Context, kind entitykind.EntityKind, entityID string) ([]*SegmentAssignment, error)
	// ListBySegments serves both plain by-segment listing and the
	// with-descendants variant: the id set is produced by the segment
	// side, this layer never interprets hierarchy.
	ListBySegments(ctx context.Context, segmentIDs []int64, params *FindParams) ([]*SegmentAssignment, error)
	CountBySegments(ctx context.Context, segmentIDs []int64) (int64, error)
	// ListEntityClassifications joins active assignments with axis and
	// segment rows for the read-side convenience lookup.
	ListEntityClassifications(ctx context.Context, kind entitykind.EntityKind, entityID string) ([]*EntityClassification, error)

	Create(ctx context.Context, data *SegmentAssignment) error
	// Update is a compare-and-swap on data.Version, rebinding SegmentID.
	Update(ctx context.Context, data *SegmentAssignment) error
	// SoftDelete deactivates the row under the same compare-and-swap.
	SoftDelete(ctx context.Context, id, expectedVersion int64, updatedBy string) error
}
