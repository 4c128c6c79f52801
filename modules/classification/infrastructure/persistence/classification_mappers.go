package persistence

import (
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iota-uz/classification/modules/classification/domain/assignment"
	"github.com/iota-uz/classification/modules/classification/domain/categoryaxis"
	"github.com/iota-uz/classification/modules/classification/domain/entitykind"
	"github.com/iota-uz/classification/modules/classification/domain/segment"
	"github.com/iota-uz/classification/modules/classification/infrastructure/persistence/models"
)

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func toDomainCategoryAxis(row *models.CategoryAxis) (*categoryaxis.CategoryAxis, error) {
	kind, err := entitykind.Parse(row.TargetEntityKind)
	if err != nil {
		return nil, errors.Wrap(err, "failed to map category axis")
	}
	return &categoryaxis.CategoryAxis{
		ID:                row.ID,
		TenantID:          uuid.UUID(row.TenantID.Bytes),
		AxisCode:          row.AxisCode,
		AxisName:          row.AxisName,
		TargetEntityKind:  kind,
		SupportsHierarchy: row.SupportsHierarchy,
		DisplayOrder:      int(row.DisplayOrder),
		Description:       row.Description,
		IsActive:          row.IsActive,
		Version:           row.Version,
		CreatedBy:         row.CreatedBy,
		UpdatedBy:         row.UpdatedBy,
		CreatedAt:         row.CreatedAt.Time,
		UpdatedAt:         row.UpdatedAt.Time,
	}, nil
}

func toDomainSegment(row *models.Segment) *segment.Segment {
	return &segment.Segment{
		ID:              row.ID,
		TenantID:        uuid.UUID(row.TenantID.Bytes),
		CategoryAxisID:  row.CategoryAxisID,
		SegmentCode:     row.SegmentCode,
		SegmentName:     row.SegmentName,
		ParentSegmentID: row.ParentSegmentID,
		HierarchyLevel:  int(row.HierarchyLevel),
		HierarchyPath:   row.HierarchyPath,
		DisplayOrder:    int(row.DisplayOrder),
		Description:     row.Description,
		IsActive:        row.IsActive,
		Version:         row.Version,
		CreatedBy:       row.CreatedBy,
		UpdatedBy:       row.UpdatedBy,
		CreatedAt:       row.CreatedAt.Time,
		UpdatedAt:       row.UpdatedAt.Time,
	}
}

func toDomainAssignment(row *models.SegmentAssignment) (*assignment.SegmentAssignment, error) {
	kind, err := entitykind.Parse(row.EntityKind)
	if err != nil {
		return nil, errors.Wrap(err, "failed to map segment assignment")
	}
	return &assignment.SegmentAssignment{
		ID:             row.ID,
		TenantID:       uuid.UUID(row.TenantID.Bytes),
		EntityKind:     kind,
		EntityID:       row.EntityID,
		CategoryAxisID: row.CategoryAxisID,
		SegmentID:      row.SegmentID,
		IsActive:       row.IsActive,
		Version:        row.Version,
		CreatedBy:      row.CreatedBy,
		UpdatedBy:      row.UpdatedBy,
		CreatedAt:      row.CreatedAt.Time,
		UpdatedAt:      row.UpdatedAt.Time,
	}, nil
}
