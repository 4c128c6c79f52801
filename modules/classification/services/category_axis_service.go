package services

import (
	"context"
	"strings"

	"github.com/go-faster/errors"

	"github.com/iota-uz/classification/modules/classification/domain/categoryaxis"
	"github.com/iota-uz/classification/modules/classification/domain/entitykind"
	"github.com/iota-uz/classification/modules/classification/infrastructure/persistence"
	"github.com/iota-uz/classification/pkg/composables"
	"github.com/iota-uz/classification/pkg/constants"
	"github.com/iota-uz/classification/pkg/eventbus"
)

type CategoryAxisService struct {
	repo      categoryaxis.Repository
	publisher eventbus.EventBus
}

func NewCategoryAxisService(repo categoryaxis.Repository, publisher eventbus.EventBus) *CategoryAxisService {
	return &CategoryAxisService{
		repo:      repo,
		publisher: publisher,
	}
}

func (s *CategoryAxisService) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

func (s *CategoryAxisService) GetPaginated(ctx context.Context, params *categoryaxis.FindParams) ([]*categoryaxis.CategoryAxis, error) {
	return s.repo.GetPaginated(ctx, params)
}

func (s *CategoryAxisService) GetByID(ctx context.Context, id int64) (*categoryaxis.CategoryAxis, error) {
	axis, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrCategoryAxisNotFound) {
			return nil, errAxisNotFound(id)
		}
		return nil, err
	}
	return axis, nil
}

type CreateAxisInput struct {
	AxisCode          string `validate:"required,max=50"`
	AxisName          string `validate:"required,max=255"`
	TargetEntityKind  entitykind.EntityKind
	SupportsHierarchy bool
	DisplayOrder      int
	Description       string
}

func (in *CreateAxisInput) normalize() {
	in.AxisCode = strings.TrimSpace(in.AxisCode)
	in.AxisName = strings.TrimSpace(in.AxisName)
	in.Description = strings.TrimSpace(in.Description)
}

func (s *CategoryAxisService) Create(ctx context.Context, in CreateAxisInput) (*categoryaxis.CategoryAxis, error) {
	in.normalize()
	if err := constants.Validate.Struct(in); err != nil {
		return nil, err
	}
	if !in.TargetEntityKind.IsValid() {
		return nil, errors.Errorf("unknown entity kind: %q", in.TargetEntityKind)
	}
	// Observed business rule, preserved as-is: only ITEM axes may be
	// hierarchical.
	if in.SupportsHierarchy && in.TargetEntityKind != entitykind.Item {
		return nil, errHierarchyNotSupported(in.TargetEntityKind)
	}

	axis, err := composables.InTxResult(ctx, func(txCtx context.Context) (*categoryaxis.CategoryAxis, error) {
		existing, err := s.repo.GetByCode(txCtx, in.AxisCode)
		if err != nil && !errors.Is(err, persistence.ErrCategoryAxisNotFound) {
			return nil, err
		}
		if existing != nil {
			return nil, errAxisCodeDuplicate(in.AxisCode)
		}

		data := &categoryaxis.CategoryAxis{
			AxisCode:          in.AxisCode,
			AxisName:          in.AxisName,
			TargetEntityKind:  in.TargetEntityKind,
			SupportsHierarchy: in.SupportsHierarchy,
			DisplayOrder:      in.DisplayOrder,
			Description:       in.Description,
			IsActive:          true,
			CreatedBy:         composables.UseActor(txCtx),
		}
		if err := s.repo.Create(txCtx, data); err != nil {
			return nil, err
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish("classification.axis.created", axis)
	return axis, nil
}

// UpdateAxisInput carries the mutable axis fields; axis_code and
// target_entity_kind are immutable post-creation and have no place here.
type UpdateAxisInput struct {
	ExpectedVersion int64
	AxisName        *string
	DisplayOrder    *int
	Description     *string
	IsActive        *bool
}

func (s *CategoryAxisService) Update(ctx context.Context, id int64, in UpdateAxisInput) (*categoryaxis.CategoryAxis, error) {
	axis, err := composables.InTxResult(ctx, func(txCtx context.Context) (*categoryaxis.CategoryAxis, error) {
		current, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			if errors.Is(err, persistence.ErrCategoryAxisNotFound) {
				return nil, errAxisNotFound(id)
			}
			return nil, err
		}
		if current.Version != in.ExpectedVersion {
			return nil, errConcurrentUpdate()
		}

		if in.AxisName != nil {
			current.AxisName = strings.TrimSpace(*in.AxisName)
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

		if err := s.repo.Update(txCtx, current); err != nil {
			// The row existed a moment ago: zero rows updated means the
			// version moved underneath us, not that the axis vanished.
			if errors.Is(err, persistence.ErrCategoryAxisNotFound) {
				return nil, errConcurrentUpdate()
			}
			return nil, err
		}
		return current, nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish("classification.axis.updated", axis)
	return axis, nil
}

// Deactivate soft-deletes an axis. Axes are never hard-deleted.
func (s *CategoryAxisService) Deactivate(ctx context.Context, id, expectedVersion int64) (*categoryaxis.CategoryAxis, error) {
	inactive := false
	return s.Update(ctx, id, UpdateAxisInput{
		ExpectedVersion: expectedVersion,
		IsActive:        &inactive,
	})
}
