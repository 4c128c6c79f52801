package persistence

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iota-uz/classification/modules/classification/domain/categoryaxis"
	"github.com/iota-uz/classification/modules/classification/infrastructure/persistence/models"
	"github.com/iota-uz/classification/pkg/composables"
	"github.com/iota-uz/classification/pkg/repo"
)

var (
	ErrCategoryAxisNotFound = errors.New("category axis not found")
)

const (
	categoryAxisFindQuery = `
        SELECT
            ca.id,
            ca.tenant_id,
            ca.axis_code,
            ca.axis_name,
            ca.target_entity_kind,
            ca.supports_hierarchy,
            ca.display_order,
            ca.description,
            ca.is_active,
            ca.version,
            ca.created_by,
            ca.updated_by,
            ca.created_at,
            ca.updated_at
        FROM category_axes ca`

	categoryAxisCountQuery = `SELECT COUNT(ca.id) FROM category_axes ca WHERE ca.tenant_id = $1`

	categoryAxisInsertQuery = `
        INSERT INTO category_axes (
            tenant_id, axis_code, axis_name, target_entity_kind,
            supports_hierarchy, display_order, description, is_active,
            version, created_by, updated_by
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1, $9, $9)
        RETURNING id, version, created_at, updated_at`

	categoryAxisUpdateQuery = `
        UPDATE category_axes
        SET axis_name = $4,
            display_order = $5,
            description = $6,
            is_active = $7,
            version = version + 1,
            updated_by = $8,
            updated_at = NOW()
        WHERE id = $1 AND tenant_id = $2 AND version = $3
        RETURNING version, updated_at`
)

type PgCategoryAxisRepository struct{}

func NewCategoryAxisRepository() categoryaxis.Repository {
	return &PgCategoryAxisRepository{}
}

func (g *PgCategoryAxisRepository) GetPaginated(ctx context.Context, params *categoryaxis.FindParams) ([]*categoryaxis.CategoryAxis, error) {
	if params == nil {
		params = &categoryaxis.FindParams{}
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	where := []string{"ca.tenant_id = $1"}
	args := []any{pgUUID(tenantID)}
	if params.IsActive != nil {
		args = append(args, *params.IsActive)
		where = append(where, "ca.is_active = $2")
	}

	q := categoryAxisFindQuery +
		" WHERE " + strings.Join(where, " AND ") +
		" ORDER BY ca.display_order, ca.axis_code " +
		repo.FormatLimitOffset(params.Limit, params.Offset)

	rows, err := tx.Query(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list category axes")
	}
	defer rows.Close()

	return scanCategoryAxes(rows)
}

func (g *PgCategoryAxisRepository) Count(ctx context.Context) (int64, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return 0, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := tx.QueryRow(ctx, categoryAxisCountQuery, pgUUID(tenantID)).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count category axes")
	}
	return count, nil
}

func (g *PgCategoryAxisRepository) GetByID(ctx context.Context, id int64) (*categoryaxis.CategoryAxis, error) {
	return g.getOne(ctx, " WHERE ca.id = $1 AND ca.tenant_id = $2", func(tenantID any) []any {
		return []any{id, tenantID}
	})
}

func (g *PgCategoryAxisRepository) GetByCode(ctx context.Context, axisCode string) (*categoryaxis.CategoryAxis, error) {
	return g.getOne(ctx, " WHERE ca.axis_code = $1 AND ca.tenant_id = $2", func(tenantID any) []any {
		return []any{axisCode, tenantID}
	})
}

func (g *PgCategoryAxisRepository) getOne(ctx context.Context, where string, buildArgs func(tenantID any) []any) (*categoryaxis.CategoryAxis, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, categoryAxisFindQuery+where, buildArgs(pgUUID(tenantID))...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get category axis")
	}
	defer rows.Close()

	axes, err := scanCategoryAxes(rows)
	if err != nil {
		return nil, err
	}
	if len(axes) == 0 {
		return nil, ErrCategoryAxisNotFound
	}
	return axes[0], nil
}

func (g *PgCategoryAxisRepository) Create(ctx context.Context, data *categoryaxis.CategoryAxis) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	var createdAt, updatedAt pgtype.Timestamptz
	err = tx.QueryRow(
		ctx,
		categoryAxisInsertQuery,
		pgUUID(tenantID),
		data.AxisCode,
		data.AxisName,
		data.TargetEntityKind.String(),
		data.SupportsHierarchy,
		int32(data.DisplayOrder),
		data.Description,
		data.IsActive,
		data.CreatedBy,
	).Scan(&data.ID, &data.Version, &createdAt, &updatedAt)
	if err != nil {
		return errors.Wrap(err, "failed to create category axis")
	}
	data.TenantID = tenantID
	data.UpdatedBy = data.CreatedBy
	data.CreatedAt = createdAt.Time
	data.UpdatedAt = updatedAt.Time
	return nil
}

func (g *PgCategoryAxisRepository) Update(ctx context.Context, data *categoryaxis.CategoryAxis) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	var updatedAt pgtype.Timestamptz
	err = tx.QueryRow(
		ctx,
		categoryAxisUpdateQuery,
		data.ID,
		pgUUID(tenantID),
		data.Version,
		data.AxisName,
		int32(data.DisplayOrder),
		data.Description,
		data.IsActive,
		data.UpdatedBy,
	).Scan(&data.Version, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCategoryAxisNotFound
		}
		return errors.Wrap(err, "failed to update category axis")
	}
	data.UpdatedAt = updatedAt.Time
	return nil
}

func scanCategoryAxes(rows pgx.Rows) ([]*categoryaxis.CategoryAxis, error) {
	axes := make([]*categoryaxis.CategoryAxis, 0)
	for rows.Next() {
		var row models.CategoryAxis
		if err := rows.Scan(
			&row.ID,
			&row.TenantID,
			&row.AxisCode,
			&row.AxisName,
			&row.TargetEntityKind,
			&row.SupportsHierarchy,
			&row.DisplayOrder,
			&row.Description,
			&row.IsActive,
			&row.Version,
			&row.CreatedBy,
			&row.UpdatedBy,
			&row.CreatedAt,
			&row.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan category axis")
		}
		entity, err := toDomainCategoryAxis(&row)
		if err != nil {
			return nil, err
		}
		axes = append(axes, entity)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return axes, nil
}
