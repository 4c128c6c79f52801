package persistence

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iota-uz/classification/modules/classification/domain/segment"
	"github.com/iota-uz/classification/modules/classification/infrastructure/persistence/models"
	"github.com/iota-uz/classification/pkg/composables"
	"github.com/iota-uz/classification/pkg/repo"
)

var (
	ErrSegmentNotFound = errors.New("segment not found")
)

const (
	segmentFindQuery = `
        SELECT
            s.id,
            s.tenant_id,
            s.category_axis_id,
            s.segment_code,
            s.segment_name,
            s.parent_segment_id,
            s.hierarchy_level,
            s.hierarchy_path,
            s.display_order,
            s.description,
            s.is_active,
            s.version,
            s.created_by,
            s.updated_by,
            s.created_at,
            s.updated_at
        FROM segments s`

	segmentCountQuery = `SELECT COUNT(s.id) FROM segments s WHERE s.tenant_id = $1 AND s.category_axis_id = $2`

	segmentInsertQuery = `
        INSERT INTO segments (
            tenant_id, category_axis_id, segment_code, segment_name,
            parent_segment_id, hierarchy_level, hierarchy_path,
            display_order, description, is_active, version,
            created_by, updated_by
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 1, $11, $11)
        RETURNING id, version, created_at, updated_at`

	segmentUpdatePathQuery = `
        UPDATE segments
        SET hierarchy_path = $3, hierarchy_level = $4, updated_at = NOW()
        WHERE id = $1 AND tenant_id = $2`

	segmentUpdateQuery = `
        UPDATE segments
        SET segment_name = $4,
            parent_segment_id = $5,
            hierarchy_level = $6,
            hierarchy_path = $7,
            display_order = $8,
            description = $9,
            is_active = $10,
            version = version + 1,
            updated_by = $11,
            updated_at = NOW()
        WHERE id = $1 AND tenant_id = $2 AND version = $3
        RETURNING version, updated_at`

	// The prefix match is the sole descendant mechanism: the materialized
	// path is maintained eagerly on every parent change precisely so this
	// never needs a recursive join. Self is included regardless of its
	// own active flag.
	segmentDescendantIDsQuery = `
        SELECT s.id
        FROM segments s
        JOIN segments base
            ON base.tenant_id = s.tenant_id
            AND s.hierarchy_path LIKE base.hierarchy_path || '%'
        WHERE base.id = $1
            AND base.tenant_id = $2
            AND (s.id = base.id OR s.is_active)
        ORDER BY s.hierarchy_level, s.id`

	segmentMaxSubtreeLevelQuery = `
        SELECT COALESCE(MAX(s.hierarchy_level), 0)
        FROM segments s
        WHERE s.tenant_id = $1 AND s.hierarchy_path LIKE $2 || '%'`

	segmentRebasePathsQuery = `
        UPDATE segments
        SET hierarchy_path = $3 || SUBSTR(hierarchy_path, LENGTH($2) + 1),
            hierarchy_level = hierarchy_level + $4,
            updated_at = NOW()
        WHERE tenant_id = $1
            AND hierarchy_path LIKE $2 || '%'
            AND id <> $5`
)

type PgSegmentRepository struct{}

func NewSegmentRepository() segment.Repository {
	return &PgSegmentRepository{}
}

func (g *PgSegmentRepository) GetPaginated(ctx context.Context, axisID int64, params *segment.FindParams) ([]*segment.Segment, error) {
	if params == nil {
		params = &segment.FindParams{}
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	where := []string{"s.tenant_id = $1", "s.category_axis_id = $2"}
	args := []any{pgUUID(tenantID), axisID}
	if params.IsActive != nil {
		args = append(args, *params.IsActive)
		where = append(where, "s.is_active = $3")
	}

	q := segmentFindQuery +
		" WHERE " + strings.Join(where, " AND ") +
		" ORDER BY s.hierarchy_level, s.display_order, s.segment_code " +
		repo.FormatLimitOffset(params.Limit, params.Offset)

	rows, err := tx.Query(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list segments")
	}
	defer rows.Close()

	return scanSegments(rows)
}

func (g *PgSegmentRepository) Count(ctx context.Context, axisID int64) (int64, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return 0, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := tx.QueryRow(ctx, segmentCountQuery, pgUUID(tenantID), axisID).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count segments")
	}
	return count, nil
}

func (g *PgSegmentRepository) ListActiveByAxis(ctx context.Context, axisID int64) ([]*segment.Segment, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	q := segmentFindQuery + `
        WHERE s.tenant_id = $1 AND s.category_axis_id = $2 AND s.is_active
        ORDER BY s.hierarchy_level, s.display_order, s.segment_code`

	rows, err := tx.Query(ctx, q, pgUUID(tenantID), axisID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list active segments")
	}
	defer rows.Close()

	return scanSegments(rows)
}

func (g *PgSegmentRepository) GetByID(ctx context.Context, id int64) (*segment.Segment, error) {
	return g.getOne(ctx, " WHERE s.id = $1 AND s.tenant_id = $2", func(tenantID any) []any {
		return []any{id, tenantID}
	})
}

func (g *PgSegmentRepository) GetByCode(ctx context.Context, axisID int64, segmentCode string) (*segment.Segment, error) {
	return g.getOne(
		ctx,
		" WHERE s.category_axis_id = $1 AND s.segment_code = $2 AND s.tenant_id = $3",
		func(tenantID any) []any {
			return []any{axisID, segmentCode, tenantID}
		},
	)
}

func (g *PgSegmentRepository) getOne(ctx context.Context, where string, buildArgs func(tenantID any) []any) (*segment.Segment, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, segmentFindQuery+where, buildArgs(pgUUID(tenantID))...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get segment")
	}
	defer rows.Close()

	segments, err := scanSegments(rows)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, ErrSegmentNotFound
	}
	return segments[0], nil
}

func (g *PgSegmentRepository) Create(ctx context.Context, data *segment.Segment) error {
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
		segmentInsertQuery,
		pgUUID(tenantID),
		data.CategoryAxisID,
		data.SegmentCode,
		data.SegmentName,
		data.ParentSegmentID,
		int32(data.HierarchyLevel),
		data.HierarchyPath,
		int32(data.DisplayOrder),
		data.Description,
		data.IsActive,
		data.CreatedBy,
	).Scan(&data.ID, &data.Version, &createdAt, &updatedAt)
	if err != nil {
		return errors.Wrap(err, "failed to create segment")
	}
	data.TenantID = tenantID
	data.UpdatedBy = data.CreatedBy
	data.CreatedAt = createdAt.Time
	data.UpdatedAt = updatedAt.Time
	return nil
}

func (g *PgSegmentRepository) UpdatePath(ctx context.Context, id int64, hierarchyPath string, hierarchyLevel int) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, segmentUpdatePathQuery, id, pgUUID(tenantID), hierarchyPath, int32(hierarchyLevel))
	if err != nil {
		return errors.Wrap(err, "failed to update segment path")
	}
	if tag.RowsAffected() == 0 {
		return ErrSegmentNotFound
	}
	return nil
}

func (g *PgSegmentRepository) Update(ctx context.Context, data *segment.Segment) error {
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
		segmentUpdateQuery,
		data.ID,
		pgUUID(tenantID),
		data.Version,
		data.SegmentName,
		data.ParentSegmentID,
		int32(data.HierarchyLevel),
		data.HierarchyPath,
		int32(data.DisplayOrder),
		data.Description,
		data.IsActive,
		data.UpdatedBy,
	).Scan(&data.Version, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSegmentNotFound
		}
		return errors.Wrap(err, "failed to update segment")
	}
	data.UpdatedAt = updatedAt.Time
	return nil
}

func (g *PgSegmentRepository) FindDescendantIDs(ctx context.Context, id int64) ([]int64, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, segmentDescendantIDsQuery, id, pgUUID(tenantID))
	if err != nil {
		return nil, errors.Wrap(err, "failed to find descendant ids")
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var descendantID int64
		if err := rows.Scan(&descendantID); err != nil {
			return nil, errors.Wrap(err, "failed to scan descendant id")
		}
		ids = append(ids, descendantID)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	if len(ids) == 0 {
		return nil, ErrSegmentNotFound
	}
	return ids, nil
}

func (g *PgSegmentRepository) MaxSubtreeLevel(ctx context.Context, pathPrefix string) (int, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return 0, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}

	var level int32
	if err := tx.QueryRow(ctx, segmentMaxSubtreeLevelQuery, pgUUID(tenantID), pathPrefix).Scan(&level); err != nil {
		return 0, errors.Wrap(err, "failed to resolve subtree depth")
	}
	return int(level), nil
}

func (g *PgSegmentRepository) RebasePaths(ctx context.Context, oldPrefix, newPrefix string, levelDelta int, excludeID int64) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, segmentRebasePathsQuery, pgUUID(tenantID), oldPrefix, newPrefix, int32(levelDelta), excludeID)
	if err != nil {
		return errors.Wrap(err, "failed to rebase segment paths")
	}
	return nil
}

func scanSegments(rows pgx.Rows) ([]*segment.Segment, error) {
	segments := make([]*segment.Segment, 0)
	for rows.Next() {
		var row models.Segment
		if err := rows.Scan(
			&row.ID,
			&row.TenantID,
			&row.CategoryAxisID,
			&row.SegmentCode,
			&row.SegmentName,
			&row.ParentSegmentID,
			&row.HierarchyLevel,
			&row.HierarchyPath,
			&row.DisplayOrder,
			&row.Description,
			&row.IsActive,
			&row.Version,
			&row.CreatedBy,
			&row.UpdatedBy,
			&row.CreatedAt,
			&row.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan segment")
		}
		segments = append(segments, toDomainSegment(&row))
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return segments, nil
}
