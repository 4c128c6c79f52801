package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iota-uz/classification/modules/classification/domain/assignment"
	"github.com/iota-uz/classification/modules/classification/domain/entitykind"
	"github.com/iota-uz/classification/modules/classification/infrastructure/persistence/models"
	"github.com/iota-uz/classification/pkg/composables"
	"github.com/iota-uz/classification/pkg/repo"
)

var (
	ErrAssignmentNotFound = errors.New("segment assignment not found")
	// ErrDuplicateActiveAssignment reports that the partial unique index
	// on active assignments rejected an insert. The caller lost an
	// upsert race for the same entity and axis.
	ErrDuplicateActiveAssignment = errors.New("active assignment already exists")
)

const uniqueViolationCode = "23505"

const (
	assignmentFindQuery = `
        SELECT
            sa.id,
            sa.tenant_id,
            sa.entity_kind,
            sa.entity_id,
            sa.category_axis_id,
            sa.segment_id,
            sa.is_active,
            sa.version,
            sa.created_by,
            sa.updated_by,
            sa.created_at,
            sa.updated_at
        FROM segment_assignments sa`

	assignmentInsertQuery = `
        INSERT INTO segment_assignments (
            tenant_id, entity_kind, entity_id, category_axis_id,
            segment_id, is_active, version, created_by, updated_by
        ) VALUES ($1, $2, $3, $4, $5, TRUE, 1, $6, $6)
        RETURNING id, version, created_at, updated_at`

	assignmentUpdateQuery = `
        UPDATE segment_assignments
        SET segment_id = $4,
            version = version + 1,
            updated_by = $5,
            updated_at = NOW()
        WHERE id = $1 AND tenant_id = $2 AND version = $3 AND is_active
        RETURNING version, updated_at`

	assignmentSoftDeleteQuery = `
        UPDATE segment_assignments
        SET is_active = FALSE,
            version = version + 1,
            updated_by = $4,
            updated_at = NOW()
        WHERE id = $1 AND tenant_id = $2 AND version = $3 AND is_active`

	assignmentCountBySegmentsQuery = `
        SELECT COUNT(sa.id)
        FROM segment_assignments sa
        WHERE sa.tenant_id = $1 AND sa.segment_id = ANY($2) AND sa.is_active`

	entityClassificationsQuery = `
        SELECT
            sa.id,
            ca.id,
            ca.axis_code,
            ca.axis_name,
            s.id,
            s.segment_code,
            s.segment_name
        FROM segment_assignments sa
        JOIN category_axes ca
            ON ca.tenant_id = sa.tenant_id AND ca.id = sa.category_axis_id
        JOIN segments s
            ON s.tenant_id = sa.tenant_id AND s.id = sa.segment_id
        WHERE sa.tenant_id = $1
            AND sa.entity_kind = $2
            AND sa.entity_id = $3
            AND sa.is_active
        ORDER BY ca.display_order, ca.axis_code`
)

type PgAssignmentRepository struct{}

func NewAssignmentRepository() assignment.Repository {
	return &PgAssignmentRepository{}
}

func (g *PgAssignmentRepository) GetByID(ctx context.Context, id int64) (*assignment.SegmentAssignment, error) {
	return g.getOne(ctx, " WHERE sa.id = $1 AND sa.tenant_id = $2", func(tenantID any) []any {
		return []any{id, tenantID}
	})
}

func (g *PgAssignmentRepository) GetByEntityAndAxis(
	ctx context.Context,
	kind entitykind.EntityKind,
	entityID string,
	axisID int64,
) (*assignment.SegmentAssignment, error) {
	return g.getOne(
		ctx,
		` WHERE sa.entity_kind = $1
            AND sa.entity_id = $2
            AND sa.category_axis_id = $3
            AND sa.tenant_id = $4
            AND sa.is_active`,
		func(tenantID any) []any {
			return []any{kind.String(), entityID, axisID, tenantID}
		},
	)
}

func (g *PgAssignmentRepository) getOne(ctx context.Context, where string, buildArgs func(tenantID any) []any) (*assignment.SegmentAssignment, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, assignmentFindQuery+where, buildArgs(pgUUID(tenantID))...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get segment assignment")
	}
	defer rows.Close()

	assignments, err := scanAssignments(rows)
	if err != nil {
		return nil, err
	}
	if len(assignments) == 0 {
		return nil, ErrAssignmentNotFound
	}
	return assignments[0], nil
}

func (g *PgAssignmentRepository) ListByEntity(ctx context.Context, kind entitykind.EntityKind, entityID string) ([]*assignment.SegmentAssignment, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	q := assignmentFindQuery + `
        WHERE sa.entity_kind = $1 AND sa.entity_id = $2 AND sa.tenant_id = $3 AND sa.is_active
        ORDER BY sa.category_axis_id`

	rows, err := tx.Query(ctx, q, kind.String(), entityID, pgUUID(tenantID))
	if err != nil {
		return nil, errors.Wrap(err, "failed to list assignments by entity")
	}
	defer rows.Close()

	return scanAssignments(rows)
}

func (g *PgAssignmentRepository) ListBySegments(ctx context.Context, segmentIDs []int64, params *assignment.FindParams) ([]*assignment.SegmentAssignment, error) {
	if len(segmentIDs) == 0 {
		return []*assignment.SegmentAssignment{}, nil
	}
	if params == nil {
		params = &assignment.FindParams{}
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	q := assignmentFindQuery + `
        WHERE sa.tenant_id = $1 AND sa.segment_id = ANY($2) AND sa.is_active
        ORDER BY sa.entity_kind, sa.entity_id ` +
		repo.FormatLimitOffset(params.Limit, params.Offset)

	rows, err := tx.Query(ctx, q, pgUUID(tenantID), segmentIDs)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list assignments by segments")
	}
	defer rows.Close()

	return scanAssignments(rows)
}

func (g *PgAssignmentRepository) CountBySegments(ctx context.Context, segmentIDs []int64) (int64, error) {
	if len(segmentIDs) == 0 {
		return 0, nil
	}

	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return 0, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := tx.QueryRow(ctx, assignmentCountBySegmentsQuery, pgUUID(tenantID), segmentIDs).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count assignments by segments")
	}
	return count, nil
}

func (g *PgAssignmentRepository) ListEntityClassifications(ctx context.Context, kind entitykind.EntityKind, entityID string) ([]*assignment.EntityClassification, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, entityClassificationsQuery, pgUUID(tenantID), kind.String(), entityID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list entity classifications")
	}
	defer rows.Close()

	out := make([]*assignment.EntityClassification, 0)
	for rows.Next() {
		var row assignment.EntityClassification
		if err := rows.Scan(
			&row.AssignmentID,
			&row.AxisID,
			&row.AxisCode,
			&row.AxisName,
			&row.SegmentID,
			&row.SegmentCode,
			&row.SegmentName,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan entity classification")
		}
		out = append(out, &row)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (g *PgAssignmentRepository) Create(ctx context.Context, data *assignment.SegmentAssignment) error {
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
		assignmentInsertQuery,
		pgUUID(tenantID),
		data.EntityKind.String(),
		data.EntityID,
		data.CategoryAxisID,
		data.SegmentID,
		data.CreatedBy,
	).Scan(&data.ID, &data.Version, &createdAt, &updatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return ErrDuplicateActiveAssignment
		}
		return errors.Wrap(err, "failed to create segment assignment")
	}
	data.TenantID = tenantID
	data.IsActive = true
	data.UpdatedBy = data.CreatedBy
	data.CreatedAt = createdAt.Time
	data.UpdatedAt = updatedAt.Time
	return nil
}

func (g *PgAssignmentRepository) Update(ctx context.Context, data *assignment.SegmentAssignment) error {
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
		assignmentUpdateQuery,
		data.ID,
		pgUUID(tenantID),
		data.Version,
		data.SegmentID,
		data.UpdatedBy,
	).Scan(&data.Version, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAssignmentNotFound
		}
		return errors.Wrap(err, "failed to update segment assignment")
	}
	data.UpdatedAt = updatedAt.Time
	return nil
}

func (g *PgAssignmentRepository) SoftDelete(ctx context.Context, id, expectedVersion int64, updatedBy string) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, assignmentSoftDeleteQuery, id, pgUUID(tenantID), expectedVersion, updatedBy)
	if err != nil {
		return errors.Wrap(err, "failed to soft-delete segment assignment")
	}
	if tag.RowsAffected() == 0 {
		return ErrAssignmentNotFound
	}
	return nil
}

func scanAssignments(rows pgx.Rows) ([]*assignment.SegmentAssignment, error) {
	assignments := make([]*assignment.SegmentAssignment, 0)
	for rows.Next() {
		var row models.SegmentAssignment
		if err := rows.Scan(
			&row.ID,
			&row.TenantID,
			&row.EntityKind,
			&row.EntityID,
			&row.CategoryAxisID,
			&row.SegmentID,
			&row.IsActive,
			&row.Version,
			&row.CreatedBy,
			&row.UpdatedBy,
			&row.CreatedAt,
			&row.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan segment assignment")
		}
		entity, err := toDomainAssignment(&row)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, entity)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return assignments, nil
}
