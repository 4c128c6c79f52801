package services_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/classification/modules/classification/domain/assignment"
	"github.com/iota-uz/classification/modules/classification/domain/categoryaxis"
	"github.com/iota-uz/classification/modules/classification/domain/entitykind"
	"github.com/iota-uz/classification/modules/classification/domain/segment"
	"github.com/iota-uz/classification/modules/classification/infrastructure/persistence"
	"github.com/iota-uz/classification/pkg/composables"
	"github.com/iota-uz/classification/pkg/serrors"
)

var testTenantID = uuid.MustParse("6a8a8864-4f0f-4cf4-9b3a-a5e08e2e3492")

// stubTx satisfies pgx.Tx so composables.InTx joins it instead of
// demanding a pool; the in-memory repositories never touch it.
type stubTx struct{ pgx.Tx }

func testContext() context.Context {
	ctx := composables.WithTx(context.Background(), stubTx{})
	ctx = composables.WithTenantID(ctx, testTenantID)
	return composables.WithActor(ctx, "tester")
}

func requireErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var be *serrors.BaseError
	require.ErrorAs(t, err, &be)
	require.Equal(t, code, be.Code)
}

type stubPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *stubPublisher) Publish(args ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(args) > 0 {
		if name, ok := args[0].(string); ok {
			p.events = append(p.events, name)
		}
	}
}
func (p *stubPublisher) Subscribe(handler interface{})   {}
func (p *stubPublisher) Unsubscribe(handler interface{}) {}
func (p *stubPublisher) Clear()                          {}
func (p *stubPublisher) SubscribersCount() int           { return 0 }

// ---- category axis fake ----

type fakeAxisRepo struct {
	nextID int64
	rows   map[int64]*categoryaxis.CategoryAxis
}

func newFakeAxisRepo() *fakeAxisRepo {
	return &fakeAxisRepo{rows: map[int64]*categoryaxis.CategoryAxis{}}
}

func (f *fakeAxisRepo) GetPaginated(ctx context.Context, params *categoryaxis.FindParams) ([]*categoryaxis.CategoryAxis, error) {
	out := make([]*categoryaxis.CategoryAxis, 0, len(f.rows))
	for _, a := range f.rows {
		if params != nil && params.IsActive != nil && a.IsActive != *params.IsActive {
			continue
		}
		copied := *a
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeAxisRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(f.rows)), nil
}

func (f *fakeAxisRepo) GetByID(ctx context.Context, id int64) (*categoryaxis.CategoryAxis, error) {
	a, ok := f.rows[id]
	if !ok {
		return nil, persistence.ErrCategoryAxisNotFound
	}
	copied := *a
	return &copied, nil
}

func (f *fakeAxisRepo) GetByCode(ctx context.Context, axisCode string) (*categoryaxis.CategoryAxis, error) {
	for _, a := range f.rows {
		if a.AxisCode == axisCode {
			copied := *a
			return &copied, nil
		}
	}
	return nil, persistence.ErrCategoryAxisNotFound
}

func (f *fakeAxisRepo) Create(ctx context.Context, data *categoryaxis.CategoryAxis) error {
	f.nextID++
	data.ID = f.nextID
	data.TenantID = testTenantID
	data.Version = 1
	copied := *data
	f.rows[data.ID] = &copied
	return nil
}

func (f *fakeAxisRepo) Update(ctx context.Context, data *categoryaxis.CategoryAxis) error {
	stored, ok := f.rows[data.ID]
	if !ok || stored.Version != data.Version {
		return persistence.ErrCategoryAxisNotFound
	}
	data.Version++
	copied := *data
	f.rows[data.ID] = &copied
	return nil
}

// ---- segment fake ----

type fakeSegmentRepo struct {
	nextID int64
	rows   map[int64]*segment.Segment
}

func newFakeSegmentRepo() *fakeSegmentRepo {
	return &fakeSegmentRepo{rows: map[int64]*segment.Segment{}}
}

func (f *fakeSegmentRepo) GetPaginated(ctx context.Context, axisID int64, params *segment.FindParams) ([]*segment.Segment, error) {
	out := make([]*segment.Segment, 0)
	for _, s := range f.rows {
		if s.CategoryAxisID != axisID {
			continue
		}
		if params != nil && params.IsActive != nil && s.IsActive != *params.IsActive {
			continue
		}
		copied := *s
		out = append(out, &copied)
	}
	sortSegments(out)
	return out, nil
}

func (f *fakeSegmentRepo) Count(ctx context.Context, axisID int64) (int64, error) {
	var n int64
	for _, s := range f.rows {
		if s.CategoryAxisID == axisID {
			n++
		}
	}
	return n, nil
}

func (f *fakeSegmentRepo) ListActiveByAxis(ctx context.Context, axisID int64) ([]*segment.Segment, error) {
	out := make([]*segment.Segment, 0)
	for _, s := range f.rows {
		if s.CategoryAxisID == axisID && s.IsActive {
			copied := *s
			out = append(out, &copied)
		}
	}
	sortSegments(out)
	return out, nil
}

func (f *fakeSegmentRepo) GetByID(ctx context.Context, id int64) (*segment.Segment, error) {
	s, ok := f.rows[id]
	if !ok {
		return nil, persistence.ErrSegmentNotFound
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSegmentRepo) GetByCode(ctx context.Context, axisID int64, segmentCode string) (*segment.Segment, error) {
	for _, s := range f.rows {
		if s.CategoryAxisID == axisID && s.SegmentCode == segmentCode {
			copied := *s
			return &copied, nil
		}
	}
	return nil, persistence.ErrSegmentNotFound
}

func (f *fakeSegmentRepo) Create(ctx context.Context, data *segment.Segment) error {
	f.nextID++
	data.ID = f.nextID
	data.TenantID = testTenantID
	data.Version = 1
	copied := *data
	f.rows[data.ID] = &copied
	return nil
}

func (f *fakeSegmentRepo) UpdatePath(ctx context.Context, id int64, hierarchyPath string, hierarchyLevel int) error {
	s, ok := f.rows[id]
	if !ok {
		return persistence.ErrSegmentNotFound
	}
	s.HierarchyPath = hierarchyPath
	s.HierarchyLevel = hierarchyLevel
	return nil
}

func (f *fakeSegmentRepo) Update(ctx context.Context, data *segment.Segment) error {
	stored, ok := f.rows[data.ID]
	if !ok || stored.Version != data.Version {
		return persistence.ErrSegmentNotFound
	}
	data.Version++
	copied := *data
	f.rows[data.ID] = &copied
	return nil
}

func (f *fakeSegmentRepo) FindDescendantIDs(ctx context.Context, id int64) ([]int64, error) {
	base, ok := f.rows[id]
	if !ok {
		return nil, persistence.ErrSegmentNotFound
	}
	ids := make([]int64, 0)
	for _, s := range f.rows {
		if s.ID != base.ID && !s.IsActive {
			continue
		}
		if strings.HasPrefix(s.HierarchyPath, base.HierarchyPath) {
			ids = append(ids, s.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f *fakeSegmentRepo) MaxSubtreeLevel(ctx context.Context, pathPrefix string) (int, error) {
	maxLevel := 0
	for _, s := range f.rows {
		if strings.HasPrefix(s.HierarchyPath, pathPrefix) && s.HierarchyLevel > maxLevel {
			maxLevel = s.HierarchyLevel
		}
	}
	return maxLevel, nil
}

func (f *fakeSegmentRepo) RebasePaths(ctx context.Context, oldPrefix, newPrefix string, levelDelta int, excludeID int64) error {
	for _, s := range f.rows {
		if s.ID == excludeID || !strings.HasPrefix(s.HierarchyPath, oldPrefix) {
			continue
		}
		s.HierarchyPath = newPrefix + s.HierarchyPath[len(oldPrefix):]
		s.HierarchyLevel += levelDelta
	}
	return nil
}

func sortSegments(segments []*segment.Segment) {
	sort.Slice(segments, func(i, j int) bool {
		if segments[i].HierarchyLevel != segments[j].HierarchyLevel {
			return segments[i].HierarchyLevel < segments[j].HierarchyLevel
		}
		if segments[i].DisplayOrder != segments[j].DisplayOrder {
			return segments[i].DisplayOrder < segments[j].DisplayOrder
		}
		return segments[i].SegmentCode < segments[j].SegmentCode
	})
}

// ---- assignment fake ----

type fakeAssignmentRepo struct {
	nextID   int64
	rows     map[int64]*assignment.SegmentAssignment
	axes     *fakeAxisRepo
	segments *fakeSegmentRepo
}

func newFakeAssignmentRepo(axes *fakeAxisRepo, segments *fakeSegmentRepo) *fakeAssignmentRepo {
	return &fakeAssignmentRepo{
		rows:     map[int64]*assignment.SegmentAssignment{},
		axes:     axes,
		segments: segments,
	}
}

func (f *fakeAssignmentRepo) GetByID(ctx context.Context, id int64) (*assignment.SegmentAssignment, error) {
	a, ok := f.rows[id]
	if !ok {
		return nil, persistence.ErrAssignmentNotFound
	}
	copied := *a
	return &copied, nil
}

func (f *fakeAssignmentRepo) GetByEntityAndAxis(ctx context.Context, kind entitykind.EntityKind, entityID string, axisID int64) (*assignment.SegmentAssignment, error) {
	for _, a := range f.rows {
		if a.IsActive && a.EntityKind == kind && a.EntityID == entityID && a.CategoryAxisID == axisID {
			copied := *a
			return &copied, nil
		}
	}
	return nil, persistence.ErrAssignmentNotFound
}

func (f *fakeAssignmentRepo) ListByEntity(ctx context.Context, kind entitykind.EntityKind, entityID string) ([]*assignment.SegmentAssignment, error) {
	out := make([]*assignment.SegmentAssignment, 0)
	for _, a := range f.rows {
		if a.IsActive && a.EntityKind == kind && a.EntityID == entityID {
			copied := *a
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CategoryAxisID < out[j].CategoryAxisID })
	return out, nil
}

func (f *fakeAssignmentRepo) ListBySegments(ctx context.Context, segmentIDs []int64, params *assignment.FindParams) ([]*assignment.SegmentAssignment, error) {
	wanted := make(map[int64]struct{}, len(segmentIDs))
	for _, id := range segmentIDs {
		wanted[id] = struct{}{}
	}
	out := make([]*assignment.SegmentAssignment, 0)
	for _, a := range f.rows {
		if !a.IsActive {
			continue
		}
		if _, ok := wanted[a.SegmentID]; ok {
			copied := *a
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeAssignmentRepo) CountBySegments(ctx context.Context, segmentIDs []int64) (int64, error) {
	list, err := f.ListBySegments(ctx, segmentIDs, nil)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

func (f *fakeAssignmentRepo) ListEntityClassifications(ctx context.Context, kind entitykind.EntityKind, entityID string) ([]*assignment.EntityClassification, error) {
	assignments, err := f.ListByEntity(ctx, kind, entityID)
	if err != nil {
		return nil, err
	}
	out := make([]*assignment.EntityClassification, 0, len(assignments))
	for _, a := range assignments {
		axis, err := f.axes.GetByID(ctx, a.CategoryAxisID)
		if err != nil {
			return nil, err
		}
		seg, err := f.segments.GetByID(ctx, a.SegmentID)
		if err != nil {
			return nil, err
		}
		out = append(out, &assignment.EntityClassification{
			AssignmentID: a.ID,
			AxisID:       axis.ID,
			AxisCode:     axis.AxisCode,
			AxisName:     axis.AxisName,
			SegmentID:    seg.ID,
			SegmentCode:  seg.SegmentCode,
			SegmentName:  seg.SegmentName,
		})
	}
	return out, nil
}

func (f *fakeAssignmentRepo) Create(ctx context.Context, data *assignment.SegmentAssignment) error {
	for _, a := range f.rows {
		if a.IsActive &&
			a.EntityKind == data.EntityKind &&
			a.EntityID == data.EntityID &&
			a.CategoryAxisID == data.CategoryAxisID {
			return persistence.ErrDuplicateActiveAssignment
		}
	}
	f.nextID++
	data.ID = f.nextID
	data.TenantID = testTenantID
	data.Version = 1
	data.IsActive = true
	copied := *data
	f.rows[data.ID] = &copied
	return nil
}

func (f *fakeAssignmentRepo) Update(ctx context.Context, data *assignment.SegmentAssignment) error {
	stored, ok := f.rows[data.ID]
	if !ok || !stored.IsActive || stored.Version != data.Version {
		return persistence.ErrAssignmentNotFound
	}
	data.Version++
	copied := *data
	f.rows[data.ID] = &copied
	return nil
}

func (f *fakeAssignmentRepo) SoftDelete(ctx context.Context, id, expectedVersion int64, updatedBy string) error {
	stored, ok := f.rows[id]
	if !ok || !stored.IsActive || stored.Version != expectedVersion {
		return persistence.ErrAssignmentNotFound
	}
	stored.IsActive = false
	stored.Version++
	stored.UpdatedBy = updatedBy
	return nil
}

// ---- oracle fake ----

type fakeOracle struct {
	known map[string]bool
	err   error
}

func (o *fakeOracle) Exists(ctx context.Context, tenantID uuid.UUID, entityID string) (bool, error) {
	if o.err != nil {
		return false, o.err
	}
	return o.known[entityID], nil
}
