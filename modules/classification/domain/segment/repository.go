package segment

import "context"

type FindParams struct {
	Limit    int
	Offset   int
	IsActive *bool
}

type Repository interface {
	GetPaginated(ctx context.Context, axisID int64, params *FindParams) ([]*Segment, error)
	Count(ctx context.Context, axisID int64) (int64, error)
	// ListActiveByAxis returns active segments ordered by
	// (hierarchy_level, display_order) — the feed for tree assembly.
	ListActiveByAxis(ctx context.Context, axisID int64) ([]*Segment, error)
	GetByID(ctx context.Context, id int64) (*Segment, error)
	GetByCode(ctx context.Context, axisID int64, segmentCode string) (*Segment, error)

	// Create inserts with the provisional path supplied on data and
	// assigns ID. The final path depends on that id; callers follow up
	// with UpdatePath inside the same transaction.
	Create(ctx context.Context, data *Segment) error
	UpdatePath(ctx context.Context, id int64, hierarchyPath string, hierarchyLevel int) error
	// Update is a compare-and-swap on data.Version.
	Update(ctx context.Context, data *Segment) error

	// FindDescendantIDs returns the segment's own id plus the ids of all
	// active segments whose hierarchy_path extends its own.
	FindDescendantIDs(ctx context.Context, id int64) ([]int64, error)
	// MaxSubtreeLevel returns the deepest hierarchy_level within the
	// subtree identified by the given self-inclusive path prefix.
	MaxSubtreeLevel(ctx context.Context, pathPrefix string) (int, error)
	// RebasePaths rewrites hierarchy_path/hierarchy_level for every
	// segment under oldPrefix except the one identified by excludeID,
	// replacing oldPrefix with newPrefix and shifting levels by delta.
	RebasePaths(ctx context.Context, oldPrefix, newPrefix string, levelDelta int, excludeID int64) error
}
