package categoryaxis

import "context"

type FindParams struct {
	Limit    int
	Offset   int
	IsActive *bool
}

type Repository interface {
	GetPaginated(ctx context.Context, params *FindParams) ([]*CategoryAxis, error)
	Count(ctx context.Context) (int64, error)
	GetByID(ctx context.Context, id int64) (*CategoryAxis, error)
	GetByCode(ctx context.Context, axisCode string) (*CategoryAxis, error)
	// Create assigns ID, Version and timestamps on success.
	Create(ctx context.Context, data *CategoryAxis) error
	// Update is a compare-and-swap on data.Version. Zero rows updated
	// surfaces as the store's not-found sentinel; the caller decides
	// whether that means "gone" or "stale" (it has just loaded the row).
	Update(ctx context.Context, data *CategoryAxis) error
}
