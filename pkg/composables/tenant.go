package composables

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/iota-uz/classification/pkg/constants"
)

var ErrNoTenant = errors.New("no tenant found in context")

func WithTenantID(ctx context.Context, tenantID uuid.UUID) context.Context {
	return context.WithValue(ctx, constants.TenantIDKey, tenantID)
}

func UseTenantID(ctx context.Context) (uuid.UUID, error) {
	tenantID, ok := ctx.Value(constants.TenantIDKey).(uuid.UUID)
	if !ok || tenantID == uuid.Nil {
		return uuid.Nil, ErrNoTenant
	}
	return tenantID, nil
}

// WithActor records who is performing the current request. Falls back to
// "system" so background callers do not have to thread an identity through.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, constants.ActorKey, actor)
}

func UseActor(ctx context.Context) string {
	actor, ok := ctx.Value(constants.ActorKey).(string)
	if !ok || actor == "" {
		return "system"
	}
	return actor
}
