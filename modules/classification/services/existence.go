package services

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/iota-uz/classification/modules/classification/domain/entitykind"
)

// EntityExistenceOracle answers whether a polymorphically referenced
// entity is real. Each entity's own master-data module implements this
// for its kind; the classification engine never reaches into those
// tables itself.
type EntityExistenceOracle interface {
	Exists(ctx context.Context, tenantID uuid.UUID, entityID string) (bool, error)
}

// ErrEntityKindNotSupported distinguishes "no oracle wired for this
// kind" from a plain negative answer, so callers see a clear
// not-implemented outcome instead of a silent false.
var ErrEntityKindNotSupported = errors.New("entity kind not supported by any oracle")

// OracleRegistry dispatches existence checks by entity kind. The
// registry is allowed to be partial: kinds without a registered oracle
// report ErrEntityKindNotSupported.
type OracleRegistry struct {
	oracles map[entitykind.EntityKind]EntityExistenceOracle
}

func NewOracleRegistry() *OracleRegistry {
	return &OracleRegistry{
		oracles: make(map[entitykind.EntityKind]EntityExistenceOracle),
	}
}

func (r *OracleRegistry) Register(kind entitykind.EntityKind, oracle EntityExistenceOracle) {
	r.oracles[kind] = oracle
}

func (r *OracleRegistry) Exists(ctx context.Context, tenantID uuid.UUID, kind entitykind.EntityKind, entityID string) (bool, error) {
	oracle, ok := r.oracles[kind]
	if !ok {
		return false, errors.Wrapf(ErrEntityKindNotSupported, "kind %s", kind)
	}
	return oracle.Exists(ctx, tenantID, entityID)
}
