package driven

import (
	"context"
	"errors"

	"github.com/integrations-hub/integrations/internal/domain/model"
)

// ErrConnectionNotFound indicates the connection does not exist or belongs to another user.
var ErrConnectionNotFound = errors.New("connection not found")

// ConnectionStore defines the driven port for connection persistence.
// All lookups are scoped by owner; a connection owned by someone else is
// reported as ErrConnectionNotFound.
type ConnectionStore interface {
	Create(ctx context.Context, conn model.Connection) error
	Get(ctx context.Context, userID, id string) (*model.Connection, error)
	ListByUser(ctx context.Context, userID string) ([]model.Connection, error)
	Update(ctx context.Context, conn model.Connection) error
	Delete(ctx context.Context, userID, id string) error
}
