package driven

import (
	"context"
	"time"

	"github.com/integrations-hub/integrations/internal/domain/model"
)

// OAuthStateStore defines the driven port for pending authorization states.
type OAuthStateStore interface {
	Save(ctx context.Context, state model.OAuthState) error

	// DeleteExpired removes every state whose expiry is at or before now and
	// returns the number removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
