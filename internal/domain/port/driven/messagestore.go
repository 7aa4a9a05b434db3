package driven

import (
	"context"
	"errors"

	"github.com/integrations-hub/integrations/internal/domain/model"
)

// ErrMessageNotFound indicates the message does not exist or belongs to another user.
var ErrMessageNotFound = errors.New("message not found")

// MessageStore defines the driven port for locally stored messages.
type MessageStore interface {
	Create(ctx context.Context, msg model.Message) error
	Get(ctx context.Context, userID, id string) (*model.Message, error)

	// ListByUser returns at most limit messages, newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]model.Message, error)
	Update(ctx context.Context, msg model.Message) error
	Delete(ctx context.Context, userID, id string) error
}
