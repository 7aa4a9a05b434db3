package application

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/integrations-hub/integrations/internal/domain/model"
	"github.com/integrations-hub/integrations/internal/domain/port/driven"
)

// Message listing bounds.
const (
	DefaultMessageLimit = 50
	MaxMessageLimit     = 500
)

// CreateMessageInput is the payload for composing a local outbound message.
type CreateMessageInput struct {
	ConnectionID string              `json:"connection_id" validate:"omitempty,uuid"`
	To           string              `json:"to" validate:"required,max=2000"`
	Cc           string              `json:"cc" validate:"max=2000"`
	Subject      string              `json:"subject" validate:"required,max=998"`
	Body         string              `json:"body" validate:"required"`
	Format       model.MessageFormat `json:"format" validate:"omitempty,oneof=text markdown html"`
}

// UpdateMessageInput is the payload for a partial message update.
type UpdateMessageInput struct {
	LabelIDs *[]string `json:"label_ids" validate:"omitnil,dive,required,max=100"`
	Subject  *string   `json:"subject" validate:"omitnil,min=1,max=998"`
}

// MessageService stores and serves a user's messages. Nothing is sent to or
// fetched from a provider here; outbound messages are queued locally.
type MessageService struct {
	messages driven.MessageStore
	conns    driven.ConnectionStore
	users    driven.UserStore
	validate *validator.Validate
	now      func() time.Time
}

// NewMessageService creates a new MessageService with the required dependencies.
func NewMessageService(messages driven.MessageStore, conns driven.ConnectionStore, users driven.UserStore) *MessageService {
	return &MessageService{
		messages: messages,
		conns:    conns,
		users:    users,
		validate: newValidator(),
		now:      time.Now,
	}
}

// List returns up to limit messages owned by userID, newest first.
// A zero limit selects DefaultMessageLimit.
func (s *MessageService) List(ctx context.Context, userID string, limit int) ([]model.Message, error) {
	if limit == 0 {
		limit = DefaultMessageLimit
	}
	if limit < 1 || limit > MaxMessageLimit {
		return nil, InvalidInputf("limit must be between 1 and %d", MaxMessageLimit)
	}
	return s.messages.ListByUser(ctx, userID, limit)
}

// Get returns one message owned by userID.
func (s *MessageService) Get(ctx context.Context, userID, id string) (*model.Message, error) {
	return s.messages.Get(ctx, userID, id)
}

// Create renders and stores a queued outbound message. When ConnectionID is
// set it must name a connection owned by userID.
func (s *MessageService) Create(ctx context.Context, userID string, in CreateMessageInput) (*model.Message, error) {
	in.To = strings.TrimSpace(in.To)
	in.Cc = strings.TrimSpace(in.Cc)
	in.Subject = strings.TrimSpace(in.Subject)
	in.ConnectionID = strings.TrimSpace(in.ConnectionID)
	if in.Format == "" {
		in.Format = model.MessageFormatText
	}

	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}
	if err := s.validateRecipients("to", in.To); err != nil {
		return nil, err
	}
	if err := s.validateRecipients("cc", in.Cc); err != nil {
		return nil, err
	}

	if in.ConnectionID != "" {
		if _, err := s.conns.Get(ctx, userID, in.ConnectionID); err != nil {
			return nil, err
		}
	}

	sender, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	body := RenderBody(in.Format, in.Body)
	now := s.now().UTC()
	msg := model.Message{
		ID:           uuid.NewString(),
		UserID:       userID,
		ConnectionID: in.ConnectionID,
		LabelIDs:     []string{"OUTBOX"},
		Snippet:      Snippet(in.Format, body),
		InternalDate: now.UnixMilli(),
		SizeEstimate: len(body),
		From:         sender.Email,
		To:           in.To,
		Cc:           in.Cc,
		Subject:      in.Subject,
		Body:         body,
		Status:       model.MessageStatusQueued,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}

	return &msg, nil
}

// Update applies in to a message owned by userID.
func (s *MessageService) Update(ctx context.Context, userID, id string, in UpdateMessageInput) (*model.Message, error) {
	if in.Subject != nil {
		*in.Subject = strings.TrimSpace(*in.Subject)
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	msg, err := s.messages.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if in.LabelIDs != nil {
		msg.LabelIDs = append([]string{}, (*in.LabelIDs)...)
	}
	if in.Subject != nil {
		msg.Subject = *in.Subject
	}
	msg.UpdatedAt = s.now().UTC()

	if err := s.messages.Update(ctx, *msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// Delete removes a message owned by userID from local storage.
func (s *MessageService) Delete(ctx context.Context, userID, id string) error {
	return s.messages.Delete(ctx, userID, id)
}

// validateRecipients checks a comma-separated address list.
func (s *MessageService) validateRecipients(field, list string) error {
	if list == "" {
		return nil
	}
	for _, addr := range strings.Split(list, ",") {
		addr = strings.TrimSpace(addr)
		if err := s.validate.Var(addr, "required,email"); err != nil {
			return InvalidInputf("%s contains an invalid address %q", field, addr)
		}
	}
	return nil
}
