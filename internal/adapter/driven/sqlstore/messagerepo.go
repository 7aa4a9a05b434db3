package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/integrations-hub/integrations/internal/domain/model"
	"github.com/integrations-hub/integrations/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.MessageStore = (*MessageRepo)(nil)

const messageColumns = `id, user_id, connection_id, external_id, thread_id, label_ids, snippet,
	history_id, internal_date, size_estimate, from_addr, to_addr, cc_addr, subject, body, status,
	created_at, updated_at`

// MessageRepo is the SQL implementation of the MessageStore port interface.
type MessageRepo struct {
	db *DB
}

// NewMessageRepo creates a new MessageRepo backed by the given DB.
func NewMessageRepo(db *DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Create inserts a new message. An empty ConnectionID is stored as NULL.
func (r *MessageRepo) Create(ctx context.Context, m model.Message) error {
	const query = `INSERT INTO messages (` + messageColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	labels, err := encodeStrings(m.LabelIDs)
	if err != nil {
		return err
	}

	_, err = r.db.exec(ctx, query,
		m.ID, m.UserID, nullString(m.ConnectionID), m.ExternalID, m.ThreadID, labels, m.Snippet,
		m.HistoryID, m.InternalDate, m.SizeEstimate, m.From, m.To, m.Cc, m.Subject, m.Body, string(m.Status),
		formatTime(m.CreatedAt), formatTime(m.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create message %s: %w", m.ID, err)
	}

	return nil
}

// Get retrieves a message owned by userID.
func (r *MessageRepo) Get(ctx context.Context, userID, id string) (*model.Message, error) {
	const query = `SELECT ` + messageColumns + ` FROM messages WHERE user_id = ? AND id = ?`

	m, err := scanMessage(r.db.queryRow(ctx, query, userID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get message %s: %w", id, driven.ErrMessageNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get message %s: %w", id, err)
	}

	return m, nil
}

// ListByUser returns at most limit messages owned by userID, newest first.
func (r *MessageRepo) ListByUser(ctx context.Context, userID string, limit int) ([]model.Message, error) {
	const query = `SELECT ` + messageColumns + ` FROM messages WHERE user_id = ?
		ORDER BY created_at DESC, id DESC LIMIT ?`

	rows, err := r.db.query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	msgs := []model.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return msgs, nil
}

// Update overwrites the labels and subject of a message owned by m.UserID.
func (r *MessageRepo) Update(ctx context.Context, m model.Message) error {
	const query = `UPDATE messages SET label_ids = ?, subject = ?, updated_at = ? WHERE user_id = ? AND id = ?`

	labels, err := encodeStrings(m.LabelIDs)
	if err != nil {
		return err
	}

	result, err := r.db.exec(ctx, query, labels, m.Subject, formatTime(m.UpdatedAt), m.UserID, m.ID)
	if err != nil {
		return fmt.Errorf("update message %s: %w", m.ID, err)
	}

	return expectAffected(result, fmt.Sprintf("update message %s", m.ID), driven.ErrMessageNotFound)
}

// Delete removes a message owned by userID.
func (r *MessageRepo) Delete(ctx context.Context, userID, id string) error {
	const query = `DELETE FROM messages WHERE user_id = ? AND id = ?`

	result, err := r.db.exec(ctx, query, userID, id)
	if err != nil {
		return fmt.Errorf("delete message %s: %w", id, err)
	}

	return expectAffected(result, fmt.Sprintf("delete message %s", id), driven.ErrMessageNotFound)
}

func scanMessage(s scanner) (*model.Message, error) {
	var m model.Message
	var connectionID sql.NullString
	var labels, status, createdAt, updatedAt string

	err := s.Scan(
		&m.ID, &m.UserID, &connectionID, &m.ExternalID, &m.ThreadID, &labels, &m.Snippet,
		&m.HistoryID, &m.InternalDate, &m.SizeEstimate, &m.From, &m.To, &m.Cc, &m.Subject, &m.Body, &status,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.ConnectionID = connectionID.String
	m.Status = model.MessageStatus(status)

	if m.LabelIDs, err = decodeStrings(labels); err != nil {
		return nil, err
	}
	if m.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if m.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &m, nil
}
