package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateConversation inserts a conversation and its opening messages
// atomically.
func (s *Store) CreateConversation(ctx context.Context, conv Conversation, msgs []Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO conversations (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)",
		conv.ID, conv.Title, conv.CreatedAt.UTC(), conv.UpdatedAt.UTC()); err != nil {
		tx.Rollback()
		return fmt.Errorf("inserting conversation: %w", err)
	}

	for _, m := range msgs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO messages (id, conversation_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)",
			m.ID, conv.ID, m.Role, m.Content, m.CreatedAt.UTC()); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting message: %w", err)
		}
	}

	return tx.Commit()
}

// ListConversations returns all conversations, most recently updated first,
// with a preview of the latest message.
func (s *Store) ListConversations(ctx context.Context) ([]ConversationSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT c.id, c.title, c.created_at, c.updated_at,
		COUNT(m.id),
		COALESCE((SELECT content FROM messages
			WHERE conversation_id = c.id ORDER BY created_at DESC, rowid DESC LIMIT 1), '')
		FROM conversations c
		LEFT JOIN messages m ON m.conversation_id = c.id
		GROUP BY c.id
		ORDER BY c.updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	defer rows.Close()

	var result []ConversationSummary
	for rows.Next() {
		var cs ConversationSummary
		if err := rows.Scan(&cs.ID, &cs.Title, &cs.CreatedAt, &cs.UpdatedAt,
			&cs.MessageCount, &cs.LastMessage); err != nil {
			return nil, fmt.Errorf("scanning conversation summary: %w", err)
		}
		if len(cs.LastMessage) > 100 {
			cs.LastMessage = cs.LastMessage[:100]
		}
		result = append(result, cs)
	}
	return result, rows.Err()
}

// GetConversation returns a conversation and its full message history, oldest
// message first.
func (s *Store) GetConversation(ctx context.Context, id string) (Conversation, []Message, error) {
	var conv Conversation
	err := s.db.QueryRowContext(ctx,
		"SELECT id, title, created_at, updated_at FROM conversations WHERE id = ?", id).
		Scan(&conv.ID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt)
	if err == sql.ErrNoRows {
		return Conversation{}, nil, ErrNotFound
	}
	if err != nil {
		return Conversation{}, nil, fmt.Errorf("getting conversation: %w", err)
	}

	// rowid breaks ties between messages written in the same clock second,
	// preserving insertion order within a turn.
	rows, err := s.db.QueryContext(ctx, `SELECT id, conversation_id, role, content, created_at
		FROM messages WHERE conversation_id = ? ORDER BY created_at, rowid`, id)
	if err != nil {
		return Conversation{}, nil, fmt.Errorf("getting messages: %w", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return Conversation{}, nil, fmt.Errorf("scanning message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return conv, msgs, rows.Err()
}

// AppendMessages adds messages to an existing conversation and bumps its
// updated_at to the newest message time.
func (s *Store) AppendMessages(ctx context.Context, conversationID string, msgs []Message) error {
	if len(msgs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	var exists int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM conversations WHERE id = ?", conversationID).Scan(&exists); err != nil {
		tx.Rollback()
		return fmt.Errorf("checking conversation: %w", err)
	}
	if exists == 0 {
		tx.Rollback()
		return ErrNotFound
	}

	for _, m := range msgs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO messages (id, conversation_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)",
			m.ID, conversationID, m.Role, m.Content, m.CreatedAt.UTC()); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting message: %w", err)
		}
	}

	last := msgs[len(msgs)-1]
	if _, err := tx.ExecContext(ctx,
		"UPDATE conversations SET updated_at = ? WHERE id = ?",
		last.CreatedAt.UTC(), conversationID); err != nil {
		tx.Rollback()
		return fmt.Errorf("updating conversation timestamp: %w", err)
	}

	return tx.Commit()
}

// DeleteConversation removes a conversation and its messages.
func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM conversations WHERE id = ?", id)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("deleting conversation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("checking delete result: %w", err)
	}
	if n == 0 {
		tx.Rollback()
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM messages WHERE conversation_id = ?", id); err != nil {
		tx.Rollback()
		return fmt.Errorf("deleting messages: %w", err)
	}

	return tx.Commit()
}
