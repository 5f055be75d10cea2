package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fwojciec/ragchat"
	"go.uber.org/zap"
)

// ChatSummary describes a stored conversation for listings.
type ChatSummary struct {
	ID        string
	Title     string // first user message
	Messages  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SaveMessage inserts or replaces msg in chat chatID, creating the chat on
// first use. A message keeps the position it was first saved at; its
// status parts and documents are replaced wholesale.
func (s *Store) SaveMessage(ctx context.Context, chatID string, msg ragchat.Message) error {
	if chatID == "" || msg.ID == "" {
		return fmt.Errorf("sqlite: chat and message ids are required: %w", ragchat.ErrValidation)
	}
	now := s.now()
	created := msg.CreatedAt
	if created.IsZero() {
		created = now
	}

	err := s.tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO chats (id, created_at, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at
		`, chatID, toUnix(created), toUnix(now)); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO messages (id, chat_id, position, role, content, streaming, has_documents, created_at)
			VALUES (?, ?, (SELECT COALESCE(MAX(position) + 1, 0) FROM messages WHERE chat_id = ?), ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET content = excluded.content, streaming = excluded.streaming, has_documents = excluded.has_documents
		`, msg.ID, chatID, chatID, string(msg.Role), msg.Content, msg.Streaming, msg.Documents != nil, toUnix(created)); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM status_parts WHERE message_id = ?`, msg.ID); err != nil {
			return err
		}
		for i, p := range msg.StatusParts {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO status_parts (message_id, position, text, sender, highlight)
				VALUES (?, ?, ?, ?, ?)
			`, msg.ID, i, p.Text, string(p.Sender), string(p.Highlight)); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE message_id = ?`, msg.ID); err != nil {
			return err
		}
		for i, d := range msg.Documents {
			roles, err := json.Marshal(nonNil(d.AccessRoles))
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO documents (message_id, position, id, file_name, document_path, mime_type, num_pages, page, access_roles)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, msg.ID, i, d.ID, d.FileName, d.DocumentPath, d.MimeType, nullInt(d.NumPages), nullInt(d.Page), string(roles)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sqlite: save message %s: %w", msg.ID, err)
	}
	return nil
}

// LoadConversation restores the conversation with the given id. It returns
// an error wrapping ragchat.ErrNotFound when the chat does not exist.
func (s *Store) LoadConversation(ctx context.Context, id string, opts ...ragchat.ConversationOption) (*ragchat.Conversation, error) {
	var createdAt, updatedAt int64
	err := s.db.QueryRowContext(ctx, `SELECT created_at, updated_at FROM chats WHERE id = ?`, id).Scan(&createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite: chat %s: %w", id, ragchat.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}

	msgs, err := s.loadMessages(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	return ragchat.RestoreConversation(id, msgs, fromUnix(createdAt), fromUnix(updatedAt), opts...), nil
}

func (s *Store) loadMessages(ctx context.Context, chatID string) ([]ragchat.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, role, content, streaming, has_documents, created_at
		FROM messages WHERE chat_id = ? ORDER BY position
	`, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []ragchat.Message
	index := make(map[string]int)
	for rows.Next() {
		var (
			m       ragchat.Message
			role    string
			hasDocs bool
			created int64
		)
		if err := rows.Scan(&m.ID, &role, &m.Content, &m.Streaming, &hasDocs, &created); err != nil {
			return nil, err
		}
		m.Role = ragchat.Role(role)
		// An empty documents event is kept apart from no documents event.
		if hasDocs {
			m.Documents = []ragchat.DocumentRef{}
		}
		m.CreatedAt = fromUnix(created)
		index[m.ID] = len(msgs)
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.loadStatusParts(ctx, chatID, msgs, index); err != nil {
		return nil, err
	}
	if err := s.loadDocuments(ctx, chatID, msgs, index); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (s *Store) loadStatusParts(ctx context.Context, chatID string, msgs []ragchat.Message, index map[string]int) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.message_id, p.text, p.sender, p.highlight
		FROM status_parts p JOIN messages m ON m.id = p.message_id
		WHERE m.chat_id = ? ORDER BY m.position, p.position
	`, chatID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var msgID, text, sender, highlight string
		if err := rows.Scan(&msgID, &text, &sender, &highlight); err != nil {
			return err
		}
		i := index[msgID]
		msgs[i].StatusParts = append(msgs[i].StatusParts, ragchat.StatusPart{
			Text:      text,
			Sender:    ragchat.Sender(sender),
			Highlight: ragchat.Highlight(highlight),
		})
	}
	return rows.Err()
}

func (s *Store) loadDocuments(ctx context.Context, chatID string, msgs []ragchat.Message, index map[string]int) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.message_id, d.id, d.file_name, d.document_path, d.mime_type, d.num_pages, d.page, d.access_roles
		FROM documents d JOIN messages m ON m.id = d.message_id
		WHERE m.chat_id = ? ORDER BY m.position, d.position
	`, chatID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			msgID          string
			d              ragchat.DocumentRef
			numPages, page sql.NullInt64
			roles          string
		)
		if err := rows.Scan(&msgID, &d.ID, &d.FileName, &d.DocumentPath, &d.MimeType, &numPages, &page, &roles); err != nil {
			return err
		}
		d.NumPages = intPtr(numPages)
		d.Page = intPtr(page)
		if err := json.Unmarshal([]byte(roles), &d.AccessRoles); err != nil {
			return fmt.Errorf("access roles of document %d: %w", d.ID, err)
		}
		i := index[msgID]
		msgs[i].Documents = append(msgs[i].Documents, d)
	}
	return rows.Err()
}

// ListConversations returns stored chats, most recently updated first.
func (s *Store) ListConversations(ctx context.Context) ([]ChatSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.created_at, c.updated_at,
			(SELECT COUNT(*) FROM messages m WHERE m.chat_id = c.id),
			COALESCE((SELECT m.content FROM messages m WHERE m.chat_id = c.id AND m.role = 'user' ORDER BY m.position LIMIT 1), '')
		FROM chats c ORDER BY c.updated_at DESC, c.id
	`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	defer rows.Close()

	var out []ChatSummary
	for rows.Next() {
		var (
			cs               ChatSummary
			created, updated int64
		)
		if err := rows.Scan(&cs.ID, &created, &updated, &cs.Messages, &cs.Title); err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		cs.CreatedAt = fromUnix(created)
		cs.UpdatedAt = fromUnix(updated)
		out = append(out, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	return out, nil
}

// DeleteConversation removes a chat and everything it owns.
func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chats WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("sqlite: chat %s: %w", id, ragchat.ErrNotFound)
	}
	return nil
}

// Observer returns a ragchat.Observer that persists user messages and
// assistant messages once they stop streaming. The placeholder is saved
// once as well, so a crash mid-turn is repaired on restore. Write
// failures are logged, not returned.
func (s *Store) Observer(ctx context.Context) ragchat.Observer {
	var mu sync.Mutex
	saved := make(map[string]bool)
	return func(chatID string, msg ragchat.Message) {
		mu.Lock()
		defer mu.Unlock()
		first := !saved[msg.ID]
		if msg.Role == ragchat.RoleAssistant && msg.Streaming && !first {
			return
		}
		if err := s.SaveMessage(ctx, chatID, msg); err != nil {
			s.logger.Error("failed to persist message",
				zap.String("chat_id", chatID),
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
			return
		}
		saved[msg.ID] = true
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
