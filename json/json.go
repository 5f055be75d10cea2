// Package json exports and imports conversations as versioned JSON
// documents.
package json

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/ragchat"
)

// envelope is the v1 wire format for an exported conversation.
type envelope struct {
	Version   int          `json:"version"`
	ID        string       `json:"id"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	Messages  []messageDTO `json:"messages"`
}

type messageDTO struct {
	ID          string          `json:"id"`
	Role        string          `json:"role"`
	Content     string          `json:"content"`
	Streaming   bool            `json:"streaming,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	StatusParts []statusPartDTO `json:"status_parts,omitempty"`
	Documents   *[]documentDTO  `json:"documents,omitempty"`
}

type statusPartDTO struct {
	Text      string `json:"text"`
	Sender    string `json:"sender,omitempty"`
	Highlight string `json:"highlight,omitempty"`
}

type documentDTO struct {
	ID           int      `json:"id"`
	FileName     string   `json:"file_name"`
	DocumentPath string   `json:"document_path"`
	MimeType     string   `json:"mime_type"`
	NumPages     *int     `json:"num_pages,omitempty"`
	Page         *int     `json:"page,omitempty"`
	AccessRoles  []string `json:"access_roles"`
}

// MarshalConversation serializes a Conversation to JSON in v1 envelope
// format.
func MarshalConversation(c *ragchat.Conversation) ([]byte, error) {
	msgs := c.Messages()
	env := envelope{
		Version:   1,
		ID:        c.ID(),
		CreatedAt: c.CreatedAt(),
		UpdatedAt: c.UpdatedAt(),
		Messages:  make([]messageDTO, len(msgs)),
	}
	for i, m := range msgs {
		env.Messages[i] = marshalMessage(m)
	}
	return json.MarshalIndent(env, "", "  ")
}

// UnmarshalConversation deserializes a Conversation from JSON in v1
// envelope format. opts configure the restored conversation.
func UnmarshalConversation(data []byte, opts ...ragchat.ConversationOption) (*ragchat.Conversation, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Version != 1 {
		return nil, fmt.Errorf("unsupported envelope version: %d", env.Version)
	}
	if env.ID == "" {
		return nil, fmt.Errorf("missing conversation id: %w", ragchat.ErrValidation)
	}
	msgs := make([]ragchat.Message, len(env.Messages))
	for i, dto := range env.Messages {
		msg, err := unmarshalMessage(dto)
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		msgs[i] = msg
	}
	return ragchat.RestoreConversation(env.ID, msgs, env.CreatedAt, env.UpdatedAt, opts...), nil
}

// Save writes a Conversation to a JSON file, creating parent directories as
// needed. The file is replaced atomically.
func Save(path string, c *ragchat.Conversation) error {
	data, err := MarshalConversation(c)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Load reads a Conversation from a JSON file.
func Load(path string, opts ...ragchat.ConversationOption) (*ragchat.Conversation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return UnmarshalConversation(data, opts...)
}

func marshalMessage(m ragchat.Message) messageDTO {
	dto := messageDTO{
		ID:        m.ID,
		Role:      string(m.Role),
		Content:   m.Content,
		Streaming: m.Streaming,
		CreatedAt: m.CreatedAt,
	}
	for _, p := range m.StatusParts {
		dto.StatusParts = append(dto.StatusParts, statusPartDTO{
			Text:      p.Text,
			Sender:    string(p.Sender),
			Highlight: string(p.Highlight),
		})
	}
	if m.Documents == nil {
		return dto
	}
	docs := make([]documentDTO, 0, len(m.Documents))
	for _, d := range m.Documents {
		roles := d.AccessRoles
		if roles == nil {
			roles = []string{}
		}
		docs = append(docs, documentDTO{
			ID:           d.ID,
			FileName:     d.FileName,
			DocumentPath: d.DocumentPath,
			MimeType:     d.MimeType,
			NumPages:     d.NumPages,
			Page:         d.Page,
			AccessRoles:  roles,
		})
	}
	dto.Documents = &docs
	return dto
}

func unmarshalMessage(dto messageDTO) (ragchat.Message, error) {
	role := ragchat.Role(dto.Role)
	if role != ragchat.RoleUser && role != ragchat.RoleAssistant {
		return ragchat.Message{}, fmt.Errorf("unknown role %q: %w", dto.Role, ragchat.ErrValidation)
	}
	if dto.ID == "" {
		return ragchat.Message{}, fmt.Errorf("missing message id: %w", ragchat.ErrValidation)
	}
	m := ragchat.Message{
		ID:        dto.ID,
		Role:      role,
		Content:   dto.Content,
		Streaming: dto.Streaming,
		CreatedAt: dto.CreatedAt,
	}
	for _, p := range dto.StatusParts {
		m.StatusParts = append(m.StatusParts, ragchat.StatusPart{
			Text:      p.Text,
			Sender:    ragchat.Sender(p.Sender),
			Highlight: ragchat.Highlight(p.Highlight),
		})
	}
	if dto.Documents == nil {
		return m, nil
	}
	m.Documents = make([]ragchat.DocumentRef, 0, len(*dto.Documents))
	for _, d := range *dto.Documents {
		m.Documents = append(m.Documents, ragchat.DocumentRef{
			ID:           d.ID,
			FileName:     d.FileName,
			DocumentPath: d.DocumentPath,
			MimeType:     d.MimeType,
			NumPages:     d.NumPages,
			Page:         d.Page,
			AccessRoles:  d.AccessRoles,
		})
	}
	return m, nil
}
