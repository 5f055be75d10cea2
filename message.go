package ragchat

import (
	"slices"
	"time"
)

// Highlight marks how a status part should be emphasized.
type Highlight string

const (
	HighlightNone    Highlight = ""
	HighlightSuccess Highlight = "success"
	HighlightError   Highlight = "error"
	HighlightWarning Highlight = "warning"
)

// StatusPart is one line of intermediate commentary attached to an
// assistant message.
type StatusPart struct {
	Text      string
	Sender    Sender // empty for locally generated parts
	Highlight Highlight
}

// DocumentRef describes a retrieved source document. It is never mutated
// after decoding, so snapshots share DocumentRef values freely.
type DocumentRef struct {
	ID           int
	FileName     string
	DocumentPath string
	MimeType     string
	NumPages     *int // nil when unknown
	Page         *int // nil when the citation is not page-specific
	AccessRoles  []string
}

// Message is one entry of a conversation. User messages are created
// complete. Assistant messages start as a streaming placeholder and are
// mutated only by their Turn until it reaches a terminal state.
type Message struct {
	ID          string
	Role        Role
	Content     string
	StatusParts []StatusPart
	Documents   []DocumentRef // nil until a documents event arrives
	Streaming   bool
	CreatedAt   time.Time
}

// Clone returns a copy of m whose slices do not alias m's. DocumentRef
// values are shared since they are immutable.
func (m Message) Clone() Message {
	m.StatusParts = slices.Clone(m.StatusParts)
	m.Documents = slices.Clone(m.Documents)
	return m
}
