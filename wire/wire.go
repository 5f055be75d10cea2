// Package wire implements the chat backend's streaming protocol: a byte
// stream of JSON objects separated by NUL bytes, each carrying a
// (type, sender, metadata) triple.
//
// [Decoder] turns a response body into a pull-based [ragchat.Stream] of
// validated events. Malformed or unrecognized objects are dropped and
// logged; they never abort the stream. [Encode] produces the same wire
// form and is used by the mock backend.
package wire

import (
	"encoding/json"
	"fmt"

	"github.com/fwojciec/ragchat"
)

// Separator terminates every object on the wire.
const Separator byte = 0

type outEvent struct {
	Type     ragchat.EventType `json:"type"`
	Sender   ragchat.Sender    `json:"sender"`
	Metadata any               `json:"metadata"`
}

type outDocument struct {
	Metadata outDocumentFields `json:"metadata"`
}

type outDocumentFields struct {
	ID           int      `json:"id"`
	FileName     string   `json:"file_name"`
	DocumentPath string   `json:"document_path"`
	MimeType     string   `json:"mime_type"`
	NumPages     *int     `json:"num_pages"`
	Page         *int     `json:"page"`
	AccessRoles  []string `json:"access_roles"`
}

// Encode serializes evt in wire form followed by the NUL separator.
func Encode(evt ragchat.Event) ([]byte, error) {
	if err := ragchat.ValidateEvent(evt); err != nil {
		return nil, fmt.Errorf("wire: %w", err)
	}
	out := outEvent{Type: evt.EventType(), Sender: evt.EventSender()}
	switch e := evt.(type) {
	case ragchat.EventStatus:
		out.Metadata = map[string]any{"translation_key": e.TranslationKey}
	case ragchat.EventAnswer:
		out.Metadata = map[string]any{"answer": e.Text}
	case ragchat.EventDecision:
		out.Metadata = map[string]any{"decision": e.Decision, "reason": e.Reason}
	case ragchat.EventDocuments:
		docs := make([]outDocument, len(e.Documents))
		for i, d := range e.Documents {
			roles := d.AccessRoles
			if roles == nil {
				roles = []string{}
			}
			docs[i] = outDocument{Metadata: outDocumentFields{
				ID:           d.ID,
				FileName:     d.FileName,
				DocumentPath: d.DocumentPath,
				MimeType:     d.MimeType,
				NumPages:     d.NumPages,
				Page:         d.Page,
				AccessRoles:  roles,
			}}
		}
		out.Metadata = map[string]any{"documents": docs}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("wire: %w", err)
	}
	return append(data, Separator), nil
}
