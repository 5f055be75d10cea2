package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fwojciec/ragchat"
)

// Reasons a segment is dropped. Parse wraps one of these.
var (
	ErrInvalidJSON    = errors.New("invalid json")
	ErrUnknownType    = errors.New("unknown event type")
	ErrSenderMismatch = errors.New("sender not allowed for type")
	ErrMissingField   = errors.New("missing or mistyped metadata field")
)

// rawEvent is the envelope shared by every wire object.
type rawEvent struct {
	Type     string          `json:"type"`
	Sender   string          `json:"sender"`
	Metadata json.RawMessage `json:"metadata"`
}

type statusMetadata struct {
	TranslationKey *string `json:"translation_key"`
}

type documentsMetadata struct {
	Documents json.RawMessage `json:"documents"`
}

type answerMetadata struct {
	Answer *string `json:"answer"`
}

type decisionMetadata struct {
	Decision *bool   `json:"decision"`
	Reason   *string `json:"reason"`
}

// apiDocument is a documents list element. The backend wraps the fields in
// "metadata"; flat elements are accepted too.
type apiDocument struct {
	Metadata json.RawMessage `json:"metadata"`
}

type apiDocumentFields struct {
	ID           *int     `json:"id"`
	FileName     string   `json:"file_name"`
	DocumentPath string   `json:"document_path"`
	MimeType     string   `json:"mime_type"`
	NumPages     *int     `json:"num_pages"`
	Page         *int     `json:"page"`
	AccessRoles  []string `json:"access_roles"`
}

// Parse decodes one NUL-delimited segment into a validated event. The
// returned error wraps ErrInvalidJSON, ErrUnknownType, ErrSenderMismatch or
// ErrMissingField; callers drop the segment on error.
//
// skipped counts document list elements that were dropped individually.
func Parse(data []byte) (evt ragchat.Event, skipped int, err error) {
	var raw rawEvent
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	typ := ragchat.EventType(raw.Type)
	sender := ragchat.Sender(raw.Sender)
	if !ragchat.KnownEventType(typ) {
		return nil, 0, fmt.Errorf("%w: %q", ErrUnknownType, raw.Type)
	}
	if !ragchat.SenderAllowed(typ, sender) {
		return nil, 0, fmt.Errorf("%w: %q for %s", ErrSenderMismatch, raw.Sender, typ)
	}
	if !isObject(raw.Metadata) {
		return nil, 0, fmt.Errorf("%w: metadata must be an object", ErrMissingField)
	}

	switch typ {
	case ragchat.EventTypeStatus:
		var m statusMetadata
		if err := json.Unmarshal(raw.Metadata, &m); err != nil || m.TranslationKey == nil {
			return nil, 0, missing("translation_key", err)
		}
		return ragchat.EventStatus{Sender: sender, TranslationKey: *m.TranslationKey}, 0, nil

	case ragchat.EventTypeDocuments:
		var m documentsMetadata
		if err := json.Unmarshal(raw.Metadata, &m); err != nil || !isArray(m.Documents) {
			return nil, 0, missing("documents", err)
		}
		docs, skipped, err := parseDocuments(m.Documents)
		if err != nil {
			return nil, 0, missing("documents", err)
		}
		return ragchat.EventDocuments{Sender: sender, Documents: docs}, skipped, nil

	case ragchat.EventTypeAnswer:
		var m answerMetadata
		if err := json.Unmarshal(raw.Metadata, &m); err != nil || m.Answer == nil {
			return nil, 0, missing("answer", err)
		}
		return ragchat.EventAnswer{Sender: sender, Text: *m.Answer}, 0, nil

	case ragchat.EventTypeDecision:
		var m decisionMetadata
		if err := json.Unmarshal(raw.Metadata, &m); err != nil {
			return nil, 0, missing("decision", err)
		}
		if m.Decision == nil {
			return nil, 0, missing("decision", nil)
		}
		if m.Reason == nil {
			return nil, 0, missing("reason", nil)
		}
		return ragchat.EventDecision{Sender: sender, Decision: *m.Decision, Reason: *m.Reason}, 0, nil
	}

	// Unreachable while the table and the switch agree.
	return nil, 0, fmt.Errorf("%w: %q", ErrUnknownType, raw.Type)
}

func parseDocuments(data json.RawMessage) ([]ragchat.DocumentRef, int, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, 0, err
	}
	docs := make([]ragchat.DocumentRef, 0, len(elems))
	skipped := 0
	for _, e := range elems {
		d, ok := parseDocument(e)
		if !ok {
			skipped++
			continue
		}
		docs = append(docs, d)
	}
	return docs, skipped, nil
}

func parseDocument(data json.RawMessage) (ragchat.DocumentRef, bool) {
	if !isObject(data) {
		return ragchat.DocumentRef{}, false
	}
	var wrapper apiDocument
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return ragchat.DocumentRef{}, false
	}
	fieldsJSON := data
	if isObject(wrapper.Metadata) {
		fieldsJSON = wrapper.Metadata
	}
	var f apiDocumentFields
	if err := json.Unmarshal(fieldsJSON, &f); err != nil || f.ID == nil {
		return ragchat.DocumentRef{}, false
	}
	return ragchat.DocumentRef{
		ID:           *f.ID,
		FileName:     f.FileName,
		DocumentPath: f.DocumentPath,
		MimeType:     f.MimeType,
		NumPages:     f.NumPages,
		Page:         f.Page,
		AccessRoles:  f.AccessRoles,
	}, true
}

func missing(field string, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMissingField, field, err)
	}
	return fmt.Errorf("%w: %s", ErrMissingField, field)
}

func isObject(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == '{'
}

// completeObject reports whether data is a whole JSON object. Scalars
// never count, since a fragment like `1` or `true` is valid JSON on its own.
func completeObject(data []byte) bool {
	return isObject(data) && json.Valid(data)
}

// truncated reports whether data is a JSON value cut off before its end.
func truncated(data []byte) bool {
	var v json.RawMessage
	err := json.NewDecoder(bytes.NewReader(data)).Decode(&v)
	return errors.Is(err, io.ErrUnexpectedEOF)
}

func isArray(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == '['
}
