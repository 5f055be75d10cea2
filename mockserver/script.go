package mockserver

import (
	"slices"
	"strings"

	"github.com/fwojciec/ragchat"
)

func intp(n int) *int { return &n }

// Library is the document set DefaultScript cites from.
var Library = []ragchat.DocumentRef{
	{ID: 1, FileName: "social-security-handbook.pdf", DocumentPath: "/handbooks/social-security-handbook.pdf", MimeType: "application/pdf", NumPages: intp(48), Page: intp(12), AccessRoles: []string{"staff"}},
	{ID: 2, FileName: "rent-and-ancillary-costs.pdf", DocumentPath: "/guidelines/housing/rent-and-ancillary-costs.pdf", MimeType: "application/pdf", NumPages: intp(9), Page: intp(3), AccessRoles: []string{"staff"}},
	{ID: 3, FileName: "inheritance-faq.md", DocumentPath: "/guidelines/inheritance-faq.md", MimeType: "text/markdown", AccessRoles: []string{}},
}

// DefaultScript walks through every event kind: routing decision, retrieval,
// a chunked markdown answer and the grading decision. Messages ending in
// "?" are treated as needing retrieval; documents are restricted to
// req.DocumentIDs when given.
func DefaultScript(req Request) []ragchat.Event {
	retrieve := strings.HasSuffix(strings.TrimSpace(req.Message), "?")

	events := []ragchat.Event{
		ragchat.EventStatus{Sender: ragchat.SenderStatus, TranslationKey: "chat.status.thinking"},
		ragchat.EventDecision{Sender: ragchat.SenderShouldRetrieve, Decision: retrieve, Reason: "question mark heuristic"},
	}

	var docs []ragchat.DocumentRef
	if retrieve {
		events = append(events, ragchat.EventStatus{Sender: ragchat.SenderStatus, TranslationKey: "chat.status.retrieving"})
		for _, d := range Library {
			if len(req.DocumentIDs) == 0 || slices.Contains(req.DocumentIDs, d.ID) {
				docs = append(docs, d)
			}
		}
		events = append(events, ragchat.EventDocuments{Sender: ragchat.SenderRetrieveAction, Documents: docs})
	}

	events = append(events, ragchat.EventStatus{Sender: ragchat.SenderStatus, TranslationKey: "chat.status.answering"})
	for _, chunk := range chunks(answerFor(req.Message, docs)) {
		events = append(events, ragchat.EventAnswer{Sender: ragchat.SenderAnswerAction, Text: chunk})
	}

	events = append(events, ragchat.EventStatus{Sender: ragchat.SenderStatus, TranslationKey: "chat.status.grading"})
	if retrieve && len(docs) == 0 {
		events = append(events, ragchat.EventDecision{Sender: ragchat.SenderIsTruthful, Decision: false, Reason: "no documents in the selection"})
	} else {
		events = append(events, ragchat.EventDecision{Sender: ragchat.SenderIsTruthful, Decision: true, Reason: "grounded"})
	}
	return events
}

func answerFor(question string, docs []ragchat.DocumentRef) string {
	var sb strings.Builder
	sb.WriteString("You asked: *")
	sb.WriteString(strings.TrimSpace(question))
	sb.WriteString("*\n\n")
	if len(docs) == 0 {
		sb.WriteString("This is a mock answer written without consulting any documents.")
		return sb.String()
	}
	sb.WriteString("This mock answer is based on:\n\n")
	for _, d := range docs {
		sb.WriteString("- **")
		sb.WriteString(d.FileName)
		sb.WriteString("**\n")
	}
	return sb.String()
}

// chunks splits s after every space so the pieces concatenate back to s.
func chunks(s string) []string {
	var out []string
	for len(s) > 0 {
		i := strings.IndexByte(s, ' ')
		if i < 0 {
			out = append(out, s)
			break
		}
		out = append(out, s[:i+1])
		s = s[i+1:]
	}
	return out
}
