// Package i18n provides a [ragchat.Translator] backed by a
// golang.org/x/text message catalog with English and German strings.
package i18n

import (
	"strconv"
	"strings"

	"github.com/fwojciec/ragchat"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Keys for interface text and the status steps emitted by the backend.
const (
	KeySources        = "chat.sources"
	KeyPage           = "chat.page"
	KeyNewChat        = "chat.new"
	KeyPressEnter     = "chat.pressEnterToSend"
	KeyExampleTitle   = "chat.exampleQuestions.title"
	KeyExampleHelp    = "chat.exampleQuestions.description"
	KeyExample1       = "chat.exampleQuestions.question1"
	KeyExample2       = "chat.exampleQuestions.question2"
	KeyExample3       = "chat.exampleQuestions.question3"
	KeyStatusThinking = "chat.status.thinking"
	KeyStatusRetrieve = "chat.status.retrieving"
	KeyStatusGrading  = "chat.status.grading"
	KeyStatusAnswer   = "chat.status.answering"
)

// DefaultLocale is used when a locale string matches nothing supported.
const DefaultLocale = "de"

var supported = []language.Tag{language.German, language.English}

var matcher = language.NewMatcher(supported)

var strs = map[language.Tag]map[string]string{
	language.English: {
		ragchat.KeyYes:              "Yes",
		ragchat.KeyNo:               "No",
		ragchat.KeyDecisionRetrieve: "Searching documents",
		ragchat.KeyDecisionAnswer:   "Answering without documents",
		KeySources:                  "Sources",
		KeyPage:                     "Page {page} of {num_pages}",
		KeyNewChat:                  "New Chat",
		KeyPressEnter:               "Press Enter to send",
		KeyExampleTitle:             "Try asking:",
		KeyExampleHelp:              "Enter your own question to start.",
		KeyExample1:                 "What can be reimbursed as rent and ancillary costs for homeowners?",
		KeyExample2:                 "What do I need to consider following an inheritance?",
		KeyExample3:                 "Does the salary from the month before support count as income?",
		KeyStatusThinking:           "Thinking",
		KeyStatusRetrieve:           "Retrieving documents",
		KeyStatusGrading:            "Checking the answer",
		KeyStatusAnswer:             "Writing the answer",
	},
	language.German: {
		ragchat.KeyYes:              "Ja",
		ragchat.KeyNo:               "Nein",
		ragchat.KeyDecisionRetrieve: "Dokumente werden durchsucht",
		ragchat.KeyDecisionAnswer:   "Antwort ohne Dokumente",
		KeySources:                  "Quellen",
		KeyPage:                     "Seite {page} von {num_pages}",
		KeyNewChat:                  "Neuer Chat",
		KeyPressEnter:               "Drücken Sie Enter, um die Nachricht zu senden",
		KeyExampleTitle:             "Fragen Sie zum Beispiel:",
		KeyExampleHelp:              "Geben Sie Ihre eigene Frage ein, um zu beginnen.",
		KeyExample1:                 "Was kann bei Hausbesitzer:innen alles als Miete und Nebenkosten erstattet werden?",
		KeyExample2:                 "Was muss ich in Folge einer Erbschaft beachten?",
		KeyExample3:                 "Zählt der Lohn aus dem Monat vor Unterstützung als Einnahme?",
		KeyStatusThinking:           "Überlege",
		KeyStatusRetrieve:           "Dokumente werden abgerufen",
		KeyStatusGrading:            "Antwort wird geprüft",
		KeyStatusAnswer:             "Antwort wird geschrieben",
	},
}

var cat = func() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, m := range strs {
		for key, s := range m {
			// SetString only fails for malformed messages.
			_ = b.SetString(tag, key, s)
		}
	}
	return b
}()

// Interface compliance check.
var _ ragchat.Translator = (*Translator)(nil)

// Translator resolves keys for one language. Unknown keys return the key.
type Translator struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns a Translator for the best supported match of locale, which
// may be a BCP 47 tag or an Accept-Language style list ("de-CH, en;q=0.8").
func New(locale string) *Translator {
	if strings.TrimSpace(locale) == "" {
		locale = DefaultLocale
	}
	tag, _ := language.MatchStrings(matcher, locale)
	base, _ := tag.Base()
	tag = language.Make(base.String())
	return &Translator{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(cat)),
	}
}

// Language returns the resolved language.
func (t *Translator) Language() language.Tag { return t.tag }

// Translate returns the localized text for key.
func (t *Translator) Translate(key string) string {
	if strings.ContainsRune(key, '%') {
		return key
	}
	return t.printer.Sprintf(key)
}

// Page formats a page reference such as "Page 3 of 12".
func (t *Translator) Page(page, numPages int) string {
	return strings.NewReplacer(
		"{page}", strconv.Itoa(page),
		"{num_pages}", strconv.Itoa(numPages),
	).Replace(t.Translate(KeyPage))
}

// Examples returns the example questions offered on an empty chat.
func (t *Translator) Examples() []string {
	return []string{
		t.Translate(KeyExample1),
		t.Translate(KeyExample2),
		t.Translate(KeyExample3),
	}
}

// Supported returns the supported languages in preference order.
func Supported() []language.Tag {
	return append([]language.Tag(nil), supported...)
}
