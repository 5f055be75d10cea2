package ragchat

// Translation keys used by the assembler for decision status parts.
const (
	KeyYes              = "common.yes"
	KeyNo               = "common.no"
	KeyDecisionRetrieve = "chat.decision.retrieve"
	KeyDecisionAnswer   = "chat.decision.answer"
)

// Translator resolves a translation key to display text. Implementations
// return the key itself when it is unknown.
type Translator interface {
	Translate(key string) string
}

// TranslatorFunc adapts a function to the Translator interface.
type TranslatorFunc func(key string) string

// Translate calls f(key).
func (f TranslatorFunc) Translate(key string) string { return f(key) }

var englishStrings = map[string]string{
	KeyYes:              "Yes",
	KeyNo:               "No",
	KeyDecisionRetrieve: "Searching documents",
	KeyDecisionAnswer:   "Answering without documents",
}

// DefaultTranslator returns the built-in English translator.
func DefaultTranslator() Translator {
	return TranslatorFunc(func(key string) string {
		if s, ok := englishStrings[key]; ok {
			return s
		}
		return key
	})
}
