package repositories

import "context"

// Translator abstracts text translation services
type Translator interface {
	// Translate converts text from sourceLang to targetLang. An empty
	// result with a nil error means the service returned no translation;
	// callers fall back to the untranslated text.
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}
