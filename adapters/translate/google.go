package translate

import (
	"context"
	"fmt"

	"cloud.google.com/go/translate"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// GoogleTranslator implements Translator using the Google Cloud Translation
// API
type GoogleTranslator struct {
	client *translate.Client
	logger *zap.Logger
}

// NewGoogleTranslator creates a new Google Cloud translation adapter. It
// fails when no project/credentials context is available; callers are
// expected to run without a translator in that case.
func NewGoogleTranslator(ctx context.Context, logger *zap.Logger) (*GoogleTranslator, error) {
	client, err := translate.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create translate client: %w", err)
	}
	return &GoogleTranslator{
		client: client,
		logger: logger,
	}, nil
}

// Translate converts text between languages, returning the first translation
// the service offers. An empty result means the service returned none.
func (t *GoogleTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	target, err := language.Parse(targetLang)
	if err != nil {
		return "", fmt.Errorf("invalid target language %q: %w", targetLang, err)
	}
	source, err := language.Parse(sourceLang)
	if err != nil {
		return "", fmt.Errorf("invalid source language %q: %w", sourceLang, err)
	}

	translations, err := t.client.Translate(ctx, []string{text}, target, &translate.Options{
		Source: source,
		Format: translate.Text,
	})
	if err != nil {
		return "", fmt.Errorf("failed to translate text: %w", err)
	}
	if len(translations) == 0 {
		return "", nil
	}
	return translations[0].Text, nil
}

// Close releases the underlying client
func (t *GoogleTranslator) Close() error {
	return t.client.Close()
}
