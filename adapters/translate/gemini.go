package translate

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const geminiModel = "gemini-2.0-flash"

// GeminiTranslator implements Translator using Google's Gemini API. It is an
// alternative backend for deployments without a Cloud Translation project.
type GeminiTranslator struct {
	client *genai.Client
	logger *zap.Logger
	model  string
}

// NewGeminiTranslator creates a new Gemini-backed translator
func NewGeminiTranslator(logger *zap.Logger) (*GeminiTranslator, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiTranslator{
		client: client,
		logger: logger,
		model:  geminiModel,
	}, nil
}

// Translate asks the model for a bare translation of text
func (t *GeminiTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	prompt := fmt.Sprintf(
		"Translate the following text from %s to %s. Reply with the translation only, no explanations.\n\n%s",
		sourceLang, targetLang, text)

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	response, err := t.client.Models.GenerateContent(ctx, t.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate translation: %w", err)
	}
	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return "", nil
	}

	var translated string
	for _, part := range response.Candidates[0].Content.Parts {
		if part.Text != "" {
			translated += part.Text
		}
	}
	return strings.TrimSpace(translated), nil
}
