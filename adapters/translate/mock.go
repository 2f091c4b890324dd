package translate

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// MockTranslator is a placeholder implementation for credential-free
// development
type MockTranslator struct {
	logger *zap.Logger
}

// NewMockTranslator creates a new mock translator
func NewMockTranslator(logger *zap.Logger) *MockTranslator {
	return &MockTranslator{logger: logger}
}

// Translate tags the text with the target language so the flow is visible
// end to end
func (m *MockTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	m.logger.Info("Mock translation",
		zap.String("source", sourceLang),
		zap.String("target", targetLang))
	return fmt.Sprintf("[%s] %s", targetLang, text), nil
}
