package stt

import (
	"context"

	"go.uber.org/zap"

	"github.com/voxrelay/server/domain/repositories"
)

// MockSpeechToText is a placeholder implementation for credential-free
// development
type MockSpeechToText struct {
	logger *zap.Logger
}

// NewMockSpeechToText creates a new mock speech-to-text service
func NewMockSpeechToText(logger *zap.Logger) *MockSpeechToText {
	return &MockSpeechToText{
		logger: logger,
	}
}

// Transcribe returns a canned transcript scaled to the audio size
func (m *MockSpeechToText) Transcribe(ctx context.Context, audio []byte, config repositories.AudioConfig) ([]string, error) {
	m.logger.Info("Processing mock audio chunk",
		zap.Int("size", len(audio)),
		zap.String("language", config.Language),
		zap.String("encoding", config.Encoding))

	if len(audio) == 0 {
		return nil, nil
	}

	switch {
	case len(audio) > 10000:
		return []string{"Hello, how are you?", "I wanted to talk about today."}, nil
	case len(audio) > 1000:
		return []string{"Hello there!"}, nil
	default:
		return []string{"Hi"}, nil
	}
}
