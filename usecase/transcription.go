package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/voxrelay/server/domain"
	"github.com/voxrelay/server/domain/repositories"
	"github.com/voxrelay/server/internal/language"
)

// TranscriptionService orchestrates the speech-to-text call and the
// conditional translation for one validated audio chunk.
type TranscriptionService struct {
	speechToText repositories.SpeechToText
	translator   repositories.Translator
	languages    *language.Policy
	logger       *zap.Logger
}

// NewTranscriptionService creates a new transcription service. translator may
// be nil when no translation backend is configured; transcripts then pass
// through untranslated.
func NewTranscriptionService(
	stt repositories.SpeechToText,
	translator repositories.Translator,
	languages *language.Policy,
	logger *zap.Logger,
) *TranscriptionService {
	return &TranscriptionService{
		speechToText: stt,
		translator:   translator,
		languages:    languages,
		logger:       logger,
	}
}

// Process transcribes and, when source and target land in different coarse
// language families, translates one audio chunk. A nil result with a nil
// error means the audio contained no recognizable speech; no event should be
// emitted for it.
func (s *TranscriptionService) Process(ctx context.Context, req *domain.AudioChunkRequest) (*domain.TranscriptionResult, error) {
	audioConfig := repositories.AudioConfig{
		SampleRate: req.SampleRateHertz,
		Encoding:   req.Encoding,
		Language:   req.SourceLanguage,
	}

	transcripts, err := s.speechToText.Transcribe(ctx, req.Audio, audioConfig)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	text := strings.TrimSpace(strings.Join(transcripts, " "))
	if text == "" {
		// Silence is not an error.
		s.logger.Debug("No speech detected in audio chunk",
			zap.String("from", req.From),
			zap.String("to", req.To))
		return nil, nil
	}

	translated, err := s.translate(ctx, text, req)
	if err != nil {
		return nil, err
	}

	return &domain.TranscriptionResult{
		Text:       text,
		Translated: translated,
		From:       req.From,
		To:         req.To,
		SequenceID: req.SequenceID,
	}, nil
}

func (s *TranscriptionService) translate(ctx context.Context, text string, req *domain.AudioChunkRequest) (string, error) {
	if !s.languages.NeedsTranslation(req.SourceLanguage, req.TargetLanguage) {
		return text, nil
	}

	if s.translator == nil {
		s.logger.Warn("Translation requested but no translator is configured, passing transcript through",
			zap.String("source", req.SourceLanguage),
			zap.String("target", req.TargetLanguage))
		return text, nil
	}

	translated, err := s.translator.Translate(ctx, text, req.SourceLanguage, req.TargetLanguage)
	if err != nil {
		return "", fmt.Errorf("translation failed: %w", err)
	}
	if translated == "" {
		// The service returned no translation; fall back to the transcript.
		return text, nil
	}
	return translated, nil
}
