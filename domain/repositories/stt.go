package repositories

import "context"

// AudioConfig represents audio configuration for speech recognition
type AudioConfig struct {
	SampleRate int    `json:"sample_rate"`
	Encoding   string `json:"encoding"`
	Language   string `json:"language"`
}

// SpeechToText abstracts speech recognition services
type SpeechToText interface {
	// Transcribe converts audio data to text. It returns the best
	// alternative of every recognition result in order; an empty slice
	// means no speech was detected, which is not an error.
	Transcribe(ctx context.Context, audio []byte, config AudioConfig) ([]string, error)
}
