package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all runtime settings. Every value has a default so the server
// can start from a bare environment.
type Config struct {
	// Port is the HTTP listen port.
	Port string

	// MaxPending is the backpressure ceiling: the maximum number of audio
	// chunks a single connection may have in flight (queued or processing)
	// before new submissions are rejected outright.
	MaxPending int

	// RateLimitWindow is the trailing interval over which audio submissions
	// are counted for rate limiting.
	RateLimitWindow time.Duration

	// RateLimitMaxRequests is the maximum number of audio chunks a
	// connection may process within RateLimitWindow.
	RateLimitMaxRequests int

	// MaxAudioBytes is the maximum decoded size of a single audio payload.
	MaxAudioBytes int

	// DefaultSampleRate is used when a chunk carries no sample rate or one
	// outside the accepted [8000, 48000] Hz range.
	DefaultSampleRate int

	// DefaultEncoding is used when a chunk carries no encoding or one
	// outside the allow-list.
	DefaultEncoding string

	// PrimaryLanguage and SecondaryLanguage are the two coarse language
	// tags the translation routing distinguishes. PrimaryLocale and
	// SecondaryLocale are the full codes passed to the external services.
	PrimaryLanguage   string
	SecondaryLanguage string
	PrimaryLocale     string
	SecondaryLocale   string

	// FallbackLanguage is the source locale used when a chunk carries a
	// syntactically invalid language code.
	FallbackLanguage string

	// STTProvider selects the speech-to-text adapter: "google" or "mock".
	STTProvider string

	// TranslatorProvider selects the translation adapter: "google",
	// "gemini", "mock" or "off".
	TranslatorProvider string
}

// Load reads configuration from environment variables, applying defaults for
// anything unset or unparsable.
func Load() *Config {
	return &Config{
		Port:                 envString("PORT", "8080"),
		MaxPending:           envInt("STT_MAX_PENDING", 8),
		RateLimitWindow:      time.Duration(envInt("STT_RATE_LIMIT_WINDOW_MS", 10000)) * time.Millisecond,
		RateLimitMaxRequests: envInt("STT_RATE_LIMIT_MAX_REQUESTS", 20),
		MaxAudioBytes:        envInt("STT_MAX_AUDIO_BYTES", 512*1024),
		DefaultSampleRate:    envInt("STT_DEFAULT_SAMPLE_RATE", 16000),
		DefaultEncoding:      envString("STT_DEFAULT_ENCODING", "LINEAR16"),
		PrimaryLanguage:      envString("PRIMARY_LANGUAGE", "en"),
		SecondaryLanguage:    envString("SECONDARY_LANGUAGE", "es"),
		PrimaryLocale:        envString("PRIMARY_LOCALE", "en-US"),
		SecondaryLocale:      envString("SECONDARY_LOCALE", "es-ES"),
		FallbackLanguage:     envString("FALLBACK_LANGUAGE", "en-US"),
		STTProvider:          envString("STT_PROVIDER", "google"),
		TranslatorProvider:   envString("TRANSLATOR_PROVIDER", "google"),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
