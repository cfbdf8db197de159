package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config stores runtime configuration for the call orchestrator.
type Config struct {
	Deepgram DeepgramConfig
	OpenAI   OpenAIConfig
	Audio    AudioConfig
	Call     CallConfig
	History  HistoryConfig
	Store    StoreConfig
	Log      LogConfig
}

type DeepgramConfig struct {
	APIKey     string
	APIBaseURL string
	WSBaseURL  string
	Model      string
	Voice      string
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type AudioConfig struct {
	SampleRate      int
	Channels        int
	FramesPerBuffer int
}

type CallConfig struct {
	ReplyTimeout    time.Duration
	FarewellTimeout time.Duration
	AcceptWindow    time.Duration
	HangupGrace     time.Duration
	GreetingTurns   int
}

type HistoryConfig struct {
	KafkaBrokers []string
	KafkaTopic   string
}

type StoreConfig struct {
	PostgresDSN string
	RedisAddr   string
	RedisTTL    time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// Load resolves configuration from environment variables and defaults.
// Missing capability credentials are a setup error: a call can never start
// without them, so they are rejected here rather than mid-call.
func Load() (Config, error) {
	cfg := Config{
		Deepgram: DeepgramConfig{
			APIKey:     strings.TrimSpace(os.Getenv("DEEPGRAM_API_KEY")),
			APIBaseURL: envOrDefault("DEEPGRAM_API_BASE", "https://api.deepgram.com/v1"),
			WSBaseURL:  envOrDefault("DEEPGRAM_WS_BASE", "wss://api.deepgram.com/v1"),
			Model:      envOrDefault("DEEPGRAM_MODEL", "nova-2"),
			Voice:      envOrDefault("DEEPGRAM_VOICE", "aura-asteria-en"),
		},
		OpenAI: OpenAIConfig{
			APIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
			BaseURL: strings.TrimSpace(os.Getenv("OPENAI_API_BASE")),
			Model:   envOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		},
		Audio: AudioConfig{
			SampleRate:      envOrDefaultInt("TALKLINE_SAMPLE_RATE", 16000),
			Channels:        envOrDefaultInt("TALKLINE_CHANNELS", 1),
			FramesPerBuffer: envOrDefaultInt("TALKLINE_FRAMES_PER_BUFFER", 1024),
		},
		Call: CallConfig{
			ReplyTimeout:    envOrDefaultDuration("TALKLINE_REPLY_TIMEOUT", 30*time.Second),
			FarewellTimeout: envOrDefaultDuration("TALKLINE_FAREWELL_TIMEOUT", 5*time.Second),
			AcceptWindow:    envOrDefaultDuration("TALKLINE_ACCEPT_WINDOW", 15*time.Second),
			HangupGrace:     envOrDefaultDuration("TALKLINE_HANGUP_GRACE", 1500*time.Millisecond),
			GreetingTurns:   envOrDefaultInt("TALKLINE_GREETING_TURNS", 20),
		},
		History: HistoryConfig{
			KafkaBrokers: splitList(os.Getenv("TALKLINE_KAFKA_BROKERS")),
			KafkaTopic:   envOrDefault("TALKLINE_KAFKA_TOPIC", "talkline.call-records"),
		},
		Store: StoreConfig{
			PostgresDSN: strings.TrimSpace(os.Getenv("TALKLINE_POSTGRES_DSN")),
			RedisAddr:   strings.TrimSpace(os.Getenv("TALKLINE_REDIS_ADDR")),
			RedisTTL:    envOrDefaultDuration("TALKLINE_REDIS_TTL", 30*24*time.Hour),
		},
		Log: LogConfig{
			Level:  envOrDefault("TALKLINE_LOG_LEVEL", "info"),
			Format: envOrDefault("TALKLINE_LOG_FORMAT", "console"),
		},
	}

	if cfg.Deepgram.APIKey == "" {
		return Config{}, errors.New("DEEPGRAM_API_KEY is required")
	}
	if cfg.OpenAI.APIKey == "" {
		return Config{}, errors.New("OPENAI_API_KEY is required")
	}

	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Audio.FramesPerBuffer < 64 {
		cfg.Audio.FramesPerBuffer = 1024
	}

	return cfg, nil
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
