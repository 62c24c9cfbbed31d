package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	// Persistence. MONGODB_URL is the spec's historical env var name for
	// the datastore DSN; it is read here as a Postgres connection string
	// (see DESIGN.md for why Postgres, not Mongo, backs this service).
	MongoDBURL string `env:"MONGODB_URL,required"`
	RedisURL   string `env:"REDIS_URL,required"`
	ServerURL  string `env:"SERVER_URL,required"`

	PORT string `env:"PORT" envDefault:"8080"`

	TwilioAccountSID string `env:"TWILIO_ACCOUNT_SID,required"`
	TwilioAuthToken  string `env:"TWILIO_AUTH_TOKEN,required"`
	TwilioFromNumber string `env:"TWILIO_FROM_NUMBER,required"`

	OpenAIAPIKey     string `env:"OPENAI_API_KEY,required"`
	ElevenLabsAPIKey string `env:"ELEVENLABS_API_KEY,required"`
	TTSVoiceID       string `env:"TTS_VOICE_ID" envDefault:"21m00Tcm4TlvDq8ikWAM"`
	FallbackVoiceID  string `env:"FALLBACK_VOICE_ID" envDefault:"alice"`

	VADThreshold    float64       `env:"VAD_THRESHOLD" envDefault:"0.03"`
	SilenceTimeout  time.Duration `env:"SILENCE_TIMEOUT" envDefault:"1500ms"`

	GPTModel              string `env:"GPT_MODEL" envDefault:"gpt-4o-mini"`
	GPTMaxResponseTokens  int    `env:"GPT_MAX_RESPONSE_TOKENS" envDefault:"200"`
	MaxResponseLength     int    `env:"MAX_RESPONSE_LENGTH" envDefault:"200"`

	// STT provider selection: "elevenlabs" (default, primary per SPEC_FULL)
	// or "whisper" (alternate, OpenAI-Whisper-compatible endpoint).
	STTProvider string `env:"STT_PROVIDER" envDefault:"elevenlabs"`
	WhisperURL  string `env:"WHISPER_URL"`

	AudioDir          string `env:"AUDIO_DIR" envDefault:"./audio"`
	AudioStoreBackend string `env:"AUDIO_STORE_BACKEND" envDefault:"local"` // local|s3
	S3Bucket          string `env:"S3_BUCKET"`
	S3Region          string `env:"S3_REGION"`
	S3Endpoint        string `env:"S3_ENDPOINT"`
	S3AccessKey       string `env:"S3_ACCESS_KEY"`
	S3SecretKey       string `env:"S3_SECRET_KEY"`
	S3Prefix          string `env:"S3_PREFIX"`

	AudioRetention time.Duration `env:"AUDIO_RETENTION" envDefault:"168h"`
	AudioMaxBytes  int64         `env:"AUDIO_MAX_BYTES" envDefault:"10737418240"`

	// JobQueue worker-pool concurrency, one per named queue (spec §5).
	STTWorkers int `env:"STT_WORKERS" envDefault:"5"`
	LLMWorkers int `env:"LLM_WORKERS" envDefault:"3"`
	TTSWorkers int `env:"TTS_WORKERS" envDefault:"3"`

	ResponseSoftTimeout    time.Duration `env:"RESPONSE_SOFT_TIMEOUT" envDefault:"15s"`
	RecordingHardCap       time.Duration `env:"RECORDING_HARD_CAP" envDefault:"120s"`
	TeardownGrace          time.Duration `env:"TEARDOWN_GRACE" envDefault:"45s"`
	TeardownGraceExtension time.Duration `env:"TEARDOWN_GRACE_EXTENSION" envDefault:"20s"`

	MediaStreamEnabled bool `env:"MEDIA_STREAM_ENABLED" envDefault:"false"`

	HTTPAddr     string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"0s"` // 0 allows long-lived webhook/WS connections
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`

	AuthEnabled        bool   `env:"AUTH_ENABLED" envDefault:"true"`
	AuthToken          string `env:"AUTH_TOKEN"`
	AuthTokenGenerated bool   // true when auto-generated (not from env/config)
	WriteToken         string  `env:"WRITE_TOKEN"`
	RateLimitRPS       float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst     int     `env:"RATE_LIMIT_BURST" envDefault:"40"`
	CORSOrigins        string  `env:"CORS_ORIGINS"`
	LogLevel           string  `env:"LOG_LEVEL" envDefault:"info"`

	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`
}

// Validate checks the config fields that env struct tags cannot express.
func (c *Config) Validate() error {
	if c.AudioStoreBackend != "local" && c.AudioStoreBackend != "s3" {
		return fmt.Errorf("AUDIO_STORE_BACKEND must be \"local\" or \"s3\", got %q", c.AudioStoreBackend)
	}
	if c.AudioStoreBackend == "s3" && c.S3Bucket == "" {
		return fmt.Errorf("S3_BUCKET is required when AUDIO_STORE_BACKEND=s3")
	}
	if c.STTProvider != "elevenlabs" && c.STTProvider != "whisper" {
		return fmt.Errorf("STT_PROVIDER must be \"elevenlabs\" or \"whisper\", got %q", c.STTProvider)
	}
	if c.STTProvider == "whisper" && c.WhisperURL == "" {
		return fmt.Errorf("WHISPER_URL is required when STT_PROVIDER=whisper")
	}
	return nil
}

// Overrides holds CLI flag values that take priority over env vars.
type Overrides struct {
	EnvFile    string
	HTTPAddr   string
	LogLevel   string
	MongoDBURL string
	RedisURL   string
	AudioDir   string
}

// Load reads configuration from .env file, environment variables, and CLI
// overrides. Priority: CLI flags > environment variables > .env file >
// struct defaults.
func Load(overrides Overrides) (*Config, error) {
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if overrides.HTTPAddr != "" {
		cfg.HTTPAddr = overrides.HTTPAddr
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}
	if overrides.MongoDBURL != "" {
		cfg.MongoDBURL = overrides.MongoDBURL
	}
	if overrides.RedisURL != "" {
		cfg.RedisURL = overrides.RedisURL
	}
	if overrides.AudioDir != "" {
		cfg.AudioDir = overrides.AudioDir
	}

	if !cfg.AuthEnabled {
		cfg.AuthToken = ""
	} else if cfg.AuthToken == "" {
		// Auto-generate AUTH_TOKEN if not configured, so the initiate API is
		// never left unauthenticated by omission. Changes on each restart
		// unless AUTH_TOKEN is set explicitly.
		b := make([]byte, 32)
		if _, err := rand.Read(b); err == nil {
			cfg.AuthToken = base64.URLEncoding.EncodeToString(b)
			cfg.AuthTokenGenerated = true
		}
	}

	return cfg, nil
}
