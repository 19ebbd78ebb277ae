package config

import "time"

// Config holds all engine configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Engine    EngineConfig    `mapstructure:"engine"    validate:"required"`
	Retry     RetryConfig     `mapstructure:"retry"     validate:"required"`
	Breaker   BreakerConfig   `mapstructure:"breaker"   validate:"required"`
	Synthesis SynthesisConfig `mapstructure:"synthesis" validate:"required"`
	Output    OutputConfig    `mapstructure:"output"    validate:"required"`
	Provider  ProviderConfig  `mapstructure:"provider"`
	Log       LogConfig       `mapstructure:"log"       validate:"required"`
}

// EngineConfig contains concurrency and batching settings.
type EngineConfig struct {
	// Workers is the size of the worker pool executing items within a batch.
	Workers int `mapstructure:"workers" validate:"required,gt=0,lte=64"`

	// MaxInFlight caps simultaneously in-flight provider calls. Typically at
	// or below Workers; it exists to respect the provider's concurrency
	// limits independent of local parallelism.
	MaxInFlight int `mapstructure:"max_in_flight" validate:"required,gt=0"`

	// BatchSize is the maximum number of items per planned batch.
	BatchSize int `mapstructure:"batch_size" validate:"required,gt=0"`

	// CheckpointInterval is how many batches to execute between checkpoint
	// saves.
	CheckpointInterval int `mapstructure:"checkpoint_interval" validate:"required,gt=0"`

	// InterBatchDelay is an optional pause between batches for provider-side
	// rate shaping.
	InterBatchDelay time.Duration `mapstructure:"inter_batch_delay" validate:"gte=0"`
}

// RetryConfig contains retry-with-backoff settings for provider calls.
type RetryConfig struct {
	MaxAttempts     int           `mapstructure:"max_attempts"     validate:"required,gt=0"`
	BaseDelay       time.Duration `mapstructure:"base_delay"       validate:"required,gt=0"`
	MaxDelay        time.Duration `mapstructure:"max_delay"        validate:"required,gt=0"`
	ExponentialBase float64       `mapstructure:"exponential_base" validate:"required,gt=1"`
	Jitter          bool          `mapstructure:"jitter"`
}

// BreakerConfig contains circuit breaker settings.
type BreakerConfig struct {
	FailureThreshold int           `mapstructure:"failure_threshold" validate:"required,gt=0"`
	RecoveryTimeout  time.Duration `mapstructure:"recovery_timeout"  validate:"required,gt=0"`
}

// SynthesisConfig contains the synthesis parameter settings.
type SynthesisConfig struct {
	// LanguageCode selects the voice set (e.g. "en-US", "ja-JP").
	LanguageCode string `mapstructure:"language_code" validate:"required"`

	// Voice is the fixed voice used when rotation is disabled. Empty means
	// the first voice of the language's set.
	Voice string `mapstructure:"voice"`

	// Voices optionally overrides the built-in voice set for the language.
	Voices []string `mapstructure:"voices"`

	// RotationEnabled cycles through the voice set instead of using a fixed
	// voice.
	RotationEnabled bool `mapstructure:"rotation_enabled"`

	Format     string `mapstructure:"format"      validate:"required,oneof=MP3 WAV OGG"`
	SampleRate int    `mapstructure:"sample_rate" validate:"required,gt=0"`
}

// OutputConfig contains filesystem locations and persistence toggles.
type OutputConfig struct {
	// Dir is where artifacts and the run summary are written.
	Dir string `mapstructure:"dir" validate:"required"`

	// CacheDir holds the cache index and is created on demand.
	CacheDir string `mapstructure:"cache_dir" validate:"required"`

	// CheckpointFile is the path of the resume checkpoint.
	CheckpointFile string `mapstructure:"checkpoint_file" validate:"required"`

	// CacheEnabled toggles the result cache.
	CacheEnabled bool `mapstructure:"cache_enabled"`

	// ResumeEnabled toggles checkpointing and resume.
	ResumeEnabled bool `mapstructure:"resume_enabled"`
}

// ProviderConfig contains settings for the external synthesis provider.
type ProviderConfig struct {
	// Endpoint overrides the provider's API endpoint. Empty selects the
	// provider default.
	Endpoint string `mapstructure:"endpoint" validate:"omitempty,url"`

	// APIKey authenticates against the provider.
	APIKey string `mapstructure:"api_key"`

	// Timeout bounds a single provider HTTP call.
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}
