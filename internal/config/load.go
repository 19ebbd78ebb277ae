package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from an optional YAML file and from environment
// variables with the BATCHVOX_ prefix (e.g. BATCHVOX_ENGINE_WORKERS).
// Environment variables take precedence over file values, which take
// precedence over defaults. The result is validated before being returned.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("BATCHVOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// setDefaults establishes the engine's baseline tuning.
func setDefaults(v *viper.Viper) {
	v.SetDefault("engine.workers", 5)
	v.SetDefault("engine.max_in_flight", 15)
	v.SetDefault("engine.batch_size", 20)
	v.SetDefault("engine.checkpoint_interval", 50)
	v.SetDefault("engine.inter_batch_delay", 50*time.Millisecond)

	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.base_delay", 1*time.Second)
	v.SetDefault("retry.max_delay", 60*time.Second)
	v.SetDefault("retry.exponential_base", 2.0)
	v.SetDefault("retry.jitter", true)

	v.SetDefault("breaker.failure_threshold", 5)
	v.SetDefault("breaker.recovery_timeout", 60*time.Second)

	v.SetDefault("synthesis.language_code", "en-US")
	v.SetDefault("synthesis.rotation_enabled", true)
	v.SetDefault("synthesis.format", "MP3")
	v.SetDefault("synthesis.sample_rate", 24000)

	v.SetDefault("output.dir", "tts_output")
	v.SetDefault("output.cache_dir", "tts_cache")
	v.SetDefault("output.checkpoint_file", "processing_checkpoint.json")
	v.SetDefault("output.cache_enabled", true)
	v.SetDefault("output.resume_enabled", true)

	v.SetDefault("provider.timeout", 30*time.Second)

	v.SetDefault("log.level", "info")
}
