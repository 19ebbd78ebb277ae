package synthesis

import "context"

// AudioFormat identifies the encoding of a produced artifact.
type AudioFormat string

// Supported audio output formats
const (
	FormatMP3 AudioFormat = "MP3"
	FormatWAV AudioFormat = "WAV"
	FormatOGG AudioFormat = "OGG"
)

// Ext returns the file extension for the format, without a leading dot.
func (f AudioFormat) Ext() string {
	switch f {
	case FormatWAV:
		return "wav"
	case FormatOGG:
		return "ogg"
	default:
		return "mp3"
	}
}

// Valid reports whether the format is one of the supported values.
func (f AudioFormat) Valid() bool {
	switch f {
	case FormatMP3, FormatWAV, FormatOGG:
		return true
	}
	return false
}

// Params are the synthesis parameters chosen for a single work item. Together
// with the item text they determine the cache identity of the artifact:
// VoiceID, Format and SampleRate participate in the cache key, LanguageCode
// does not (the voice name already pins the language).
type Params struct {
	VoiceID      string      `json:"voice_id"`
	Format       AudioFormat `json:"format"`
	SampleRate   int         `json:"sample_rate"`
	LanguageCode string      `json:"language_code"`
}

// Provider converts text to audio via an external synthesis service.
// Implementations must be safe for concurrent use; the engine invokes
// Synthesize from multiple workers at once, already wrapped in the
// resilience layer.
type Provider interface {
	// Name returns the provider identifier (for logging and breaker naming).
	Name() string

	// Synthesize converts text to audio bytes using the given parameters.
	Synthesize(ctx context.Context, text string, params Params) ([]byte, error)
}
