// Package voice manages the synthesis voice chosen for each work item.
// Each supported language has an ordered set of neural voices; the Rotator
// hands them out round-robin under a lock so concurrent workers each receive
// a distinct, well-defined position in the cycle.
package voice

import "sync"

// defaultVoiceSets maps a language code to its ordered voice variants.
var defaultVoiceSets = map[string][]string{
	"en-US": {
		"en-US-Neural2-A",
		"en-US-Neural2-C",
		"en-US-Neural2-D",
		"en-US-Neural2-E",
		"en-US-Neural2-F",
		"en-US-Neural2-G",
		"en-US-Neural2-H",
		"en-US-Neural2-I",
		"en-US-Neural2-J",
	},
	"ja-JP": {
		"ja-JP-Neural2-B",
		"ja-JP-Neural2-C",
		"ja-JP-Neural2-D",
		"ja-JP-Neural2-E",
	},
	"es-ES": {
		"es-ES-Neural2-A",
		"es-ES-Neural2-B",
		"es-ES-Neural2-C",
		"es-ES-Neural2-D",
	},
	"fr-FR": {
		"fr-FR-Neural2-A",
		"fr-FR-Neural2-B",
		"fr-FR-Neural2-C",
		"fr-FR-Neural2-D",
	},
	"de-DE": {
		"de-DE-Neural2-A",
		"de-DE-Neural2-B",
		"de-DE-Neural2-C",
		"de-DE-Neural2-D",
	},
}

// fallbackLanguage is used when no voice set exists for the requested
// language.
const fallbackLanguage = "en-US"

// Rotator cycles through the voice set of one language. With rotation
// disabled it always returns the first voice (fixed mode).
type Rotator struct {
	mu              sync.Mutex
	voices          []string
	cursor          int
	rotationEnabled bool
}

// NewRotator creates a Rotator for the given language. If voices is
// non-empty it overrides the built-in set; otherwise the language's default
// set is used, falling back to en-US for unknown languages.
func NewRotator(languageCode string, rotationEnabled bool, voices []string) *Rotator {
	if len(voices) == 0 {
		set, ok := defaultVoiceSets[languageCode]
		if !ok {
			set = defaultVoiceSets[fallbackLanguage]
		}
		voices = set
	}
	return &Rotator{
		voices:          append([]string(nil), voices...),
		rotationEnabled: rotationEnabled,
	}
}

// Next returns the next voice in the cycle and advances the cursor. In fixed
// mode it always returns the first voice without touching the cursor.
func (r *Rotator) Next() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.rotationEnabled {
		return r.voices[0]
	}

	v := r.voices[r.cursor]
	r.cursor = (r.cursor + 1) % len(r.voices)
	return v
}

// Current returns the voice Next would return, without advancing.
func (r *Rotator) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.rotationEnabled {
		return r.voices[0]
	}
	return r.voices[r.cursor]
}

// Voices returns a copy of the rotation set.
func (r *Rotator) Voices() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.voices...)
}

// SetRotationEnabled toggles between rotating and fixed mode. Re-enabling
// rotation resumes from the current cursor position.
func (r *Rotator) SetRotationEnabled(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rotationEnabled = enabled
}
