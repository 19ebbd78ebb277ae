package orchestrator

import (
	"fmt"
	"regexp"
	"strings"
)

// maxExcerptRunes caps the sanitized text excerpt embedded in an artifact
// name, keeping filenames within filesystem limits.
const maxExcerptRunes = 100

var (
	hostileChars  = regexp.MustCompile(`[<>:"/\\|?*]`)
	separators    = regexp.MustCompile(`[\s、。！？!?]+`)
	repeatedScore = regexp.MustCompile(`_+`)
)

// ArtifactName builds a deterministic, filesystem-safe base name (without
// extension) for an item's artifact: a zero-padded index prefix followed by a
// sanitized excerpt of the text. If sanitization strips everything, the name
// falls back to the index alone.
func ArtifactName(index int, text string) string {
	excerpt := strings.TrimSpace(text)

	if runes := []rune(excerpt); len(runes) > maxExcerptRunes {
		excerpt = string(runes[:maxExcerptRunes-3]) + "..."
	}

	excerpt = hostileChars.ReplaceAllString(excerpt, "")
	excerpt = separators.ReplaceAllString(excerpt, "_")
	excerpt = repeatedScore.ReplaceAllString(excerpt, "_")
	excerpt = strings.Trim(excerpt, "_")

	if excerpt == "" {
		excerpt = fmt.Sprintf("sentence_%04d", index)
	}

	return fmt.Sprintf("%04d_%s", index, excerpt)
}
