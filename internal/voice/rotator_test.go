package voice

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotator_FixedMode(t *testing.T) {
	t.Parallel()

	r := NewRotator("en-US", false, nil)

	first := r.Voices()[0]
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, r.Next())
	}
	assert.Equal(t, first, r.Current())
}

func TestRotator_CyclesInOrder(t *testing.T) {
	t.Parallel()

	r := NewRotator("", true, []string{"a", "b", "c"})

	got := []string{r.Next(), r.Next(), r.Next(), r.Next(), r.Next()}
	assert.Equal(t, []string{"a", "b", "c", "a", "b"}, got)
}

func TestRotator_CurrentPeeksWithoutAdvancing(t *testing.T) {
	t.Parallel()

	r := NewRotator("", true, []string{"a", "b"})

	assert.Equal(t, "a", r.Current())
	assert.Equal(t, "a", r.Current())
	assert.Equal(t, "a", r.Next())
	assert.Equal(t, "b", r.Current())
}

func TestRotator_LanguageSets(t *testing.T) {
	t.Parallel()

	t.Run("known language", func(t *testing.T) {
		t.Parallel()

		r := NewRotator("ja-JP", true, nil)
		require.Len(t, r.Voices(), 4)
		assert.Equal(t, "ja-JP-Neural2-B", r.Next())
	})

	t.Run("unknown language falls back to en-US", func(t *testing.T) {
		t.Parallel()

		r := NewRotator("xx-XX", true, nil)
		assert.Equal(t, NewRotator("en-US", true, nil).Voices(), r.Voices())
	})

	t.Run("explicit voices override the built-in set", func(t *testing.T) {
		t.Parallel()

		r := NewRotator("en-US", true, []string{"custom-voice"})
		assert.Equal(t, []string{"custom-voice"}, r.Voices())
	})
}

func TestRotator_ConcurrentNextIsFair(t *testing.T) {
	t.Parallel()

	voices := []string{"a", "b", "c", "d", "e"}
	r := NewRotator("", true, voices)

	const callers = 25 // 5 full cycles
	results := make(chan string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- r.Next()
		}()
	}
	wg.Wait()
	close(results)

	// Serialized access means exactly callers/len(voices) hits per voice:
	// no skips, no repeats within a cycle.
	counts := map[string]int{}
	for v := range results {
		counts[v]++
	}
	require.Len(t, counts, len(voices))
	for _, v := range voices {
		assert.Equal(t, 5, counts[v], "voice %s", v)
	}
}

func TestRotator_SetRotationEnabled(t *testing.T) {
	t.Parallel()

	r := NewRotator("", true, []string{"a", "b", "c"})
	require.Equal(t, "a", r.Next())

	r.SetRotationEnabled(false)
	assert.Equal(t, "a", r.Next())
	assert.Equal(t, "a", r.Next())

	// Rotation resumes from where the cursor stopped.
	r.SetRotationEnabled(true)
	assert.Equal(t, "b", r.Next())
}
