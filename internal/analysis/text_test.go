package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze_CleanText(t *testing.T) {
	a := NewHeuristicTextAnalyzer()

	result, err := a.Analyze(context.Background(), "Thanks for sharing this helpful guide. Great work!")
	require.NoError(t, err)

	assert.Equal(t, "positive", result.Sentiment)
	assert.Zero(t, result.Toxicity)
	assert.NotEmpty(t, result.Keywords)
}

func TestAnalyze_ToxicText(t *testing.T) {
	a := NewHeuristicTextAnalyzer()

	result, err := a.Analyze(context.Background(), "you are a stupid worthless idiot")
	require.NoError(t, err)

	// 3 toxic hits out of 6 words, scaled by 10 and clamped.
	assert.InDelta(t, 1.0, result.Toxicity, 1e-9)
	assert.Equal(t, "neutral", result.Sentiment)
}

func TestAnalyze_Empty(t *testing.T) {
	a := NewHeuristicTextAnalyzer()

	result, err := a.Analyze(context.Background(), "")
	require.NoError(t, err)

	assert.Zero(t, result.Toxicity)
	assert.Equal(t, "neutral", result.Sentiment)
	assert.Empty(t, result.Keywords)
	assert.Zero(t, result.ReadabilityScore)
}

func TestSentiment(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"this is great and amazing, love it", "positive"},
		{"terrible awful product, the worst", "negative"},
		{"the meeting is at noon", "neutral"},
		{"good but also bad", "neutral"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, sentiment(splitWords(tc.text)), "text: %s", tc.text)
	}
}

func TestTopKeywords(t *testing.T) {
	words := splitWords("database database database server server cache a of by")
	keywords := topKeywords(words, 2)

	// Short words are ignored, most frequent first.
	assert.Equal(t, []string{"database", "server"}, keywords)
}

func TestCountSyllables(t *testing.T) {
	cases := map[string]int{
		"cat":       1,
		"hello":     2,
		"beautiful": 3,
		"rhythm":    1,
		"xyz":       1,
	}
	for word, want := range cases {
		assert.Equal(t, want, CountSyllables(word), "word: %s", word)
	}
}

func TestReadability_Bounds(t *testing.T) {
	simple := readability("The cat sat.", splitWords("The cat sat."))
	assert.Greater(t, simple, 90.0)

	long := "Internationalization considerations necessitate comprehensive organizational restructuring methodologies"
	dense := readability(long, splitWords(long))
	assert.GreaterOrEqual(t, dense, 0.0)
	assert.LessOrEqual(t, dense, 100.0)
}
