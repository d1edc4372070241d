// Package analysis provides the content analysis collaborators used by the
// screening pipeline: local text analytics, the external image scorer, and
// the file scanner.
package analysis

import (
	"context"
	"math"
	"sort"
	"strings"
)

// TextAnalysis is the result of analyzing a blob of user text.
type TextAnalysis struct {
	Sentiment        string   `json:"sentiment"` // positive, negative or neutral
	Toxicity         float64  `json:"toxicity"`  // 0..1
	Keywords         []string `json:"keywords"`
	ReadabilityScore float64  `json:"readability_score"` // 0..100
}

// TextAnalyzer scores a blob of text. Implementations may be remote and
// must be treated as fallible; screening degrades to pending_review on error.
type TextAnalyzer interface {
	Analyze(ctx context.Context, text string) (*TextAnalysis, error)
}

var toxicKeywords = []string{
	"hate", "kill", "die", "stupid", "idiot", "moron",
	"trash", "garbage", "worthless", "loser", "scum", "disgusting",
}

var positiveKeywords = []string{
	"good", "great", "excellent", "amazing", "wonderful", "love",
	"helpful", "thanks", "thank", "awesome", "brilliant", "kind",
}

var negativeKeywords = []string{
	"bad", "terrible", "awful", "horrible", "worst", "hate",
	"useless", "annoying", "ugly", "disappointing", "poor", "wrong",
}

// HeuristicTextAnalyzer is the local, rule-based analyzer. It never fails;
// it exists behind the TextAnalyzer interface so a remote model can replace
// it without touching the screening service.
type HeuristicTextAnalyzer struct{}

// NewHeuristicTextAnalyzer returns the default local text analyzer.
func NewHeuristicTextAnalyzer() *HeuristicTextAnalyzer {
	return &HeuristicTextAnalyzer{}
}

// Analyze computes toxicity, sentiment, keywords and readability for text.
func (a *HeuristicTextAnalyzer) Analyze(_ context.Context, text string) (*TextAnalysis, error) {
	words := splitWords(text)

	return &TextAnalysis{
		Sentiment:        sentiment(words),
		Toxicity:         toxicity(words),
		Keywords:         topKeywords(words, 10),
		ReadabilityScore: readability(text, words),
	}, nil
}

func splitWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '\'')
	})
}

// toxicity is the fraction of words containing a toxic keyword, scaled by
// 10 and clamped to [0,1] so a small number of hits saturates quickly.
func toxicity(words []string) float64 {
	if len(words) == 0 {
		return 0
	}
	hits := 0
	for _, w := range words {
		for _, kw := range toxicKeywords {
			if strings.Contains(w, kw) {
				hits++
				break
			}
		}
	}
	score := float64(hits) / float64(len(words)) * 10
	return math.Min(score, 1)
}

func sentiment(words []string) string {
	pos, neg := 0, 0
	for _, w := range words {
		for _, kw := range positiveKeywords {
			if w == kw {
				pos++
				break
			}
		}
		for _, kw := range negativeKeywords {
			if w == kw {
				neg++
				break
			}
		}
	}
	switch {
	case pos > neg:
		return "positive"
	case neg > pos:
		return "negative"
	default:
		return "neutral"
	}
}

// topKeywords returns the n most frequent words longer than 3 characters,
// most frequent first, alphabetical within equal counts.
func topKeywords(words []string, n int) []string {
	freq := map[string]int{}
	for _, w := range words {
		if len(w) > 3 {
			freq[w]++
		}
	}
	keys := make([]string, 0, len(freq))
	for w := range freq {
		keys = append(keys, w)
	}
	sort.Slice(keys, func(i, j int) bool {
		if freq[keys[i]] != freq[keys[j]] {
			return freq[keys[i]] > freq[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

// readability is a Flesch-style reading-ease score clamped to [0,100].
func readability(text string, words []string) float64 {
	if len(words) == 0 {
		return 0
	}
	sentences := countSentences(text)
	syllables := 0
	for _, w := range words {
		syllables += CountSyllables(w)
	}

	avgWordsPerSentence := float64(len(words)) / float64(sentences)
	avgSyllablesPerWord := float64(syllables) / float64(len(words))

	score := 206.835 - 1.015*avgWordsPerSentence - 84.6*avgSyllablesPerWord
	return math.Max(0, math.Min(100, score))
}

func countSentences(text string) int {
	n := 0
	for _, r := range text {
		if r == '.' || r == '!' || r == '?' {
			n++
		}
	}
	if n == 0 {
		return 1
	}
	return n
}

// CountSyllables estimates syllables in a word by counting vowel runs.
// Every word counts as at least one syllable.
func CountSyllables(word string) int {
	word = strings.ToLower(word)
	count := 0
	prevVowel := false
	for _, r := range word {
		isVowel := strings.ContainsRune("aeiouy", r)
		if isVowel && !prevVowel {
			count++
		}
		prevVowel = isVowel
	}
	if count == 0 {
		return 1
	}
	return count
}
