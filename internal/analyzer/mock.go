package analyzer

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/draftaid/draftaid/internal/core"
)

// MockAnalyzer produces deterministic results from the input text alone.
// It backs local development without API keys and the test suites.
type MockAnalyzer struct{}

func NewMockAnalyzer() *MockAnalyzer {
	return &MockAnalyzer{}
}

func (m *MockAnalyzer) AnalyzeBlogPost(ctx context.Context, post core.BlogPost) (*core.BlogAnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw := wireAnalysis{
		Sentiment: wireSentiment{
			Type:       core.SentimentNeutral,
			Confidence: 0.8,
			Scores:     map[string]float64{"positive": 0.3, "negative": 0.2, "neutral": 0.5},
		},
		Readability: 65,
	}
	for i, word := range topWords(post.Content, maxTopics) {
		raw.Topics = append(raw.Topics, wireTopic{
			Topic:     word,
			Relevance: 0.9 - 0.1*float64(i),
			Frequency: 1,
		})
	}
	for i, word := range topWords(post.Content, maxKeywords) {
		raw.Keywords = append(raw.Keywords, wireKeyword{
			Keyword:    word,
			Relevance:  0.9 - 0.05*float64(i),
			Context:    "derived from content",
			Similarity: 0.8,
		})
	}
	return toAnalysisResult(raw, post), nil
}

func (m *MockAnalyzer) RecommendKeywords(ctx context.Context, draft, cursorContext string, profile *core.UserProfile) (*core.KeywordRecommendation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var raw wireRecommendation
	for i, word := range topWords(draft, maxKeywords) {
		raw.Keywords = append(raw.Keywords, wireKeyword{
			Keyword:    word,
			Relevance:  0.85 - 0.05*float64(i),
			Context:    "frequent in draft",
			Similarity: 0.75,
		})
	}
	raw.Scores = wireScores{Overall: 70, Readability: 68, Relevance: 72, Engagement: 65, SEO: 60}

	rec := toRecommendation(raw, draft)
	rec.Timestamp = time.Now().UTC()
	return rec, nil
}

// topWords returns up to n distinct words of at least five letters, most
// frequent first with ties broken alphabetically for determinism.
func topWords(text string, n int) []string {
	counts := map[string]int{}
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:\"'()")
		if len(word) >= 5 {
			counts[word]++
		}
	}

	words := make([]string, 0, len(counts))
	for word := range counts {
		words = append(words, word)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})
	if len(words) > n {
		words = words[:n]
	}
	return words
}
