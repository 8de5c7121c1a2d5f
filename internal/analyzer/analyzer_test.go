package analyzer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftaid/draftaid/internal/core"
)

func TestRepairJSONStripsFences(t *testing.T) {
	raw := "```json\n{\"readability\": 70}\n```"
	parsed := parseAnalysis(raw)
	assert.Equal(t, 70.0, parsed.Readability)
}

func TestRepairJSONBalancesTruncatedOutput(t *testing.T) {
	raw := `{"keywords": [{"keyword": "go", "relevance": 0.8}`
	parsed := parseRecommendation(raw)
	require.Len(t, parsed.Keywords, 1)
	assert.Equal(t, "go", parsed.Keywords[0].Keyword)
}

func TestRepairJSONDropsTrailingComma(t *testing.T) {
	raw := `{"readability": 55,`
	parsed := parseAnalysis(raw)
	assert.Equal(t, 55.0, parsed.Readability)
}

func TestParseFallsBackOnGarbage(t *testing.T) {
	parsed := parseAnalysis("the model rambled instead of emitting JSON")
	assert.Equal(t, core.SentimentNeutral, parsed.Sentiment.Type)
	assert.NotEmpty(t, parsed.Keywords)

	rec := parseRecommendation("still not JSON {{{")
	assert.NotEmpty(t, rec.Keywords)
}

func TestToRecommendationClampsRanges(t *testing.T) {
	draft := "short draft"
	raw := wireRecommendation{
		Keywords: []wireKeyword{
			{Keyword: "over", Relevance: 3.5, Similarity: -1},
		},
		WeakSections: []wireWeakSection{
			{Start: -5, End: 9999, Severity: "catastrophic", Confidence: 2},
		},
		Scores: wireScores{Overall: 150, Readability: -20},
	}

	rec := toRecommendation(raw, draft)

	require.Len(t, rec.Keywords, 1)
	assert.Equal(t, 1.0, rec.Keywords[0].RelevanceScore)
	assert.Equal(t, 0.0, rec.Keywords[0].SemanticSimilarity)

	require.Len(t, rec.WeakSections, 1)
	ws := rec.WeakSections[0]
	assert.Equal(t, 0, ws.StartPosition)
	assert.Equal(t, len(draft), ws.EndPosition)
	assert.Equal(t, core.SeverityMedium, ws.Severity)
	assert.Equal(t, 1.0, ws.Confidence)

	assert.Equal(t, 100.0, rec.RealtimeScore.OverallScore)
	assert.Equal(t, 0.0, rec.RealtimeScore.ReadabilityScore)
}

func TestSanitizationIsIdempotent(t *testing.T) {
	draft := "a draft long enough for sections"
	raw := wireRecommendation{
		Keywords:     []wireKeyword{{Keyword: "k", Relevance: 5, Similarity: 5}},
		WeakSections: []wireWeakSection{{Start: 2, End: 600, Severity: core.SeverityHigh, Confidence: 3}},
		Scores:       wireScores{Overall: 300},
	}

	once := toRecommendation(raw, draft)

	// Feed the sanitized values back through; nothing should move.
	again := toRecommendation(wireRecommendation{
		Keywords: []wireKeyword{{
			Keyword:    once.Keywords[0].Keyword,
			Relevance:  once.Keywords[0].RelevanceScore,
			Similarity: once.Keywords[0].SemanticSimilarity,
		}},
		WeakSections: []wireWeakSection{{
			Start:      once.WeakSections[0].StartPosition,
			End:        once.WeakSections[0].EndPosition,
			Issue:      once.WeakSections[0].IssueType,
			Severity:   once.WeakSections[0].Severity,
			Confidence: once.WeakSections[0].Confidence,
		}},
		Scores: wireScores{Overall: once.RealtimeScore.OverallScore},
	}, draft)

	assert.Equal(t, once.Keywords[0].RelevanceScore, again.Keywords[0].RelevanceScore)
	assert.Equal(t, once.WeakSections[0].StartPosition, again.WeakSections[0].StartPosition)
	assert.Equal(t, once.WeakSections[0].EndPosition, again.WeakSections[0].EndPosition)
	assert.Equal(t, once.RealtimeScore.OverallScore, again.RealtimeScore.OverallScore)
}

func TestKeywordListCappedAtTen(t *testing.T) {
	var raw []wireKeyword
	for i := 0; i < 15; i++ {
		raw = append(raw, wireKeyword{Keyword: "k", Relevance: 0.5})
	}
	assert.Len(t, toKeywordSuggestions(raw), 10)
}

func TestToAnalysisResultComputesReadingStats(t *testing.T) {
	post := core.BlogPost{Content: strings.Repeat("word ", 400)}
	result := toAnalysisResult(fallbackAnalysis(), post)

	assert.Equal(t, 400, result.WordCount)
	assert.Equal(t, 2, result.EstimatedReadingTime)

	short := toAnalysisResult(fallbackAnalysis(), core.BlogPost{Content: "tiny post"})
	assert.Equal(t, 1, short.EstimatedReadingTime)
}

func TestTruncateContent(t *testing.T) {
	assert.Equal(t, "short", truncateContent("short", 100))

	long := strings.Repeat("sentence words ", 100)
	cut := truncateContent(long, 200)
	assert.LessOrEqual(t, len(cut), 204)
	assert.True(t, strings.HasSuffix(cut, "..."))
}

func TestMockAnalyzerIsDeterministic(t *testing.T) {
	m := NewMockAnalyzer()
	draft := "Deterministic output makes testing deterministic pipelines possible and pleasant."

	first, err := m.RecommendKeywords(context.Background(), draft, "", nil)
	require.NoError(t, err)
	second, err := m.RecommendKeywords(context.Background(), draft, "", nil)
	require.NoError(t, err)

	require.Equal(t, len(first.Keywords), len(second.Keywords))
	for i := range first.Keywords {
		assert.Equal(t, first.Keywords[i].Keyword, second.Keywords[i].Keyword)
		assert.Equal(t, first.Keywords[i].RelevanceScore, second.Keywords[i].RelevanceScore)
	}
	assert.LessOrEqual(t, len(first.Keywords), 10)
}

func TestMockAnalyzerHonorsCancellation(t *testing.T) {
	m := NewMockAnalyzer()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.AnalyzeBlogPost(ctx, core.BlogPost{Content: "whatever text"})
	assert.ErrorIs(t, err, context.Canceled)
}
