package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/draftaid/draftaid/internal/retry"
	"github.com/draftaid/draftaid/internal/store"
)

func newTestOrchestrator(analyzer TextAnalyzer, patterns store.PatternStore) *Orchestrator {
	if patterns == nil {
		patterns = store.NewMemoryPatternStore()
	}
	executor := retry.NewExecutor(0, time.Millisecond, 10*time.Millisecond, zap.NewNop())
	breaker := retry.NewBreaker(100, time.Minute)
	return NewOrchestrator(analyzer, NewScoringEngine(), patterns, executor, breaker, zap.NewNop())
}

func TestSessionLifecycle(t *testing.T) {
	analyzer := &stubAnalyzer{rec: keywordRec(
		KeywordSuggestion{Keyword: "editing", RelevanceScore: 0.8},
	)}
	o := newTestOrchestrator(analyzer, nil)

	sessionID, err := o.StartSession(UserProfile{UserID: "u1"})
	require.NoError(t, err)
	require.NotEmpty(t, sessionID)
	assert.Equal(t, 1, o.Status().ActiveSessions)

	draft := "Editing a draft several times always improves the final article."
	payload, err := o.UpdateDraft(context.Background(), sessionID, draft, 10)
	require.NoError(t, err)
	require.NotNil(t, payload)
	assert.GreaterOrEqual(t, payload.OverallScore, 0.0)
	assert.LessOrEqual(t, payload.OverallScore, 100.0)
	assert.LessOrEqual(t, len(payload.Keywords), 10)

	summary, err := o.EndSession(sessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalSuggestions)
	assert.Equal(t, len(draft), summary.FinalDraftLength)
	assert.InDelta(t, payload.OverallScore, summary.AverageScore, 1e-9)
	assert.Equal(t, 0, o.Status().ActiveSessions)

	_, err = o.EndSession(sessionID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestUpdateDraftMinimalInput(t *testing.T) {
	o := newTestOrchestrator(&stubAnalyzer{rec: keywordRec()}, nil)

	sessionID, err := o.StartSession(UserProfile{UserID: "u1"})
	require.NoError(t, err)

	payload, err := o.UpdateDraft(context.Background(), sessionID, "Short.", 0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, payload.OverallScore, 0.0)
	assert.LessOrEqual(t, payload.OverallScore, 100.0)
	assert.LessOrEqual(t, len(payload.Keywords), 10)
	require.NotEmpty(t, payload.WeakSections)
	assert.Equal(t, "sentence_too_short", payload.WeakSections[0].IssueType)
}

func TestStartSessionRejectsInvalidProfile(t *testing.T) {
	o := newTestOrchestrator(&stubAnalyzer{}, nil)

	_, err := o.StartSession(UserProfile{})
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "user_id", validation.Field)

	_, err = o.StartSession(UserProfile{UserID: "u1", ReadingLevel: "wizard"})
	assert.ErrorAs(t, err, &validation)
}

func TestUpdateDraftValidation(t *testing.T) {
	o := newTestOrchestrator(&stubAnalyzer{rec: keywordRec()}, nil)

	_, err := o.UpdateDraft(context.Background(), "whatever", "   ", 0)
	var validation *ValidationError
	assert.ErrorAs(t, err, &validation)

	_, err = o.UpdateDraft(context.Background(), "missing", "some draft text", 0)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCommitResultDiscardsStaleRevision(t *testing.T) {
	sessions := NewSessionStore()
	sessions.Create(&Session{ID: "s1", Profile: UserProfile{UserID: "u1"}, Active: true})

	_, first, err := sessions.BeginUpdate("s1", "version one")
	require.NoError(t, err)
	_, _, err = sessions.BeginUpdate("s1", "version two")
	require.NoError(t, err)

	applied, err := sessions.CommitResult("s1", first, SuggestionPayload{}, ScoreSnapshot{})
	require.NoError(t, err)
	assert.False(t, applied)

	session, err := sessions.Remove("s1")
	require.NoError(t, err)
	assert.Empty(t, session.SuggestionHistory)
	assert.Equal(t, "version two", session.CurrentDraft)
}

func TestAnalyzeBlogPostsValidation(t *testing.T) {
	o := newTestOrchestrator(&stubAnalyzer{}, nil)
	ctx := context.Background()

	var validation *ValidationError

	_, err := o.AnalyzeBlogPosts(ctx, nil)
	assert.ErrorAs(t, err, &validation)

	many := make([]BlogPost, MaxBatchPosts+1)
	for i := range many {
		many[i] = BlogPost{Content: "long enough content here"}
	}
	_, err = o.AnalyzeBlogPosts(ctx, many)
	assert.ErrorAs(t, err, &validation)

	_, err = o.AnalyzeBlogPosts(ctx, []BlogPost{{Content: "tiny"}})
	assert.ErrorAs(t, err, &validation)
}

func TestAnalyzeBlogPostsLearnsPatterns(t *testing.T) {
	patterns := store.NewMemoryPatternStore()
	analyzer := &stubAnalyzer{blog: &BlogAnalysisResult{
		Sentiment: SentimentAnalysis{Sentiment: SentimentPositive, ConfidenceScore: 0.9},
		KeyTopics: []KeyTopic{{Topic: "testing", RelevanceScore: 0.8, Frequency: 2}},
		KeywordSuggestions: []KeywordSuggestion{
			{Keyword: "strong", RelevanceScore: 0.9},
			{Keyword: "weak", RelevanceScore: 0.5},
		},
		ReadabilityScore: 70,
	}}
	o := newTestOrchestrator(analyzer, patterns)

	posts := []BlogPost{
		{Content: "The first post body with plenty of words."},
		{Content: "The second post body with plenty of words."},
	}
	results, err := o.AnalyzeBlogPosts(context.Background(), posts)
	require.NoError(t, err)
	require.Len(t, results, 2)

	stored, err := patterns.Snapshot(store.GeneralKey)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, []string{"strong"}, stored[0].SuccessfulKeywords)
	assert.Equal(t, SentimentPositive, stored[0].Sentiment)
}

func TestAnalyzeBlogPostsSurfacesExhaustion(t *testing.T) {
	analyzer := &stubAnalyzer{err: assert.AnError}
	o := newTestOrchestrator(analyzer, nil)

	_, err := o.AnalyzeBlogPosts(context.Background(), []BlogPost{
		{Content: "The only post body with plenty of words."},
	})
	var exhausted *retry.ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestRecommendKeywordsStateless(t *testing.T) {
	o := newTestOrchestrator(&stubAnalyzer{rec: keywordRec(
		KeywordSuggestion{Keyword: "outline", RelevanceScore: 0.75},
	)}, nil)

	rec, err := o.RecommendKeywords(context.Background(), "Draft text under construction.", "", nil)
	require.NoError(t, err)
	require.Len(t, rec.Keywords, 1)

	var validation *ValidationError
	_, err = o.RecommendKeywords(context.Background(), "", "", nil)
	assert.ErrorAs(t, err, &validation)
}

func TestScoreContentDirect(t *testing.T) {
	o := newTestOrchestrator(&stubAnalyzer{}, nil)

	result, err := o.ScoreContent("A reasonable paragraph of text to score against the engine.", nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.OverallScore, 0.0)
	assert.LessOrEqual(t, result.OverallScore, 100.0)

	var validation *ValidationError
	_, err = o.ScoreContent("  ", nil)
	assert.ErrorAs(t, err, &validation)
}

func TestStatusReportsPatternCount(t *testing.T) {
	patterns := store.NewMemoryPatternStore()
	require.NoError(t, patterns.Append("u1", store.HistoricalPattern{Timestamp: time.Now()}))
	o := newTestOrchestrator(&stubAnalyzer{}, patterns)

	status := o.Status()
	assert.Equal(t, 1, status.TotalPatternsStored)
	assert.Equal(t, "healthy", status.WorkflowStatus)
	assert.False(t, status.LastCheck.IsZero())
}
