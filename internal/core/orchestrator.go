package core

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/draftaid/draftaid/internal/retry"
	"github.com/draftaid/draftaid/internal/store"
)

const (
	// MaxBatchPosts caps one analyze-blogs request.
	MaxBatchPosts = 50

	// minPostLength rejects trivially short posts before analysis.
	minPostLength = 10

	// patternRelevanceThreshold decides which keywords count as successful
	// when learning patterns from an analysis.
	patternRelevanceThreshold = 0.7

	batchConcurrency = 4
)

// Orchestrator exposes the session lifecycle and the stateless analysis
// entry points. It owns the session registry and the pattern store and
// drives the workflow engine once per draft update.
type Orchestrator struct {
	sessions *SessionStore
	patterns store.PatternStore
	workflow *WorkflowEngine
	analyzer TextAnalyzer
	scoring  *ScoringEngine
	executor *retry.Executor
	breaker  *retry.Breaker
	logger   *zap.Logger
}

func NewOrchestrator(
	analyzer TextAnalyzer,
	scoring *ScoringEngine,
	patterns store.PatternStore,
	executor *retry.Executor,
	breaker *retry.Breaker,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		sessions: NewSessionStore(),
		patterns: patterns,
		workflow: NewWorkflowEngine(analyzer, scoring, patterns, executor, breaker, logger),
		analyzer: analyzer,
		scoring:  scoring,
		executor: executor,
		breaker:  breaker,
		logger:   logger,
	}
}

// StartSession validates the profile and registers a new session.
func (o *Orchestrator) StartSession(profile UserProfile) (string, error) {
	if err := profile.Validate(); err != nil {
		return "", err
	}

	now := time.Now().UTC()
	session := &Session{
		ID:          uuid.NewString(),
		Profile:     profile,
		CreatedAt:   now,
		LastUpdated: now,
		Active:      true,
	}
	o.sessions.Create(session)

	o.logger.Info("started writing session",
		zap.String("session_id", session.ID),
		zap.String("user_id", profile.UserID))
	return session.ID, nil
}

// UpdateDraft runs the full workflow for the new draft text and returns the
// suggestion payload. Results computed against a draft the session has since
// moved past are discarded rather than committed.
func (o *Orchestrator) UpdateDraft(ctx context.Context, sessionID, draft string, cursorPosition int) (*SuggestionPayload, error) {
	if strings.TrimSpace(draft) == "" {
		return nil, &ValidationError{Field: "draft", Reason: "must not be empty"}
	}

	profile, revision, err := o.sessions.BeginUpdate(sessionID, draft)
	if err != nil {
		return nil, err
	}

	state := &WorkflowRunState{
		SessionID:      sessionID,
		Draft:          draft,
		CursorPosition: cursorPosition,
		Profile:        &profile,
	}
	if err := o.workflow.Run(ctx, state); err != nil {
		return nil, err
	}

	payload := state.FinalPayload
	applied, err := o.sessions.CommitResult(sessionID, revision, *payload, ScoreSnapshot{
		Overall:   payload.OverallScore,
		Breakdown: payload.RealtimeScore,
		Timestamp: payload.Timestamp,
	})
	if err != nil {
		return nil, err
	}
	if !applied {
		o.logger.Info("discarded stale draft result",
			zap.String("session_id", sessionID))
	}
	return payload, nil
}

// EndSession destroys the session and summarizes it. A second call for the
// same id fails with ErrSessionNotFound.
func (o *Orchestrator) EndSession(sessionID string) (*SessionSummary, error) {
	session, err := o.sessions.Remove(sessionID)
	if err != nil {
		return nil, err
	}

	average := 0.0
	if len(session.ScoreHistory) > 0 {
		sum := 0.0
		for _, snapshot := range session.ScoreHistory {
			sum += snapshot.Overall
		}
		average = sum / float64(len(session.ScoreHistory))
	}

	o.logger.Info("ended writing session", zap.String("session_id", sessionID))
	return &SessionSummary{
		DurationSeconds:  time.Now().UTC().Sub(session.CreatedAt).Seconds(),
		TotalSuggestions: len(session.SuggestionHistory),
		FinalDraftLength: len(session.CurrentDraft),
		AverageScore:     average,
	}, nil
}

// AnalyzeBlogPosts analyzes up to MaxBatchPosts posts with bounded
// concurrency and learns keyword patterns from each result. There is no
// safe degraded output here, so analyzer exhaustion surfaces to the caller.
func (o *Orchestrator) AnalyzeBlogPosts(ctx context.Context, posts []BlogPost) ([]BlogAnalysisResult, error) {
	if len(posts) == 0 {
		return nil, &ValidationError{Field: "blog_posts", Reason: "at least one post is required"}
	}
	if len(posts) > MaxBatchPosts {
		return nil, &ValidationError{Field: "blog_posts", Reason: "at most 50 posts per request"}
	}
	for _, post := range posts {
		if len(strings.TrimSpace(post.Content)) < minPostLength {
			return nil, &ValidationError{Field: "blog_posts", Reason: "post content must be at least 10 characters"}
		}
	}

	results := make([]BlogAnalysisResult, len(posts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)

	for i, post := range posts {
		g.Go(func() error {
			var analysis *BlogAnalysisResult
			err := o.executor.Do(gctx, "analyze_blog_post", func(ctx context.Context) error {
				return o.breaker.Do(func() error {
					result, err := o.analyzer.AnalyzeBlogPost(ctx, post)
					if err != nil {
						return err
					}
					analysis = result
					return nil
				})
			})
			if err != nil {
				return err
			}
			results[i] = *analysis
			o.learnPattern(post, analysis)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	o.logger.Info("analyzed blog posts", zap.Int("count", len(posts)))
	return results, nil
}

// RecommendKeywords is the stateless recommendation path; it bypasses the
// session machinery and calls the analyzer directly.
func (o *Orchestrator) RecommendKeywords(ctx context.Context, draft, cursorContext string, profile *UserProfile) (*KeywordRecommendation, error) {
	if strings.TrimSpace(draft) == "" {
		return nil, &ValidationError{Field: "current_draft", Reason: "must not be empty"}
	}
	if profile != nil {
		if err := profile.Validate(); err != nil {
			return nil, err
		}
	}

	var recommendation *KeywordRecommendation
	err := o.executor.Do(ctx, "recommend_keywords", func(ctx context.Context) error {
		return o.breaker.Do(func() error {
			result, err := o.analyzer.RecommendKeywords(ctx, draft, cursorContext, profile)
			if err != nil {
				return err
			}
			recommendation = result
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return recommendation, nil
}

// ScoreContent runs the scoring engine directly; no external calls.
func (o *Orchestrator) ScoreContent(content string, profile *UserProfile) (*ScoreResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, &ValidationError{Field: "content", Reason: "must not be empty"}
	}
	if profile != nil {
		if err := profile.Validate(); err != nil {
			return nil, err
		}
	}
	result := o.scoring.CalculateComprehensiveScore(content, profile)
	return &result, nil
}

// Status reports counters for the health and status endpoints.
type Status struct {
	ActiveSessions      int       `json:"active_sessions"`
	TotalPatternsStored int       `json:"total_patterns_stored"`
	WorkflowStatus      string    `json:"workflow_status"`
	LastCheck           time.Time `json:"last_check"`
}

func (o *Orchestrator) Status() Status {
	patternCount, err := o.patterns.Count()
	status := "healthy"
	if err != nil {
		o.logger.Warn("pattern store count failed", zap.Error(err))
		status = "degraded"
	}
	return Status{
		ActiveSessions:      o.sessions.Len(),
		TotalPatternsStored: patternCount,
		WorkflowStatus:      status,
		LastCheck:           time.Now().UTC(),
	}
}

// learnPattern stores the keywords that scored above the relevance
// threshold for future boosting. Batch analysis has no user identity, so
// patterns land in the shared bucket.
func (o *Orchestrator) learnPattern(post BlogPost, analysis *BlogAnalysisResult) {
	var successful []string
	for _, kw := range analysis.KeywordSuggestions {
		if kw.RelevanceScore > patternRelevanceThreshold {
			successful = append(successful, kw.Keyword)
		}
	}

	var topics []string
	for _, topic := range analysis.KeyTopics {
		topics = append(topics, topic.Topic)
	}

	pattern := store.HistoricalPattern{
		Timestamp:          time.Now().UTC(),
		ContentLength:      len(post.Content),
		SuccessfulKeywords: successful,
		ReadabilityScore:   analysis.ReadabilityScore,
		Topics:             topics,
		Sentiment:          analysis.Sentiment.Sentiment,
	}
	if err := o.patterns.Append(store.GeneralKey, pattern); err != nil {
		o.logger.Warn("failed to store analysis pattern", zap.Error(err))
	}
}
