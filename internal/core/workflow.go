package core

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/draftaid/draftaid/internal/retry"
	"github.com/draftaid/draftaid/internal/store"
)

// Workflow stages. All but the terminal decision run unconditionally in
// sequence; Finalize either loops back to AnalyzeDraft or ends the run.
type workflowStage string

const (
	stageAnalyzeDraft       workflowStage = "analyze_draft"
	stageGenerateKeywords   workflowStage = "generate_keywords"
	stageScoreContent       workflowStage = "score_content"
	stageIdentifyWeaknesses workflowStage = "identify_weaknesses"
	stageRefineSuggestions  workflowStage = "refine_suggestions"
	stageFinalize           workflowStage = "finalize"
	stageDone               workflowStage = "done"
)

// nextStage is the static edge table; the one conditional edge
// (finalize -> analyze_draft | done) lives in shouldIterate.
var nextStage = map[workflowStage]workflowStage{
	stageAnalyzeDraft:       stageGenerateKeywords,
	stageGenerateKeywords:   stageScoreContent,
	stageScoreContent:       stageIdentifyWeaknesses,
	stageIdentifyWeaknesses: stageRefineSuggestions,
	stageRefineSuggestions:  stageFinalize,
}

const (
	maxWorkflowIterations = 2
	significantChange     = 0.2
	cursorContextSize     = 100
	maxRefinedKeywords    = 10
	shortSentenceLimit    = 10
)

// analysisRecord is one entry of the run-local analysis history.
type analysisRecord struct {
	Timestamp    time.Time
	Analysis     *KeywordRecommendation // nil when the analyzer was unavailable
	DraftLength  int
	WeakSections []WeakSection
}

// WorkflowRunState is the transient state of a single draft-update run. It
// is never persisted; the loop-local history feeds the iteration decision.
type WorkflowRunState struct {
	SessionID      string
	Draft          string
	CursorPosition int
	Profile        *UserProfile

	analysisHistory   []analysisRecord
	suggestionHistory [][]KeywordSuggestion
	refinedKeywords   []KeywordSuggestion
	currentScore      ScoreBreakdown
	currentOverall    float64
	iterationCount    int

	FinalPayload *SuggestionPayload
}

// WorkflowEngine runs the six-stage pipeline for one draft-update event.
type WorkflowEngine struct {
	analyzer TextAnalyzer
	scoring  *ScoringEngine
	patterns store.PatternStore
	executor *retry.Executor
	breaker  *retry.Breaker
	logger   *zap.Logger
}

func NewWorkflowEngine(
	analyzer TextAnalyzer,
	scoring *ScoringEngine,
	patterns store.PatternStore,
	executor *retry.Executor,
	breaker *retry.Breaker,
	logger *zap.Logger,
) *WorkflowEngine {
	return &WorkflowEngine{
		analyzer: analyzer,
		scoring:  scoring,
		patterns: patterns,
		executor: executor,
		breaker:  breaker,
		logger:   logger,
	}
}

// Run executes stages until the terminal state, checking for cancellation
// between stages. Stage-level analyzer failures degrade rather than abort.
func (w *WorkflowEngine) Run(ctx context.Context, state *WorkflowRunState) error {
	stage := stageAnalyzeDraft
	for stage != stageDone {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch stage {
		case stageAnalyzeDraft:
			w.analyzeDraft(ctx, state)
		case stageGenerateKeywords:
			w.generateKeywords(state)
		case stageScoreContent:
			w.scoreContent(state)
		case stageIdentifyWeaknesses:
			w.identifyWeaknesses(state)
		case stageRefineSuggestions:
			w.refineSuggestions(state)
		case stageFinalize:
			w.finalize(state)
		}

		if stage == stageFinalize {
			if w.shouldIterate(state) {
				stage = stageAnalyzeDraft
				continue
			}
			stage = stageDone
			continue
		}
		stage = nextStage[stage]
	}
	return nil
}

// analyzeDraft asks the analyzer for keyword recommendations around the
// cursor. Persistent failure records an empty analysis and moves on; the
// rest of the pipeline still runs on the raw draft.
func (w *WorkflowEngine) analyzeDraft(ctx context.Context, state *WorkflowRunState) {
	var analysis *KeywordRecommendation
	err := w.executor.Do(ctx, "recommend_keywords", func(ctx context.Context) error {
		return w.breaker.Do(func() error {
			result, err := w.analyzer.RecommendKeywords(
				ctx, state.Draft, cursorContext(state.Draft, state.CursorPosition), state.Profile)
			if err != nil {
				return err
			}
			analysis = result
			return nil
		})
	})
	if err != nil {
		w.logger.Warn("draft analysis degraded to empty result",
			zap.String("session_id", state.SessionID),
			zap.Error(err))
		analysis = nil
	}

	state.analysisHistory = append(state.analysisHistory, analysisRecord{
		Timestamp:   time.Now().UTC(),
		Analysis:    analysis,
		DraftLength: len(state.Draft),
	})
}

// generateKeywords boosts the freshest keyword list with patterns that
// worked before for this user key.
func (w *WorkflowEngine) generateKeywords(state *WorkflowRunState) {
	var keywords []KeywordSuggestion
	if latest := state.latestAnalysis(); latest != nil && latest.Analysis != nil {
		keywords = append(keywords, latest.Analysis.Keywords...)
	}

	patterns, err := w.patterns.Snapshot(patternKey(state.Profile))
	if err != nil {
		w.logger.Warn("historical pattern lookup failed",
			zap.String("session_id", state.SessionID),
			zap.Error(err))
	}

	successful := map[string]struct{}{}
	for _, p := range patterns {
		for _, kw := range p.SuccessfulKeywords {
			successful[kw] = struct{}{}
		}
	}
	for i := range keywords {
		if _, ok := successful[keywords[i].Keyword]; ok {
			keywords[i].RelevanceScore = math.Min(1.0, keywords[i].RelevanceScore*1.2)
		}
	}

	state.suggestionHistory = append(state.suggestionHistory, keywords)
}

func (w *WorkflowEngine) scoreContent(state *WorkflowRunState) {
	result := w.scoring.CalculateComprehensiveScore(state.Draft, state.Profile)
	state.currentScore = result.Breakdown
	state.currentOverall = result.OverallScore
}

// identifyWeaknesses flags sentence fragments shorter than ten characters.
// Positions come from the first occurrence of the fragment in the draft;
// repeated fragments are attributed to the first match, a documented
// approximation.
func (w *WorkflowEngine) identifyWeaknesses(state *WorkflowRunState) {
	var weak []WeakSection
	for _, segment := range strings.Split(state.Draft, ". ") {
		if len(segment) >= shortSentenceLimit {
			continue
		}
		start := strings.Index(state.Draft, segment)
		weak = append(weak, WeakSection{
			StartPosition: start,
			EndPosition:   start + len(segment),
			IssueType:     "sentence_too_short",
			Severity:      SeverityMedium,
			Suggestion:    "Consider expanding this sentence with more detail",
			Confidence:    0.7,
		})
	}

	if latest := state.latestAnalysis(); latest != nil {
		latest.WeakSections = weak
	}
}

// refineSuggestions boosts keywords that address the weakest sub-scores,
// then keeps the top ten by relevance.
func (w *WorkflowEngine) refineSuggestions(state *WorkflowRunState) {
	var keywords []KeywordSuggestion
	if n := len(state.suggestionHistory); n > 0 {
		keywords = append(keywords, state.suggestionHistory[n-1]...)
	}

	for i := range keywords {
		lower := strings.ToLower(keywords[i].Keyword)
		relevance := keywords[i].RelevanceScore
		if state.currentScore.Readability < 60 && containsAny(lower, "simple", "clear", "easy") {
			relevance *= 1.3
		}
		if state.currentScore.SEOOptimization < 60 && containsAny(lower, "keyword", "search", "optimize") {
			relevance *= 1.2
		}
		keywords[i].RelevanceScore = math.Min(1.0, relevance)
	}

	sort.SliceStable(keywords, func(i, j int) bool {
		return keywords[i].RelevanceScore > keywords[j].RelevanceScore
	})
	if len(keywords) > maxRefinedKeywords {
		keywords = keywords[:maxRefinedKeywords]
	}
	state.refinedKeywords = keywords
}

func (w *WorkflowEngine) finalize(state *WorkflowRunState) {
	var weak []WeakSection
	if latest := state.latestAnalysis(); latest != nil {
		weak = latest.WeakSections
	}

	state.FinalPayload = &SuggestionPayload{
		Keywords:           state.refinedKeywords,
		RealtimeScore:      state.currentScore,
		OverallScore:       state.currentOverall,
		WeakSections:       weak,
		SuggestionsContext: "Analysis iteration " + strconv.Itoa(state.iterationCount),
		Timestamp:          time.Now().UTC(),
	}
	state.iterationCount++
}

// shouldIterate continues only below the iteration cap and when the draft
// length moved more than 20% against the previous analysis entry. With
// fewer than two entries there is no baseline, so the run ends.
func (w *WorkflowEngine) shouldIterate(state *WorkflowRunState) bool {
	if state.iterationCount >= maxWorkflowIterations {
		return false
	}
	n := len(state.analysisHistory)
	if n < 2 {
		return false
	}
	current := float64(len(state.Draft))
	previous := float64(state.analysisHistory[n-2].DraftLength)
	changeRatio := math.Abs(current-previous) / math.Max(previous, 1)
	return changeRatio > significantChange
}

func (s *WorkflowRunState) latestAnalysis() *analysisRecord {
	if len(s.analysisHistory) == 0 {
		return nil
	}
	return &s.analysisHistory[len(s.analysisHistory)-1]
}

// cursorContext returns up to contextSize characters either side of the
// cursor.
func cursorContext(content string, cursor int) string {
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(content) {
		cursor = len(content)
	}
	start := cursor - cursorContextSize
	if start < 0 {
		start = 0
	}
	end := cursor + cursorContextSize
	if end > len(content) {
		end = len(content)
	}
	return content[start:end]
}

// patternKey buckets patterns per user, falling back to the shared bucket
// for anonymous callers.
func patternKey(profile *UserProfile) string {
	if profile != nil && profile.UserID != "" {
		return profile.UserID
	}
	return store.GeneralKey
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
