package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrSessionNotFound is returned for operations against an unknown or
// already-ended session id. It is never retried.
var ErrSessionNotFound = errors.New("session not found")

// ValidationError reports malformed input rejected before any workflow runs.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Reading levels accepted in a user profile.
const (
	ReadingBeginner     = "beginner"
	ReadingIntermediate = "intermediate"
	ReadingAdvanced     = "advanced"
)

// Writing styles accepted in a user profile.
const (
	StyleCasual    = "casual"
	StyleFormal    = "formal"
	StyleTechnical = "technical"
	StyleCreative  = "creative"
)

// UserProfile carries a writer's identity and preferences. It is attached to
// a session at start and immutable for the session's lifetime.
type UserProfile struct {
	UserID          string   `json:"user_id"`
	PreferredTopics []string `json:"preferred_topics,omitempty"`
	ReadingLevel    string   `json:"reading_level,omitempty"`
	WritingStyle    string   `json:"writing_style,omitempty"`
	TargetAudience  string   `json:"target_audience,omitempty"`
	ExpertiseAreas  []string `json:"expertise_areas,omitempty"`
}

// Validate checks the enumerated fields, filling in the defaults the service
// assumes elsewhere (intermediate reader, formal style).
func (p *UserProfile) Validate() error {
	if strings.TrimSpace(p.UserID) == "" {
		return &ValidationError{Field: "user_id", Reason: "must not be empty"}
	}
	if p.ReadingLevel == "" {
		p.ReadingLevel = ReadingIntermediate
	}
	switch p.ReadingLevel {
	case ReadingBeginner, ReadingIntermediate, ReadingAdvanced:
	default:
		return &ValidationError{Field: "reading_level", Reason: "must be beginner, intermediate or advanced"}
	}
	if p.WritingStyle == "" {
		p.WritingStyle = StyleFormal
	}
	switch p.WritingStyle {
	case StyleCasual, StyleFormal, StyleTechnical, StyleCreative:
	default:
		return &ValidationError{Field: "writing_style", Reason: "must be casual, formal, technical or creative"}
	}
	return nil
}

// ScoreBreakdown holds the six sub-scores, each in [0,100].
type ScoreBreakdown struct {
	KeywordRelevance     float64 `json:"keyword_relevance"`
	Readability          float64 `json:"readability"`
	UserProfileAlignment float64 `json:"user_profile_alignment"`
	ContentStructure     float64 `json:"content_structure"`
	SEOOptimization      float64 `json:"seo_optimization"`
	EngagementPotential  float64 `json:"engagement_potential"`
}

// Fixed factor weights. They sum to 1.0.
const (
	weightKeywordRelevance     = 0.25
	weightReadability          = 0.20
	weightUserProfileAlignment = 0.15
	weightContentStructure     = 0.15
	weightSEOOptimization      = 0.15
	weightEngagementPotential  = 0.10
)

// Overall combines the sub-scores with the fixed weights, clamped to [0,100].
func (b ScoreBreakdown) Overall() float64 {
	sum := b.KeywordRelevance*weightKeywordRelevance +
		b.Readability*weightReadability +
		b.UserProfileAlignment*weightUserProfileAlignment +
		b.ContentStructure*weightContentStructure +
		b.SEOOptimization*weightSEOOptimization +
		b.EngagementPotential*weightEngagementPotential
	return clamp(sum, 0, 100)
}

// ScoreResult is the comprehensive-score payload: overall, breakdown and
// actionable recommendations.
type ScoreResult struct {
	OverallScore    float64        `json:"overall_score"`
	Breakdown       ScoreBreakdown `json:"breakdown"`
	Recommendations []string       `json:"recommendations"`
	Timestamp       time.Time      `json:"analysis_timestamp"`
}

// KeywordSuggestion is one suggested keyword with placement metadata.
type KeywordSuggestion struct {
	Keyword            string  `json:"keyword"`
	RelevanceScore     float64 `json:"relevance_score"`
	Context            string  `json:"context"`
	PositionSuggestion *int    `json:"position_suggestion,omitempty"`
	SemanticSimilarity float64 `json:"semantic_similarity"`
}

// Weak-section severities.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// WeakSection flags a half-open character range [Start,End) of the draft.
type WeakSection struct {
	StartPosition int     `json:"start_position"`
	EndPosition   int     `json:"end_position"`
	IssueType     string  `json:"issue_type"`
	Severity      string  `json:"severity"`
	Suggestion    string  `json:"suggestion"`
	Confidence    float64 `json:"confidence"`
}

// RealtimeScore is the compact score shape the analyzer reports alongside
// keyword recommendations.
type RealtimeScore struct {
	OverallScore     float64 `json:"overall_score"`
	ReadabilityScore float64 `json:"readability_score"`
	RelevanceScore   float64 `json:"relevance_score"`
	EngagementScore  float64 `json:"engagement_score"`
	SEOScore         float64 `json:"seo_score"`
}

// SuggestionPayload is the final product of one draft-update workflow run.
type SuggestionPayload struct {
	Keywords           []KeywordSuggestion `json:"keywords"`
	RealtimeScore      ScoreBreakdown      `json:"realtime_score"`
	OverallScore       float64             `json:"overall_score"`
	WeakSections       []WeakSection       `json:"weak_sections"`
	SuggestionsContext string              `json:"suggestions_context"`
	Timestamp          time.Time           `json:"timestamp"`
}

// SessionSummary is returned once when a session ends.
type SessionSummary struct {
	DurationSeconds  float64 `json:"session_duration"`
	TotalSuggestions int     `json:"total_suggestions"`
	FinalDraftLength int     `json:"final_draft_length"`
	AverageScore     float64 `json:"average_score"`
}

// Sentiment classes.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// BlogPost is one post submitted for batch analysis.
type BlogPost struct {
	Title     string     `json:"title,omitempty"`
	Content   string     `json:"content"`
	Tags      []string   `json:"tags,omitempty"`
	Author    string     `json:"author,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// SentimentAnalysis is the analyzer's sentiment verdict for a post.
type SentimentAnalysis struct {
	Sentiment       string  `json:"sentiment"`
	ConfidenceScore float64 `json:"confidence_score"`
	PositiveScore   float64 `json:"positive_score"`
	NegativeScore   float64 `json:"negative_score"`
	NeutralScore    float64 `json:"neutral_score"`
}

// KeyTopic is one extracted topic with its weight.
type KeyTopic struct {
	Topic          string  `json:"topic"`
	RelevanceScore float64 `json:"relevance_score"`
	Frequency      int     `json:"frequency"`
}

// BlogAnalysisResult is the full analysis of a single post.
type BlogAnalysisResult struct {
	Sentiment            SentimentAnalysis   `json:"sentiment"`
	KeyTopics            []KeyTopic          `json:"key_topics"`
	KeywordSuggestions   []KeywordSuggestion `json:"keyword_suggestions"`
	ReadabilityScore     float64             `json:"readability_score"`
	WordCount            int                 `json:"word_count"`
	EstimatedReadingTime int                 `json:"estimated_reading_time"`
}

// KeywordRecommendation is the analyzer's answer to a draft-in-progress:
// keywords, weak sections and a quick score snapshot.
type KeywordRecommendation struct {
	Keywords           []KeywordSuggestion `json:"keywords"`
	WeakSections       []WeakSection       `json:"weak_sections"`
	RealtimeScore      RealtimeScore       `json:"realtime_score"`
	SuggestionsContext string              `json:"suggestions_context"`
	Timestamp          time.Time           `json:"timestamp"`
}

// TextAnalyzer is the external language-model capability the orchestrator
// consumes. Implementations must return structurally valid results with all
// numeric fields already clamped into their documented ranges; transport
// errors are still returned so callers can retry.
type TextAnalyzer interface {
	AnalyzeBlogPost(ctx context.Context, post BlogPost) (*BlogAnalysisResult, error)
	RecommendKeywords(ctx context.Context, draft, cursorContext string, profile *UserProfile) (*KeywordRecommendation, error)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
