// Package analyzer implements the external text-analysis capability behind
// the core.TextAnalyzer interface. Backends share one wire format, one set
// of prompts and one sanitization pass; only the transport differs.
package analyzer

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/draftaid/draftaid/internal/core"
)

const (
	maxKeywords = 10
	maxTopics   = 5

	// Prompt content is truncated at a word boundary near this many
	// characters to keep requests inside model context limits.
	maxPromptContentChars = 6000
)

const analyzePromptTemplate = `Analyze this blog post:

Content: "%s"

Return JSON with:
1. sentiment: {"type": "positive"|"negative"|"neutral", "confidence": 0.0-1.0, "scores": {"positive": 0.0-1.0, "negative": 0.0-1.0, "neutral": 0.0-1.0}}
2. topics: Array of max 5 {"topic": string, "relevance": 0.0-1.0, "frequency": integer}
3. keywords: Array of max 10 {"keyword": string, "relevance": 0.0-1.0, "context": string, "similarity": 0.0-1.0}
4. readability: number 0-100

Be concise and precise with numeric values.`

const recommendPromptTemplate = `Current draft: "%s"
Context: "%s"
Profile: %s

Return JSON with:
1. keywords: Array of max 10 {"keyword": string, "relevance": 0.0-1.0, "context": string, "position": integer, "similarity": 0.0-1.0}
2. weak_sections: Array {"start": int, "end": int, "issue": string, "severity": "low"|"medium"|"high", "suggestion": string, "confidence": 0.0-1.0}
3. scores: {"overall": 0-100, "readability": 0-100, "relevance": 0-100, "engagement": 0-100, "seo": 0-100}

Focus on actionable improvements.`

// Wire shapes the models are asked to produce.

type wireSentiment struct {
	Type       string             `json:"type"`
	Confidence float64            `json:"confidence"`
	Scores     map[string]float64 `json:"scores"`
}

type wireTopic struct {
	Topic     string  `json:"topic"`
	Relevance float64 `json:"relevance"`
	Frequency int     `json:"frequency"`
}

type wireKeyword struct {
	Keyword    string  `json:"keyword"`
	Relevance  float64 `json:"relevance"`
	Context    string  `json:"context"`
	Position   *int    `json:"position,omitempty"`
	Similarity float64 `json:"similarity"`
}

type wireWeakSection struct {
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Issue      string  `json:"issue"`
	Severity   string  `json:"severity"`
	Suggestion string  `json:"suggestion"`
	Confidence float64 `json:"confidence"`
}

type wireScores struct {
	Overall     float64 `json:"overall"`
	Readability float64 `json:"readability"`
	Relevance   float64 `json:"relevance"`
	Engagement  float64 `json:"engagement"`
	SEO         float64 `json:"seo"`
}

type wireAnalysis struct {
	Sentiment   wireSentiment `json:"sentiment"`
	Topics      []wireTopic   `json:"topics"`
	Keywords    []wireKeyword `json:"keywords"`
	Readability float64       `json:"readability"`
}

type wireRecommendation struct {
	Keywords     []wireKeyword     `json:"keywords"`
	WeakSections []wireWeakSection `json:"weak_sections"`
	Scores       wireScores        `json:"scores"`
}

func analyzePrompt(post core.BlogPost) string {
	return fmt.Sprintf(analyzePromptTemplate, truncateContent(post.Content, maxPromptContentChars))
}

func recommendPrompt(draft, cursorContext string, profile *core.UserProfile) string {
	profileJSON := "{}"
	if profile != nil {
		if data, err := json.Marshal(profile); err == nil {
			profileJSON = string(data)
		}
	}
	return fmt.Sprintf(recommendPromptTemplate,
		truncateContent(draft, maxPromptContentChars),
		truncateContent(cursorContext, 500),
		profileJSON)
}

// parseAnalysis decodes the model output, repairing common JSON damage.
// Unusable output degrades to a canned analysis so the result is always
// structurally valid.
func parseAnalysis(raw string) wireAnalysis {
	var out wireAnalysis
	if err := json.Unmarshal([]byte(repairJSON(raw)), &out); err != nil {
		return fallbackAnalysis()
	}
	return out
}

func parseRecommendation(raw string) wireRecommendation {
	var out wireRecommendation
	if err := json.Unmarshal([]byte(repairJSON(raw)), &out); err != nil {
		return fallbackRecommendation()
	}
	return out
}

// repairJSON strips markdown fences, trailing commas and balances truncated
// braces and brackets.
func repairJSON(raw string) string {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	if json.Valid([]byte(text)) {
		return text
	}

	text = strings.TrimRight(text, " \t\n")
	text = strings.TrimSuffix(text, ",")
	if open, closed := strings.Count(text, "["), strings.Count(text, "]"); open > closed {
		text += strings.Repeat("]", open-closed)
	}
	if open, closed := strings.Count(text, "{"), strings.Count(text, "}"); open > closed {
		text += strings.Repeat("}", open-closed)
	}
	return text
}

func fallbackAnalysis() wireAnalysis {
	return wireAnalysis{
		Sentiment: wireSentiment{
			Type:       core.SentimentNeutral,
			Confidence: 0.5,
			Scores:     map[string]float64{"positive": 0.3, "negative": 0.2, "neutral": 0.5},
		},
		Topics:      []wireTopic{{Topic: "general content", Relevance: 0.7, Frequency: 1}},
		Keywords:    []wireKeyword{{Keyword: "content", Relevance: 0.6, Context: "general", Similarity: 0.5}},
		Readability: 60,
	}
}

func fallbackRecommendation() wireRecommendation {
	return wireRecommendation{
		Keywords: []wireKeyword{{Keyword: "improvement", Relevance: 0.7, Context: "general", Similarity: 0.6}},
		Scores:   wireScores{Overall: 70, Readability: 65, Relevance: 75, Engagement: 70, SEO: 65},
	}
}

// toAnalysisResult sanitizes the wire analysis into core types. Clamping is
// idempotent: sanitizing an already-sanitized value changes nothing.
func toAnalysisResult(raw wireAnalysis, post core.BlogPost) *core.BlogAnalysisResult {
	sentiment := raw.Sentiment.Type
	switch sentiment {
	case core.SentimentPositive, core.SentimentNegative, core.SentimentNeutral:
	default:
		sentiment = core.SentimentNeutral
	}

	topics := raw.Topics
	if len(topics) > maxTopics {
		topics = topics[:maxTopics]
	}
	keyTopics := make([]core.KeyTopic, 0, len(topics))
	for _, t := range topics {
		freq := t.Frequency
		if freq < 1 {
			freq = 1
		}
		keyTopics = append(keyTopics, core.KeyTopic{
			Topic:          t.Topic,
			RelevanceScore: clamp01(t.Relevance),
			Frequency:      freq,
		})
	}

	words := len(strings.Fields(post.Content))
	readingTime := words / 200
	if readingTime < 1 {
		readingTime = 1
	}

	return &core.BlogAnalysisResult{
		Sentiment: core.SentimentAnalysis{
			Sentiment:       sentiment,
			ConfidenceScore: clamp01(raw.Sentiment.Confidence),
			PositiveScore:   clamp01(raw.Sentiment.Scores["positive"]),
			NegativeScore:   clamp01(raw.Sentiment.Scores["negative"]),
			NeutralScore:    clamp01(raw.Sentiment.Scores["neutral"]),
		},
		KeyTopics:            keyTopics,
		KeywordSuggestions:   toKeywordSuggestions(raw.Keywords),
		ReadabilityScore:     clamp100(raw.Readability),
		WordCount:            words,
		EstimatedReadingTime: readingTime,
	}
}

// toRecommendation sanitizes the wire recommendation against the draft it
// was computed for. Weak-section ranges are clamped into [0, len(draft)]
// with start <= end.
func toRecommendation(raw wireRecommendation, draft string) *core.KeywordRecommendation {
	weak := make([]core.WeakSection, 0, len(raw.WeakSections))
	for _, ws := range raw.WeakSections {
		start := clampInt(ws.Start, 0, len(draft))
		end := clampInt(ws.End, start, len(draft))
		severity := ws.Severity
		switch severity {
		case core.SeverityLow, core.SeverityMedium, core.SeverityHigh:
		default:
			severity = core.SeverityMedium
		}
		issue := ws.Issue
		if issue == "" {
			issue = "general"
		}
		weak = append(weak, core.WeakSection{
			StartPosition: start,
			EndPosition:   end,
			IssueType:     issue,
			Severity:      severity,
			Suggestion:    ws.Suggestion,
			Confidence:    clamp01(ws.Confidence),
		})
	}

	return &core.KeywordRecommendation{
		Keywords:     toKeywordSuggestions(raw.Keywords),
		WeakSections: weak,
		RealtimeScore: core.RealtimeScore{
			OverallScore:     clamp100(raw.Scores.Overall),
			ReadabilityScore: clamp100(raw.Scores.Readability),
			RelevanceScore:   clamp100(raw.Scores.Relevance),
			EngagementScore:  clamp100(raw.Scores.Engagement),
			SEOScore:         clamp100(raw.Scores.SEO),
		},
		SuggestionsContext: "Real-time analysis based on current draft",
		Timestamp:          time.Now().UTC(),
	}
}

func toKeywordSuggestions(raw []wireKeyword) []core.KeywordSuggestion {
	if len(raw) > maxKeywords {
		raw = raw[:maxKeywords]
	}
	out := make([]core.KeywordSuggestion, 0, len(raw))
	for _, kw := range raw {
		var position *int
		if kw.Position != nil {
			p := *kw.Position
			if p < 0 {
				p = 0
			}
			position = &p
		}
		out = append(out, core.KeywordSuggestion{
			Keyword:            kw.Keyword,
			RelevanceScore:     clamp01(kw.Relevance),
			Context:            kw.Context,
			PositionSuggestion: position,
			SemanticSimilarity: clamp01(kw.Similarity),
		})
	}
	return out
}

// truncateContent cuts text near max characters at a word boundary.
func truncateContent(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := text[:max]
	if idx := strings.LastIndex(cut, " "); idx > max*8/10 {
		cut = cut[:idx]
	}
	return cut + "..."
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
