package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"github.com/draftaid/draftaid/internal/core"
)

const (
	DefaultGeminiModel = "gemini-2.0-flash"

	// Requests per second against the Gemini API; bursts allow a batch to
	// start without immediate throttling.
	geminiRPS   = 5
	geminiBurst = 10
)

// GeminiAnalyzer calls the Gemini API in JSON mode and sanitizes the
// structured output into core types.
type GeminiAnalyzer struct {
	client  *genai.Client
	model   string
	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewGeminiAnalyzer(ctx context.Context, apiKey, model string, logger *zap.Logger) (*GeminiAnalyzer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiAnalyzer{
		client:  client,
		model:   model,
		limiter: rate.NewLimiter(geminiRPS, geminiBurst),
		logger:  logger,
	}, nil
}

func (g *GeminiAnalyzer) Close() error {
	return g.client.Close()
}

func (g *GeminiAnalyzer) AnalyzeBlogPost(ctx context.Context, post core.BlogPost) (*core.BlogAnalysisResult, error) {
	raw, err := g.generate(ctx, analyzePrompt(post))
	if err != nil {
		return nil, err
	}
	return toAnalysisResult(parseAnalysis(raw), post), nil
}

func (g *GeminiAnalyzer) RecommendKeywords(ctx context.Context, draft, cursorContext string, profile *core.UserProfile) (*core.KeywordRecommendation, error) {
	raw, err := g.generate(ctx, recommendPrompt(draft, cursorContext, profile))
	if err != nil {
		return nil, err
	}
	return toRecommendation(parseRecommendation(raw), draft), nil
}

func (g *GeminiAnalyzer) generate(ctx context.Context, prompt string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}

	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(0.1)
	model.SetTopP(0.9)
	model.SetTopK(40)
	model.SetMaxOutputTokens(4096)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no candidates received from gemini")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}
	return sb.String(), nil
}
