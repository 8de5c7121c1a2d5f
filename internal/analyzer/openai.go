package analyzer

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/draftaid/draftaid/internal/core"
)

const DefaultOpenAIModel = openai.GPT4oMini

// OpenAIAnalyzer is the alternative backend behind the same interface,
// using chat completions in JSON mode.
type OpenAIAnalyzer struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

func NewOpenAIAnalyzer(apiKey, model string, logger *zap.Logger) (*OpenAIAnalyzer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIAnalyzer{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: logger,
	}, nil
}

func (o *OpenAIAnalyzer) AnalyzeBlogPost(ctx context.Context, post core.BlogPost) (*core.BlogAnalysisResult, error) {
	raw, err := o.complete(ctx, analyzePrompt(post))
	if err != nil {
		return nil, err
	}
	return toAnalysisResult(parseAnalysis(raw), post), nil
}

func (o *OpenAIAnalyzer) RecommendKeywords(ctx context.Context, draft, cursorContext string, profile *core.UserProfile) (*core.KeywordRecommendation, error) {
	raw, err := o.complete(ctx, recommendPrompt(draft, cursorContext, profile))
	if err != nil {
		return nil, err
	}
	return toRecommendation(parseRecommendation(raw), draft), nil
}

func (o *OpenAIAnalyzer) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model:       o.model,
			Temperature: 0.1,
			MaxTokens:   4096,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: "You are a writing assistant that responds only with valid JSON.",
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
		},
	)
	if err != nil {
		return "", fmt.Errorf("openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices received from openai")
	}
	return resp.Choices[0].Message.Content, nil
}
