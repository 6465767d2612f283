package ai

import (
	"context"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/rs/zerolog/log"
)

// Reporter writes narrative summaries through an OpenAI compatible endpoint (Azure OpenAI in
// production). Without credentials it still produces the raw digest.
type Reporter struct {
	client     *openai.Client
	deployment string
}

// NewReporter returns a disabled reporter when endpoint or apiKey is empty.
func NewReporter(endpoint, apiKey, deployment string) *Reporter {
	if deployment == "" {
		deployment = "gpt-35-turbo" // Default deployment name
	}
	if endpoint == "" || apiKey == "" {
		log.Info().Msg("AI service disabled - Azure OpenAI credentials not provided")
		return &Reporter{deployment: deployment}
	}

	clientValue := openai.NewClient(
		option.WithBaseURL(endpoint),
		option.WithAPIKey(apiKey),
	)
	log.Info().Str("deployment", deployment).Msg("AI service initialized with Azure OpenAI")
	return &Reporter{client: &clientValue, deployment: deployment}
}

// IsEnabled returns whether the AI service is properly initialized
func (r *Reporter) IsEnabled() bool {
	return r != nil && r.client != nil
}

func (r *Reporter) generateCompletion(ctx context.Context, systemMessage, userMessage string) (string, error) {
	if !r.IsEnabled() {
		return "", &AIError{Message: "AI service is not enabled"}
	}

	resp, err := r.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(r.deployment),
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String(systemMessage),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(userMessage),
					},
				},
			},
		},
		MaxTokens:   openai.Int(800),
		Temperature: openai.Float(0.4),
	})
	if err != nil {
		log.Error().Err(err).Msg("AI API error")
		return "", &AIError{Message: "Failed to generate AI response", Cause: err}
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &AIError{Message: "AI returned empty response"}
	}
	return resp.Choices[0].Message.Content, nil
}

// AIError represents an AI service error
type AIError struct {
	Message string
	Cause   error
}

func (e *AIError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AIError) Unwrap() error { return e.Cause }
