// Package vision asks a multimodal model for a nutritional estimate of a
// meal photo.
package vision

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sashabaranov/go-openai"

	"github.com/mealsnap/mealsnap/nutrition"
)

const prompt = `You are a nutritionist. Estimate the nutritional content of the meal in this photo.
Respond with a single JSON object with these keys:
  label      - short dish name
  calories   - kcal for the whole plate
  protein_g  - grams of protein
  carbs_g    - grams of carbohydrate
  fat_g      - grams of fat
  confidence - 0 to 1, how sure you are
If the photo does not show food, set calories to 0 and confidence to 0.`

type Analyzer struct {
	client *openai.Client
	model  string
}

// New builds an analyzer for the given API key and model. An empty baseURL
// means the public API endpoint.
func New(apiKey, model, baseURL string) *Analyzer {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.Logger = nil

	cfg := openai.DefaultConfig(apiKey)
	cfg.HTTPClient = rc.StandardClient()
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &Analyzer{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Analyze sends a JPEG to the model and parses its reply into an estimate.
func (a *Analyzer) Analyze(ctx context.Context, imageJPEG []byte) (nutrition.Estimate, error) {
	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(imageJPEG)

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     a.model,
		MaxTokens: 300,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: prompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailLow,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return nutrition.Estimate{}, fmt.Errorf("vision request: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nutrition.Estimate{}, fmt.Errorf("vision request: empty response")
	}

	return ParseEstimate(resp.Choices[0].Message.Content)
}
