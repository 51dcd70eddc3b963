package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
)

// OpenAIEngine translates via any OpenAI-compatible chat completions
// endpoint, typically a local llama.cpp server hosting a translation
// model.
type OpenAIEngine struct {
	client *openai.Client
	model  string
}

// NewOpenAIEngine builds an engine for the given base URL and model. The
// API key may be empty for local servers.
func NewOpenAIEngine(baseURL, apiKey, model string) *OpenAIEngine {
	opts := []option.RequestOption{option.WithBaseURL(baseURL)}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client := openai.NewClient(opts...)
	return &OpenAIEngine{client: &client, model: model}
}

// Translate sends one caption through the chat endpoint and returns the
// bare translation.
func (e *OpenAIEngine) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return text, nil
	}

	resp, err := e.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(e.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt(sourceLang, targetLang)),
			openai.UserMessage(text),
		},
		Temperature: param.NewOpt(0.3),
		TopP:        param.NewOpt(0.9),
	})
	if err != nil {
		return "", fmt.Errorf("translation request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("translation returned no choices")
	}

	translated := strings.TrimSpace(resp.Choices[0].Message.Content)
	if translated == "" {
		return "", fmt.Errorf("translation returned empty text")
	}
	return translated, nil
}

// systemPrompt instructs the model to emit only the translation.
func systemPrompt(sourceLang, targetLang string) string {
	var b strings.Builder
	if sourceLang == "" || strings.EqualFold(sourceLang, "auto") {
		fmt.Fprintf(&b, "You are a professional translator. Translate the following text into %s.\n", targetLang)
	} else {
		fmt.Fprintf(&b, "You are a professional translator. Translate the following %s text into %s.\n", sourceLang, targetLang)
	}
	b.WriteString("Rules:\n")
	b.WriteString("- Output ONLY the translation, nothing else\n")
	b.WriteString("- Preserve the original meaning and tone\n")
	b.WriteString("- Keep proper nouns as-is unless they have a standard translation\n")
	b.WriteString("- If unsure, make your best effort")
	return b.String()
}
