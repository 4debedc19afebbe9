// Package script holds script writers that can stand in for the hosted text
// model behind the generation gateway.
package script

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"videogen/internal/domain"
	"videogen/internal/infra"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIOptions configures an OpenAIWriter.
type OpenAIOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// OpenAIWriter generates scripts with a chat completion constrained to a
// strict {"script": string} JSON schema.
type OpenAIWriter struct {
	client openai.Client
	model  string
	logger *infra.Logger
}

type scriptResponse struct {
	Script string `json:"script" jsonschema_description:"The full short-form video script, readable aloud in under 60 seconds."`
}

var scriptResponseSchema = generateSchema[scriptResponse]()

func generateSchema[T any]() any {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// NewOpenAIWriter constructs a writer. Retries are disabled so a failed call
// surfaces immediately.
func NewOpenAIWriter(opts OpenAIOptions) (*OpenAIWriter, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("script: openai api key is required: %w", domain.ErrConfiguration)
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultOpenAIModel
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(base))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	return &OpenAIWriter{
		client: openai.NewClient(reqOpts...),
		model:  model,
		logger: infra.OrDiscard(opts.Logger),
	}, nil
}

// Model returns the configured chat model.
func (w *OpenAIWriter) Model() string {
	return w.model
}

// GenerateScript sends prompt as the user message. An empty script yields nil.
func (w *OpenAIWriter) GenerateScript(ctx context.Context, prompt string) (*string, error) {
	text, err := w.complete(ctx, prompt)
	if err != nil {
		w.logger.Warn().Err(err).Str("model", w.model).Msg("script: openai call failed")
		return nil, &domain.GenerationError{Operation: "script", Model: w.model, Err: err}
	}
	if text == "" {
		return nil, nil
	}
	return &text, nil
}

func (w *OpenAIWriter) complete(ctx context.Context, prompt string) (string, error) {
	completion, err := w.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You write short-form vertical video scripts. Respond only with JSON matching the schema."),
			openai.UserMessage(prompt),
		},
		Model: openai.ChatModel(w.model),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "video_script",
					Description: openai.String("A short-form video script"),
					Schema:      scriptResponseSchema,
					Strict:      openai.Bool(true),
				},
			},
		},
	})
	if err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	raw := completion.Choices[0].Message.Content
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	var decoded scriptResponse
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return "", fmt.Errorf("decode structured response: %w", err)
	}
	return strings.TrimSpace(decoded.Script), nil
}
