package trigger

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/recallhq/recall/errors"
)

const classifierSystemPrompt = `You are an intent classifier for a memory engine used by coding assistants.
Classify the user's message into exactly one of three labels:
- SAVE_MEMORY: the message states information worth persisting (a decision, a solution, a preference, an instruction to remember something).
- SEARCH_MEMORY: the message asks for information that may have been stored before.
- NO_ACTION: neither applies.
Respond with a JSON object: {"label": "<one of the three labels>", "confidence": <float between 0 and 1>}.`

// OpenAIModel implements Model on the OpenAI chat completions API using
// JSON-mode responses.
type OpenAIModel struct {
	apiKey string
	model  string

	client openai.Client
}

var _ Model = (*OpenAIModel)(nil)

func NewOpenAIModel(apiKey, model string) *OpenAIModel {
	if model == "" {
		model = string(openai.ChatModelGPT4oMini)
	}
	return &OpenAIModel{
		apiKey: apiKey,
		model:  model,
	}
}

func (m *OpenAIModel) Load(ctx context.Context) error {
	if m.apiKey == "" {
		return errors.New("openai api key is empty")
	}
	m.client = openai.NewClient(option.WithAPIKey(m.apiKey))

	// Cheap reachability check so load failures surface here, not on the
	// first classification.
	if _, err := m.client.Models.Get(ctx, m.model); err != nil {
		return errors.Wrapf(err, "failed to verify model %q", m.model)
	}
	return nil
}

func (m *OpenAIModel) Classify(ctx context.Context, text string) (*ClassifierResult, error) {
	resp, err := m.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(m.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(classifierSystemPrompt),
			openai.UserMessage(text),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		},
		Temperature: openai.Float(0),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "classification request failed")
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("classification response has no choices")
	}

	var parsed struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &parsed); err != nil {
		return nil, errors.Wrapf(err, "failed to parse classification response")
	}

	label := Label(strings.ToUpper(strings.TrimSpace(parsed.Label)))
	switch label {
	case LabelSaveMemory, LabelSearchMemory, LabelNoAction:
	default:
		return nil, errors.Errorf("unexpected classification label %q", parsed.Label)
	}

	confidence := parsed.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return &ClassifierResult{
		Label:      label,
		Confidence: confidence,
	}, nil
}
