package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

const polarityInstructions = `Classify the overall sentiment polarity of the sentence the user sends.
The sentence was spelled letter by letter in sign language and may contain missing spaces or typos.
Answer with POSITIVE or NEGATIVE only, in the JSON format requested.`

type polarityOutput struct {
	Label string `json:"label" jsonschema:"enum=POSITIVE,enum=NEGATIVE"`
}

var polaritySchema = polarityJSONSchema()

func polarityJSONSchema() map[string]any {
	r := jsonschema.Reflector{AllowAdditionalProperties: false, DoNotReference: true}
	b, err := r.Reflect(polarityOutput{}).MarshalJSON()
	if err != nil {
		panic(err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		panic(err)
	}
	delete(m, "$schema")
	delete(m, "$id")
	m["additionalProperties"] = false
	m["required"] = []string{"label"}
	return m
}

// OpenAISentiment classifies sentence polarity with a hosted model through the
// Responses API and a strict JSON schema.
type OpenAISentiment struct {
	client *openai.Client
	model  string
}

func NewOpenAISentiment(apiKey, baseURL, model string) (*OpenAISentiment, error) {
	if apiKey == "" {
		return nil, errors.New("openai sentiment: api key is empty")
	}
	if model == "" {
		return nil, errors.New("openai sentiment: model is empty")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	return &OpenAISentiment{client: &client, model: model}, nil
}

func (s *OpenAISentiment) Polarity(ctx context.Context, text string) (string, error) {
	format := responses.ResponseFormatTextConfigUnionParam{
		OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
			Name:        "SentencePolarity",
			Schema:      polaritySchema,
			Strict:      openai.Bool(true),
			Description: openai.String("Sentence sentiment polarity"),
			Type:        "json_schema",
		},
	}
	params := responses.ResponseNewParams{
		Model:           s.model,
		MaxOutputTokens: openai.Int(50),
		Instructions:    openai.String(polarityInstructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(text, responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{Format: format},
	}

	resp, err := s.client.Responses.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai sentiment: %w", err)
	}
	return parsePolarity(resp.OutputText())
}

func parsePolarity(output string) (string, error) {
	s := strings.TrimSpace(output)
	if start, end := strings.IndexByte(s, '{'), strings.LastIndexByte(s, '}'); start >= 0 && end > start {
		s = s[start : end+1]
	}
	var out polarityOutput
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return "", fmt.Errorf("openai sentiment decode: %w", err)
	}
	label := strings.ToUpper(strings.TrimSpace(out.Label))
	if label != "POSITIVE" && label != "NEGATIVE" {
		return "", fmt.Errorf("openai sentiment: unexpected label %q", out.Label)
	}
	return label, nil
}
