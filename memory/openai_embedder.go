package memory

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/recallhq/recall/errors"
)

// OpenAIEmbedder backs the store with dense embeddings from the
// OpenAI embeddings API.
type OpenAIEmbedder struct {
	client openai.Client
	model  string
	dim    int
}

var _ Embedder = (*OpenAIEmbedder)(nil)

func NewOpenAIEmbedder(apiKey, model string, dim int) *OpenAIEmbedder {
	if model == "" {
		model = string(openai.EmbeddingModelTextEmbedding3Small)
	}
	if dim <= 0 {
		dim = 1536
	}
	return &OpenAIEmbedder{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
		dim:    dim,
	}
}

func (e *OpenAIEmbedder) Dim() int {
	return e.dim
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(e.model),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
		Dimensions: openai.Int(int64(e.dim)),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create embeddings")
	}
	if len(resp.Data) != len(texts) {
		return nil, errors.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	out := make([][]float32, len(resp.Data))
	for i, data := range resp.Data {
		vec := make([]float32, len(data.Embedding))
		for j, v := range data.Embedding {
			vec[j] = float32(v)
		}
		out[i] = vec
	}
	return out, nil
}
