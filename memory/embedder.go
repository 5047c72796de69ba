package memory

import "context"

// Embedder produces the similarity keys stored alongside records. All
// implementations return L2-normalized vectors so inner product equals
// cosine similarity.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dim() int
}
