package logging

import "context"

type contextKey string

const (
	documentIDKey contextKey = "doc_id"
	generationKey contextKey = "gen"
)

// WithDocumentID adds a document ID to the context.
func WithDocumentID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, documentIDKey, id)
}

// WithGeneration adds a load generation to the context.
func WithGeneration(ctx context.Context, gen uint64) context.Context {
	return context.WithValue(ctx, generationKey, gen)
}

// GetDocumentID retrieves the document ID from the context.
// Returns empty string if not present.
func GetDocumentID(ctx context.Context) string {
	if id, ok := ctx.Value(documentIDKey).(string); ok {
		return id
	}
	return ""
}

// GetGeneration retrieves the load generation from the context.
// Returns 0 and false if not present.
func GetGeneration(ctx context.Context) (uint64, bool) {
	gen, ok := ctx.Value(generationKey).(uint64)
	return gen, ok
}
