package logging

import (
	"context"
	"testing"
)

func TestWithDocumentID(t *testing.T) {
	ctx := WithDocumentID(context.Background(), "/books/moby.md")

	if got := GetDocumentID(ctx); got != "/books/moby.md" {
		t.Errorf("GetDocumentID() = %q, want %q", got, "/books/moby.md")
	}
}

func TestWithGeneration(t *testing.T) {
	ctx := WithGeneration(context.Background(), 7)

	got, ok := GetGeneration(ctx)
	if !ok || got != 7 {
		t.Errorf("GetGeneration() = %d, %v, want 7, true", got, ok)
	}
}

func TestGetDocumentID_NotPresent(t *testing.T) {
	if got := GetDocumentID(context.Background()); got != "" {
		t.Errorf("GetDocumentID() = %q, want empty string", got)
	}
}

func TestGetGeneration_NotPresent(t *testing.T) {
	if _, ok := GetGeneration(context.Background()); ok {
		t.Error("GetGeneration() ok = true, want false")
	}
}
