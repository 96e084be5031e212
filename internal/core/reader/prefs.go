package reader

import (
	"context"
	"fmt"

	"github.com/hay-kot/quire/internal/core/kv"
	"github.com/hay-kot/quire/internal/core/viewer"
)

// Prefs are the viewer settings remembered between sessions.
type Prefs struct {
	Zoom         float64
	DisplayPages int
}

const (
	prefZoom         = "zoom"
	prefDisplayPages = "display_pages"
)

// LoadPrefs reads the saved preferences, falling back to def for values
// never saved.
func LoadPrefs(ctx context.Context, store kv.KV, def Prefs) (Prefs, error) {
	zoom, err := kv.Scoped[float64](store, "prefs").GetOr(ctx, prefZoom, def.Zoom)
	if err != nil {
		return def, fmt.Errorf("load zoom: %w", err)
	}
	pages, err := kv.Scoped[int](store, "prefs").GetOr(ctx, prefDisplayPages, def.DisplayPages)
	if err != nil {
		return def, fmt.Errorf("load display pages: %w", err)
	}

	if pages < viewer.MinDisplayPages || pages > viewer.MaxDisplayPages {
		pages = def.DisplayPages
	}
	if zoom <= 0 {
		zoom = def.Zoom
	}
	return Prefs{Zoom: zoom, DisplayPages: pages}, nil
}

// SavePrefs stores the current viewer settings.
func SavePrefs(ctx context.Context, store kv.KV, v *viewer.Viewer) error {
	if err := kv.Scoped[float64](store, "prefs").Set(ctx, prefZoom, v.Zoom()); err != nil {
		return fmt.Errorf("save zoom: %w", err)
	}
	if err := kv.Scoped[int](store, "prefs").Set(ctx, prefDisplayPages, v.DisplayPageCount()); err != nil {
		return fmt.Errorf("save display pages: %w", err)
	}
	return nil
}
