package quire

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/quire/internal/core/config"
	"github.com/hay-kot/quire/internal/core/layout"
	"github.com/hay-kot/quire/internal/data/db"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	dir := t.TempDir()
	cfg, err := config.Load("", dir)
	require.NoError(t, err)

	database, err := db.Open(dir, db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	return NewApp(cfg, database)
}

func TestDocumentID(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	tests := []struct {
		arg     string
		want    string
		wantErr bool
	}{
		{arg: "book.md", want: filepath.Join(wd, "book.md")},
		{arg: "/tmp/a.txt", want: "/tmp/a.txt"},
		{arg: "file:///tmp/b.html", want: "file:///tmp/b.html"},
		{arg: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := DocumentID(tt.arg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApp_OpenReaderPersistsAcrossOpens(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "notes.md")
	text := "# Notes\n\n" + strings.Repeat("Some text for the notes file.\n\n", 300)
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))

	vp := layout.Viewport{Width: 60, Height: 20}
	r, err := app.OpenReader(ctx, path, vp, app.ViewerOptions())
	require.NoError(t, err)
	require.Greater(t, r.Viewer().PageCount(), 3)

	require.NoError(t, r.JumpToPage(3))
	_, err = r.ToggleBookmark("chapter")
	require.NoError(t, err)
	offset := r.Viewer().Offset()
	require.NoError(t, r.Close(ctx))

	again, err := app.OpenReader(ctx, path, vp, app.ViewerOptions())
	require.NoError(t, err)
	defer func() { _ = again.Close(ctx) }()

	assert.Equal(t, offset, again.Viewer().Offset())
	require.Equal(t, 1, again.Marks().BookmarkCount())
	assert.Equal(t, "chapter", again.Marks().Bookmarks()[0].Name)

	entry, err := app.Library.Get(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "Notes", entry.Title)
	assert.Equal(t, 2, entry.OpenCount)
	assert.Equal(t, path, app.LocalPath(path))
}
