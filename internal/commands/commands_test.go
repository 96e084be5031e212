package commands

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/quire/internal/core/config"
	"github.com/hay-kot/quire/internal/core/marks"
	"github.com/hay-kot/quire/internal/data/db"
	"github.com/hay-kot/quire/internal/quire"
)

type registrar interface {
	Register(app *cli.Command) *cli.Command
}

func newTestApp(t *testing.T) (*Flags, *quire.App) {
	t.Helper()
	dir := t.TempDir()

	cfg, err := config.Load("", dir)
	require.NoError(t, err)

	database, err := db.Open(dir, db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	return &Flags{DataDir: dir, Config: cfg}, quire.NewApp(cfg, database)
}

// runCmd runs args against a fresh root holding only cmd.
func runCmd(t *testing.T, cmd registrar, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	root := &cli.Command{
		Name:           "quire",
		Writer:         &buf,
		ErrWriter:      io.Discard,
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}
	cmd.Register(root)

	err := root.Run(context.Background(), append([]string{"quire"}, args...))
	return buf.String(), err
}

func writeNotes(t *testing.T) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("# Notes\n\n")
	for i := range 120 {
		b.WriteString("Some text for the notes file.\n\n")
		if i%40 == 10 {
			b.WriteString("A needle hides in this paragraph.\n\n")
		}
	}
	path := filepath.Join(t.TempDir(), "notes.md")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func decodeLines[T any](t *testing.T, out string) []T {
	t.Helper()
	var items []T
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		var v T
		require.NoError(t, json.Unmarshal(sc.Bytes(), &v), "line %q", sc.Text())
		items = append(items, v)
	}
	return items
}

var pageSize = []string{"--width", "60", "--height", "20"}

// withPage inserts the page size flags after the command path.
func withPage(path string, args ...string) []string {
	out := strings.Fields(path)
	out = append(out, pageSize...)
	return append(out, args...)
}

func TestInfoCmd(t *testing.T) {
	flags, app := newTestApp(t)
	notes := writeNotes(t)

	other := filepath.Join(t.TempDir(), "plain.txt")
	require.NoError(t, os.WriteFile(other, []byte("just a line\n"), 0o644))

	out, err := runCmd(t, NewInfoCmd(flags, app), withPage("info", "--json", notes, other)...)
	require.NoError(t, err)

	infos := decodeLines[DocumentInfo](t, out)
	require.Len(t, infos, 2)

	assert.Equal(t, notes, infos[0].ID)
	assert.Equal(t, "Notes", infos[0].Title)
	assert.Greater(t, infos[0].Pages, 3)
	assert.Equal(t, 1, infos[0].Headings)
	assert.Equal(t, 60, infos[0].Width)

	assert.Equal(t, "plain.txt", infos[1].Title)
	assert.Equal(t, 1, infos[1].Pages)
}

func TestInfoCmd_MissingFile(t *testing.T) {
	flags, app := newTestApp(t)

	_, err := runCmd(t, NewInfoCmd(flags, app), withPage("info", filepath.Join(t.TempDir(), "gone.md"))...)
	require.Error(t, err)
}

func TestPagesCmd(t *testing.T) {
	flags, app := newTestApp(t)
	notes := writeNotes(t)

	out, err := runCmd(t, NewPagesCmd(flags, app), withPage("pages", "--json", notes)...)
	require.NoError(t, err)

	pages := decodeLines[PageInfo](t, out)
	require.Greater(t, len(pages), 3)
	assert.Equal(t, 1, pages[0].Page)
	assert.Equal(t, 0, pages[0].Start)
	assert.Contains(t, pages[0].First, "Notes")
	for i := 1; i < len(pages); i++ {
		assert.Equal(t, pages[i-1].End, pages[i].Start, "page %d starts where %d ends", i+1, i)
	}

	out, err = runCmd(t, NewPagesCmd(flags, app), withPage("pages", "--page", "1", notes)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Notes")

	_, err = runCmd(t, NewPagesCmd(flags, app), withPage("pages", "--page", "999", notes)...)
	require.ErrorContains(t, err, "out of range")
}

func TestSearchCmd(t *testing.T) {
	flags, app := newTestApp(t)
	notes := writeNotes(t)

	out, err := runCmd(t, NewSearchCmd(flags, app), withPage("search", "--json", notes, "NEEDLE")...)
	require.NoError(t, err)

	results := decodeLines[SearchResult](t, out)
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, 6, r.Length)
		assert.Contains(t, r.Snippet, "needle")
		assert.Positive(t, r.Page)
		if i > 0 {
			assert.Greater(t, r.Offset, results[i-1].Offset)
		}
	}

	out, err = runCmd(t, NewSearchCmd(flags, app), withPage("search", "--limit", "1", notes, "needle")...)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "\n"), "header and one match")

	_, err = runCmd(t, NewSearchCmd(flags, app), withPage("search", notes, "haystack")...)
	require.ErrorContains(t, err, "no match")
}

func TestBookmarksCmd(t *testing.T) {
	flags, app := newTestApp(t)
	notes := writeNotes(t)

	out, err := runCmd(t, NewBookmarksCmd(flags, app), withPage("bookmarks add", "--page", "2", "--name", "two", notes)...)
	require.NoError(t, err)
	assert.Contains(t, out, "on page 2")

	_, err = runCmd(t, NewBookmarksCmd(flags, app), withPage("bookmarks add", "--page", "2", notes)...)
	require.ErrorContains(t, err, "already exists")

	out, err = runCmd(t, NewBookmarksCmd(flags, app), withPage("bookmarks list", "--json", notes)...)
	require.NoError(t, err)
	bms := decodeLines[BookmarkInfo](t, out)
	require.Len(t, bms, 1)
	assert.Equal(t, "two", bms[0].Name)
	assert.Equal(t, 2, bms[0].Page)

	_, err = runCmd(t, NewBookmarksCmd(flags, app), withPage("bookmarks remove", notes, "missing")...)
	require.ErrorContains(t, err, "no bookmark matches")

	_, err = runCmd(t, NewBookmarksCmd(flags, app), withPage("bookmarks remove", notes, "two")...)
	require.NoError(t, err)

	out, err = runCmd(t, NewBookmarksCmd(flags, app), withPage("bookmarks list", notes)...)
	require.NoError(t, err)
	assert.Contains(t, out, "No bookmarks.")
}

func TestAnnotationsCmd(t *testing.T) {
	flags, app := newTestApp(t)
	notes := writeNotes(t)
	an := func(args ...string) (string, error) {
		return runCmd(t, NewAnnotationsCmd(flags, app), withPage("annotations "+args[0], args[1:]...)...)
	}

	_, err := an("add", "--match", "needle", "--color", "blue", "--note", "found it", notes)
	require.NoError(t, err)

	_, err = an("add", "--color", "mauve", "--start", "0", "--end", "2", notes)
	require.ErrorContains(t, err, "unknown color")

	_, err = an("add", notes)
	require.ErrorContains(t, err, "--match")

	out, err := an("list", "--json", notes)
	require.NoError(t, err)
	list := decodeLines[AnnotationInfo](t, out)
	require.Len(t, list, 1)
	assert.Equal(t, "needle", strings.ToLower(list[0].Text))
	assert.Equal(t, "blue", list[0].Color)
	assert.Equal(t, "found it", list[0].Note)

	exported, err := an("export", notes)
	require.NoError(t, err)
	var snap marks.Snapshot
	require.NoError(t, json.Unmarshal([]byte(exported), &snap))
	require.Len(t, snap.Annotations, 1)

	exportFile := filepath.Join(t.TempDir(), "marks.json")
	require.NoError(t, os.WriteFile(exportFile, []byte(exported), 0o644))

	_, err = an("remove", notes, list[0].ID[:8])
	require.NoError(t, err)

	out, err = an("list", notes)
	require.NoError(t, err)
	assert.Contains(t, out, "No annotations.")

	out, err = an("import", "--file", exportFile, notes)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 of 1 marks")

	out, err = an("import", "--file", exportFile, notes)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 0 of 1 marks", "existing IDs are skipped")

	out, err = an("list", "--json", notes)
	require.NoError(t, err)
	list = decodeLines[AnnotationInfo](t, out)
	require.Len(t, list, 1)
	assert.Equal(t, snap.Annotations[0].ID, list[0].ID)
}

func TestRecentCmd(t *testing.T) {
	flags, app := newTestApp(t)
	notes := writeNotes(t)

	out, err := runCmd(t, NewRecentCmd(flags, app), "recent")
	require.NoError(t, err)
	assert.Contains(t, out, "No documents opened yet.")

	_, err = runCmd(t, NewBookmarksCmd(flags, app), withPage("bookmarks list", notes)...)
	require.NoError(t, err)

	out, err = runCmd(t, NewRecentCmd(flags, app), "recent", "--json")
	require.NoError(t, err)
	entries := decodeLines[struct {
		ID        string `json:"id"`
		Title     string `json:"title"`
		OpenCount int    `json:"open_count"`
	}](t, out)
	require.Len(t, entries, 1)
	assert.Equal(t, notes, entries[0].ID)
	assert.Equal(t, "Notes", entries[0].Title)

	out, err = runCmd(t, NewRecentCmd(flags, app), "recent", "forget", notes)
	require.NoError(t, err)
	assert.Contains(t, out, "Forgot")

	out, err = runCmd(t, NewRecentCmd(flags, app), "recent")
	require.NoError(t, err)
	assert.Contains(t, out, "No documents opened yet.")
}

func TestConfigValidateCmd(t *testing.T) {
	flags, _ := newTestApp(t)

	out, err := runCmd(t, NewConfigValidateCmd(flags), "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid")

	flags.Config.Annotations.Colors["pink"] = "not-a-color"
	out, err = runCmd(t, NewConfigValidateCmd(flags), "config", "validate", "--format", "json")
	require.Error(t, err)

	var report ValidationReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.False(t, report.Valid)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0].Field, "pink")
}
