package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/quire/internal/core/marks"
	"github.com/hay-kot/quire/internal/core/reader"
	"github.com/hay-kot/quire/internal/quire"
	"github.com/hay-kot/quire/pkg/iojson"
)

type BookmarksCmd struct {
	flags *Flags
	app   *quire.App

	// flags
	vp      viewportFlags
	jsonOut bool
	name    string
	page    int
	offset  int
}

// NewBookmarksCmd creates a new bookmarks command
func NewBookmarksCmd(flags *Flags, app *quire.App) *BookmarksCmd {
	return &BookmarksCmd{flags: flags, app: app, offset: -1}
}

// Register adds the bookmarks command to the application
func (cmd *BookmarksCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:    "bookmarks",
		Aliases: []string{"bm"},
		Usage:   "List and edit the bookmarks of a document",
		Commands: []*cli.Command{
			{
				Name:      "list",
				Aliases:   []string{"ls"},
				Usage:     "List bookmarks in document order",
				UsageText: "quire bookmarks list [options] <file>",
				Flags: append(cmd.vp.Flags(), &cli.BoolFlag{
					Name:        "json",
					Usage:       "output one JSON object per bookmark",
					Destination: &cmd.jsonOut,
				}),
				ShellComplete: RecentDocumentCompleter(cmd.app),
				Action:        cmd.runList,
			},
			{
				Name:      "add",
				Usage:     "Add a bookmark at the start of a page or at an offset",
				UsageText: "quire bookmarks add [options] <file>",
				Flags: append(cmd.vp.Flags(),
					&cli.StringFlag{
						Name:        "name",
						Usage:       "bookmark name",
						Destination: &cmd.name,
					},
					&cli.IntFlag{
						Name:        "page",
						Aliases:     []string{"p"},
						Usage:       "page to bookmark (1-based, defaults to the saved reading position)",
						Destination: &cmd.page,
					},
					&cli.IntFlag{
						Name:        "offset",
						Usage:       "byte offset to bookmark",
						Value:       -1,
						Destination: &cmd.offset,
					},
				),
				ShellComplete: RecentDocumentCompleter(cmd.app),
				Action:        cmd.runAdd,
			},
			{
				Name:          "remove",
				Aliases:       []string{"rm"},
				Usage:         "Remove bookmarks by ID, ID prefix or name",
				UsageText:     "quire bookmarks remove <file> <id-or-name>...",
				Flags:         cmd.vp.Flags(),
				ShellComplete: RecentDocumentCompleter(cmd.app),
				Action:        cmd.runRemove,
			},
		},
	})

	return app
}

// BookmarkInfo is the listed form of a bookmark.
type BookmarkInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Offset int    `json:"offset"`
	Page   int    `json:"page"`
}

// open loads the document with its user data. Changes are persisted by
// closing the returned reader.
func (cmd *BookmarksCmd) open(ctx context.Context, c *cli.Command) (*reader.Reader, error) {
	id, err := documentArg(c)
	if err != nil {
		return nil, err
	}
	return cmd.app.OpenReader(ctx, id, cmd.vp.Viewport(), cmd.app.ViewerOptions())
}

func (cmd *BookmarksCmd) runList(ctx context.Context, c *cli.Command) error {
	r, err := cmd.open(ctx, c)
	if err != nil {
		return err
	}
	defer r.Marks().Close()

	infos := make([]BookmarkInfo, 0, r.Marks().BookmarkCount())
	for _, b := range r.Marks().Bookmarks() {
		infos = append(infos, BookmarkInfo{
			ID:     b.ID,
			Name:   b.Name,
			Offset: b.Offset(),
			Page:   pageOf(r, b.Offset()),
		})
	}

	w := c.Root().Writer
	if cmd.jsonOut {
		for _, info := range infos {
			if err := iojson.WriteLine(w, info); err != nil {
				return err
			}
		}
		return nil
	}

	if len(infos) == 0 {
		_, _ = fmt.Fprintln(w, "No bookmarks.")
		return nil
	}

	tw := newTable(w)
	_, _ = fmt.Fprintln(tw, "ID\tPAGE\tOFFSET\tNAME")
	for _, info := range infos {
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", shortID(info.ID), info.Page, info.Offset, orDash(info.Name))
	}
	return tw.Flush()
}

func (cmd *BookmarksCmd) runAdd(ctx context.Context, c *cli.Command) error {
	r, err := cmd.open(ctx, c)
	if err != nil {
		return err
	}

	b, err := cmd.add(r)
	var page int
	if err == nil {
		page = pageOf(r, b.Offset())
	}
	if err := closeWith(ctx, r, err); err != nil {
		return err
	}

	_, err = fmt.Fprintf(c.Root().Writer, "Added bookmark %s on page %d\n", shortID(b.ID), page)
	return err
}

// add bookmarks the offset from the flags, falling back to the page start
// and then to the saved reading position.
func (cmd *BookmarksCmd) add(r *reader.Reader) (*marks.Bookmark, error) {
	view := r.Viewer()
	offset := view.Offset()
	switch {
	case cmd.offset >= 0:
		offset = cmd.offset
	case cmd.page != 0:
		if cmd.page < 1 || cmd.page > view.PageCount() {
			return nil, fmt.Errorf("page %d out of range 1-%d", cmd.page, view.PageCount())
		}
		start, _, err := view.PageRange(cmd.page - 1)
		if err != nil {
			return nil, err
		}
		offset = start
	}

	if existing := r.Marks().BookmarkAt(offset); existing != nil {
		return nil, fmt.Errorf("bookmark %s already exists at offset %d", shortID(existing.ID), offset)
	}

	b, err := r.Marks().AddBookmark(cmd.name, offset)
	if err != nil {
		return nil, fmt.Errorf("add bookmark: %w", err)
	}
	return b, nil
}

func (cmd *BookmarksCmd) runRemove(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() < 2 {
		return fmt.Errorf("usage: quire bookmarks remove <file> <id-or-name>...")
	}

	r, err := cmd.open(ctx, c)
	if err != nil {
		return err
	}

	// Resolve every reference before removing any so a typo changes nothing.
	var found []*marks.Bookmark
	for _, ref := range c.Args().Tail() {
		b := findBookmark(r.Marks(), ref)
		if b == nil {
			r.Marks().Close()
			return fmt.Errorf("no bookmark matches %q", ref)
		}
		found = append(found, b)
	}

	removed := make([]string, 0, len(found))
	for _, b := range found {
		removed = append(removed, shortID(b.ID))
		r.Marks().RemoveBookmark(b)
	}

	if err := r.Close(ctx); err != nil {
		return err
	}

	_, err = fmt.Fprintf(c.Root().Writer, "Removed %s\n", strings.Join(removed, ", "))
	return err
}

// findBookmark matches ref against IDs, then unique ID prefixes, then names.
func findBookmark(s *marks.Store, ref string) *marks.Bookmark {
	if b := s.BookmarkByID(ref); b != nil {
		return b
	}

	var byPrefix, byName []*marks.Bookmark
	for _, b := range s.Bookmarks() {
		if strings.HasPrefix(b.ID, ref) {
			byPrefix = append(byPrefix, b)
		}
		if b.Name == ref {
			byName = append(byName, b)
		}
	}
	switch {
	case len(byPrefix) == 1:
		return byPrefix[0]
	case len(byName) == 1:
		return byName[0]
	}
	return nil
}

// pageOf returns the 1-based page holding offset, or 0 when it has none.
func pageOf(r *reader.Reader, offset int) int {
	i, err := r.Viewer().Layout().PageIndexOf(offset)
	if err != nil {
		return 0
	}
	return i + 1
}

const shortIDLength = 8

func shortID(id string) string {
	if len(id) > shortIDLength {
		return id[:shortIDLength]
	}
	return id
}
