package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/quire/internal/core/marks"
	"github.com/hay-kot/quire/internal/core/reader"
	"github.com/hay-kot/quire/internal/quire"
	"github.com/hay-kot/quire/pkg/iojson"
)

type AnnotationsCmd struct {
	flags *Flags
	app   *quire.App

	// flags
	vp      viewportFlags
	jsonOut bool
	start   int
	end     int
	match   string
	color   string
	note    string
	replace bool
	input   iojson.FileReader[marks.Snapshot]
}

// NewAnnotationsCmd creates a new annotations command
func NewAnnotationsCmd(flags *Flags, app *quire.App) *AnnotationsCmd {
	return &AnnotationsCmd{flags: flags, app: app}
}

// Register adds the annotations command to the application
func (cmd *AnnotationsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:    "annotations",
		Aliases: []string{"an"},
		Usage:   "List, edit, export and import the annotations of a document",
		Commands: []*cli.Command{
			{
				Name:      "list",
				Aliases:   []string{"ls"},
				Usage:     "List annotations in document order",
				UsageText: "quire annotations list [options] <file>",
				Flags: append(cmd.vp.Flags(), &cli.BoolFlag{
					Name:        "json",
					Usage:       "output one JSON object per annotation",
					Destination: &cmd.jsonOut,
				}),
				ShellComplete: RecentDocumentCompleter(cmd.app),
				Action:        cmd.runList,
			},
			{
				Name:      "add",
				Usage:     "Annotate a byte range or the next match of a query",
				UsageText: "quire annotations add [options] <file>",
				Description: `Either --match or both --start and --end select the text. A match is
searched for from the saved reading position.`,
				Flags: append(cmd.vp.Flags(),
					&cli.IntFlag{Name: "start", Usage: "start byte offset", Value: -1, Destination: &cmd.start},
					&cli.IntFlag{Name: "end", Usage: "end byte offset (exclusive)", Value: -1, Destination: &cmd.end},
					&cli.StringFlag{Name: "match", Aliases: []string{"m"}, Usage: "annotate the next match of this query", Destination: &cmd.match},
					&cli.StringFlag{Name: "color", Usage: "annotation color (defaults to annotations.default)", Destination: &cmd.color},
					&cli.StringFlag{Name: "note", Usage: "note attached to the annotation", Destination: &cmd.note},
				),
				ShellComplete: RecentDocumentCompleter(cmd.app),
				Action:        cmd.runAdd,
			},
			{
				Name:          "remove",
				Aliases:       []string{"rm"},
				Usage:         "Remove annotations by ID or unique ID prefix",
				UsageText:     "quire annotations remove <file> <id>...",
				Flags:         cmd.vp.Flags(),
				ShellComplete: RecentDocumentCompleter(cmd.app),
				Action:        cmd.runRemove,
			},
			{
				Name:          "export",
				Usage:         "Write the bookmarks and annotations of a document as JSON",
				UsageText:     "quire annotations export <file>",
				Flags:         cmd.vp.Flags(),
				ShellComplete: RecentDocumentCompleter(cmd.app),
				Action:        cmd.runExport,
			},
			{
				Name:      "import",
				Usage:     "Read bookmarks and annotations from JSON",
				UsageText: "quire annotations import [options] <file>",
				Description: `Reads the format written by export from --file or stdin. Marks whose ID
already exists are skipped unless --replace drops the current marks first.`,
				Flags: append(cmd.vp.Flags(),
					cmd.input.Flag(),
					&cli.BoolFlag{Name: "replace", Usage: "replace all existing marks", Destination: &cmd.replace},
				),
				ShellComplete: RecentDocumentCompleter(cmd.app),
				Action:        cmd.runImport,
			},
		},
	})

	return app
}

// AnnotationInfo is the listed form of an annotation.
type AnnotationInfo struct {
	ID    string `json:"id"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Page  int    `json:"page"`
	Color string `json:"color"`
	Note  string `json:"note,omitempty"`
	Text  string `json:"text"`
}

const annotationTextWidth = 40

func (cmd *AnnotationsCmd) open(ctx context.Context, c *cli.Command) (*reader.Reader, error) {
	id, err := documentArg(c)
	if err != nil {
		return nil, err
	}
	return cmd.app.OpenReader(ctx, id, cmd.vp.Viewport(), cmd.app.ViewerOptions())
}

func (cmd *AnnotationsCmd) runList(ctx context.Context, c *cli.Command) error {
	r, err := cmd.open(ctx, c)
	if err != nil {
		return err
	}
	defer r.Marks().Close()

	text := r.Document().Text()
	infos := make([]AnnotationInfo, 0, r.Marks().AnnotationCount())
	for _, a := range r.Marks().Annotations() {
		start, end := a.Range()
		infos = append(infos, AnnotationInfo{
			ID:    a.ID,
			Start: start,
			End:   end,
			Page:  pageOf(r, start),
			Color: a.Color,
			Note:  a.Note,
			Text:  strings.Join(strings.Fields(text[start:end]), " "),
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
		_, _ = fmt.Fprintln(w, "No annotations.")
		return nil
	}

	tw := newTable(w)
	_, _ = fmt.Fprintln(tw, "ID\tPAGE\tRANGE\tCOLOR\tTEXT\tNOTE")
	for _, info := range infos {
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%d-%d\t%s\t%s\t%s\n",
			shortID(info.ID), info.Page, info.Start, info.End, info.Color,
			runewidth.Truncate(info.Text, annotationTextWidth, "…"), orDash(info.Note))
	}
	return tw.Flush()
}

func (cmd *AnnotationsCmd) runAdd(ctx context.Context, c *cli.Command) error {
	color := cmd.color
	if color == "" {
		color = cmd.app.Config.Annotations.Default
	}
	if _, ok := cmd.app.Config.Annotations.Colors[color]; !ok {
		return fmt.Errorf("unknown color %q", color)
	}
	if cmd.match == "" && (cmd.start < 0 || cmd.end < 0) {
		return fmt.Errorf("either --match or both --start and --end are required")
	}

	r, err := cmd.open(ctx, c)
	if err != nil {
		return err
	}

	a, err := cmd.add(r, color)
	if err := closeWith(ctx, r, err); err != nil {
		return err
	}

	start, end := a.Range()
	_, err = fmt.Fprintf(c.Root().Writer, "Added annotation %s at %d-%d\n", shortID(a.ID), start, end)
	return err
}

func (cmd *AnnotationsCmd) add(r *reader.Reader, color string) (*marks.Annotation, error) {
	var (
		a   *marks.Annotation
		err error
	)
	if cmd.match != "" {
		if _, ok := r.Viewer().SearchNext(cmd.match); !ok {
			return nil, fmt.Errorf("no match for %q", cmd.match)
		}
		var ok bool
		a, ok, err = r.HighlightMatch(color)
		if err == nil && !ok {
			err = fmt.Errorf("no match for %q", cmd.match)
		}
	} else {
		a, err = r.Marks().AddAnnotation(cmd.start, cmd.end, color)
	}
	if err != nil {
		return nil, fmt.Errorf("add annotation: %w", err)
	}
	a.Note = cmd.note
	return a, nil
}

func (cmd *AnnotationsCmd) runRemove(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() < 2 {
		return fmt.Errorf("usage: quire annotations remove <file> <id>...")
	}

	r, err := cmd.open(ctx, c)
	if err != nil {
		return err
	}

	var found []*marks.Annotation
	for _, ref := range c.Args().Tail() {
		a := findAnnotation(r.Marks(), ref)
		if a == nil {
			r.Marks().Close()
			return fmt.Errorf("no annotation matches %q", ref)
		}
		found = append(found, a)
	}

	removed := make([]string, 0, len(found))
	for _, a := range found {
		removed = append(removed, shortID(a.ID))
		r.Marks().RemoveAnnotation(a)
	}

	if err := r.Close(ctx); err != nil {
		return err
	}

	_, err = fmt.Fprintf(c.Root().Writer, "Removed %s\n", strings.Join(removed, ", "))
	return err
}

func (cmd *AnnotationsCmd) runExport(ctx context.Context, c *cli.Command) error {
	r, err := cmd.open(ctx, c)
	if err != nil {
		return err
	}
	defer r.Marks().Close()

	return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, r.Marks().Snapshot())
}

func (cmd *AnnotationsCmd) runImport(ctx context.Context, c *cli.Command) error {
	snap, err := cmd.input.Read()
	if err != nil {
		return err
	}

	r, err := cmd.open(ctx, c)
	if err != nil {
		return err
	}

	var n int
	if cmd.replace {
		n = r.Marks().ApplySnapshot(snap)
	} else {
		n = merge(r.Marks(), snap)
	}
	r.Document().SetUserDataModified()

	if err := r.Close(ctx); err != nil {
		return err
	}

	_, err = fmt.Fprintf(c.Root().Writer, "Imported %d of %d marks\n", n, len(snap.Bookmarks)+len(snap.Annotations))
	return err
}

// merge adds the marks of snap whose IDs are not in s. Marks that do not
// fit the document are skipped. It returns the number added.
func merge(s *marks.Store, snap marks.Snapshot) int {
	added := 0
	for _, rec := range snap.Bookmarks {
		if rec.ID != "" && s.BookmarkByID(rec.ID) != nil {
			continue
		}
		b := marks.NewBookmark(rec.Name, rec.Offset)
		if rec.ID != "" {
			b.ID = rec.ID
		}
		if s.Add(b) == nil {
			added++
		}
	}

	existing := make(map[string]bool, s.AnnotationCount())
	for _, a := range s.Annotations() {
		existing[a.ID] = true
	}

	for _, rec := range snap.Annotations {
		if rec.ID != "" && existing[rec.ID] {
			continue
		}
		a := marks.NewAnnotation(rec.Start, rec.End, rec.Color)
		a.Note = rec.Note
		if rec.ID != "" {
			a.ID = rec.ID
		}
		if s.AddAnnotationValue(a) == nil {
			added++
		}
	}
	return added
}

// findAnnotation matches ref against IDs, then unique ID prefixes.
func findAnnotation(s *marks.Store, ref string) *marks.Annotation {
	var byPrefix []*marks.Annotation
	for _, a := range s.Annotations() {
		if a.ID == ref {
			return a
		}
		if strings.HasPrefix(a.ID, ref) {
			byPrefix = append(byPrefix, a)
		}
	}
	if len(byPrefix) == 1 {
		return byPrefix[0]
	}
	return nil
}
