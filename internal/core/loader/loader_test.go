package loader

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/quire/internal/core/document"
	"github.com/hay-kot/quire/internal/core/progress"
	"github.com/hay-kot/quire/internal/core/source"
	"github.com/hay-kot/quire/internal/format"
)

// blockingSource hands out readers only after release is closed or the
// context ends.
type blockingSource struct {
	opened  chan string
	release chan struct{}
}

func (s *blockingSource) OpenReader(ctx context.Context, id string) (io.ReadCloser, error) {
	s.opened <- id
	select {
	case <-s.release:
		return io.NopCloser(strings.NewReader("text of " + id)), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *blockingSource) OpenWriter(context.Context, string) (io.WriteCloser, error) {
	return nil, errors.ErrUnsupported
}

type failingHandler struct{}

func (failingHandler) Name() string { return "failing" }

func (failingHandler) Parse(context.Context, string, io.Reader) (*document.Document, error) {
	return nil, errors.New("malformed")
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "book.md", "# Title\n\nBody text.")

	bus := progress.NewBus()
	var events []progress.Event
	bus.Subscribe(func(e progress.Event) { events = append(events, e) })

	l := New(source.FileSource{}, format.Default(), NewWorkerPool(1), bus)
	doc, err := l.Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "Title\n\nBody text.", doc.Text())
	assert.Equal(t, path, doc.ID())

	require.Len(t, events, 1)
	assert.Equal(t, progress.ConstructStarted, events[0].Kind)
	assert.Equal(t, uint64(1), events[0].Gen)
	assert.Equal(t, path, events[0].DocID)
}

func TestLoader_OpenFailure(t *testing.T) {
	l := New(source.FileSource{}, format.Default(), nil, nil)

	doc, err := l.Load(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	assert.Nil(t, doc)
	require.ErrorIs(t, err, ErrLoadFailed)
	require.ErrorIs(t, err, fs.ErrNotExist)

	var lerr *LoadError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, "open", lerr.Op)
}

func TestLoader_ParseFailure(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bad.book", "whatever")

	formats := format.NewRegistry()
	formats.MustRegister("**/*.book", 0, failingHandler{})

	l := New(source.FileSource{}, formats, nil, nil)
	_, err := l.Load(context.Background(), path)
	require.ErrorIs(t, err, ErrLoadFailed)

	var lerr *LoadError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, "parse", lerr.Op)
}

func TestLoader_NoHandler(t *testing.T) {
	l := New(source.FileSource{}, format.NewRegistry(), nil, nil)

	_, err := l.Load(context.Background(), "book.epub")
	require.ErrorIs(t, err, ErrLoadFailed)
	require.ErrorIs(t, err, format.ErrNoHandler)
}

func TestLoader_StartCancelsPrevious(t *testing.T) {
	src := &blockingSource{opened: make(chan string, 2), release: make(chan struct{})}
	l := New(src, format.Default(), NewWorkerPool(2), nil)

	first := l.Start(context.Background(), "first.txt")
	firstErr := make(chan error, 1)
	go func() {
		_, err := first.Run()
		firstErr <- err
	}()
	require.Equal(t, "first.txt", <-src.opened)

	second := l.Start(context.Background(), "second.txt")
	assert.False(t, l.IsCurrent(first.Gen))
	assert.True(t, l.IsCurrent(second.Gen))

	select {
	case err := <-firstErr:
		require.ErrorIs(t, err, context.Canceled)
		require.ErrorIs(t, err, ErrLoadFailed)
	case <-time.After(5 * time.Second):
		t.Fatal("first load was not cancelled")
	}

	close(src.release)
	doc, err := second.Run()
	require.NoError(t, err)
	assert.Equal(t, "text of second.txt", doc.Text())
}

func TestLoader_Cancel(t *testing.T) {
	src := &blockingSource{opened: make(chan string, 1), release: make(chan struct{})}
	l := New(src, format.Default(), nil, nil)

	job := l.Start(context.Background(), "a.txt")
	done := make(chan error, 1)
	go func() {
		_, err := job.Run()
		done <- err
	}()
	<-src.opened

	l.Cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestWorkerPool_RunContextCancelledWhileWaiting(t *testing.T) {
	pool := NewWorkerPool(1)
	hold := make(chan struct{})
	running := make(chan struct{})

	go func() {
		_ = pool.RunContext(context.Background(), func() {
			close(running)
			<-hold
		})
	}()
	<-running

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	ran := false
	err := pool.RunContext(ctx, func() { ran = true })
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, ran)

	close(hold)
}

func TestWorkerPool_DefaultSize(t *testing.T) {
	assert.Equal(t, 2, NewWorkerPool(0).Size())
	assert.Equal(t, 4, NewWorkerPool(4).Size())
}
