// Package watch reports when open document files change on disk.
package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/hay-kot/quire/internal/core/logging"
)

const (
	// DefaultDebounce coalesces the burst of events an editor save produces.
	DefaultDebounce = 100 * time.Millisecond
	eventBufferSize = 8
)

// Event says that the file at Path changed.
type Event struct {
	Path string
	Time time.Time
}

// Watcher watches individual files. It watches their parent directories so
// that files replaced by rename, as most editors save, keep being reported.
type Watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration
	log      zerolog.Logger

	mu          sync.Mutex
	subscribers map[string][]chan Event // clean path -> channels
	dirs        map[string]int          // watched dir -> subscriber count
	timers      map[string]*time.Timer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New starts a watcher. A zero debounce uses DefaultDebounce.
func New(debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		fs:          fsw,
		debounce:    debounce,
		log:         logging.Component("watch"),
		subscribers: make(map[string][]chan Event),
		dirs:        make(map[string]int),
		timers:      make(map[string]*time.Timer),
		ctx:         ctx,
		cancel:      cancel,
	}

	w.wg.Add(1)
	go w.run()

	return w, nil
}

// Watch returns a channel receiving an Event each time path changes. The
// channel is closed when ctx ends or the watcher closes.
func (w *Watcher) Watch(ctx context.Context, path string) (<-chan Event, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(abs)

	w.mu.Lock()
	if w.dirs[dir] == 0 {
		if err := w.fs.Add(dir); err != nil {
			w.mu.Unlock()
			return nil, err
		}
	}
	w.dirs[dir]++
	ch := make(chan Event, eventBufferSize)
	w.subscribers[abs] = append(w.subscribers[abs], ch)
	w.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			w.unsubscribe(abs, ch)
		case <-w.ctx.Done():
		}
	}()

	return ch, nil
}

// Close stops watching and closes all subscriber channels.
func (w *Watcher) Close() error {
	w.cancel()

	w.mu.Lock()
	for _, t := range w.timers {
		t.Stop()
	}
	for _, subs := range w.subscribers {
		for _, ch := range subs {
			close(ch)
		}
	}
	w.subscribers = make(map[string][]chan Event)
	w.mu.Unlock()

	err := w.fs.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) unsubscribe(path string, ch chan Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	subs := w.subscribers[path]
	for i, sub := range subs {
		if sub != ch {
			continue
		}
		w.subscribers[path] = append(subs[:i], subs[i+1:]...)
		close(ch)

		dir := filepath.Dir(path)
		if w.dirs[dir]--; w.dirs[dir] == 0 {
			delete(w.dirs, dir)
			_ = w.fs.Remove(dir)
		}
		break
	}
	if len(w.subscribers[path]) == 0 {
		delete(w.subscribers, path)
	}
}

func (w *Watcher) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("watch error")
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	path := filepath.Clean(event.Name)

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.subscribers[path]; !ok {
		return
	}
	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() { w.notify(path) })
}

func (w *Watcher) notify(path string) {
	event := Event{Path: path, Time: time.Now()}

	w.mu.Lock()
	defer w.mu.Unlock()

	delete(w.timers, path)
	for _, ch := range w.subscribers[path] {
		select {
		case ch <- event:
		default:
			w.log.Debug().Str("path", path).Msg("dropping change event, subscriber busy")
		}
	}
}
