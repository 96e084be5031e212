// Package format maps document identifiers to content handlers that parse
// bytes into documents.
package format

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/hay-kot/quire/internal/core/document"
)

// ErrNoHandler is returned when no registered pattern matches an identifier.
var ErrNoHandler = errors.New("no handler for document")

// Handler parses a byte stream into a document.
type Handler interface {
	// Name identifies the handler in logs and CLI output.
	Name() string
	// Parse reads r to the end and builds a document with the given id.
	Parse(ctx context.Context, id string, r io.Reader) (*document.Document, error)
}

type registration struct {
	pattern  string
	literal  int
	priority int
	handler  Handler
}

// Registry selects handlers by doublestar pattern. The pattern with the most
// literal characters wins; priority breaks ties, then registration order.
type Registry struct {
	regs []registration
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Default returns a registry with the built-in markdown, html and plain
// text handlers.
func Default() *Registry {
	r := NewRegistry()
	r.MustRegister("**/*.{md,markdown,mdown,mkd}", 0, Markdown{})
	r.MustRegister("**/*.{html,htm,xhtml}", 0, HTML{})
	r.MustRegister("**/*.{txt,text}", 0, Text{})
	r.MustRegister("**", -1, Text{})
	return r
}

// Register adds h for identifiers matching pattern.
func (r *Registry) Register(pattern string, priority int, h Handler) error {
	if !doublestar.ValidatePattern(pattern) {
		return fmt.Errorf("register %s: invalid pattern %q", h.Name(), pattern)
	}
	r.regs = append(r.regs, registration{
		pattern:  pattern,
		literal:  literalLen(pattern),
		priority: priority,
		handler:  h,
	})
	return nil
}

// MustRegister is like Register but panics on an invalid pattern.
func (r *Registry) MustRegister(pattern string, priority int, h Handler) {
	if err := r.Register(pattern, priority, h); err != nil {
		panic(err)
	}
}

// Lookup returns the best handler for id.
func (r *Registry) Lookup(id string) (Handler, error) {
	name := matchName(id)

	var best *registration
	for i := range r.regs {
		reg := &r.regs[i]
		if !doublestar.MatchUnvalidated(reg.pattern, name) {
			continue
		}
		if best == nil || reg.literal > best.literal ||
			(reg.literal == best.literal && reg.priority > best.priority) {
			best = reg
		}
	}

	if best == nil {
		return nil, fmt.Errorf("%s: %w", id, ErrNoHandler)
	}
	return best.handler, nil
}

// Patterns returns the registered patterns in registration order.
func (r *Registry) Patterns() []string {
	out := make([]string, 0, len(r.regs))
	for _, reg := range r.regs {
		out = append(out, reg.pattern)
	}
	return out
}

// matchName normalizes an identifier into a lower-case slash path.
func matchName(id string) string {
	if strings.Contains(id, "://") {
		if u, err := url.Parse(id); err == nil {
			id = u.Path
		}
	}
	id = strings.ReplaceAll(id, `\`, "/")
	return strings.TrimPrefix(path.Clean(strings.ToLower(id)), "/")
}

// literalLen counts pattern characters outside wildcards, classes and
// alternations. Alternations count their shortest branch.
func literalLen(pattern string) int {
	n := 0
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '*', '?':
		case '\\':
			i++
			n++
		case '[':
			for i < len(pattern) && pattern[i] != ']' {
				i++
			}
			n++
		case '{':
			end := strings.IndexByte(pattern[i:], '}')
			if end < 0 {
				return n
			}
			shortest := -1
			for _, alt := range strings.Split(pattern[i+1:i+end], ",") {
				if shortest < 0 || len(alt) < shortest {
					shortest = len(alt)
				}
			}
			n += max(shortest, 0)
			i += end
		default:
			n++
		}
	}
	return n
}
