package lazymodal

import (
	"context"
	"fmt"
	"sync"

	slogcontext "github.com/veqryn/slog-context"
	"golang.org/x/sync/singleflight"

	"github.com/pthm/lazymodal/lib/dom"
)

// Kind classifies a fetched resource.
type Kind int

const (
	KindMarkup Kind = iota
	KindStyle
	KindScript
)

func (k Kind) String() string {
	switch k {
	case KindMarkup:
		return "markup"
	case KindStyle:
		return "style"
	case KindScript:
		return "script"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// entry is a settled fetch. err is the original failure behind a fallback
// value; the entry itself always counts as resolved.
type entry struct {
	text  string
	sheet *dom.StyleSheet
	err   error
}

// Cache memoizes fetched text per (kind, address) for the lifetime of the
// cache. Each key is fetched at most once, however many callers ask and
// however the first fetch ends.
type Cache struct {
	fetcher Fetcher
	sf      singleflight.Group

	mu      sync.RWMutex
	entries map[string]*entry
	static  map[string]string
}

// NewCache returns an empty cache backed by f.
func NewCache(f Fetcher) *Cache {
	return &Cache{
		fetcher: f,
		entries: make(map[string]*entry),
		static:  make(map[string]string),
	}
}

// SetStatic registers a literal markup body for addr. Static bodies never
// touch the fetcher or the cache.
func (c *Cache) SetStatic(addr, markup string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.static[addr] = markup
}

// Text returns the text at addr. On failure it returns "" and the error;
// the failure is cached like a success and never retried. A cancelled ctx
// only stops this caller waiting, the fetch itself runs to completion.
func (c *Cache) Text(ctx context.Context, kind Kind, addr string) (string, error) {
	if kind == KindMarkup {
		c.mu.RLock()
		markup, ok := c.static[addr]
		c.mu.RUnlock()
		if ok {
			return markup, nil
		}
	}
	e, err := c.get(ctx, kind, addr)
	if err != nil {
		return "", err
	}
	return e.text, e.err
}

// StyleSheet returns the compiled stylesheet at addr. On failure it returns
// an empty sheet and the error.
func (c *Cache) StyleSheet(ctx context.Context, addr string) (*dom.StyleSheet, error) {
	e, err := c.get(ctx, KindStyle, addr)
	if err != nil {
		return dom.NewStyleSheet(), err
	}
	return e.sheet, e.err
}

// Len returns the number of settled entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Reset drops every settled entry. Static bodies are kept.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
}

func (c *Cache) lookup(key string) (*entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok
}

func (c *Cache) get(ctx context.Context, kind Kind, addr string) (*entry, error) {
	key := kind.String() + " " + addr
	if e, ok := c.lookup(key); ok {
		return e, nil
	}

	ch := c.sf.DoChan(key, func() (any, error) {
		// a flight that finished between lookup and DoChan already stored it
		if e, ok := c.lookup(key); ok {
			return e, nil
		}
		e := c.retrieve(context.WithoutCancel(ctx), kind, addr)
		c.mu.Lock()
		c.entries[key] = e
		c.mu.Unlock()
		return e, nil
	})

	select {
	case res := <-ch:
		return res.Val.(*entry), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) retrieve(ctx context.Context, kind Kind, addr string) *entry {
	logger := slogcontext.FromCtx(ctx).With("kind", kind.String(), "addr", addr)

	text, err := c.fetcher.Fetch(ctx, addr)
	if err != nil {
		logger.Warn("lazymodal: fetch failed, using empty fallback", "error", err)
		e := &entry{err: err}
		if kind == KindStyle {
			e.sheet = dom.NewStyleSheet()
		}
		return e
	}
	if kind != KindStyle {
		return &entry{text: text}
	}

	sheet := dom.NewStyleSheet()
	if err := sheet.Replace(text); err != nil {
		logger.Warn("lazymodal: stylesheet rejected, using empty fallback", "error", err)
		return &entry{text: text, sheet: dom.NewStyleSheet(), err: fmt.Errorf("%w: %s: %v", ErrFetchFailed, addr, err)}
	}
	return &entry{text: text, sheet: sheet}
}
