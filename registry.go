package lazymodal

import (
	"bytes"
	"context"
	"crypto/rand"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/pthm/lazymodal/lib/dom"
)

//go:embed assets
var embedded embed.FS

// Registry owns the state shared by every modal it creates: the fetch
// cache, the head claims, the path resolver and the fragments it serves.
// Modals from different registries share nothing.
type Registry struct {
	mu        sync.RWMutex
	resolver  *Resolver
	cache     *Cache
	claims    *Claims
	encoder   *Encoder
	logger    *slog.Logger
	chrome    Chrome
	staticCSS []string
	fragments map[string]*Fragment
	mux       *http.ServeMux

	// OnError is called when a fragment request fails.
	// Customize this to handle errors appropriately for your application.
	OnError func(http.ResponseWriter, *http.Request, error)
}

// NewRegistry creates a registry.
func NewRegistry(opts ...Option) *Registry {
	o := &options{base: DefaultBase, chrome: DefaultChrome}
	for _, opt := range opts {
		opt(o)
	}
	if o.fetcher == nil {
		o.fetcher = &HTTPFetcher{}
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.key == nil {
		o.key = make([]byte, 32)
		if _, err := rand.Read(o.key); err != nil {
			panic(fmt.Sprintf("lazymodal: failed to generate random key: %v", err))
		}
	}
	if o.assets == nil {
		sub, err := fs.Sub(embedded, "assets")
		if err != nil {
			panic(fmt.Sprintf("lazymodal: embedded assets: %v", err))
		}
		o.assets = sub
	}

	enc, err := NewEncoder(o.key)
	if err != nil {
		panic(fmt.Sprintf("lazymodal: failed to create encoder: %v", err))
	}

	reg := &Registry{
		resolver:  NewResolver(o.base),
		cache:     NewCache(o.fetcher),
		claims:    NewClaims(),
		encoder:   enc,
		logger:    o.logger,
		chrome:    o.chrome,
		staticCSS: o.staticCSS,
		fragments: make(map[string]*Fragment),
		mux:       http.NewServeMux(),
	}
	for path, markup := range o.static {
		reg.cache.SetStatic(reg.resolver.Resolve(path), markup)
	}

	// Default error handler
	reg.OnError = func(w http.ResponseWriter, r *http.Request, err error) {
		if IsNotFound(err) {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		if IsDecryptionError(err) || err == ErrInvalidFormat {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}

	reg.mux.HandleFunc("GET /fragments/{name}", reg.serveFragment)
	reg.mux.Handle("GET /", http.FileServerFS(o.assets))

	return reg
}

// Resolver returns the registry's path resolver.
func (reg *Registry) Resolver() *Resolver {
	return reg.resolver
}

// Cache returns the fetch cache shared by the registry's modals.
func (reg *Registry) Cache() *Cache {
	return reg.cache
}

// Claims returns the shared head claims.
func (reg *Registry) Claims() *Claims {
	return reg.claims
}

// Encoder returns the registry's encoder.
func (reg *Registry) Encoder() *Encoder {
	return reg.encoder
}

// Logger returns the registry's logger.
func (reg *Registry) Logger() *slog.Logger {
	return reg.logger
}

// Reset clears the fetch cache and the head claims.
func (reg *Registry) Reset() {
	reg.cache.Reset()
	reg.claims.Reset()
}

// Handler serves the chrome assets and registered fragments. Mount it
// under the path the registry base points at:
//
//	reg := lazymodal.NewRegistry(lazymodal.WithBase("https://example.com/_lm"))
//	http.Handle("/_lm/", http.StripPrefix("/_lm", reg.Handler()))
func (reg *Registry) Handler() http.Handler {
	return reg.mux
}

// Fragment registers a server-rendered content fragment under name.
// Panics if the name is already taken.
func (reg *Registry) Fragment(name string, render FragmentFunc) *Fragment {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, exists := reg.fragments[name]; exists {
		panic(fmt.Sprintf("lazymodal: fragment collision for %q", name))
	}
	f := &Fragment{name: name, render: render}
	reg.fragments[name] = f
	return f
}

// FragmentPath returns the path, relative to the registry base, that
// renders fragment name with vals. Use it as a modal's inner-content.
func (reg *Registry) FragmentPath(name string, vals Values) (string, error) {
	reg.mu.RLock()
	f, ok := reg.fragments[name]
	reg.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: fragment %q", ErrNotFound, name)
	}
	encoded, err := reg.encoder.Encode(vals, f.IsSensitive())
	if err != nil {
		return "", err
	}
	return "fragments/" + url.PathEscape(name) + "?p=" + encoded, nil
}

func (reg *Registry) serveFragment(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	reg.mu.RLock()
	f, ok := reg.fragments[name]
	reg.mu.RUnlock()
	if !ok {
		reg.OnError(w, r, fmt.Errorf("%w: fragment %q", ErrNotFound, name))
		return
	}

	vals := Values{}
	if p := r.URL.Query().Get("p"); p != "" {
		decoded, err := reg.encoder.Decode(p, f.IsSensitive())
		if err != nil {
			reg.OnError(w, r, wrapEncodingError(err))
			return
		}
		vals = decoded
	}

	var buf bytes.Buffer
	if err := f.render(r.Context(), vals).Render(r.Context(), &buf); err != nil {
		reg.OnError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// ScriptRunner executes script source on behalf of a document host.
type ScriptRunner func(el *dom.Element, source string)

// Host returns a dom.Host that loads stylesheet links and external scripts
// through the registry's cache, so every copy of a resource shares one
// fetch, and hands script text to run.
func (reg *Registry) Host(run ScriptRunner) dom.Host {
	return &registryHost{reg: reg, run: run}
}

type registryHost struct {
	reg *Registry
	run ScriptRunner
}

func (h *registryHost) LoadResource(ctx context.Context, el *dom.Element) error {
	switch el.TagName() {
	case "link":
		href, _ := el.Attr("href")
		_, err := h.reg.cache.StyleSheet(ctx, href)
		return err
	case "script":
		src, _ := el.Attr("src")
		text, err := h.reg.cache.Text(ctx, KindScript, src)
		if err != nil {
			return err
		}
		h.RunScript(el, text)
	}
	return nil
}

func (h *registryHost) RunScript(el *dom.Element, source string) {
	if h.run != nil {
		h.run(el, source)
	}
}
