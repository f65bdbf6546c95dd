package lazymodal

import (
	"io/fs"
	"log/slog"
)

// Chrome names the modal's own assets, relative to the registry base.
type Chrome struct {
	// CloseButton is the markup injected when close-button is set.
	CloseButton string

	// Styles are adopted onto the modal's root when it attaches.
	Styles []string
}

// DefaultChrome points at the assets served by Registry.Handler.
var DefaultChrome = Chrome{
	CloseButton: "close-button.html",
	Styles:      []string{"lazy-modal.css", "aria-busy.css"},
}

// Option configures NewRegistry.
type Option func(*options)

type options struct {
	base      string
	fetcher   Fetcher
	logger    *slog.Logger
	key       []byte
	chrome    Chrome
	static    map[string]string
	staticCSS []string
	assets    fs.FS
}

// WithBase sets the address relative paths resolve against, typically the
// absolute URL Registry.Handler is mounted at. Defaults to DefaultBase.
func WithBase(base string) Option {
	return func(o *options) {
		o.base = base
	}
}

// WithFetcher sets how resources are retrieved. Defaults to an
// HTTPFetcher on http.DefaultClient.
func WithFetcher(f Fetcher) Option {
	return func(o *options) {
		o.fetcher = f
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithKey sets the key fragment values are signed and encrypted with.
// If not provided, a random key is generated (suitable for a single
// process only).
func WithKey(key []byte) Option {
	return func(o *options) {
		o.key = key
	}
}

// WithChrome overrides the modal's own asset paths.
func WithChrome(c Chrome) Option {
	return func(o *options) {
		o.chrome = c
	}
}

// WithStaticMarkup serves markup for path without any network access.
func WithStaticMarkup(path, markup string) Option {
	return func(o *options) {
		if o.static == nil {
			o.static = make(map[string]string)
		}
		o.static[path] = markup
	}
}

// WithStaticStyles replaces the chrome stylesheets with literal CSS. The
// sheets are compiled on each attach and never fetched.
func WithStaticStyles(css ...string) Option {
	return func(o *options) {
		o.staticCSS = css
	}
}

// WithAssets replaces the built-in assets served by Registry.Handler.
func WithAssets(fsys fs.FS) Option {
	return func(o *options) {
		o.assets = fsys
	}
}
