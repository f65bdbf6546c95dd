// Package lazymodalecho provides Echo framework integration for lazymodal.
//
// Mount the modal assets and fragments onto an Echo instance or group:
//
//	e := echo.New()
//	reg := lazymodalecho.Mount(e, lazymodalecho.WithBase("https://example.com"))
//	reg.Fragment("terms", renderTerms)
//
// Or mount on a group with middleware:
//
//	g := e.Group("/app", authMiddleware)
//	reg := lazymodalecho.MountGroup(g)
package lazymodalecho

import (
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/pthm/lazymodal"
)

// Option configures the Mount and MountGroup functions.
type Option func(*options)

type options struct {
	path string
	base string
	opts []lazymodal.Option
}

// WithPath sets the URL path prefix the handler is mounted at.
// Defaults to "/_lm/".
func WithPath(path string) Option {
	return func(o *options) {
		o.path = path
	}
}

// WithBase sets the origin pages load modal resources from, such as
// "https://example.com". The mount path is appended to it; for
// MountGroup include the group prefix.
func WithBase(origin string) Option {
	return func(o *options) {
		o.base = strings.TrimRight(origin, "/")
	}
}

// WithRegistryOptions passes options through to lazymodal.NewRegistry.
func WithRegistryOptions(opts ...lazymodal.Option) Option {
	return func(o *options) {
		o.opts = append(o.opts, opts...)
	}
}

// Mount creates a registry and mounts its handler on an Echo instance.
//
//	e := echo.New()
//	reg := lazymodalecho.Mount(e)
//
//	// With options:
//	reg := lazymodalecho.Mount(e, lazymodalecho.WithPath("/modals/"))
func Mount(e *echo.Echo, opts ...Option) *lazymodal.Registry {
	reg, path := newRegistry(opts)
	e.GET(path+"*", handler(reg, path))
	return reg
}

// MountGroup creates a registry and mounts its handler on an Echo group.
// This allows fragments to share middleware with the group (auth, logging, etc.).
//
//	g := e.Group("/app", authMiddleware)
//	reg := lazymodalecho.MountGroup(g)
func MountGroup(g *echo.Group, opts ...Option) *lazymodal.Registry {
	reg, path := newRegistry(opts)
	g.GET(path+"*", handler(reg, path))
	return reg
}

func newRegistry(opts []Option) (*lazymodal.Registry, string) {
	o := &options{path: "/_lm/"}
	for _, opt := range opts {
		opt(o)
	}
	path := "/" + strings.Trim(o.path, "/") + "/"

	regOpts := []lazymodal.Option{lazymodal.WithBase(o.base + strings.TrimSuffix(path, "/"))}
	regOpts = append(regOpts, o.opts...)
	return lazymodal.NewRegistry(regOpts...), path
}

func handler(reg *lazymodal.Registry, path string) echo.HandlerFunc {
	h := reg.Handler()
	prefix := strings.TrimSuffix(path, "/")
	return func(c echo.Context) error {
		req := c.Request()
		r := req.Clone(req.Context())
		// group prefixes sit in front of the mount path
		if i := strings.Index(r.URL.Path, prefix+"/"); i >= 0 {
			r.URL.Path = r.URL.Path[i+len(prefix):]
			r.URL.RawPath = ""
		}
		h.ServeHTTP(c.Response(), r)
		return nil
	}
}

// Render writes a templ component to the Echo response.
//
//	func handler(c echo.Context) error {
//	    return lazymodalecho.Render(c, page())
//	}
func Render(c echo.Context, component templ.Component) error {
	c.Response().Header().Set("Content-Type", "text/html; charset=utf-8")
	return component.Render(c.Request().Context(), c.Response())
}
