package lazymodal

import (
	"os"
	"strings"
)

// DefaultBase is the base address relative resource paths resolve against
// when a Registry is built without WithBase. It is read once at startup
// from LAZYMODAL_BASE_URL and otherwise points at the conventional mount of
// Registry.Handler.
var DefaultBase = defaultBase()

func defaultBase() string {
	if v := strings.TrimSpace(os.Getenv("LAZYMODAL_BASE_URL")); v != "" {
		return strings.TrimRight(v, "/")
	}
	return "/_lm"
}

// IsRemote reports whether path is already an absolute address that must
// not be joined onto the base.
func IsRemote(path string) bool {
	return strings.HasPrefix(path, "http://") ||
		strings.HasPrefix(path, "https://") ||
		strings.HasPrefix(path, "//")
}

// Resolver turns relative resource paths into absolute addresses.
type Resolver struct {
	base string
}

// NewResolver returns a resolver for base. Trailing slashes are dropped.
func NewResolver(base string) *Resolver {
	return &Resolver{base: strings.TrimRight(base, "/")}
}

// Base returns the resolver's base address.
func (r *Resolver) Base() string {
	return r.base
}

// Resolve returns path unchanged when it is remote, otherwise base/path.
func (r *Resolver) Resolve(path string) string {
	if IsRemote(path) {
		return path
	}
	return r.base + "/" + strings.TrimLeft(path, "/")
}
