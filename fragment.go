package lazymodal

import (
	"context"
	"net/http"

	"github.com/a-h/templ"
)

// FragmentFunc renders a fragment from its decoded values.
type FragmentFunc func(ctx context.Context, vals Values) templ.Component

// Fragment is server-rendered modal content, served by Registry.Handler
// and addressed with Registry.FragmentPath.
//
// By default values are signed (visible in URLs but tamper-proof via
// HMAC). Call Sensitive to encrypt them instead.
type Fragment struct {
	name      string
	render    FragmentFunc
	sensitive bool
}

// Name returns the registered name.
func (f *Fragment) Name() string {
	return f.name
}

// Sensitive enables encryption of the fragment's values.
//
// Signed mode is debuggable: values are readable as base64 msgpack.
// Encrypted mode is opaque.
func (f *Fragment) Sensitive() *Fragment {
	f.sensitive = true
	return f
}

// IsSensitive reports whether values are encrypted.
func (f *Fragment) IsSensitive() bool {
	return f.sensitive
}

// Render writes a templ component to the HTTP response.
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//	    lazymodal.Render(w, r, page())
//	}
func Render(w http.ResponseWriter, r *http.Request, component templ.Component) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return component.Render(r.Context(), w)
}
