package lazymodal

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/pthm/lazymodal/lib/dom"
)

// TestFetcher is a programmable Fetcher for tests. It serves fixed bodies,
// counts calls per address and can hold every fetch until released.
// Unknown addresses fail with ErrBadStatus.
type TestFetcher struct {
	mu     sync.Mutex
	bodies map[string]string
	fail   map[string]error
	calls  map[string]int
	gate   chan struct{}
}

// NewTestFetcher returns a fetcher serving bodies, keyed by absolute
// address.
func NewTestFetcher(bodies map[string]string) *TestFetcher {
	f := &TestFetcher{
		bodies: make(map[string]string),
		fail:   make(map[string]error),
		calls:  make(map[string]int),
	}
	for k, v := range bodies {
		f.bodies[k] = v
	}
	return f
}

// Set serves body at addr.
func (f *TestFetcher) Set(addr, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bodies[addr] = body
}

// Fail makes fetches of addr return err.
func (f *TestFetcher) Fail(addr string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[addr] = err
}

// Hold blocks every subsequent fetch until Release is called.
func (f *TestFetcher) Hold() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gate == nil {
		f.gate = make(chan struct{})
	}
}

// Release lets held fetches complete.
func (f *TestFetcher) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gate != nil {
		close(f.gate)
		f.gate = nil
	}
}

// Fetch implements Fetcher.
func (f *TestFetcher) Fetch(ctx context.Context, addr string) (string, error) {
	f.mu.Lock()
	f.calls[addr]++
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.fail[addr]; ok {
		return "", err
	}
	body, ok := f.bodies[addr]
	if !ok {
		return "", fmt.Errorf("%w: %s: 404 Not Found", ErrBadStatus, addr)
	}
	return body, nil
}

// Calls returns how many times addr was fetched.
func (f *TestFetcher) Calls(addr string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[addr]
}

// Total returns the number of fetches across all addresses.
func (f *TestFetcher) Total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

// TestHost is a dom.Host that records what the document asked it to do.
// With a registry, resources load through the registry's cache; without
// one every resource loads instantly.
type TestHost struct {
	next dom.Host

	mu      sync.Mutex
	scripts []string
	loaded  []string
	fail    map[string]error
}

// NewTestHost returns a host, loading through reg when it is non-nil.
func NewTestHost(reg *Registry) *TestHost {
	h := &TestHost{fail: make(map[string]error)}
	if reg != nil {
		h.next = reg.Host(h.record)
	}
	return h
}

// Fail makes loading addr fail with err.
func (h *TestHost) Fail(addr string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fail[addr] = err
}

// LoadResource implements dom.Host.
func (h *TestHost) LoadResource(ctx context.Context, el *dom.Element) error {
	addr, ok := el.Attr("src")
	if !ok {
		addr, _ = el.Attr("href")
	}
	h.mu.Lock()
	err, failed := h.fail[addr]
	h.mu.Unlock()
	if failed {
		return err
	}

	if h.next != nil {
		if err := h.next.LoadResource(ctx, el); err != nil {
			return err
		}
	}
	h.mu.Lock()
	h.loaded = append(h.loaded, addr)
	h.mu.Unlock()
	return nil
}

// RunScript implements dom.Host.
func (h *TestHost) RunScript(el *dom.Element, source string) {
	h.record(el, source)
}

func (h *TestHost) record(_ *dom.Element, source string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.scripts = append(h.scripts, source)
}

// Scripts returns the source of every script executed, in order.
func (h *TestHost) Scripts() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.scripts...)
}

// Loaded returns the address of every resource that loaded.
func (h *TestHost) Loaded() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.loaded...)
}

// TestPage parses markup into a document backed by a TestHost.
//
//	doc, host, err := lazymodal.TestPage(`<button id="open">Open</button>
//	    <lazy-modal triggers="#open" inner-content="terms.html"></lazy-modal>`, reg)
func TestPage(markup string, reg *Registry) (*dom.Document, *TestHost, error) {
	host := NewTestHost(reg)
	doc, err := dom.ParseString(markup, dom.WithHost(host))
	if err != nil {
		return nil, nil, err
	}
	return doc, host, nil
}

// TestResult holds the response to a fragment request.
type TestResult struct {
	HTML       string
	StatusCode int
	Headers    http.Header
}

// TestFragment requests fragment name with vals through the registry's
// handler.
//
//	result, err := lazymodal.TestFragment(reg, "terms", lazymodal.Values{"lang": "en"})
//	if !result.HTMLContains("Terms") {
//	    t.Fatal("missing expected content")
//	}
func TestFragment(reg *Registry, name string, vals Values) (*TestResult, error) {
	path, err := reg.FragmentPath(name, vals)
	if err != nil {
		return nil, err
	}
	req := httptest.NewRequest(http.MethodGet, "/"+path, nil)
	rec := httptest.NewRecorder()
	reg.Handler().ServeHTTP(rec, req)
	return &TestResult{
		HTML:       rec.Body.String(),
		StatusCode: rec.Code,
		Headers:    rec.Header(),
	}, nil
}

// HTMLContains checks if the HTML contains a substring.
func (r *TestResult) HTMLContains(substr string) bool {
	return strings.Contains(r.HTML, substr)
}

// HTMLContainsAll checks if the HTML contains all the given substrings.
func (r *TestResult) HTMLContainsAll(substrs ...string) bool {
	for _, s := range substrs {
		if !strings.Contains(r.HTML, s) {
			return false
		}
	}
	return true
}

// IsOK checks if the status code is 200.
func (r *TestResult) IsOK() bool {
	return r.StatusCode == http.StatusOK
}

// HasStatus checks if the status code matches.
func (r *TestResult) HasStatus(code int) bool {
	return r.StatusCode == code
}

// HasHeader checks if a header is set with the given value.
func (r *TestResult) HasHeader(key, value string) bool {
	return r.Headers.Get(key) == value
}
