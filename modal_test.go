package lazymodal

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pthm/lazymodal/lib/dom"
)

const testBase = "https://example.test/lm"

func addr(path string) string {
	return testBase + "/" + path
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRegistry(bodies map[string]string, opts ...Option) (*Registry, *TestFetcher) {
	f := NewTestFetcher(bodies)
	base := []Option{
		WithBase(testBase),
		WithFetcher(f),
		WithLogger(quietLogger()),
		WithStaticStyles(":host { display: block; }"),
	}
	return NewRegistry(append(base, opts...)...), f
}

type fixture struct {
	reg     *Registry
	fetcher *TestFetcher
	doc     *dom.Document
	host    *TestHost
	modals  []*Modal
}

func setup(t *testing.T, markup string, bodies map[string]string, opts ...Option) *fixture {
	t.Helper()
	reg, f := newTestRegistry(bodies, opts...)
	doc, host, err := TestPage(markup, reg)
	if err != nil {
		t.Fatalf("TestPage() error = %v", err)
	}
	modals, err := reg.Scan(doc)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	return &fixture{reg: reg, fetcher: f, doc: doc, host: host, modals: modals}
}

func (fx *fixture) query(t *testing.T, selector string) *dom.Element {
	t.Helper()
	el, err := fx.doc.Query(selector)
	if err != nil || el == nil {
		t.Fatalf("Query(%q) = %v, %v", selector, el, err)
	}
	return el
}

func attach(t *testing.T, m *Modal) {
	t.Helper()
	if err := m.Attach(context.Background()); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	t.Cleanup(func() { _ = m.Detach() })
}

func wait(t *testing.T, l *Load) Report {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	report, err := l.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	return report
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

var fullBodies = map[string]string{
	addr("a.css"):     "p { color: red; }",
	addr("b.css"):     "p { margin: 0; }",
	addr("a.js"):      "initA()",
	addr("body.html"): `<p class="body">Body</p>`,
}

func TestNewModal(t *testing.T) {
	fx := setup(t, `<button id="open">Open</button><lazy-modal triggers="#open"></lazy-modal>`, nil)
	m := fx.modals[0]

	if !strings.HasPrefix(m.ID(), IDPrefix) {
		t.Errorf("ID() = %q, want %s prefix", m.ID(), IDPrefix)
	}
	if id, _ := m.Element().Attr("id"); id != m.ID() {
		t.Errorf("element id = %q, want %q", id, m.ID())
	}
	if !m.Element().HasAttr("popover") {
		t.Error("element should carry the popover attribute")
	}
	if got, want := m.ResourceClass(), "lazy-modal-resource-"+m.ID(); got != want {
		t.Errorf("ResourceClass() = %q, want %q", got, want)
	}
	if m.Mode() != ModeHover {
		t.Errorf("Mode() = %q, want hover", m.Mode())
	}
	if m.State() != StateIdle {
		t.Errorf("State() = %v, want idle", m.State())
	}
	if len(m.Triggers()) != 1 {
		t.Errorf("Triggers() = %d, want 1", len(m.Triggers()))
	}
	if m.Mount() != m.Element() {
		t.Error("private modal should mount on itself")
	}
}

func TestNewModalKeepsID(t *testing.T) {
	fx := setup(t, `<lazy-modal id="terms"></lazy-modal>`, nil)
	if got := fx.modals[0].ID(); got != "terms" {
		t.Errorf("ID() = %q, want terms", got)
	}
}

func TestNewIDsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := newID()
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestLoadIdempotent(t *testing.T) {
	fx := setup(t, `<button id="open">Open</button>
		<lazy-modal id="m" triggers="#open" inner-styles="a.css, b.css" inner-scripts="a.js" inner-content="body.html"></lazy-modal>`,
		fullBodies)
	m := fx.modals[0]
	attach(t, m)

	const callers = 10
	loads := make([]*Load, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			loads[i] = m.Load(context.Background())
		}()
	}
	wg.Wait()
	for i, l := range loads {
		if l != loads[0] {
			t.Fatalf("caller %d got a different handle", i)
		}
	}

	report := wait(t, loads[0])
	if !report.OK() {
		t.Fatalf("report = %v", report.Err())
	}
	if m.State() != StateLoaded {
		t.Errorf("State() = %v, want loaded", m.State())
	}
	if again := m.Load(context.Background()); again != loads[0] {
		t.Error("Load after completion should return the same handle")
	}

	// each path fetched once, and each resource attached once
	for path := range fullBodies {
		if got := fx.fetcher.Calls(path); got != 1 {
			t.Errorf("Fetch(%s) calls = %d, want 1", path, got)
		}
	}
	resources, _ := fx.doc.QueryAll("." + m.ResourceClass())
	if len(resources) != 3 {
		t.Errorf("resource elements = %d, want 3", len(resources))
	}
	bodies, _ := fx.doc.QueryAll("#m > p.body")
	if len(bodies) != 1 {
		t.Errorf("content inserted %d times, want 1", len(bodies))
	}
}

func TestResourceElements(t *testing.T) {
	fx := setup(t, `<lazy-modal id="m" load-on="load" inner-styles="a.css" inner-scripts="https://cdn.test/x.js"></lazy-modal>`,
		map[string]string{addr("a.css"): "p {}", "https://cdn.test/x.js": "x()"})
	m := fx.modals[0]
	attach(t, m)
	wait(t, m.Load(context.Background()))

	link := fx.query(t, "#m > link")
	if v, _ := link.Attr("rel"); v != "stylesheet" {
		t.Errorf("link rel = %q", v)
	}
	if v, _ := link.Attr("href"); v != addr("a.css") {
		t.Errorf("link href = %q", v)
	}
	if !link.HasClass(m.ResourceClass()) {
		t.Error("link lacks the resource class")
	}

	script := fx.query(t, "#m > script")
	if v, _ := script.Attr("type"); v != "module" {
		t.Errorf("script type = %q", v)
	}
	if v, _ := script.Attr("src"); v != "https://cdn.test/x.js" {
		t.Errorf("remote script src = %q, want it unchanged", v)
	}
}

func TestSharedHeadDedup(t *testing.T) {
	fx := setup(t, `<button id="a">A</button><button id="b">B</button>
		<lazy-modal id="ma" triggers="#a" in-head inner-styles="a.css" inner-scripts="a.js"></lazy-modal>
		<lazy-modal id="mb" triggers="#b" in-head inner-styles="a.css" inner-scripts="a.js"></lazy-modal>`,
		fullBodies)

	head := fx.doc.Head()
	for _, m := range fx.modals {
		if m.Mount() != head {
			t.Fatalf("%s should mount on the head", m.ID())
		}
		attach(t, m)
		if r := wait(t, m.Load(context.Background())); !r.OK() {
			t.Fatalf("%s report = %v", m.ID(), r.Err())
		}
	}

	links, _ := head.QueryAll(`link[href="` + addr("a.css") + `"]`)
	if len(links) != 1 {
		t.Errorf("head links = %d, want 1", len(links))
	}
	scripts, _ := head.QueryAll(`script[src="` + addr("a.js") + `"]`)
	if len(scripts) != 1 {
		t.Errorf("head scripts = %d, want 1", len(scripts))
	}
	if !fx.reg.Claims().Claimed(KindStyle, addr("a.css")) {
		t.Error("stylesheet should be claimed")
	}
	if got := fx.fetcher.Calls(addr("a.css")); got != 1 {
		t.Errorf("a.css fetched %d times, want 1", got)
	}
}

func TestPrivateMountNoDedup(t *testing.T) {
	fx := setup(t, `<button id="a">A</button><button id="b">B</button>
		<lazy-modal id="ma" triggers="#a" inner-styles="a.css"></lazy-modal>
		<lazy-modal id="mb" triggers="#b" inner-styles="a.css"></lazy-modal>`,
		fullBodies)

	for _, m := range fx.modals {
		attach(t, m)
		wait(t, m.Load(context.Background()))
	}

	for _, id := range []string{"ma", "mb"} {
		links, _ := fx.doc.QueryAll("#" + id + " > link")
		if len(links) != 1 {
			t.Errorf("%s links = %d, want its own copy", id, len(links))
		}
	}
	if got := fx.fetcher.Calls(addr("a.css")); got != 1 {
		t.Errorf("a.css fetched %d times, want one shared fetch", got)
	}
}

func TestActivationModes(t *testing.T) {
	type stimulus func(fx *fixture, trigger, modal *dom.Element)
	hover := func(fx *fixture, trigger, _ *dom.Element) { fx.doc.Dispatch(trigger, dom.EventMouseEnter) }
	focus := func(fx *fixture, trigger, _ *dom.Element) { fx.doc.Dispatch(trigger, dom.EventFocus) }
	triggerVisible := func(fx *fixture, trigger, _ *dom.Element) { fx.doc.SetVisible(trigger, true) }
	modalVisible := func(fx *fixture, _, modal *dom.Element) { fx.doc.SetVisible(modal, true) }
	nothing := func(*fixture, *dom.Element, *dom.Element) {}

	tests := []struct {
		name     string
		mode     string
		stimulus stimulus
		wantLoad bool
	}{
		{"hover on mouseenter", "hover", hover, true},
		{"hover on focus", "hover", focus, true},
		{"default is hover", "", focus, true},
		{"hover ignores visibility of trigger", "hover", triggerVisible, false},
		{"click ignores mouseenter", "click", hover, false},
		{"click ignores focus", "click", focus, false},
		{"visible on trigger visible", "visible", triggerVisible, true},
		{"visible ignores focus", "visible", focus, false},
		{"load at attach", "load", nothing, true},
		{"hover idle without stimulus", "hover", nothing, false},
		{"container visible in hover", "hover", modalVisible, true},
		{"container visible in click", "click", modalVisible, true},
		{"container visible in visible", "visible", modalVisible, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := setup(t, `<button id="open">Open</button>
				<lazy-modal id="m" triggers="#open" load-on="`+tt.mode+`" inner-content="body.html"></lazy-modal>`,
				fullBodies)
			m := fx.modals[0]
			attach(t, m)

			tt.stimulus(fx, fx.query(t, "#open"), m.Element())

			if tt.wantLoad {
				if m.State() == StateIdle {
					t.Fatal("State() = idle, want loading")
				}
				wait(t, m.Load(context.Background()))
				return
			}
			if m.State() != StateIdle {
				t.Errorf("State() = %v, want idle", m.State())
			}
			if fx.fetcher.Total() != 0 {
				t.Errorf("fetched %d times before activation", fx.fetcher.Total())
			}
		})
	}
}

func TestClickLoadsAndReveals(t *testing.T) {
	for _, mode := range []Mode{ModeHover, ModeClick, ModeVisible, ModeLoad} {
		t.Run(string(mode), func(t *testing.T) {
			fx := setup(t, `<button id="open">Open</button>
				<lazy-modal id="m" triggers="#open" load-on="`+string(mode)+`" inner-styles="a.css" inner-content="body.html"></lazy-modal>`,
				fullBodies)
			m := fx.modals[0]
			attach(t, m)
			trigger := fx.query(t, "#open")

			ev := fx.doc.Dispatch(trigger, dom.EventClick)

			if !ev.DefaultPrevented() {
				t.Error("click default should be prevented")
			}
			if m.State() != StateLoaded {
				t.Errorf("State() = %v, want loaded", m.State())
			}
			if !m.Element().PopoverOpen() {
				t.Fatal("popover should be open after click")
			}
			if m.Element().PopoverSource() != trigger {
				t.Error("popover source should be the clicked trigger")
			}
			if trigger.Busy() {
				t.Error("trigger busy flag should be cleared")
			}

			fx.doc.Dispatch(trigger, dom.EventClick)
			if m.Element().PopoverOpen() {
				t.Error("second click should close the popover")
			}
		})
	}
}

func TestClickIgnoredWhileBusy(t *testing.T) {
	fx := setup(t, `<button id="open">Open</button>
		<lazy-modal id="m" triggers="#open" load-on="click" inner-content="body.html"></lazy-modal>`,
		fullBodies)
	m := fx.modals[0]
	attach(t, m)
	trigger := fx.query(t, "#open")

	trigger.SetBusy(true)
	fx.doc.Dispatch(trigger, dom.EventClick)

	if m.State() != StateIdle {
		t.Errorf("State() = %v, busy trigger should not load", m.State())
	}
	if m.Element().PopoverOpen() {
		t.Error("busy trigger should not toggle")
	}
	if !trigger.Busy() {
		t.Error("busy flag owned by another click should be left alone")
	}
}

func TestClickWithoutPopoverIsLogged(t *testing.T) {
	var logs bytes.Buffer
	fx := setup(t, `<button id="open">Open</button><lazy-modal id="m" triggers="#open" load-on="click"></lazy-modal>`,
		nil, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	m := fx.modals[0]
	attach(t, m)
	trigger := fx.query(t, "#open")

	m.Element().RemoveAttr("popover")
	fx.doc.Dispatch(trigger, dom.EventClick)

	if !strings.Contains(logs.String(), "failed to handle click") {
		t.Errorf("toggle failure should be logged, got %q", logs.String())
	}
	if trigger.Busy() {
		t.Error("busy flag should be cleared after a failure")
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestClickCutShortByDetach(t *testing.T) {
	logs := &syncBuffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	fx := setup(t, `<button id="open">Open</button>
		<lazy-modal id="m" triggers="#open" load-on="click" inner-content="body.html"></lazy-modal>`,
		fullBodies, WithLogger(logger))
	m := fx.modals[0]
	trigger := fx.query(t, "#open")
	if err := m.Attach(context.Background()); err != nil {
		t.Fatal(err)
	}

	fx.fetcher.Hold()
	defer fx.fetcher.Release()
	clicked := make(chan struct{})
	go func() {
		defer close(clicked)
		fx.doc.Dispatch(trigger, dom.EventClick)
	}()
	waitFor(t, "click in progress", func() bool { return m.State() == StateLoading })

	if err := m.Detach(); err != nil {
		t.Fatal(err)
	}
	select {
	case <-clicked:
	case <-time.After(2 * time.Second):
		t.Fatal("click handler still waiting after Detach")
	}

	if trigger.Busy() {
		t.Error("busy flag should be cleared")
	}
	if m.Element().PopoverOpen() {
		t.Error("detached modal should not be revealed")
	}
	out := logs.String()
	if strings.Contains(out, "failed to handle click") {
		t.Errorf("detach logged as click failure: %q", out)
	}
	if !strings.Contains(out, "click abandoned") {
		t.Errorf("abandoned click should be logged at debug, got %q", out)
	}
}

func TestFetchFailureResilience(t *testing.T) {
	bodies := map[string]string{
		addr("a.css"): "p {}",
		addr("c.css"): "div {}",
	}
	fx := setup(t, `<lazy-modal id="m" load-on="load" inner-styles="a.css, b.css, c.css"></lazy-modal>`, bodies)
	m := fx.modals[0]
	attach(t, m)

	report := wait(t, m.Load(context.Background()))

	if m.State() != StateLoaded {
		t.Fatalf("State() = %v, a failed resource must not block the load", m.State())
	}
	if len(report.Failed) != 1 {
		t.Fatalf("Failed = %v, want one entry", report.Failed)
	}
	failed := report.Failed[0]
	if failed.Path != "b.css" || failed.Kind != KindStyle || failed.Address != addr("b.css") {
		t.Errorf("Failed[0] = %+v", failed)
	}
	if !IsFetchError(report.Err()) {
		t.Errorf("Err() = %v, want a fetch error", report.Err())
	}

	loaded := fx.host.Loaded()
	for _, want := range []string{addr("a.css"), addr("c.css")} {
		found := false
		for _, l := range loaded {
			found = found || l == want
		}
		if !found {
			t.Errorf("%s should have loaded, loaded = %v", want, loaded)
		}
	}
}

func TestContentFailureResilience(t *testing.T) {
	fx := setup(t, `<lazy-modal id="m" load-on="load" inner-styles="a.css" inner-content="missing.html"></lazy-modal>`, fullBodies)
	m := fx.modals[0]
	attach(t, m)

	report := wait(t, m.Load(context.Background()))
	if m.State() != StateLoaded {
		t.Fatalf("State() = %v, want loaded", m.State())
	}
	if len(report.Failed) != 1 || report.Failed[0].Kind != KindMarkup {
		t.Fatalf("Failed = %v, want the markup failure", report.Failed)
	}
	if !errors.Is(report.Failed[0], ErrBadStatus) {
		t.Errorf("Failed[0] = %v, want ErrBadStatus", report.Failed[0])
	}
}

func TestDetachMidLoad(t *testing.T) {
	fx := setup(t, `<button id="open">Open</button>
		<lazy-modal id="m" triggers="#open" inner-styles="a.css" inner-content="body.html"></lazy-modal>`,
		fullBodies)
	m := fx.modals[0]
	attach(t, m)
	trigger := fx.query(t, "#open")

	fx.fetcher.Hold()
	l := m.Load(context.Background())
	if m.State() != StateLoading {
		t.Fatalf("State() = %v, want loading", m.State())
	}

	if err := m.Detach(); err != nil {
		t.Fatalf("Detach() error = %v", err)
	}
	if m.State() != StateIdle {
		t.Errorf("State() after Detach = %v, want idle", m.State())
	}
	if m.Attached() {
		t.Error("Attached() should be false")
	}

	fx.fetcher.Release()
	wait(t, l)

	if m.State() != StateIdle {
		t.Errorf("detached load changed state to %v", m.State())
	}
	if fx.reg.Cache().Len() == 0 {
		t.Error("detached load should still fill the cache")
	}

	for _, typ := range []string{dom.EventClick, dom.EventMouseEnter, dom.EventFocus} {
		if n := trigger.ListenerCount(typ); n != 0 {
			t.Errorf("ListenerCount(%s) = %d after Detach, want 0", typ, n)
		}
	}
	if n := fx.doc.Watchers(m.Element()); n != 0 {
		t.Errorf("Watchers() = %d, want 0 after Detach", n)
	}

	fx.doc.Dispatch(trigger, dom.EventMouseEnter)
	if m.State() != StateIdle {
		t.Errorf("detached modal reacted to a trigger: %v", m.State())
	}
}

func TestNoTransitionsAfterDetach(t *testing.T) {
	modes := []Mode{ModeHover, ModeClick, ModeVisible}
	for _, mode := range modes {
		t.Run(string(mode), func(t *testing.T) {
			for i := 0; i < 50; i++ {
				fx := setup(t, `<button id="open">Open</button>
					<lazy-modal id="m" triggers="#open" load-on="`+string(mode)+`" inner-content="body.html"></lazy-modal>`,
					fullBodies)
				m := fx.modals[0]
				trigger := fx.query(t, "#open")

				if err := m.Attach(context.Background()); err != nil {
					t.Fatal(err)
				}
				if err := m.Detach(); err != nil {
					t.Fatal(err)
				}

				fx.doc.Dispatch(trigger, dom.EventMouseEnter)
				fx.doc.Dispatch(trigger, dom.EventFocus)
				fx.doc.Dispatch(trigger, dom.EventClick)
				fx.doc.SetVisible(trigger, true)
				fx.doc.SetVisible(m.Element(), true)

				if got := m.State(); got != StateIdle {
					t.Fatalf("run %d: detached modal moved to %v", i, got)
				}
				if trigger.Busy() {
					t.Fatalf("run %d: detached modal handled a click", i)
				}
			}
		})
	}
}

func TestReattachStartsFreshCycle(t *testing.T) {
	fx := setup(t, `<button id="open">Open</button>
		<lazy-modal id="m" triggers="#open" inner-styles="a.css" inner-content="body.html"></lazy-modal>`,
		fullBodies)
	m := fx.modals[0]

	if err := m.Attach(context.Background()); err != nil {
		t.Fatal(err)
	}
	first := m.Load(context.Background())
	wait(t, first)
	if err := m.Detach(); err != nil {
		t.Fatal(err)
	}

	attach(t, m)
	if m.State() != StateIdle {
		t.Fatalf("State() after reattach = %v, want idle", m.State())
	}
	second := m.Load(context.Background())
	if second == first {
		t.Fatal("reattach should start a new cycle")
	}
	wait(t, second)
	if got := fx.fetcher.Calls(addr("body.html")); got != 1 {
		t.Errorf("body.html fetched %d times, want cached", got)
	}
}

func TestAttachDetachErrors(t *testing.T) {
	fx := setup(t, `<lazy-modal id="m"></lazy-modal>`, nil)
	m := fx.modals[0]

	if err := m.Detach(); !errors.Is(err, ErrNotAttached) {
		t.Errorf("Detach() before Attach = %v, want ErrNotAttached", err)
	}
	attach(t, m)
	if err := m.Attach(context.Background()); !errors.Is(err, ErrAlreadyAttached) {
		t.Errorf("second Attach() = %v, want ErrAlreadyAttached", err)
	}
}

func TestMissingTriggers(t *testing.T) {
	tests := []struct {
		name     string
		triggers string
	}{
		{"absent", ""},
		{"no match", "#nope"},
		{"bad selector", "[["},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			fx := setup(t, `<button id="open">Open</button><lazy-modal id="m" triggers="`+tt.triggers+`"></lazy-modal>`,
				nil, WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
			m := fx.modals[0]

			if len(m.Triggers()) != 0 {
				t.Fatalf("Triggers() = %d, want 0", len(m.Triggers()))
			}
			attach(t, m)
			if !strings.Contains(logs.String(), ErrNoTriggers.Error()) {
				t.Errorf("missing triggers should warn, got %q", logs.String())
			}

			// the container fallback still works
			fx.doc.SetVisible(m.Element(), true)
			if m.State() == StateIdle {
				t.Error("visible container should load")
			}
		})
	}
}

func TestScriptReexecution(t *testing.T) {
	bodies := map[string]string{
		addr("body.html"): `<div class="wrap"><p>hi</p><script>nested()</script></div>` +
			`<script>top()</script><script src="` + addr("extra.js") + `"></script>`,
		addr("extra.js"): "extra()",
	}
	fx := setup(t, `<lazy-modal id="m" load-on="load" inner-content="body.html"></lazy-modal>`, bodies)
	m := fx.modals[0]
	attach(t, m)
	wait(t, m.Load(context.Background()))

	waitFor(t, "external script", func() bool {
		return len(fx.host.Scripts()) == 3
	})
	count := map[string]int{}
	for _, s := range fx.host.Scripts() {
		count[s]++
	}
	for _, want := range []string{"nested()", "top()", "extra()"} {
		if count[want] != 1 {
			t.Errorf("%s ran %d times, want 1", want, count[want])
		}
	}

	scripts, _ := fx.doc.QueryAll("#m script")
	if len(scripts) != 3 {
		t.Errorf("scripts in modal = %d, want 3 (each replaced, not duplicated)", len(scripts))
	}
	if v, _ := scripts[2].Attr("src"); v != addr("extra.js") {
		t.Errorf("replacement should keep attributes, src = %q", v)
	}
}

func TestInlineTemplate(t *testing.T) {
	fx := setup(t, `<button id="open">Open</button>
		<lazy-modal id="m" triggers="#open" inner-content="body.html"><template><p class="inline">Hello</p><script>tpl()</script></template></lazy-modal>`,
		fullBodies)
	m := fx.modals[0]
	attach(t, m)

	if got, _ := fx.doc.QueryAll("#m > p.inline"); len(got) != 0 {
		t.Fatal("template content should stay inert before activation")
	}
	wait(t, m.Load(context.Background()))

	children := m.Element().Children()
	if len(children) < 3 || children[1].TagName() != "p" || !children[1].HasClass("inline") {
		t.Fatalf("template clone should follow the template, children = %d", len(children))
	}
	if got, _ := fx.doc.QueryAll("#m > p.body"); len(got) != 1 {
		t.Error("content should be inserted after the template clone")
	}
	scripts := fx.host.Scripts()
	if len(scripts) != 1 || scripts[0] != "tpl()" {
		t.Errorf("Scripts() = %q, want the template script once", scripts)
	}
}

func TestTemplateOnlyWhenSoleChild(t *testing.T) {
	fx := setup(t, `<lazy-modal id="m"><p>static</p><template><p class="inline">x</p></template></lazy-modal>`, nil)
	m := fx.modals[0]
	attach(t, m)
	wait(t, m.Load(context.Background()))

	if got, _ := fx.doc.QueryAll("#m > p.inline"); len(got) != 0 {
		t.Error("a template that is not the sole child should be ignored")
	}
}

func TestCloseButton(t *testing.T) {
	const button = `<button class="lazy-modal-close">x</button>`
	fx := setup(t, `<lazy-modal id="m" close-button><p>first</p></lazy-modal>`, nil,
		WithStaticMarkup("close-button.html", button))
	m := fx.modals[0]

	for i := 0; i < 2; i++ {
		if err := m.Attach(context.Background()); err != nil {
			t.Fatal(err)
		}
		<-m.ChromeReady()
		if err := m.Detach(); err != nil {
			t.Fatal(err)
		}
	}

	buttons, _ := fx.doc.QueryAll("#m > .lazy-modal-close")
	if len(buttons) != 1 {
		t.Fatalf("close buttons = %d, want exactly one", len(buttons))
	}
	if first := m.Element().Children()[0]; !first.HasClass("lazy-modal-close") {
		t.Error("close button should be inserted first")
	}
	if fx.fetcher.Total() != 0 {
		t.Errorf("static chrome should not fetch, got %d", fx.fetcher.Total())
	}
	if len(fx.doc.StyleSheets()) == 0 {
		t.Error("static chrome stylesheets should be adopted")
	}
}

func TestChromeStylesShared(t *testing.T) {
	f := NewTestFetcher(map[string]string{
		addr("lazy-modal.css"): ":host { position: fixed; }",
		addr("aria-busy.css"):  `[aria-busy="true"] { cursor: progress; }`,
	})
	reg := NewRegistry(WithBase(testBase), WithFetcher(f), WithLogger(quietLogger()))
	doc, _, err := TestPage(`<lazy-modal id="a"></lazy-modal><lazy-modal id="b"></lazy-modal>`, reg)
	if err != nil {
		t.Fatal(err)
	}
	modals, _ := reg.Scan(doc)
	for _, m := range modals {
		attach(t, m)
		<-m.ChromeReady()
	}

	if got := len(doc.StyleSheets()); got != 2 {
		t.Errorf("adopted sheets = %d, want 2 shared sheets", got)
	}
	for _, path := range DefaultChrome.Styles {
		if got := f.Calls(addr(path)); got != 1 {
			t.Errorf("%s fetched %d times, want 1", path, got)
		}
	}
}

func TestShadowRootScope(t *testing.T) {
	reg, _ := newTestRegistry(fullBodies)
	doc, _, err := TestPage(`<button id="open">Outside</button><div id="host"></div>`, reg)
	if err != nil {
		t.Fatal(err)
	}
	hostEl, _ := doc.Query("#host")
	sr := hostEl.AttachShadow()
	if _, err := sr.InsertHTML(`<button id="open">Inside</button><lazy-modal id="m" triggers="#open"></lazy-modal>`); err != nil {
		t.Fatal(err)
	}

	modals, err := reg.Scan(sr)
	if err != nil || len(modals) != 1 {
		t.Fatalf("Scan(shadow) = %d, %v", len(modals), err)
	}
	m := modals[0]
	triggers := m.Triggers()
	if len(triggers) != 1 || triggers[0].Text() != "Inside" {
		t.Fatalf("triggers should resolve inside the shadow root")
	}

	attach(t, m)
	<-m.ChromeReady()
	if len(sr.StyleSheets()) == 0 {
		t.Error("chrome should be adopted onto the shadow root")
	}
	if len(doc.StyleSheets()) != 0 {
		t.Error("chrome should not leak onto the document")
	}
}
