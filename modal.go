package lazymodal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	slogcontext "github.com/veqryn/slog-context"
	"golang.org/x/sync/errgroup"

	"github.com/pthm/lazymodal/lib/dom"
)

// IDPrefix starts every generated modal id.
const IDPrefix = "lazy-modal-"

// Modal drives one <lazy-modal> element: it defers its resources until a
// trigger shows intent, then reveals the element as a popover.
type Modal struct {
	reg      *Registry
	el       *dom.Element
	root     dom.Root
	cfg      Config
	class    string
	triggers []*dom.Element
	trigErr  error
	mount    *dom.Element
	shared   bool
	template *dom.Element
	logger   *slog.Logger

	mu          sync.Mutex
	state       State
	load        *Load
	cancel      context.CancelFunc
	observers   []*dom.Observation
	closeButton bool
	chrome      chan struct{}
}

// New binds a modal to el. The element gains an id when it has none and
// the popover attribute. Triggers are resolved once, here, against the
// element's root.
func (reg *Registry) New(el *dom.Element) *Modal {
	if el.ID() == "" {
		el.SetAttr("id", newID())
	}
	el.SetAttr("popover", "")

	cfg := ParseConfig(el)
	m := &Modal{
		reg:    reg,
		el:     el,
		root:   el.Root(),
		cfg:    cfg,
		class:  "lazy-modal-resource-" + cfg.ID,
		mount:  el,
		logger: reg.logger.With("modal", cfg.ID),
	}

	if cfg.InHead {
		if head := m.root.Document().Head(); head != nil {
			m.mount = head
			m.shared = true
		}
	}

	if cfg.Triggers == "" {
		m.trigErr = ErrNoTriggers
	} else if triggers, err := m.root.QueryAll(cfg.Triggers); err != nil {
		m.trigErr = fmt.Errorf("%w: %v", ErrNoTriggers, err)
	} else if len(triggers) == 0 {
		m.trigErr = ErrNoTriggers
	} else {
		m.triggers = triggers
	}

	if children := el.Children(); len(children) == 1 && children[0].TagName() == "template" {
		m.template = children[0]
	}
	return m
}

// Scan binds a modal to every <lazy-modal> element under root, in
// document order.
func (reg *Registry) Scan(root dom.Root) ([]*Modal, error) {
	els, err := root.QueryAll("lazy-modal")
	if err != nil {
		return nil, err
	}
	modals := make([]*Modal, len(els))
	for i, el := range els {
		modals[i] = reg.New(el)
	}
	return modals, nil
}

// newID returns an id like lazy-modal-3f-a91-0c.
func newID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return IDPrefix + hex[0:2] + "-" + hex[2:5] + "-" + hex[5:7]
}

// ID returns the element id.
func (m *Modal) ID() string {
	return m.cfg.ID
}

// Element returns the modal's element.
func (m *Modal) Element() *dom.Element {
	return m.el
}

// Config returns the configuration read at construction.
func (m *Modal) Config() Config {
	return m.cfg
}

// Mode returns the activation mode.
func (m *Modal) Mode() Mode {
	return m.cfg.LoadOn
}

// Triggers returns the trigger elements resolved at construction.
func (m *Modal) Triggers() []*dom.Element {
	return append([]*dom.Element(nil), m.triggers...)
}

// Mount returns the element resources are attached to: the document head
// for in-head modals, otherwise the modal itself.
func (m *Modal) Mount() *dom.Element {
	return m.mount
}

// HasTemplate reports whether the modal has an inline template.
func (m *Modal) HasTemplate() bool {
	return m.template != nil
}

// ResourceClass is the class carried by every resource element the modal
// creates.
func (m *Modal) ResourceClass() string {
	return m.class
}

// State returns the current activation state.
func (m *Modal) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Attached reports whether the modal is attached.
func (m *Modal) Attached() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

// ChromeReady is closed once the chrome stylesheets and close button of
// the current attachment are in place. It is nil before the first Attach.
func (m *Modal) ChromeReady() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.chrome
}

// Attach wires the modal into its document: chrome setup, trigger
// listeners, the visibility fallback and, in ModeLoad, an immediate load.
// Everything it registers is revoked by Detach.
func (m *Modal) Attach(ctx context.Context) error {
	m.mu.Lock()
	if m.cancel != nil {
		m.mu.Unlock()
		return ErrAlreadyAttached
	}
	ctx, cancel := context.WithCancel(slogcontext.NewCtx(ctx, m.logger))
	m.cancel = cancel
	m.chrome = make(chan struct{})
	chrome := m.chrome
	m.mu.Unlock()

	go m.setupChrome(ctx, chrome)

	doc := m.el.Document()
	if m.trigErr != nil {
		m.logger.Warn("lazymodal: triggers unavailable", "triggers", m.cfg.Triggers, "error", m.trigErr)
	}
	var observers []*dom.Observation
	for _, t := range m.triggers {
		switch m.cfg.LoadOn {
		case ModeHover:
			t.On(ctx, dom.EventMouseEnter, func(*dom.Event) { m.activate(ctx) })
			t.On(ctx, dom.EventFocus, func(*dom.Event) { m.activate(ctx) })
		case ModeVisible:
			observers = append(observers, doc.Observe(ctx, t, func() { m.activate(ctx) }))
		}
		t.On(ctx, dom.EventClick, func(ev *dom.Event) { m.handleClick(ctx, ev) })
	}
	// load when the container itself becomes visible, whatever the mode
	observers = append(observers, doc.Observe(ctx, m.el, func() { m.activate(ctx) }))

	m.mu.Lock()
	m.observers = observers
	m.mu.Unlock()

	m.logger.Debug("lazymodal: attached", "mode", string(m.cfg.LoadOn), "triggers", len(m.triggers))
	if m.cfg.LoadOn == ModeLoad {
		m.activate(ctx)
	}
	return nil
}

// Detach revokes every listener and observer registered by Attach and
// returns the modal to StateIdle. No stimulus reaches the modal once Detach
// returns. An in-flight load keeps running and fills the cache but no
// longer changes the modal.
func (m *Modal) Detach() error {
	m.mu.Lock()
	if m.cancel == nil {
		m.mu.Unlock()
		return ErrNotAttached
	}
	// cancelled under mu so a listener mid-flight cannot start a new cycle
	m.cancel()
	observers := m.observers
	m.cancel = nil
	m.observers = nil
	m.load = nil
	m.state = StateIdle
	m.mu.Unlock()

	for _, o := range observers {
		o.Stop()
	}
	m.logger.Debug("lazymodal: detached")
	return nil
}

// Load starts the activation cycle, or joins the one in progress. Every
// caller during a cycle gets the same handle.
func (m *Modal) Load(ctx context.Context) *Load {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadLocked(ctx)
}

// activate is Load on behalf of the attachment whose context is ctx. It
// returns nil once that attachment has been detached.
func (m *Modal) activate(ctx context.Context) *Load {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ctx.Err() != nil {
		return nil
	}
	return m.loadLocked(ctx)
}

func (m *Modal) loadLocked(ctx context.Context) *Load {
	if m.load != nil {
		return m.load
	}
	l := newLoad()
	m.load = l
	m.state = StateLoading
	go m.run(slogcontext.NewCtx(context.WithoutCancel(ctx), m.logger), l)
	return l
}

func (m *Modal) run(ctx context.Context, l *Load) {
	logger := slogcontext.FromCtx(ctx)

	if m.template != nil {
		if err := m.el.AppendTemplate(m.template); err != nil {
			logger.Warn("lazymodal: inline template not appended", "error", err)
		}
	}

	var g errgroup.Group
	record := func(err error) {
		if err == nil {
			return
		}
		var re *ResourceError
		if !errors.As(err, &re) {
			re = &ResourceError{Err: err}
		}
		l.fail(re)
	}
	for _, path := range m.cfg.Styles {
		g.Go(func() error {
			record(m.AddStyle(ctx, path))
			return nil
		})
	}
	for _, path := range m.cfg.Scripts {
		g.Go(func() error {
			record(m.AddScript(ctx, path))
			return nil
		})
	}
	g.Go(func() error {
		record(m.AddContent(ctx, m.cfg.Content))
		return nil
	})
	_ = g.Wait()

	m.mu.Lock()
	if m.load == l {
		m.state = StateLoaded
	}
	m.mu.Unlock()
	close(l.done)

	logger.Debug("lazymodal: loaded", "failed", len(l.Report().Failed))
}

func (m *Modal) handleClick(ctx context.Context, ev *dom.Event) {
	ev.PreventDefault()
	trigger := ev.Target
	if !trigger.TryBusy() {
		return
	}
	defer trigger.SetBusy(false)

	logger := slogcontext.FromCtx(ctx)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("lazymodal: failed to handle click", "panic", r)
		}
	}()

	l := m.activate(ctx)
	if l == nil {
		return
	}
	if _, err := l.Wait(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("lazymodal: click abandoned", "error", err)
			return
		}
		logger.Error("lazymodal: failed to handle click", "error", err)
		return
	}
	if err := m.el.TogglePopover(trigger); err != nil {
		logger.Error("lazymodal: failed to handle click", "error", err)
	}
}

// setupChrome adopts the chrome stylesheets onto the modal's root and
// inserts the close button once per modal.
func (m *Modal) setupChrome(ctx context.Context, ready chan struct{}) {
	defer close(ready)
	logger := slogcontext.FromCtx(ctx)

	sheets, err := m.chromeSheets(ctx)
	if err != nil {
		return
	}
	m.root.AdoptStyleSheets(sheets...)

	if !m.cfg.CloseButton || m.reg.chrome.CloseButton == "" {
		return
	}
	m.mu.Lock()
	done := m.closeButton
	m.closeButton = true
	m.mu.Unlock()
	if done {
		return
	}

	markup, err := m.reg.cache.Text(ctx, KindMarkup, m.reg.resolver.Resolve(m.reg.chrome.CloseButton))
	if ctx.Err() != nil {
		m.mu.Lock()
		m.closeButton = false
		m.mu.Unlock()
		return
	}
	if err != nil || markup == "" {
		return
	}
	if _, err := m.el.InsertHTML(dom.AfterBegin, markup); err != nil {
		logger.Warn("lazymodal: close button not inserted", "error", err)
	}
}

// chromeSheets returns the chrome stylesheets: compiled from the static
// CSS when configured, otherwise fetched through the cache.
func (m *Modal) chromeSheets(ctx context.Context) ([]*dom.StyleSheet, error) {
	if len(m.reg.staticCSS) > 0 {
		sheets := make([]*dom.StyleSheet, 0, len(m.reg.staticCSS))
		for _, css := range m.reg.staticCSS {
			sheet := dom.NewStyleSheet()
			if err := sheet.Replace(css); err != nil {
				slogcontext.FromCtx(ctx).Warn("lazymodal: static stylesheet rejected", "error", err)
			}
			sheets = append(sheets, sheet)
		}
		return sheets, nil
	}

	sheets := make([]*dom.StyleSheet, 0, len(m.reg.chrome.Styles))
	for _, path := range m.reg.chrome.Styles {
		sheet, _ := m.reg.cache.StyleSheet(ctx, m.reg.resolver.Resolve(path))
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sheets = append(sheets, sheet)
	}
	return sheets, nil
}
