package lazymodal

import (
	"context"

	slogcontext "github.com/veqryn/slog-context"

	"github.com/pthm/lazymodal/lib/dom"
)

// AddStyle attaches a stylesheet link for path to the modal's mount and
// waits for it to load or fail.
func (m *Modal) AddStyle(ctx context.Context, path string) error {
	return m.addResource(ctx, KindStyle, path, "link", "href", map[string]string{"rel": "stylesheet"})
}

// AddScript attaches a module script for path to the modal's mount and
// waits for it to load or fail.
func (m *Modal) AddScript(ctx context.Context, path string) error {
	return m.addResource(ctx, KindScript, path, "script", "src", map[string]string{"type": "module"})
}

func (m *Modal) addResource(ctx context.Context, kind Kind, path, tag, urlAttr string, attrs map[string]string) error {
	addr := m.reg.resolver.Resolve(path)
	logger := slogcontext.FromCtx(ctx).With("kind", kind.String(), "path", path)

	if m.shared && !m.reg.claims.Claim(kind, addr) {
		logger.Debug("lazymodal: resource already in shared head")
		return nil
	}

	el := m.el.Document().CreateElement(tag)
	for k, v := range attrs {
		el.SetAttr(k, v)
	}
	el.SetAttr("class", m.class)
	el.SetAttr(urlAttr, addr)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	settled := make(chan error, 1)
	el.On(ctx, dom.EventLoad, func(*dom.Event) {
		select {
		case settled <- nil:
		default:
		}
	})
	el.On(ctx, dom.EventError, func(ev *dom.Event) {
		err := ev.Err
		if err == nil {
			err = ErrFetchFailed
		}
		select {
		case settled <- err:
		default:
		}
	})

	m.mount.AppendChild(el)
	if !el.IsConnected() {
		// a disconnected mount never loads anything
		return nil
	}

	select {
	case err := <-settled:
		if err == nil {
			return nil
		}
		logger.Warn("lazymodal: failed to load resource", "addr", addr, "error", err)
		return &ResourceError{Kind: kind, Path: path, Address: addr, Err: err}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AddContent inserts the markup at path at the end of the modal and
// re-creates every script it contains so the host executes them. An empty
// path does nothing.
func (m *Modal) AddContent(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	addr := m.reg.resolver.Resolve(path)
	markup, err := m.reg.cache.Text(ctx, KindMarkup, addr)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	inserted, insertErr := m.el.InsertHTML(dom.BeforeEnd, markup)
	if insertErr != nil {
		slogcontext.FromCtx(ctx).Warn("lazymodal: content not inserted", "path", path, "error", insertErr)
		return &ResourceError{Kind: KindMarkup, Path: path, Address: addr, Err: insertErr}
	}
	m.executeScripts(ctx, inserted)

	if err != nil {
		return &ResourceError{Kind: KindMarkup, Path: path, Address: addr, Err: err}
	}
	return nil
}

// executeScripts replaces each script under nodes with a fresh copy.
// Scripts parsed from markup are inert; the copies are not.
func (m *Modal) executeScripts(ctx context.Context, nodes []*dom.Element) {
	doc := m.el.Document()
	var scripts []*dom.Element
	for _, n := range nodes {
		if n.TagName() == "script" {
			scripts = append(scripts, n)
			continue
		}
		found, _ := n.QueryAll("script")
		scripts = append(scripts, found...)
	}

	for _, old := range scripts {
		fresh := doc.CreateElement("script")
		for _, a := range old.Attributes() {
			fresh.SetAttr(a.Key, a.Val)
		}
		fresh.SetText(old.Text())
		parent := old.Parent()
		if parent == nil {
			continue
		}
		if err := parent.ReplaceChild(fresh, old); err != nil {
			slogcontext.FromCtx(ctx).Warn("lazymodal: script not re-executed", "error", err)
		}
	}
}
