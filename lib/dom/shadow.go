package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ShadowRoot is an encapsulated subtree attached to a host element.
// Queries on the document do not see into it.
type ShadowRoot struct {
	doc    *Document
	host   *Element
	node   *html.Node
	sheets []*StyleSheet
}

// AttachShadow returns the element's shadow root, creating it on first use.
func (el *Element) AttachShadow() *ShadowRoot {
	d := el.doc
	d.mu.Lock()
	defer d.mu.Unlock()
	if el.shadow != nil {
		return el.shadow
	}
	sr := &ShadowRoot{doc: d, host: el, node: &html.Node{Type: html.DocumentNode}}
	el.shadow = sr
	d.shadows[sr.node] = sr
	return sr
}

// Document returns the owning document.
func (sr *ShadowRoot) Document() *Document {
	return sr.doc
}

// Host returns the element the shadow root is attached to.
func (sr *ShadowRoot) Host() *Element {
	return sr.host
}

// QueryAll returns elements inside the shadow root matching selector.
func (sr *ShadowRoot) QueryAll(selector string) ([]*Element, error) {
	return sr.doc.queryAll(sr.node, selector, nil)
}

// AdoptStyleSheets appends sheets to the shadow root's adopted sheets.
func (sr *ShadowRoot) AdoptStyleSheets(sheets ...*StyleSheet) {
	sr.doc.mu.Lock()
	defer sr.doc.mu.Unlock()
	sr.sheets = adopt(sr.sheets, sheets)
}

// StyleSheets returns a copy of the shadow root's adopted sheets.
func (sr *ShadowRoot) StyleSheets() []*StyleSheet {
	sr.doc.mu.Lock()
	defer sr.doc.mu.Unlock()
	return append([]*StyleSheet(nil), sr.sheets...)
}

// AppendChild appends child to the shadow root.
func (sr *ShadowRoot) AppendChild(child *Element) {
	d := sr.doc
	d.mu.Lock()
	if child.node.Parent != nil {
		child.node.Parent.RemoveChild(child.node)
	}
	sr.node.AppendChild(child.node)
	var tasks []task
	if d.connectedLocked(sr.node) {
		tasks = d.connectLocked(child.node, nil)
	}
	d.mu.Unlock()
	d.run(tasks)
}

// InsertHTML parses markup and appends it to the shadow root. Scripts in
// the markup are inert.
func (sr *ShadowRoot) InsertHTML(markup string) ([]*Element, error) {
	d := sr.doc
	d.mu.Lock()
	ctxNode := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctxNode)
	if err != nil {
		d.mu.Unlock()
		return nil, err
	}
	var out []*Element
	var tasks []task
	connected := d.connectedLocked(sr.node)
	for _, n := range nodes {
		d.markInertLocked(n)
		sr.node.AppendChild(n)
		if n.Type == html.ElementNode {
			out = append(out, d.wrapLocked(n))
		}
		if connected {
			tasks = d.connectLocked(n, tasks)
		}
	}
	d.mu.Unlock()
	d.run(tasks)
	return out, nil
}
