// Package dom is a small headless document model built on golang.org/x/net/html.
//
// It provides just enough of a browser document for lazy-modal to run
// outside a browser: stable element identity, CSS selector queries,
// fragment insertion, non-bubbling events with context-scoped listeners,
// a once-only visibility observer, popover toggling, adopted style sheets
// and shadow roots.
//
// Script and stylesheet elements follow browser insertion rules. Scripts
// present at parse time or inserted as raw markup (InsertHTML) are inert.
// Script and link elements connected through DOM methods (AppendChild,
// ReplaceChild, AppendTemplate) are handed to the document's Host, which
// executes inline scripts and loads external resources. A load or error
// event is dispatched on the element once the Host returns.
package dom

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Errors returned by document operations.
var (
	ErrNotPopover  = errors.New("dom: element is not a popover")
	ErrNotTemplate = errors.New("dom: element is not a template")
	ErrNotChild    = errors.New("dom: node is not a child of this element")
	ErrNoParent    = errors.New("dom: element has no parent")
)

// Root is the node an element's queries and adopted style sheets are
// scoped to: a Document or a ShadowRoot.
type Root interface {
	QueryAll(selector string) ([]*Element, error)
	AdoptStyleSheets(sheets ...*StyleSheet)
	StyleSheets() []*StyleSheet
	Document() *Document
}

// Option configures a Document.
type Option func(*Document)

// WithHost sets the Host that executes scripts and loads resources.
func WithHost(h Host) Option {
	return func(d *Document) {
		d.host = h
	}
}

// Document is a parsed HTML document. All methods are safe for
// concurrent use.
type Document struct {
	mu       sync.Mutex
	node     *html.Node
	head     *html.Node
	body     *html.Node
	host     Host
	elems    map[*html.Node]*Element
	shadows  map[*html.Node]*ShadowRoot
	started  map[*html.Node]bool
	sheets   []*StyleSheet
	visible  map[*Element]bool
	watchers map[*Element][]*Observation
}

// Parse reads a complete HTML document.
func Parse(r io.Reader, opts ...Option) (*Document, error) {
	n, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	d := &Document{
		node:     n,
		host:     NopHost{},
		elems:    make(map[*html.Node]*Element),
		shadows:  make(map[*html.Node]*ShadowRoot),
		started:  make(map[*html.Node]bool),
		visible:  make(map[*Element]bool),
		watchers: make(map[*Element][]*Observation),
	}
	for _, opt := range opts {
		opt(d)
	}
	walk(n, func(c *html.Node) {
		switch c.DataAtom {
		case atom.Head:
			if d.head == nil {
				d.head = c
			}
		case atom.Body:
			if d.body == nil {
				d.body = c
			}
		case atom.Script, atom.Link:
			d.started[c] = true
		}
	})
	return d, nil
}

// ParseString parses a complete HTML document from a string.
func ParseString(s string, opts ...Option) (*Document, error) {
	return Parse(strings.NewReader(s), opts...)
}

// New returns an empty document with a head and a body.
func New(opts ...Option) *Document {
	d, err := ParseString("<!DOCTYPE html><html><head></head><body></body></html>", opts...)
	if err != nil {
		panic("dom: parse empty document: " + err.Error())
	}
	return d
}

// Document returns d. It lets *Document satisfy Root.
func (d *Document) Document() *Document {
	return d
}

// Head returns the document's head element.
func (d *Document) Head() *Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.wrapLocked(d.head)
}

// Body returns the document's body element.
func (d *Document) Body() *Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.wrapLocked(d.body)
}

// QueryAll returns every element in the document matching selector, in
// document order. It does not descend into shadow roots.
func (d *Document) QueryAll(selector string) ([]*Element, error) {
	return d.queryAll(d.node, selector, nil)
}

// Query returns the first element matching selector, or nil.
func (d *Document) Query(selector string) (*Element, error) {
	els, err := d.QueryAll(selector)
	if err != nil || len(els) == 0 {
		return nil, err
	}
	return els[0], nil
}

// CreateElement returns a new, disconnected element.
func (d *Document) CreateElement(tag string) *Element {
	tag = strings.ToLower(tag)
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.wrapLocked(n)
}

// AdoptStyleSheets appends sheets to the document's adopted style sheets.
// Sheets already adopted are not added twice.
func (d *Document) AdoptStyleSheets(sheets ...*StyleSheet) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sheets = adopt(d.sheets, sheets)
}

// StyleSheets returns a copy of the adopted style sheets.
func (d *Document) StyleSheets() []*StyleSheet {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*StyleSheet(nil), d.sheets...)
}

// Render writes the document as HTML.
func (d *Document) Render(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return html.Render(w, d.node)
}

// String renders the document.
func (d *Document) String() string {
	var buf bytes.Buffer
	_ = d.Render(&buf)
	return buf.String()
}

func (d *Document) queryAll(n *html.Node, selector string, exclude *html.Node) ([]*Element, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []*Element
	for _, m := range sel.MatchAll(n) {
		if m == exclude {
			continue
		}
		out = append(out, d.wrapLocked(m))
	}
	return out, nil
}

// wrapLocked returns the stable wrapper for n.
func (d *Document) wrapLocked(n *html.Node) *Element {
	if n == nil {
		return nil
	}
	if el, ok := d.elems[n]; ok {
		return el
	}
	el := &Element{doc: d, node: n, listeners: make(map[string][]*listener)}
	d.elems[n] = el
	return el
}

func (d *Document) connectedLocked(n *html.Node) bool {
	for n != nil {
		if n == d.node {
			return true
		}
		if n.Parent == nil {
			sr, ok := d.shadows[n]
			if !ok {
				return false
			}
			n = sr.host.node
			continue
		}
		n = n.Parent
	}
	return false
}

// task is a script run or resource load produced by connecting nodes.
type task struct {
	el     *Element
	load   bool
	source string
}

// connectLocked collects the work for every not-yet-started script or
// stylesheet link in n's subtree, marking them started. Template contents
// stay inert.
func (d *Document) connectLocked(n *html.Node, tasks []task) []task {
	if n.Type == html.ElementNode && !d.started[n] {
		switch {
		case n.DataAtom == atom.Script:
			d.started[n] = true
			el := d.wrapLocked(n)
			if src, ok := attr(n, "src"); ok && src != "" {
				tasks = append(tasks, task{el: el, load: true})
			} else {
				tasks = append(tasks, task{el: el, source: textOf(n)})
			}
		case n.DataAtom == atom.Link && isStylesheetLink(n):
			d.started[n] = true
			tasks = append(tasks, task{el: d.wrapLocked(n), load: true})
		}
	}
	if n.DataAtom == atom.Template {
		return tasks
	}
	if sr, ok := d.shadowOfLocked(n); ok {
		tasks = d.connectLocked(sr.node, tasks)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		tasks = d.connectLocked(c, tasks)
	}
	return tasks
}

func (d *Document) shadowOfLocked(host *html.Node) (*ShadowRoot, bool) {
	el, ok := d.elems[host]
	if !ok || el.shadow == nil {
		return nil, false
	}
	return el.shadow, true
}

// markInertLocked flags every script in n's subtree as started so it
// never runs, matching raw markup insertion in browsers. Stylesheet links
// still load.
func (d *Document) markInertLocked(n *html.Node) {
	walk(n, func(c *html.Node) {
		if c.DataAtom == atom.Script {
			d.started[c] = true
		}
	})
}

func (d *Document) run(tasks []task) {
	for _, t := range tasks {
		if t.load {
			go d.loadResource(t.el)
			continue
		}
		d.host.RunScript(t.el, t.source)
	}
}

func adopt(have, add []*StyleSheet) []*StyleSheet {
outer:
	for _, s := range add {
		if s == nil {
			continue
		}
		for _, h := range have {
			if h == s {
				continue outer
			}
		}
		have = append(have, s)
	}
	return have
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	})
	return sb.String()
}

func isStylesheetLink(n *html.Node) bool {
	rel, _ := attr(n, "rel")
	href, _ := attr(n, "href")
	return href != "" && strings.EqualFold(strings.TrimSpace(rel), "stylesheet")
}

func cloneNode(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		c.AppendChild(cloneNode(ch))
	}
	return c
}
