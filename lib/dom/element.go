package dom

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Position selects where InsertHTML places parsed markup, mirroring
// insertAdjacentHTML.
type Position string

const (
	// BeforeBegin inserts before the element, as a previous sibling.
	BeforeBegin Position = "beforebegin"

	// AfterBegin inserts at the start of the element's children.
	AfterBegin Position = "afterbegin"

	// BeforeEnd appends after the element's last child.
	BeforeEnd Position = "beforeend"

	// AfterEnd inserts after the element, as a next sibling.
	AfterEnd Position = "afterend"
)

// Element is a stable handle on an element node. The same node always
// yields the same *Element.
type Element struct {
	doc       *Document
	node      *html.Node
	listeners map[string][]*listener
	shadow    *ShadowRoot

	busy          bool
	popoverOpen   bool
	popoverSource *Element
}

// Document returns the owning document.
func (el *Element) Document() *Document {
	return el.doc
}

// TagName returns the lower-case tag name.
func (el *Element) TagName() string {
	return el.node.Data
}

// ID returns the id attribute.
func (el *Element) ID() string {
	id, _ := el.Attr("id")
	return id
}

// Attr returns the named attribute and whether it is present.
func (el *Element) Attr(name string) (string, bool) {
	el.doc.mu.Lock()
	defer el.doc.mu.Unlock()
	return attr(el.node, name)
}

// HasAttr reports whether the named attribute is present.
func (el *Element) HasAttr(name string) bool {
	_, ok := el.Attr(name)
	return ok
}

// SetAttr sets an attribute, replacing any previous value.
func (el *Element) SetAttr(name, value string) {
	el.doc.mu.Lock()
	defer el.doc.mu.Unlock()
	el.setAttrLocked(name, value)
}

func (el *Element) setAttrLocked(name, value string) {
	for i, a := range el.node.Attr {
		if a.Namespace == "" && a.Key == name {
			el.node.Attr[i].Val = value
			return
		}
	}
	el.node.Attr = append(el.node.Attr, html.Attribute{Key: name, Val: value})
}

// RemoveAttr removes an attribute if present.
func (el *Element) RemoveAttr(name string) {
	el.doc.mu.Lock()
	defer el.doc.mu.Unlock()
	el.removeAttrLocked(name)
}

func (el *Element) removeAttrLocked(name string) {
	attrs := el.node.Attr[:0]
	for _, a := range el.node.Attr {
		if a.Namespace == "" && a.Key == name {
			continue
		}
		attrs = append(attrs, a)
	}
	el.node.Attr = attrs
}

// Attributes returns a copy of the element's attributes in source order.
func (el *Element) Attributes() []html.Attribute {
	el.doc.mu.Lock()
	defer el.doc.mu.Unlock()
	return append([]html.Attribute(nil), el.node.Attr...)
}

// HasClass reports whether class is in the element's class list.
func (el *Element) HasClass(class string) bool {
	v, _ := el.Attr("class")
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

// Text returns the concatenated text of the element's subtree.
func (el *Element) Text() string {
	el.doc.mu.Lock()
	defer el.doc.mu.Unlock()
	return textOf(el.node)
}

// SetText replaces the element's children with a single text node.
func (el *Element) SetText(text string) {
	el.doc.mu.Lock()
	defer el.doc.mu.Unlock()
	for c := el.node.FirstChild; c != nil; {
		next := c.NextSibling
		el.node.RemoveChild(c)
		c = next
	}
	el.node.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// Parent returns the parent element, or nil when the parent is the
// document, a shadow root, or absent.
func (el *Element) Parent() *Element {
	el.doc.mu.Lock()
	defer el.doc.mu.Unlock()
	p := el.node.Parent
	if p == nil || p.Type != html.ElementNode {
		return nil
	}
	return el.doc.wrapLocked(p)
}

// Children returns the element children in order.
func (el *Element) Children() []*Element {
	el.doc.mu.Lock()
	defer el.doc.mu.Unlock()
	var out []*Element
	for c := el.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, el.doc.wrapLocked(c))
		}
	}
	return out
}

// IsConnected reports whether the element is in the document, directly or
// through connected shadow roots.
func (el *Element) IsConnected() bool {
	el.doc.mu.Lock()
	defer el.doc.mu.Unlock()
	return el.doc.connectedLocked(el.node)
}

// Root returns the shadow root containing the element, or the document.
// Disconnected elements report the document.
func (el *Element) Root() Root {
	el.doc.mu.Lock()
	defer el.doc.mu.Unlock()
	n := el.node
	for n.Parent != nil {
		n = n.Parent
	}
	if sr, ok := el.doc.shadows[n]; ok {
		return sr
	}
	return el.doc
}

// QueryAll returns descendants matching selector, excluding el itself.
func (el *Element) QueryAll(selector string) ([]*Element, error) {
	return el.doc.queryAll(el.node, selector, el.node)
}

// AppendChild appends child, moving it if it already has a parent.
// Scripts and stylesheet links that become connected are started.
func (el *Element) AppendChild(child *Element) {
	d := el.doc
	d.mu.Lock()
	if child.node.Parent != nil {
		child.node.Parent.RemoveChild(child.node)
	}
	el.node.AppendChild(child.node)
	var tasks []task
	if d.connectedLocked(el.node) {
		tasks = d.connectLocked(child.node, nil)
	}
	d.mu.Unlock()
	d.run(tasks)
}

// ReplaceChild replaces old, a child of el, with replacement.
func (el *Element) ReplaceChild(replacement, old *Element) error {
	d := el.doc
	d.mu.Lock()
	if old.node.Parent != el.node {
		d.mu.Unlock()
		return ErrNotChild
	}
	if replacement.node.Parent != nil {
		replacement.node.Parent.RemoveChild(replacement.node)
	}
	el.node.InsertBefore(replacement.node, old.node)
	el.node.RemoveChild(old.node)
	var tasks []task
	if d.connectedLocked(el.node) {
		tasks = d.connectLocked(replacement.node, nil)
	}
	d.mu.Unlock()
	d.run(tasks)
	return nil
}

// Remove detaches the element from its parent.
func (el *Element) Remove() {
	el.doc.mu.Lock()
	defer el.doc.mu.Unlock()
	if p := el.node.Parent; p != nil {
		p.RemoveChild(el.node)
	}
}

// InsertHTML parses markup and inserts the resulting nodes at pos,
// returning the inserted top-level elements. Scripts in the markup are
// inert, as with insertAdjacentHTML.
func (el *Element) InsertHTML(pos Position, markup string) ([]*Element, error) {
	d := el.doc
	d.mu.Lock()

	ctxNode := el.node
	if pos == BeforeBegin || pos == AfterEnd {
		ctxNode = el.node.Parent
		if ctxNode == nil || ctxNode.Type != html.ElementNode {
			d.mu.Unlock()
			return nil, ErrNoParent
		}
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctxNode)
	if err != nil {
		d.mu.Unlock()
		return nil, err
	}

	var out []*Element
	for i, n := range nodes {
		d.markInertLocked(n)
		switch pos {
		case BeforeBegin:
			el.node.Parent.InsertBefore(n, el.node)
		case AfterBegin:
			// keep parsed order: insert each node before the original first child
			if i == 0 {
				el.node.InsertBefore(n, el.node.FirstChild)
			} else {
				el.node.InsertBefore(n, nodes[i-1].NextSibling)
			}
		case AfterEnd:
			anchor := el.node.NextSibling
			if i > 0 {
				anchor = nodes[i-1].NextSibling
			}
			el.node.Parent.InsertBefore(n, anchor)
		default:
			el.node.AppendChild(n)
		}
		if n.Type == html.ElementNode {
			out = append(out, d.wrapLocked(n))
		}
	}
	var tasks []task
	if d.connectedLocked(el.node) {
		for _, n := range nodes {
			tasks = d.connectLocked(n, tasks)
		}
	}
	d.mu.Unlock()
	d.run(tasks)
	return out, nil
}

// AppendTemplate appends a deep clone of a template element's content.
// Cloned scripts are not inert and run if el is connected.
func (el *Element) AppendTemplate(tpl *Element) error {
	d := el.doc
	d.mu.Lock()
	if tpl.node.DataAtom != atom.Template {
		d.mu.Unlock()
		return ErrNotTemplate
	}
	var clones []*html.Node
	for c := tpl.node.FirstChild; c != nil; c = c.NextSibling {
		clones = append(clones, cloneNode(c))
	}
	connected := d.connectedLocked(el.node)
	var tasks []task
	for _, c := range clones {
		el.node.AppendChild(c)
		if connected {
			tasks = d.connectLocked(c, tasks)
		}
	}
	d.mu.Unlock()
	d.run(tasks)
	return nil
}

// Clone returns a disconnected deep copy of the element.
func (el *Element) Clone() *Element {
	d := el.doc
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.wrapLocked(cloneNode(el.node))
}

// OuterHTML renders the element including its own tag.
func (el *Element) OuterHTML() string {
	el.doc.mu.Lock()
	defer el.doc.mu.Unlock()
	var buf bytes.Buffer
	_ = html.Render(&buf, el.node)
	return buf.String()
}

// InnerHTML renders the element's children.
func (el *Element) InnerHTML() string {
	el.doc.mu.Lock()
	defer el.doc.mu.Unlock()
	var buf bytes.Buffer
	for c := el.node.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&buf, c)
	}
	return buf.String()
}

// TryBusy marks the element busy (aria-busy="true") unless it already is.
// It reports whether the caller acquired the flag.
func (el *Element) TryBusy() bool {
	el.doc.mu.Lock()
	defer el.doc.mu.Unlock()
	if el.busy {
		return false
	}
	el.busy = true
	el.setAttrLocked("aria-busy", "true")
	return true
}

// SetBusy sets or clears the busy flag.
func (el *Element) SetBusy(busy bool) {
	el.doc.mu.Lock()
	defer el.doc.mu.Unlock()
	el.busy = busy
	if busy {
		el.setAttrLocked("aria-busy", "true")
		return
	}
	el.removeAttrLocked("aria-busy")
}

// Busy reports the busy flag.
func (el *Element) Busy() bool {
	el.doc.mu.Lock()
	defer el.doc.mu.Unlock()
	return el.busy
}

// TogglePopover flips the popover open state, recording source as the
// invoker, and dispatches a toggle event. The element must carry the
// popover attribute.
func (el *Element) TogglePopover(source *Element) error {
	d := el.doc
	d.mu.Lock()
	if _, ok := attr(el.node, "popover"); !ok {
		d.mu.Unlock()
		return ErrNotPopover
	}
	el.popoverOpen = !el.popoverOpen
	el.popoverSource = source
	d.mu.Unlock()
	d.dispatch(el, &Event{Type: EventToggle, Target: el, Source: source})
	return nil
}

// PopoverOpen reports whether the popover is showing.
func (el *Element) PopoverOpen() bool {
	el.doc.mu.Lock()
	defer el.doc.mu.Unlock()
	return el.popoverOpen
}

// PopoverSource returns the element that last toggled the popover.
func (el *Element) PopoverSource() *Element {
	el.doc.mu.Lock()
	defer el.doc.mu.Unlock()
	return el.popoverSource
}
