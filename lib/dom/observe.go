package dom

import "context"

// Observation is a once-only visibility watch created by Observe.
type Observation struct {
	doc     *Document
	el      *Element
	fn      func()
	stopped bool
}

// Observe calls fn the first time el is visible, then stops watching. If
// el is already visible, fn runs before Observe returns. The watch also
// stops when ctx is done.
func (d *Document) Observe(ctx context.Context, el *Element, fn func()) *Observation {
	o := &Observation{doc: d, el: el, fn: fn}
	d.mu.Lock()
	if d.visible[el] {
		o.stopped = true
		d.mu.Unlock()
		fn()
		return o
	}
	d.watchers[el] = append(d.watchers[el], o)
	d.mu.Unlock()

	context.AfterFunc(ctx, o.Stop)
	return o
}

// Stop ends the watch. It is safe to call more than once.
func (o *Observation) Stop() {
	d := o.doc
	d.mu.Lock()
	defer d.mu.Unlock()
	o.stopLocked()
}

func (o *Observation) stopLocked() {
	if o.stopped {
		return
	}
	o.stopped = true
	ws := o.doc.watchers[o.el]
	for i, w := range ws {
		if w == o {
			ws = append(ws[:i:i], ws[i+1:]...)
			break
		}
	}
	if len(ws) == 0 {
		delete(o.doc.watchers, o.el)
	} else {
		o.doc.watchers[o.el] = ws
	}
}

// Stopped reports whether the watch has fired or been stopped.
func (o *Observation) Stopped() bool {
	o.doc.mu.Lock()
	defer o.doc.mu.Unlock()
	return o.stopped
}

// SetVisible records whether el intersects the viewport. Becoming visible
// fires and ends every watch on el.
func (d *Document) SetVisible(el *Element, visible bool) {
	d.mu.Lock()
	d.visible[el] = visible
	if !visible {
		d.mu.Unlock()
		return
	}
	ws := append([]*Observation(nil), d.watchers[el]...)
	for _, o := range ws {
		o.stopLocked()
	}
	d.mu.Unlock()
	for _, o := range ws {
		o.fn()
	}
}

// Watchers returns the number of active watches on el.
func (d *Document) Watchers(el *Element) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.watchers[el])
}
