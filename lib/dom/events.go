package dom

import "context"

// Event types dispatched by the document or by hosts.
const (
	EventClick      = "click"
	EventFocus      = "focus"
	EventMouseEnter = "mouseenter"
	EventLoad       = "load"
	EventError      = "error"
	EventToggle     = "toggle"
)

// Event is delivered to listeners on a single element. Events do not
// bubble, so Target is always the element the listener was added to.
type Event struct {
	Type   string
	Target *Element

	// Source is the invoker of a toggle event.
	Source *Element

	// Err carries the Host failure of an error event.
	Err error

	prevented bool
}

// PreventDefault marks the event's default action as cancelled.
func (e *Event) PreventDefault() {
	e.prevented = true
}

// DefaultPrevented reports whether PreventDefault was called.
func (e *Event) DefaultPrevented() bool {
	return e.prevented
}

type listener struct {
	ctx context.Context
	fn  func(*Event)
}

// On registers fn for events of type typ. The listener stops receiving
// events as soon as ctx is done, so one cancel revokes every listener
// registered with it.
func (el *Element) On(ctx context.Context, typ string, fn func(*Event)) {
	l := &listener{ctx: ctx, fn: fn}
	d := el.doc
	d.mu.Lock()
	el.listeners[typ] = append(el.listeners[typ], l)
	d.mu.Unlock()

	context.AfterFunc(ctx, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		ls := el.listeners[typ]
		for i, x := range ls {
			if x == l {
				el.listeners[typ] = append(ls[:i:i], ls[i+1:]...)
				break
			}
		}
	})
}

// ListenerCount returns the number of live listeners registered for typ.
func (el *Element) ListenerCount(typ string) int {
	el.doc.mu.Lock()
	defer el.doc.mu.Unlock()
	n := 0
	for _, l := range el.listeners[typ] {
		if l.ctx.Err() == nil {
			n++
		}
	}
	return n
}

// Dispatch delivers a new event of type typ to el's listeners on the
// calling goroutine and returns it.
func (d *Document) Dispatch(el *Element, typ string) *Event {
	ev := &Event{Type: typ, Target: el}
	d.dispatch(el, ev)
	return ev
}

func (d *Document) dispatch(el *Element, ev *Event) {
	d.mu.Lock()
	ls := append([]*listener(nil), el.listeners[ev.Type]...)
	d.mu.Unlock()
	for _, l := range ls {
		if l.ctx.Err() != nil {
			continue
		}
		l.fn(ev)
	}
}

func (d *Document) loadResource(el *Element) {
	err := d.host.LoadResource(context.Background(), el)
	ev := &Event{Type: EventLoad, Target: el}
	if err != nil {
		ev.Type = EventError
		ev.Err = err
	}
	d.dispatch(el, ev)
}
