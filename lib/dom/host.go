package dom

import "context"

// Host is the environment behind a Document: it executes scripts and
// loads external resources. Implementations must be safe for concurrent
// use; LoadResource runs on its own goroutine.
type Host interface {
	// LoadResource loads the target of a connected <script src> or
	// <link rel="stylesheet" href>. A nil error dispatches a load event on
	// el, anything else an error event.
	LoadResource(ctx context.Context, el *Element) error

	// RunScript executes a connected inline script.
	RunScript(el *Element, source string)
}

// NopHost loads every resource successfully and runs nothing.
type NopHost struct{}

func (NopHost) LoadResource(context.Context, *Element) error { return nil }

func (NopHost) RunScript(*Element, string) {}
