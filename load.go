package lazymodal

import (
	"context"
	"errors"
	"sync"
)

// Report summarises a finished load. Failed resources do not fail the
// load; they are listed here instead.
type Report struct {
	Failed []*ResourceError
}

// OK reports whether every resource loaded.
func (r Report) OK() bool {
	return len(r.Failed) == 0
}

// Err joins the failures, or returns nil.
func (r Report) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failed))
	for i, f := range r.Failed {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Load is the handle for one activation cycle of a modal. Every caller
// during the cycle receives the same *Load.
type Load struct {
	done chan struct{}

	mu     sync.Mutex
	report Report
}

func newLoad() *Load {
	return &Load{done: make(chan struct{})}
}

// Done is closed when every resource has settled.
func (l *Load) Done() <-chan struct{} {
	return l.done
}

// Wait blocks until the load settles or ctx is done. The error is only
// ever ctx's.
func (l *Load) Wait(ctx context.Context) (Report, error) {
	select {
	case <-l.done:
		return l.Report(), nil
	case <-ctx.Done():
		return Report{}, ctx.Err()
	}
}

// Report returns the failures recorded so far.
func (l *Load) Report() Report {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Report{Failed: append([]*ResourceError(nil), l.report.Failed...)}
}

func (l *Load) fail(err *ResourceError) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.report.Failed = append(l.report.Failed, err)
}
