package recon

import "sync"

// Latest tracks the freshest Result a consumer has seen. Replies can
// reach a display path out of order once they leave the service
// channel; Latest rejects the stale ones so an old reconstruction can
// never overwrite a newer one. The zero value is ready to use.
type Latest struct {
	mu   sync.Mutex
	res  Result
	seen bool
}

// Observe reports whether r is at least as fresh as every result seen
// so far and, if so, records it as the one to display.
func (l *Latest) Observe(r Result) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seen && r.Seq < l.res.Seq {
		return false
	}
	l.res = r
	l.seen = true
	return true
}

// Current returns the freshest observed result. The second return is
// false until the first Observe.
func (l *Latest) Current() (Result, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.res, l.seen
}

// Reset forgets everything observed so far, for reuse across image
// loads.
func (l *Latest) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.res = Result{}
	l.seen = false
}
