package fetch

import "sync"

// BodyState tags the three states a response Body slot may occupy. The
// producer moves it Empty → Receiving → Done (DESIGN NOTES); ForceEmpty is
// the one transition that runs backward, resetting any state to Empty.
type BodyState int

const (
	BodyEmpty BodyState = iota
	BodyReceiving
	BodyDone
)

func (s BodyState) String() string {
	switch s {
	case BodyEmpty:
		return "empty"
	case BodyReceiving:
		return "receiving"
	case BodyDone:
		return "done"
	default:
		return "unknown"
	}
}

// TerminationReason records why a body stream ended early. The zero value
// means no early termination occurred.
type TerminationReason int

const (
	TerminationNone TerminationReason = iota
	TerminationFatal
)

// Body is the mutex+condvar-guarded 3-state slot described in §5 and the
// DESIGN NOTES: exactly one producer goroutine (spawned by
// http_network_fetch) writes to it, transitioning Empty → Receiving →
// Done; any number of observers may call WaitUntilDone to block until the
// body settles.
type Body struct {
	mu   sync.Mutex
	cond *sync.Cond

	state             BodyState
	bytes             []byte
	terminationReason TerminationReason
	forcedEmpty       bool
}

// NewBody returns a Body slot in the Empty state.
func NewBody() *Body {
	b := &Body{state: BodyEmpty}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// StartReceiving transitions Empty → Receiving. Called by the producer
// goroutine once the network connection is established and bytes are
// about to start arriving.
func (b *Body) StartReceiving() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = BodyReceiving
	b.cond.Broadcast()
}

// Finish transitions Receiving → Done, publishing the final byte slice.
// Called exactly once by the producer goroutine.
func (b *Body) Finish(data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bytes = data
	b.state = BodyDone
	b.cond.Broadcast()
}

// Terminate marks the body as fatally terminated and transitions directly
// to Done, publishing whatever partial bytes were read. Observers can
// distinguish a clean finish from a termination via TerminationReason.
func (b *Body) Terminate(partial []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bytes = partial
	b.terminationReason = TerminationFatal
	b.state = BodyDone
	b.cond.Broadcast()
}

// ForceEmpty forces the body to the Empty state regardless of its current
// state, used by main_fetch step 5 to null out the body for null-body
// statuses and HEAD/CONNECT responses (§4.1), and by ToFiltered for the
// hidden body of opaque responses. WaitUntilDone returns at once for a body
// that has been forced empty.
func (b *Body) ForceEmpty() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = BodyEmpty
	b.bytes = nil
	b.forcedEmpty = true
	b.cond.Broadcast()
}

// State returns the current body state without blocking.
func (b *Body) State() BodyState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// TerminationReason returns the reason the body stream ended early, or
// TerminationNone if it has not terminated (or finished cleanly).
func (b *Body) TerminationReason() TerminationReason {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.terminationReason
}

// WaitUntilDone blocks the calling goroutine until the body reaches Done
// or has been forced empty, then returns the published bytes (nil for a
// forced-empty body). Safe to call from multiple observers concurrently.
func (b *Body) WaitUntilDone() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	for b.state != BodyDone && !b.forcedEmpty {
		b.cond.Wait()
	}
	return b.bytes
}

// Bytes returns the currently published bytes without waiting; it may
// return nil or a partial slice if the body has not reached Done.
func (b *Body) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bytes
}
