// Package listener provides the AsyncFetchListener contract consumed by
// Engine.FetchAsync's completion callback, plus a small channel-based
// reference implementation for embedders that want to fan fetch results
// into their own event loop rather than handling them inline.
package listener

import "fetchcore/internal/fetch"

// AsyncFetchListener receives the result of one asynchronous fetch.
// Implementations must not block for long inside OnFetchDone: it runs on
// the goroutine Engine.FetchAsync spawned for that fetch.
type AsyncFetchListener interface {
	OnFetchDone(result fetch.FetchAsyncResult)
}

// ChannelListener adapts a channel to AsyncFetchListener: every completed
// fetch is offered to Results without blocking. OnFetchDone drops a result
// at once when the channel has no free buffer slot and no receiver is
// waiting, so callers that expect bursts of concurrent fetches should
// construct one with NewChannelListener(n) sized to the expected burst. A
// zero-value ChannelListener has a nil Results channel and drops every
// result.
type ChannelListener struct {
	Results chan fetch.FetchAsyncResult
}

// NewChannelListener returns a ChannelListener whose Results channel has
// the given buffer size.
func NewChannelListener(buffer int) *ChannelListener {
	return &ChannelListener{Results: make(chan fetch.FetchAsyncResult, buffer)}
}

// OnFetchDone implements AsyncFetchListener by sending to Results,
// non-blocking: a full channel with no reader drops the result rather
// than leaking the fetch goroutine forever.
func (l *ChannelListener) OnFetchDone(result fetch.FetchAsyncResult) {
	select {
	case l.Results <- result:
	default:
	}
}

// AsFunc adapts l to the plain func(fetch.FetchAsyncResult) signature
// Engine.FetchAsync expects.
func (l *ChannelListener) AsFunc() func(fetch.FetchAsyncResult) {
	return l.OnFetchDone
}
