// adapter.go — native producer helper that feeds a Registry from an
// io.Reader, honoring backpressure by polling IsQueueFull.
package streams

import (
	"context"
	"io"
	"time"
)

// chunkSize is the maximum size of a single push; larger reads are split so
// that one slow consumer never forces a single oversized buffer into the
// queue.
const chunkSize = HighWaterMark

// pollInterval is how long the adapter waits between IsQueueFull checks
// while backpressured.
const pollInterval = time.Millisecond

// Pump copies r into id, one chunkSize piece at a time, waiting out
// backpressure between pushes. It closes id on a clean EOF, or errors id on
// any other read error. Pump returns when r is exhausted, id is deleted out
// from under it, or ctx is cancelled (in which case id is errored with
// ctx.Err()).
func Pump(ctx context.Context, r *Registry, id ID, src io.Reader) {
	buf := make([]byte, chunkSize)
	for {
		select {
		case <-ctx.Done():
			r.Error(id, ctx.Err())
			return
		default:
		}

		if !r.Exists(id) {
			return
		}
		for r.IsQueueFull(id) {
			select {
			case <-ctx.Done():
				r.Error(id, ctx.Err())
				return
			case <-time.After(pollInterval):
			}
			if !r.Exists(id) {
				return
			}
		}

		n, err := src.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			r.Push(id, chunk)
		}
		if err != nil {
			if err == io.EOF {
				r.Close(id)
			} else {
				r.Error(id, err)
			}
			return
		}
	}
}

// Drain reads id to completion and returns the concatenated bytes. Used by
// the host side to materialize a guest-produced stream into a single byte
// buffer (e.g. for Body.ArrayBuffer()/Text() on a streamed body).
func Drain(ctx context.Context, r *Registry, id ID) ([]byte, error) {
	var out []byte
	for {
		select {
		case res := <-r.Pull(id):
			if res.Done {
				return out, res.Err
			}
			out = append(out, res.Value...)
		case <-ctx.Done():
			return out, ctx.Err()
		}
	}
}
