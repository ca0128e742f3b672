// body.go — the Body state machine (C3) shared by Request and Response:
// Unused -> Locked -> Consumed, one-shot except for a single permitted
// clone from Unused.
package webapi

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/dev-console/fetchbridge/internal/streams"
)

// BodyState is one of the three states a Body moves through.
type BodyState int

const (
	// BodyUnused has not been read, locked, or cloned yet.
	BodyUnused BodyState = iota
	// BodyLocked has an outstanding reader (body.getReader()).
	BodyLocked
	// BodyConsumed has been fully read by one of the consuming methods.
	BodyConsumed
)

// Body is the one-shot (except for a single pre-use clone) byte source
// behind a Request/Response. A Body is either streamed (bound to a
// streams.Registry row) or materialized (already in memory); exactly one of
// those is ever populated for a given Body.
type Body struct {
	mu       sync.Mutex
	state    BodyState
	bytes    []byte
	hasBytes bool
	registry *streams.Registry
	streamID streams.ID
	streamed bool
}

// NewBytesBody wraps an in-memory byte buffer.
func NewBytesBody(b []byte) *Body {
	return &Body{bytes: b, hasBytes: true}
}

// NewStreamBody wraps a streams.Registry row. The Body does not own the
// registry; the caller (internal/guest or internal/dispatch) is responsible
// for its lifecycle.
func NewStreamBody(r *streams.Registry, id streams.ID) *Body {
	return &Body{registry: r, streamID: id, streamed: true}
}

// NewEmptyBody returns a Body with a zero-length materialized buffer —
// used for GET/HEAD requests and bodyless responses, which still report
// bodyUsed == false and body == null at the Request/Response level (the
// null-ness is tracked by the caller; this Body is simply never attached).
func NewEmptyBody() *Body {
	return NewBytesBody(nil)
}

// State returns the current state.
func (b *Body) State() BodyState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Used reports bodyUsed: true once the body has been disturbed, i.e. is no
// longer Unused (locked or consumed) — matching the real Fetch spec's
// "disturbed" flag, which flips the instant a reader is taken, not only
// once the reader is drained.
func (b *Body) Used() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state != BodyUnused
}

// Streamed reports whether this Body is backed by a streams.Registry row
// rather than a materialized buffer.
func (b *Body) Streamed() bool {
	return b.streamed
}

// StreamID returns the backing stream id and true, if Streamed().
func (b *Body) StreamID() (streams.ID, bool) {
	return b.streamID, b.streamed
}

// Registry returns the streams.Registry backing this Body, if Streamed().
func (b *Body) Registry() *streams.Registry {
	return b.registry
}

// MaterializedBytes returns the already-in-memory bytes without any state
// transition, for building a lazy ReadableStream view over a non-streamed
// Body (the view only disturbs the Body once something actually reads from
// it, via Lock/beginConsume — merely handing out the view must not).
func (b *Body) MaterializedBytes() ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bytes, b.hasBytes
}

// Lock transitions Unused -> Locked, as body.getReader() does. Returns
// ErrBodyAlreadyRead from any non-Unused state.
func (b *Body) Lock() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != BodyUnused {
		return ErrBodyAlreadyRead
	}
	b.state = BodyLocked
	return nil
}

// Unlock returns Locked -> Unused, as reader.releaseLock() does. It is a
// no-op if the body was never locked via Lock (idempotent on Unused).
func (b *Body) Unlock() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == BodyLocked {
		b.state = BodyUnused
	}
}

// beginConsume transitions Unused -> Locked and returns nil, or returns
// ErrBodyAlreadyRead from any non-Unused state. Callers finish with
// finishConsume once the bytes are obtained.
func (b *Body) beginConsume() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != BodyUnused {
		return ErrBodyAlreadyRead
	}
	b.state = BodyLocked
	return nil
}

func (b *Body) finishConsume() {
	b.mu.Lock()
	b.state = BodyConsumed
	b.mu.Unlock()
}

// MarkConsumedFromLocked transitions Locked -> Consumed, for a consumer
// (a getReader() stream draining to completion, or a cancel()) that took
// the lock itself rather than going through Bytes/Text/JSON. A no-op from
// any other state.
func (b *Body) MarkConsumedFromLocked() {
	b.mu.Lock()
	if b.state == BodyLocked {
		b.state = BodyConsumed
	}
	b.mu.Unlock()
}

// Bytes materializes the body (draining its stream exactly once if
// streamed) and transitions it to Consumed. Calling Bytes twice, or after
// Lock, returns ErrBodyAlreadyRead.
func (b *Body) Bytes(ctx context.Context) ([]byte, error) {
	if err := b.beginConsume(); err != nil {
		return nil, err
	}
	defer b.finishConsume()

	if b.hasBytes {
		return b.bytes, nil
	}
	if b.streamed {
		data, err := streams.Drain(ctx, b.registry, b.streamID)
		if err != nil {
			return nil, err
		}
		b.bytes = data
		b.hasBytes = true
		return data, nil
	}
	return nil, nil
}

// Text is Bytes decoded as UTF-8.
func (b *Body) Text(ctx context.Context) (string, error) {
	data, err := b.Bytes(ctx)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// JSON parses Bytes as UTF-8 JSON into v.
func (b *Body) JSON(ctx context.Context, v any) error {
	data, err := b.Bytes(ctx)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// AsBlob materializes Bytes and wraps them in a Blob carrying contentType
// (from the owning Request/Response's Content-Type header).
func (b *Body) AsBlob(ctx context.Context, contentType string) (*Blob, error) {
	data, err := b.Bytes(ctx)
	if err != nil {
		return nil, err
	}
	return NewBlob([]BlobPart{{Bytes: data}}, contentType), nil
}

// AsFormData materializes Bytes and dispatches on contentType: urlencoded
// entries are URL-decoded directly; multipart entries are parsed by the
// caller-supplied multipart parser (internal/multipart), injected here as
// parseMultipart to avoid a dependency cycle.
func (b *Body) AsFormData(ctx context.Context, contentType string, parseMultipart func(data []byte, boundary string) (*FormData, error)) (*FormData, error) {
	data, err := b.Bytes(ctx)
	if err != nil {
		return nil, err
	}

	mediaType, params := splitContentType(contentType)
	switch mediaType {
	case "application/x-www-form-urlencoded":
		fd := NewFormData()
		for _, e := range NewURLSearchParams(string(data)).Entries() {
			fd.Append(e.Name, e.Value)
		}
		return fd, nil
	case "multipart/form-data":
		boundary := params["boundary"]
		return parseMultipart(data, boundary)
	default:
		return nil, &TypeErrorValue{Message: "formData: unsupported Content-Type " + contentType}
	}
}

// splitContentType splits "type/subtype; k=v; k2=v2" into the bare media
// type and a map of parameters, tolerating quoted values.
func splitContentType(contentType string) (string, map[string]string) {
	parts := strings.Split(contentType, ";")
	mediaType := strings.ToLower(strings.TrimSpace(parts[0]))
	params := map[string]string{}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(kv[0]))
		val := strings.Trim(strings.TrimSpace(kv[1]), `"`)
		params[key] = val
	}
	return mediaType, params
}

// Clone splits an Unused body into two independent Unused halves: a
// streamed body is teed at the registry level by the caller (internal/guest
// owns tee semantics for C2); a materialized body is simply byte-copied
// here. Clone fails with ErrBodyAlreadyRead from any non-Unused state.
func (b *Body) Clone(tee func(streams.ID) (streams.ID, streams.ID)) (*Body, *Body, error) {
	b.mu.Lock()
	if b.state != BodyUnused {
		b.mu.Unlock()
		return nil, nil, ErrBodyAlreadyRead
	}
	b.mu.Unlock()

	if b.streamed {
		a, c := tee(b.streamID)
		return NewStreamBody(b.registry, a), NewStreamBody(b.registry, c), nil
	}
	copyBytes := make([]byte, len(b.bytes))
	copy(copyBytes, b.bytes)
	return NewBytesBody(b.bytes), NewBytesBody(copyBytes), nil
}
