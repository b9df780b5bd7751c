package query

import (
	"context"
	"slices"
)

// Key identifies one logical query. Elements must be JSON-serializable.
// The first element, when it is a short string, names the query in logs,
// spans and metrics.
type Key []any

// Name returns the first key element if it is a string, else "".
func (k Key) Name() string {
	if len(k) == 0 {
		return ""
	}
	name, _ := k[0].(string)
	return name
}

// Document is one GraphQL document sent to a Fetcher.
type Document string

// Raw is an unshaped Fetcher response.
type Raw any

// Request is either a single document or an ordered batch of documents.
// The zero Request means "no request" and disables the query by default.
type Request struct {
	docs  []Document
	batch bool
}

// Single returns a request for exactly one document. Its result is the
// shaped response of that document.
func Single(doc Document) Request {
	return Request{docs: []Document{doc}}
}

// Batch returns a request for an ordered list of documents. Its result is a
// []any holding the shaped responses in document order.
func Batch(docs ...Document) Request {
	return Request{docs: slices.Clone(docs), batch: true}
}

// IsZero reports whether r is the zero "no request" value.
func (r Request) IsZero() bool {
	return len(r.docs) == 0 && !r.batch
}

// IsBatch reports whether r was built with Batch.
func (r Request) IsBatch() bool {
	return r.batch
}

// Documents returns a copy of the request's documents.
func (r Request) Documents() []Document {
	return slices.Clone(r.docs)
}

// Fetcher performs the network call for one document and returns the decoded
// top-level payload. Transport and server failures must be returned as errors.
type Fetcher interface {
	Fetch(ctx context.Context, doc Document) (Raw, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, doc Document) (Raw, error)

// Fetch calls f(ctx, doc).
func (f FetcherFunc) Fetch(ctx context.Context, doc Document) (Raw, error) {
	return f(ctx, doc)
}

// Shaper converts a raw response into the value handed to callers.
// Implementations must be pure and synchronous.
type Shaper interface {
	Shape(raw Raw) (any, error)
}

// ShaperFunc adapts a function to the Shaper interface.
type ShaperFunc func(raw Raw) (any, error)

// Shape calls f(raw).
func (f ShaperFunc) Shape(raw Raw) (any, error) {
	return f(raw)
}

// Identity returns raw responses unchanged.
var Identity Shaper = ShaperFunc(func(raw Raw) (any, error) {
	return any(raw), nil
})
