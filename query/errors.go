package query

import (
	"errors"
	"fmt"
)

var (
	// ErrNilFetcher is returned by NewClient when no Fetcher is provided.
	ErrNilFetcher = errors.New("query: fetcher is nil")

	// ErrInvalidKey indicates the query key could not be canonicalized.
	ErrInvalidKey = errors.New("query: key is invalid")

	// ErrTransport matches every *TransportError.
	ErrTransport = errors.New("query: transport failed")

	// ErrShape matches every *ShapeError.
	ErrShape = errors.New("query: shape failed")

	// ErrClosed is returned by Handle.Wait once the handle is closed.
	ErrClosed = errors.New("query: handle is closed")
)

// TransportError reports a Fetcher failure for one document of a request.
type TransportError struct {
	// Index is the document position within the request. Always 0 for a
	// single-document request.
	Index int
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("query: transport failed for document %d: %v", e.Index, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is reports whether target is ErrTransport.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// ShapeError reports a Shaper failure for one document of a request.
type ShapeError struct {
	Index int
	Err   error
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("query: shape failed for document %d: %v", e.Index, e.Err)
}

func (e *ShapeError) Unwrap() error { return e.Err }

// Is reports whether target is ErrShape.
func (e *ShapeError) Is(target error) bool { return target == ErrShape }
