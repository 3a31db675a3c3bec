package storage

import (
	"errors"
	"io"
	"iter"
)

// ErrObjectConsumed is yielded when Chunks is ranged over a second time.
var ErrObjectConsumed = errors.New("object stream already consumed")

// Object is an opened stored object. Its body can be read once.
type Object struct {
	Body        io.ReadCloser
	ContentType string

	consumed bool
	closed   bool
}

// Chunks yields the body in ChunkSize pieces and closes it when done.
// Only the final chunk may be shorter than ChunkSize.
func (o *Object) Chunks() iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		if o.consumed {
			yield(nil, ErrObjectConsumed)
			return
		}
		o.consumed = true
		defer o.Close()

		buf := make([]byte, ChunkSize)
		for {
			n, err := io.ReadFull(o.Body, buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				if !yield(chunk, nil) {
					return
				}
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
		}
	}
}

func (o *Object) Close() error {
	if o.closed {
		return nil
	}
	o.closed = true
	return o.Body.Close()
}
