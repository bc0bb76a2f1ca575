package bytehuff

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyAlphabet is returned when non-empty input is encoded against
	// a Table that has no symbols at all.
	ErrEmptyAlphabet = errors.New("bytehuff: empty alphabet")

	// ErrUnknownSymbol is returned when the input contains a byte that the
	// Table has no codeword for.
	ErrUnknownSymbol = errors.New("bytehuff: symbol not in code table")

	// ErrUnknownCodeword is returned when decoding reaches a bit string
	// that is not a prefix of any codeword.  This means the stream is
	// corrupt, or it was encoded with a different Table.
	ErrUnknownCodeword = errors.New("bytehuff: unknown codeword")

	// ErrTruncatedStream is returned when the data ends in the middle of a
	// codeword, or is too short to hold its own terminator.
	ErrTruncatedStream = errors.New("bytehuff: truncated stream")

	// ErrMarkerCollision is returned when a real codeword is identical to a
	// terminator run the stream could end with.
	ErrMarkerCollision = errors.New("bytehuff: codeword collides with end-of-stream marker")

	// ErrCodeTooLong is returned when the weights would produce a codeword
	// longer than MaxCodeSize bits.
	ErrCodeTooLong = errors.New("bytehuff: codeword too long")

	// ErrMalformedHeader is returned by Unmarshal for headers that do not
	// describe a usable code.
	ErrMalformedHeader = errors.New("bytehuff: malformed header")

	// ErrDimensions is returned when grid dimensions do not match the
	// length of the data.
	ErrDimensions = errors.New("bytehuff: dimensions do not match data")
)

// StreamError records where in an encoded stream decoding failed.
type StreamError struct {
	// Err is one of ErrUnknownCodeword or ErrTruncatedStream.
	Err error

	// Offset is the bit offset, from the start of the stream, of the first
	// bit of the offending codeword.
	Offset int64

	// Pending holds the bits accumulated when the failure was detected.
	Pending Code
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("%v at bit %d (pending %s)", e.Err, e.Offset, e.Pending)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}
