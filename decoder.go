package bytehuff

import (
	"bytes"
	"fmt"

	"github.com/icza/bitio"
)

// Decode recovers the byte sequence encoded in s, which must have been
// produced with the same codewords as t.
//
// Bits are consumed one at a time and accumulated until they form a
// codeword of t.  Decoding stops at the terminator, whose bits are never
// interpreted as symbols.  Failures are reported as *StreamError wrapping
// ErrUnknownCodeword or ErrTruncatedStream; no partial output is returned
// alongside an error.
//
func Decode(t *Table, s Stream) ([]byte, error) {
	if len(s.Data) == 0 {
		if s.Terminator != 0 {
			return nil, &StreamError{Err: ErrTruncatedStream}
		}
		return []byte{}, nil
	}

	payload := s.BitLen()
	if s.Terminator < 8 || payload < 0 {
		return nil, &StreamError{Err: ErrTruncatedStream}
	}
	lo := 8 * t.markerWidth
	if s.Terminator < lo || s.Terminator > lo+7 {
		return nil, &StreamError{
			Err:    fmt.Errorf("%w: terminator of %d bits with marker width %d", ErrUnknownCodeword, s.Terminator, t.markerWidth),
			Offset: payload,
		}
	}

	var capHint int64
	if t.minSize != 0 {
		capHint = payload / int64(t.minSize)
	}
	out := make([]byte, 0, capHint)

	br := bitio.NewReader(bytes.NewReader(s.Data))

	var hc Code
	var start int64
	for pos := int64(0); pos < payload; pos++ {
		bit, err := br.ReadBool()
		if err != nil {
			return nil, err
		}
		if bit {
			hc = hc.Append(1)
		} else {
			hc = hc.Append(0)
		}

		symbol, minSize, _ := t.Decode(hc)
		switch {
		case symbol >= 0:
			out = append(out, byte(symbol))
			hc = Code{}
			start = pos + 1
		case minSize == 0:
			return nil, &StreamError{Err: ErrUnknownCodeword, Offset: start, Pending: hc}
		}
	}
	if hc.Size != 0 {
		return nil, &StreamError{Err: ErrTruncatedStream, Offset: start, Pending: hc}
	}

	for n := s.Terminator; n > 0; {
		run := n
		if run > MaxCodeSize {
			run = MaxCodeSize
		}
		bits, err := br.ReadBits(uint8(run))
		if err != nil {
			return nil, err
		}
		if want := onesRun(run); bits != want.Bits {
			return nil, &StreamError{
				Err:     fmt.Errorf("%w: terminator is not all ones", ErrUnknownCodeword),
				Offset:  payload,
				Pending: MakeCode(byte(run), bits),
			}
		}
		n -= run
	}
	return out, nil
}

// DecodeGrid is like Decode, but reshapes the result into a grid of the
// given dimensions.
func DecodeGrid(t *Table, s Stream, dims Dimensions) ([][]byte, error) {
	flat, err := Decode(t, s)
	if err != nil {
		return nil, err
	}
	return dims.Reshape(flat)
}
