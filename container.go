package bytehuff

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/icza/bitio"
)

// Header field widths, in bits.
const (
	headerCountBits      = 9
	headerSymbolBits     = 8
	headerLengthBits     = 7
	headerWidthBits      = 4
	headerTerminatorBits = 7
	headerSizeBits       = 64
)

// Marshal encodes data into a self-describing container: a header holding
// the (symbol, codeword length) pairs, the marker width, the terminator
// length and the number of encoded bytes, followed by the stream.
//
// The payload is encoded with t.Canonical(), which the receiving side can
// rebuild from the header alone.  t's own codewords need not be canonical.
//
// Header layout, most significant bit first:
//
//     count        9 bits      number of symbols, 0 .. 256
//     count × {
//       symbol     8 bits
//       length     7 bits      1 .. 64
//     }
//     width        4 bits      marker width, 1 .. 15
//     terminator   7 bits      terminator length, 0 or 8×width .. 8×width+7
//     size         64 bits     len(data)
//     padding      0 .. 7 bits zero, to the next byte boundary
//
func Marshal(t *Table, data []byte) ([]byte, error) {
	c := t.Canonical()

	nbits, err := BitLen(c, data)
	if err != nil {
		return nil, err
	}
	var terminator int
	if len(data) != 0 {
		terminator = TerminatorLen(nbits, c.markerWidth)
	}

	var buf bytes.Buffer
	buf.Grow(headerLen(c.numSymbols) + int(nbits/8) + 2*c.markerWidth)

	hw := bitio.NewWriter(&buf)
	var werr error
	write := func(v uint64, n uint8) {
		if werr == nil {
			werr = hw.WriteBits(v, n)
		}
	}
	write(uint64(c.numSymbols), headerCountBits)
	for symbol, hc := range c.codes {
		if hc.Size != 0 {
			write(uint64(symbol), headerSymbolBits)
			write(uint64(hc.Size), headerLengthBits)
		}
	}
	write(uint64(c.markerWidth), headerWidthBits)
	write(uint64(terminator), headerTerminatorBits)
	write(uint64(len(data)), headerSizeBits)
	if werr != nil {
		return nil, werr
	}
	if err := hw.Close(); err != nil {
		return nil, err
	}

	if _, err := EncodeTo(&buf, c, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a container produced by Marshal.  It returns the
// decoded bytes and the Table rebuilt from the header.  A payload that
// decodes to a different number of bytes than the header declares, such as
// one with bytes appended, fails with ErrMalformedHeader.
func Unmarshal(buf []byte) ([]byte, *Table, error) {
	hr := bitio.NewReader(bytes.NewReader(buf))
	var rerr error
	read := func(n uint8) uint64 {
		if rerr != nil {
			return 0
		}
		var v uint64
		v, rerr = hr.ReadBits(n)
		return v
	}

	count := read(headerCountBits)
	if rerr == nil && count > NumSymbols {
		return nil, nil, fmt.Errorf("%w: %d symbols", ErrMalformedHeader, count)
	}

	var lengths [NumSymbols]byte
	for i := uint64(0); i < count && rerr == nil; i++ {
		symbol := read(headerSymbolBits)
		size := read(headerLengthBits)
		if rerr != nil {
			break
		}
		if size == 0 {
			return nil, nil, fmt.Errorf("%w: symbol %d has length 0", ErrMalformedHeader, symbol)
		}
		if lengths[symbol] != 0 {
			return nil, nil, fmt.Errorf("%w: symbol %d listed twice", ErrMalformedHeader, symbol)
		}
		lengths[symbol] = byte(size)
	}
	width := read(headerWidthBits)
	terminator := read(headerTerminatorBits)
	declared := read(headerSizeBits)
	if rerr != nil {
		return nil, nil, fmt.Errorf("%w: header: %v", ErrTruncatedStream, rerr)
	}

	t, err := NewTableFromLengths(&lengths)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrMalformedHeader, err)
	}
	if t.markerWidth != int(width) {
		t, err = t.WithMarkerWidth(int(width))
		if err != nil {
			if errors.Is(err, ErrMarkerCollision) {
				return nil, nil, err
			}
			return nil, nil, fmt.Errorf("%w: %w", ErrMalformedHeader, err)
		}
	}

	payload := buf[headerLen(int(count)):]
	data, err := Decode(t, Stream{Data: payload, Terminator: int(terminator)})
	if err != nil {
		return nil, nil, err
	}
	if uint64(len(data)) != declared {
		return nil, nil, fmt.Errorf("%w: header declares %d bytes, payload holds %d", ErrMalformedHeader, declared, len(data))
	}
	return data, t, nil
}

// headerLen returns the size in bytes of a header listing n symbols.
func headerLen(n int) int {
	nbits := headerCountBits + n*(headerSymbolBits+headerLengthBits) + headerWidthBits + headerTerminatorBits + headerSizeBits
	return (nbits + 7) / 8
}
