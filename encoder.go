package bytehuff

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/chronos-tachyon/assert"
	"github.com/icza/bitio"
	"golang.org/x/sync/errgroup"
)

// Stream is the output of Encode: the packed codewords, followed by a
// terminator of one bits that brings the stream to a byte boundary.
//
// The stream carries no header.  Decoding it requires the same Table that
// encoded it; see Marshal for a self-describing alternative.
//
type Stream struct {
	// Data holds the packed bits, most significant bit first within each
	// byte.
	Data []byte

	// Terminator is the number of trailing one bits in Data that mark the
	// end of the stream.  It is 0 only for an empty stream.
	Terminator int
}

// BitLen returns the number of payload bits, excluding the terminator.
func (s Stream) BitLen() int64 {
	return int64(len(s.Data))*8 - int64(s.Terminator)
}

// TerminatorLen returns the length of the terminator that follows nbits
// payload bits, given a marker width: p + 8×width, where p is the padding
// needed to reach a byte boundary.
func TerminatorLen(nbits uint64, width int) int {
	p := (8 - nbits%8) % 8
	return int(p) + 8*width
}

// BitLen returns the number of payload bits data encodes to under t,
// excluding the terminator.
func BitLen(t *Table, data []byte) (uint64, error) {
	if err := checkSymbols(t, data); err != nil {
		return 0, err
	}
	var nbits uint64
	for _, b := range data {
		nbits += uint64(t.codes[b].Size)
	}
	return nbits, nil
}

// Encode encodes data with the codewords of t.
//
// Empty data encodes to an empty Stream.  Non-empty data fails with
// ErrEmptyAlphabet if t has no symbols, or with ErrUnknownSymbol if some
// byte of data has no codeword in t.
//
func Encode(t *Table, data []byte) (Stream, error) {
	var buf bytes.Buffer
	if len(data) != 0 {
		buf.Grow(len(data)*int(t.maxSize)/8 + 2*t.markerWidth)
	}
	terminator, err := EncodeTo(&buf, t, data)
	if err != nil {
		return Stream{}, err
	}
	return Stream{Data: buf.Bytes(), Terminator: terminator}, nil
}

// EncodeTo is like Encode, but writes the packed bytes to w and returns
// only the terminator length.  Nothing is written if data is invalid.
func EncodeTo(w io.Writer, t *Table, data []byte) (terminator int, err error) {
	if len(data) == 0 {
		return 0, nil
	}
	if err := checkSymbols(t, data); err != nil {
		return 0, err
	}

	bw := bitio.NewWriter(w)
	nbits, err := writeCodes(bw, t, data)
	if err != nil {
		return 0, err
	}
	terminator = TerminatorLen(nbits, t.markerWidth)
	if err := writeOnes(bw, terminator); err != nil {
		return 0, err
	}
	if err := bw.Close(); err != nil {
		return 0, err
	}
	return terminator, nil
}

// EncodeParallel is like Encode, but splits data into up to segments
// sub-ranges and encodes them concurrently.  The segment bit strings are
// spliced together at bit granularity, so the result is identical to
// Encode(t, data).
func EncodeParallel(ctx context.Context, t *Table, data []byte, segments int) (Stream, error) {
	assert.Assertf(segments >= 0, "segments %d < 0", segments)

	if segments <= 1 || len(data) < segments {
		return Encode(t, data)
	}
	if err := checkSymbols(t, data); err != nil {
		return Stream{}, err
	}

	type segment struct {
		buf   bytes.Buffer
		nbits uint64
	}

	parts := make([]segment, segments)
	chunk := (len(data) + segments - 1) / segments

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < segments; i++ {
		lo := i * chunk
		hi := lo + chunk
		if hi > len(data) {
			hi = len(data)
		}
		if lo >= hi {
			continue
		}
		part := &parts[i]
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			bw := bitio.NewWriter(&part.buf)
			nbits, err := writeCodes(bw, t, data[lo:hi])
			if err != nil {
				return err
			}
			part.nbits = nbits
			return bw.Close()
		})
	}
	if err := g.Wait(); err != nil {
		return Stream{}, err
	}

	var out bytes.Buffer
	bw := bitio.NewWriter(&out)
	var nbits uint64
	for i := range parts {
		if err := splice(bw, parts[i].buf.Bytes(), parts[i].nbits); err != nil {
			return Stream{}, err
		}
		nbits += parts[i].nbits
	}
	terminator := TerminatorLen(nbits, t.markerWidth)
	if err := writeOnes(bw, terminator); err != nil {
		return Stream{}, err
	}
	if err := bw.Close(); err != nil {
		return Stream{}, err
	}
	return Stream{Data: out.Bytes(), Terminator: terminator}, nil
}

func checkSymbols(t *Table, data []byte) error {
	if len(data) != 0 && t.numSymbols == 0 {
		return ErrEmptyAlphabet
	}
	for i, b := range data {
		if t.codes[b].Size == 0 {
			return fmt.Errorf("%w: byte 0x%02x at offset %d", ErrUnknownSymbol, b, i)
		}
	}
	return nil
}

func writeCodes(bw *bitio.Writer, t *Table, data []byte) (uint64, error) {
	var nbits uint64
	for _, b := range data {
		hc := t.codes[b]
		if err := bw.WriteBits(hc.Bits, hc.Size); err != nil {
			return 0, err
		}
		nbits += uint64(hc.Size)
	}
	return nbits, nil
}

func writeOnes(bw *bitio.Writer, n int) error {
	for n > 0 {
		run := n
		if run > MaxCodeSize {
			run = MaxCodeSize
		}
		hc := onesRun(run)
		if err := bw.WriteBits(hc.Bits, hc.Size); err != nil {
			return err
		}
		n -= run
	}
	return nil
}

// splice appends the first nbits bits of packed to bw, which need not be at
// a byte boundary.
func splice(bw *bitio.Writer, packed []byte, nbits uint64) error {
	whole := nbits / 8
	for _, b := range packed[:whole] {
		if err := bw.WriteBits(uint64(b), 8); err != nil {
			return err
		}
	}
	if rest := uint8(nbits % 8); rest != 0 {
		return bw.WriteBits(uint64(packed[whole]>>(8-rest)), rest)
	}
	return nil
}
