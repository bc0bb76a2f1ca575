package bytehuff

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarshal_RoundTrip(t *testing.T) {
	fib := fibonacciFrequencies(10)
	fibInput := make([]byte, 0, 143)
	for symbol, w := range fib {
		fibInput = append(fibInput, bytes.Repeat([]byte{byte(symbol)}, int(w))...)
	}

	inputs := map[string][]byte{
		"empty":        {},
		"single":       []byte("mmmmmmmmm"),
		"AAABBC":       []byte("AAABBC"),
		"random":       randomBytes(5, 5000, 256),
		"skewed":       randomBytes(9, 3000, 3),
		"marker-width": fibInput,
	}
	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			freq := CountFrequencies(input)
			table, err := NewTable(&freq)
			require.NoError(t, err)

			buf, err := Marshal(table, input)
			require.NoError(t, err)

			out, rebuilt, err := Unmarshal(buf)
			require.NoError(t, err)
			require.Equal(t, string(input), string(out))
			require.Equal(t, table.Lengths(), rebuilt.Lengths())
			require.Equal(t, table.Canonical().MarkerWidth(), rebuilt.MarkerWidth())
		})
	}
}

func TestMarshal_Layout(t *testing.T) {
	table := makeTableFor(t, "AAABBC")
	buf, err := Marshal(table, []byte("AAABBC"))
	require.NoError(t, err)

	// 9 + 3×15 + 4 + 7 + 64 = 129 header bits, 9 bits of canonical
	// payload (A=0 B=10 C=11), 15 terminator bits.
	require.Equal(t, 20, len(buf))
	require.Equal(t, []byte{0x15, 0xff, 0xff}, buf[17:])

	empty, err := Marshal(table, nil)
	require.NoError(t, err)
	require.Equal(t, 11, len(empty))
}

func TestUnmarshal_Errors(t *testing.T) {
	table := makeTableFor(t, "AAABBC")
	buf, err := Marshal(table, []byte("AAABBC"))
	require.NoError(t, err)

	_, _, err = Unmarshal(buf[:3])
	require.ErrorIs(t, err, ErrTruncatedStream)

	_, _, err = Unmarshal(nil)
	require.ErrorIs(t, err, ErrTruncatedStream)

	// count = 511
	_, _, err = Unmarshal([]byte{0xff, 0x80, 0x00})
	require.ErrorIs(t, err, ErrMalformedHeader)

	// B's length rewritten from 2 to 1: {1, 1, 2} is over-subscribed
	bad := append([]byte(nil), buf...)
	setBits(bad, headerCountBits+headerSymbolBits+headerLengthBits+headerSymbolBits, headerLengthBits, 1)
	_, _, err = Unmarshal(bad)
	require.ErrorIs(t, err, ErrMalformedHeader)
	require.ErrorIs(t, err, ErrInvalidLengths)

	// Dropping the last byte moves the terminator into the payload, so
	// the bits where the terminator should be are not all ones.
	_, _, err = Unmarshal(buf[:len(buf)-1])
	require.ErrorIs(t, err, ErrUnknownCodeword)

	// An extra 0xff decodes as four more C codewords.
	_, _, err = Unmarshal(append(append([]byte(nil), buf...), 0xff))
	require.ErrorIs(t, err, ErrMalformedHeader)
}

func TestMarshal_KeepsMarkerWidth(t *testing.T) {
	table, err := makeTableFor(t, "AAABBC").WithMarkerWidth(3)
	require.NoError(t, err)

	buf, err := Marshal(table, []byte("AAABBC"))
	require.NoError(t, err)

	out, rebuilt, err := Unmarshal(buf)
	require.NoError(t, err)
	require.Equal(t, "AAABBC", string(out))
	require.Equal(t, 3, rebuilt.MarkerWidth())
}

func TestUnmarshal_MarkerCollision(t *testing.T) {
	fib := fibonacciFrequencies(10)
	table, err := NewTable(&fib)
	require.NoError(t, err)

	buf, err := Marshal(table, []byte{9, 9, 9})
	require.NoError(t, err)

	// Force the marker width field from 2 down to 1.
	headerBits := headerCountBits + 10*(headerSymbolBits+headerLengthBits)
	setBits(buf, headerBits, headerWidthBits, 1)

	_, _, err = Unmarshal(buf)
	require.ErrorIs(t, err, ErrMarkerCollision)
}

// setBits overwrites n bits of buf, starting at bit offset off, with v.
func setBits(buf []byte, off int, n int, v uint64) {
	for i := 0; i < n; i++ {
		pos := off + i
		mask := byte(0x80) >> uint(pos%8)
		if v&(1<<uint(n-1-i)) != 0 {
			buf[pos/8] |= mask
		} else {
			buf[pos/8] &^= mask
		}
	}
}
