package bytehuff

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/chronos-tachyon/assert"
)

// InvalidSymbol is returned by Table.Decode to indicate that no symbol is
// being returned.
const InvalidSymbol = -1

// MaxMarkerWidth is the largest marker width a Table may use.
const MaxMarkerWidth = 15

// ErrInvalidLengths is returned by NewTableFromLengths when the lengths do
// not describe a complete prefix code.
var ErrInvalidLengths = errors.New("bytehuff: invalid code lengths")

// Table maps each symbol of the alphabet to its codeword and back.
//
// A Table is immutable once constructed, and may be shared by any number of
// goroutines without synchronization.
//
type Table struct {
	codes       [NumSymbols]Code
	weights     [NumSymbols]uint64
	decode      map[Code]decoderData
	numSymbols  int
	minSize     byte
	maxSize     byte
	markerWidth int
}

type decoderData struct {
	symbol  int16
	minSize byte
	maxSize byte
}

// NewTable builds the Huffman tree for freq and derives a Table from it.
func NewTable(freq *Frequencies) (*Table, error) {
	return NewTableFromTree(BuildTree(freq))
}

// NewTableFromTree derives a Table from a finished Huffman tree.  Codewords
// are the root-to-leaf paths, 0 for left and 1 for right.
func NewTableFromTree(tree *Tree) (*Table, error) {
	t := &Table{}
	err := tree.Walk(func(symbol byte, weight uint64, hc Code) {
		t.codes[symbol] = hc
		t.weights[symbol] = weight
	})
	if err != nil {
		return nil, err
	}
	t.finish()
	return t, nil
}

// NewTableFromLengths constructs the canonical Huffman code for the given
// per-symbol bit lengths, per the algorithm in RFC 1951 Section 3.2.2.
// Symbols with a length of 0 are omitted from the code entirely.
//
// The lengths must describe a complete prefix code.  Degenerate codes
// consisting of 0 symbols, or of 1 symbol with length 1, are permitted, as
// there is no way to construct a complete code for such cases.
//
func NewTableFromLengths(lengths *[NumSymbols]byte) (*Table, error) {
	var countArray [MaxCodeSize + 1]uint64
	var numSymbols int
	var minSize, maxSize byte
	for _, size := range lengths {
		if size == 0 {
			continue
		}

		// forbid codes with sizes greater than MaxCodeSize
		if size > MaxCodeSize {
			return nil, fmt.Errorf("%w: got %d, max %d", ErrInvalidLengths, size, MaxCodeSize)
		}

		if numSymbols == 0 {
			minSize = size
			maxSize = size
		} else if minSize > size {
			minSize = size
		} else if maxSize < size {
			maxSize = size
		}

		countArray[size]++
		numSymbols++
	}

	// permit degenerate code with 0 symbols
	if numSymbols == 0 {
		t := &Table{}
		t.finish()
		return t, nil
	}

	// permit degenerate code with 1 symbol, provided it would have been
	// the code assigned by BuildTree
	if numSymbols == 1 && maxSize != 1 {
		return nil, fmt.Errorf("%w: single symbol with length %d", ErrInvalidLengths, maxSize)
	}

	// forbid all other degenerate codes
	//
	// avail is the number of unassigned tree slots at the current depth.
	// Once it exceeds the number of symbols still to be placed, the code
	// can never become complete, which also keeps avail from overflowing.
	if numSymbols > 1 {
		avail := uint64(1)
		remaining := uint64(numSymbols)
		for bits := byte(1); bits <= maxSize; bits++ {
			avail <<= 1
			count := countArray[bits]
			if count > avail {
				return nil, fmt.Errorf("%w: over-subscribed at length %d", ErrInvalidLengths, bits)
			}
			avail -= count
			remaining -= count
			if avail > remaining {
				return nil, fmt.Errorf("%w: incomplete at length %d", ErrInvalidLengths, bits)
			}
		}
		if avail != 0 {
			return nil, fmt.Errorf("%w: incomplete at length %d", ErrInvalidLengths, maxSize)
		}
	}

	var nextCodeArray [MaxCodeSize + 1]uint64
	var code uint64
	for bits := byte(1); bits <= maxSize; bits++ {
		code = (code + countArray[bits-1]) << 1
		nextCodeArray[bits] = code
	}

	t := &Table{}
	for symbol, size := range lengths {
		if size == 0 {
			continue
		}
		t.codes[symbol] = MakeCode(size, nextCodeArray[size])
		nextCodeArray[size]++
	}
	t.finish()
	return t, nil
}

// finish fills in the derived fields once t.codes is final.
func (t *Table) finish() {
	var numSymbols int
	var minSize, maxSize byte
	for _, hc := range t.codes {
		if hc.Size == 0 {
			continue
		}
		if numSymbols == 0 {
			minSize = hc.Size
			maxSize = hc.Size
		} else if minSize > hc.Size {
			minSize = hc.Size
		} else if maxSize < hc.Size {
			maxSize = hc.Size
		}
		numSymbols++
	}

	// len(table) is approximately n×log2(n) when filled.
	numTableSlots := numSymbols * log2int(numSymbols)

	t.decode = make(map[Code]decoderData, numTableSlots)
	t.numSymbols = numSymbols
	t.minSize = minSize
	t.maxSize = maxSize
	for symbol, hc := range t.codes {
		if hc.Size != 0 {
			fillTable(t.decode, int16(symbol), hc)
		}
	}
	t.markerWidth = t.safeMarkerWidth()
}

// Canonical returns the canonical Huffman code with the same codeword
// lengths as this Table.  The canonical code can be rebuilt from Lengths
// alone with NewTableFromLengths.
//
// The marker width of this Table carries over unless it collides with the
// canonical codewords, in which case the smallest safe width is used.
func (t *Table) Canonical() *Table {
	lengths := t.Lengths()
	c, err := NewTableFromLengths(&lengths)
	assert.Assertf(err == nil, "lengths %v of a valid table rejected: %v", lengths, err)
	c.weights = t.weights
	if _, collides := c.markerCollision(t.markerWidth); !collides {
		c.markerWidth = t.markerWidth
	}
	return c
}

// WithMarkerWidth returns a copy of this Table that terminates streams with
// a marker of at least 8×width one bits.  It fails with ErrMarkerCollision
// if some codeword could be confused with such a marker.
func (t *Table) WithMarkerWidth(width int) (*Table, error) {
	if width < 1 || width > MaxMarkerWidth {
		return nil, fmt.Errorf("marker width %d out of range [1, %d]", width, MaxMarkerWidth)
	}
	if hc, collides := t.markerCollision(width); collides {
		return nil, fmt.Errorf("%w: symbol codeword %s with marker width %d", ErrMarkerCollision, hc, width)
	}
	dup := *t
	dup.markerWidth = width
	return &dup, nil
}

// markerCollision reports whether some codeword is an all-ones run whose
// length a terminator of the given width could take.
func (t *Table) markerCollision(width int) (Code, bool) {
	lo := 8 * width
	hi := lo + 7
	for _, hc := range t.codes {
		if hc.IsAllOnes() && int(hc.Size) >= lo && int(hc.Size) <= hi {
			return hc, true
		}
	}
	return Code{}, false
}

func (t *Table) safeMarkerWidth() int {
	width := 1
	for {
		if _, collides := t.markerCollision(width); !collides {
			return width
		}
		width++
	}
}

// Encode returns the codeword for symbol.  ok is false if symbol is not in
// the alphabet.
func (t *Table) Encode(symbol byte) (hc Code, ok bool) {
	hc = t.codes[symbol]
	return hc, hc.Size != 0
}

// Decode looks up a (possibly partial) codeword.
//
// If hc is a complete codeword, symbol >= 0 and minSize == maxSize ==
// hc.Size.
//
// If hc is a proper prefix of one or more codewords, symbol ==
// InvalidSymbol and between minSize and maxSize bits in total are required
// to complete it.
//
// If hc is not a prefix of any codeword, symbol == InvalidSymbol and
// minSize == maxSize == 0.
//
func (t *Table) Decode(hc Code) (symbol int, minSize byte, maxSize byte) {
	dd, found := t.decode[hc]
	if !found {
		return InvalidSymbol, 0, 0
	}
	return int(dd.symbol), dd.minSize, dd.maxSize
}

// Len returns the number of symbols in the alphabet.
func (t *Table) Len() int {
	return t.numSymbols
}

// MinSize is the bit length of the shortest codeword.
func (t *Table) MinSize() byte {
	return t.minSize
}

// MaxSize is the bit length of the longest codeword.
func (t *Table) MaxSize() byte {
	return t.maxSize
}

// MarkerWidth is the number of whole bytes of one bits that every stream
// encoded with this Table ends with, in addition to its padding.
func (t *Table) MarkerWidth() int {
	return t.markerWidth
}

// Weight returns the weight symbol had when the Table was built, or 0 if
// the Table was built from lengths alone.
func (t *Table) Weight(symbol byte) uint64 {
	return t.weights[symbol]
}

// Symbols returns the symbols in the alphabet, in ascending order.
func (t *Table) Symbols() []byte {
	out := make([]byte, 0, t.numSymbols)
	for symbol, hc := range t.codes {
		if hc.Size != 0 {
			out = append(out, byte(symbol))
		}
	}
	return out
}

// Lengths returns the codeword length of each symbol, 0 for symbols not in
// the alphabet.  This array can be transmitted to another party and used by
// NewTableFromLengths to reconstruct the canonical code on the receiving end.
//
func (t *Table) Lengths() [NumSymbols]byte {
	var out [NumSymbols]byte
	for symbol, hc := range t.codes {
		out[symbol] = hc.Size
	}
	return out
}

// Stats holds diagnostics of a Table relative to the weights it was built
// from.
type Stats struct {
	// Symbols is the number of distinct symbols.
	Symbols int

	// TotalWeight is the sum of all symbol weights.
	TotalWeight uint64

	// Entropy is the Shannon entropy of the weight distribution, in bits
	// per symbol.
	Entropy float64

	// AverageLength is the expected codeword length, in bits per symbol.
	AverageLength float64

	// Efficiency is Entropy / AverageLength.
	Efficiency float64

	// KraftSum is the sum of 2^-len over all codewords.
	KraftSum float64
}

// Stats computes diagnostics for this Table.  Entropy, AverageLength and
// Efficiency are 0 if the Table carries no weights.
func (t *Table) Stats() Stats {
	var s Stats
	s.Symbols = t.numSymbols
	for _, hc := range t.codes {
		if hc.Size != 0 {
			s.KraftSum += math.Ldexp(1, -int(hc.Size))
		}
	}
	for _, w := range t.weights {
		s.TotalWeight = saturatingAdd(s.TotalWeight, w)
	}
	if s.TotalWeight == 0 {
		return s
	}

	total := float64(s.TotalWeight)
	for symbol, w := range t.weights {
		if w == 0 {
			continue
		}
		p := float64(w) / total
		s.Entropy -= p * math.Log2(p)
		s.AverageLength += p * float64(t.codes[symbol].Size)
	}
	if s.AverageLength > 0 {
		s.Efficiency = s.Entropy / s.AverageLength
	}
	return s
}

// Dump writes a programmer-readable debugging dump of the Table's current
// state to the given writer.
func (t *Table) Dump(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	buf.WriteString("Table{\n")
	fmt.Fprintf(&buf, "\tMinSize() = %d\n", t.minSize)
	fmt.Fprintf(&buf, "\tMaxSize() = %d\n", t.maxSize)
	fmt.Fprintf(&buf, "\tMarkerWidth() = %d\n", t.markerWidth)
	for symbol, hc := range t.codes {
		if hc.Size != 0 {
			fmt.Fprintf(&buf, "\tEncode(%d) = %s\n", symbol, hc)
		}
	}
	buf.WriteString("}\n")
	return buf.WriteTo(w)
}

// DumpDecoder writes the prefix lookup table used by Decode, in ascending
// order of prefix.
func (t *Table) DumpDecoder(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	buf.WriteString("Decoder{\n")
	keys := make(byCode, 0, len(t.decode))
	for hc := range t.decode {
		keys = append(keys, hc)
	}
	keys.Sort()
	for _, hc := range keys {
		dd := t.decode[hc]
		fmt.Fprintf(&buf, "\tDecode(%s) = {%d, %d, %d}\n", hc, dd.symbol, dd.minSize, dd.maxSize)
	}
	buf.WriteString("}\n")
	return buf.WriteTo(w)
}

// String returns a short human-readable summary.
func (t *Table) String() string {
	return fmt.Sprintf("(Huffman table with %d symbols, with coded lengths of %d .. %d bits)", t.numSymbols, t.minSize, t.maxSize)
}

var _ fmt.Stringer = (*Table)(nil)

func fillTable(table map[Code]decoderData, symbol int16, hc Code) {
	dd := decoderData{symbol, hc.Size, hc.Size}
	table[hc] = dd

	for hc.Size != 0 {
		// For each hc "...xxxa", compute "...xxxA" where A = NOT a.

		sibling := Code{Size: hc.Size, Bits: hc.Bits ^ 1}

		// Merge the dd's from "...xxxa" (dd) and "...xxxA" (ddSibling)
		// into ddNew (the new parent for dd and ddSibling).

		ddNew := decoderData{InvalidSymbol, dd.minSize, dd.maxSize}
		if ddSibling, found := table[sibling]; found {
			if ddNew.minSize > ddSibling.minSize {
				ddNew.minSize = ddSibling.minSize
			}
			if ddNew.maxSize < ddSibling.maxSize {
				ddNew.maxSize = ddSibling.maxSize
			}
		}

		// Mutate hc from "...xxxa" to "...xxx".

		hc.Size--
		hc.Bits >>= 1

		// If table[hc] already equals ddNew, we can stop recursing.

		if ddOld, found := table[hc]; found && ddOld == ddNew {
			break
		}

		// Update table[hc] with ddNew and continue recursing.

		table[hc] = ddNew
		dd = ddNew
	}
}

// type byCode {{{

type byCode []Code

func (list byCode) Sort() {
	sort.Sort(list)
}

func (list byCode) Len() int {
	return len(list)
}

func (list byCode) Swap(i, j int) {
	list[i], list[j] = list[j], list[i]
}

func (list byCode) Less(i, j int) bool {
	a, b := list[i], list[j]
	as, ab := a.Size, a.Bits
	bs, bb := b.Size, b.Bits
	if as != bs {
		return as < bs
	}
	return ab < bb
}

var _ sort.Interface = byCode(nil)

// }}}
