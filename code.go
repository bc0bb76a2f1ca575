package bytehuff

import (
	"fmt"
	mathbits "math/bits"
	"strconv"
)

// MaxCodeSize is the bit length of the longest codeword a Table can hold.
const MaxCodeSize = 64

// Code represents a sequence of bits.
type Code struct {
	// Size holds the number of valid bits.
	Size byte

	// Bits holds the actual values of the bits.  The most significant of
	// the Size low-order bits is the first bit, matching the order in
	// which bits are written to a stream.
	Bits uint64
}

// MakeCode is a convenience function that constructs a Code.
func MakeCode(size byte, bits uint64) Code {
	return Code{Size: size, Bits: bits}
}

// ParseCode constructs a Code from a string of '0' and '1' characters.
func ParseCode(str string) (Code, error) {
	if len(str) > MaxCodeSize {
		return Code{}, fmt.Errorf("%w: %d bits", ErrCodeTooLong, len(str))
	}
	var hc Code
	for i := 0; i < len(str); i++ {
		switch str[i] {
		case '0':
			hc = hc.Append(0)
		case '1':
			hc = hc.Append(1)
		default:
			return Code{}, fmt.Errorf("invalid bit %q at index %d", str[i], i)
		}
	}
	return hc, nil
}

// Append returns this Code extended by one bit.
func (hc Code) Append(bit uint) Code {
	return Code{Size: hc.Size + 1, Bits: (hc.Bits << 1) | uint64(bit&1)}
}

// HasPrefix reports whether prefix is a prefix of this Code.  Every Code is
// a prefix of itself.
func (hc Code) HasPrefix(prefix Code) bool {
	if prefix.Size > hc.Size {
		return false
	}
	return hc.Bits>>(hc.Size-prefix.Size) == prefix.Bits
}

// IsAllOnes reports whether every bit of this Code is set.  The empty Code
// is not considered all ones.
func (hc Code) IsAllOnes() bool {
	return hc.Size != 0 && mathbits.OnesCount64(hc.Bits) == int(hc.Size)
}

// String returns the string representation of this Code.
func (hc Code) String() string {
	if hc.Size == 0 {
		return "\"\""
	}
	format := "%0" + strconv.FormatUint(uint64(hc.Size), 10) + "b"
	return strconv.Quote(fmt.Sprintf(format, hc.Bits))
}

var _ fmt.Stringer = Code{}

// onesRun returns a Code of n set bits.  n must not exceed MaxCodeSize.
func onesRun(n int) Code {
	if n >= MaxCodeSize {
		return Code{Size: MaxCodeSize, Bits: ^uint64(0)}
	}
	return Code{Size: byte(n), Bits: (uint64(1) << uint(n)) - 1}
}
