// Package bytehuff implements a static Huffman codec over the byte alphabet.
//
// A Table is built once from observed byte frequencies and then passed
// explicitly to Encode and Decode.  Encoded streams are packed most
// significant bit first and end with a terminator: a run of one bits that
// pads the stream to a byte boundary, plus at least one whole byte of
// marker.  The terminator length travels with the Stream; Marshal and
// Unmarshal wrap a stream in a header from which the canonical code can be
// rebuilt, so that nothing but the bytes needs to be shared.
//
// References:
//
//     <https://www.rfc-editor.org/rfc/rfc1951.html>, Section 3.2.2
//
//     <https://en.wikipedia.org/wiki/Huffman_coding>
//
//     <https://en.wikipedia.org/wiki/Canonical_Huffman_code>
//
package bytehuff
