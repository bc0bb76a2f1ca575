package bytehuff

import (
	"context"
	"math"

	"github.com/chronos-tachyon/assert"
	"golang.org/x/sync/errgroup"
)

// NumSymbols is the size of the byte alphabet.
const NumSymbols = 256

// Frequencies holds the weight (number of occurrences) of each byte value.
// Symbols with a weight of 0 are absent from the alphabet.
type Frequencies [NumSymbols]uint64

// CountFrequencies counts the occurrences of each byte value in data.
func CountFrequencies(data []byte) Frequencies {
	var freq Frequencies
	for _, b := range data {
		freq[b]++
	}
	return freq
}

// CountFrequenciesParallel counts data in up to workers partitions
// concurrently and merges the partial counts.  The result is identical to
// CountFrequencies(data).
func CountFrequenciesParallel(ctx context.Context, data []byte, workers int) (Frequencies, error) {
	assert.Assertf(workers >= 0, "workers %d < 0", workers)

	if workers <= 1 || len(data) < workers {
		return CountFrequencies(data), nil
	}

	partial := make([]Frequencies, workers)
	chunk := (len(data) + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		lo := w * chunk
		hi := lo + chunk
		if hi > len(data) {
			hi = len(data)
		}
		if lo >= hi {
			continue
		}
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			partial[w] = CountFrequencies(data[lo:hi])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Frequencies{}, err
	}

	var freq Frequencies
	for w := range partial {
		freq.Add(&partial[w])
	}
	return freq, nil
}

// Add merges other into this Frequencies by summing weights.  Sums saturate
// at math.MaxUint64.
func (freq *Frequencies) Add(other *Frequencies) {
	for sym := range freq {
		freq[sym] = saturatingAdd(freq[sym], other[sym])
	}
}

// Distinct returns the number of symbols with a non-zero weight.
func (freq *Frequencies) Distinct() int {
	var n int
	for _, w := range freq {
		if w != 0 {
			n++
		}
	}
	return n
}

// Total returns the sum of all weights, saturating at math.MaxUint64.
func (freq *Frequencies) Total() uint64 {
	var total uint64
	for _, w := range freq {
		total = saturatingAdd(total, w)
	}
	return total
}

// Symbols returns the symbols with a non-zero weight, in ascending order.
func (freq *Frequencies) Symbols() []byte {
	out := make([]byte, 0, freq.Distinct())
	for sym, w := range freq {
		if w != 0 {
			out = append(out, byte(sym))
		}
	}
	return out
}

func saturatingAdd(a, b uint64) uint64 {
	sum := a + b
	if sum < a {
		sum = math.MaxUint64
	}
	return sum
}
