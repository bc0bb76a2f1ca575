package bytehuff

import (
	"errors"
	"strings"
	"testing"
)

func fibonacciFrequencies(n int) Frequencies {
	var freq Frequencies
	a, b := uint64(1), uint64(1)
	for i := 0; i < n; i++ {
		freq[i] = a
		a, b = b, a+b
	}
	return freq
}

func walkCodes(t *testing.T, tree *Tree) map[byte]string {
	t.Helper()
	out := make(map[byte]string)
	err := tree.Walk(func(symbol byte, weight uint64, hc Code) {
		out[symbol] = strings.Trim(hc.String(), `"`)
	})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}
	return out
}

func TestBuildTree(t *testing.T) {
	freq := Frequencies{5, 9, 12, 13, 16, 45}
	tree := BuildTree(&freq)

	if tree.NumLeaves() != 6 {
		t.Errorf("expected 6 leaves, got %d", tree.NumLeaves())
	}
	if tree.NumInternal() != 5 {
		t.Errorf("expected 5 internal nodes, got %d", tree.NumInternal())
	}
	if tree.Weight() != 100 {
		t.Errorf("expected root weight 100, got %d", tree.Weight())
	}

	expect := map[byte]string{
		0: "1100",
		1: "1101",
		2: "100",
		3: "101",
		4: "111",
		5: "0",
	}
	actual := walkCodes(t, tree)
	for symbol, code := range expect {
		if actual[symbol] != code {
			t.Errorf("symbol %d: expected %s, got %s", symbol, code, actual[symbol])
		}
	}
	if len(actual) != len(expect) {
		t.Errorf("expected %d leaves visited, got %d", len(expect), len(actual))
	}
}

func TestBuildTree_TieBreak(t *testing.T) {
	// "AAABBC": after C and B merge, the new node ties with A; the leaf
	// goes left.
	freq := CountFrequencies([]byte("AAABBC"))
	actual := walkCodes(t, BuildTree(&freq))

	expect := map[byte]string{'A': "0", 'B': "11", 'C': "10"}
	for symbol, code := range expect {
		if actual[symbol] != code {
			t.Errorf("symbol %q: expected %s, got %s", symbol, code, actual[symbol])
		}
	}

	// Equal leaf weights are ordered by symbol value.
	freq = CountFrequencies([]byte("dcba"))
	actual = walkCodes(t, BuildTree(&freq))
	expect = map[byte]string{'a': "00", 'b': "01", 'c': "10", 'd': "11"}
	for symbol, code := range expect {
		if actual[symbol] != code {
			t.Errorf("symbol %q: expected %s, got %s", symbol, code, actual[symbol])
		}
	}
}

func TestBuildTree_Degenerate(t *testing.T) {
	var empty Frequencies
	tree := BuildTree(&empty)
	if tree.Len() != 0 || tree.NumLeaves() != 0 || tree.Weight() != 0 {
		t.Errorf("empty tree: len %d, leaves %d, weight %d", tree.Len(), tree.NumLeaves(), tree.Weight())
	}
	if codes := walkCodes(t, tree); len(codes) != 0 {
		t.Errorf("empty tree visited %d leaves", len(codes))
	}

	freq := CountFrequencies([]byte("zzzz"))
	tree = BuildTree(&freq)
	if tree.Len() != 1 || tree.NumInternal() != 0 {
		t.Errorf("single leaf tree: len %d, internal %d", tree.Len(), tree.NumInternal())
	}
	codes := walkCodes(t, tree)
	if len(codes) != 1 || codes['z'] != "0" {
		t.Errorf("single leaf tree: got %v", codes)
	}
}

func TestBuildTree_Skewed(t *testing.T) {
	freq := fibonacciFrequencies(10)
	codes := walkCodes(t, BuildTree(&freq))
	if codes[1] != "111111111" {
		t.Errorf("expected symbol 1 at depth 9, got %s", codes[1])
	}
	if codes[9] != "0" {
		t.Errorf("expected symbol 9 to be \"0\", got %s", codes[9])
	}
}

func TestTree_WalkTooDeep(t *testing.T) {
	freq := fibonacciFrequencies(MaxCodeSize + 1)
	if err := BuildTree(&freq).Walk(func(byte, uint64, Code) {}); err != nil {
		t.Errorf("depth %d: unexpected error: %v", MaxCodeSize, err)
	}

	freq = fibonacciFrequencies(MaxCodeSize + 2)
	err := BuildTree(&freq).Walk(func(byte, uint64, Code) {})
	if !errors.Is(err, ErrCodeTooLong) {
		t.Errorf("depth %d: expected ErrCodeTooLong, got %v", MaxCodeSize+1, err)
	}
}

func TestBuildTree_FullAlphabet(t *testing.T) {
	var freq Frequencies
	for i := range freq {
		freq[i] = uint64(i%7 + 1)
	}
	tree := BuildTree(&freq)

	if tree.NumLeaves() != NumSymbols || tree.Len() != 2*NumSymbols-1 {
		t.Errorf("expected %d leaves and %d nodes, got %d and %d", NumSymbols, 2*NumSymbols-1, tree.NumLeaves(), tree.Len())
	}
	if tree.Weight() != freq.Total() {
		t.Errorf("expected root weight %d, got %d", freq.Total(), tree.Weight())
	}
	for i, node := range tree.nodes[tree.numLeaves:] {
		n := int32(tree.numLeaves + i)
		if node.left >= n || node.right >= n {
			t.Errorf("node %d: children %d, %d created after their parent", n, node.left, node.right)
		}
	}
	if codes := walkCodes(t, tree); len(codes) != NumSymbols {
		t.Errorf("expected %d leaves visited, got %d", NumSymbols, len(codes))
	}
}
