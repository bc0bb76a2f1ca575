package bytehuff

import (
	"bytes"
	"errors"
	"testing"
)

func TestDimensions_Reshape(t *testing.T) {
	flat := []byte("abcdef")

	grid, err := Dimensions{Rows: 2, Cols: 3}.Reshape(flat)
	if err != nil {
		t.Fatalf("Reshape failed: %v", err)
	}
	if len(grid) != 2 || !bytes.Equal(grid[0], []byte("abc")) || !bytes.Equal(grid[1], []byte("def")) {
		t.Errorf("wrong grid: %q", grid)
	}

	for _, dims := range []Dimensions{{Rows: 2, Cols: 2}, {Rows: 7, Cols: 1}, {Rows: -2, Cols: -3}} {
		if _, err := dims.Reshape(flat); !errors.Is(err, ErrDimensions) {
			t.Errorf("%v: expected ErrDimensions, got %v", dims, err)
		}
	}
}

func TestFlatten(t *testing.T) {
	flat, dims, err := Flatten([][]byte{[]byte("ab"), []byte("cd"), []byte("ef")})
	if err != nil {
		t.Fatalf("Flatten failed: %v", err)
	}
	if string(flat) != "abcdef" || dims != (Dimensions{Rows: 3, Cols: 2}) {
		t.Errorf("got %q, %v", flat, dims)
	}

	if _, _, err := Flatten([][]byte{[]byte("ab"), []byte("c")}); !errors.Is(err, ErrDimensions) {
		t.Errorf("expected ErrDimensions, got %v", err)
	}

	flat, dims, err = Flatten(nil)
	if err != nil || len(flat) != 0 || dims.Len() != 0 {
		t.Errorf("empty grid: got %q, %v, %v", flat, dims, err)
	}
}
