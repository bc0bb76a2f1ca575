// Command bytehuff compresses a text file, or the first colour channel of a
// PNG image, with a static Huffman code, decodes it again, and reports
// whether the round trip was exact.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/chronos-tachyon/bytehuff"
)

func main() {
	var inFlag = flag.String("in", "", "file to compress")
	var modeFlag = flag.String("mode", "text", "input kind: text or image")
	var outFlag = flag.String("out", "", "where to write the decoded copy (optional)")
	var encodedFlag = flag.String("encoded", "", "where to write the encoded container (optional)")
	var tableFlag = flag.Bool("table", true, "print the Huffman table")
	var workersFlag = flag.Int("workers", runtime.NumCPU(), "goroutines used for counting byte frequencies")
	flag.Parse()

	if *inFlag == "" {
		fmt.Fprintln(os.Stderr, "bytehuff: -in is required")
		flag.Usage()
		os.Exit(2)
	}

	opts := options{
		in:      *inFlag,
		mode:    *modeFlag,
		out:     *outFlag,
		encoded: *encodedFlag,
		table:   *tableFlag,
		workers: *workersFlag,
	}
	ok, err := run(context.Background(), opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bytehuff: %v\n", err)
		os.Exit(1)
	}
	if !ok {
		os.Exit(1)
	}
}

type options struct {
	in      string
	mode    string
	out     string
	encoded string
	table   bool
	workers int
}

func run(ctx context.Context, opts options) (bool, error) {
	p := message.NewPrinter(language.English) // For commas between thousands

	data, dims, err := load(opts.in, opts.mode)
	if err != nil {
		return false, err
	}

	freq, err := bytehuff.CountFrequenciesParallel(ctx, data, opts.workers)
	if err != nil {
		return false, err
	}
	t, err := bytehuff.NewTable(&freq)
	if err != nil {
		return false, err
	}
	if opts.table {
		printTable(p, t)
	}

	encoded, err := bytehuff.Marshal(t, data)
	if err != nil {
		return false, err
	}
	if opts.encoded != "" {
		if err := os.WriteFile(opts.encoded, encoded, 0o644); err != nil {
			return false, err
		}
	}

	p.Printf("Size of the original file: %d [bytes]\n", len(data))
	p.Printf("Size of the encoded file: %d [bytes]\n", len(encoded))
	if len(encoded) != 0 {
		p.Printf("Compression ratio: %0.5f\n\n", float64(len(data))/float64(len(encoded)))
	}

	decoded, _, err := bytehuff.Unmarshal(encoded)
	if err != nil {
		return false, err
	}
	if opts.out != "" {
		if err := save(opts.out, opts.mode, decoded, dims); err != nil {
			return false, err
		}
	}

	if bytes.Equal(data, decoded) {
		fmt.Println("SUCCESS. The original and decoded versions are identical!")
		return true, nil
	}
	fmt.Println("FAILURE. The original and decoded versions are NOT identical!")
	return false, nil
}

func load(path string, mode string) ([]byte, bytehuff.Dimensions, error) {
	switch mode {
	case "text":
		data, err := os.ReadFile(path)
		return data, bytehuff.Dimensions{Rows: 1, Cols: len(data)}, err

	case "image":
		f, err := os.Open(path)
		if err != nil {
			return nil, bytehuff.Dimensions{}, err
		}
		defer f.Close()

		img, err := png.Decode(f)
		if err != nil {
			return nil, bytehuff.Dimensions{}, fmt.Errorf("%s: %w", path, err)
		}
		return bytehuff.Flatten(firstChannel(img))

	default:
		return nil, bytehuff.Dimensions{}, fmt.Errorf("unknown mode %q", mode)
	}
}

// firstChannel extracts the red channel of img as 8-bit samples.
func firstChannel(img image.Image) [][]byte {
	bounds := img.Bounds()
	grid := make([][]byte, bounds.Dy())
	for y := range grid {
		row := make([]byte, bounds.Dx())
		for x := range row {
			r, _, _, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			row[x] = byte(r >> 8)
		}
		grid[y] = row
	}
	return grid
}

func save(path string, mode string, decoded []byte, dims bytehuff.Dimensions) error {
	if mode != "image" {
		return os.WriteFile(path, decoded, 0o644)
	}

	grid, err := dims.Reshape(decoded)
	if err != nil {
		return err
	}
	img := image.NewGray(image.Rect(0, 0, dims.Cols, dims.Rows))
	for y, row := range grid {
		copy(img.Pix[y*img.Stride:], row)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func printTable(p *message.Printer, t *bytehuff.Table) {
	stats := t.Stats()
	symbols := t.Symbols()
	sort.SliceStable(symbols, func(i, j int) bool {
		return t.Weight(symbols[i]) > t.Weight(symbols[j])
	})

	dashes := strings.Repeat("-", 10)
	fmt.Println(dashes + "Huffman table" + dashes)
	fmt.Println("Symbol     Probability Codeword")
	for _, symbol := range symbols {
		hc, _ := t.Encode(symbol)
		prob := float64(t.Weight(symbol)) / float64(stats.TotalWeight)
		fmt.Printf("%-10q %-11.4f %s\n", symbol, prob, hc)
	}

	p.Printf("\nSymbols: %d, total weight: %d\n", stats.Symbols, stats.TotalWeight)
	fmt.Printf("Entropy of the source: %0.5f [bits per symbol]\n", stats.Entropy)
	fmt.Printf("Codeword average length: %0.5f [bits per symbol]\n", stats.AverageLength)
	fmt.Printf("Efficiency [%%] : %0.5f\n\n", stats.Efficiency*100)
}
