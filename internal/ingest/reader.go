package ingest

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/width"
)

// Encoding names accepted by NewReader.
const (
	EncodingUTF8     = "utf-8"
	EncodingShiftJIS = "shift_jis"
)

// NewReader decodes r to UTF-8. A UTF-8 BOM is dropped. Widths are left
// alone: a full-width comma inside a product name must not become a field
// separator, so numeric cells are narrowed one at a time after splitting.
func NewReader(r io.Reader, encoding string) (io.Reader, error) {
	var dec transform.Transformer
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", EncodingUTF8, "utf8":
		dec = unicode.UTF8BOM.NewDecoder()
	case EncodingShiftJIS, "sjis", "shift-jis", "cp932":
		dec = japanese.ShiftJIS.NewDecoder()
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}
	return transform.NewReader(r, dec), nil
}

// wideNumeric covers the full-width minus, full stop, solidus and digits.
var wideNumeric = runes.Predicate(func(r rune) bool {
	return r >= '\uff0d' && r <= '\uff19'
})

// narrowNumeric rewrites full-width digits and the separators used in
// numbers and dates to ASCII. Every other rune is kept as is.
func narrowNumeric(s string) string {
	out, _, err := transform.String(runes.If(wideNumeric, width.Narrow, nil), s)
	if err != nil {
		return s
	}
	return out
}

// ReadGrid splits every line of r into fields. Blank lines become nil rows so
// row i is line i+1. The delimiter is sniffed from the first non-blank line
// unless delim is non-zero.
func ReadGrid(r io.Reader, delim rune) ([][]string, rune, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var grid [][]string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			grid = append(grid, nil)
			continue
		}
		if delim == 0 {
			delim = SniffDelimiter(line)
		}
		grid = append(grid, SplitFields(line, delim))
	}
	if err := scanner.Err(); err != nil {
		return nil, delim, fmt.Errorf("read input: %w", err)
	}
	if delim == 0 {
		delim = ','
	}
	return grid, delim, nil
}
