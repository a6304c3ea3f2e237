package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Default JSON paths used by ReadFile.
const (
	DefaultSamplesPath = "samples"
	DefaultTargetsPath = "targets"
)

// CSVOptions configures ReadCSV.
type CSVOptions struct {
	Header       bool // skip the first record
	Comma        rune
	TargetColumn int // −1 selects the last column
}

// CSVOption represents a functional option for ReadCSV.
type CSVOption func(*CSVOptions)

// WithHeader skips the first record.
func WithHeader() CSVOption {
	return func(o *CSVOptions) { o.Header = true }
}

// WithComma sets the field delimiter.
func WithComma(r rune) CSVOption {
	return func(o *CSVOptions) { o.Comma = r }
}

// WithTargetColumn selects the target column; −1 is the last one.
func WithTargetColumn(c int) CSVOption {
	return func(o *CSVOptions) { o.TargetColumn = c }
}

// ReadCSV reads one sample per record; the target column holds y and every
// other column a coordinate.
func ReadCSV(r io.Reader, opts ...CSVOption) (*Dataset, error) {
	o := CSVOptions{Comma: ',', TargetColumn: -1}
	for _, opt := range opts {
		opt(&o)
	}
	cr := csv.NewReader(r)
	cr.Comma = o.Comma
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	var (
		samples [][]float64
		targets []float64
		line    int
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ReadCSV: %w", err)
		}
		line++
		if line == 1 && o.Header {
			continue
		}
		if len(rec) < 2 {
			return nil, fmt.Errorf("ReadCSV: line %d has %d columns: %w", line, len(rec), ErrShape)
		}
		tc := o.TargetColumn
		if tc < 0 {
			tc = len(rec) - 1
		}
		if tc >= len(rec) {
			return nil, fmt.Errorf("ReadCSV: line %d: target column %d: %w", line, tc, ErrShape)
		}
		x := make([]float64, 0, len(rec)-1)
		for c, field := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("ReadCSV: line %d column %d: %w", line, c, err)
			}
			if c == tc {
				targets = append(targets, v)
			} else {
				x = append(x, v)
			}
		}
		samples = append(samples, x)
	}

	ds, err := New(samples, targets)
	if err != nil {
		return nil, fmt.Errorf("ReadCSV: %w", err)
	}

	return ds, nil
}

// ReadJSON extracts samples (an array of numeric arrays) and targets (a
// numeric array) from data with gjson paths, e.g. "data.#.x" and "data.#.y".
func ReadJSON(data []byte, samplesPath, targetsPath string) (*Dataset, error) {
	xs := gjson.GetBytes(data, samplesPath)
	if !xs.Exists() || !xs.IsArray() {
		return nil, fmt.Errorf("ReadJSON %q: %w", samplesPath, ErrJSONPath)
	}
	ys := gjson.GetBytes(data, targetsPath)
	if !ys.Exists() || !ys.IsArray() {
		return nil, fmt.Errorf("ReadJSON %q: %w", targetsPath, ErrJSONPath)
	}

	var samples [][]float64
	for i, row := range xs.Array() {
		if !row.IsArray() {
			return nil, fmt.Errorf("ReadJSON: sample %d is not an array: %w", i, ErrShape)
		}
		vals := row.Array()
		x := make([]float64, len(vals))
		for d, v := range vals {
			if v.Type != gjson.Number {
				return nil, fmt.Errorf("ReadJSON: sample %d value %d: %w", i, d, ErrShape)
			}
			x[d] = v.Float()
		}
		samples = append(samples, x)
	}
	var targets []float64
	for i, v := range ys.Array() {
		if v.Type != gjson.Number {
			return nil, fmt.Errorf("ReadJSON: target %d: %w", i, ErrShape)
		}
		targets = append(targets, v.Float())
	}

	ds, err := New(samples, targets)
	if err != nil {
		return nil, fmt.Errorf("ReadJSON: %w", err)
	}

	return ds, nil
}

// ReadFile reads a .csv (optional header detected by a non-numeric first
// field) or .json file (DefaultSamplesPath/DefaultTargetsPath).
func ReadFile(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ReadFile: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ReadJSON(data, DefaultSamplesPath, DefaultTargetsPath)
	default:
		var opts []CSVOption
		if hasHeader(string(data)) {
			opts = append(opts, WithHeader())
		}
		return ReadCSV(strings.NewReader(string(data)), opts...)
	}
}

func hasHeader(s string) bool {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		first, _, _ := strings.Cut(line, ",")
		_, err := strconv.ParseFloat(strings.TrimSpace(first), 64)
		return err != nil
	}

	return false
}
