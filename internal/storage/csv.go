package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/san-kum/dynrec/internal/dynamo"
)

// CSVOptions selects the time and value columns of a series file.
type CSVOptions struct {
	TimeColumn  string // header name; empty picks time/age/year/t, else column 0
	ValueColumn string // header name; empty picks value/y, else the last column
	HasHeader   bool
	Delimiter   rune
	SkipRows    int
	// Indexed ignores any time column and numbers samples from 0.
	Indexed bool
}

func DefaultCSVOptions() *CSVOptions {
	return &CSVOptions{HasHeader: true, Delimiter: ','}
}

var ErrNoData = errors.New("storage: no valid data found in CSV")

// LoadCSV reads a (time, value) series. Rows with an empty or NA value are
// skipped; any other unparsable field is an error.
func LoadCSV(path string, opts *CSVOptions) (*dynamo.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := LoadCSVFromReader(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func LoadCSVFromReader(r io.Reader, opts *CSVOptions) (*dynamo.Series, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}

	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	reader.Comment = '#'

	for i := 0; i < opts.SkipRows; i++ {
		if _, err := reader.Read(); err != nil {
			return nil, err
		}
	}

	timeIdx, valueIdx := 0, 1
	meta := dynamo.Metadata{}
	if opts.HasHeader {
		header, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				return nil, ErrNoData
			}
			return nil, err
		}
		timeIdx, valueIdx, err = columns(header, opts)
		if err != nil {
			return nil, err
		}
		if timeIdx >= 0 {
			meta.TimeName = clean(header[timeIdx])
		}
		meta.ValueName = clean(header[valueIdx])
	}

	var times, values []float64
	line := 1
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		if len(rec) == 1 && !opts.HasHeader {
			timeIdx, valueIdx = -1, 0
		}
		if valueIdx >= len(rec) {
			return nil, fmt.Errorf("line %d: missing value column", line)
		}

		vs := clean(rec[valueIdx])
		if isNA(vs) {
			continue
		}
		v, err := strconv.ParseFloat(vs, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: value %q: %w", line, vs, err)
		}

		if timeIdx >= 0 && !opts.Indexed {
			if timeIdx >= len(rec) {
				return nil, fmt.Errorf("line %d: missing time column", line)
			}
			tv, err := strconv.ParseFloat(clean(rec[timeIdx]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: time %q: %w", line, rec[timeIdx], err)
			}
			times = append(times, tv)
		}
		values = append(values, v)
	}

	if len(values) == 0 {
		return nil, ErrNoData
	}
	if len(times) != len(values) {
		s := dynamo.Indexed(values)
		s.Meta = meta
		s.Meta.TimeName = "index"
		if err := s.Validate(); err != nil {
			return nil, err
		}
		return s, nil
	}

	s, err := dynamo.NewSeries(times, values)
	if err != nil {
		return nil, err
	}
	s.Meta = meta
	return s, nil
}

func columns(header []string, opts *CSVOptions) (int, int, error) {
	timeIdx, valueIdx := -1, -1
	for i, h := range header {
		h = clean(h)
		switch {
		case opts.ValueColumn != "" && h == opts.ValueColumn:
			valueIdx = i
		case opts.TimeColumn != "" && h == opts.TimeColumn:
			timeIdx = i
		case opts.ValueColumn == "" && valueIdx == -1 && (strings.EqualFold(h, "value") || h == "y"):
			valueIdx = i
		case opts.TimeColumn == "" && timeIdx == -1 && isTimeName(h):
			timeIdx = i
		}
	}

	if opts.ValueColumn != "" && valueIdx == -1 {
		return 0, 0, fmt.Errorf("value column %q not found", opts.ValueColumn)
	}
	if opts.TimeColumn != "" && timeIdx == -1 {
		return 0, 0, fmt.Errorf("time column %q not found", opts.TimeColumn)
	}
	if valueIdx == -1 {
		valueIdx = len(header) - 1
	}
	if timeIdx == -1 && len(header) > 1 && valueIdx != 0 {
		timeIdx = 0
	}
	return timeIdx, valueIdx, nil
}

func isTimeName(h string) bool {
	switch strings.ToLower(h) {
	case "time", "t", "age", "year", "depth":
		return true
	}
	return false
}

func isNA(s string) bool {
	switch s {
	case "", "NA", "NaN", "nan", "null":
		return true
	}
	return false
}

func clean(s string) string {
	return strings.TrimSpace(strings.Trim(s, "\""))
}
