package pitch

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/james-see/pitch2tab/pkg/tab"
)

// ErrMalformedTrack is returned for rows or records that cannot be decoded.
var ErrMalformedTrack = errors.New("malformed pitch track")

// ReadCSV decodes the estimator's CSV output: a time,frequency,confidence
// row per frame. The header is optional; when present, columns are matched
// by name so extra columns and any column order are accepted.
func ReadCSV(r io.Reader) ([]tab.PitchSample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	cols := [3]int{0, 1, 2}
	var samples []tab.PitchSample
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedTrack, err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}

		if line == 1 && isHeader(rec) {
			if cols, err = headerColumns(rec); err != nil {
				return nil, err
			}
			continue
		}

		s, err := parseRecord(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedTrack, line, err)
		}
		samples = append(samples, s)
	}
	return samples, nil
}

func isHeader(rec []string) bool {
	for _, f := range rec {
		if _, err := strconv.ParseFloat(strings.TrimSpace(f), 64); err != nil {
			return true
		}
	}
	return false
}

func headerColumns(rec []string) ([3]int, error) {
	cols := [3]int{-1, -1, -1}
	for i, name := range rec {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "time", "t", "seconds":
			cols[0] = i
		case "frequency", "freq", "f0", "hz":
			cols[1] = i
		case "confidence", "conf", "voicing":
			cols[2] = i
		}
	}
	for i, want := range []string{"time", "frequency", "confidence"} {
		if cols[i] < 0 {
			return cols, fmt.Errorf("%w: header has no %s column", ErrMalformedTrack, want)
		}
	}
	return cols, nil
}

func parseRecord(rec []string, cols [3]int) (tab.PitchSample, error) {
	var vals [3]float64
	for i, c := range cols {
		if c >= len(rec) {
			return tab.PitchSample{}, fmt.Errorf("%d fields, want at least %d", len(rec), c+1)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[c]), 64)
		if err != nil {
			return tab.PitchSample{}, err
		}
		vals[i] = v
	}
	return tab.PitchSample{Time: vals[0], Frequency: vals[1], Confidence: vals[2]}, nil
}
