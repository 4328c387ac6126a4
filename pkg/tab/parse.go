package tab

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ParsedNote is a fret number read back from rendered tab.
type ParsedNote struct {
	Step     int
	Position FretPosition
}

// Parse reads text produced by Render and returns every fret number with
// its grid step, ordered by step then string. The cell width is recovered
// from the longest fret number in the text.
func Parse(text string) ([]ParsedNote, error) {
	blocks, err := splitBlocks(text)
	if err != nil {
		return nil, err
	}

	digits := 1
	for _, b := range blocks {
		for _, inner := range b {
			for _, run := range digitRuns(inner) {
				digits = max(digits, run[1]-run[0])
			}
		}
	}
	cellWidth := digits + 1

	var notes []ParsedNote
	offset := 0
	for bi, b := range blocks {
		width := len(b[0])
		if width%cellWidth != 0 {
			return nil, fmt.Errorf("%w: block %d width %d is not a multiple of cell width %d",
				ErrMalformedTab, bi, width, cellWidth)
		}
		for li, inner := range b {
			if len(inner) != width {
				return nil, fmt.Errorf("%w: block %d line %d has width %d, want %d",
					ErrMalformedTab, bi, li, len(inner), width)
			}
			str := NumStrings - 1 - li
			for _, run := range digitRuns(inner) {
				fret, err := strconv.Atoi(inner[run[0]:run[1]])
				if err != nil {
					return nil, fmt.Errorf("%w: %v", ErrMalformedTab, err)
				}
				notes = append(notes, ParsedNote{
					Step:     offset + run[1]/cellWidth - 1,
					Position: FretPosition{String: str, Fret: fret},
				})
			}
		}
		offset += width / cellWidth
	}

	sort.Slice(notes, func(i, j int) bool {
		if notes[i].Step != notes[j].Step {
			return notes[i].Step < notes[j].Step
		}
		return notes[i].Position.String < notes[j].Position.String
	})
	return notes, nil
}

// splitBlocks returns the cell area of each line, grouped into blocks of
// NumStrings lines.
func splitBlocks(text string) ([][]string, error) {
	var (
		blocks  [][]string
		current []string
	)
	closeBlock := func() error {
		if len(current) == 0 {
			return nil
		}
		if len(current) != NumStrings {
			return fmt.Errorf("%w: block %d has %d lines, want %d",
				ErrMalformedTab, len(blocks), len(current), NumStrings)
		}
		blocks = append(blocks, current)
		current = nil
		return nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			if err := closeBlock(); err != nil {
				return nil, err
			}
			continue
		}
		open := strings.IndexByte(line, '|')
		if open < 0 || len(line) < open+2 || line[len(line)-1] != '|' {
			return nil, fmt.Errorf("%w: line %q is not a tab line", ErrMalformedTab, line)
		}
		current = append(current, line[open+1:len(line)-1])
	}
	if err := closeBlock(); err != nil {
		return nil, err
	}
	return blocks, nil
}

// digitRuns returns [start, end) index pairs of consecutive digits.
func digitRuns(s string) [][2]int {
	var runs [][2]int
	start := -1
	for i := 0; i <= len(s); i++ {
		isDigit := i < len(s) && s[i] >= '0' && s[i] <= '9'
		switch {
		case isDigit && start < 0:
			start = i
		case !isDigit && start >= 0:
			runs = append(runs, [2]int{start, i})
			start = -1
		}
	}
	return runs
}
