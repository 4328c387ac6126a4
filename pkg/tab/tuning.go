package tab

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ReferenceA4 is the concert pitch all note frequencies derive from.
const ReferenceA4 = 440.0

var semitoneOffsets = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

// Tuning lists the open-string pitches, lowest string first, as note names
// with octave ("E2", "Eb2", "F#3").
type Tuning struct {
	Name    string   `json:"name"`
	Strings []string `json:"strings"`
}

// StandardTuning returns EADGBE.
func StandardTuning() Tuning {
	return Tuning{
		Name:    "standard",
		Strings: []string{"E2", "A2", "D3", "G3", "B3", "E4"},
	}
}

// ParseNote converts a note name such as "A4" or "C#3" into a MIDI note number.
func ParseNote(name string) (int, error) {
	name = strings.TrimSpace(name)
	if len(name) < 2 {
		return 0, fmt.Errorf("note %q too short", name)
	}
	offset, ok := semitoneOffsets[upper(name[0])]
	if !ok {
		return 0, fmt.Errorf("note %q: unknown letter %q", name, name[0])
	}
	rest := name[1:]
	switch rest[0] {
	case '#':
		offset++
		rest = rest[1:]
	case 'b':
		offset--
		rest = rest[1:]
	}
	octave, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("note %q: bad octave: %w", name, err)
	}
	return (octave+1)*12 + offset, nil
}

// MIDIFrequency returns the equal-tempered frequency of a MIDI note number.
func MIDIFrequency(note int) float64 {
	return ReferenceA4 * math.Pow(2, float64(note-69)/12)
}

// NoteFrequency parses a note name and returns its frequency in Hz.
func NoteFrequency(name string) (float64, error) {
	note, err := ParseNote(name)
	if err != nil {
		return 0, err
	}
	return MIDIFrequency(note), nil
}

// MIDINotes returns the open-string MIDI note numbers.
func (t Tuning) MIDINotes() ([]int, error) {
	if len(t.Strings) != NumStrings {
		return nil, fmt.Errorf("%w: %d strings, want %d", ErrInvalidTuning, len(t.Strings), NumStrings)
	}
	notes := make([]int, len(t.Strings))
	for i, s := range t.Strings {
		n, err := ParseNote(s)
		if err != nil {
			return nil, fmt.Errorf("%w: string %d: %v", ErrInvalidTuning, i, err)
		}
		if i > 0 && n <= notes[i-1] {
			return nil, fmt.Errorf("%w: string %d (%s) is not above string %d (%s)",
				ErrInvalidTuning, i, s, i-1, t.Strings[i-1])
		}
		notes[i] = n
	}
	return notes, nil
}

// Frequencies returns the open-string base frequencies, lowest first.
func (t Tuning) Frequencies() ([]float64, error) {
	notes, err := t.MIDINotes()
	if err != nil {
		return nil, err
	}
	freqs := make([]float64, len(notes))
	for i, n := range notes {
		freqs[i] = MIDIFrequency(n)
	}
	return freqs, nil
}

// Validate checks the six-string, strictly ascending invariant.
func (t Tuning) Validate() error {
	_, err := t.MIDINotes()
	return err
}

// Labels returns the line labels (note name without octave), lowest first.
func (t Tuning) Labels() []string {
	labels := make([]string, len(t.Strings))
	for i, s := range t.Strings {
		s = strings.TrimSpace(s)
		if s == "" {
			labels[i] = "?"
			continue
		}
		end := 1
		if len(s) > 1 && (s[1] == '#' || s[1] == 'b') {
			end = 2
		}
		labels[i] = string(upper(s[0])) + s[1:end]
	}
	return labels
}

func (t Tuning) String() string {
	return strings.Join(t.Strings, " ")
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}
