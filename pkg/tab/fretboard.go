package tab

import (
	"fmt"
	"math"
)

// Fretboard maps frequencies to playable string/fret positions for one tuning.
type Fretboard struct {
	tuning    Tuning
	open      []int     // open-string MIDI notes
	base      []float64 // open-string frequencies
	minFret   int
	maxFret   int
	tolerance float64 // semitones
}

// NewFretboard validates the tuning and fret range and returns a mapper.
// toleranceCents bounds the distance between a frequency and the fretted
// pitch it is mapped to; 50 cents is half a semitone.
func NewFretboard(tuning Tuning, minFret, maxFret int, toleranceCents float64) (*Fretboard, error) {
	open, err := tuning.MIDINotes()
	if err != nil {
		return nil, err
	}
	if minFret < 0 || maxFret < minFret {
		return nil, fmt.Errorf("%w: fret range [%d, %d]", ErrInvalidConfig, minFret, maxFret)
	}
	if toleranceCents <= 0 || toleranceCents > 50 {
		return nil, fmt.Errorf("%w: tolerance %.1f cents outside (0, 50]", ErrInvalidConfig, toleranceCents)
	}
	base := make([]float64, len(open))
	for i, n := range open {
		base[i] = MIDIFrequency(n)
	}
	return &Fretboard{
		tuning:    tuning,
		open:      open,
		base:      base,
		minFret:   minFret,
		maxFret:   maxFret,
		tolerance: toleranceCents / 100,
	}, nil
}

// Tuning returns the tuning the fretboard was built for.
func (f *Fretboard) Tuning() Tuning {
	return f.tuning
}

// Map returns the position with the lowest fret that plays freq within
// tolerance. Equal frets resolve to the lowest string index.
func (f *Fretboard) Map(freq float64) (FretPosition, error) {
	best := FretPosition{String: -1}
	if freq > 0 && !math.IsInf(freq, 0) {
		for s, base := range f.base {
			semis := 12 * math.Log2(freq/base)
			fret := int(math.Round(semis))
			if fret < f.minFret || fret > f.maxFret {
				continue
			}
			if math.Abs(semis-float64(fret)) > f.tolerance {
				continue
			}
			if best.String < 0 || fret < best.Fret {
				best = FretPosition{String: s, Fret: fret}
			}
		}
	}
	if best.String < 0 {
		return FretPosition{}, fmt.Errorf("%w: %.2f Hz outside %s frets %d-%d",
			ErrUnmappablePitch, freq, f.tuning, f.minFret, f.maxFret)
	}
	return best, nil
}

// Pitch returns the MIDI note number sounded at pos.
func (f *Fretboard) Pitch(pos FretPosition) int {
	return f.open[pos.String] + pos.Fret
}

// Frequency returns the equal-tempered frequency sounded at pos.
func (f *Fretboard) Frequency(pos FretPosition) float64 {
	return MIDIFrequency(f.Pitch(pos))
}
