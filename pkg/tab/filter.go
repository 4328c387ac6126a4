package tab

import (
	"iter"
	"math"
	"slices"
)

// Samples adapts a slice to the sequence type the core consumes.
func Samples(s []PitchSample) iter.Seq[PitchSample] {
	return slices.Values(s)
}

// FilterSamples yields the samples whose confidence reaches threshold and
// whose frequency and time are usable numbers (positive frequency,
// non-negative time). The result is lazy and can be
// ranged over again, re-reading seq each time.
func FilterSamples(seq iter.Seq[PitchSample], threshold float64) iter.Seq[PitchSample] {
	return func(yield func(PitchSample) bool) {
		for s := range seq {
			if !voiced(s, threshold) {
				continue
			}
			if !yield(s) {
				return
			}
		}
	}
}

func voiced(s PitchSample, threshold float64) bool {
	if s.Confidence < threshold || math.IsNaN(s.Confidence) {
		return false
	}
	if s.Time < 0 || math.IsInf(s.Time, 0) || math.IsNaN(s.Time) {
		return false
	}
	return s.Frequency > 0 && !math.IsInf(s.Frequency, 0) && !math.IsNaN(s.Frequency)
}
