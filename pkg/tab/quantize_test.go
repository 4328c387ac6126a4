package tab

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tone returns samples every 10 ms in [start, end) at freq.
func tone(freq, start, end, confidence float64) []PitchSample {
	var out []PitchSample
	for i := 0; ; i++ {
		t := start + float64(i)*0.01
		if t >= end-1e-9 {
			break
		}
		out = append(out, PitchSample{Time: t, Frequency: freq, Confidence: confidence})
	}
	return out
}

func TestGridSize(t *testing.T) {
	assert.InDelta(t, 0.125, GridSize(120), 1e-12)
	assert.InDelta(t, 0.25, GridSize(60), 1e-12)
}

func TestSegment(t *testing.T) {
	fb := standardFretboard(t)

	var samples []PitchSample
	samples = append(samples, tone(82.41, 0, 0.1, 0.8)...)
	samples = append(samples, tone(110, 0.1, 0.2, 0.7)...)
	samples = append(samples, PitchSample{Time: 0.3, Frequency: 30, Confidence: 0.9})
	samples = append(samples, tone(82.41, 0.5, 0.6, 0.95)...)

	onsets, diags := Segment(Samples(samples), fb, 10*time.Millisecond)
	require.Len(t, onsets, 3)
	require.Len(t, diags, 1)

	assert.Equal(t, DiagUnmappablePitch, diags[0].Kind)
	assert.InDelta(t, 0.3, diags[0].Time, 1e-9)

	assert.Equal(t, FretPosition{String: 0, Fret: 0}, onsets[0].Position)
	assert.InDelta(t, 0.0, onsets[0].Time, 1e-9)
	assert.InDelta(t, 0.1, onsets[0].Duration, 1e-9)

	assert.Equal(t, FretPosition{String: 1, Fret: 0}, onsets[1].Position)
	assert.InDelta(t, 0.1, onsets[1].Time, 1e-9)
	assert.InDelta(t, 0.7, onsets[1].Confidence, 1e-9)

	assert.Equal(t, FretPosition{String: 0, Fret: 0}, onsets[2].Position)
	assert.InDelta(t, 0.5, onsets[2].Time, 1e-9)
	assert.InDelta(t, 0.95, onsets[2].Confidence, 1e-9)
}

func TestSegmentGapSplitsRun(t *testing.T) {
	fb := standardFretboard(t)
	samples := append(tone(110, 0, 0.05, 0.9), tone(110, 0.2, 0.25, 0.9)...)

	onsets, _ := Segment(Samples(samples), fb, 10*time.Millisecond)
	assert.Len(t, onsets, 2)
}

func TestQuantizeSnapsToGrid(t *testing.T) {
	pos := FretPosition{String: 1, Fret: 2}
	onsets := []Onset{
		{Time: 0.13, Duration: 0.24, Position: pos, Confidence: 0.8},
		{Time: 0.49, Duration: 0.5, Position: FretPosition{String: 2, Fret: 0}, Confidence: 0.8},
	}

	events, diags := Quantize(onsets, 120, true)
	require.Len(t, events, 2)
	assert.Empty(t, diags)

	assert.Equal(t, 1, events[0].Step)
	assert.InDelta(t, 0.125, events[0].Time, 1e-12)
	assert.Equal(t, 2, events[0].Steps())
	assert.Equal(t, Beats{Num: 1, Den: 2}, events[0].Duration)

	assert.Equal(t, 4, events[1].Step)
	assert.InDelta(t, 0.5, events[1].Time, 1e-12)
	assert.Equal(t, Beats{Num: 1, Den: 1}, events[1].Duration)
}

func TestQuantizeDisabledPassesTimesThrough(t *testing.T) {
	onsets := []Onset{
		{Time: 0.13, Duration: 0.125, Position: FretPosition{String: 0, Fret: 3}, Confidence: 0.8},
	}

	events, _ := Quantize(onsets, 120, false)
	require.Len(t, events, 1)
	assert.Equal(t, 0.13, events[0].Time)
	assert.Equal(t, 1, events[0].Step)
}

func TestQuantizeMergesSamePosition(t *testing.T) {
	pos := FretPosition{String: 3, Fret: 2}
	onsets := []Onset{
		{Time: 0.0, Duration: 0.05, Position: pos, Confidence: 0.9},
		{Time: 0.03, Duration: 0.3, Position: pos, Confidence: 0.6},
	}

	events, diags := Quantize(onsets, 120, true)
	require.Len(t, events, 1)
	assert.Empty(t, diags)
	assert.Equal(t, pos, events[0].Position)
	assert.Equal(t, 0.9, events[0].Confidence)
	assert.Equal(t, 2, events[0].Steps())
}

func TestQuantizeAmbiguousKeepsMoreConfident(t *testing.T) {
	low := FretPosition{String: 0, Fret: 5}
	high := FretPosition{String: 1, Fret: 7}

	tests := []struct {
		name   string
		onsets []Onset
		want   FretPosition
	}{
		{
			name: "later onset more confident",
			onsets: []Onset{
				{Time: 0.0, Duration: 0.1, Position: low, Confidence: 0.6},
				{Time: 0.02, Duration: 0.1, Position: high, Confidence: 0.9},
			},
			want: high,
		},
		{
			name: "earlier onset more confident",
			onsets: []Onset{
				{Time: 0.0, Duration: 0.1, Position: low, Confidence: 0.9},
				{Time: 0.02, Duration: 0.1, Position: high, Confidence: 0.6},
			},
			want: low,
		},
		{
			name: "tie keeps earlier",
			onsets: []Onset{
				{Time: 0.0, Duration: 0.1, Position: low, Confidence: 0.7},
				{Time: 0.02, Duration: 0.1, Position: high, Confidence: 0.7},
			},
			want: low,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, diags := Quantize(tt.onsets, 120, true)
			require.Len(t, events, 1)
			require.Len(t, diags, 1)
			assert.Equal(t, tt.want, events[0].Position)
			assert.Equal(t, DiagAmbiguousQuantization, diags[0].Kind)
		})
	}
}

func TestQuantizeClampsOverlap(t *testing.T) {
	onsets := []Onset{
		{Time: 0.0, Duration: 1.0, Position: FretPosition{String: 0, Fret: 0}, Confidence: 0.9},
		{Time: 0.25, Duration: 0.25, Position: FretPosition{String: 0, Fret: 2}, Confidence: 0.9},
	}

	events, _ := Quantize(onsets, 120, true)
	require.Len(t, events, 2)
	assert.Equal(t, 2, events[0].Steps())
	assert.Equal(t, 2, events[1].Steps())
}

func TestQuantizeSortsInput(t *testing.T) {
	onsets := []Onset{
		{Time: 0.5, Duration: 0.125, Position: FretPosition{String: 0, Fret: 1}, Confidence: 0.9},
		{Time: 0.0, Duration: 0.125, Position: FretPosition{String: 0, Fret: 0}, Confidence: 0.9},
	}

	events, _ := Quantize(onsets, 120, true)
	require.Len(t, events, 2)
	assert.Equal(t, 0, events[0].Step)
	assert.Equal(t, 4, events[1].Step)
}

func TestQuantizeEmpty(t *testing.T) {
	events, diags := Quantize(nil, 120, true)
	assert.Empty(t, events)
	assert.Empty(t, diags)
}

func TestQuantizeIdempotent(t *testing.T) {
	onsets := []Onset{
		{Time: 0.01, Duration: 0.2, Position: FretPosition{String: 0, Fret: 0}, Confidence: 0.9},
		{Time: 0.07, Duration: 0.1, Position: FretPosition{String: 0, Fret: 0}, Confidence: 0.5},
		{Time: 0.26, Duration: 0.9, Position: FretPosition{String: 2, Fret: 4}, Confidence: 0.8},
		{Time: 0.3, Duration: 0.1, Position: FretPosition{String: 3, Fret: 1}, Confidence: 0.95},
		{Time: 0.61, Duration: 0.05, Position: FretPosition{String: 5, Fret: 12}, Confidence: 0.7},
		{Time: 1.37, Duration: 0.4, Position: FretPosition{String: 4, Fret: 10}, Confidence: 0.6},
	}

	for _, enabled := range []bool{true, false} {
		t.Run(fmt.Sprintf("quantize=%v", enabled), func(t *testing.T) {
			for _, tempo := range []float64{60, 97, 120, 180} {
				first, _ := Quantize(onsets, tempo, enabled)
				second, diags := Requantize(first, tempo, enabled)
				assert.Empty(t, diags, "tempo %v", tempo)
				assert.Equal(t, first, second, "tempo %v", tempo)

				third, diags := Requantize(second, tempo, enabled)
				assert.Empty(t, diags, "tempo %v", tempo)
				assert.Equal(t, second, third, "tempo %v", tempo)
			}
		})
	}
}

func TestQuantizeDropsOnsetsPastLastStep(t *testing.T) {
	onsets := []Onset{
		{Time: 0, Duration: 0.25, Position: FretPosition{String: 1, Fret: 0}, Confidence: 0.9},
		{Time: 2e6, Duration: 0.25, Position: FretPosition{String: 1, Fret: 0}, Confidence: 0.9},
		{Time: 1e300, Duration: 0.25, Position: FretPosition{String: 1, Fret: 0}, Confidence: 0.9},
	}

	events, diags := Quantize(onsets, 120, true)
	require.Len(t, events, 1)
	assert.Equal(t, 0, events[0].Step)
	require.Len(t, diags, 2)
	for _, d := range diags {
		assert.Equal(t, DiagOutOfRange, d.Kind)
	}
}

func TestQuantizeCapsLongNotes(t *testing.T) {
	onsets := []Onset{
		{Time: 0, Duration: 1e9, Position: FretPosition{String: 0, Fret: 3}, Confidence: 0.9},
	}

	events, _ := Quantize(onsets, 120, true)
	require.Len(t, events, 1)
	doc := &Document{Tuning: StandardTuning(), Tempo: 120, Events: events}
	assert.Equal(t, MaxSteps, doc.TotalSteps())
}
