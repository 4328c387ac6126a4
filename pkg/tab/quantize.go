package tab

import (
	"fmt"
	"iter"
	"math"
	"sort"
	"time"
)

// Onset is a note candidate before grid placement: a run of contiguous
// samples that all map to the same position.
type Onset struct {
	Time       float64 // seconds
	Duration   float64 // seconds
	Position   FretPosition
	Confidence float64 // highest confidence in the run
}

// GridSize returns the length of one 16th note in seconds.
func GridSize(tempo float64) float64 {
	return 60 / tempo / StepsPerBeat
}

// Segment maps each sample onto the fretboard and groups contiguous samples
// with the same position into onsets. Samples further apart than one and a
// half hops start a new onset. Unmappable samples are dropped and reported.
func Segment(samples iter.Seq[PitchSample], fb *Fretboard, hop time.Duration) ([]Onset, []Diagnostic) {
	hopSec := hop.Seconds()
	maxGap := 1.5 * hopSec

	var (
		onsets  []Onset
		diags   []Diagnostic
		current *Onset
		last    float64
	)
	flush := func() {
		if current == nil {
			return
		}
		current.Duration = last - current.Time + hopSec
		onsets = append(onsets, *current)
		current = nil
	}

	for s := range samples {
		pos, err := fb.Map(s.Frequency)
		if err != nil {
			flush()
			diags = append(diags, Diagnostic{
				Kind:    DiagUnmappablePitch,
				Time:    s.Time,
				Message: err.Error(),
			})
			continue
		}
		if current != nil && current.Position == pos && s.Time-last <= maxGap {
			last = s.Time
			current.Confidence = math.Max(current.Confidence, s.Confidence)
			continue
		}
		flush()
		current = &Onset{Time: s.Time, Position: pos, Confidence: s.Confidence}
		last = s.Time
	}
	flush()

	return onsets, diags
}

// Quantize places onsets on the 16th-note grid of tempo. With enabled set the
// onset times snap to the nearest grid boundary; otherwise times pass through
// and the grid only decides column placement and collisions. Onsets sharing
// a slot and a position merge into one event; onsets sharing a slot with
// different positions keep the more confident one and report the other.
// Onsets at or beyond MaxSteps are dropped with an out_of_range diagnostic.
// Quantizing an already quantized sequence changes nothing.
func Quantize(onsets []Onset, tempo float64, enabled bool) ([]NoteEvent, []Diagnostic) {
	if len(onsets) == 0 {
		return nil, nil
	}
	grid := GridSize(tempo)

	sorted := make([]Onset, len(onsets))
	copy(sorted, onsets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time < sorted[j].Time
	})

	var (
		placed []slot
		diags  []Diagnostic
	)
	for _, o := range sorted {
		pos := math.Round(o.Time / grid)
		if math.IsNaN(pos) || pos >= MaxSteps {
			diags = append(diags, Diagnostic{
				Kind:    DiagOutOfRange,
				Time:    o.Time,
				Message: fmt.Sprintf("onset at %.3fs lies past the last grid step (%d)", o.Time, MaxSteps),
			})
			continue
		}
		step := 0
		if pos > 0 {
			step = int(pos)
		}
		length := int(math.Min(math.Round(o.Duration/grid), MaxSteps))
		if length < 1 {
			length = 1
		}
		t := o.Time
		if enabled {
			t = float64(step) * grid
		}
		cur := slot{step: step, end: step + length, onset: o}
		cur.onset.Time = t

		if n := len(placed); n > 0 && placed[n-1].step == cur.step {
			prev := &placed[n-1]
			if prev.onset.Position == cur.onset.Position {
				prev.end = max(prev.end, cur.end)
				prev.onset.Confidence = math.Max(prev.onset.Confidence, cur.onset.Confidence)
				continue
			}
			kept, dropped := prev.onset, cur.onset
			if cur.onset.Confidence > prev.onset.Confidence {
				kept, dropped = cur.onset, prev.onset
				prev.onset = cur.onset
				prev.end = cur.end
			}
			diags = append(diags, Diagnostic{
				Kind: DiagAmbiguousQuantization,
				Time: kept.Time,
				Message: fmt.Sprintf("step %d: kept %s (confidence %.2f), dropped %s (confidence %.2f)",
					prev.step, kept.Position.Label(), kept.Confidence, dropped.Position.Label(), dropped.Confidence),
			})
			continue
		}
		placed = append(placed, cur)
	}

	events := make([]NoteEvent, len(placed))
	for i, p := range placed {
		end := p.end
		if i+1 < len(placed) && end > placed[i+1].step {
			end = placed[i+1].step
		}
		end = min(end, MaxSteps)
		if end <= p.step {
			end = p.step + 1
		}
		events[i] = NoteEvent{
			Time:       p.onset.Time,
			Step:       p.step,
			Duration:   StepBeats(end - p.step),
			Position:   p.onset.Position,
			Confidence: p.onset.Confidence,
		}
	}
	return events, diags
}

// Requantize runs already placed events through the quantizer again.
func Requantize(events []NoteEvent, tempo float64, enabled bool) ([]NoteEvent, []Diagnostic) {
	onsets := make([]Onset, len(events))
	for i, ev := range events {
		onsets[i] = ev.Onset(tempo)
	}
	return Quantize(onsets, tempo, enabled)
}

// slot is an onset placed on the grid, covering steps [step, end).
type slot struct {
	step  int
	end   int
	onset Onset
}
