// Package tab turns a pitch track into guitar tablature.
//
// The package is a pure in-memory transformation: a sequence of PitchSample
// values goes in, a Document and its ASCII rendering come out. It performs no
// I/O and holds no package-level mutable state, so independent calls may run
// concurrently with different configurations.
package tab

import (
	"fmt"
	"time"
)

// NumStrings is the number of strings on a standard guitar.
const NumStrings = 6

// StepsPerBeat is the quantization grid resolution (16th notes).
const StepsPerBeat = 4

// MaxSteps bounds the grid length of a document. At 120 BPM it is a little
// over two hours of music.
const MaxSteps = 1 << 16

// PitchSample is one frame reported by the pitch tracker.
type PitchSample struct {
	Time       float64 `json:"time"`       // seconds from the start of the stem
	Frequency  float64 `json:"frequency"`  // Hz
	Confidence float64 `json:"confidence"` // 0..1
}

// FretPosition is a string/fret pair. String 0 is the lowest string.
type FretPosition struct {
	String int `json:"string"`
	Fret   int `json:"fret"`
}

// Label formats the position as "string:fret".
func (p FretPosition) Label() string {
	return fmt.Sprintf("%d:%d", p.String, p.Fret)
}

// NoteEvent is a note placed on the tab timeline.
type NoteEvent struct {
	Time       float64      `json:"time"` // seconds, snapped to the grid when quantizing
	Step       int          `json:"step"` // 16th-note grid index
	Duration   Beats        `json:"duration"`
	Position   FretPosition `json:"position"`
	Confidence float64      `json:"confidence"`
}

// Steps returns the event length in grid steps.
func (e NoteEvent) Steps() int {
	if e.Duration.Den == 0 {
		return 0
	}
	return e.Duration.Num * StepsPerBeat / e.Duration.Den
}

// Onset converts the event back into quantizer input.
func (e NoteEvent) Onset(tempo float64) Onset {
	return Onset{
		Time:       e.Time,
		Duration:   float64(e.Steps()) * GridSize(tempo),
		Position:   e.Position,
		Confidence: e.Confidence,
	}
}

// Document is a synthesized tab: events in time order plus the metadata
// needed to render them.
type Document struct {
	Tuning      Tuning       `json:"tuning"`
	Tempo       float64      `json:"tempo"`
	Events      []NoteEvent  `json:"events"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// TotalSteps returns the number of grid steps covered by the document.
func (d *Document) TotalSteps() int {
	total := 0
	for _, ev := range d.Events {
		if end := ev.Step + ev.Steps(); end > total {
			total = end
		}
	}
	return total
}

// DiagnosticKind classifies a recovered condition.
type DiagnosticKind string

const (
	DiagUnmappablePitch       DiagnosticKind = "unmappable_pitch"
	DiagAmbiguousQuantization DiagnosticKind = "ambiguous_quantization"
	DiagEmptyInput            DiagnosticKind = "empty_input"
	DiagOutOfRange            DiagnosticKind = "out_of_range"
)

// Diagnostic records a non-fatal condition recovered during synthesis.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Time    float64        `json:"time"`
	Message string         `json:"message"`
}

// Config holds every setting the synthesis core reads. It is passed by value
// into each entry point.
type Config struct {
	Tuning              Tuning
	ConfidenceThreshold float64
	MinFret             int
	MaxFret             int
	ToleranceCents      float64
	Quantize            bool
	Tempo               float64 // beats per minute
	Hop                 time.Duration
	Width               int
	Fill                byte
}

// DefaultConfig returns the stock settings: standard tuning, 120 BPM, frets
// 0-24, 16th-note quantization and 80 column output.
func DefaultConfig() Config {
	return Config{
		Tuning:              StandardTuning(),
		ConfidenceThreshold: 0.5,
		MinFret:             0,
		MaxFret:             24,
		ToleranceCents:      50,
		Quantize:            true,
		Tempo:               120,
		Hop:                 10 * time.Millisecond,
		Width:               80,
		Fill:                '-',
	}
}

// RenderOptions returns the renderer settings of c.
func (c Config) RenderOptions() RenderOptions {
	return RenderOptions{Width: c.Width, Fill: c.Fill}
}
