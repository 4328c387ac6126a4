package tab

import (
	"errors"
	"fmt"
	"iter"
	"math"
)

// Validate checks every setting Synthesize and Render depend on.
func (c Config) Validate() error {
	var errs []error
	if err := c.Tuning.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Tempo <= 0 || math.IsInf(c.Tempo, 0) || math.IsNaN(c.Tempo) {
		errs = append(errs, fmt.Errorf("%w: %v BPM", ErrInvalidTempo, c.Tempo))
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		errs = append(errs, fmt.Errorf("%w: confidence threshold %v outside [0, 1]", ErrInvalidConfig, c.ConfidenceThreshold))
	}
	if c.MinFret < 0 || c.MaxFret < c.MinFret {
		errs = append(errs, fmt.Errorf("%w: fret range [%d, %d]", ErrInvalidConfig, c.MinFret, c.MaxFret))
	}
	if c.ToleranceCents <= 0 || c.ToleranceCents > 50 {
		errs = append(errs, fmt.Errorf("%w: tolerance %v cents outside (0, 50]", ErrInvalidConfig, c.ToleranceCents))
	}
	if c.Hop <= 0 {
		errs = append(errs, fmt.Errorf("%w: hop length %v", ErrInvalidConfig, c.Hop))
	}
	if c.Width <= 0 {
		errs = append(errs, fmt.Errorf("%w: %d columns", ErrInvalidWidth, c.Width))
	}
	return errors.Join(errs...)
}

// Synthesize converts a pitch track into a tab document. The configuration is
// validated before any sample is read; every later problem (unmappable
// pitches, colliding onsets, silence) is recorded as a diagnostic instead of
// failing the call.
func Synthesize(samples iter.Seq[PitchSample], cfg Config) (*Document, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	fb, err := NewFretboard(cfg.Tuning, cfg.MinFret, cfg.MaxFret, cfg.ToleranceCents)
	if err != nil {
		return nil, err
	}

	onsets, diags := Segment(FilterSamples(samples, cfg.ConfidenceThreshold), fb, cfg.Hop)
	events, qdiags := Quantize(onsets, cfg.Tempo, cfg.Quantize)
	diags = append(diags, qdiags...)

	if len(events) == 0 {
		events = []NoteEvent{}
		diags = append(diags, Diagnostic{
			Kind:    DiagEmptyInput,
			Message: fmt.Sprintf("no playable samples at confidence >= %.2f", cfg.ConfidenceThreshold),
		})
	}

	return &Document{
		Tuning:      cfg.Tuning,
		Tempo:       cfg.Tempo,
		Events:      events,
		Diagnostics: diags,
	}, nil
}

// CountDiagnostics tallies diagnostics by kind.
func (d *Document) CountDiagnostics() map[DiagnosticKind]int {
	counts := make(map[DiagnosticKind]int)
	for _, diag := range d.Diagnostics {
		counts[diag.Kind]++
	}
	return counts
}
