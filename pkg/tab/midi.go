package tab

import (
	"bytes"
	"errors"
	"fmt"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// MIDI export settings.
const (
	TicksPerQuarter = 480
	GuitarProgram   = 25 // General MIDI "Acoustic Guitar (steel)", zero based
	midiChannel     = 0
	midiVelocity    = 100
)

// GenerateMIDI writes the document as a single-track standard MIDI file.
// Each event sounds the open-string pitch plus its fret for the event's
// duration.
func GenerateMIDI(doc *Document) ([]byte, error) {
	if doc == nil {
		return nil, errors.New("nil document")
	}
	if doc.Tempo <= 0 {
		return nil, fmt.Errorf("%w: %v BPM", ErrInvalidTempo, doc.Tempo)
	}
	open, err := doc.Tuning.MIDINotes()
	if err != nil {
		return nil, err
	}

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(TicksPerQuarter)

	var track smf.Track
	track.Add(0, smf.MetaTrackSequenceName("guitar"))
	track.Add(0, smf.MetaTempo(doc.Tempo))
	track.Add(0, smf.MetaMeter(4, 4))
	track.Add(0, midi.ProgramChange(midiChannel, GuitarProgram))

	ticksPerStep := uint32(TicksPerQuarter / StepsPerBeat)

	if total := doc.TotalSteps(); total > MaxSteps {
		return nil, fmt.Errorf("%w: %d steps, limit %d", ErrTooLong, total, MaxSteps)
	}

	var currentTick uint32
	for _, ev := range doc.Events {
		if ev.Step < 0 {
			return nil, fmt.Errorf("%w: event %s at step %d", ErrInvalidConfig, ev.Position.Label(), ev.Step)
		}
		if ev.Position.String < 0 || ev.Position.String >= len(open) {
			return nil, fmt.Errorf("event at step %d: string %d out of range", ev.Step, ev.Position.String)
		}
		key := open[ev.Position.String] + ev.Position.Fret
		if key < 0 || key > 127 {
			return nil, fmt.Errorf("event at step %d: MIDI note %d out of range", ev.Step, key)
		}

		startTick := uint32(ev.Step) * ticksPerStep
		if startTick < currentTick {
			startTick = currentTick
		}
		length := uint32(max(ev.Steps(), 1)) * ticksPerStep

		track.Add(startTick-currentTick, midi.NoteOn(midiChannel, uint8(key), midiVelocity))
		track.Add(length, midi.NoteOff(midiChannel, uint8(key)))
		currentTick = startTick + length
	}
	track.Close(0)

	if err := s.Add(track); err != nil {
		return nil, fmt.Errorf("failed to add track: %w", err)
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write MIDI: %w", err)
	}
	return buf.Bytes(), nil
}
