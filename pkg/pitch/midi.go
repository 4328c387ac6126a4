package pitch

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/james-see/pitch2tab/pkg/tab"
	"gitlab.com/gomidi/midi/v2/smf"
)

// DefaultHop is the frame spacing of the estimator's default configuration.
const DefaultHop = 10 * time.Millisecond

// ReadMIDI renders the notes of a standard MIDI file as a pitch track: one
// fully confident sample per hop while a note sounds. Overlapping notes keep
// the most recent one, giving a monophonic line.
func ReadMIDI(data []byte, hop time.Duration) (samples []tab.PitchSample, err error) {
	// smf can panic on truncated input.
	defer func() {
		if r := recover(); r != nil {
			samples, err = nil, fmt.Errorf("failed to parse MIDI: %v", r)
		}
	}()

	if hop <= 0 {
		return nil, fmt.Errorf("invalid hop %v", hop)
	}
	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse MIDI: %w", err)
	}

	ticksPerQuarter := 480.0
	if mt, ok := s.TimeFormat.(smf.MetricTicks); ok {
		ticksPerQuarter = float64(mt.Resolution())
	}

	type note struct {
		start, end float64 // ticks
		key        uint8
	}
	type tempoChange struct {
		tick       float64
		sec        float64
		secPerTick float64
	}

	// Format 1 files keep tempo changes in the first track, so they are
	// gathered from every track before any note is timed.
	changes := []tempoChange{{secPerTick: 0.5 / ticksPerQuarter}}
	for _, track := range s.Tracks {
		var tick float64
		for _, ev := range track {
			tick += float64(ev.Delta)
			msg := ev.Message
			if len(msg) >= 6 && msg[0] == 0xFF && msg[1] == 0x51 && msg[2] == 0x03 {
				usPerBeat := uint32(msg[3])<<16 | uint32(msg[4])<<8 | uint32(msg[5])
				if usPerBeat > 0 {
					changes = append(changes, tempoChange{tick: tick, secPerTick: float64(usPerBeat) / 1e6 / ticksPerQuarter})
				}
			}
		}
	}
	sort.SliceStable(changes, func(i, j int) bool { return changes[i].tick < changes[j].tick })
	for i := 1; i < len(changes); i++ {
		prev := changes[i-1]
		changes[i].sec = prev.sec + (changes[i].tick-prev.tick)*prev.secPerTick
	}
	seconds := func(tick float64) float64 {
		i := sort.Search(len(changes), func(i int) bool { return changes[i].tick > tick }) - 1
		c := changes[max(i, 0)]
		return c.sec + (tick-c.tick)*c.secPerTick
	}

	var notes []note
	for _, track := range s.Tracks {
		var tick float64
		open := map[uint8]float64{}
		for _, ev := range track {
			tick += float64(ev.Delta)
			msg := ev.Message
			if len(msg) < 3 {
				continue
			}
			status, key, velocity := msg[0]&0xF0, msg[1], msg[2]
			switch {
			case status == 0x90 && velocity > 0:
				open[key] = tick
			case status == 0x80 || (status == 0x90 && velocity == 0):
				if start, ok := open[key]; ok {
					notes = append(notes, note{start: start, end: tick, key: key})
					delete(open, key)
				}
			}
		}
	}
	sort.SliceStable(notes, func(i, j int) bool { return notes[i].start < notes[j].start })

	hopSec := hop.Seconds()
	for i, n := range notes {
		start, end := seconds(n.start), seconds(n.end)
		if i+1 < len(notes) {
			end = min(end, seconds(notes[i+1].start))
		}
		freq := tab.MIDIFrequency(int(n.key))
		for k := 0; ; k++ {
			t := start + float64(k)*hopSec
			if t >= end-1e-9 {
				break
			}
			samples = append(samples, tab.PitchSample{Time: t, Frequency: freq, Confidence: 1})
		}
	}
	return samples, nil
}
