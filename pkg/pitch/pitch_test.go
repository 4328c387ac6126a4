package pitch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/james-see/pitch2tab/pkg/tab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		filename string
		expected Format
	}{
		{"vocals.f0.csv", FormatCSV},
		{"track.CSV", FormatCSV},
		{"track.json", FormatJSON},
		{"melody.mid", FormatMIDI},
		{"melody.midi", FormatMIDI},
		{"track.txt", FormatUnknown},
		{"track", FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := DetectFormat(tt.filename); got != tt.expected {
				t.Errorf("DetectFormat(%q) = %v, want %v", tt.filename, got, tt.expected)
			}
		})
	}
}

func TestDetectFormatFromContent(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		expected Format
	}{
		{"MIDI file", "MThd\x00\x00\x00\x06", FormatMIDI},
		{"JSON array", "  [{\"time\":0}]", FormatJSON},
		{"JSON object", "{\"samples\":[]}", FormatJSON},
		{"CSV", "time,frequency,confidence\n", FormatCSV},
		{"empty", "   ", FormatUnknown},
		{"plain text", "hello", FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFormatFromContent([]byte(tt.data)); got != tt.expected {
				t.Errorf("DetectFormatFromContent() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestReadCSV(t *testing.T) {
	input := "time,frequency,confidence\n0.00,82.41,0.91\n0.01,82.50,0.88\n\n0.02,0,0.05\n"

	samples, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, samples, 3)
	assert.Equal(t, tab.PitchSample{Time: 0.01, Frequency: 82.5, Confidence: 0.88}, samples[1])
}

func TestReadCSVColumnOrder(t *testing.T) {
	input := "confidence, time, frequency, extra\n0.9, 0.5, 110, x\n"

	samples, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []tab.PitchSample{{Time: 0.5, Frequency: 110, Confidence: 0.9}}, samples)
}

func TestReadCSVWithoutHeader(t *testing.T) {
	samples, err := ReadCSV(strings.NewReader("0,110,0.9\n0.01,110,0.8\n"))
	require.NoError(t, err)
	assert.Len(t, samples, 2)
}

func TestReadCSVMalformed(t *testing.T) {
	tests := map[string]string{
		"missing column": "time,frequency\n0,110\n",
		"bad number":     "0,abc,0.9\n0.01,110,0.9\n",
		"short row":      "time,frequency,confidence\n0,110\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(input))
			assert.ErrorIs(t, err, ErrMalformedTrack)
		})
	}
}

func TestReadJSON(t *testing.T) {
	arr := `[{"time":0,"frequency":110,"confidence":0.9},{"time":0.01,"frequency":110,"confidence":0.7}]`
	samples, err := ReadJSON(strings.NewReader(arr))
	require.NoError(t, err)
	assert.Len(t, samples, 2)

	obj := `{"hop":0.01,"samples":[{"time":0,"frequency":82.41,"confidence":1}]}`
	samples, err = ReadJSON(strings.NewReader(obj))
	require.NoError(t, err)
	assert.Equal(t, []tab.PitchSample{{Time: 0, Frequency: 82.41, Confidence: 1}}, samples)

	_, err = ReadJSON(strings.NewReader(`{"samples":`))
	assert.ErrorIs(t, err, ErrMalformedTrack)
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "guitar.f0.csv")
	require.NoError(t, os.WriteFile(path, []byte("time,frequency,confidence\n0,110,0.9\n"), 0644))

	samples, err := ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, samples, 1)

	_, err = ReadFile(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)

	unknown := filepath.Join(dir, "track.dat")
	require.NoError(t, os.WriteFile(unknown, []byte("\x00\x01\x02"), 0644))
	_, err = ReadFile(unknown)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestReadMIDIRoundTrip(t *testing.T) {
	var in []tab.PitchSample
	for i, freq := range []float64{82.41, 98.00, 110.0} {
		for k := 0; k < 45; k++ {
			in = append(in, tab.PitchSample{Time: float64(i)*0.5 + float64(k)*0.01, Frequency: freq, Confidence: 0.9})
		}
	}
	doc, err := tab.Synthesize(tab.Samples(in), tab.DefaultConfig())
	require.NoError(t, err)
	require.Len(t, doc.Events, 3)

	data, err := tab.GenerateMIDI(doc)
	require.NoError(t, err)

	samples, err := ReadMIDI(data, DefaultHop)
	require.NoError(t, err)
	require.Len(t, samples, 150)
	assert.InDelta(t, 0.5, samples[50].Time, 1e-9)

	again, err := tab.Synthesize(tab.Samples(samples), tab.DefaultConfig())
	require.NoError(t, err)
	require.Len(t, again.Events, len(doc.Events))
	for i := range doc.Events {
		assert.Equal(t, doc.Events[i].Step, again.Events[i].Step)
		assert.Equal(t, doc.Events[i].Position, again.Events[i].Position)
		assert.Equal(t, doc.Events[i].Duration, again.Events[i].Duration)
	}
}

func TestReadMIDIInvalid(t *testing.T) {
	_, err := ReadMIDI([]byte("not midi"), DefaultHop)
	assert.Error(t, err)

	_, err = ReadMIDI(nil, 0)
	assert.Error(t, err)
}

func TestCheckHop(t *testing.T) {
	var samples []tab.PitchSample
	for i := 0; i < 20; i++ {
		samples = append(samples, tab.PitchSample{Time: float64(i) * 0.01})
	}

	report := CheckHop(samples, 10*time.Millisecond)
	assert.Equal(t, 10*time.Millisecond, report.Measured)
	assert.False(t, report.Deviates)
	assert.Zero(t, report.Unordered)

	report = CheckHop(samples, 5*time.Millisecond)
	assert.True(t, report.Deviates)

	samples = append(samples, tab.PitchSample{Time: 0.05})
	report = CheckHop(samples, 10*time.Millisecond)
	assert.Equal(t, 1, report.Unordered)

	report = CheckHop(samples[:1], 10*time.Millisecond)
	assert.Zero(t, report.Measured)
}
