package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/james-see/pitch2tab/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	root := t.TempDir()
	cfg.Paths.InputDir = filepath.Join(root, "input")
	cfg.Paths.OutputDir = filepath.Join(root, "output")
	return cfg
}

func TestDetectSource(t *testing.T) {
	cfg := testConfig(t)

	tests := []struct {
		input string
		want  SourceKind
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", SourceYouTube},
		{"https://youtu.be/dQw4w9WgXcQ", SourceYouTube},
		{"https://youtube.com/shorts/abc123", SourceYouTube},
		{"https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC", SourceSpotify},
		{"songs/solo.wav", SourceFile},
		{"/tmp/Take 1.FLAC", SourceFile},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := DetectSource(cfg, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectSourceUnsupported(t *testing.T) {
	cfg := testConfig(t)
	for _, input := range []string{"", "notes.txt", "https://example.com/song.mp3", "https://vimeo.com/123"} {
		_, err := DetectSource(cfg, input)
		assert.ErrorIs(t, err, ErrUnsupportedSource, input)
	}
}

func TestNewDetectorBadPattern(t *testing.T) {
	cfg := testConfig(t)
	cfg.Download.SpotifyPatterns = []string{"("}
	_, err := NewDetector(cfg)
	assert.Error(t, err)
}

func TestNewPlanFile(t *testing.T) {
	cfg := testConfig(t)

	job, err := NewPlan(cfg, "/music/my solo.wav")
	require.NoError(t, err)

	_, err = uuid.Parse(job.ID)
	assert.NoError(t, err)
	assert.Equal(t, SourceFile, job.Source)
	assert.Equal(t, "my_solo", job.Track)
	assert.Equal(t, "/music/my solo.wav", job.Audio)

	stems := filepath.Join(cfg.Paths.OutputDir, "htdemucs_ft", "my_solo")
	assert.Equal(t, stems, job.StemsDir)
	assert.Len(t, job.Stems, 4)
	assert.Equal(t, filepath.Join(stems, "other.wav"), job.GuitarStem)
	assert.Equal(t, filepath.Join(stems, "other.f0.csv"), job.PitchTrack)
	assert.Equal(t, filepath.Join(cfg.Paths.OutputDir, "my_solo.tab.txt"), job.Tab)
	assert.Equal(t, filepath.Join(cfg.Paths.OutputDir, "my_solo.mid"), job.MIDI)
	assert.Equal(t, filepath.Join(cfg.Paths.OutputDir, "my_solo.backing.wav"), job.Backing)
	assert.Equal(t, int64(10), job.Pitch.HopMS)
	assert.Zero(t, job.BackingMix["other"])
}

func TestNewPlanURL(t *testing.T) {
	cfg := testConfig(t)

	job, err := NewPlan(cfg, "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "dQw4w9WgXcQ", job.Track)
	assert.Equal(t, filepath.Join(cfg.Paths.InputDir, "dQw4w9WgXcQ.mp3"), job.Audio)

	job, err = NewPlan(cfg, "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC?si=x")
	require.NoError(t, err)
	assert.Equal(t, SourceSpotify, job.Source)
	assert.Equal(t, "4uLU6hMCjMI75M1A2tKUQC", job.Track)
}

func TestNewPlanUniqueIDs(t *testing.T) {
	cfg := testConfig(t)
	a, err := NewPlan(cfg, "a.mp3")
	require.NoError(t, err)
	b, err := NewPlan(cfg, "a.mp3")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, a.Tab, b.Tab)
}

func TestTrackNameFallback(t *testing.T) {
	assert.Equal(t, "job-1", TrackName("https://www.youtube.com/watch", SourceYouTube, "job-1"))
	assert.Equal(t, "job-1", TrackName("...mp3", SourceFile, "job-1"))
}

func TestJobSave(t *testing.T) {
	cfg := testConfig(t)
	job, err := NewPlan(cfg, "riff.ogg")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "jobs", job.ID+".json")
	require.NoError(t, job.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded Job
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, job.ID, decoded.ID)
	assert.Equal(t, job.Stems, decoded.Stems)
}
