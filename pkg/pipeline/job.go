package pipeline

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/james-see/pitch2tab/pkg/config"
)

// Job is a planned run of the pipeline for one track.
type Job struct {
	ID         string             `json:"id"`
	Input      string             `json:"input"`
	Source     SourceKind         `json:"source"`
	Track      string             `json:"track"`
	CreatedAt  time.Time          `json:"created_at"`
	Audio      string             `json:"audio"`     // acquired audio file
	StemsDir   string             `json:"stems_dir"` // <output>/<model>/<track>
	Stems      map[string]string  `json:"stems"`
	GuitarStem string             `json:"guitar_stem"`
	PitchTrack string             `json:"pitch_track"`
	Tab        string             `json:"tab"`
	MIDI       string             `json:"midi"`
	Backing    string             `json:"backing"`
	Separation Separation         `json:"separation"`
	Pitch      Pitch              `json:"pitch"`
	BackingMix map[string]float64 `json:"backing_mix"`
}

// Separation is the source separation invocation for a job.
type Separation struct {
	Model   string  `json:"model"`
	Device  string  `json:"device"`
	Shifts  int     `json:"shifts"`
	Overlap float64 `json:"overlap"`
}

// Pitch is the pitch tracker invocation for a job.
type Pitch struct {
	ModelCapacity       string  `json:"model_capacity"`
	HopMS               int64   `json:"hop_ms"`
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	SampleRate          int     `json:"sample_rate"`
}

// NewPlan classifies input and lays out every path the stages use.
func NewPlan(cfg *config.Config, input string) (*Job, error) {
	kind, err := DetectSource(cfg, input)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	track := TrackName(input, kind, id)

	audio := input
	if kind != SourceFile {
		audio = filepath.Join(cfg.Paths.InputDir, track+"."+cfg.Download.Format)
	}

	stemsDir := filepath.Join(cfg.Paths.OutputDir, cfg.Separation.Model, track)
	stems := make(map[string]string, len(cfg.Separation.Stems))
	for _, s := range cfg.Separation.Stems {
		stems[s] = filepath.Join(stemsDir, s+".wav")
	}
	guitar := stems[cfg.Separation.GuitarStem]

	out := filepath.Join(cfg.Paths.OutputDir, track)
	return &Job{
		ID:         id,
		Input:      input,
		Source:     kind,
		Track:      track,
		CreatedAt:  time.Now().UTC(),
		Audio:      audio,
		StemsDir:   stemsDir,
		Stems:      stems,
		GuitarStem: guitar,
		PitchTrack: strings.TrimSuffix(guitar, ".wav") + ".f0.csv",
		Tab:        out + ".tab.txt",
		MIDI:       out + ".mid",
		Backing:    out + ".backing." + cfg.Backing.Format,
		Separation: Separation{
			Model:   cfg.Separation.Model,
			Device:  cfg.Separation.Device,
			Shifts:  cfg.Separation.Shifts,
			Overlap: cfg.Separation.Overlap,
		},
		Pitch: Pitch{
			ModelCapacity:       cfg.Pitch.ModelCapacity,
			HopMS:               cfg.Pitch.Hop.Milliseconds(),
			ConfidenceThreshold: cfg.Pitch.ConfidenceThreshold,
			SampleRate:          cfg.Audio.TargetSampleRate,
		},
		BackingMix: cfg.BackingMix(),
	}, nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// TrackName derives a file-system safe track name: the file's base name, the
// video or track ID of a URL, or the job ID as a last resort.
func TrackName(input string, kind SourceKind, fallback string) string {
	var name string
	switch kind {
	case SourceFile:
		base := filepath.Base(input)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	case SourceYouTube, SourceSpotify:
		if u, err := url.Parse(strings.TrimSpace(input)); err == nil {
			if v := u.Query().Get("v"); v != "" {
				name = v
			} else {
				name = filepath.Base(strings.TrimSuffix(u.Path, "/"))
			}
		}
	}
	name = strings.Trim(unsafeChars.ReplaceAllString(name, "_"), "._")
	if name == "" || name == "watch" {
		return fallback
	}
	return name
}

// Save writes the job as indented JSON, creating the parent directory.
func (j *Job) Save(path string) error {
	data, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create job directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write job: %w", err)
	}
	return nil
}
