// Package config holds every setting of the tab generation pipeline.
//
// Values come from Default or from Load, which reads environment variables
// (a .env file is loaded by the binaries before Load runs). A *Config is
// passed explicitly to whatever needs it; there is no global instance.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/james-see/pitch2tab/pkg/tab/tunings"
)

// Config holds the application configuration
type Config struct {
	Paths      Paths
	Audio      Audio
	Download   Download
	Separation Separation
	Pitch      Pitch
	Tab        Tab
	Backing    Backing
	Logging    Logging
	Server     Server
}

// Paths are the working directories shared with the external stages.
type Paths struct {
	ProjectRoot string `json:"project_root"`
	DataDir     string `json:"data_dir"`
	InputDir    string `json:"input_dir"`
	OutputDir   string `json:"output_dir"`
	ModelsDir   string `json:"models_dir"`
}

// Audio describes what the acquisition stage accepts.
type Audio struct {
	TargetSampleRate int      `json:"target_sample_rate"`
	SupportedFormats []string `json:"supported_formats"`
	MinDuration      float64  `json:"min_duration_seconds"`
	MaxDuration      float64  `json:"max_duration_seconds"`
	ConvertToMono    bool     `json:"convert_to_mono"`
	Normalize        bool     `json:"normalize"`
}

// Download holds downloader settings and the URL patterns used to route input.
type Download struct {
	Format          string   `json:"format"`
	Quality         string   `json:"quality"` // kbps
	YouTubePatterns []string `json:"youtube_patterns"`
	SpotifyPatterns []string `json:"spotify_patterns"`
}

// Separation configures the source separation model.
type Separation struct {
	Model      string   `json:"model"`
	Device     string   `json:"device"`
	Shifts     int      `json:"shifts"`
	Overlap    float64  `json:"overlap"`
	Stems      []string `json:"stems"`
	GuitarStem string   `json:"guitar_stem"`
}

// Pitch configures the pitch estimator.
type Pitch struct {
	ModelCapacity       string        `json:"model_capacity"` // tiny, small, medium, large, full
	Hop                 time.Duration `json:"hop"`
	ConfidenceThreshold float64       `json:"confidence_threshold"`
}

// Tab configures synthesis and rendering.
type Tab struct {
	Tuning         string  `json:"tuning"` // preset name or six notes
	MinFret        int     `json:"min_fret"`
	MaxFret        int     `json:"max_fret"`
	Quantize       bool    `json:"quantize"`
	Width          int     `json:"width"`
	Tempo          float64 `json:"tempo"`
	ToleranceCents float64 `json:"tolerance_cents"`
}

// Backing configures the practice track mixed from the non-guitar stems.
type Backing struct {
	Volume      float64            `json:"volume"`
	StemVolumes map[string]float64 `json:"stem_volumes"`
	Format      string             `json:"format"`
	Bitrate     string             `json:"bitrate"`
}

// Logging configures pkg/logger.
type Logging struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

// Server configures the HTTP API.
type Server struct {
	Port        string `json:"port"`
	Environment string `json:"environment"`
	SentryDSN   string `json:"-"`
}

// Default returns the stock configuration rooted at the working directory.
func Default() *Config {
	root, err := os.Getwd()
	if err != nil {
		root = "."
	}
	return defaults(root)
}

func defaults(root string) *Config {
	data := filepath.Join(root, "data")
	return &Config{
		Paths: Paths{
			ProjectRoot: root,
			DataDir:     data,
			InputDir:    filepath.Join(data, "input"),
			OutputDir:   filepath.Join(data, "output"),
			ModelsDir:   filepath.Join(data, "models"),
		},
		Audio: Audio{
			TargetSampleRate: 44100,
			SupportedFormats: []string{".mp3", ".wav", ".flac", ".ogg", ".m4a"},
			MinDuration:      10,
			MaxDuration:      600,
			ConvertToMono:    true,
			Normalize:        true,
		},
		Download: Download{
			Format:  "mp3",
			Quality: "320",
			YouTubePatterns: []string{
				`youtube\.com/watch`,
				`youtu\.be/`,
				`youtube\.com/shorts/`,
			},
			SpotifyPatterns: []string{`open\.spotify\.com/track`},
		},
		Separation: Separation{
			Model:      "htdemucs_ft",
			Device:     "cuda",
			Shifts:     1,
			Overlap:    0.25,
			Stems:      []string{"vocals", "drums", "bass", "other"},
			GuitarStem: "other",
		},
		Pitch: Pitch{
			ModelCapacity:       "medium",
			Hop:                 10 * time.Millisecond,
			ConfidenceThreshold: 0.5,
		},
		Tab: Tab{
			Tuning:         tunings.Standard,
			MinFret:        0,
			MaxFret:        24,
			Quantize:       true,
			Width:          80,
			Tempo:          120,
			ToleranceCents: 50,
		},
		Backing: Backing{
			Volume: 0.8,
			StemVolumes: map[string]float64{
				"vocals": 0.8,
				"drums":  0.9,
				"bass":   0.9,
				"other":  0.0,
			},
			Format:  "wav",
			Bitrate: "320k",
		},
		Logging: Logging{
			Level: "INFO",
			File:  filepath.Join(root, "app.log"),
		},
		Server: Server{
			Port:        "8080",
			Environment: "development",
		},
	}
}

// Load builds a configuration from the environment, falling back to Default
// for anything unset. Malformed numbers are reported rather than ignored.
func Load() (*Config, error) {
	cfg := Default()
	root := getEnv("PITCH2TAB_ROOT", cfg.Paths.ProjectRoot)
	if root != cfg.Paths.ProjectRoot {
		cfg = defaults(root)
	}
	e := &envReader{}

	cfg.Paths.DataDir = getEnv("DATA_DIR", cfg.Paths.DataDir)
	cfg.Paths.InputDir = getEnv("INPUT_DIR", filepath.Join(cfg.Paths.DataDir, "input"))
	cfg.Paths.OutputDir = getEnv("OUTPUT_DIR", filepath.Join(cfg.Paths.DataDir, "output"))
	cfg.Paths.ModelsDir = getEnv("MODELS_DIR", filepath.Join(cfg.Paths.DataDir, "models"))

	cfg.Audio.TargetSampleRate = e.getInt("TARGET_SAMPLE_RATE", cfg.Audio.TargetSampleRate)
	cfg.Audio.MinDuration = e.getFloat("MIN_DURATION_SECONDS", cfg.Audio.MinDuration)
	cfg.Audio.MaxDuration = e.getFloat("MAX_DURATION_SECONDS", cfg.Audio.MaxDuration)
	cfg.Audio.ConvertToMono = e.getBool("CONVERT_TO_MONO", cfg.Audio.ConvertToMono)
	cfg.Audio.Normalize = e.getBool("NORMALIZE_AUDIO", cfg.Audio.Normalize)

	cfg.Download.Format = getEnv("DOWNLOAD_FORMAT", cfg.Download.Format)
	cfg.Download.Quality = getEnv("DOWNLOAD_QUALITY", cfg.Download.Quality)

	cfg.Separation.Model = getEnv("SEPARATION_MODEL", cfg.Separation.Model)
	cfg.Separation.Device = getEnv("SEPARATION_DEVICE", cfg.Separation.Device)
	cfg.Separation.Shifts = e.getInt("SEPARATION_SHIFTS", cfg.Separation.Shifts)
	cfg.Separation.Overlap = e.getFloat("SEPARATION_OVERLAP", cfg.Separation.Overlap)
	cfg.Separation.GuitarStem = getEnv("GUITAR_STEM", cfg.Separation.GuitarStem)

	cfg.Pitch.ModelCapacity = getEnv("PITCH_MODEL_CAPACITY", cfg.Pitch.ModelCapacity)
	cfg.Pitch.Hop = time.Duration(e.getInt("PITCH_HOP_MS", int(cfg.Pitch.Hop/time.Millisecond))) * time.Millisecond
	cfg.Pitch.ConfidenceThreshold = e.getFloat("PITCH_CONFIDENCE_THRESHOLD", cfg.Pitch.ConfidenceThreshold)

	cfg.Tab.Tuning = getEnv("TAB_TUNING", cfg.Tab.Tuning)
	cfg.Tab.MinFret = e.getInt("TAB_MIN_FRET", cfg.Tab.MinFret)
	cfg.Tab.MaxFret = e.getInt("TAB_MAX_FRET", cfg.Tab.MaxFret)
	cfg.Tab.Quantize = e.getBool("TAB_QUANTIZE", cfg.Tab.Quantize)
	cfg.Tab.Width = e.getInt("TAB_WIDTH", cfg.Tab.Width)
	cfg.Tab.Tempo = e.getFloat("TAB_TEMPO", cfg.Tab.Tempo)
	cfg.Tab.ToleranceCents = e.getFloat("TAB_TOLERANCE_CENTS", cfg.Tab.ToleranceCents)

	cfg.Backing.Volume = e.getFloat("BACKING_TRACK_VOLUME", cfg.Backing.Volume)
	for _, stem := range cfg.Separation.Stems {
		key := "STEM_VOLUME_" + strings.ToUpper(stem)
		cfg.Backing.StemVolumes[stem] = e.getFloat(key, cfg.Backing.StemVolumes[stem])
	}
	cfg.Backing.Format = getEnv("BACKING_TRACK_FORMAT", cfg.Backing.Format)
	cfg.Backing.Bitrate = getEnv("BACKING_TRACK_BITRATE", cfg.Backing.Bitrate)

	cfg.Logging.Level = strings.ToUpper(getEnv("LOG_LEVEL", cfg.Logging.Level))
	cfg.Logging.File = getEnv("LOG_FILE", cfg.Logging.File)

	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Server.Environment = getEnv("ENVIRONMENT", cfg.Server.Environment)
	cfg.Server.SentryDSN = getEnv("SENTRY_DSN", "")

	if err := errors.Join(e.errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

// envReader parses typed variables and collects the failures.
type envReader struct {
	errs []error
}

func (e *envReader) getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (e *envReader) getFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}

func (e *envReader) getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

// EnsureDirs creates the input, output and models directories.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.Paths.InputDir, c.Paths.OutputDir, c.Paths.ModelsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// IsSupportedAudio reports whether the file extension is an accepted audio format.
func (c *Config) IsSupportedAudio(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, f := range c.Audio.SupportedFormats {
		if ext == f {
			return true
		}
	}
	return false
}
