package config

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/james-see/pitch2tab/pkg/tab"
	"github.com/james-see/pitch2tab/pkg/tab/tunings"
)

// ErrInvalid marks configuration errors.
var ErrInvalid = errors.New("invalid configuration")

var (
	modelCapacities = []string{"tiny", "small", "medium", "large", "full"}
	logLevels       = []string{"DEBUG", "INFO", "WARN", "WARNING", "ERROR", "CRITICAL"}
)

// Validate reports every problem in the configuration at once.
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.Audio.TargetSampleRate <= 0 {
		fail("sample rate %d", c.Audio.TargetSampleRate)
	}
	if c.Audio.MinDuration < 0 || c.Audio.MaxDuration <= c.Audio.MinDuration {
		fail("duration range [%v, %v]", c.Audio.MinDuration, c.Audio.MaxDuration)
	}
	for _, p := range append(slices.Clone(c.Download.YouTubePatterns), c.Download.SpotifyPatterns...) {
		if _, err := regexp.Compile(p); err != nil {
			fail("URL pattern %q: %v", p, err)
		}
	}

	if c.Separation.Shifts < 1 {
		fail("separation shifts %d", c.Separation.Shifts)
	}
	if c.Separation.Overlap < 0 || c.Separation.Overlap >= 1 {
		fail("separation overlap %v", c.Separation.Overlap)
	}
	if !slices.Contains(c.Separation.Stems, c.Separation.GuitarStem) {
		fail("guitar stem %q is not one of %v", c.Separation.GuitarStem, c.Separation.Stems)
	}

	if !slices.Contains(modelCapacities, c.Pitch.ModelCapacity) {
		fail("pitch model capacity %q", c.Pitch.ModelCapacity)
	}

	if _, err := c.TabConfig(); err != nil {
		errs = append(errs, err)
	}

	if c.Backing.Volume < 0 || c.Backing.Volume > 1 {
		fail("backing volume %v", c.Backing.Volume)
	}
	for stem, v := range c.Backing.StemVolumes {
		if v < 0 || v > 1 {
			fail("stem volume %s=%v", stem, v)
		}
	}

	if !slices.Contains(logLevels, strings.ToUpper(c.Logging.Level)) {
		fail("log level %q", c.Logging.Level)
	}

	return errors.Join(errs...)
}

// TabConfig projects the settings the synthesis core reads.
func (c *Config) TabConfig() (tab.Config, error) {
	tuning, err := tunings.Resolve(c.Tab.Tuning)
	if err != nil {
		return tab.Config{}, err
	}
	tc := tab.Config{
		Tuning:              tuning,
		ConfidenceThreshold: c.Pitch.ConfidenceThreshold,
		MinFret:             c.Tab.MinFret,
		MaxFret:             c.Tab.MaxFret,
		ToleranceCents:      c.Tab.ToleranceCents,
		Quantize:            c.Tab.Quantize,
		Tempo:               c.Tab.Tempo,
		Hop:                 c.Pitch.Hop,
		Width:               c.Tab.Width,
		Fill:                tab.DefaultFill,
	}
	if err := tc.Validate(); err != nil {
		return tab.Config{}, err
	}
	return tc, nil
}

// BackingMix returns the effective gain of each stem in the backing track:
// the stem volume scaled by the overall volume. The guitar stem is always
// silent.
func (c *Config) BackingMix() map[string]float64 {
	mix := make(map[string]float64, len(c.Separation.Stems))
	for _, stem := range c.Separation.Stems {
		gain := c.Backing.StemVolumes[stem] * c.Backing.Volume
		if stem == c.Separation.GuitarStem {
			gain = 0
		}
		mix[stem] = gain
	}
	return mix
}
