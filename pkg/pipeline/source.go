// Package pipeline plans the file layout of a tab generation job.
//
// The download, separation, pitch tracking and mixing stages run as external
// tools; a Job tells them where to read and write. Planning touches no files.
package pipeline

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/james-see/pitch2tab/pkg/config"
)

// SourceKind classifies job input.
type SourceKind string

const (
	SourceYouTube SourceKind = "youtube"
	SourceSpotify SourceKind = "spotify"
	SourceFile    SourceKind = "file"
)

// ErrUnsupportedSource is returned for input that is neither a known URL nor
// a supported audio file.
var ErrUnsupportedSource = errors.New("unsupported input source")

// Detector matches input against the configured URL patterns.
type Detector struct {
	youtube []*regexp.Regexp
	spotify []*regexp.Regexp
	cfg     *config.Config
}

// NewDetector compiles the URL patterns of cfg.
func NewDetector(cfg *config.Config) (*Detector, error) {
	d := &Detector{cfg: cfg}
	var err error
	if d.youtube, err = compileAll(cfg.Download.YouTubePatterns); err != nil {
		return nil, err
	}
	if d.spotify, err = compileAll(cfg.Download.SpotifyPatterns); err != nil {
		return nil, err
	}
	return d, nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid URL pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// Detect classifies input.
func (d *Detector) Detect(input string) (SourceKind, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("%w: empty input", ErrUnsupportedSource)
	}
	for _, re := range d.youtube {
		if re.MatchString(input) {
			return SourceYouTube, nil
		}
	}
	for _, re := range d.spotify {
		if re.MatchString(input) {
			return SourceSpotify, nil
		}
	}
	if !strings.Contains(input, "://") && d.cfg.IsSupportedAudio(input) {
		return SourceFile, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedSource, input)
}

// DetectSource classifies input with the patterns of cfg.
func DetectSource(cfg *config.Config, input string) (SourceKind, error) {
	d, err := NewDetector(cfg)
	if err != nil {
		return "", err
	}
	return d.Detect(input)
}
