// Package pitch reads pitch tracks produced by the external pitch estimator
package pitch

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/james-see/pitch2tab/pkg/tab"
)

// Format represents a pitch track file format
type Format string

const (
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatMIDI    Format = "midi"
	FormatUnknown Format = "unknown"
)

// ErrUnknownFormat is returned when a pitch track format cannot be determined.
var ErrUnknownFormat = errors.New("unknown pitch track format")

// DetectFormat detects the format of a file based on extension
func DetectFormat(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".csv", ".f0":
		return FormatCSV
	case ".json":
		return FormatJSON
	case ".mid", ".midi":
		return FormatMIDI
	default:
		return FormatUnknown
	}
}

// DetectFormatFromContent detects format from file content
func DetectFormatFromContent(data []byte) Format {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return FormatUnknown
	}
	if bytes.HasPrefix(trimmed, []byte("MThd")) {
		return FormatMIDI
	}
	if trimmed[0] == '[' || trimmed[0] == '{' {
		return FormatJSON
	}
	if bytes.ContainsRune(trimmed[:min(len(trimmed), 256)], ',') {
		return FormatCSV
	}
	return FormatUnknown
}

// Supported returns the file extensions accepted by ReadFile
func Supported() []string {
	return []string{".csv", ".f0", ".json", ".mid", ".midi"}
}

// Read decodes data in the given format. FormatUnknown falls back to
// content detection.
func Read(data []byte, format Format) ([]tab.PitchSample, error) {
	if format == FormatUnknown {
		format = DetectFormatFromContent(data)
	}
	switch format {
	case FormatCSV:
		return ReadCSV(bytes.NewReader(data))
	case FormatJSON:
		return ReadJSON(bytes.NewReader(data))
	case FormatMIDI:
		return ReadMIDI(data, DefaultHop)
	default:
		return nil, ErrUnknownFormat
	}
}

// ReadFile reads a pitch track from disk
func ReadFile(path string) ([]tab.PitchSample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pitch track: %w", err)
	}
	samples, err := Read(data, DetectFormat(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return samples, nil
}

// ReadFrom reads a whole stream and decodes it
func ReadFrom(r io.Reader, filename string) ([]tab.PitchSample, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read pitch track: %w", err)
	}
	return Read(data, DetectFormat(filename))
}
