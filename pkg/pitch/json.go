package pitch

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/james-see/pitch2tab/pkg/tab"
)

// Track is the JSON document form of a pitch track.
type Track struct {
	Hop     float64           `json:"hop,omitempty"` // seconds between frames
	Samples []tab.PitchSample `json:"samples"`
}

// ReadJSON decodes either a bare array of samples or a Track object.
func ReadJSON(r io.Reader) ([]tab.PitchSample, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTrack, err)
	}

	var samples []tab.PitchSample
	if err := json.Unmarshal(raw, &samples); err == nil {
		return samples, nil
	}

	var track Track
	if err := json.Unmarshal(raw, &track); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTrack, err)
	}
	return track.Samples, nil
}
