// Package tunings provides named guitar tuning presets
package tunings

import (
	"fmt"
	"sort"
	"strings"

	"github.com/james-see/pitch2tab/pkg/tab"
)

// Preset names
const (
	Standard     = "standard"
	DropD        = "drop-d"
	HalfStepDown = "half-step-down"
	DADGAD       = "dadgad"
	OpenG        = "open-g"
	OpenD        = "open-d"
)

var presets = map[string][]string{
	Standard:     {"E2", "A2", "D3", "G3", "B3", "E4"},
	DropD:        {"D2", "A2", "D3", "G3", "B3", "E4"},
	HalfStepDown: {"Eb2", "Ab2", "Db3", "Gb3", "Bb3", "Eb4"},
	DADGAD:       {"D2", "A2", "D3", "G3", "A3", "D4"},
	OpenG:        {"D2", "G2", "D3", "G3", "B3", "D4"},
	OpenD:        {"D2", "A2", "D3", "F#3", "A3", "D4"},
}

// Lookup returns the preset with the given name. Names are case-insensitive
// and accept underscores or spaces in place of dashes.
func Lookup(name string) (tab.Tuning, bool) {
	key := normalize(name)
	strs, ok := presets[key]
	if !ok {
		return tab.Tuning{}, false
	}
	return tab.Tuning{Name: key, Strings: append([]string(nil), strs...)}, true
}

// Names returns every preset name in alphabetical order
func Names() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every preset, ordered by name
func All() []tab.Tuning {
	out := make([]tab.Tuning, 0, len(presets))
	for _, name := range Names() {
		t, _ := Lookup(name)
		out = append(out, t)
	}
	return out
}

// Resolve accepts either a preset name or six comma or space separated
// notes, lowest string first ("D2,A2,D3,G3,B3,E4"). The result is validated.
func Resolve(spec string) (tab.Tuning, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return tab.StandardTuning(), nil
	}
	if t, ok := Lookup(spec); ok {
		return t, nil
	}

	fields := strings.FieldsFunc(spec, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) != tab.NumStrings {
		return tab.Tuning{}, fmt.Errorf("%w: %q is neither a preset (%s) nor %d notes",
			tab.ErrInvalidTuning, spec, strings.Join(Names(), ", "), tab.NumStrings)
	}
	t := tab.Tuning{Name: "custom", Strings: fields}
	if err := t.Validate(); err != nil {
		return tab.Tuning{}, err
	}
	return t, nil
}

func normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer("_", "-", " ", "-").Replace(name)
}
