package tunings

import (
	"errors"
	"testing"

	"github.com/james-see/pitch2tab/pkg/tab"
)

func TestPresetsAreValid(t *testing.T) {
	for _, tu := range All() {
		if err := tu.Validate(); err != nil {
			t.Errorf("preset %s: %v", tu.Name, err)
		}
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		name   string
		want   string
		lowest string
	}{
		{"standard", Standard, "E2"},
		{"Drop-D", DropD, "D2"},
		{"drop_d", DropD, "D2"},
		{"half step down", HalfStepDown, "Eb2"},
		{"DADGAD", DADGAD, "D2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tu, ok := Lookup(tt.name)
			if !ok {
				t.Fatalf("Lookup(%q) not found", tt.name)
			}
			if tu.Name != tt.want {
				t.Errorf("Name = %q, want %q", tu.Name, tt.want)
			}
			if tu.Strings[0] != tt.lowest {
				t.Errorf("lowest string = %q, want %q", tu.Strings[0], tt.lowest)
			}
		})
	}

	if _, ok := Lookup("banjo"); ok {
		t.Error("Lookup(banjo) should fail")
	}
}

func TestLookupReturnsCopy(t *testing.T) {
	a, _ := Lookup(Standard)
	a.Strings[0] = "C2"
	b, _ := Lookup(Standard)
	if b.Strings[0] != "E2" {
		t.Errorf("preset modified through returned tuning: %v", b.Strings)
	}
}

func TestStandardMatchesCore(t *testing.T) {
	tu, _ := Lookup(Standard)
	want := tab.StandardTuning()
	for i := range want.Strings {
		if tu.Strings[i] != want.Strings[i] {
			t.Errorf("string %d = %s, want %s", i, tu.Strings[i], want.Strings[i])
		}
	}
}

func TestNames(t *testing.T) {
	names := Names()
	if len(names) != 6 {
		t.Fatalf("Names() returned %d presets, want 6", len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("Names() not sorted: %v", names)
		}
	}
}

func TestResolve(t *testing.T) {
	tu, err := Resolve("open-g")
	if err != nil || tu.Name != OpenG {
		t.Errorf("Resolve(open-g) = %v, %v", tu, err)
	}

	tu, err = Resolve("")
	if err != nil || tu.Name != "standard" {
		t.Errorf("Resolve(\"\") = %v, %v", tu, err)
	}

	tu, err = Resolve("C2, G2, C3, F3, A3, D4")
	if err != nil {
		t.Fatalf("Resolve(custom) error = %v", err)
	}
	if tu.Name != "custom" || tu.Strings[0] != "C2" || tu.Strings[5] != "D4" {
		t.Errorf("Resolve(custom) = %v", tu)
	}

	for _, bad := range []string{"banjo", "E2,A2,D3", "E4,B3,G3,D3,A2,E2", "X2,A2,D3,G3,B3,E4"} {
		if _, err := Resolve(bad); !errors.Is(err, tab.ErrInvalidTuning) {
			t.Errorf("Resolve(%q) error = %v, want ErrInvalidTuning", bad, err)
		}
	}
}
