package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/james-see/pitch2tab/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTabFlagsApply(t *testing.T) {
	c := config.Default()
	tabFlags{
		tuning:     "open-d",
		tempo:      90,
		width:      60,
		threshold:  0.3,
		minFret:    -1,
		maxFret:    12,
		hopMS:      5,
		noQuantize: true,
	}.apply(c)

	assert.Equal(t, "open-d", c.Tab.Tuning)
	assert.Equal(t, 90.0, c.Tab.Tempo)
	assert.Equal(t, 60, c.Tab.Width)
	assert.Equal(t, 0.3, c.Pitch.ConfidenceThreshold)
	assert.Equal(t, 0, c.Tab.MinFret)
	assert.Equal(t, 12, c.Tab.MaxFret)
	assert.Equal(t, 5*time.Millisecond, c.Pitch.Hop)
	assert.False(t, c.Tab.Quantize)
}

func TestGetOutputPath(t *testing.T) {
	outputFile = ""
	assert.Equal(t, "stems/other.mid", getOutputPath("stems/other.f0.csv", ".mid"))
	assert.Equal(t, "take.mid", getOutputPath("take.json", ".mid"))

	outputFile = "x.mid"
	defer func() { outputFile = "" }()
	assert.Equal(t, "x.mid", getOutputPath("take.json", ".mid"))
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PITCH2TAB_ROOT", dir)
	input := filepath.Join(dir, "other.f0.csv")

	var sb strings.Builder
	sb.WriteString("time,frequency,confidence\n")
	for k := 0; k < 45; k++ {
		fmt.Fprintf(&sb, "%.2f,110,0.9\n", float64(k)*0.01)
	}
	require.NoError(t, os.WriteFile(input, []byte(sb.String()), 0644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"render", input})
	require.NoError(t, rootCmd.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "A|-0------|", lines[4])
}
