package tab

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultFill is the character drawn where no note is played.
const DefaultFill = '-'

// RenderOptions controls the text layout.
type RenderOptions struct {
	Width int  // maximum characters per line
	Fill  byte // filler for empty cells, '-' when zero
}

// Block is one wrapped system of tab: a line per string, highest string first.
type Block []string

func (b Block) String() string {
	return strings.Join(b, "\n")
}

// Render lays the document out as fixed-width ASCII tab. Each 16th-note step
// is one cell; a cell is the fill character followed by the fret number
// right-justified to the width of the largest fret in the document. Lines
// wrap on beat boundaries and never exceed opts.Width characters.
func Render(doc *Document, opts RenderOptions) ([]Block, error) {
	if opts.Fill == 0 {
		opts.Fill = DefaultFill
	}
	if opts.Fill == '|' || (opts.Fill >= '0' && opts.Fill <= '9') {
		return nil, fmt.Errorf("%w: fill character %q", ErrInvalidConfig, opts.Fill)
	}
	if err := doc.Tuning.Validate(); err != nil {
		return nil, err
	}

	labels := doc.Tuning.Labels()
	labelWidth := 0
	for _, l := range labels {
		labelWidth = max(labelWidth, len(l))
	}

	digits := 1
	for _, ev := range doc.Events {
		digits = max(digits, len(strconv.Itoa(ev.Position.Fret)))
	}
	cellWidth := digits + 1
	beatWidth := StepsPerBeat * cellWidth

	beatsPerLine := (opts.Width - labelWidth - 2) / beatWidth
	if beatsPerLine < 1 {
		return nil, fmt.Errorf("%w: %d columns cannot hold one beat (%d needed)",
			ErrInvalidWidth, opts.Width, labelWidth+2+beatWidth)
	}

	totalSteps := max(doc.TotalSteps(), 1)
	if totalSteps > MaxSteps {
		return nil, fmt.Errorf("%w: %d steps, limit %d", ErrTooLong, totalSteps, MaxSteps)
	}
	totalBeats := (totalSteps + StepsPerBeat - 1) / StepsPerBeat

	type cell struct{ str, step int }
	frets := make(map[cell]string, len(doc.Events))
	for _, ev := range doc.Events {
		if ev.Position.String < 0 || ev.Position.String >= NumStrings || ev.Position.Fret < 0 || ev.Step < 0 {
			return nil, fmt.Errorf("%w: event %s at step %d", ErrInvalidConfig, ev.Position.Label(), ev.Step)
		}
		frets[cell{ev.Position.String, ev.Step}] = strconv.Itoa(ev.Position.Fret)
	}

	fill := string(opts.Fill)
	emptyCell := strings.Repeat(fill, cellWidth)

	var blocks []Block
	for beat := 0; beat < totalBeats; beat += beatsPerLine {
		first := beat * StepsPerBeat
		last := min(beat+beatsPerLine, totalBeats) * StepsPerBeat

		block := make(Block, 0, NumStrings)
		for s := NumStrings - 1; s >= 0; s-- {
			var line strings.Builder
			line.WriteString(labels[s])
			line.WriteString(strings.Repeat(" ", labelWidth-len(labels[s])))
			line.WriteByte('|')
			for step := first; step < last; step++ {
				fret, ok := frets[cell{s, step}]
				if !ok {
					line.WriteString(emptyCell)
					continue
				}
				line.WriteString(strings.Repeat(fill, cellWidth-len(fret)))
				line.WriteString(fret)
			}
			line.WriteByte('|')
			block = append(block, line.String())
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

// Text joins rendered blocks separated by blank lines.
func Text(blocks []Block) string {
	var sb strings.Builder
	for i, b := range blocks {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(b.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

// RenderText is Render followed by Text.
func RenderText(doc *Document, opts RenderOptions) (string, error) {
	blocks, err := Render(doc, opts)
	if err != nil {
		return "", err
	}
	return Text(blocks), nil
}
