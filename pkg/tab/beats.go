package tab

import "fmt"

// Beats is a non-negative rational number of beats, kept in lowest terms.
type Beats struct {
	Num int `json:"num"`
	Den int `json:"den"`
}

// NewBeats returns num/den reduced to lowest terms.
func NewBeats(num, den int) Beats {
	if den == 0 {
		return Beats{}
	}
	if den < 0 {
		num, den = -num, -den
	}
	g := gcd(num, den)
	return Beats{Num: num / g, Den: den / g}
}

// StepBeats converts a count of 16th-note steps into beats.
func StepBeats(steps int) Beats {
	return NewBeats(steps, StepsPerBeat)
}

// Float returns the value as a float64.
func (b Beats) Float() float64 {
	if b.Den == 0 {
		return 0
	}
	return float64(b.Num) / float64(b.Den)
}

func (b Beats) String() string {
	if b.Den == 0 {
		return "0"
	}
	if b.Den == 1 {
		return fmt.Sprintf("%d", b.Num)
	}
	return fmt.Sprintf("%d/%d", b.Num, b.Den)
}

func gcd(a, b int) int {
	if a < 0 {
		a = -a
	}
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}
