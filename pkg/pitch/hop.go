package pitch

import (
	"math"
	"slices"
	"time"

	"github.com/james-see/pitch2tab/pkg/tab"
)

// HopReport describes the frame spacing found in a pitch track.
type HopReport struct {
	Configured time.Duration
	Measured   time.Duration // median spacing between consecutive frames
	Deviates   bool          // measured differs from configured by more than 25%
	Unordered  int           // frames whose time is not after the previous frame
}

// CheckHop measures the spacing of samples against the configured hop length.
func CheckHop(samples []tab.PitchSample, hop time.Duration) HopReport {
	report := HopReport{Configured: hop}
	if len(samples) < 2 {
		return report
	}

	gaps := make([]float64, 0, len(samples)-1)
	for i := 1; i < len(samples); i++ {
		d := samples[i].Time - samples[i-1].Time
		if d <= 0 {
			report.Unordered++
			continue
		}
		gaps = append(gaps, d)
	}
	if len(gaps) == 0 {
		return report
	}
	slices.Sort(gaps)
	median := gaps[len(gaps)/2]
	if len(gaps)%2 == 0 {
		median = (gaps[len(gaps)/2-1] + gaps[len(gaps)/2]) / 2
	}

	report.Measured = time.Duration(math.Round(median * float64(time.Second)))
	if hop > 0 {
		report.Deviates = math.Abs(median-hop.Seconds()) > 0.25*hop.Seconds()
	}
	return report
}
