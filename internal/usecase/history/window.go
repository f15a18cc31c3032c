package history

import (
	"fmt"
	"time"

	"github.com/simaogato/folio-backend/internal/domain"
)

// Window names a fixed reconstruction range
type Window string

const (
	Window7d Window = "7d"
	Window1m Window = "1m"
	Window1y Window = "1y"
)

// WindowSpec describes how a window is sampled
// Sample i sits at now - (Steps - i) x Interval, for i = 0..Steps.
type WindowSpec struct {
	Window   Window
	Period   domain.Period // the historical price period the window reads
	Interval time.Duration
	Steps    int
}

// SampleCount returns the number of samples a reconstruction of this window emits
func (w WindowSpec) SampleCount() int {
	return w.Steps + 1
}

// SampleAt returns the timestamp of sample i relative to now
func (w WindowSpec) SampleAt(now time.Time, i int) time.Time {
	return now.Add(-time.Duration(w.Steps-i) * w.Interval)
}

var windows = []WindowSpec{
	{Window: Window7d, Period: domain.PeriodWeek, Interval: 12 * time.Hour, Steps: 14},
	{Window: Window1m, Period: domain.PeriodMonth, Interval: 24 * time.Hour, Steps: 30},
	{Window: Window1y, Period: domain.PeriodYear, Interval: 14 * 24 * time.Hour, Steps: 26},
}

// Windows returns the specs of every window, shortest first
func Windows() []WindowSpec {
	out := make([]WindowSpec, len(windows))
	copy(out, windows)
	return out
}

// Spec returns the spec of a named window
func Spec(w Window) (WindowSpec, error) {
	for _, spec := range windows {
		if spec.Window == w {
			return spec, nil
		}
	}
	return WindowSpec{}, fmt.Errorf("%w: unknown window %q", domain.ErrValidation, w)
}
