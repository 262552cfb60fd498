// Package slider models the dual-handle range control used for the cost
// filter. Handles are linked so that From never exceeds To.
package slider

import (
	"fmt"
	"math"
)

// Slider is a pair of handles on a fixed [Min, Max] track.
type Slider struct {
	Min  float64
	Max  float64
	From float64
	To   float64
	Step float64
}

// New returns a slider with both handles at the ends of the track.
// Swapped bounds are reordered.
func New(min, max float64) *Slider {
	if min > max {
		min, max = max, min
	}
	return &Slider{Min: min, Max: max, From: min, To: max, Step: 1}
}

// SetFrom moves the lower handle. A value past To stops at To.
func (s *Slider) SetFrom(v float64) {
	v = s.clamp(v)
	if v > s.To {
		v = s.To
	}
	s.From = v
}

// SetTo moves the upper handle. A value below From stops at From.
func (s *Slider) SetTo(v float64) {
	v = s.clamp(v)
	if v < s.From {
		v = s.From
	}
	s.To = v
}

// Set moves both handles, lower first.
func (s *Slider) Set(from, to float64) {
	s.SetTo(s.Max)
	s.SetFrom(from)
	s.SetTo(to)
}

func (s *Slider) clamp(v float64) float64 {
	if math.IsNaN(v) {
		return s.Min
	}
	if s.Step > 0 {
		v = s.Min + math.Round((v-s.Min)/s.Step)*s.Step
	}
	return math.Max(s.Min, math.Min(s.Max, v))
}

// Position returns v as a percentage of the track.
func (s *Slider) Position(v float64) float64 {
	span := s.Max - s.Min
	if span <= 0 {
		return 0
	}
	return (v - s.Min) / span * 100
}

// Gradient paints the track with fill between the handles.
func (s *Slider) Gradient(track, fill string) string {
	from := s.Position(s.From)
	to := s.Position(s.To)
	return fmt.Sprintf(
		"linear-gradient(to right, %s 0%%, %s %.2f%%, %s %.2f%%, %s %.2f%%, %s %.2f%%, %s 100%%)",
		track, track, from, fill, from, fill, to, track, to, track,
	)
}

// ZIndex returns the stacking order of the handles. When the upper handle
// sits at the minimum it covers the lower one, so it is raised to stay
// draggable.
func (s *Slider) ZIndex() (from, to int) {
	if s.To <= s.Min {
		return 1, 2
	}
	return 1, 0
}
