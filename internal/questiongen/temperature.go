package questiongen

import (
	"fmt"
	"math"
)

// Schedule raises the sampling temperature linearly with the attempt index
// up to a cap.
type Schedule struct {
	Base float64 `yaml:"base"`
	Step float64 `yaml:"step"`
	Max  float64 `yaml:"max"`
}

// DefaultSchedule returns 0.7, 0.85, 1.0, 1.15, then 1.2 for every later
// attempt.
func DefaultSchedule() Schedule {
	return Schedule{Base: 0.7, Step: 0.15, Max: 1.2}
}

// At returns the temperature for a zero-based attempt. It is non-decreasing
// in attempt and never exceeds Max.
func (s Schedule) At(attempt int) float64 {
	if attempt < 0 {
		attempt = 0
	}
	t := math.Min(s.Base+s.Step*float64(attempt), s.Max)
	// Avoid 0.8500000000000001 in logs and request bodies.
	return math.Round(t*1000) / 1000
}

// Validate checks that the schedule is monotone and bounded.
func (s Schedule) Validate() error {
	switch {
	case s.Base < 0:
		return fmt.Errorf("temperature base must not be negative, got %v", s.Base)
	case s.Step < 0:
		return fmt.Errorf("temperature step must not be negative, got %v", s.Step)
	case s.Max < s.Base:
		return fmt.Errorf("temperature max %v is below base %v", s.Max, s.Base)
	}
	return nil
}
