// Package pricing computes lesson prices from a student's level, the
// group size and the lesson duration. It is pure: no storage, no clock.
package pricing

import (
	"fmt"
	"math"

	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/models"
)

// Rates are the hourly/base rates used by Calculate, in agorot.
// Owners may override any of them; the formula shape never changes.
type Rates struct {
	ElementaryHourly int64

	MiddleSolo  int64
	MiddlePair  int64
	MiddleGroup int64

	HighSolo  int64
	HighPair  int64
	HighGroup int64

	// Academic solo: the first hour costs FirstHour, every additional
	// hour costs ExtraHour.
	AcademicFirstHour int64
	AcademicExtraHour int64
	AcademicPair      int64
	AcademicGroup     int64
}

// DefaultRates returns the built-in rate table (values in agorot).
func DefaultRates() Rates {
	return Rates{
		ElementaryHourly: 12000,

		MiddleSolo:  14000,
		MiddlePair:  12000,
		MiddleGroup: 10000,

		HighSolo:  16000,
		HighPair:  14000,
		HighGroup: 12000,

		AcademicFirstHour: 20000,
		AcademicExtraHour: 15000,
		AcademicPair:      17000,
		AcademicGroup:     15000,
	}
}

// FromRateCard converts a persisted per-owner rate card into Rates.
func FromRateCard(rc *models.RateCard) Rates {
	if rc == nil {
		return DefaultRates()
	}
	return Rates{
		ElementaryHourly:  rc.ElementaryHourly,
		MiddleSolo:        rc.MiddleSolo,
		MiddlePair:        rc.MiddlePair,
		MiddleGroup:       rc.MiddleGroup,
		HighSolo:          rc.HighSolo,
		HighPair:          rc.HighPair,
		HighGroup:         rc.HighGroup,
		AcademicFirstHour: rc.AcademicFirstHour,
		AcademicExtraHour: rc.AcademicExtraHour,
		AcademicPair:      rc.AcademicPair,
		AcademicGroup:     rc.AcademicGroup,
	}
}

// Calculate returns the total price for one lesson slot in agorot,
// before it is split across the group. It rejects non-positive group
// sizes and durations with an error.
//
// Elementary lessons cost the flat hourly rate for the whole group
// regardless of its size. Middle/high school and academic groups are
// priced per student per hour. An academic solo lesson costs the base
// first-hour rate plus a reduced rate for every hour beyond the first.
func Calculate(r Rates, level models.Level, groupSize int, hours float64) (int64, error) {
	if groupSize <= 0 {
		return 0, fmt.Errorf("pricing: group size must be positive, got %d", groupSize)
	}
	if hours <= 0 {
		return 0, fmt.Errorf("pricing: duration must be positive, got %g", hours)
	}

	switch level {
	case models.LevelElementary:
		return mulHours(r.ElementaryHourly, hours), nil

	case models.LevelMiddle:
		return mulHours(perStudentRate(groupSize, r.MiddleSolo, r.MiddlePair, r.MiddleGroup)*int64(groupSize), hours), nil

	case models.LevelHigh:
		return mulHours(perStudentRate(groupSize, r.HighSolo, r.HighPair, r.HighGroup)*int64(groupSize), hours), nil

	case models.LevelAcademic:
		if groupSize == 1 {
			if hours <= 1 {
				return mulHours(r.AcademicFirstHour, hours), nil
			}
			return r.AcademicFirstHour + mulHours(r.AcademicExtraHour, hours-1), nil
		}
		rate := r.AcademicPair
		if groupSize >= 3 {
			rate = r.AcademicGroup
		}
		return mulHours(rate*int64(groupSize), hours), nil
	}

	return 0, fmt.Errorf("pricing: unknown level %q", level)
}

// perStudentRate picks the solo/pair/group hourly rate for a group size.
func perStudentRate(groupSize int, solo, pair, group int64) int64 {
	switch {
	case groupSize == 1:
		return solo
	case groupSize == 2:
		return pair
	default:
		return group
	}
}

// mulHours multiplies an agorot rate by a fractional hour count,
// rounding to the nearest agora.
func mulHours(rate int64, hours float64) int64 {
	return int64(math.Round(float64(rate) * hours))
}
