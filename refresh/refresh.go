// Package refresh converts art refresh rates between units
package refresh

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Unit string

const (
	Hour  Unit = "hour"
	Day   Unit = "day"
	Week  Unit = "week"
	Month Unit = "month"
)

const (
	HoursPerHour  = 1
	HoursPerDay   = 24
	HoursPerWeek  = 7 * HoursPerDay
	HoursPerMonth = 30 * HoursPerDay
)

var ErrUnknownUnit = errors.New("unknown refresh unit")

// Units lists every supported unit in display order.
var Units = []Unit{Hour, Day, Week, Month}

func ParseUnit(s string) (Unit, error) {
	u := Unit(strings.ToLower(strings.TrimSpace(s)))
	if _, err := u.Hours(); err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownUnit, s)
	}
	return u, nil
}

// Hours returns how many hours a single unit spans.
func (u Unit) Hours() (int, error) {
	switch u {
	case Hour:
		return HoursPerHour, nil
	case Day:
		return HoursPerDay, nil
	case Week:
		return HoursPerWeek, nil
	case Month:
		return HoursPerMonth, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownUnit, string(u))
}

func ToHours(rate int, unit Unit) (int, error) {
	h, err := unit.Hours()
	if err != nil {
		return 0, err
	}
	return rate * h, nil
}

// FromHours converts an hour count to the given unit, truncating partial units.
func FromHours(hours int, unit Unit) (int, error) {
	h, err := unit.Hours()
	if err != nil {
		return 0, err
	}
	return hours / h, nil
}

// Period is the wall-clock duration of rate units.
func Period(rate int, unit Unit) (time.Duration, error) {
	hours, err := ToHours(rate, unit)
	if err != nil {
		return 0, err
	}
	return time.Duration(hours) * time.Hour, nil
}
