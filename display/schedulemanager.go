package display

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aouyang1/iotacanvas/settings"
)

const (
	scheduleInterval = time.Minute
	minutesInDay     = 24 * 60
)

// Switch turns the monitor on or off.
type Switch interface {
	SetEnabled(ctx context.Context, enabled bool) error
}

type SettingsSource interface {
	GetSettings(ctx context.Context) (*settings.Record, error)
}

// ShouldBeOn reports whether the monitor is on at now for a display that
// turns on at on and off at off, both "HH:MM". The window may wrap past
// midnight. Equal times keep the monitor off all day.
func ShouldBeOn(now time.Time, on, off string) (bool, error) {
	onMin, err := minutesOfDay(on)
	if err != nil {
		return false, err
	}
	offMin, err := minutesOfDay(off)
	if err != nil {
		return false, err
	}
	nowMin := now.Hour()*60 + now.Minute()
	return mod(nowMin-onMin, minutesInDay) < mod(offMin-onMin, minutesInDay), nil
}

func minutesOfDay(hhmm string) (int, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", hhmm, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func mod(a, b int) int {
	return ((a % b) + b) % b
}

// ScheduleManager periodically checks the time to decide if the display needs
// to be turned off or on. The monitor is assumed on at start and is only
// switched when the wanted state changes.
type ScheduleManager struct {
	db      SettingsSource
	monitor Switch
	now     func() time.Time

	on bool
}

func NewScheduleManager(db SettingsSource, sw Switch) *ScheduleManager {
	return &ScheduleManager{
		db:      db,
		monitor: sw,
		now:     time.Now,
		on:      true,
	}
}

// On is the state the manager last put the monitor in.
func (s *ScheduleManager) On() bool {
	return s.on
}

func (s *ScheduleManager) checkSchedule(ctx context.Context) {
	rec, err := s.db.GetSettings(ctx)
	if err != nil {
		slog.Error("unable to get settings", "error", err)
		return
	}

	want := true
	if rec.DisplayOffEnabled {
		now := s.now()
		if rec.Timezone != "" {
			if loc, err := time.LoadLocation(rec.Timezone); err == nil {
				now = now.In(loc)
			} else {
				slog.Warn("unknown timezone, using local time", "timezone", rec.Timezone)
			}
		}
		want, err = ShouldBeOn(now, rec.DisplayOnTime, rec.DisplayOffTime)
		if err != nil {
			slog.Warn("display schedule with invalid format", "on", rec.DisplayOnTime, "off", rec.DisplayOffTime, "error", err)
			return
		}
	}

	if want == s.on {
		return
	}
	if err := s.monitor.SetEnabled(ctx, want); err != nil {
		slog.Warn("issue while switching display for schedule", "on", want, "error", err)
		return
	}
	s.on = want
	slog.Info("switched display for schedule", "on", want)
}

func (s *ScheduleManager) Run(ctx context.Context) {
	ticker := time.NewTicker(scheduleInterval)
	defer ticker.Stop()

	s.checkSchedule(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkSchedule(ctx)
		}
	}
}
