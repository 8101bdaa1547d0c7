// Package display drives the frame's monitor and the full screen artwork
// viewer.
package display

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
)

const DefaultOutput = "HDMI-A-1"

type Output struct {
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Make         string       `json:"make"`
	Model        string       `json:"model"`
	Serial       string       `json:"serial"`
	PhysicalSize PhysicalSize `json:"physical_size"`
	Enabled      bool         `json:"enabled"`
	Modes        []Mode       `json:"modes"`
	Position     Position     `json:"position"`
	Transform    string       `json:"transform"`
	Scale        float64      `json:"scale"`
	AdaptiveSync bool         `json:"adaptive_sync"`
}

type PhysicalSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Mode struct {
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Refresh   float64 `json:"refresh"`
	Preferred bool    `json:"preferred"`
	Current   bool    `json:"current"`
}

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// runFunc runs an external command and returns its stdout.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRun(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Monitor switches one wayland output on and off with wlr-randr.
type Monitor struct {
	output string
	run    runFunc
}

func NewMonitor(output string) *Monitor {
	if output == "" {
		output = DefaultOutput
	}
	return &Monitor{output: output, run: execRun}
}

// Enabled reports whether the output is currently on.
func (m *Monitor) Enabled(ctx context.Context) (bool, error) {
	out, err := m.run(ctx, "wlr-randr", "--output", m.output, "--json")
	if err != nil {
		return false, fmt.Errorf("failed to run wlr-randr: %w", err)
	}

	var results []Output
	if err := json.Unmarshal(out, &results); err != nil {
		return false, fmt.Errorf("failed to unmarshal wlr-randr output: %w", err)
	}

	for _, result := range results {
		if result.Name == m.output {
			return result.Enabled, nil
		}
	}

	return false, fmt.Errorf("output %s not found", m.output)
}

func (m *Monitor) SetEnabled(ctx context.Context, enabled bool) error {
	arg := "--off"
	if enabled {
		arg = "--on"
	}
	if _, err := m.run(ctx, "wlr-randr", "--output", m.output, arg); err != nil {
		return fmt.Errorf("failed to run wlr-randr: %w", err)
	}
	return nil
}
