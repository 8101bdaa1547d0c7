// Package panel holds the state of the frame's control panels as seen by a
// client. Panels never do I/O themselves. Mounting or editing a panel returns
// commands; the caller runs them on any goroutine and feeds the resulting
// messages back through Router.Update from a single owner goroutine.
package panel

import (
	"context"
	"errors"

	"github.com/aouyang1/iotacanvas/api/models"
	"github.com/aouyang1/iotacanvas/settings"
)

var (
	ErrNotReady     = errors.New("panel is not ready")
	ErrUnknownField = settings.ErrUnknownField
)

type Status int

const (
	StatusLoading Status = iota
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// Fetcher is the frame's HTTP surface. api/client.Client implements it.
type Fetcher interface {
	UserSettings(ctx context.Context) (settings.Record, error)
	UpdateSettings(ctx context.Context, fields map[string]any) (settings.Record, error)
	IotaSettings(ctx context.Context) (models.IotaSettingsResponse, error)
	Balance(ctx context.Context) (models.BalanceResponse, error)
	Artwork(ctx context.Context) (models.ArtworkResponse, error)
}

// Clipboard receives the copied receive address.
type Clipboard interface {
	WriteAll(text string) error
}

// Msg is the result of a Cmd. Every message names the panel instance that
// issued it.
type Msg interface {
	Target() string
}

// Cmd performs one network call and reports the outcome as a Msg.
type Cmd func(ctx context.Context) Msg

type Panel interface {
	ID() string
	View() View
	Status() Status
	Err() error
	Mount() []Cmd
	Update(msg Msg)
}

type target struct {
	PanelID string
}

func (t target) Target() string { return t.PanelID }

type SettingsLoaded struct {
	target
	Record settings.Record
}

type SettingsFailed struct {
	target
	Err error
}

type SettingWritten struct {
	target
	Field  string
	Seq    uint64
	Record settings.Record
}

type SettingWriteFailed struct {
	target
	Field string
	Seq   uint64
	Err   error
}

type IotaSettingsLoaded struct {
	target
	Settings models.IotaSettingsResponse
}

type BalanceLoaded struct {
	target
	Balance models.BalanceResponse
}

// BalanceFailed reports a failure of either balance panel read. Source is
// "iota_settings" or "iota_balance".
type BalanceFailed struct {
	target
	Source string
	Err    error
}

type ArtworkLoaded struct {
	target
	Artwork models.ArtworkResponse
}

type ArtworkFailed struct {
	target
	Err error
}
