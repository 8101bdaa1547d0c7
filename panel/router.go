package panel

import "log/slog"

type View int

const (
	ViewSettings View = iota
	ViewBalance
	ViewArt
)

// Views lists every view in tab order.
var Views = []View{ViewSettings, ViewBalance, ViewArt}

func (v View) String() string {
	switch v {
	case ViewSettings:
		return "Settings"
	case ViewBalance:
		return "Balance"
	case ViewArt:
		return "Art"
	}
	return "Unknown"
}

// Router holds the single active panel. Navigation swaps in a fresh panel
// instance; requests of the previous instance keep running but their results
// are dropped.
type Router struct {
	fetcher Fetcher
	active  Panel
}

func NewRouter(fetcher Fetcher) *Router {
	return &Router{
		fetcher: fetcher,
		active:  NewSettingsPanel(fetcher),
	}
}

// Start mounts the initial panel.
func (r *Router) Start() []Cmd {
	return r.active.Mount()
}

func (r *Router) View() View {
	return r.active.View()
}

func (r *Router) Active() Panel {
	return r.active
}

// Navigate switches to view and returns the new panel's mount commands.
// Navigating to the active view does nothing.
func (r *Router) Navigate(view View) []Cmd {
	if view == r.active.View() {
		return nil
	}

	var next Panel
	switch view {
	case ViewBalance:
		next = NewBalancePanel(r.fetcher)
	case ViewArt:
		next = NewArtPanel(r.fetcher)
	default:
		next = NewSettingsPanel(r.fetcher)
	}
	r.active = next
	return next.Mount()
}

// Next cycles to the following view in tab order.
func (r *Router) Next() []Cmd {
	for i, v := range Views {
		if v == r.active.View() {
			return r.Navigate(Views[(i+1)%len(Views)])
		}
	}
	return r.Navigate(ViewSettings)
}

// Update hands msg to the active panel if it was issued by it. It reports
// whether the message was applied.
func (r *Router) Update(msg Msg) bool {
	if msg == nil || msg.Target() != r.active.ID() {
		slog.Debug("dropping message for inactive panel", "type", typeName(msg))
		return false
	}
	r.active.Update(msg)
	return true
}

func (r *Router) Settings() (*SettingsPanel, bool) {
	p, ok := r.active.(*SettingsPanel)
	return p, ok
}

func (r *Router) Balance() (*BalancePanel, bool) {
	p, ok := r.active.(*BalancePanel)
	return p, ok
}

func (r *Router) Art() (*ArtPanel, bool) {
	p, ok := r.active.(*ArtPanel)
	return p, ok
}

func typeName(msg Msg) string {
	switch msg.(type) {
	case nil:
		return "nil"
	case SettingsLoaded:
		return "settings_loaded"
	case SettingsFailed:
		return "settings_failed"
	case SettingWritten:
		return "setting_written"
	case SettingWriteFailed:
		return "setting_write_failed"
	case IotaSettingsLoaded:
		return "iota_settings_loaded"
	case BalanceLoaded:
		return "balance_loaded"
	case BalanceFailed:
		return "balance_failed"
	case ArtworkLoaded:
		return "artwork_loaded"
	case ArtworkFailed:
		return "artwork_failed"
	}
	return "unknown"
}
