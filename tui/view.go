package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/aouyang1/iotacanvas/panel"
	"github.com/aouyang1/iotacanvas/settings"
)

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.viewTabs())
	b.WriteString("\n")

	var body string
	switch p := m.router.Active().(type) {
	case *panel.SettingsPanel:
		body = m.viewSettings(p)
	case *panel.BalancePanel:
		body = m.viewBalance(p)
	case *panel.ArtPanel:
		body = m.viewArt(p)
	}
	b.WriteString(bodyStyle.Render(body))
	b.WriteString("\n")

	if m.status != "" {
		if m.statusErr {
			b.WriteString(errorStyle.Render(m.status))
		} else {
			b.WriteString(successStyle.Render(m.status))
		}
		b.WriteString("\n")
	}
	b.WriteString(subtleStyle.Render(m.help()))
	return b.String()
}

func (m Model) viewTabs() string {
	tabs := make([]string, 0, len(panel.Views))
	for i, v := range panel.Views {
		label := string(rune('1'+i)) + " " + v.String()
		if v == m.router.View() {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func viewStatus(p panel.Panel) (string, bool) {
	switch p.Status() {
	case panel.StatusLoading:
		return subtleStyle.Render("Loading..."), true
	case panel.StatusError:
		return errorStyle.Render("Error: " + p.Err().Error()), true
	}
	return "", false
}

func (m Model) viewSettings(p *panel.SettingsPanel) string {
	if s, done := viewStatus(p); done {
		return s
	}
	rec, _ := p.Record()

	var b strings.Builder
	b.WriteString(titleStyle.Render("Settings"))
	b.WriteString("\n")
	for i, f := range settings.Fields {
		v, _ := rec.Get(f.Name)
		value := formatValue(v)
		if m.editing && i == m.cursor {
			value = m.input + "_"
		}
		prefix := "  "
		if i == m.cursor {
			prefix = cursorStyle.Render("> ")
		}
		b.WriteString(prefix + labelStyle.Render(f.Label) + valueStyle.Render(value) + "\n")
	}
	if n := p.Pending(); n > 0 {
		b.WriteString(pendingStyle.Render("saving...") + "\n")
	}
	return b.String()
}

func (m Model) viewBalance(p *panel.BalancePanel) string {
	if s, done := viewStatus(p); done {
		return s
	}
	rec, _ := p.Balance()

	balance := "unknown"
	if rec.CurrentBalance != nil {
		balance = strconv.FormatInt(*rec.CurrentBalance, 10) + " i"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Balance"))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Current balance") + valueStyle.Render(balance) + "\n")
	b.WriteString(labelStyle.Render("Receive address") + valueStyle.Render(rec.ReceiveAddress) + "\n")
	b.WriteString(labelStyle.Render("QR code") + subtleStyle.Render(panel.QRImagePath) + "\n")
	b.WriteString(labelStyle.Render("Node") + valueStyle.Render(rec.Node) + "\n")
	return b.String()
}

func (m Model) viewArt(p *panel.ArtPanel) string {
	if s, done := viewStatus(p); done {
		return s
	}
	art, _ := p.Artwork()

	var b strings.Builder
	b.WriteString(titleStyle.Render("Art"))
	b.WriteString("\n")
	if len(art.Artworks) == 0 {
		b.WriteString(subtleStyle.Render("No artwork yet.") + "\n")
		return b.String()
	}
	for _, name := range art.Artworks {
		if name == art.CurrentArtwork {
			b.WriteString(cursorStyle.Render("* ") + valueStyle.Render(name) + "\n")
			continue
		}
		b.WriteString("  " + valueStyle.Render(name) + "\n")
	}
	if art.LastRefreshTime != nil {
		b.WriteString(subtleStyle.Render("last refreshed "+art.LastRefreshTime.Local().Format("2006-01-02 15:04")) + "\n")
	}
	return b.String()
}

func (m Model) help() string {
	switch {
	case m.editing:
		return "enter save • esc cancel"
	case m.router.View() == panel.ViewSettings:
		return "1-3/tab switch • j/k move • space toggle • enter edit • q quit"
	case m.router.View() == panel.ViewBalance:
		return "1-3/tab switch • c copy address • q quit"
	}
	return "1-3/tab switch • q quit"
}
