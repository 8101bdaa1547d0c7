// Package tui is the terminal front-end of the frame's control panels.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/aouyang1/iotacanvas/panel"
	"github.com/aouyang1/iotacanvas/settings"
)

// SystemClipboard writes to the operating system clipboard.
type SystemClipboard struct{}

func (SystemClipboard) WriteAll(text string) error {
	return clipboard.WriteAll(text)
}

// panelMsg carries a panel result through the bubbletea loop.
type panelMsg struct {
	msg panel.Msg
}

type Model struct {
	router    *panel.Router
	clipboard panel.Clipboard
	timeout   time.Duration

	cursor  int
	editing bool
	input   string

	status    string
	statusErr bool
	lastErr   error
	width     int
}

func New(fetcher panel.Fetcher, cb panel.Clipboard, timeout time.Duration) Model {
	return Model{
		router:    panel.NewRouter(fetcher),
		clipboard: cb,
		timeout:   timeout,
	}
}

func (m Model) Init() tea.Cmd {
	return m.run(m.router.Start())
}

// run turns panel commands into bubbletea commands, each bounded by the
// request timeout.
func (m Model) run(cmds []panel.Cmd) tea.Cmd {
	if len(cmds) == 0 {
		return nil
	}
	timeout := m.timeout
	batch := make([]tea.Cmd, 0, len(cmds))
	for _, c := range cmds {
		batch = append(batch, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			return panelMsg{msg: c(ctx)}
		})
	}
	return tea.Batch(batch...)
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.status = msg
	m.statusErr = isErr
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case panelMsg:
		m.router.Update(msg.msg)
		if p, ok := m.router.Settings(); ok {
			if err := p.WriteErr(); err != nil && err != m.lastErr {
				m.lastErr = err
				m.setStatus(err.Error(), true)
			}
		}
		return m, nil
	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) navigate(cmds []panel.Cmd) (tea.Model, tea.Cmd) {
	m.cursor = 0
	m.setStatus("", false)
	return m, m.run(cmds)
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "1":
		return m.navigate(m.router.Navigate(panel.ViewSettings))
	case "2":
		return m.navigate(m.router.Navigate(panel.ViewBalance))
	case "3":
		return m.navigate(m.router.Navigate(panel.ViewArt))
	case "tab":
		return m.navigate(m.router.Next())
	case "j", "down":
		if m.cursor < len(settings.Fields)-1 {
			m.cursor++
		}
		return m, nil
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case " ":
		p, ok := m.router.Settings()
		if !ok {
			return m, nil
		}
		field := settings.Fields[m.cursor]
		if field.Kind != settings.KindBool {
			return m, nil
		}
		cmd, err := p.Toggle(field.Name)
		if err != nil {
			m.setStatus(err.Error(), true)
			return m, nil
		}
		return m, m.run([]panel.Cmd{cmd})
	case "enter":
		p, ok := m.router.Settings()
		if !ok {
			return m, nil
		}
		rec, ok := p.Record()
		if !ok {
			return m, nil
		}
		field := settings.Fields[m.cursor]
		if field.Kind == settings.KindBool {
			return m, nil
		}
		v, err := rec.Get(field.Name)
		if err != nil {
			m.setStatus(err.Error(), true)
			return m, nil
		}
		m.editing = true
		m.input = fmt.Sprint(v)
		return m, nil
	case "c":
		p, ok := m.router.Balance()
		if !ok {
			return m, nil
		}
		if err := p.Copy(m.clipboard); err != nil {
			m.setStatus("Copy failed: "+err.Error(), true)
			return m, nil
		}
		m.setStatus("Receive address copied.", false)
		return m, nil
	}
	return m, nil
}

func (m Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.editing = false
		m.input = ""
		return m, nil
	case tea.KeyEnter:
		m.editing = false
		p, ok := m.router.Settings()
		if !ok {
			return m, nil
		}
		field := settings.Fields[m.cursor]
		cmd, err := p.Edit(field.Name, m.input)
		m.input = ""
		if err != nil {
			m.setStatus(err.Error(), true)
			return m, nil
		}
		m.setStatus("", false)
		return m, m.run([]panel.Cmd{cmd})
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
		return m, nil
	case tea.KeyRunes, tea.KeySpace:
		m.input += string(msg.Runes)
		return m, nil
	}
	return m, nil
}

func formatValue(v any) string {
	switch v := v.(type) {
	case bool:
		if v {
			return "on"
		}
		return "off"
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprint(v)
	}
}
