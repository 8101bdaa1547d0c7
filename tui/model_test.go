package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aouyang1/iotacanvas/api/models"
	"github.com/aouyang1/iotacanvas/panel"
	"github.com/aouyang1/iotacanvas/settings"
)

type fakeFetcher struct {
	mu        sync.Mutex
	record    settings.Record
	updateErr error
}

func (f *fakeFetcher) UserSettings(ctx context.Context) (settings.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record, nil
}

func (f *fakeFetcher) UpdateSettings(ctx context.Context, fields map[string]any) (settings.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return settings.Record{}, f.updateErr
	}
	for k, v := range fields {
		if err := f.record.Set(k, v); err != nil {
			return settings.Record{}, err
		}
	}
	return f.record, nil
}

func (f *fakeFetcher) IotaSettings(ctx context.Context) (models.IotaSettingsResponse, error) {
	return models.IotaSettingsResponse{Node: "https://node", ReceiveAddress: "RECV9"}, nil
}

func (f *fakeFetcher) Balance(ctx context.Context) (models.BalanceResponse, error) {
	return models.BalanceResponse{}, nil
}

func (f *fakeFetcher) Artwork(ctx context.Context) (models.ArtworkResponse, error) {
	return models.ArtworkResponse{CurrentArtwork: "a.png", Artworks: []string{"a.png", "b.png"}}, nil
}

type fakeClipboard struct{ text string }

func (c *fakeClipboard) WriteAll(text string) error {
	c.text = text
	return nil
}

// drain runs cmd and every command it batches, feeding the results back
// into the model.
func drain(t *testing.T, m tea.Model, cmd tea.Cmd) tea.Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			m = drain(t, m, c)
		}
	case nil:
	default:
		var next tea.Cmd
		m, next = m.Update(msg)
		m = drain(t, m, next)
	}
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m tea.Model, keys ...string) tea.Model {
	t.Helper()
	for _, k := range keys {
		var cmd tea.Cmd
		m, cmd = m.Update(key(k))
		m = drain(t, m, cmd)
	}
	return m
}

func newModel(t *testing.T) (tea.Model, *fakeFetcher, *fakeClipboard) {
	t.Helper()
	f := &fakeFetcher{record: settings.Defaults()}
	cb := &fakeClipboard{}
	var m tea.Model = New(f, cb, time.Second)
	m = drain(t, m, m.Init())
	return m, f, cb
}

func TestLoadingView(t *testing.T) {
	m := New(&fakeFetcher{record: settings.Defaults()}, &fakeClipboard{}, time.Second)
	assert.Contains(t, m.View(), "Loading...")
}

func TestSettingsViewAndToggle(t *testing.T) {
	m, f, _ := newModel(t)
	assert.Contains(t, m.View(), "Art refresh")
	assert.Contains(t, m.View(), "240")

	m = press(t, m, " ")
	assert.False(t, f.record.ArtRefreshEnabled)
	assert.Regexp(t, `Art refresh\s+off`, m.View())
}

func TestEditField(t *testing.T) {
	m, f, _ := newModel(t)

	m = press(t, m, "j", "enter", "backspace", "backspace", "backspace", "1", "2")
	assert.Contains(t, m.View(), "12_")
	m = press(t, m, "enter")
	assert.Equal(t, 12, f.record.ArtRefreshRate)

	m = press(t, m, "enter", "9", "esc")
	assert.Equal(t, 12, f.record.ArtRefreshRate)
	assert.NotContains(t, m.View(), "_")
}

func TestFailedWriteShowsError(t *testing.T) {
	m, f, _ := newModel(t)
	f.updateErr = errors.New("frame offline")

	m = press(t, m, " ")
	view := m.View()
	assert.Contains(t, view, "frame offline")
	assert.Regexp(t, `Art refresh\s+on`, view)
}

func TestBalanceViewAndCopy(t *testing.T) {
	m, _, cb := newModel(t)
	m = press(t, m, "2")

	view := m.View()
	assert.Contains(t, view, "unknown")
	assert.Contains(t, view, "RECV9")

	m = press(t, m, "c")
	assert.Equal(t, "RECV9", cb.text)
	assert.Contains(t, m.View(), "copied")
}

func TestTabCyclesViews(t *testing.T) {
	m, _, _ := newModel(t)
	m = press(t, m, "tab", "tab")
	view := m.View()
	assert.Contains(t, view, "* ")
	assert.Contains(t, view, "b.png")

	m = press(t, m, "1")
	assert.Contains(t, m.View(), "Art refresh")
}

func TestQuit(t *testing.T) {
	m, _, _ := newModel(t)
	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
	assert.True(t, strings.Contains(m.View(), "q quit"))
}

var _ panel.Clipboard = SystemClipboard{}
