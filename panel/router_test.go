package panel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouterStartsOnSettings(t *testing.T) {
	r := NewRouter(newFakeFetcher())
	assert.Equal(t, ViewSettings, r.View())

	for _, m := range run(r.Start()) {
		assert.True(t, r.Update(m))
	}
	p, ok := r.Settings()
	require.True(t, ok)
	assert.Equal(t, StatusReady, p.Status())
}

func TestRouterNavigateSameViewIsNoop(t *testing.T) {
	r := NewRouter(newFakeFetcher())
	r.Start()
	id := r.Active().ID()

	assert.Nil(t, r.Navigate(ViewSettings))
	assert.Equal(t, id, r.Active().ID())
}

func TestRouterDropsLateResults(t *testing.T) {
	r := NewRouter(newFakeFetcher())
	pending := run(r.Start())

	cmds := r.Navigate(ViewBalance)
	require.Len(t, cmds, 2)
	assert.Equal(t, ViewBalance, r.View())

	for _, m := range pending {
		assert.False(t, r.Update(m))
	}
	bal, ok := r.Balance()
	require.True(t, ok)
	assert.Equal(t, StatusLoading, bal.Status())

	for _, m := range run(cmds) {
		assert.True(t, r.Update(m))
	}
	assert.Equal(t, StatusReady, bal.Status())
}

func TestRouterReturnToViewGetsFreshInstance(t *testing.T) {
	r := NewRouter(newFakeFetcher())
	first := r.Active().ID()
	stale := run(r.Start())

	r.Navigate(ViewArt)
	cmds := r.Navigate(ViewSettings)
	assert.NotEqual(t, first, r.Active().ID())

	for _, m := range stale {
		assert.False(t, r.Update(m))
	}
	p, _ := r.Settings()
	assert.Equal(t, StatusLoading, p.Status())

	for _, m := range run(cmds) {
		r.Update(m)
	}
	assert.Equal(t, StatusReady, p.Status())
}

func TestRouterDropsWriteForAbandonedPanel(t *testing.T) {
	r := NewRouter(newFakeFetcher())
	for _, m := range run(r.Start()) {
		r.Update(m)
	}
	p, _ := r.Settings()
	cmd, err := p.Edit("art_refresh_rate", 9)
	require.NoError(t, err)

	r.Navigate(ViewBalance)
	assert.False(t, r.Update(cmd(context.Background())))
	assert.False(t, r.Update(nil))
}

func TestRouterNextCycles(t *testing.T) {
	r := NewRouter(newFakeFetcher())
	r.Next()
	assert.Equal(t, ViewBalance, r.View())
	r.Next()
	assert.Equal(t, ViewArt, r.View())
	r.Next()
	assert.Equal(t, ViewSettings, r.View())
	assert.Equal(t, "Art", ViewArt.String())
}

func TestStatusAndViewNames(t *testing.T) {
	assert.Equal(t, "loading", StatusLoading.String())
	assert.Equal(t, "ready", StatusReady.String())
	assert.Equal(t, "error", StatusError.String())
	assert.Equal(t, "unknown", Status(42).String())

	assert.Equal(t, "Art", ViewArt.String())
	assert.Equal(t, "Unknown", View(42).String())
}
