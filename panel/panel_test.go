package panel

import (
	"context"
	"errors"
	"sync"

	"github.com/aouyang1/iotacanvas/api/models"
	"github.com/aouyang1/iotacanvas/settings"
)

var errBoom = errors.New("boom")

// fakeFetcher serves a settings record from memory. Writes go through
// update so tests can fail or reshape them.
type fakeFetcher struct {
	mu     sync.Mutex
	record settings.Record
	calls  []map[string]any

	settingsErr error
	updateErr   error
	iota        models.IotaSettingsResponse
	iotaErr     error
	balance     models.BalanceResponse
	balanceErr  error
	art         models.ArtworkResponse
	artErr      error
}

func newFakeFetcher() *fakeFetcher {
	bal := int64(42)
	return &fakeFetcher{
		record: settings.Defaults(),
		iota: models.IotaSettingsResponse{
			Node:           "https://node.example:443",
			AddrIndex:      3,
			ReceiveAddress: "RECV9ADDRESS",
		},
		balance: models.BalanceResponse{CurrentBalance: &bal},
		art: models.ArtworkResponse{
			CurrentArtwork: "a.png",
			Artworks:       []string{"a.png", "b.jpg"},
		},
	}
}

func (f *fakeFetcher) UserSettings(ctx context.Context) (settings.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.settingsErr != nil {
		return settings.Record{}, f.settingsErr
	}
	return f.record, nil
}

func (f *fakeFetcher) UpdateSettings(ctx context.Context, fields map[string]any) (settings.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fields)
	if f.updateErr != nil {
		return settings.Record{}, f.updateErr
	}
	for k, v := range fields {
		if err := settings.Validate(k, v); err != nil {
			return settings.Record{}, err
		}
		if err := f.record.Set(k, v); err != nil {
			return settings.Record{}, err
		}
	}
	return f.record, nil
}

func (f *fakeFetcher) IotaSettings(ctx context.Context) (models.IotaSettingsResponse, error) {
	return f.iota, f.iotaErr
}

func (f *fakeFetcher) Balance(ctx context.Context) (models.BalanceResponse, error) {
	return f.balance, f.balanceErr
}

func (f *fakeFetcher) Artwork(ctx context.Context) (models.ArtworkResponse, error) {
	return f.art, f.artErr
}

type fakeClipboard struct {
	text string
	err  error
}

func (c *fakeClipboard) WriteAll(text string) error {
	if c.err != nil {
		return c.err
	}
	c.text = text
	return nil
}

func run(cmds []Cmd) []Msg {
	msgs := make([]Msg, 0, len(cmds))
	for _, c := range cmds {
		msgs = append(msgs, c(context.Background()))
	}
	return msgs
}
