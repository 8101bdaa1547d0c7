package panel

import (
	"context"

	"github.com/google/uuid"

	"github.com/aouyang1/iotacanvas/api/models"
)

// ArtPanel lists the artwork stored on the frame.
type ArtPanel struct {
	id      string
	fetcher Fetcher

	status Status
	err    error
	art    models.ArtworkResponse
}

func NewArtPanel(fetcher Fetcher) *ArtPanel {
	return &ArtPanel{
		id:      uuid.NewString(),
		fetcher: fetcher,
		status:  StatusLoading,
	}
}

func (p *ArtPanel) ID() string     { return p.id }
func (p *ArtPanel) View() View     { return ViewArt }
func (p *ArtPanel) Status() Status { return p.status }
func (p *ArtPanel) Err() error     { return p.err }

func (p *ArtPanel) Mount() []Cmd {
	p.status = StatusLoading
	p.err = nil
	id := p.id
	fetcher := p.fetcher
	return []Cmd{func(ctx context.Context) Msg {
		art, err := fetcher.Artwork(ctx)
		if err != nil {
			return ArtworkFailed{target: target{id}, Err: err}
		}
		return ArtworkLoaded{target: target{id}, Artwork: art}
	}}
}

func (p *ArtPanel) Update(msg Msg) {
	if p.status != StatusLoading {
		return
	}
	switch m := msg.(type) {
	case ArtworkLoaded:
		p.art = m.Artwork
		p.status = StatusReady
	case ArtworkFailed:
		p.status = StatusError
		p.err = m.Err
	}
}

func (p *ArtPanel) Artwork() (models.ArtworkResponse, bool) {
	if p.status != StatusReady {
		return models.ArtworkResponse{}, false
	}
	return p.art, true
}
