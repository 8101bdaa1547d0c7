package panel

import (
	"context"

	"github.com/google/uuid"

	"github.com/aouyang1/iotacanvas/api/models"
)

// QRImagePath is the static path of the receive address qr code.
const QRImagePath = "/static/images/receive_address_qr.jpg"

// BalanceRecord is what the balance panel shows once both reads are back.
type BalanceRecord struct {
	CurrentBalance *int64
	ReceiveAddress string
	Node           string
	AddrIndex      int
}

// BalancePanel shows the wallet balance and receive address. Its two reads
// run independently; the panel is ready once both succeed and fails as soon
// as either does.
type BalancePanel struct {
	id      string
	fetcher Fetcher

	status Status
	err    error

	iota    *models.IotaSettingsResponse
	balance *models.BalanceResponse
}

func NewBalancePanel(fetcher Fetcher) *BalancePanel {
	return &BalancePanel{
		id:      uuid.NewString(),
		fetcher: fetcher,
		status:  StatusLoading,
	}
}

func (p *BalancePanel) ID() string     { return p.id }
func (p *BalancePanel) View() View     { return ViewBalance }
func (p *BalancePanel) Status() Status { return p.status }
func (p *BalancePanel) Err() error     { return p.err }

func (p *BalancePanel) Mount() []Cmd {
	p.status = StatusLoading
	p.err = nil
	p.iota = nil
	p.balance = nil

	id := p.id
	fetcher := p.fetcher
	return []Cmd{
		func(ctx context.Context) Msg {
			s, err := fetcher.IotaSettings(ctx)
			if err != nil {
				return BalanceFailed{target: target{id}, Source: "iota_settings", Err: err}
			}
			return IotaSettingsLoaded{target: target{id}, Settings: s}
		},
		func(ctx context.Context) Msg {
			b, err := fetcher.Balance(ctx)
			if err != nil {
				return BalanceFailed{target: target{id}, Source: "iota_balance", Err: err}
			}
			return BalanceLoaded{target: target{id}, Balance: b}
		},
	}
}

func (p *BalancePanel) Update(msg Msg) {
	if p.status != StatusLoading {
		return
	}
	switch m := msg.(type) {
	case IotaSettingsLoaded:
		s := m.Settings
		p.iota = &s
	case BalanceLoaded:
		b := m.Balance
		p.balance = &b
	case BalanceFailed:
		p.status = StatusError
		p.err = m.Err
		return
	}
	if p.iota != nil && p.balance != nil {
		p.status = StatusReady
	}
}

// Balance returns the record only when both reads have succeeded.
func (p *BalancePanel) Balance() (BalanceRecord, bool) {
	if p.status != StatusReady {
		return BalanceRecord{}, false
	}
	return BalanceRecord{
		CurrentBalance: p.balance.CurrentBalance,
		ReceiveAddress: p.iota.ReceiveAddress,
		Node:           p.iota.Node,
		AddrIndex:      p.iota.AddrIndex,
	}, true
}

// Copy writes the receive address to the clipboard.
func (p *BalancePanel) Copy(cb Clipboard) error {
	rec, ok := p.Balance()
	if !ok {
		return ErrNotReady
	}
	return cb.WriteAll(rec.ReceiveAddress)
}
