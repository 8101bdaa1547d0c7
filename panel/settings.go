package panel

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/aouyang1/iotacanvas/settings"
)

// SettingsPanel is a form bound field-for-field to the settings record.
//
// Edits are applied to the visible record immediately and then written one
// field at a time. Each write answers with the server's record. The reply to
// the latest write of a field is authoritative for that field; any other field
// in the reply is taken only when the reply is newer than both the last write
// and the last reply that set it. A field with no write in flight always shows
// the authoritative value, so a failed write rolls the field back.
type SettingsPanel struct {
	id      string
	fetcher Fetcher

	status Status
	err    error

	local         settings.Record
	authoritative settings.Record

	seq uint64
	// lastWrite is the seq of the latest write issued per field, applied the
	// seq of the reply that last set the field's authoritative value.
	lastWrite   map[string]uint64
	applied     map[string]uint64
	outstanding map[string]int
	pending     int
	writeErr    error
}

func NewSettingsPanel(fetcher Fetcher) *SettingsPanel {
	return &SettingsPanel{
		id:          uuid.NewString(),
		fetcher:     fetcher,
		status:      StatusLoading,
		lastWrite:   make(map[string]uint64),
		applied:     make(map[string]uint64),
		outstanding: make(map[string]int),
	}
}

func (p *SettingsPanel) ID() string     { return p.id }
func (p *SettingsPanel) View() View     { return ViewSettings }
func (p *SettingsPanel) Status() Status { return p.status }
func (p *SettingsPanel) Err() error     { return p.err }

// WriteErr is the most recent write failure, nil if none.
func (p *SettingsPanel) WriteErr() error { return p.writeErr }

// Pending is the number of writes still in flight.
func (p *SettingsPanel) Pending() int { return p.pending }

// Record returns the visible record once loaded.
func (p *SettingsPanel) Record() (settings.Record, bool) {
	if p.status != StatusReady {
		return settings.Record{}, false
	}
	return p.local, true
}

func (p *SettingsPanel) Mount() []Cmd {
	p.status = StatusLoading
	p.err = nil
	id := p.id
	fetcher := p.fetcher
	return []Cmd{func(ctx context.Context) Msg {
		rec, err := fetcher.UserSettings(ctx)
		if err != nil {
			return SettingsFailed{target: target{id}, Err: err}
		}
		return SettingsLoaded{target: target{id}, Record: rec}
	}}
}

// Edit updates the visible value of field right away and returns the command
// that writes it. Values are only converted to the field's type, never range
// checked.
func (p *SettingsPanel) Edit(field string, value any) (Cmd, error) {
	if p.status != StatusReady {
		return nil, ErrNotReady
	}
	f, ok := settings.Lookup(field)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	coerced, err := settings.Coerce(f.Kind, value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	if err := p.local.Set(field, coerced); err != nil {
		return nil, err
	}

	p.seq++
	seq := p.seq
	p.lastWrite[field] = seq
	p.outstanding[field]++
	p.pending++

	id := p.id
	fetcher := p.fetcher
	return func(ctx context.Context) Msg {
		rec, err := fetcher.UpdateSettings(ctx, map[string]any{field: coerced})
		if err != nil {
			return SettingWriteFailed{target: target{id}, Field: field, Seq: seq, Err: err}
		}
		return SettingWritten{target: target{id}, Field: field, Seq: seq, Record: rec}
	}, nil
}

// Toggle flips a bool field.
func (p *SettingsPanel) Toggle(field string) (Cmd, error) {
	if p.status != StatusReady {
		return nil, ErrNotReady
	}
	cur, err := p.local.Get(field)
	if err != nil {
		return nil, err
	}
	b, ok := cur.(bool)
	if !ok {
		return nil, fmt.Errorf("%s is not a bool field", field)
	}
	return p.Edit(field, !b)
}

func (p *SettingsPanel) Update(msg Msg) {
	switch m := msg.(type) {
	case SettingsLoaded:
		if p.status != StatusLoading {
			return
		}
		p.local = m.Record
		p.authoritative = m.Record
		p.status = StatusReady
	case SettingsFailed:
		if p.status != StatusLoading {
			return
		}
		p.status = StatusError
		p.err = m.Err
	case SettingWritten:
		p.finishWrite(m.Field)
		p.applyReply(m)
		p.reconcile()
	case SettingWriteFailed:
		p.finishWrite(m.Field)
		p.writeErr = fmt.Errorf("saving %s: %w", m.Field, m.Err)
		p.reconcile()
	}
}

func (p *SettingsPanel) applyReply(m SettingWritten) {
	for _, f := range settings.Fields {
		if f.Name == m.Field {
			if m.Seq != p.lastWrite[f.Name] {
				continue
			}
		} else if m.Seq <= p.lastWrite[f.Name] || m.Seq <= p.applied[f.Name] {
			continue
		}
		v, err := m.Record.Get(f.Name)
		if err != nil {
			continue
		}
		if err := p.authoritative.Set(f.Name, v); err != nil {
			continue
		}
		p.applied[f.Name] = m.Seq
	}
}

func (p *SettingsPanel) finishWrite(field string) {
	if p.outstanding[field] > 0 {
		p.outstanding[field]--
		p.pending--
	}
}

// reconcile shows the authoritative value for every field without a write in
// flight.
func (p *SettingsPanel) reconcile() {
	for _, f := range settings.Fields {
		if p.outstanding[f.Name] > 0 {
			continue
		}
		v, err := p.authoritative.Get(f.Name)
		if err != nil {
			continue
		}
		_ = p.local.Set(f.Name, v)
	}
}
