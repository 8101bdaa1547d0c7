// Package templates renders the frame's control panels as html fragments for
// htmx.
package templates

import (
	"context"
	"io"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/aouyang1/iotacanvas/api/models"
	"github.com/aouyang1/iotacanvas/refresh"
	"github.com/aouyang1/iotacanvas/settings"
)

// QRImagePath is where the receive address qr code is served.
const QRImagePath = "/static/images/receive_address_qr.jpg"

var views = []struct{ name, label string }{
	{"settings", "Settings"},
	{"balance", "Balance"},
	{"art", "Art"},
}

// Index is the full page. The active panel is fetched by htmx on load.
func Index(active string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>IOTA Canvas</title>`)
		h.raw(`<link rel="icon" href="/favicon.svg" type="image/svg+xml">`)
		h.raw(`<link rel="stylesheet" href="/static/css/style.css">`)
		h.raw(`<script src="https://unpkg.com/htmx.org@1.9.12"></script>`)
		h.raw(`<script src="https://unpkg.com/htmx.org@1.9.12/dist/ext/json-enc.js"></script>`)
		h.raw(`</head><body><nav class="tabs">`)
		for _, v := range views {
			h.raw(`<button class="tab"`)
			h.attr("hx-get", panelURL(v.name))
			h.raw(` hx-target="#panel" hx-swap="innerHTML">`)
			h.text(v.label)
			h.raw(`</button>`)
		}
		h.raw(`</nav><main id="panel"`)
		h.attr("hx-get", panelURL(active))
		h.raw(` hx-trigger="load"><p class="loading">Loading...</p></main></body></html>`)
		return h.err
	})
}

// Error is shown in place of a panel whose data could not be read.
func Error(msg string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<div class="panel-error"><p>Error: `)
		h.text(msg)
		h.raw(`</p></div>`)
		return h.err
	})
}

// Settings renders one control per field. Every control posts its own field
// to /update_settings as soon as it changes.
func Settings(rec settings.Record) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<form class="settings" hx-ext="json-enc" hx-swap="none">`)
		for _, f := range settings.Fields {
			v, err := rec.Get(f.Name)
			if err != nil {
				return err
			}
			h.raw(`<label class="setting">`)
			h.raw(`<span>`)
			h.text(f.Label)
			h.raw(`</span>`)
			switch {
			case f.Kind == settings.KindBool:
				writeSelect(h, f.Name, strconv.FormatBool(v.(bool)), []string{"true", "false"})
			case f.Name == "refresh_unit":
				units := make([]string, len(refresh.Units))
				for i, u := range refresh.Units {
					units[i] = string(u)
				}
				writeSelect(h, f.Name, v.(string), units)
			case f.Kind == settings.KindInt:
				writeInput(h, f.Name, "number", strconv.Itoa(v.(int)))
			case f.Name == "display_off_time" || f.Name == "display_on_time":
				writeInput(h, f.Name, "time", v.(string))
			default:
				writeInput(h, f.Name, "text", v.(string))
			}
			h.raw(`</label>`)
		}
		h.raw(`</form>`)
		return h.err
	})
}

func writeSelect(h *htmlWriter, name, current string, options []string) {
	h.raw(`<select`)
	h.attr("name", name)
	h.raw(` hx-post="/update_settings" hx-trigger="change">`)
	for _, o := range options {
		h.raw(`<option`)
		h.attr("value", o)
		if o == current {
			h.raw(` selected`)
		}
		h.raw(`>`)
		h.text(o)
		h.raw(`</option>`)
	}
	h.raw(`</select>`)
}

func writeInput(h *htmlWriter, name, typ, value string) {
	h.raw(`<input`)
	h.attr("type", typ)
	h.attr("name", name)
	h.attr("value", value)
	h.raw(` hx-post="/update_settings" hx-trigger="change">`)
}

// Balance shows the wallet balance and where to send funds.
func Balance(iota models.IotaSettingsResponse, balance models.BalanceResponse) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<div class="balance"><h2>Current balance</h2><p class="amount">`)
		h.text(balanceText(balance.CurrentBalance))
		h.raw(`</p><h2>Receive address</h2><img class="qr"`)
		h.attr("src", QRImagePath)
		h.raw(` alt="receive address qr code"><p><code id="receive-address">`)
		h.text(iota.ReceiveAddress)
		h.raw(`</code></p>`)
		h.raw(`<button onclick="navigator.clipboard.writeText(document.getElementById('receive-address').textContent)">Copy address</button>`)
		h.raw(`<p class="node">Node `)
		h.text(iota.Node)
		h.rawf(`, address index %d</p></div>`, iota.AddrIndex)
		return h.err
	})
}

// Art lists the artwork stored on the frame.
func Art(art models.ArtworkResponse) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<div class="art">`)
		h.raw(`<button hx-post="/artwork/refresh" hx-swap="none">Refresh now</button>`)
		if art.LastRefreshTime != nil {
			h.raw(`<p class="refreshed">Last refreshed `)
			h.text(art.LastRefreshTime.Format(time.DateTime))
			h.raw(`</p>`)
		}
		if len(art.Artworks) == 0 {
			h.raw(`<p>No artwork yet.</p></div>`)
			return h.err
		}
		h.raw(`<div class="artwork-row">`)
		for _, name := range art.Artworks {
			h.raw(`<div class="artwork-item`)
			if name == art.CurrentArtwork {
				h.raw(` current`)
			}
			h.raw(`"><img class="artwork-thumbnail"`)
			h.attr("src", artworkImageURL(name))
			h.attr("alt", name)
			h.raw(`><span>`)
			h.text(name)
			h.raw(`</span></div>`)
		}
		h.raw(`</div></div>`)
		return h.err
	})
}
