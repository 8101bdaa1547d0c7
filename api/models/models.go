// Package models tracks all api models for request and responses
package models

import (
	"time"

	"github.com/aouyang1/iotacanvas/settings"
)

// UpdateSettingsRequest maps field names to new values, {"art_refresh_rate": 12}.
type UpdateSettingsRequest map[string]any

// UpdateSettingsResponse carries the authoritative record after a write.
type UpdateSettingsResponse = settings.Record

type IotaSettingsResponse struct {
	Node           string `json:"node"`
	AddrIndex      int    `json:"addr_index"`
	ReceiveAddress string `json:"receive_address"`
}

// BalanceResponse leaves CurrentBalance nil when no wallet is reachable.
type BalanceResponse struct {
	CurrentBalance *int64 `json:"current_balance"`
}

type ArtworkResponse struct {
	CurrentArtwork  string     `json:"current_artwork"`
	Artworks        []string   `json:"artworks"`
	LastRefreshTime *time.Time `json:"last_refresh_time"`
}

type RefreshResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
