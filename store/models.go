package store

import "time"

// IotaState is the public part of the wallet configuration. The seed never
// lives here.
type IotaState struct {
	Node           string `json:"node"`
	AddrIndex      int    `json:"addr_index"`
	ReceiveAddress string `json:"receive_address"`
}

type ArtState struct {
	CurrentArtwork  string     `json:"current_artwork"`
	LastRefreshTime *time.Time `json:"last_refresh_time"`
}
