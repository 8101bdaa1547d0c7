// Package client is the Go client for the frame's HTTP api.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aouyang1/iotacanvas/api/models"
	"github.com/aouyang1/iotacanvas/settings"
)

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// UserSettings reads the whole settings record.
func (c *Client) UserSettings(ctx context.Context) (settings.Record, error) {
	var rec settings.Record
	if err := c.do(ctx, http.MethodGet, "/user_settings", nil, &rec); err != nil {
		return settings.Record{}, err
	}
	return rec, nil
}

// UpdateSettings writes fields and returns the record as stored by the frame.
func (c *Client) UpdateSettings(ctx context.Context, fields map[string]any) (settings.Record, error) {
	var rec models.UpdateSettingsResponse
	if err := c.do(ctx, http.MethodPost, "/update_settings", models.UpdateSettingsRequest(fields), &rec); err != nil {
		return settings.Record{}, err
	}
	return rec, nil
}

func (c *Client) IotaSettings(ctx context.Context) (models.IotaSettingsResponse, error) {
	var resp models.IotaSettingsResponse
	err := c.do(ctx, http.MethodGet, "/iota_settings", nil, &resp)
	return resp, err
}

func (c *Client) Balance(ctx context.Context) (models.BalanceResponse, error) {
	var resp models.BalanceResponse
	err := c.do(ctx, http.MethodGet, "/iota_balance", nil, &resp)
	return resp, err
}

func (c *Client) Artwork(ctx context.Context) (models.ArtworkResponse, error) {
	var resp models.ArtworkResponse
	err := c.do(ctx, http.MethodGet, "/artwork", nil, &resp)
	return resp, err
}

// RefreshArtwork asks the frame to sync artwork now.
func (c *Client) RefreshArtwork(ctx context.Context) (string, error) {
	var resp models.RefreshResponse
	if err := c.do(ctx, http.MethodPost, "/artwork/refresh", nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *Client) do(ctx context.Context, method, path string, reqBody, out any) error {
	var body io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp models.ErrorResponse
		if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("server error: %s", errResp.Error)
		}
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(data))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
