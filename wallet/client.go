// Package wallet talks to the wallet service that holds the frame's seed. The
// frame only ever asks it for a balance or a fresh receive address.
package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aouyang1/iotacanvas/metrics"
)

var ErrNotConfigured = errors.New("wallet service not configured")

type balanceResponse struct {
	Balance int64 `json:"balance"`
}

type addressResponse struct {
	Address string `json:"address"`
}

type transferRequest struct {
	Address string `json:"address"`
	Amount  int64  `json:"amount"`
}

type transferResponse struct {
	Bundle string `json:"bundle"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient returns nil when baseURL is empty. A nil *Client reports
// ErrNotConfigured from every call.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Balance returns the balance of every address generated so far.
func (c *Client) Balance(ctx context.Context) (int64, error) {
	if c == nil {
		return 0, ErrNotConfigured
	}

	var resp balanceResponse
	err := c.do(ctx, http.MethodGet, "/balance", nil, &resp)
	metrics.RecordWalletRequest("balance", err)
	if err != nil {
		return 0, err
	}
	return resp.Balance, nil
}

// NewAddress asks the wallet to derive the next unused receive address.
func (c *Client) NewAddress(ctx context.Context) (string, error) {
	if c == nil {
		return "", ErrNotConfigured
	}

	var resp addressResponse
	err := c.do(ctx, http.MethodPost, "/addresses", struct{}{}, &resp)
	if err == nil && resp.Address == "" {
		err = errors.New("wallet returned an empty address")
	}
	metrics.RecordWalletRequest("new_address", err)
	if err != nil {
		return "", err
	}
	return resp.Address, nil
}

// Send transfers amount iotas to address and returns the bundle hash.
func (c *Client) Send(ctx context.Context, address string, amount int64) (string, error) {
	if c == nil {
		return "", ErrNotConfigured
	}
	if amount <= 0 {
		return "", fmt.Errorf("invalid transfer amount %d", amount)
	}

	var resp transferResponse
	err := c.do(ctx, http.MethodPost, "/transfers", transferRequest{Address: address, Amount: amount}, &resp)
	metrics.RecordWalletRequest("send", err)
	if err != nil {
		return "", err
	}
	return resp.Bundle, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
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
		var errResp errorResponse
		if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("wallet error: %s", errResp.Error)
		}
		return fmt.Errorf("wallet returned status %d: %s", resp.StatusCode, string(data))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
