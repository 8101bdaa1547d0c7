package artwork

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// LowBalanceAmount is the balance below which no artwork is commissioned.
	LowBalanceAmount = 100

	statusPollInterval = 30 * time.Second
	maxStatusWait      = 15 * time.Minute
	maxArtworkBytes    = 64 << 20
)

var (
	ErrLowBalance  = errors.New("wallet balance too low to commission artwork")
	ErrNoArtists   = errors.New("marketplace has no artists")
	ErrArtTimedOut = errors.New("commissioned artwork was not ready in time")
)

// Payer pays the marketplace for commissioned artwork.
type Payer interface {
	Balance(ctx context.Context) (int64, error)
	Send(ctx context.Context, address string, amount int64) (string, error)
}

type Artist struct {
	ID    int    `json:"id"`
	Cost  int64  `json:"cost"`
	Genre string `json:"genre_name"`
}

// ArtRequest is the marketplace's receipt for a commissioned piece.
type ArtRequest struct {
	IotaAddr     string `json:"iota_addr"`
	JobID        int    `json:"job_id"`
	Key          string `json:"key"`
	StatusAddr   string `json:"status_addr"`
	RetrieveAddr string `json:"retrieve_addr"`
}

type jobKey struct {
	Key string `json:"key"`
}

type jobStatus struct {
	Status string `json:"status"`
}

// Marketplace commissions artwork from AI artists over HTTP and pays for it
// through the wallet.
type Marketplace struct {
	payer  Payer
	client *http.Client

	pollInterval time.Duration
	maxWait      time.Duration
}

func NewMarketplace(payer Payer, timeout time.Duration) *Marketplace {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Marketplace{
		payer:        payer,
		client:       &http.Client{Timeout: timeout},
		pollInterval: statusPollInterval,
		maxWait:      maxStatusWait,
	}
}

// ChooseArtist picks the cheapest artist, the first one listed on a tie.
func ChooseArtist(artists []Artist) (Artist, error) {
	if len(artists) == 0 {
		return Artist{}, ErrNoArtists
	}
	best := artists[0]
	for _, a := range artists[1:] {
		if a.Cost < best.Cost {
			best = a
		}
	}
	return best, nil
}

func (m *Marketplace) Artists(ctx context.Context, baseURL string) ([]Artist, error) {
	var artists []Artist
	if err := m.doJSON(ctx, http.MethodGet, baseURL+"/artist-list", nil, &artists, http.StatusOK); err != nil {
		return nil, err
	}
	return artists, nil
}

func (m *Marketplace) RequestArt(ctx context.Context, baseURL string, artistID int) (*ArtRequest, error) {
	var req ArtRequest
	url := fmt.Sprintf("%s/%d/request-art", baseURL, artistID)
	if err := m.doJSON(ctx, http.MethodGet, url, nil, &req, http.StatusOK, http.StatusAccepted); err != nil {
		return nil, err
	}
	if req.IotaAddr == "" || req.Key == "" || req.StatusAddr == "" || req.RetrieveAddr == "" {
		return nil, errors.New("incomplete art request from marketplace")
	}
	return &req, nil
}

// Status reports whether the job is completed. The marketplace answers 409
// while the piece is still being painted.
func (m *Marketplace) Status(ctx context.Context, baseURL string, req *ArtRequest) (bool, error) {
	var status jobStatus
	if err := m.doJSON(ctx, http.MethodPost, baseURL+req.StatusAddr, jobKey{Key: req.Key}, &status, http.StatusOK, http.StatusConflict); err != nil {
		return false, err
	}
	return status.Status == "completed", nil
}

// Retrieve downloads the finished artwork.
func (m *Marketplace) Retrieve(ctx context.Context, baseURL string, req *ArtRequest) ([]byte, error) {
	resp, err := m.send(ctx, http.MethodPost, baseURL+req.RetrieveAddr, jobKey{Key: req.Key})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("marketplace returned status %d for artwork", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArtworkBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read artwork: %w", err)
	}
	return data, nil
}

// Commission buys one new artwork from the cheapest artist at baseURL and
// saves it into dir under a random name. It returns the file name.
func (m *Marketplace) Commission(ctx context.Context, baseURL, dir string) (string, error) {
	baseURL = strings.TrimRight(baseURL, "/")

	balance, err := m.payer.Balance(ctx)
	if err != nil {
		return "", fmt.Errorf("unable to check balance: %w", err)
	}
	if balance < LowBalanceAmount {
		return "", fmt.Errorf("%w: %d", ErrLowBalance, balance)
	}

	artists, err := m.Artists(ctx, baseURL)
	if err != nil {
		return "", err
	}
	artist, err := ChooseArtist(artists)
	if err != nil {
		return "", err
	}
	if artist.Cost > balance {
		return "", fmt.Errorf("%w: %d for a %d piece", ErrLowBalance, balance, artist.Cost)
	}

	req, err := m.RequestArt(ctx, baseURL, artist.ID)
	if err != nil {
		return "", err
	}
	if _, err := m.payer.Send(ctx, req.IotaAddr, artist.Cost); err != nil {
		return "", fmt.Errorf("unable to pay for artwork: %w", err)
	}
	slog.Info("commissioned artwork", "artist", artist.ID, "cost", artist.Cost, "job", req.JobID)

	if err := m.waitCompleted(ctx, baseURL, req); err != nil {
		return "", err
	}

	data, err := m.Retrieve(ctx, baseURL, req)
	if err != nil {
		return "", err
	}
	ext, err := imageExt(data)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create artwork directory: %w", err)
	}
	name := strings.ReplaceAll(uuid.NewString(), "-", "")[:8] + ext
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to save artwork: %w", err)
	}
	return name, nil
}

func (m *Marketplace) waitCompleted(ctx context.Context, baseURL string, req *ArtRequest) error {
	deadline := time.NewTimer(m.maxWait)
	defer deadline.Stop()
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("%w: job %d", ErrArtTimedOut, req.JobID)
		case <-ticker.C:
			done, err := m.Status(ctx, baseURL, req)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		}
	}
}

// imageExt maps the sniffed content type to a file extension the viewer
// can show.
func imageExt(data []byte) (string, error) {
	switch ct := http.DetectContentType(data); ct {
	case "image/png":
		return ".png", nil
	case "image/jpeg":
		return ".jpg", nil
	case "image/bmp":
		return ".bmp", nil
	default:
		return "", fmt.Errorf("unsupported artwork type %q", ct)
	}
}

func (m *Marketplace) send(ctx context.Context, method, url string, in any) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not contact ai marketplace: %w", err)
	}
	return resp, nil
}

func (m *Marketplace) doJSON(ctx context.Context, method, url string, in, out any, accept ...int) error {
	resp, err := m.send(ctx, method, url, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !slices.Contains(accept, resp.StatusCode) {
		return fmt.Errorf("marketplace returned status %d for %s", resp.StatusCode, url)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse marketplace response: %w", err)
	}
	return nil
}
