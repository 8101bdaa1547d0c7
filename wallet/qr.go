package wallet

import (
	"bytes"
	"errors"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"

	qrcode "github.com/skip2/go-qrcode"
)

// QRSize is the edge length of the receive address code in pixels.
const QRSize = 256

// RenderQR encodes text as a square JPEG QR code with high error correction.
func RenderQR(text string, size int) ([]byte, error) {
	if text == "" {
		return nil, errors.New("no text to encode")
	}
	qr, err := qrcode.New(text, qrcode.Highest)
	if err != nil {
		return nil, fmt.Errorf("failed to build qr code: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, qr.Image(size), &jpeg.Options{Quality: 95}); err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveQR renders text and atomically replaces the file at path.
func SaveQR(text, path string) error {
	data, err := RenderQR(text, QRSize)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create qr directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write qr code: %w", err)
	}
	return os.Rename(tmp, path)
}
