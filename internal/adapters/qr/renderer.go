package qr

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"

	"gatherpass/internal/domain"
)

// pngSize is the rendered QR edge length in pixels. 256 scans reliably from
// both phone screens and printouts.
const pngSize = 256

type renderer struct{}

// NewRenderer returns a CredentialRenderer that produces QR code PNGs.
func NewRenderer() domain.CredentialRenderer {
	return &renderer{}
}

func (r *renderer) RenderPNG(payload string) ([]byte, error) {
	png, err := qrcode.Encode(payload, qrcode.Medium, pngSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return png, nil
}
