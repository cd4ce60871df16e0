package utils

import (
	"errors"

	qrcode "github.com/skip2/go-qrcode"
)

// QRSize is the edge length in pixels of rendered ticket codes.
const QRSize = 256

// RenderQRPNG encodes content as a PNG QR code with medium error recovery.
func RenderQRPNG(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, errors.New("qr content is empty")
	}
	if size <= 0 {
		size = QRSize
	}
	return qrcode.Encode(content, qrcode.Medium, size)
}
