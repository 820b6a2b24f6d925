// Package qrcode renders membership card QR codes for inline display.
package qrcode

import (
	"encoding/base64"
	"errors"
	"html/template"

	qr "github.com/skip2/go-qrcode"
)

// DefaultSize is the rendered edge length in pixels.
const DefaultSize = 220

// ErrEmpty is returned for empty content.
var ErrEmpty = errors.New("qrcode: empty content")

// PNG encodes content as a QR code image.
// PRE: content is non-empty
// POST: Returns PNG bytes of size x size pixels
func PNG(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, ErrEmpty
	}
	if size <= 0 {
		size = DefaultSize
	}
	return qr.Encode(content, qr.Medium, size)
}

// DataURI returns content as a PNG data URI usable in an <img src>.
func DataURI(content string, size int) (template.URL, error) {
	png, err := PNG(content, size)
	if err != nil {
		return "", err
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)), nil
}
