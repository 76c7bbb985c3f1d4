// Package qrcode renders otpauth enrollment URIs as PNG QR codes, either as
// raw bytes or as a data URI a client can drop into an <img> tag.
// It wraps github.com/skip2/go-qrcode.
package qrcode

import (
	"encoding/base64"
	"errors"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

var (
	// ErrEmptyContent is returned when content is empty or only whitespace.
	ErrEmptyContent = errors.New("qrcode: content cannot be empty")
	// ErrFailedToEncode is returned when the QR code cannot be generated.
	ErrFailedToEncode = errors.New("qrcode: failed to encode")
)

const (
	DefaultSize   = 256
	dataURIPrefix = "data:image/png;base64,"
)

// Encoder renders QR codes at a fixed size and recovery level.
type Encoder struct {
	size  int
	level skipqrcode.RecoveryLevel
}

// NewEncoder returns an Encoder producing size x size images.
// A non-positive size falls back to DefaultSize.
func NewEncoder(size int) *Encoder {
	if size <= 0 {
		size = DefaultSize
	}
	return &Encoder{size: size, level: skipqrcode.Medium}
}

// Size is the pixel width and height of rendered images.
func (e *Encoder) Size() int { return e.size }

// PNG encodes content as a PNG image.
func (e *Encoder) PNG(content string) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	png, err := skipqrcode.Encode(content, e.level, e.size)
	if err != nil {
		return nil, errors.Join(ErrFailedToEncode, err)
	}
	return png, nil
}

// DataURI encodes content as "data:image/png;base64,...".
func (e *Encoder) DataURI(content string) (string, error) {
	png, err := e.PNG(content)
	if err != nil {
		return "", err
	}
	return dataURIPrefix + base64.StdEncoding.EncodeToString(png), nil
}
