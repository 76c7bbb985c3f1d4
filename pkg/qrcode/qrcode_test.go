package qrcode_test

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"

	"github.com/cashlens/cashlens/pkg/qrcode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const enrollmentURI = "otpauth://totp/CashLens:user@example.com?algorithm=SHA1&digits=6&issuer=CashLens&period=30&secret=JBSWY3DPEHPK3PXP"

func TestEncoder_PNG(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		size     int
		wantSize int
	}{
		{name: "requested size", size: 320, wantSize: 320},
		{name: "zero falls back to default", size: 0, wantSize: qrcode.DefaultSize},
		{name: "negative falls back to default", size: -10, wantSize: qrcode.DefaultSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			enc := qrcode.NewEncoder(tt.size)
			assert.Equal(t, tt.wantSize, enc.Size())

			data, err := enc.PNG(enrollmentURI)
			require.NoError(t, err)

			img, err := png.Decode(bytes.NewReader(data))
			require.NoError(t, err)
			assert.Equal(t, tt.wantSize, img.Bounds().Dx())
			assert.Equal(t, tt.wantSize, img.Bounds().Dy())
		})
	}
}

func TestEncoder_EmptyContent(t *testing.T) {
	t.Parallel()
	enc := qrcode.NewEncoder(0)

	for _, content := range []string{"", "   \t\n"} {
		data, err := enc.PNG(content)
		assert.ErrorIs(t, err, qrcode.ErrEmptyContent)
		assert.Nil(t, data)

		uri, err := enc.DataURI(content)
		assert.ErrorIs(t, err, qrcode.ErrEmptyContent)
		assert.Empty(t, uri)
	}
}

func TestEncoder_DataURI(t *testing.T) {
	t.Parallel()
	enc := qrcode.NewEncoder(200)

	uri, err := enc.DataURI(enrollmentURI)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/png;base64,"))
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
}
