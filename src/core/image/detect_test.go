package image

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/image/bmp"
)

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	return img
}

func encoded(t *testing.T, enc func(*bytes.Buffer, image.Image) error) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := enc(buf, testImage()); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected string
	}{
		{
			name: "png",
			data: encoded(t, func(b *bytes.Buffer, i image.Image) error { return png.Encode(b, i) }),
			expected: "png",
		},
		{
			name: "jpeg",
			data: encoded(t, func(b *bytes.Buffer, i image.Image) error { return jpeg.Encode(b, i, nil) }),
			expected: "jpeg",
		},
		{
			name: "gif",
			data: encoded(t, func(b *bytes.Buffer, i image.Image) error { return gif.Encode(b, i, nil) }),
			expected: "gif",
		},
		{
			name: "bmp",
			data: encoded(t, func(b *bytes.Buffer, i image.Image) error { return bmp.Encode(b, i) }),
			expected: "bmp",
		},
		{
			name:     "truncated jpeg header",
			data:     []byte{0xFF, 0xD8, 0xFF},
			expected: "jpeg",
		},
		{
			name:     "webp signature",
			data:     []byte("RIFF\x00\x00\x00\x00WEBPVP8 "),
			expected: "webp",
		},
		{
			name:     "riff that is not webp",
			data:     []byte("RIFF\x00\x00\x00\x00WAVEfmt "),
			expected: DefaultFormat,
		},
		{
			name:     "not an image",
			data:     []byte("hello world"),
			expected: DefaultFormat,
		},
		{
			name:     "empty",
			data:     nil,
			expected: DefaultFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectFormat(tt.data))
		})
	}
}

func TestEncode(t *testing.T) {
	raw := encoded(t, func(b *bytes.Buffer, i image.Image) error { return png.Encode(b, i) })

	img := Encode(raw)
	assert.Equal(t, "png", img.Format)
	assert.Equal(t, len(raw), img.Size)

	decoded, err := base64.StdEncoding.DecodeString(img.Data)
	assert.NoError(t, err)
	assert.Equal(t, raw, decoded)
}

func TestDataURI(t *testing.T) {
	assert.Equal(t, "data:image/png;base64,QUJD", ImageData{Data: "QUJD", Format: "png"}.DataURI())
	assert.Equal(t, "data:image/jpeg;base64,QUJD", ImageData{Data: "QUJD"}.DataURI())
}
