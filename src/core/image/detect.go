package image

import (
	"bytes"
	"encoding/base64"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Magic numbers, checked in order when the decoders cannot read the header.
var imageSignatures = []struct {
	format string
	magic  []byte
}{
	{"jpeg", []byte{0xFF, 0xD8}},
	{"png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}},
	{"gif", []byte("GIF8")},
	{"webp", []byte("RIFF")}, // followed by WEBP at offset 8
	{"bmp", []byte("BM")},
}

// Encode base64-encodes raw and records its format. It never fails: bytes
// that are not a recognised image are still encoded and labelled with
// DefaultFormat, leaving the decision to the model.
func Encode(raw []byte) ImageData {
	return ImageData{
		Data:   base64.StdEncoding.EncodeToString(raw),
		Format: DetectFormat(raw),
		Size:   len(raw),
	}
}

// DetectFormat returns the image format of data, or DefaultFormat.
func DetectFormat(data []byte) string {
	if _, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil && format != "" {
		return format
	}

	for _, sig := range imageSignatures {
		if !bytes.HasPrefix(data, sig.magic) {
			continue
		}
		if sig.format == "webp" && (len(data) < 12 || !bytes.Equal(data[8:12], []byte("WEBP"))) {
			continue
		}
		return sig.format
	}

	return DefaultFormat
}
