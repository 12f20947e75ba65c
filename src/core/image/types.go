package image

import "fmt"

// DefaultFormat is used for the data URI when the bytes cannot be identified.
const DefaultFormat = "jpeg"

// ImageData is an uploaded image prepared for a model request.
type ImageData struct {
	Data   string `json:"data,omitempty"`   // base64 of the raw upload
	Format string `json:"format,omitempty"` // jpeg, png, gif, webp or bmp
	Size   int    `json:"size,omitempty"`   // raw byte count
}

// DataURI renders the image as an inline data URI for the chat API.
func (d ImageData) DataURI() string {
	format := d.Format
	if format == "" {
		format = DefaultFormat
	}
	return fmt.Sprintf("data:image/%s;base64,%s", format, d.Data)
}
