package analyze

// ImageField is the multipart field holding the upload.
const ImageField = "image"

const (
	msgNoImage   = "No image uploaded"
	msgReadImage = "Failed to read uploaded image"
)

// ErrorResponse is the body of every failed request. Analysis is only set
// when the vision call succeeded and the routine call did not.
type ErrorResponse struct {
	Error    string `json:"error"`
	Analysis string `json:"curl_analysis,omitempty"`
}
