// internal/app/system/limits/limits.go
package limits

// Request body size limits for various features.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxJSONBodySize is the maximum size of a JSON request body.
	MaxJSONBodySize = 1 << 20 // 1 MB

	// MaxCSVUploadSize is the maximum size of an invitation CSV upload,
	// including the multipart envelope.
	MaxCSVUploadSize = 5 << 20 // 5 MB
)
