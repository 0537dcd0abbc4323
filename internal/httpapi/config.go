package httpapi

// maxUploadBytes caps the multipart body accepted by /predict.
// Default is 16 MiB.
var maxUploadBytes int64 = 16 << 20

// SetMaxUploadBytes allows configuring the maximum upload size.
func SetMaxUploadBytes(n int64) {
	if n <= 0 {
		maxUploadBytes = 16 << 20
		return
	}
	maxUploadBytes = n
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server. Empty method
// and header lists fall back to GET/POST/OPTIONS and Content-Type.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
	if len(corsAllowedMethods) == 0 {
		corsAllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(corsAllowedHeaders) == 0 {
		corsAllowedHeaders = []string{"Content-Type", "X-Log-Level"}
	}
}
