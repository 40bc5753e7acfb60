package httpx

import (
	"net/http"
	"time"
)

const defaultExternalHTTPTimeout = 30 * time.Second

var externalHTTPClient = &http.Client{
	Timeout: defaultExternalHTTPTimeout,
}

// ConfigureExternalHTTPClient sets the timeout for all outbound adapter
// calls (model server, YouTube, LLM fallbacks go through their own SDKs).
// Zero or negative keeps the default. Returns the applied timeout.
func ConfigureExternalHTTPClient(seconds int) time.Duration {
	if seconds > 0 {
		externalHTTPClient.Timeout = time.Duration(seconds) * time.Second
	}
	return externalHTTPClient.Timeout
}

// Client returns the shared outbound HTTP client.
func Client() *http.Client {
	return externalHTTPClient
}
