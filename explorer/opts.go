package explorer

import (
	"net/http"
	"time"
)

// Option is a functional option for configuring the Explorer service.
type Option func(*explorerSvc)

// WithHTTPClient overrides the HTTP client used for all requests.
// Default: a client with a 15 second timeout.
func WithHTTPClient(client *http.Client) Option {
	return func(svc *explorerSvc) {
		svc.client = client
	}
}

// WithFeeCacheTTL sets how long a fetched fee estimate is served from memory
// before it is refreshed from the network.
// Default: 60 seconds.
func WithFeeCacheTTL(ttl time.Duration) Option {
	return func(svc *explorerSvc) {
		svc.feeCacheTTL = ttl
	}
}
