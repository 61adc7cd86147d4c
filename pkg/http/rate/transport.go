package rate

import (
	"net/http"
)

// NewTransport returns a http RoundTripper which honors the specified rate limit
func NewTransport(rl Limiter, transport http.RoundTripper) http.RoundTripper {
	return &rateLimitingTransport{
		wrappedTransport: transport,
		ratelimiter:      rl,
	}
}

// rateLimitingTransport represents a http.RoundTripper valuing the provided rate limit
type rateLimitingTransport struct {
	wrappedTransport http.RoundTripper
	ratelimiter      Limiter
}

// RoundTrip dispatches the HTTP request to the network
func (r *rateLimitingTransport) RoundTrip(request *http.Request) (*http.Response, error) {
	err := r.ratelimiter.Wait(request.Context()) // This is a blocking call. Honors the rate limit
	if err != nil {
		return nil, err
	}
	return r.wrappedTransport.RoundTrip(request)
}
