package http

import (
	"log"
	"net/http"
	"net/http/httputil"

	"github.com/google/uuid"
)

// LogTransport wraps a RoundTripper with request/response dumping. Each
// exchange is tagged with a correlation id so paged multi-request queries
// can be followed in the log.
func LogTransport(transport http.RoundTripper) http.RoundTripper {
	return &logTransport{transport: transport}
}

type logTransport struct {
	transport http.RoundTripper
}

func (l *logTransport) RoundTrip(request *http.Request) (*http.Response, error) {
	id := uuid.NewString()
	req, err := httputil.DumpRequestOut(request, request.Body != nil)
	if err != nil {
		log.Printf("[%s] Error dumping request: %v", id, err)
	} else {
		log.Printf("[%s] %s", id, string(req))
	}
	response, respErr := l.transport.RoundTrip(request)
	if respErr != nil {
		log.Printf("[%s] Error sending request: %v", id, respErr)
		return response, respErr
	}
	res, err := httputil.DumpResponse(response, true)
	if err != nil {
		log.Printf("[%s] Error dumping response: %v", id, err)
	} else {
		log.Printf("[%s] %s", id, string(res))
	}
	return response, respErr
}
