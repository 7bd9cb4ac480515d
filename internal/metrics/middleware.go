package metrics

import (
	"net/http"
	"time"
)

// roundTripper wraps an http.RoundTripper to record outbound request metrics.
type roundTripper struct {
	reg  *Registry
	next http.RoundTripper
}

func (rt *roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	rt.reg.InFlightInc()
	defer rt.reg.InFlightDec()

	start := time.Now()
	resp, err := rt.next.RoundTrip(req)
	duration := time.Since(start).Seconds()

	status := 0
	if err == nil {
		status = resp.StatusCode
	}
	rt.reg.RecordRequest(req.URL.Host, status, duration)

	return resp, err
}

// HTTPTransport returns a RoundTripper that records HTTP metrics for every
// request sent through next. A nil next uses http.DefaultTransport.
func HTTPTransport(reg *Registry, next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &roundTripper{reg: reg, next: next}
}
