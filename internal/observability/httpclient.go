package observability

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewHTTPClient returns an http.Client instrumented with otelhttp transport.
func NewHTTPClient(base *http.Client) *http.Client {
	if base == nil {
		base = &http.Client{}
	}
	rt := base.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	base.Transport = otelhttp.NewTransport(rt)
	return base
}

// WithHeaders wraps a client's transport so every outgoing request carries
// the given static headers (e.g. Authorization, User-Agent) unless the
// caller already set that header explicitly.
func WithHeaders(base *http.Client, headers map[string]string) *http.Client {
	if base == nil {
		base = &http.Client{}
	}
	rt := base.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	next := rt
	base.Transport = headerInjectingTransport{next: next, headers: headers}
	return base
}

type headerInjectingTransport struct {
	next    http.RoundTripper
	headers map[string]string
}

func (h headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	for k, v := range h.headers {
		if req.Header.Get(k) == "" {
			req = req.Clone(req.Context())
			req.Header.Set(k, v)
		}
	}
	return h.next.RoundTrip(req)
}
