package driven

import (
	"context"
)

// StatusCategory buckets an HTTP status code.
type StatusCategory int

const (
	// StatusSuccess covers 2xx responses.
	StatusSuccess StatusCategory = iota

	// StatusClientError covers 4xx responses.
	StatusClientError

	// StatusServerError covers 5xx and anything unexpected.
	StatusServerError
)

// CategoryFor maps a status code to its category.
func CategoryFor(code int) StatusCategory {
	switch {
	case code >= 200 && code < 300:
		return StatusSuccess
	case code >= 400 && code < 500:
		return StatusClientError
	default:
		return StatusServerError
	}
}

// Request is a verb-level call against the store.
type Request struct {
	// Method is the HTTP verb.
	Method string

	// Path is relative to the store base URL and already escaped,
	// e.g. "/contacts/_changes?since=4".
	Path string

	// Body is the JSON request body, nil for none.
	Body []byte
}

// Response is what the store returned for a Request.
type Response struct {
	Category   StatusCategory
	StatusCode int
	Reason     string
	Body       []byte
}

// Transport sends requests to the remote store.
// A non-2xx status is returned as a Response, not an error; the error
// return is reserved for failures where no response was received,
// and is a *domain.TransportError.
type Transport interface {
	// Send performs one request. It never retries.
	Send(ctx context.Context, req Request) (*Response, error)

	// BaseURL returns the store root, e.g. "http://127.0.0.1:5984".
	BaseURL() string
}

// Signer supplies a pre-computed authorization header for a request.
// Implementations own the auth scheme; the transport only attaches the header.
type Signer interface {
	// Sign returns the header name and value to attach. An empty name
	// means the request goes out unsigned.
	Sign(ctx context.Context, method, url string) (name, value string, err error)
}
