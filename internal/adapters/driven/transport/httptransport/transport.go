package httptransport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/couchfeed/internal/adapters/driven/auth"
	"github.com/custodia-labs/couchfeed/internal/core/domain"
	"github.com/custodia-labs/couchfeed/internal/core/ports/driven"
	"github.com/custodia-labs/couchfeed/internal/logger"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxBodySize is the default cap on a response body.
	MaxBodySize = 64 << 20
)

// Ensure Transport implements the interface.
var _ driven.Transport = (*Transport)(nil)

// Config configures a Transport.
type Config struct {
	// BaseURL is the store root, e.g. "http://127.0.0.1:5984".
	// Userinfo in the URL becomes basic credentials when Signer is nil.
	BaseURL string

	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration

	// Rate is requests per second. Zero means DefaultRate; negative
	// disables throttling.
	Rate float64

	// Burst is the limiter burst. Zero means DefaultBurst.
	Burst int

	// Signer signs each request. Nil means unsigned.
	Signer driven.Signer

	// HTTPClient overrides the client. Its Timeout is left as is.
	HTTPClient *http.Client

	// MaxBodySize caps a response body. Zero means MaxBodySize; larger
	// responses fail with a TransportError.
	MaxBodySize int64
}

// Transport sends store requests over HTTP.
type Transport struct {
	base    *url.URL
	client  *http.Client
	signer  driven.Signer
	limiter *RateLimiter
	maxBody int64
}

// New creates a transport for a store.
func New(cfg Config) (*Transport, error) {
	base, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("%w: store url: %v", domain.ErrInvalidInput, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("%w: store url %q: scheme must be http or https", domain.ErrInvalidInput, cfg.BaseURL)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("%w: store url %q: missing host", domain.ErrInvalidInput, cfg.BaseURL)
	}

	signer := cfg.Signer
	if base.User != nil {
		if signer == nil {
			password, _ := base.User.Password()
			signer = auth.NewBasicSigner(base.User.Username(), password)
		}
		base.User = nil
	}
	if signer == nil {
		signer = auth.NewNullSigner()
	}
	base.Path = strings.TrimRight(base.Path, "/")
	base.RawQuery = ""
	base.Fragment = ""

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	perSecond := cfg.Rate
	if perSecond == 0 {
		perSecond = DefaultRate
	}
	burst := cfg.Burst
	if burst == 0 {
		burst = DefaultBurst
	}

	maxBody := cfg.MaxBodySize
	if maxBody <= 0 {
		maxBody = MaxBodySize
	}

	return &Transport{
		base:    base,
		client:  client,
		signer:  signer,
		limiter: NewRateLimiter(perSecond, burst),
		maxBody: maxBody,
	}, nil
}

// BaseURL returns the store root without credentials.
func (t *Transport) BaseURL() string {
	return t.base.String()
}

// Send performs one request.
func (t *Transport) Send(ctx context.Context, req driven.Request) (*driven.Response, error) {
	target := t.base.String() + req.Path
	fail := func(err error) (*driven.Response, error) {
		return nil, &domain.TransportError{Method: req.Method, URL: target, Err: err}
	}

	if err := t.limiter.Wait(ctx); err != nil {
		return fail(fmt.Errorf("rate limit wait: %w", err))
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return fail(err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	name, value, err := t.signer.Sign(ctx, req.Method, target)
	if err != nil {
		return fail(fmt.Errorf("sign request: %w", err))
	}
	if name != "" {
		httpReq.Header.Set(name, value)
	}

	start := time.Now()
	resp, err := t.client.Do(httpReq)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fail(err)
	}
	defer resp.Body.Close()

	t.limiter.Observe(resp)

	data, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBody+1))
	if err != nil {
		return fail(fmt.Errorf("read body: %w", err))
	}
	if int64(len(data)) > t.maxBody {
		return nil, &domain.TransportError{
			Method:     req.Method,
			URL:        target,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("response too large: over %d bytes", t.maxBody),
		}
	}

	logger.Debug("%s %s -> %d (%s)", req.Method, req.Path, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	return &driven.Response{
		Category:   driven.CategoryFor(resp.StatusCode),
		StatusCode: resp.StatusCode,
		Reason:     http.StatusText(resp.StatusCode),
		Body:       data,
	}, nil
}
