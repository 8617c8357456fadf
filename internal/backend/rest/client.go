// Package rest implements service.Service over the stash REST API.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"

	"stash/internal/logging"
	"stash/internal/service"
)

const (
	// APITimeout is the default per-request timeout.
	APITimeout = 10 * time.Second

	// RequestIDHeader carries a per-request UUID.
	RequestIDHeader = "X-Request-ID"

	cacheSize = 256
)

// Options configures a Client.
type Options struct {
	// BaseURL is the API root, e.g. http://localhost:8080/api.
	BaseURL string

	// Timeout bounds each request. Zero means APITimeout.
	Timeout time.Duration

	// RequestsPerSecond throttles outgoing requests. Zero is unlimited.
	RequestsPerSecond float64

	// CacheTTL is how long single-entity reads are reused. Zero disables
	// the cache.
	CacheTTL time.Duration

	// TokenSource supplies the bearer token for everything except login
	// and register.
	TokenSource oauth2.TokenSource

	// OnUnauthorized runs when an authenticated request gets 401 or 403.
	OnUnauthorized func(ctx context.Context)

	// HTTPClient is the base client. Nil uses http.DefaultTransport.
	HTTPClient *http.Client

	Logger logging.Logger
}

// Client implements service.Service.
type Client struct {
	baseURL        string
	timeout        time.Duration
	anon           *http.Client
	authed         *http.Client
	limiter        *rate.Limiter
	cache          *expirable.LRU[string, any]
	onUnauthorized func(ctx context.Context)
	log            logging.Logger
}

var _ service.Service = (*Client)(nil)

// New creates a REST client.
func New(opts Options) (*Client, error) {
	base := strings.TrimRight(opts.BaseURL, "/")
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid api base url: %q", opts.BaseURL)
	}

	log := opts.Logger
	if log == nil {
		log = logging.NewNop()
	}

	rt := http.DefaultTransport
	if opts.HTTPClient != nil && opts.HTTPClient.Transport != nil {
		rt = opts.HTTPClient.Transport
	}
	rt = &requestIDTransport{base: rt, log: log}

	c := &Client{
		baseURL:        base,
		timeout:        opts.Timeout,
		anon:           &http.Client{Transport: rt},
		onUnauthorized: opts.OnUnauthorized,
		log:            log,
	}
	if c.timeout <= 0 {
		c.timeout = APITimeout
	}
	if opts.TokenSource != nil {
		c.authed = &http.Client{Transport: &oauth2.Transport{Source: opts.TokenSource, Base: rt}}
	}
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	if opts.CacheTTL > 0 {
		c.cache = expirable.NewLRU[string, any](cacheSize, nil, opts.CacheTTL)
	}
	return c, nil
}

// requestIDTransport stamps every request with an X-Request-ID.
type requestIDTransport struct {
	base http.RoundTripper
	log  logging.Logger
}

func (t *requestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	id := req.Header.Get(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
		req = req.Clone(req.Context())
		req.Header.Set(RequestIDHeader, id)
	}
	ctx := logging.WithRequestID(req.Context(), id)
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		t.log.Debugf(ctx, "%s %s failed after %s: %v", req.Method, req.URL.Path, time.Since(start), err)
		return nil, err
	}
	t.log.Debugf(ctx, "%s %s -> %d in %s", req.Method, req.URL.Path, resp.StatusCode, time.Since(start))
	return resp, nil
}

// call is one API request.
type call struct {
	method string
	path   string
	query  url.Values
	body   any
	anon   bool
}

// do sends c and decodes a JSON response into out when out is non-nil.
func (c *Client) do(ctx context.Context, r call, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpClient := c.authed
	if r.anon {
		httpClient = c.anon
	} else if httpClient == nil {
		return service.ErrUnauthorized
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return wrapError(ctx, err)
		}
	}

	var body io.Reader
	if r.body != nil {
		buf, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return wrapError(ctx, err)
	}
	defer resp.Body.Close()

	if err := googleapi.CheckResponse(resp); err != nil {
		return c.statusError(ctx, r, err)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return wrapError(ctx, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// statusError maps a non-2xx response onto the service error taxonomy.
func (c *Client) statusError(ctx context.Context, r call, err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}
	switch {
	case (gerr.Code == http.StatusUnauthorized || gerr.Code == http.StatusForbidden) && !r.anon:
		c.log.Warnf(ctx, "%s %s rejected with %d, clearing session", r.method, r.path, gerr.Code)
		if c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
		return service.ErrUnauthorized
	case gerr.Code == http.StatusNotFound:
		return fmt.Errorf("%s: %w", r.path, service.ErrNotFound)
	}
	return &service.RequestError{Status: gerr.Code, Payload: gerr.Body}
}

// wrapError normalizes transport failures.
func wrapError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, service.ErrUnauthorized) {
		return service.ErrUnauthorized
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return service.ErrTimeout
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("request failed: %w", err)
}

func entityPath(resource string, id int64) string {
	return "/" + resource + "/" + strconv.FormatInt(id, 10)
}

// get reads one entity, reusing a cached copy while it is fresh.
func get[T any](ctx context.Context, c *Client, resource string, id int64) (T, error) {
	path := entityPath(resource, id)
	if c.cache != nil {
		if v, ok := c.cache.Get(path); ok {
			if cached, ok := v.(T); ok {
				return cached, nil
			}
		}
	}
	var out T
	if err := c.do(ctx, call{method: http.MethodGet, path: path}, &out); err != nil {
		return out, err
	}
	if c.cache != nil {
		c.cache.Add(path, out)
	}
	return out, nil
}

// invalidate drops the cached copy of one entity.
func (c *Client) invalidate(resource string, id int64) {
	if c.cache != nil {
		c.cache.Remove(entityPath(resource, id))
	}
}

// mutating invalidates one entity now and again when the returned func runs,
// so a read that raced the write cannot leave the old copy cached.
func (c *Client) mutating(resource string, id int64) func() {
	c.invalidate(resource, id)
	return func() { c.invalidate(resource, id) }
}

// params builds list query parameters, omitting empty values.
type params url.Values

func (p params) set(key, value string) params {
	if v := strings.TrimSpace(value); v != "" {
		url.Values(p).Set(key, v)
	}
	return p
}

func (p params) setInt(key string, n int, keepZero bool) params {
	if n > 0 || (keepZero && n == 0) {
		url.Values(p).Set(key, strconv.Itoa(n))
	}
	return p
}

func (p params) setTags(tags []string) params {
	var clean []string
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			clean = append(clean, t)
		}
	}
	if len(clean) > 0 {
		url.Values(p).Set("tags", strings.Join(clean, ","))
	}
	return p
}

func pageParams(page, size int) params {
	p := params{}
	return p.setInt("page", page, true).setInt("size", size, false)
}

func valuesOf(p params) url.Values { return url.Values(p) }
