// Package catalogclient implements the rate-limited HTTP client that
// fronts every outbound call to the remote card catalog.
package catalogclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/proxysheets/proxycore/internal/errs"
	"golang.org/x/time/rate"
)

const (
	// DefaultMinIntervalMS spaces outbound requests 100ms apart unless
	// configured otherwise.
	DefaultMinIntervalMS = 100
)

// Client issues rate-limited GET requests against a remote catalog. It
// holds a single rate.Limiter (one mutex-guarded timestamp) so every
// goroutine sharing a Client is spaced at least MinInterval apart
// regardless of which one issues next.
type Client struct {
	baseURL   string
	userAgent string
	accept    string
	http      *http.Client
	limiter   *rate.Limiter
}

// Options configures a new Client.
type Options struct {
	BaseURL       string
	UserAgent     string
	Accept        string
	HTTPClient    *http.Client
	MinIntervalMS int
}

// New builds a Client. A zero Options.HTTPClient defaults to
// http.DefaultClient; a zero MinIntervalMS defaults to 100ms.
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	interval := opts.MinIntervalMS
	if interval <= 0 {
		interval = DefaultMinIntervalMS
	}
	accept := opts.Accept
	if accept == "" {
		accept = "application/json"
	}
	return &Client{
		baseURL:   opts.BaseURL,
		userAgent: opts.UserAgent,
		accept:    accept,
		http:      httpClient,
		limiter:   rate.NewLimiter(rate.Every(time.Duration(interval)*time.Millisecond), 1),
	}
}

// GetBytes fetches the raw response body for a fully-qualified or
// base-relative URL, waiting on the rate limiter first. HTTP 404 is
// reported as an errs.NotFound error distinct from every other failure.
func (c *Client) GetBytes(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errs.Wrap(errs.Cancelled, "catalogclient.GetBytes", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve(url), nil)
	if err != nil {
		return nil, errs.Wrap(errs.Network, "catalogclient.GetBytes", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", c.accept)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errs.Wrap(errs.Network, "catalogclient.GetBytes", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errs.New(errs.NotFound, "catalogclient.GetBytes", url)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errs.New(errs.Network, "catalogclient.GetBytes", fmt.Sprintf("status %d for %s", resp.StatusCode, url))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.Network, "catalogclient.GetBytes", err)
	}
	return body, nil
}

// GetJSON fetches and decodes a JSON response into v.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	body, err := c.GetBytes(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errs.Wrap(errs.Protocol, "catalogclient.GetJSON", err)
	}
	return nil
}

func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + path
}
