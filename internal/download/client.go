package download

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"runtime"
	"time"
)

const (
	// DefaultRequestTimeout bounds a whole request, body included.
	DefaultRequestTimeout = 10 * time.Second
	// DefaultConnectTimeout bounds dialing.
	DefaultConnectTimeout = 5 * time.Second

	idleConnTimeout     = 15 * time.Second
	maxIdleConnsPerHost = 1
	maxRedirects        = 10
)

// ClientOptions tunes the HTTP client returned by NewHTTPClient.
type ClientOptions struct {
	Timeout            time.Duration
	ConnectTimeout     time.Duration
	UserAgent          string
	InsecureSkipVerify bool
}

// NewHTTPClient builds a client that honours HTTP_PROXY/HTTPS_PROXY, limits
// redirects, keeps a small idle pool, and presents a desktop browser user agent.
func NewHTTPClient(opts ClientOptions) *http.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultRequestTimeout
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DesktopUserAgent(runtime.GOOS)
	}

	dialer := &net.Dialer{Timeout: opts.ConnectTimeout, KeepAlive: 30 * time.Second}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		IdleConnTimeout:     idleConnTimeout,
		MaxIdleConnsPerHost: maxIdleConnsPerHost,
		TLSHandshakeTimeout: opts.ConnectTimeout,
		ForceAttemptHTTP2:   true,
	}
	if opts.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &http.Client{
		Timeout:   opts.Timeout,
		Transport: &userAgentTransport{base: transport, userAgent: opts.UserAgent},
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
}

// DesktopUserAgent returns a Chrome user agent string matching goos.
func DesktopUserAgent(goos string) string {
	const suffix = "AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	switch goos {
	case "darwin":
		return "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " + suffix
	case "linux":
		return "Mozilla/5.0 (X11; Linux x86_64) " + suffix
	default:
		return "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " + suffix
	}
}

type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	if req.Header.Get("User-Agent") != "" {
		return t.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(clone)
}
