package client

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/freytube/freytube/internal/core/constants"
	"github.com/freytube/freytube/internal/core/domain"
	"github.com/freytube/freytube/internal/logger"
	"github.com/freytube/freytube/internal/util"
)

const (
	DefaultMaxIdleConnections        = 32
	DefaultMaxIdleConnectionsPerHost = 4
	DefaultIdleConnTimeout           = 90 * time.Second
	DefaultKeepAlive                 = 30 * time.Second

	transportRetryWait    = 100 * time.Millisecond
	transportRetryMaxWait = 500 * time.Millisecond
)

type Config struct {
	UserAgent      string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// Factory hands out typed provider clients bound to a base URL. All clients
// share one transport; a client is rebuilt only when the base URL changes and
// the replacement is swapped in atomically.
type Factory struct {
	transport *http.Transport
	piped     atomic.Pointer[PipedClient]
	invidious atomic.Pointer[InvidiousClient]
	logger    *logger.StyledLogger
	config    Config
}

func NewFactory(cfg Config, log *logger.StyledLogger) *Factory {
	if cfg.UserAgent == "" {
		cfg.UserAgent = constants.DefaultUserAgent
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = constants.DefaultConnectTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = constants.DefaultReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = constants.DefaultWriteTimeout
	}

	dialer := &net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: DefaultKeepAlive,
	}
	sharedTransport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           writeDeadlineDialer(dialer, cfg.WriteTimeout),
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          DefaultMaxIdleConnections,
		MaxIdleConnsPerHost:   DefaultMaxIdleConnectionsPerHost,
		IdleConnTimeout:       DefaultIdleConnTimeout,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		ResponseHeaderTimeout: cfg.ReadTimeout,
	}

	return &Factory{
		transport: sharedTransport,
		logger:    log,
		config:    cfg,
	}
}

// Piped returns the cached Piped client when it is bound to baseURL, otherwise
// builds and installs a new one.
func (f *Factory) Piped(baseURL string) *PipedClient {
	normalised := util.NormaliseBaseURL(baseURL)
	if current := f.piped.Load(); current != nil && current.baseURL == normalised {
		return current
	}
	return f.rebuildPiped(normalised)
}

func (f *Factory) Invidious(baseURL string) *InvidiousClient {
	normalised := util.NormaliseBaseURL(baseURL)
	if current := f.invidious.Load(); current != nil && current.baseURL == normalised {
		return current
	}
	return f.rebuildInvidious(normalised)
}

// Rebuild always builds a fresh client for provider, used after a rotation
func (f *Factory) Rebuild(provider domain.Provider, baseURL string) {
	normalised := util.NormaliseBaseURL(baseURL)
	switch provider {
	case domain.ProviderPiped:
		f.rebuildPiped(normalised)
	case domain.ProviderInvidious:
		f.rebuildInvidious(normalised)
	}
}

// Transport exposes the shared transport for other HTTP users such as downloads
func (f *Factory) Transport() http.RoundTripper {
	return f.transport
}

func (f *Factory) rebuildPiped(baseURL string) *PipedClient {
	c := &PipedClient{rest: f.newRestClient(baseURL), baseURL: baseURL}
	f.piped.Store(c)
	f.logger.Debug("Built client", "provider", domain.ProviderPiped, "base_url", baseURL)
	return c
}

func (f *Factory) rebuildInvidious(baseURL string) *InvidiousClient {
	c := &InvidiousClient{rest: f.newRestClient(baseURL), baseURL: baseURL}
	f.invidious.Store(c)
	f.logger.Debug("Built client", "provider", domain.ProviderInvidious, "base_url", baseURL)
	return c
}

func (f *Factory) newRestClient(baseURL string) *resty.Client {
	return resty.New().
		SetTransport(f.transport).
		SetBaseURL(baseURL).
		SetTimeout(f.config.ConnectTimeout+f.config.WriteTimeout+f.config.ReadTimeout).
		SetHeader("User-Agent", f.config.UserAgent).
		SetHeader("Accept", "application/json").
		SetRetryCount(constants.TransportRetryCount).
		SetRetryWaitTime(transportRetryWait).
		SetRetryMaxWaitTime(transportRetryMaxWait).
		AddRetryCondition(retryOnConnectionFailure)
}

// writeDeadlineConn bounds every write on the connection, TLS records included
type writeDeadlineConn struct {
	net.Conn
	timeout time.Duration
}

func (c *writeDeadlineConn) Write(p []byte) (int, error) {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Write(p)
}

func writeDeadlineDialer(dialer *net.Dialer, timeout time.Duration) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := dialer.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		return &writeDeadlineConn{Conn: conn, timeout: timeout}, nil
	}
}

// retryOnConnectionFailure retries only refused or reset connections. Every
// other failure is left to the failover executor.
func retryOnConnectionFailure(_ *resty.Response, err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET)
}

// get issues a GET and decodes a 2xx JSON body into out. Non-2xx responses
// become *domain.HTTPStatusError, undecodable bodies *DecodeError.
func get(ctx context.Context, req *resty.Request, provider domain.Provider, path string, out any) error {
	resp, err := req.SetContext(ctx).Get(path)
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return domain.NewHTTPStatusError(provider, resp.Request.URL, resp.StatusCode(), resp.Status())
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &DecodeError{Provider: provider, URL: resp.Request.URL, Err: err}
	}
	return nil
}
