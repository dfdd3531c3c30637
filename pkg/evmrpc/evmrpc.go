// Package evmrpc picks a live JSON-RPC endpoint from an ordered list.
package evmrpc

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
)

var (
	ErrNoEndpoints        = errors.New("no RPC endpoints configured")
	ErrAllEndpointsFailed = errors.New("all RPC endpoints failed")
	ErrDialFailed         = errors.New("dial failed")
	ErrProbeFailed        = errors.New("liveness probe failed")
)

const DefaultProbeTimeout = 5 * time.Second

// Endpoint is one configured RPC URL and its position in the list.
type Endpoint struct {
	Index int
	URL   string
}

// String renders the endpoint without its path, which usually carries an API key.
func (e Endpoint) String() string {
	if origin := e.origin(); origin != "" {
		return fmt.Sprintf("#%d %s", e.Index+1, origin)
	}
	return fmt.Sprintf("#%d", e.Index+1)
}

func (e Endpoint) origin() string {
	u, err := url.Parse(e.URL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// Redact rewrites err so its text no longer carries the endpoint's full URL.
// Transport errors from the HTTP client quote the request URL verbatim.
// The returned error still unwraps to err.
func (e Endpoint) Redact(err error) error {
	if err == nil {
		return nil
	}

	secrets := []string{e.URL}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		secrets = append(secrets, urlErr.URL)
	}

	safe := e.origin()
	if safe == "" {
		safe = fmt.Sprintf("endpoint #%d", e.Index+1)
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret != "" && secret != safe {
			msg = strings.ReplaceAll(msg, secret, safe)
		}
	}
	if msg == err.Error() {
		return err
	}
	return &redactedError{err: err, msg: msg}
}

type redactedError struct {
	err error
	msg string
}

func (r *redactedError) Error() string { return r.msg }
func (r *redactedError) Unwrap() error { return r.err }

// Conn is a client whose endpoint answered the liveness probe.
type Conn struct {
	*ethclient.Client
	Endpoint Endpoint
	// Head is the block number returned by the probe.
	Head uint64
}

// Redact scrubs the endpoint URL out of an error returned by the client
func (c *Conn) Redact(err error) error {
	return c.Endpoint.Redact(err)
}

// Option configures the Pool
type Option func(*Pool)

// WithProbeTimeout bounds dial plus probe for a single endpoint
func WithProbeTimeout(d time.Duration) Option {
	return func(p *Pool) { p.probeTimeout = d }
}

// Pool walks its endpoints in order on every Connect. Nothing is remembered
// between calls, so an endpoint that recovers is preferred again right away.
type Pool struct {
	endpoints    []Endpoint
	probeTimeout time.Duration
}

// NewPool creates a Pool over urls in the given order
func NewPool(urls []string, opts ...Option) *Pool {
	p := &Pool{probeTimeout: DefaultProbeTimeout}
	for i, u := range urls {
		p.endpoints = append(p.endpoints, Endpoint{Index: i, URL: u})
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Endpoints returns the configured endpoints in order
func (p *Pool) Endpoints() []Endpoint {
	return append([]Endpoint(nil), p.endpoints...)
}

// Connect returns a client for the first endpoint that answers eth_blockNumber.
// When none does the error wraps ErrAllEndpointsFailed and every per-endpoint failure.
func (p *Pool) Connect(ctx context.Context) (*Conn, error) {
	if len(p.endpoints) == 0 {
		return nil, ErrNoEndpoints
	}

	errs := make([]error, 0, len(p.endpoints))
	for _, ep := range p.endpoints {
		conn, err := p.probe(ctx, ep)
		if err == nil {
			return conn, nil
		}
		errs = append(errs, err)

		if ctx.Err() != nil {
			break
		}
	}

	return nil, fmt.Errorf("%w: %w", ErrAllEndpointsFailed, errors.Join(errs...))
}

func (p *Pool) probe(ctx context.Context, ep Endpoint) (*Conn, error) {
	probeCtx, cancel := context.WithTimeout(ctx, p.probeTimeout)
	defer cancel()

	client, err := ethclient.DialContext(probeCtx, ep.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDialFailed, ep, ep.Redact(err))
	}

	head, err := client.BlockNumber(probeCtx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrProbeFailed, ep, ep.Redact(err))
	}

	return &Conn{Client: client, Endpoint: ep, Head: head}, nil
}
