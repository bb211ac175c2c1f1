package source

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"archivist/internal/logging"
)

// HTTPDoer is the seam tests substitute to avoid a real network call.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

const (
	pageSize        = 20
	failoverAttempts = 3
	userAgent       = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

var defaultBearerTokens = []string{
	"AAAAAAAAAAAAAAAAAAAAANRILgAAAAAAnNwIzUejRCOuH5E6I8xnZz4puTs%3D1Zv7ttfk8LF81IUq16cHjhLTvJu4FA33AGWWjCpTnA",
}

// Client is the source-platform adapter: cookie-bundle auth, two-host
// failover, and auth-pair/bearer-token rotation.
type Client struct {
	http    HTTPDoer
	logger  *slog.Logger
	hosts   []string
	bundle  *CookieBundle

	bearerTokens []string

	mu         sync.Mutex
	authIndex  int
	bearerIndex int
	preferred  int // index into hosts, preferred-first ordering start point

	limiter  *rate.Limiter
	breakers map[string]*gobreaker.CircuitBreaker[[]byte]
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPDoer overrides the HTTP transport, primarily for tests.
func WithHTTPDoer(doer HTTPDoer) Option {
	return func(c *Client) { c.http = doer }
}

// WithHosts overrides the two failover host endpoints.
func WithHosts(hosts []string) Option {
	return func(c *Client) { c.hosts = hosts }
}

// New builds a Client from a parsed cookie bundle and an optional bearer
// token override (falling back to the built-in default list).
func New(bundle *CookieBundle, bearerOverride string, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	bearers := defaultBearerTokens
	if bearerOverride != "" {
		bearers = []string{bearerOverride}
	}

	c := &Client{
		http:         &http.Client{Timeout: 30 * time.Second},
		logger:       logger,
		hosts:        []string{"https://x.com", "https://api.twitter.com"},
		bundle:       bundle,
		bearerTokens: bearers,
		limiter:      rate.NewLimiter(rate.Limit(2), 4),
		breakers:     map[string]*gobreaker.CircuitBreaker[[]byte]{},
	}
	for _, opt := range opts {
		opt(c)
	}
	for _, host := range c.hosts {
		c.breakers[host] = newHostBreaker(host, logger)
	}
	return c
}

func newHostBreaker(host string, logger *slog.Logger) *gobreaker.CircuitBreaker[[]byte] {
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        host,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 4 && counts.ConsecutiveFailures >= 4
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("source host circuit breaker state change",
				logging.Host(name), logging.String("from", from.String()), logging.String("to", to.String()))
		},
	})
}

func (c *Client) currentAuthPair() AuthPair {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bundle.AuthPairs[c.authIndex%len(c.bundle.AuthPairs)]
}

func (c *Client) currentBearer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bearerTokens[c.bearerIndex%len(c.bearerTokens)]
}

// rotateAuth advances the auth-pair index; returns false if no further pair
// is available (wrapped back to the start).
func (c *Client) rotateAuth() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.bundle.AuthPairs) <= 1 {
		return false
	}
	c.authIndex = (c.authIndex + 1) % len(c.bundle.AuthPairs)
	return c.authIndex != 0
}

// rotateBearer advances the bearer-token index; returns false if exhausted.
func (c *Client) rotateBearer() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.bearerTokens) <= 1 {
		return false
	}
	c.bearerIndex = (c.bearerIndex + 1) % len(c.bearerTokens)
	return c.bearerIndex != 0
}

func (c *Client) preferredHosts() []string {
	c.mu.Lock()
	start := c.preferred
	c.mu.Unlock()

	ordered := make([]string, 0, len(c.hosts))
	for i := range c.hosts {
		ordered = append(ordered, c.hosts[(start+i)%len(c.hosts)])
	}
	return ordered
}

func (c *Client) markPreferred(host string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, h := range c.hosts {
		if h == host {
			c.preferred = i
			return
		}
	}
}

// fetch issues a single GraphQL GET against every host in preferred order,
// applying the failover protocol described in §4.2: up to failoverAttempts
// passes, rotating auth/bearer credentials between passes on auth failure.
func (c *Client) fetch(ctx context.Context, queryPath string, params map[string]string) ([]byte, error) {
	var aggregated error
	for attempt := 0; attempt < failoverAttempts; attempt++ {
		hosts := c.preferredHosts()
		rateLimitedHosts := make([]string, 0, len(hosts))
		sawAuthFailure := false

		for _, host := range hosts {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
			body, outcome, err := c.doRequest(ctx, host, queryPath, params)
			switch outcome {
			case outcomeSuccess:
				c.markPreferred(host)
				return body, nil
			case outcomeRateLimit:
				rateLimitedHosts = append(rateLimitedHosts, host)
				aggregated = err
			case outcomeAuthFailure:
				sawAuthFailure = true
				aggregated = err
			default:
				aggregated = err
			}
		}

		if len(rateLimitedHosts) == len(hosts) {
			return nil, &RateLimitError{Hosts: rateLimitedHosts}
		}
		if sawAuthFailure {
			if !c.rotateAuth() && !c.rotateBearer() {
				return nil, &AuthError{Cause: aggregated}
			}
			continue
		}
		break
	}
	return nil, aggregated
}

type requestOutcome int

const (
	outcomeSuccess requestOutcome = iota
	outcomeRateLimit
	outcomeAuthFailure
	outcomeGeneric
)

func (c *Client) doRequest(ctx context.Context, host, queryPath string, params map[string]string) ([]byte, requestOutcome, error) {
	breaker := c.breakers[host]
	body, err := breaker.Execute(func() ([]byte, error) {
		return c.rawRequest(ctx, host, queryPath, params)
	})
	if err != nil {
		if isBreakerOpenErr(err) {
			return nil, outcomeGeneric, &GenericError{Host: host, Cause: err}
		}
		return classifyTransportErr(host, err)
	}
	return classifyBody(host, body)
}

func isBreakerOpenErr(err error) bool {
	return err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests
}
