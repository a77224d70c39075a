package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/habedi/krakn/auth"
	"github.com/rs/zerolog/log"
)

const requestIDHeader = "X-Request-ID"

// TokenProvider hands out a valid session token. *auth.Service implements it.
type TokenProvider interface {
	GetToken(ctx context.Context) (*auth.Lease, error)
}

// Request is the body of a GraphQL POST.
type Request struct {
	OperationName string `json:"operationName"`
	Query         string `json:"query"`
	Variables     any    `json:"variables"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors GraphQLErrors   `json:"errors"`
}

// Client performs GraphQL calls against a Kraken endpoint.
type Client struct {
	RESTClient *resty.Client

	attempts       int
	initialBackoff time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.RESTClient.SetTimeout(d) }
}

// WithRetries sets the total number of attempts for transport failures and 5xx responses.
func WithRetries(attempts int) Option {
	return func(c *Client) { c.attempts = attempts }
}

// WithBackoff sets the delay before the first retry. Later retries double it.
func WithBackoff(initial time.Duration) Option {
	return func(c *Client) { c.initialBackoff = initial }
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.RESTClient.SetHeader("User-Agent", ua) }
}

// New creates a client with a 30 second timeout and three attempts per request.
func New(opts ...Option) *Client {
	c := &Client{
		RESTClient:     resty.New().SetTimeout(30 * time.Second),
		attempts:       3,
		initialBackoff: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute runs a GraphQL operation and decodes its data into out.
// tokens may be nil for unauthenticated operations. When endpoint is empty it is
// taken from the token's issuer.
func (c *Client) Execute(ctx context.Context, endpoint string, tokens TokenProvider, req Request, out any) error {
	var lease *auth.Lease
	if tokens != nil {
		l, err := tokens.GetToken(ctx)
		if err != nil {
			return err
		}
		lease = l
	}

	if endpoint == "" {
		if lease == nil {
			return ErrNoEndpoint
		}
		if lease.Claims == nil || lease.Claims.Issuer == "" {
			return fmt.Errorf("%w: token carries no issuer", ErrNoEndpoint)
		}
		endpoint = lease.Claims.Issuer
	}

	token := ""
	if lease != nil {
		token = lease.Token
	}
	requestID := uuid.NewString()
	logger := log.With().Str("operation", req.OperationName).Str("request_id", requestID).Str("url", endpoint).Logger()
	logger.Debug().Msg("Sending GraphQL request")

	status, body, err := c.post(ctx, endpoint, token, requestID, req)
	if err != nil {
		logger.Error().Err(err).Msg("GraphQL request failed")
		return err
	}

	var resp response
	jsonErr := json.Unmarshal(body, &resp)
	if jsonErr == nil && resp.Errors != nil {
		logger.Warn().Int("status", status).Int("errors", len(resp.Errors)).Msg("GraphQL request returned errors")
		return resp.Errors
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return &TransportError{URL: endpoint, StatusCode: status, Body: string(body)}
	}
	if jsonErr != nil {
		return &TransportError{URL: endpoint, StatusCode: status, Body: string(body), Err: jsonErr}
	}

	lease.Done()

	if out == nil || len(resp.Data) == 0 || string(resp.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return &TransportError{URL: endpoint, StatusCode: status, Body: string(resp.Data), Err: fmt.Errorf("failed to decode data: %w", err)}
	}
	logger.Debug().Msg("GraphQL request successful")
	return nil
}

// post sends the request, retrying network failures and 5xx responses with
// exponential backoff. Any other response is handed back with its status so the
// caller can look for a GraphQL errors list.
func (c *Client) post(ctx context.Context, url, token, requestID string, req Request) (int, []byte, error) {
	var (
		status int
		body   []byte
	)
	operation := func() error {
		r := c.RESTClient.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetHeader(requestIDHeader, requestID).
			SetBody(req)
		if token != "" {
			r.SetHeader("Authorization", "JWT "+token)
		}

		resp, err := r.Post(url)
		if err != nil {
			tErr := &TransportError{URL: url, Err: err}
			if ctx.Err() != nil {
				return backoff.Permanent(tErr)
			}
			return tErr
		}

		tErr := &TransportError{URL: url, StatusCode: resp.StatusCode(), Body: resp.String()}
		if tErr.Temporary() {
			return tErr
		}
		status, body = resp.StatusCode(), resp.Body()
		return nil
	}

	retries := 0
	if c.attempts > 1 {
		retries = c.attempts - 1
	}
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.initialBackoff
	eb.RandomizationFactor = 0
	eb.Multiplier = 2
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(retries)), ctx)

	err := backoff.RetryNotify(operation, policy, func(err error, wait time.Duration) {
		log.Warn().Err(err).Str("request_id", requestID).Dur("wait", wait).Msg("Retrying GraphQL request")
	})
	if err != nil {
		var tErr *TransportError
		if !errors.As(err, &tErr) {
			err = &TransportError{URL: url, Err: err}
		}
		return 0, nil, err
	}
	return status, body, nil
}
