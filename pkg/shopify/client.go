package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/orderstack/po-ingest/pkg/config"
	pkgerrors "github.com/orderstack/po-ingest/pkg/errors"
	"github.com/orderstack/po-ingest/pkg/logger"
)

const (
	defaultTimeout        = 15 * time.Second
	defaultMaxRetries     = 3
	retryBaseDelay        = 500 * time.Millisecond
	responseBodyReadLimit = 4 << 20
)

var (
	errShopDomainRequired  = errors.New("shopify shop domain is required")
	errAccessTokenRequired = errors.New("shopify access token is required")
)

// Client wraps the Admin GraphQL API used for catalog, company, and
// draft-order operations. Transient failures (429, 5xx, transport errors)
// are retried here with backoff; callers never retry on top of this.
type Client struct {
	httpClient  *http.Client
	endpoint    string
	accessToken string
	shopDomain  string
	maxRetries  uint64
	logger      *logger.Logger
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithEndpoint overrides the computed GraphQL endpoint. Used by tests.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(endpoint)
		if trimmed != "" {
			c.endpoint = trimmed
		}
	}
}

// NewClient builds the Admin API client from configuration.
func NewClient(cfg config.ShopifyConfig, logg *logger.Logger, opts ...Option) (*Client, error) {
	shopDomain := strings.TrimSpace(cfg.ShopDomain)
	if shopDomain == "" {
		return nil, errShopDomainRequired
	}
	accessToken := strings.TrimSpace(cfg.AccessToken)
	if accessToken == "" {
		return nil, errAccessTokenRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = defaultMaxRetries
	}

	client := &Client{
		httpClient:  &http.Client{Timeout: timeout},
		endpoint:    fmt.Sprintf("https://%s/admin/api/%s/graphql.json", shopDomain, cfg.APIVersion),
		accessToken: accessToken,
		shopDomain:  shopDomain,
		maxRetries:  uint64(maxRetries),
		logger:      logg,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// ShopDomain returns the shop this client is bound to.
func (c *Client) ShopDomain() string {
	if c == nil {
		return ""
	}
	return c.shopDomain
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// execute posts one GraphQL operation and unmarshals the data object into
// out. Rate limiting and 5xx responses are retried with fibonacci backoff.
func (c *Client) execute(ctx context.Context, query string, variables map[string]any, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "shopify client not configured")
	}

	payload, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding graphql request")
	}

	var raw json.RawMessage
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewFibonacci(retryBaseDelay))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
		if reqErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, reqErr, "building graphql request")
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Shopify-Access-Token", c.accessToken)

		resp, doErr := c.httpClient.Do(req)
		if doErr != nil {
			return retry.RetryableError(pkgerrors.Wrap(pkgerrors.CodeDependency, doErr, "shopify request failed"))
		}
		defer resp.Body.Close()

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		if readErr != nil {
			return retry.RetryableError(pkgerrors.Wrap(pkgerrors.CodeDependency, readErr, "reading shopify response"))
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return retry.RetryableError(pkgerrors.New(pkgerrors.CodeDependency,
				fmt.Sprintf("shopify returned status %d", resp.StatusCode)))
		}
		if resp.StatusCode != http.StatusOK {
			return pkgerrors.New(pkgerrors.CodeDependency,
				fmt.Sprintf("shopify returned status %d", resp.StatusCode))
		}

		var parsed graphqlResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding shopify response")
		}
		if len(parsed.Errors) > 0 {
			messages := make([]string, 0, len(parsed.Errors))
			for _, ge := range parsed.Errors {
				messages = append(messages, ge.Message)
			}
			return pkgerrors.New(pkgerrors.CodeDependency, "graphql errors: "+strings.Join(messages, "; "))
		}

		raw = parsed.Data
		return nil
	})
	if err != nil {
		return err
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding graphql data")
		}
	}
	return nil
}
