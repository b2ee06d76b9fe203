package supabase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/assetdesk/internal/config"
)

// Client talks to the GoTrue (/auth/v1) and PostgREST (/rest/v1) APIs of a
// Supabase project.
type Client struct {
	httpClient *resty.Client
	apiKey     string
	// bearer is sent when the request context carries no user access token.
	bearer string
}

// NewClient builds a client authenticated with the project's public key.
func NewClient(cfg config.SupabaseConfig) *Client {
	return newClient(cfg.URL, cfg.AnonKey)
}

// NewServiceClient builds a client that bypasses row-level security. It is
// meant for background jobs that have no end-user session.
func NewServiceClient(cfg config.SupabaseConfig) (*Client, error) {
	if cfg.ServiceRoleKey == "" {
		return nil, fmt.Errorf("supabase service role key is not configured")
	}
	return newClient(cfg.URL, cfg.ServiceRoleKey), nil
}

func newClient(baseURL, key string) *Client {
	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("apikey", key).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetTimeout(15 * time.Second)

	return &Client{
		httpClient: restyClient,
		apiKey:     key,
		bearer:     key,
	}
}

type accessTokenKey struct{}

// ContextWithAccessToken returns a context whose PostgREST calls run as the
// user owning token, so row-level security applies to them.
func ContextWithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenKey{}, token)
}

// AccessTokenFromContext returns the token stored by ContextWithAccessToken.
func AccessTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(accessTokenKey{}).(string)
	return token, ok && token != ""
}

func (c *Client) request(ctx context.Context) *resty.Request {
	token, ok := AccessTokenFromContext(ctx)
	if !ok {
		token = c.bearer
	}
	return c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(token)
}
