// Package directory talks to a Keycloak-style identity directory through
// its admin REST API.
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
	"github.com/custodia-labs/reqbridge/internal/core/ports/driven"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// phoneAttribute is the user attribute holding the phone number.
	phoneAttribute = "phone"
)

// Ensure Client implements the interface.
var _ driven.Directory = (*Client)(nil)

// userRepresentation is the subset of the Keycloak user resource we use.
type userRepresentation struct {
	ID         string              `json:"id,omitempty"`
	Username   string              `json:"username,omitempty"`
	FirstName  string              `json:"firstName,omitempty"`
	LastName   string              `json:"lastName,omitempty"`
	Email      string              `json:"email,omitempty"`
	Enabled    bool                `json:"enabled"`
	Attributes map[string][]string `json:"attributes,omitempty"`
}

func (u userRepresentation) contact() *domain.Contact {
	c := &domain.Contact{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: strings.TrimSpace(u.FirstName + " " + u.LastName),
	}
	if phones := u.Attributes[phoneAttribute]; len(phones) > 0 {
		c.Phone = phones[0]
	}
	if c.DisplayName == "" {
		c.DisplayName = u.Username
	}
	return c
}

// Client is an admin API client. The access token is obtained on first use
// with the password grant and refreshed by the oauth2 transport.
type Client struct {
	settings  domain.DirectorySettings
	transport *http.Client
	limiter   *rate.Limiter

	mu  sync.Mutex
	api *http.Client
}

// NewClient creates a directory client using http.DefaultClient for transport.
func NewClient(settings domain.DirectorySettings) *Client {
	return NewClientWithHTTP(settings, http.DefaultClient)
}

// NewClientWithHTTP creates a directory client over the given HTTP client.
func NewClientWithHTTP(settings domain.DirectorySettings, transport *http.Client) *Client {
	limit := rate.Inf
	if settings.RequestsPerSecond > 0 {
		limit = rate.Limit(settings.RequestsPerSecond)
	}
	settings.BaseURL = strings.TrimRight(settings.BaseURL, "/")
	return &Client{
		settings:  settings,
		transport: transport,
		limiter:   rate.NewLimiter(limit, 1),
	}
}

// ensureClient obtains the admin token once and builds the authorised client.
func (c *Client) ensureClient(ctx context.Context) (*http.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.api != nil {
		return c.api, nil
	}

	cfg := &oauth2.Config{
		ClientID: c.settings.ClientID,
		Endpoint: oauth2.Endpoint{
			TokenURL:  c.settings.BaseURL + "/realms/" + url.PathEscape(c.settings.Realm) + "/protocol/openid-connect/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	// Refreshes run outside any one request's context.
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, c.transport)

	reqCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()
	tok, err := cfg.PasswordCredentialsToken(context.WithValue(reqCtx, oauth2.HTTPClient, c.transport),
		c.settings.AdminUser, c.settings.AdminPassword)
	if err != nil {
		return nil, fmt.Errorf("%w: admin token: %v", domain.ErrDirectoryUnavailable, err)
	}

	api := cfg.Client(tokenCtx, tok)
	api.Timeout = DefaultTimeout
	c.api = api
	return api, nil
}

// SearchByName returns the first user whose last name, and first name when
// given, match.
func (c *Client) SearchByName(ctx context.Context, surname, given string) (*domain.Contact, error) {
	q := url.Values{}
	q.Set("lastName", surname)
	if given != "" {
		q.Set("firstName", given)
	}
	q.Set("max", "1")

	var users []userRepresentation
	status, err := c.do(ctx, http.MethodGet, "users?"+q.Encode(), nil, &users, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound || len(users) == 0 {
		return nil, nil
	}
	return users[0].contact(), nil
}

// GetByID returns the user with the given id.
func (c *Client) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}

	var user userRepresentation
	status, err := c.do(ctx, http.MethodGet, "users/"+url.PathEscape(id), nil, &user, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	return user.contact(), nil
}

// CreateUser provisions an enabled account and returns its id, taken from
// the Location header of the response.
func (c *Client) CreateUser(ctx context.Context, user domain.NewUser) (string, error) {
	body := userRepresentation{
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Enabled:   true,
	}
	if user.Phone != "" {
		body.Attributes = map[string][]string{phoneAttribute: {user.Phone}}
	}

	header := http.Header{}
	status, err := c.do(ctx, http.MethodPost, "users", body, nil, header)
	if err != nil {
		return "", err
	}
	switch status {
	case http.StatusCreated:
	case http.StatusConflict:
		return "", fmt.Errorf("%w: user %s already exists", domain.ErrInvalidInput, user.Username)
	default:
		return "", fmt.Errorf("%w: create user: status %d", domain.ErrInvalidInput, status)
	}

	location := header.Get("Location")
	if location == "" {
		return "", fmt.Errorf("%w: create user: no Location header", domain.ErrDirectoryUnavailable)
	}
	return path.Base(location), nil
}

// do performs an admin API call. 404 and 409 are returned as statuses;
// other 4xx are invalid input, 5xx and transport errors mean the directory
// is unavailable. The response headers are copied into respHeader when set.
func (c *Client) do(
	ctx context.Context,
	method, resource string,
	in, out any,
	respHeader http.Header,
) (int, error) {
	api, err := c.ensureClient(ctx)
	if err != nil {
		return 0, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limit wait: %w", err)
	}

	var body io.Reader = http.NoBody
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	endpoint := c.settings.BaseURL + "/admin/realms/" + url.PathEscape(c.settings.Realm) + "/" + resource
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := api.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %s: %v", domain.ErrDirectoryUnavailable, method, resource, err)
	}
	defer resp.Body.Close()

	if respHeader != nil {
		for k, v := range resp.Header {
			respHeader[k] = v
		}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusConflict:
		return resp.StatusCode, nil
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return resp.StatusCode, fmt.Errorf("%w: %s %s: status %d", domain.ErrDirectoryUnavailable, method, resource, resp.StatusCode)
	case resp.StatusCode >= 500:
		return resp.StatusCode, fmt.Errorf("%w: %s %s: status %d", domain.ErrDirectoryUnavailable, method, resource, resp.StatusCode)
	case resp.StatusCode >= 400:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, fmt.Errorf("%w: %s %s: status %d: %s",
			domain.ErrInvalidInput, method, resource, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("%w: decode %s: %v", domain.ErrDirectoryUnavailable, resource, err)
		}
	}
	return resp.StatusCode, nil
}
