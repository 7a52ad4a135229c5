// Package confluence provides a client for the Confluence REST API
// covering search, page CRUD, navigation, comments, and labels.
package confluence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/morikuni/failure/v2"
	"github.com/samber/lo"

	"github.com/oniwiki/confluence-mcp/config"
	"github.com/oniwiki/confluence-mcp/confluence/cache"
	"github.com/oniwiki/confluence-mcp/log"
)

const (
	// DefaultTimeout bounds a single HTTP request
	DefaultTimeout = 30 * time.Second

	// maxRetries is the number of additional attempts for idempotent reads
	maxRetries = 2
)

// AuthMethod represents an authentication method.
type AuthMethod interface {
	Apply(req *http.Request)
}

// BasicAuth implements basic authentication using API tokens.
type BasicAuth struct {
	Username string
	Token    string // API token, not a password
}

// Apply implements AuthMethod.
func (b BasicAuth) Apply(req *http.Request) {
	req.SetBasicAuth(b.Username, b.Token)
}

// BearerAuth implements bearer token authentication.
type BearerAuth struct {
	Token string
}

// Apply implements AuthMethod.
func (b BearerAuth) Apply(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+b.Token)
}

// Client is a Confluence REST API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	auth       AuthMethod
	spaces     *cache.Cache[[]Space]
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithSpacesCacheTTL overrides how long the space listing is cached.
func WithSpacesCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.spaces.SetTTL(ttl)
	}
}

// WithSpacesCacheDir relocates the space listing cache.
func WithSpacesCacheDir(dir string) Option {
	return func(c *Client) {
		_ = c.spaces.SetDir(dir)
	}
}

// NewClient creates a new Confluence client.
func NewClient(baseURL string, auth AuthMethod, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Transport: log.Transport(),
			Timeout:   DefaultTimeout,
		},
		auth:   auth,
		spaces: cache.New[[]Space]("spaces"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig creates a client from the application configuration.
func NewFromConfig(cfg config.Confluence, opts ...Option) *Client {
	var auth AuthMethod
	switch cfg.Auth {
	case config.AuthBearer:
		auth = BearerAuth{Token: cfg.APIToken}
	default:
		auth = BasicAuth{Username: cfg.Username, Token: cfg.APIToken}
	}
	return NewClient(cfg.URL, auth, opts...)
}

// GetPage retrieves page content and metadata by ID.
func (c *Client) GetPage(ctx context.Context, pageID string, includeBody bool) (*Page, error) {
	expand := "version,space,history"
	if includeBody {
		expand = "body.storage," + expand
	}

	var payload contentPayload
	query := url.Values{"expand": {expand}}
	if err := c.get(ctx, "/rest/api/content/"+pageID, query, &payload); err != nil {
		return nil, err
	}

	page := parsePage(payload)
	return &page, nil
}

// CreatePageInput holds the parameters for CreatePage.
type CreatePageInput struct {
	SpaceKey string
	Title    string
	Content  string
	ParentID string
	// Format is the content representation: "storage" (XHTML, default)
	// or "wiki" markup.
	Format string
}

// CreatePage creates a new page.
func (c *Client) CreatePage(ctx context.Context, in CreatePageInput) (*Page, error) {
	representation := in.Format
	if representation == "" {
		representation = "storage"
	}

	body := map[string]any{
		"type":  "page",
		"title": in.Title,
		"space": map[string]string{"key": in.SpaceKey},
		"body": map[string]any{
			"storage": map[string]string{
				"value":          in.Content,
				"representation": representation,
			},
		},
	}
	if in.ParentID != "" {
		body["ancestors"] = []map[string]string{{"id": in.ParentID}}
	}

	var payload contentPayload
	if err := c.send(ctx, http.MethodPost, "/rest/api/content", nil, body, &payload); err != nil {
		return nil, err
	}

	page := parsePage(payload)
	return &page, nil
}

// UpdatePageInput holds the parameters for UpdatePage.
type UpdatePageInput struct {
	PageID         string
	Title          string
	Content        string
	MinorEdit      bool
	Format         string
	VersionComment string
}

// UpdatePage updates an existing page. The current version is fetched
// first and bumped by one.
func (c *Client) UpdatePage(ctx context.Context, in UpdatePageInput) (*Page, error) {
	current, err := c.GetPage(ctx, in.PageID, false)
	if err != nil {
		return nil, failure.Wrap(err, failure.Message("Failed to get current page version"))
	}

	representation := in.Format
	if representation == "" {
		representation = "storage"
	}

	body := map[string]any{
		"type":  "page",
		"title": in.Title,
		"body": map[string]any{
			"storage": map[string]string{
				"value":          in.Content,
				"representation": representation,
			},
		},
		"version": map[string]any{
			"number":    current.Version + 1,
			"minorEdit": in.MinorEdit,
			"message":   in.VersionComment,
		},
	}

	var payload contentPayload
	if err := c.send(ctx, http.MethodPut, "/rest/api/content/"+in.PageID, nil, body, &payload); err != nil {
		return nil, err
	}

	page := parsePage(payload)
	return &page, nil
}

// DeletePage deletes a page by ID.
func (c *Client) DeletePage(ctx context.Context, pageID string) error {
	return c.send(ctx, http.MethodDelete, "/rest/api/content/"+pageID, nil, nil, nil)
}

// GetPageChildren returns the child pages of a page.
func (c *Client) GetPageChildren(ctx context.Context, pageID string, limit int) ([]Page, error) {
	query := url.Values{
		"limit":  {fmt.Sprintf("%d", limit)},
		"expand": {"version,space"},
	}

	var payload struct {
		Results []contentPayload `json:"results"`
	}
	if err := c.get(ctx, "/rest/api/content/"+pageID+"/child/page", query, &payload); err != nil {
		return nil, err
	}

	return lo.Map(payload.Results, func(p contentPayload, _ int) Page {
		return parsePage(p)
	}), nil
}

// GetPageAncestors returns the ancestor chain of a page, from the root
// downwards.
func (c *Client) GetPageAncestors(ctx context.Context, pageID string) ([]Page, error) {
	var payload contentPayload
	query := url.Values{"expand": {"ancestors"}}
	if err := c.get(ctx, "/rest/api/content/"+pageID, query, &payload); err != nil {
		return nil, err
	}

	return lo.Map(payload.Ancestors, func(p contentPayload, _ int) Page {
		return parsePage(p)
	}), nil
}

// Search runs a CQL query against the content search endpoint. The
// query must already be valid CQL; see the cql package for
// normalization of free-text input.
func (c *Client) Search(ctx context.Context, cql string, limit int) ([]SearchResult, error) {
	query := url.Values{
		"cql":    {cql},
		"limit":  {fmt.Sprintf("%d", limit)},
		"expand": {"body.view,space"},
	}

	var payload struct {
		Results []contentPayload `json:"results"`
	}
	if err := c.get(ctx, "/rest/api/content/search", query, &payload); err != nil {
		return nil, err
	}

	return lo.Map(payload.Results, func(p contentPayload, _ int) SearchResult {
		return parseSearchResult(p)
	}), nil
}

// GetSpaces lists available spaces. Results are cached on disk with a
// short TTL; pass forceUpdate to bypass the cache.
func (c *Client) GetSpaces(ctx context.Context, limit int, forceUpdate bool) ([]Space, error) {
	key := fmt.Sprintf("%s_%d", c.baseURL, limit)
	return c.spaces.GetOrSet(key, func() ([]Space, error) {
		query := url.Values{
			"limit":  {fmt.Sprintf("%d", limit)},
			"expand": {"description.plain"},
		}

		var payload struct {
			Results []spacePayload `json:"results"`
		}
		if err := c.get(ctx, "/rest/api/space", query, &payload); err != nil {
			return nil, err
		}

		return lo.Map(payload.Results, func(p spacePayload, _ int) Space {
			return parseSpace(p)
		}), nil
	}, forceUpdate)
}

// GetComments returns the comments on a page. depth is "all" for the
// full tree or "root" for top-level comments only.
func (c *Client) GetComments(ctx context.Context, pageID, depth string) ([]Comment, error) {
	query := url.Values{"expand": {"body.storage,author,container"}}
	if depth != "" {
		query.Set("depth", depth)
	}

	var payload struct {
		Results []contentPayload `json:"results"`
	}
	if err := c.get(ctx, "/rest/api/content/"+pageID+"/child/comment", query, &payload); err != nil {
		return nil, err
	}

	return lo.Map(payload.Results, func(p contentPayload, _ int) Comment {
		return parseComment(p)
	}), nil
}

// AddComment adds a comment to a page.
func (c *Client) AddComment(ctx context.Context, pageID, content string) (*Comment, error) {
	body := map[string]any{
		"type": "comment",
		"container": map[string]string{
			"id":   pageID,
			"type": "page",
		},
		"body": map[string]any{
			"storage": map[string]string{
				"value":          content,
				"representation": "storage",
			},
		},
	}

	var payload contentPayload
	if err := c.send(ctx, http.MethodPost, "/rest/api/content", nil, body, &payload); err != nil {
		return nil, err
	}

	comment := parseComment(payload)
	if comment.PageID == "" {
		comment.PageID = pageID
	}
	return &comment, nil
}

// GetLabels returns the labels on a page.
func (c *Client) GetLabels(ctx context.Context, pageID string) ([]Label, error) {
	var payload struct {
		Results []labelPayload `json:"results"`
	}
	if err := c.get(ctx, "/rest/api/content/"+pageID+"/label", nil, &payload); err != nil {
		return nil, err
	}

	return lo.Map(payload.Results, func(p labelPayload, _ int) Label {
		return parseLabel(p)
	}), nil
}

// AddLabel adds a label to a page.
func (c *Client) AddLabel(ctx context.Context, pageID, label string) error {
	body := []map[string]string{
		{"prefix": "global", "name": label},
	}
	return c.send(ctx, http.MethodPost, "/rest/api/content/"+pageID+"/label", nil, body, nil)
}

// get issues a GET request with retries. Transport errors and
// retryable statuses (429, 5xx) back off exponentially; everything
// else fails immediately.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	eb := backoff.NewExponentialBackOff()
	eb.MaxElapsedTime = DefaultTimeout

	policy := backoff.WithContext(backoff.WithMaxRetries(eb, maxRetries), ctx)

	return backoff.Retry(func() error {
		err := c.send(ctx, http.MethodGet, path, query, nil, out)
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
}

// send issues a single HTTP request and decodes the JSON response
// into out when non-nil.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return failure.Wrap(err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return failure.Wrap(err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.auth.Apply(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return failure.Wrap(err, failure.WithCode(ErrUnavailable),
			failure.Message("Confluence request failed"),
			failure.Context{"method": method, "path": path},
		)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure.Wrap(err, failure.WithCode(ErrInvalidResponse),
			failure.Message("Failed to read response body"),
		)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, respBody, method, path)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return failure.Wrap(err, failure.WithCode(ErrInvalidResponse),
			failure.Message("Failed to decode response"),
			failure.Context{"method": method, "path": path},
		)
	}
	return nil
}

func statusError(status int, body []byte, method, path string) error {
	var code ErrorCode
	switch {
	case status == http.StatusNotFound:
		code = ErrNotFound
	case status == http.StatusTooManyRequests || status >= 500:
		code = ErrUnavailable
	default:
		code = ErrRequestFailed
	}
	return failure.New(code,
		failure.Message(fmt.Sprintf("Confluence API error %d", status)),
		failure.Context{
			"status": fmt.Sprintf("%d", status),
			"method": method,
			"path":   path,
			"body":   string(body),
		},
	)
}

// retryable reports whether a request error is worth another attempt.
func retryable(err error) bool {
	return failure.Is(err, ErrUnavailable)
}
