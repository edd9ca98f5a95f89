package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mothership-gmbh/sw6-simple-api-sub000/internal/config"
)

const (
	contentTypeJSON    = "application/json"
	contentTypeJSONAPI = "application/vnd.api+json"
)

// Client talks to the platform Admin API using the client credentials grant.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	limiter      *rate.Limiter
	logger       *zap.Logger

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

// NewClient creates a new Admin API client
func NewClient(cfg config.PlatformConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		httpClient:   &http.Client{Timeout: timeout},
		limiter:      rate.NewLimiter(limit, 1),
		logger:       logger,
	}
}

type tokenResponse struct {
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	AccessToken string `json:"access_token"`
}

// token returns a cached access token, fetching a new one shortly before expiry.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.expiresAt) {
		return c.accessToken, nil
	}

	body, err := json.Marshal(map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/oauth/token", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", contentTypeJSON)
	req.Header.Set("Accept", contentTypeJSON)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to request access token: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &APIError{Status: resp.StatusCode, Body: string(raw)}
	}

	var tok tokenResponse
	if err := json.Unmarshal(raw, &tok); err != nil {
		return "", fmt.Errorf("failed to unmarshal token response: %w", err)
	}

	c.accessToken = tok.AccessToken
	// refresh a little early so a request never carries an expired token
	c.expiresAt = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - 30*time.Second)
	return c.accessToken, nil
}

// do executes an authenticated request and returns the response body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload interface{}, accept string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentTypeJSON)
	req.Header.Set("Accept", accept)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("Platform API request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}

// Search runs a criteria search and decodes the plain JSON result.
func (c *Client) Search(ctx context.Context, entity string, criteria *Criteria) (*SearchResult, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/search/"+endpointName(entity), nil, criteria, contentTypeJSON)
	if err != nil {
		return nil, err
	}

	var result SearchResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s search: %w", entity, err)
	}
	return &result, nil
}

// SearchIDs returns only the ids matching criteria.
func (c *Client) SearchIDs(ctx context.Context, entity string, criteria *Criteria) ([]string, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/search-ids/"+endpointName(entity), nil, criteria, contentTypeJSON)
	if err != nil {
		return nil, err
	}

	var result struct {
		Total int      `json:"total"`
		Data  []string `json:"data"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s id search: %w", entity, err)
	}
	return result.Data, nil
}

// SearchDocument runs a search and returns the JSON:API document untouched.
func (c *Client) SearchDocument(ctx context.Context, entity string, criteria *Criteria) ([]byte, error) {
	return c.do(ctx, http.MethodPost, "/api/search/"+endpointName(entity), nil, criteria, contentTypeJSONAPI)
}

type syncOperation struct {
	Entity  string   `json:"entity"`
	Action  string   `json:"action"`
	Payload []Entity `json:"payload"`
}

// Upsert writes payload through the sync endpoint.
func (c *Client) Upsert(ctx context.Context, entity string, payload []Entity) error {
	return c.sync(ctx, entity, "upsert", payload)
}

// Delete removes rows by primary key. Mapping entities take both foreign keys.
func (c *Client) Delete(ctx context.Context, entity string, keys []Entity) error {
	return c.sync(ctx, entity, "delete", keys)
}

func (c *Client) sync(ctx context.Context, entity, action string, payload []Entity) error {
	if len(payload) == 0 {
		return nil
	}
	ops := map[string]syncOperation{
		action + "-" + entity: {Entity: entity, Action: action, Payload: payload},
	}
	if _, err := c.do(ctx, http.MethodPost, "/api/_action/sync", nil, ops, contentTypeJSON); err != nil {
		return fmt.Errorf("failed to %s %s: %w", action, entity, err)
	}
	return nil
}

// UploadFromURL makes the platform download url into the media record.
func (c *Client) UploadFromURL(ctx context.Context, mediaID, fileURL, fileName, extension string) error {
	query := url.Values{}
	query.Set("extension", extension)
	if fileName != "" {
		query.Set("fileName", fileName)
	}

	_, err := c.do(ctx, http.MethodPost, "/api/_action/media/"+mediaID+"/upload", query,
		map[string]string{"url": fileURL}, contentTypeJSON)
	if err != nil {
		return fmt.Errorf("failed to upload media %s: %w", mediaID, err)
	}
	return nil
}
