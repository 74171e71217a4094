package guacamole

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"kolaboree-backend/internal/pkg/logger"
)

// Connection is one remote desktop connection defined in Guacamole.
type Connection struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Protocol   string         `json:"protocol"`
	Parameters map[string]any `json:"parameters"`
	URL        string         `json:"guacamole_url"`
}

type connectionInfo struct {
	Name       string         `json:"name"`
	Protocol   string         `json:"protocol"`
	Parameters map[string]any `json:"parameters"`
}

type tokenResponse struct {
	AuthToken  string `json:"authToken"`
	Username   string `json:"username"`
	DataSource string `json:"dataSource"`
}

// Client talks to the Guacamole REST API with a service account. The auth
// token is obtained on first use and cached for the lifetime of the client.
type Client struct {
	baseURL    string
	username   string
	password   string
	dataSource string
	httpClient *http.Client
	logger     *logger.Logger

	mu        sync.Mutex
	authToken string
}

func NewClient(baseURL, username, password, dataSource string, timeout time.Duration, log *logger.Logger) *Client {
	if dataSource == "" {
		dataSource = "postgresql"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		username:   username,
		password:   password,
		dataSource: dataSource,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
	}
}

// Authenticate requests a fresh token and caches it.
func (c *Client) Authenticate(ctx context.Context) error {
	form := url.Values{}
	form.Set("username", c.username)
	form.Set("password", c.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/tokens", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("guacamole auth: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("guacamole auth failed: status %d", resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return fmt.Errorf("decode guacamole token: %w", err)
	}
	if tok.AuthToken == "" {
		return fmt.Errorf("guacamole auth returned no token")
	}

	c.mu.Lock()
	c.authToken = tok.AuthToken
	c.mu.Unlock()
	return nil
}

func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	tok := c.authToken
	c.mu.Unlock()
	if tok != "" {
		return tok, nil
	}

	if err := c.Authenticate(ctx); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authToken, nil
}

// GetConnections lists every connection visible to the service account,
// sorted by id. Any failure is logged and yields an empty list.
func (c *Client) GetConnections(ctx context.Context) []Connection {
	conns, err := c.ListConnections(ctx)
	if err != nil {
		c.logger.Errorf("failed to get guacamole connections: %v", err)
		return []Connection{}
	}
	return conns
}

func (c *Client) ListConnections(ctx context.Context) ([]Connection, error) {
	tok, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/api/session/data/%s/connections?token=%s",
		c.baseURL, url.PathEscape(c.dataSource), url.QueryEscape(tok))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list guacamole connections: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list guacamole connections: status %d", resp.StatusCode)
	}

	var raw map[string]connectionInfo
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode guacamole connections: %w", err)
	}

	conns := make([]Connection, 0, len(raw))
	for id, info := range raw {
		name := info.Name
		if name == "" {
			name = "Unknown"
		}
		protocol := info.Protocol
		if protocol == "" {
			protocol = "unknown"
		}
		params := info.Parameters
		if params == nil {
			params = map[string]any{}
		}
		conns = append(conns, Connection{
			ID:         id,
			Name:       name,
			Protocol:   protocol,
			Parameters: params,
			URL:        c.clientURL(id, tok),
		})
	}
	sort.Slice(conns, func(i, j int) bool { return conns[i].ID < conns[j].ID })
	return conns, nil
}

// ConnectionURL returns the browser URL that opens connectionID.
func (c *Client) ConnectionURL(ctx context.Context, connectionID string) (string, error) {
	tok, err := c.token(ctx)
	if err != nil {
		return "", err
	}
	return c.clientURL(connectionID, tok), nil
}

func (c *Client) clientURL(connectionID, tok string) string {
	return fmt.Sprintf("%s/#/client/%s?token=%s", c.baseURL, connectionID, tok)
}
