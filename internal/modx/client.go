// ABOUTME: Authenticated HTTP session client for a remote MODX installation
// ABOUTME: Owns login state, the processor discovery cache, and generic invocation

package modx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Form fields every connector request carries. Caller-supplied data with the
// same key deliberately wins over these (last write wins); see CallProcessor.
const (
	fieldAction  = "action"
	fieldFormat  = "format"
	fieldAuth    = "HTTP_MODAUTH"
	fieldNS      = "namespace"
	loginAction  = "security/login"
	logoutAction = "security/logout"

	// discoveryAction and discoveryNamespace address the modx-mcp extra's
	// processor index on its own connector.
	discoveryAction    = "data/index"
	discoveryNamespace = "modx-mcp"
)

// Config holds construction parameters for a Client.
type Config struct {
	// BaseURL of the MODX installation. May be left empty and supplied at
	// login time instead.
	BaseURL string
	// ConnectorPath is the stock connector used for login and generic
	// processor invocation. Must start and end with "/".
	ConnectorPath string
	// AdminPath is the manager URL path, used as the Referer the MODX access
	// checks expect. Must start and end with "/".
	AdminPath string
	// MCPConnectorPath is the modx-mcp extra's connector used for discovery.
	MCPConnectorPath string
	// Timeout is the per-request network timeout. Defaults to 30s.
	Timeout time.Duration
	// Logger for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// Client is the one authenticated session against a MODX installation. A
// process owns exactly one; all methods are safe for concurrent use.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger

	connectorPath    string
	adminPath        string
	mcpConnectorPath string

	mu            sync.Mutex
	baseURL       string
	authenticated bool
	authToken     string
	user          map[string]any
	loginTime     time.Time
	lastActivity  time.Time
	cache         *ProcessorList
}

// NewClient creates a session client. No network traffic happens until Login.
func NewClient(cfg Config) (*Client, error) {
	if cfg.ConnectorPath == "" || cfg.AdminPath == "" || cfg.MCPConnectorPath == "" {
		return nil, errors.New("connector, admin, and mcp connector paths are required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	return &Client{
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
		logger:           logger.With("component", "modx"),
		connectorPath:    cfg.ConnectorPath,
		adminPath:        cfg.AdminPath,
		mcpConnectorPath: cfg.MCPConnectorPath,
		baseURL:          strings.TrimRight(cfg.BaseURL, "/"),
	}, nil
}

// Login authenticates against the MODX security/login processor. It never
// returns a Go error: bad credentials, transport failures, and unparseable
// responses all produce a tagged failure result. A non-empty baseURL overrides
// the configured one for this and all subsequent calls.
func (c *Client) Login(ctx context.Context, username, password, baseURL string) *LoginResult {
	if baseURL != "" {
		c.mu.Lock()
		c.baseURL = strings.TrimRight(baseURL, "/")
		c.mu.Unlock()
	}

	form := url.Values{}
	form.Set(fieldAction, loginAction)
	form.Set("username", username)
	form.Set("password", password)
	form.Set("rememberme", "0")
	form.Set(fieldFormat, "json")

	resp, body, err := c.postForm(ctx, c.connectorPath, form)
	if err != nil {
		return c.loginFailed(fmt.Sprintf("login request failed: %v", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.loginFailed(fmt.Sprintf("login rejected with HTTP %d", resp.StatusCode))
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return c.loginFailed(fmt.Sprintf("unexpected login response: %v", err))
	}

	success, _ := raw["success"].(bool)
	if !success {
		msg := "login rejected by MODX"
		if m, ok := raw["message"].(string); ok && m != "" {
			msg = m
		}
		return c.loginFailed(msg)
	}

	user, _ := raw["object"].(map[string]any)
	token := ""
	if user != nil {
		if t, ok := user["token"].(string); ok {
			token = t
		}
	}

	now := time.Now()
	c.mu.Lock()
	c.authenticated = true
	c.authToken = token
	c.user = user
	c.loginTime = now
	c.lastActivity = now
	c.cache = nil // a new session gets a fresh discovery snapshot
	c.mu.Unlock()

	c.logger.Info("logged in to MODX", "base_url", c.BaseURL(), "user", username)

	return &LoginResult{
		Success:     true,
		User:        user,
		SessionInfo: c.SessionInfo(),
	}
}

func (c *Client) loginFailed(msg string) *LoginResult {
	c.mu.Lock()
	c.authenticated = false
	c.authToken = ""
	c.user = nil
	c.mu.Unlock()

	c.logger.Warn("MODX login failed", "reason", msg)

	return &LoginResult{
		Success:     false,
		Message:     msg,
		SessionInfo: c.SessionInfo(),
	}
}

// ListProcessors returns the discovery snapshot, fetching it from the modx-mcp
// connector when the cache is empty or forceRefresh is set. The cache is
// replaced whole; partial updates never happen.
func (c *Client) ListProcessors(ctx context.Context, forceRefresh bool) (*ProcessorList, error) {
	c.mu.Lock()
	if !c.authenticated {
		c.mu.Unlock()
		return nil, ErrUnauthenticated
	}
	if c.cache != nil && !forceRefresh {
		cached := c.cache
		c.lastActivity = time.Now()
		c.mu.Unlock()
		return cached, nil
	}
	token := c.authToken
	c.mu.Unlock()

	form := url.Values{}
	form.Set(fieldAction, discoveryAction)
	form.Set(fieldNS, discoveryNamespace)
	form.Set(fieldFormat, "json")
	form.Set(fieldAuth, token)

	resp, body, err := c.postForm(ctx, c.mcpConnectorPath, form)
	if err != nil {
		return nil, fmt.Errorf("processor discovery failed: %w", err)
	}
	if err := c.checkStatus(resp); err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &ParseError{Op: "discovery", Err: err}
	}

	list := parseProcessorList(raw)

	c.mu.Lock()
	c.cache = list
	c.lastActivity = time.Now()
	c.mu.Unlock()

	c.logger.Info("discovered MODX processors",
		"count", len(list.Processors),
		"total", list.Total,
		"generated_at", list.GeneratedAt,
	)

	return list, nil
}

// CachedProcessors returns the current discovery snapshot without touching the
// network, or nil when no discovery has happened yet.
func (c *Client) CachedProcessors() *ProcessorList {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache
}

// CallProcessor invokes one remote processor with the given form data. Fixed
// protocol fields are written first, so a caller key that collides with one of
// them wins (last write wins). A well-formed HTTP response never produces a Go
// error: the remote's success flag travels in the result, and a non-JSON body
// is treated as a raw success payload.
func (c *Client) CallProcessor(ctx context.Context, namespace, action string, data map[string]any) (*CallResult, error) {
	c.mu.Lock()
	if !c.authenticated {
		c.mu.Unlock()
		return nil, ErrUnauthenticated
	}
	token := c.authToken
	c.mu.Unlock()

	form := url.Values{}
	form.Set(fieldAction, action)
	if namespace != "" {
		form.Set(fieldNS, namespace)
	}
	form.Set(fieldFormat, "json")
	form.Set(fieldAuth, token)
	for k, v := range data {
		form.Set(k, formValue(v))
	}

	resp, body, err := c.postForm(ctx, c.connectorPath, form)
	if err != nil {
		return nil, fmt.Errorf("processor %s/%s failed: %w", namespace, action, err)
	}
	if err := c.checkStatus(resp); err != nil {
		return nil, err
	}

	c.touch()

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		// Some processors emit plain text or HTML fragments. That is a
		// payload, not a protocol failure.
		return &CallResult{Success: true, Data: string(body)}, nil
	}

	result := &CallResult{Success: true, Raw: raw}
	if s, ok := raw["success"].(bool); ok {
		result.Success = s
	}
	for _, key := range []string{"data", "object", "results"} {
		if v, ok := raw[key]; ok && v != nil {
			result.Data = v
			break
		}
	}
	return result, nil
}

// Logout is infallible from the caller's perspective: the remote logout call
// is best-effort and local state is reset no matter what.
func (c *Client) Logout(ctx context.Context) *LogoutResult {
	c.mu.Lock()
	wasAuthenticated := c.authenticated
	token := c.authToken
	c.mu.Unlock()

	if wasAuthenticated {
		form := url.Values{}
		form.Set(fieldAction, logoutAction)
		form.Set(fieldFormat, "json")
		form.Set(fieldAuth, token)
		if _, _, err := c.postForm(ctx, c.connectorPath, form); err != nil {
			c.logger.Debug("remote logout failed, resetting locally anyway", "error", err)
		}
	}

	c.reset()
	return &LogoutResult{Success: true, Message: "logged out"}
}

// SessionInfo returns a read-only snapshot of the session. The user map is
// copied so callers cannot mutate internal state through it.
func (c *Client) SessionInfo() SessionInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	info := SessionInfo{
		BaseURL:         c.baseURL,
		IsAuthenticated: c.authenticated,
	}
	if c.user != nil {
		user := make(map[string]any, len(c.user))
		for k, v := range c.user {
			user[k] = v
		}
		info.User = user
	}
	if !c.loginTime.IsZero() {
		t := c.loginTime
		info.LoginTime = &t
	}
	if !c.lastActivity.IsZero() {
		t := c.lastActivity
		info.LastActivity = &t
	}
	if c.cache != nil {
		info.ProcessorCount = len(c.cache.Processors)
	}
	return info
}

// BaseURL returns the currently configured base URL.
func (c *Client) BaseURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.baseURL
}

// Authenticated reports whether the most recent login is still considered valid.
func (c *Client) Authenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authenticated
}

// postForm issues one form-encoded POST with the headers the MODX access
// checks expect, and returns the response plus its fully-read body.
func (c *Client) postForm(ctx context.Context, path string, form url.Values) (*http.Response, []byte, error) {
	c.mu.Lock()
	base := c.baseURL
	c.mu.Unlock()
	if base == "" {
		return nil, nil, errors.New("no base URL configured")
	}

	endpoint := base + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Referer", base+c.adminPath)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("reading response body: %w", err)
	}
	return resp, body, nil
}

// checkStatus translates auth rejections and other HTTP failures. A 401 or
// 403 anywhere invalidates the session immediately, even mid-sequence.
func (c *Client) checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.logger.Warn("MODX session rejected", "status", resp.StatusCode)
		c.reset()
		return ErrSessionExpired
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &HTTPError{Status: resp.StatusCode, URL: resp.Request.URL.String()}
	}
	return nil
}

// reset clears all derived session state, including cookies.
func (c *Client) reset() {
	c.mu.Lock()
	c.authenticated = false
	c.authToken = ""
	c.user = nil
	c.cache = nil
	c.loginTime = time.Time{}
	c.lastActivity = time.Time{}
	c.mu.Unlock()

	// Dropping the jar is the only way net/http offers to clear cookies.
	if jar, err := cookiejar.New(nil); err == nil {
		c.httpClient.Jar = jar
	}
}

func (c *Client) touch() {
	c.mu.Lock()
	c.lastActivity = time.Now()
	c.mu.Unlock()
}

// formValue renders a caller-supplied argument as a form field. Structured
// values are sent as JSON, everything scalar as its natural string form.
func formValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	case bool:
		if val {
			return "1"
		}
		return "0"
	case float64, float32, int, int64, int32:
		return fmt.Sprintf("%v", val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	}
}
