package orgapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/warpvault/vaultmcp/internal/security"
)

// allowedMethods is the fixed set of permitted HTTP methods.
var allowedMethods = map[string]struct{}{
	http.MethodGet:    {},
	http.MethodPost:   {},
	http.MethodPut:    {},
	http.MethodDelete: {},
}

// APIResult captures a finished API invocation. Immutable once
// produced. Exactly one of Data or ErrorMessage is meaningful.
type APIResult struct {
	Status       int
	Data         any
	ErrorMessage string
}

// ClientConfig configures a Client.
type ClientConfig struct {
	// BaseURL is the API root, e.g. https://api.bitwarden.com.
	BaseURL string

	// Tokens supplies bearer tokens. Required.
	Tokens *TokenSource

	// UserAgent defaults to "vaultmcp".
	UserAgent string

	// HTTPClient defaults to a client with a 30s timeout.
	HTTPClient *http.Client

	// Logger defaults to slog.Default.
	Logger *slog.Logger

	// Audit receives guard_rejection events. Optional.
	Audit *security.AuditLogger
}

// Client issues guarded, authenticated requests against the
// organization API. It performs no retries: transient failures are
// reported to the caller, whose retry policy this layer does not own.
type Client struct {
	baseURL    string
	tokens     *TokenSource
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
	audit      *security.AuditLogger
}

// NewClient creates a Client, filling zero-value config with defaults.
func NewClient(cfg ClientConfig) *Client {
	if cfg.UserAgent == "" {
		cfg.UserAgent = "vaultmcp"
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		tokens:     cfg.Tokens,
		userAgent:  cfg.UserAgent,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
		audit:      cfg.Audit,
	}
}

// Do validates the method and endpoint against their allowlists,
// attaches a bearer token, and executes the request. The body is only
// attached for POST/PUT and has every string leaf sanitized before
// serialization. All failure classes come back as an APIResult; Do
// never panics past this boundary.
func (c *Client) Do(ctx context.Context, method, endpoint string, body map[string]any) APIResult {
	if _, ok := allowedMethods[method]; !ok {
		c.audit.Log(security.AuditEvent{
			Type:    security.EventGuardRejection,
			Surface: security.SurfaceAPI,
			Detail:  "disallowed method: " + method,
		})
		return APIResult{Status: http.StatusBadRequest, ErrorMessage: "Invalid HTTP method: " + method}
	}

	if !ValidateEndpoint(endpoint) {
		c.audit.Log(security.AuditEvent{
			Type:    security.EventGuardRejection,
			Surface: security.SurfaceAPI,
			Detail:  "disallowed endpoint: " + endpoint,
		})
		return APIResult{Status: http.StatusBadRequest, ErrorMessage: "Invalid API endpoint: " + endpoint}
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		c.audit.Log(security.AuditEvent{
			Type:    security.EventAuthFailure,
			Surface: security.SurfaceAPI,
			Detail:  err.Error(),
		})
		return APIResult{Status: http.StatusInternalServerError, ErrorMessage: "Authentication failed: " + err.Error()}
	}

	var reqBody io.Reader
	if body != nil && (method == http.MethodPost || method == http.MethodPut) {
		data, err := json.Marshal(security.SanitizeParams(body))
		if err != nil {
			return APIResult{Status: http.StatusBadRequest, ErrorMessage: "Invalid request body: " + err.Error()}
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return APIResult{ErrorMessage: "Request construction failed: " + err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return APIResult{ErrorMessage: "API request failed: " + err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return APIResult{Status: resp.StatusCode, ErrorMessage: "Reading response failed: " + err.Error()}
	}

	c.logger.Debug("api request finished",
		"method", method,
		"endpoint", endpoint,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fmt.Sprintf("API request failed: %d", resp.StatusCode)
		if detail := strings.TrimSpace(string(raw)); detail != "" {
			msg += ": " + detail
		}
		return APIResult{Status: resp.StatusCode, ErrorMessage: msg}
	}

	return APIResult{Status: resp.StatusCode, Data: decodeBody(resp.Header.Get("Content-Type"), raw)}
}

// decodeBody parses a JSON body when the content type claims one,
// degrading to the raw text when parsing fails so the caller always
// receives textual content.
func decodeBody(contentType string, raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "application/json" {
		return string(raw)
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Sprintf("malformed JSON in response: %s", raw)
	}
	return data
}
