package orgapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/warpvault/vaultmcp/internal/security"
)

// expiryBuffer is subtracted from the token expiry when deciding
// freshness, so a token is refreshed before it actually lapses
// mid-request.
const expiryBuffer = 5 * time.Minute

// defaultScope is the scope required for organization API access.
const defaultScope = "api.organization"

// TokenSourceConfig configures a TokenSource.
type TokenSourceConfig struct {
	// IdentityURL is the base URL of the identity service; the exchange
	// is POSTed to IdentityURL + "/connect/token".
	IdentityURL string

	// ClientID and ClientSecret are the client-credentials pair.
	ClientID     string
	ClientSecret string

	// Scope defaults to "api.organization".
	Scope string

	// HTTPClient defaults to a client with a 30s timeout.
	HTTPClient *http.Client

	// Now overrides time.Now so tests control expiry deterministically.
	Now func() time.Time

	// Redactor, if set, learns each bearer token as it is issued.
	Redactor *security.Redactor

	// Audit receives token_refresh events. Optional.
	Audit *security.AuditLogger
}

// TokenSource acquires and caches an OAuth2 client-credentials bearer
// token. It holds one of two states: empty, or cached with an absolute
// expiry. A cached token is returned without network I/O while
// now < expiry − expiryBuffer; otherwise a refresh is performed.
// Concurrent refreshes are collapsed into a single exchange; a failed
// refresh leaves the previous state untouched.
type TokenSource struct {
	identityURL  string
	clientID     string
	clientSecret string
	scope        string
	httpClient   *http.Client
	now          func() time.Time
	redactor     *security.Redactor
	audit        *security.AuditLogger

	group singleflight.Group

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// NewTokenSource creates a TokenSource, filling zero-value config with
// defaults.
func NewTokenSource(cfg TokenSourceConfig) *TokenSource {
	if cfg.Scope == "" {
		cfg.Scope = defaultScope
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &TokenSource{
		identityURL:  strings.TrimRight(cfg.IdentityURL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		scope:        cfg.Scope,
		httpClient:   cfg.HTTPClient,
		now:          cfg.Now,
		redactor:     cfg.Redactor,
		audit:        cfg.Audit,
	}
}

// Token returns a fresh bearer token, performing at most one exchange
// across all concurrent callers.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	if ts.clientID == "" || ts.clientSecret == "" {
		return "", ErrMissingCredentials
	}

	if token, ok := ts.cached(); ok {
		return token, nil
	}

	v, err, _ := ts.group.Do("token", func() (any, error) {
		// A caller that queued behind a completed refresh can use its
		// result directly.
		if token, ok := ts.cached(); ok {
			return token, nil
		}
		return ts.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// cached returns the token if it is still fresh.
func (ts *TokenSource) cached() (string, bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if ts.token != "" && ts.now().Before(ts.expiry.Add(-expiryBuffer)) {
		return ts.token, true
	}
	return "", false
}

// tokenResponse is the token endpoint's success payload.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// refresh performs the client-credentials exchange. On success the
// cache transitions to the new token; on any failure the prior cached
// state remains untouched.
func (ts *TokenSource) refresh(ctx context.Context) (string, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"scope":         {ts.scope},
		"client_id":     {ts.clientID},
		"client_secret": {ts.clientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		ts.identityURL+"/connect/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ts.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w (status %d)", ErrTokenRequest, resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("%w: parsing response: %v", ErrTokenUnavailable, err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("%w: response carried no access token", ErrTokenUnavailable)
	}

	expiry := ts.now().Add(time.Duration(tr.ExpiresIn) * time.Second)

	ts.mu.Lock()
	ts.token = tr.AccessToken
	ts.expiry = expiry
	ts.mu.Unlock()

	if ts.redactor != nil {
		ts.redactor.AddLiteral(tr.AccessToken)
	}
	ts.audit.Log(security.AuditEvent{
		Type:    security.EventTokenRefresh,
		Surface: security.SurfaceAPI,
		Detail:  fmt.Sprintf("token refreshed, expires in %ds", tr.ExpiresIn),
	})

	return tr.AccessToken, nil
}
