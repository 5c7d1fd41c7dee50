package orgapi

import "errors"

// Authentication and guard errors.
var (
	// ErrMissingCredentials means client id or secret is absent. Fatal to
	// every API operation until configuration is corrected.
	ErrMissingCredentials = errors.New("client id and client secret are not configured")

	// ErrTokenRequest is a non-2xx response from the token endpoint.
	ErrTokenRequest = errors.New("token request failed")

	// ErrTokenUnavailable is a transport failure during token exchange.
	ErrTokenUnavailable = errors.New("failed to obtain access token")
)
