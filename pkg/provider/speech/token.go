package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const defaultTokenEndpoint = "https://oxford-speech.cloudapp.net/token/issueToken"

// TokenSource supplies bearer tokens for the speech endpoints. Implementations
// must be safe for concurrent use.
type TokenSource interface {
	// Token returns a token valid for at least the next request.
	Token(ctx context.Context) (string, error)
}

// ClientCredentialsSource is the default TokenSource: a client-credentials
// POST to the token endpoint, with the token cached until shortly before its
// reported expiry.
type ClientCredentialsSource struct {
	// Endpoint is the token issuance URL. Empty means the service default.
	Endpoint string

	// ClientID identifies this client instance.
	ClientID string

	// Secret is the subscription key.
	Secret string

	// Scope is the API scope the token is requested for.
	Scope string

	// HTTPClient is used for the token request. Nil means http.DefaultClient.
	HTTPClient *http.Client

	mu      sync.Mutex
	token   string
	expires time.Time
}

// tokenResponse is the issuance reply. expires_in arrives as a JSON string.
type tokenResponse struct {
	AccessToken string      `json:"access_token"`
	ExpiresIn   json.Number `json:"expires_in"`
}

// Token returns the cached token, refreshing it when it is missing or within
// thirty seconds of expiry.
func (s *ClientCredentialsSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && time.Now().Before(s.expires.Add(-30*time.Second)) {
		return s.token, nil
	}

	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = defaultTokenEndpoint
	}
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {s.ClientID},
		"client_secret": {s.Secret},
		"scope":         {s.Scope},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("speech: token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := s.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("speech: token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("speech: token request: unexpected status %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("speech: token decode: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("speech: token response missing access_token")
	}
	ttl, err := tr.ExpiresIn.Int64()
	if err != nil || ttl <= 0 {
		return "", fmt.Errorf("speech: token response has invalid expires_in %q", tr.ExpiresIn)
	}

	s.token = tr.AccessToken
	s.expires = time.Now().Add(time.Duration(ttl) * time.Second)
	return s.token, nil
}
