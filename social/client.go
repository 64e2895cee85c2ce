// Package social posts generated text to X and keeps the OAuth2
// credentials that authorize it alive.
package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultAPIBase  = "https://api.x.com"
	defaultTokenURL = "https://api.x.com/2/oauth2/token"
	authorizeURL    = "https://x.com/i/oauth2/authorize"
)

var oauthScopes = []string{"tweet.read", "tweet.write", "users.read", "offline.access"}

// Post is a successfully published message.
type Post struct {
	ID  string
	URL string
}

// TokenPair is one access/refresh credential set.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Client is the slice of the X API this service consumes. Injected so
// tests can substitute fakes.
type Client interface {
	PostText(ctx context.Context, accessToken, text string) (*Post, error)
	RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error)
}

// APIError is a non-2xx response from the X API.
type APIError struct {
	Code int
	Body string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("x api error %d: %s", e.Code, e.Body)
}

// AuthFailure reports whether the error code is in the class that warrants
// a token refresh rather than a plain retry.
func (e *APIError) AuthFailure() bool {
	return e.Code >= 400 && e.Code <= 403
}

// XClient talks to the real X v2 API.
type XClient struct {
	httpClient   *http.Client
	clientID     string
	clientSecret string
	redirectURL  string
	apiBase      string
	tokenURL     string
}

func NewXClient(clientID, clientSecret, redirectURL string) *XClient {
	return &XClient{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURL:  redirectURL,
		apiBase:      defaultAPIBase,
		tokenURL:     defaultTokenURL,
	}
}

// PostText publishes one tweet with the given bearer token.
func (c *XClient) PostText(ctx context.Context, accessToken, text string) (*Post, error) {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.apiBase+"/2/tweets", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{Code: resp.StatusCode, Body: string(body)}
	}

	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return &Post{
		ID:  result.Data.ID,
		URL: fmt.Sprintf("https://x.com/i/web/status/%s", result.Data.ID),
	}, nil
}

// RefreshToken exchanges a refresh token for a fresh token pair.
func (c *XClient) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)
	data.Set("client_id", c.clientID)

	return c.tokenRequest(ctx, data)
}

// ExchangeCode trades an authorization code plus its PKCE verifier for the
// initial token pair.
func (c *XClient) ExchangeCode(ctx context.Context, code, verifier string) (*TokenPair, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("client_id", c.clientID)
	data.Set("redirect_uri", c.redirectURL)
	data.Set("code_verifier", verifier)

	return c.tokenRequest(ctx, data)
}

func (c *XClient) tokenRequest(ctx context.Context, data url.Values) (*TokenPair, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if c.clientSecret != "" {
		req.SetBasicAuth(c.clientID, c.clientSecret)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{Code: resp.StatusCode, Body: string(body)}
	}

	var token struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(token.ExpiresIn) * time.Second),
	}, nil
}
