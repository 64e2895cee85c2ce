package social

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"net/url"
	"strings"
)

// AuthFlow holds everything the caller must keep between starting the
// handshake and receiving the callback: the PKCE verifier and CSRF state
// are stored on the agent record, the URL is handed to the user.
type AuthFlow struct {
	Verifier string
	State    string
	AuthURL  string
}

// BeginAuth generates the PKCE challenge (S256) and the authorization URL.
func (c *XClient) BeginAuth() (*AuthFlow, error) {
	verifierBytes := make([]byte, 32)
	if _, err := rand.Read(verifierBytes); err != nil {
		return nil, err
	}
	verifier := base64.RawURLEncoding.EncodeToString(verifierBytes)

	hash := sha256.Sum256([]byte(verifier))
	challenge := base64.RawURLEncoding.EncodeToString(hash[:])

	stateBytes := make([]byte, 16)
	if _, err := rand.Read(stateBytes); err != nil {
		return nil, err
	}
	state := base64.RawURLEncoding.EncodeToString(stateBytes)

	u, err := url.Parse(authorizeURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("response_type", "code")
	q.Set("client_id", c.clientID)
	q.Set("redirect_uri", c.redirectURL)
	q.Set("scope", strings.Join(oauthScopes, " "))
	q.Set("state", state)
	q.Set("code_challenge", challenge)
	q.Set("code_challenge_method", "S256")
	u.RawQuery = q.Encode()

	return &AuthFlow{
		Verifier: verifier,
		State:    state,
		AuthURL:  u.String(),
	}, nil
}
