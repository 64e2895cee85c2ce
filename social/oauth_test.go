package social

import (
	"crypto/sha256"
	"encoding/base64"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBeginAuthBuildsPKCEChallenge(t *testing.T) {
	client := NewXClient("client-123", "", "http://localhost:8080/auth/x/callback")

	flow, err := client.BeginAuth()
	require.NoError(t, err)
	require.NotEmpty(t, flow.Verifier)
	require.NotEmpty(t, flow.State)

	u, err := url.Parse(flow.AuthURL)
	require.NoError(t, err)
	q := u.Query()

	require.Equal(t, "code", q.Get("response_type"))
	require.Equal(t, "client-123", q.Get("client_id"))
	require.Equal(t, "http://localhost:8080/auth/x/callback", q.Get("redirect_uri"))
	require.Equal(t, flow.State, q.Get("state"))
	require.Equal(t, "S256", q.Get("code_challenge_method"))
	require.Contains(t, q.Get("scope"), "tweet.write")
	require.Contains(t, q.Get("scope"), "offline.access")

	hash := sha256.Sum256([]byte(flow.Verifier))
	wantChallenge := base64.RawURLEncoding.EncodeToString(hash[:])
	require.Equal(t, wantChallenge, q.Get("code_challenge"))
}

func TestBeginAuthGeneratesUniqueState(t *testing.T) {
	client := NewXClient("client-123", "", "http://localhost:8080/auth/x/callback")

	first, err := client.BeginAuth()
	require.NoError(t, err)
	second, err := client.BeginAuth()
	require.NoError(t, err)

	require.NotEqual(t, first.State, second.State)
	require.NotEqual(t, first.Verifier, second.Verifier)
}

func TestAPIErrorAuthFailureClass(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{code: 399, want: false},
		{code: 400, want: true},
		{code: 401, want: true},
		{code: 402, want: true},
		{code: 403, want: true},
		{code: 404, want: false},
		{code: 429, want: false},
		{code: 500, want: false},
	}

	for _, tt := range tests {
		err := &APIError{Code: tt.code}
		if got := err.AuthFailure(); got != tt.want {
			t.Errorf("AuthFailure() for code %d = %v, want %v", tt.code, got, tt.want)
		}
	}
}
