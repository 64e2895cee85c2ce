package social

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

const (
	maxPostAttempts = 3
	retryBackoff    = 2 * time.Second
)

// TokenStore persists a refreshed token pair onto the owning agent.
// The dispatcher saves before retrying so a crash mid-retry cannot lose
// rotated credentials.
type TokenStore interface {
	SaveTokens(ctx context.Context, agentID string, pair TokenPair) error
}

// TokenRefreshError means the refresh-token exchange itself failed. It is
// fatal: the user has to redo the OAuth handshake, so no retry helps.
type TokenRefreshError struct {
	AgentID string
	Err     error
}

func (e *TokenRefreshError) Error() string {
	return fmt.Sprintf("token refresh failed for agent %s: %v", e.AgentID, e.Err)
}

func (e *TokenRefreshError) Unwrap() error { return e.Err }

// PostFailedError is raised when the post attempt budget is exhausted.
// It carries the last underlying cause for diagnostics.
type PostFailedError struct {
	AgentID  string
	Attempts int
	Err      error
}

func (e *PostFailedError) Error() string {
	return fmt.Sprintf("post failed for agent %s after %d attempts: %v", e.AgentID, e.Attempts, e.Err)
}

func (e *PostFailedError) Unwrap() error { return e.Err }

// Dispatcher posts messages through an authenticated client, self-healing
// from token expiry with exactly one refresh per failed attempt and a
// shared attempt budget across both paths.
type Dispatcher struct {
	client Client
	store  TokenStore
	sleep  func(time.Duration) // swapped out in tests
}

func NewDispatcher(client Client, store TokenStore) *Dispatcher {
	return &Dispatcher{
		client: client,
		store:  store,
		sleep:  time.Sleep,
	}
}

// PostMessage publishes text on behalf of an agent.
//
// Per call: at most 3 total post attempts. An authorization-class failure
// (codes 400-403) triggers one refresh-token exchange; the new pair is
// persisted before the retried post, which runs without backoff. A refresh
// failure aborts immediately. Any other failure sleeps 2s and retries
// against the same budget.
func (d *Dispatcher) PostMessage(ctx context.Context, agentID string, tokens TokenPair, text string) (*Post, error) {
	var lastErr error

	for attempt := 1; attempt <= maxPostAttempts; attempt++ {
		post, err := d.client.PostText(ctx, tokens.AccessToken, text)
		if err == nil {
			return post, nil
		}
		lastErr = err

		if attempt == maxPostAttempts {
			break
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.AuthFailure() {
			log.Printf("[DISPATCH_REFRESH] agent %s: post attempt %d got code %d, refreshing token", agentID, attempt, apiErr.Code)

			refreshed, refreshErr := d.client.RefreshToken(ctx, tokens.RefreshToken)
			if refreshErr != nil {
				return nil, &TokenRefreshError{AgentID: agentID, Err: refreshErr}
			}
			if saveErr := d.store.SaveTokens(ctx, agentID, *refreshed); saveErr != nil {
				return nil, fmt.Errorf("persist refreshed tokens for agent %s: %w", agentID, saveErr)
			}

			tokens = *refreshed
			// Retry right away with the fresh token, no backoff.
			continue
		}

		log.Printf("[DISPATCH_RETRY] agent %s: post attempt %d failed: %v", agentID, attempt, err)
		d.sleep(retryBackoff)
	}

	return nil, &PostFailedError{AgentID: agentID, Attempts: maxPostAttempts, Err: lastErr}
}
