// Package managedauth talks to a hosted identity service exposing a
// GoTrue-style user endpoint.
package managedauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harvestlink/marketplace/internal/core/domain"
)

const (
	userPath       = "/auth/v1/user"
	defaultTimeout = 5 * time.Second
	maxBody        = 1 << 20
)

var ErrUnavailable = errors.New("managed auth unavailable")

type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

type Client struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	http    *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		timeout: timeout,
		http:    &http.Client{Timeout: timeout},
	}
}

type userResponse struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at"`
	UserMetadata     struct {
		Username  string `json:"username"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"user_metadata"`
}

// VerifyCredential returns domain.ErrInvalidCredentials when the service
// rejects the token and ErrUnavailable for anything it could not answer.
func (c *Client) VerifyCredential(ctx context.Context, token string) (*domain.ExternalProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+userPath, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, domain.ErrInvalidCredentials
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var body userResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode user: %v", ErrUnavailable, err)
	}
	if _, err := uuid.Parse(body.ID); err != nil {
		return nil, fmt.Errorf("%w: malformed user id %q", ErrUnavailable, body.ID)
	}

	return &domain.ExternalProfile{
		ID:               body.ID,
		Email:            body.Email,
		Username:         body.UserMetadata.Username,
		FirstName:        body.UserMetadata.FirstName,
		LastName:         body.UserMetadata.LastName,
		EmailConfirmedAt: body.EmailConfirmedAt,
	}, nil
}
