package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// AdminClient calls the Supabase Admin API. It is used by the seeder to make
// sure a workspace owner exists, never on the request path.
type AdminClient struct {
	supabaseURL string
	serviceKey  string
	httpClient  *http.Client
}

// NewAdminClient requires the service role key.
func NewAdminClient(supabaseURL, serviceKey string) *AdminClient {
	return &AdminClient{
		supabaseURL: strings.TrimRight(supabaseURL, "/"),
		serviceKey:  serviceKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type createUserRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	EmailConfirm bool   `json:"email_confirm"`
}

type adminUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type listUsersResponse struct {
	Users []adminUser `json:"users"`
}

// EnsureUser returns the ID of the user with email, creating a confirmed
// account with password when none exists.
func (c *AdminClient) EnsureUser(ctx context.Context, email, password string) (string, error) {
	id, err := c.FindUserID(ctx, email)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}
	return c.CreateUser(ctx, email, password)
}

// FindUserID returns "" when no user has email.
func (c *AdminClient) FindUserID(ctx context.Context, email string) (string, error) {
	body, err := c.do(ctx, http.MethodGet, "/auth/v1/admin/users", nil, http.StatusOK)
	if err != nil {
		return "", fmt.Errorf("list users: %w", err)
	}

	var list listUsersResponse
	if err := json.Unmarshal(body, &list); err != nil {
		return "", fmt.Errorf("failed to decode list response: %w", err)
	}
	for _, u := range list.Users {
		if strings.EqualFold(u.Email, email) {
			return u.ID, nil
		}
	}
	return "", nil
}

// CreateUser creates an auto-confirmed user and returns its ID.
func (c *AdminClient) CreateUser(ctx context.Context, email, password string) (string, error) {
	body, err := c.do(ctx, http.MethodPost, "/auth/v1/admin/users", createUserRequest{
		Email:        email,
		Password:     password,
		EmailConfirm: true,
	}, http.StatusOK, http.StatusCreated)
	if err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}

	var user adminUser
	if err := json.Unmarshal(body, &user); err != nil {
		return "", fmt.Errorf("failed to decode create response: %w", err)
	}
	if user.ID == "" {
		return "", fmt.Errorf("create user: response has no id")
	}
	return user.ID, nil
}

func (c *AdminClient) do(ctx context.Context, method, path string, payload interface{}, okStatus ...int) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.supabaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("apikey", c.serviceKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	for _, s := range okStatus {
		if resp.StatusCode == s {
			return body, nil
		}
	}
	return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
}
