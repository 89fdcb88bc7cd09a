package authadmin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// ErrNotConfigured is returned when no service key was provided.
var ErrNotConfigured = errors.New("auth admin client not configured")

// Client talks to the hosted auth server's admin API with the service-role key.
type Client struct {
	baseURL    string
	serviceKey string
	http       *http.Client
}

func NewClient(baseURL, serviceKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		http:       &http.Client{Timeout: 10 * time.Second},
	}
}

// APIError carries the auth server's own message so callers can surface it.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("auth server returned status %d", e.Status)
	}
	return fmt.Sprintf("auth server returned status %d: %s", e.Status, e.Message)
}

// CreateUser creates a confirmed account and returns its id.
func (c *Client) CreateUser(ctx context.Context, email, password, name string) (string, error) {
	payload := createUserRequest{
		Email:        email,
		Password:     password,
		EmailConfirm: true,
	}
	if name != "" {
		payload.UserMetadata = map[string]string{"name": name}
	}

	var user userResponse
	if err := c.do(ctx, http.MethodPost, "/auth/v1/admin/users", c.serviceKey, payload, &user); err != nil {
		return "", fmt.Errorf("failed to create user: %w", err)
	}
	if user.ID == "" {
		return "", errors.New("failed to create user: empty id in response")
	}
	return user.ID, nil
}

func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	if err := c.do(ctx, http.MethodDelete, "/auth/v1/admin/users/"+userID, c.serviceKey, nil, nil); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (c *Client) UpdatePassword(ctx context.Context, userID, password string) error {
	err := c.do(ctx, http.MethodPut, "/auth/v1/admin/users/"+userID, c.serviceKey, updateUserRequest{Password: password}, nil)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// Logout revokes the session that owns accessToken.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	if err := c.do(ctx, http.MethodPost, "/auth/v1/logout", accessToken, nil, nil); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path, bearer string, body, out any) error {
	if c.serviceKey == "" {
		log.Println("⚠️ Auth admin: SERVICE_ROLE_KEY not configured")
		return ErrNotConfigured
	}

	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	c.setHeaders(req, bearer)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request auth server: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e errorResponse
		_ = json.Unmarshal(raw, &e)
		log.Printf("❌ Auth admin %s %s (status %d): %s", method, path, resp.StatusCode, string(raw))
		return &APIError{Status: resp.StatusCode, Message: e.text()}
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode auth response: %w", err)
		}
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request, bearer string) {
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}
