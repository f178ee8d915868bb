// Package upstream is the client for the externally owned property backend.
// Every call is a single request with no retries; the backend is authoritative
// for all durable state.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"estate-admin/internal/model"
)

// ErrUnauthorized is returned when the backend rejects the bearer token.
// Callers destroy the local session when they see it.
var ErrUnauthorized = errors.New("upstream: unauthorized")

// APIError carries the backend's human-readable message from a
// success:false envelope or a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("upstream: HTTP %d", e.StatusCode)
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Pagination *Pagination     `json:"pagination"`

	// The refresh endpoint returns its tokens at the top level.
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// NewClientWithHTTP is used by tests to substitute the transport.
func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (c *Client) do(ctx context.Context, method, path, token string, body interface{}) (*envelope, error) {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil, err
		}
		return nil, &APIError{StatusCode: resp.StatusCode}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Success {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	return &env, nil
}

type LoginResult struct {
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken"`
	User         *model.User `json:"user"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	env, err := c.do(ctx, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	var result LoginResult
	if err := json.Unmarshal(env.Data, &result); err != nil {
		return nil, err
	}
	if result.Token == "" || result.User == nil {
		return nil, &APIError{StatusCode: http.StatusOK, Message: "malformed login response"}
	}
	// Backends are not consistent about role casing.
	result.User.Role = model.ParseRole(string(result.User.Role))
	return &result, nil
}

// VerifyToken asks the backend whether token is still good. Any transport or
// decode failure is reported as an error so the guard can fail closed.
func (c *Client) VerifyToken(ctx context.Context, token string) (bool, error) {
	env, err := c.do(ctx, http.MethodPost, "/admin/verify-token", "", map[string]string{"token": token})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return false, nil
		}
		return false, err
	}
	return env.Success, nil
}

// Refresh exchanges refreshToken for a new token pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	env, err := c.do(ctx, http.MethodPost, "/auth/refresh", "", map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return "", "", err
	}
	if env.Token == "" || env.RefreshToken == "" {
		return "", "", &APIError{StatusCode: http.StatusOK, Message: "malformed refresh response"}
	}
	return env.Token, env.RefreshToken, nil
}

type propertyData struct {
	Property *model.Property `json:"property"`
}

type propertiesData struct {
	Properties []*model.Property `json:"properties"`
}

func (c *Client) patchProperty(ctx context.Context, token, id, action, reason string) (*model.Property, error) {
	body := map[string]string{}
	if reason != "" {
		body["reason"] = reason
	}
	env, err := c.do(ctx, http.MethodPatch, "/admin/properties/"+url.PathEscape(id)+"/"+action, token, body)
	if err != nil {
		return nil, err
	}

	var data propertyData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, err
	}
	return model.SanitizeProperty(data.Property), nil
}

func (c *Client) ApproveProperty(ctx context.Context, token, id, reason string) (*model.Property, error) {
	return c.patchProperty(ctx, token, id, "approve", reason)
}

func (c *Client) RejectProperty(ctx context.Context, token, id, reason string) (*model.Property, error) {
	return c.patchProperty(ctx, token, id, "reject", reason)
}

func (c *Client) PullDownProperty(ctx context.Context, token, id, reason string) (*model.Property, error) {
	return c.patchProperty(ctx, token, id, "pull-down", reason)
}

func (c *Client) ReactivateProperty(ctx context.Context, token, id, reason string) (*model.Property, error) {
	return c.patchProperty(ctx, token, id, "reactivate", reason)
}

type ListOptions struct {
	Page   int
	Limit  int
	Status string
	Type   string
}

func (o ListOptions) query() string {
	q := url.Values{}
	page := o.Page
	if page <= 0 {
		page = 1
	}
	limit := o.Limit
	if limit <= 0 {
		limit = 20
	}
	q.Set("page", fmt.Sprintf("%d", page))
	q.Set("limit", fmt.Sprintf("%d", limit))
	if o.Status != "" && o.Status != "all" {
		q.Set("status", strings.ToUpper(o.Status))
	}
	if o.Type != "" && o.Type != "all" {
		q.Set("type", strings.ToUpper(o.Type))
	}
	return q.Encode()
}

func (c *Client) ListProperties(ctx context.Context, token string, opts ListOptions) ([]*model.Property, *Pagination, error) {
	env, err := c.do(ctx, http.MethodGet, "/admin/properties?"+opts.query(), token, nil)
	if err != nil {
		return nil, nil, err
	}

	var data propertiesData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, nil, err
	}
	properties := make([]*model.Property, 0, len(data.Properties))
	for _, p := range data.Properties {
		properties = append(properties, model.SanitizeProperty(p))
	}
	return properties, env.Pagination, nil
}

func (c *Client) PendingProperties(ctx context.Context, token string, page, limit int) ([]*model.Property, *Pagination, error) {
	opts := ListOptions{Page: page, Limit: limit}
	env, err := c.do(ctx, http.MethodGet, "/admin/properties/pending?"+opts.query(), token, nil)
	if err != nil {
		return nil, nil, err
	}

	var data propertiesData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, nil, err
	}
	properties := make([]*model.Property, 0, len(data.Properties))
	for _, p := range data.Properties {
		properties = append(properties, model.SanitizeProperty(p))
	}
	return properties, env.Pagination, nil
}

func (c *Client) GetProperty(ctx context.Context, token, id string) (*model.Property, error) {
	env, err := c.do(ctx, http.MethodGet, "/properties/"+url.PathEscape(id), token, nil)
	if err != nil {
		return nil, err
	}

	var data propertyData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, err
	}
	return model.SanitizeProperty(data.Property), nil
}

type usersData struct {
	Users []*model.User `json:"users"`
}

type userData struct {
	User *model.User `json:"user"`
}

func (c *Client) ListUsers(ctx context.Context, token string, page, limit int) ([]*model.User, *Pagination, error) {
	env, err := c.do(ctx, http.MethodGet, "/admin/users?"+ListOptions{Page: page, Limit: limit}.query(), token, nil)
	if err != nil {
		return nil, nil, err
	}

	var data usersData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, nil, err
	}
	return data.Users, env.Pagination, nil
}

func (c *Client) GetUser(ctx context.Context, token, id string) (*model.User, error) {
	env, err := c.do(ctx, http.MethodGet, "/admin/users/"+url.PathEscape(id), token, nil)
	if err != nil {
		return nil, err
	}

	var data userData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, err
	}
	return data.User, nil
}

func (c *Client) UpdateUserStatus(ctx context.Context, token, id, status string) (*model.User, error) {
	env, err := c.do(ctx, http.MethodPatch, "/admin/users/"+url.PathEscape(id)+"/status", token, map[string]string{"status": status})
	if err != nil {
		return nil, err
	}

	var data userData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, err
	}
	return data.User, nil
}

type DashboardStats struct {
	TotalUsers      int     `json:"totalUsers"`
	TotalProperties int     `json:"totalProperties"`
	TotalRevenue    float64 `json:"totalRevenue"`
	ActiveListings  int     `json:"activeListings"`
	UserGrowth      float64 `json:"userGrowth"`
	PropertyGrowth  float64 `json:"propertyGrowth"`
	RevenueGrowth   float64 `json:"revenueGrowth"`
	ListingGrowth   float64 `json:"listingGrowth"`
}

func (c *Client) GetDashboardStats(ctx context.Context, token string) (*DashboardStats, error) {
	env, err := c.do(ctx, http.MethodGet, "/admin/dashboard/stats", token, nil)
	if err != nil {
		return nil, err
	}

	var stats DashboardStats
	if err := json.Unmarshal(env.Data, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

type ActivityLog struct {
	ID        string `json:"id"`
	Action    string `json:"action"`
	UserID    string `json:"userId,omitempty"`
	Details   string `json:"details,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

type activityLogsData struct {
	Logs []ActivityLog `json:"logs"`
}

func (c *Client) GetActivityLogs(ctx context.Context, token string, page, limit int) ([]ActivityLog, *Pagination, error) {
	env, err := c.do(ctx, http.MethodGet, "/admin/activity-logs?"+ListOptions{Page: page, Limit: limit}.query(), token, nil)
	if err != nil {
		return nil, nil, err
	}

	var data activityLogsData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, nil, err
	}
	return data.Logs, env.Pagination, nil
}
