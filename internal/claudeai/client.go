// Package claudeai reads the rate-limit windows of a claude.ai subscription
// through the session-cookie web API.
package claudeai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultBaseURL = "https://claude.ai/api"
	requestTimeout = 10 * time.Second
	maxBodySize    = 1 << 20 // 1 MB
	keyPrefix      = "sk-ant-sid"
	userAgent      = "github.com/theirongolddev/ccpace/1.0"
)

var (
	ErrUnauthorized    = errors.New("claudeai: unauthorized (session key expired or invalid)")
	ErrRateLimited     = errors.New("claudeai: rate limited")
	ErrNoOrganizations = errors.New("claudeai: no organizations found")
)

// Client is safe for concurrent use.
type Client struct {
	sessionKey string
	baseURL    string
	http       *http.Client
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithClock replaces the time source used for FetchedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// ValidKey reports whether a session key has the expected shape.
func ValidKey(sessionKey string) bool {
	return strings.HasPrefix(strings.TrimSpace(sessionKey), keyPrefix)
}

// NewClient returns nil unless sessionKey looks like a claude.ai session key.
func NewClient(sessionKey string, opts ...Option) *Client {
	if !ValidKey(sessionKey) {
		return nil
	}
	sessionKey = strings.TrimSpace(sessionKey)
	c := &Client{
		sessionKey: sessionKey,
		baseURL:    defaultBaseURL,
		http:       &http.Client{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchAll resolves the first organization, then requests its usage and
// overage concurrently. Whatever succeeded is returned; Error carries the
// usage failure if any, else the overage failure.
func (c *Client) FetchAll(ctx context.Context) *SubscriptionData {
	out := &SubscriptionData{FetchedAt: c.now()}

	orgs, err := c.FetchOrganizations(ctx)
	switch {
	case err != nil:
		out.Error = err
		return out
	case len(orgs) == 0:
		out.Error = ErrNoOrganizations
		return out
	}
	out.Org = orgs[0]

	var (
		wg                   sync.WaitGroup
		usageErr, overageErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		out.Usage, usageErr = c.FetchUsage(ctx, out.Org.UUID)
	}()
	go func() {
		defer wg.Done()
		out.Overage, overageErr = c.FetchOverageLimit(ctx, out.Org.UUID)
	}()
	wg.Wait()

	out.Error = usageErr
	if out.Error == nil {
		out.Error = overageErr
	}
	return out
}

// FetchOrganizations lists the organizations visible to the session.
func (c *Client) FetchOrganizations(ctx context.Context) ([]Organization, error) {
	return getJSON[[]Organization](ctx, c, "/organizations", "organizations")
}

// FetchUsage returns the normalized rate-limit windows of an organization.
func (c *Client) FetchUsage(ctx context.Context, orgID string) (*ParsedUsage, error) {
	raw, err := getJSON[UsageResponse](ctx, c, "/organizations/"+url.PathEscape(orgID)+"/usage", "usage")
	if err != nil {
		return nil, err
	}
	return &ParsedUsage{
		FiveHour:       parseWindow(raw.FiveHour),
		SevenDay:       parseWindow(raw.SevenDay),
		SevenDayOpus:   parseWindow(raw.SevenDayOpus),
		SevenDaySonnet: parseWindow(raw.SevenDaySonnet),
	}, nil
}

// FetchOverageLimit returns the organization's extra-usage spend settings.
func (c *Client) FetchOverageLimit(ctx context.Context, orgID string) (*OverageLimit, error) {
	ol, err := getJSON[OverageLimit](ctx, c, "/organizations/"+url.PathEscape(orgID)+"/overage_spend_limit", "overage limit")
	if err != nil {
		return nil, err
	}
	return &ol, nil
}

// StatusError is a non-2xx response other than 401, 403 and 429.
type StatusError struct {
	Path string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("claudeai: %s returned status %d", e.Path, e.Code)
}

func getJSON[T any](ctx context.Context, c *Client, path, what string) (T, error) {
	var v T
	body, err := c.get(ctx, path)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return v, fmt.Errorf("claudeai: parsing %s: %w", what, err)
	}
	return v, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("claudeai: building request: %w", err)
	}
	req.AddCookie(&http.Cookie{Name: "sessionKey", Value: c.sessionKey})
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("claudeai: GET %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch code := resp.StatusCode; {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return nil, ErrUnauthorized
	case code == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case code < 200 || code > 299:
		return nil, &StatusError{Path: path, Code: code}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("claudeai: reading %s: %w", path, err)
	}
	return body, nil
}

func parseWindow(w *UsageWindow) *ParsedWindow {
	if w == nil {
		return nil
	}
	pct, ok := parseUtilization(w.Utilization)
	if !ok {
		return nil
	}
	pw := &ParsedWindow{Pct: pct}
	if w.ResetsAt == nil {
		return pw
	}
	if t, err := time.Parse(time.RFC3339, *w.ResetsAt); err == nil {
		pw.ResetsAt = t
	}
	return pw
}

// parseUtilization accepts 75, 0.75, "75%" or "0.75" and returns a fraction.
// Values above 1 are read as percentages.
func parseUtilization(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return 0, false
		}
		v, err = strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
		if err != nil {
			return 0, false
		}
	}
	if v > 1 {
		v /= 100
	}
	return v, true
}
