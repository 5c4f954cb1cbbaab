// Package remote implements the backend ports against the managed bookmark
// service over HTTP: token-based auth endpoints and an owner-scoped REST
// record store. It holds the session tokens for the process and maps
// transport failures onto the shared sentinel errors.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/bookmarkvault/internal/client/backend"
	"github.com/dmitrijs2005/bookmarkvault/internal/client/models"
	"github.com/dmitrijs2005/bookmarkvault/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

const requestTimeout = 12 * time.Second

// Client talks to the managed service. It implements backend.Auth and
// backend.Persistence.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

// New constructs a Client for the service at baseURL (scheme + host, no
// trailing slash) using the project's public API key.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// SetSession installs tokens obtained out of band (e.g. pasted by the user).
func (c *Client) SetSession(accessToken, refreshToken string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = accessToken
	c.refreshToken = refreshToken
}

func (c *Client) token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken
}

// AccessToken returns the currently installed access token, if any. The
// realtime feed uses it when joining the owner's topic.
func (c *Client) AccessToken() string {
	return c.token()
}

// HasSession reports whether an access token is installed.
func (c *Client) HasSession() bool {
	return c.token() != ""
}

// serviceError is the error payload the record store returns on a rejected
// write. Its message is surfaced to the caller verbatim.
type serviceError struct {
	Message string `json:"message"`
	Msg     string `json:"msg"`
}

func (c *Client) do(ctx context.Context, method, path string, body any, headers map[string]string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if t := c.token(); t != "" {
		req.Header.Set("Authorization", "Bearer "+t)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return c.http.Do(req)
}

// mapError converts a non-2xx response into an error. 401 becomes
// common.ErrUnauthorized; anything else carries the service's own message.
func mapError(resp *http.Response) error {
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return common.ErrUnauthorized
	}

	var se serviceError
	data, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(data, &se); err == nil {
		if se.Message != "" {
			return errors.New(se.Message)
		}
		if se.Msg != "" {
			return errors.New(se.Msg)
		}
	}
	return fmt.Errorf("service error: %s", resp.Status)
}

// tokenClaims pulls the subject and expiry out of the access token without
// verifying the signature. The token is the service's; the client only needs
// to know who it names and whether it is still alive.
func (c *Client) tokenClaims() (subject string, err error) {
	t := c.token()
	if t == "" {
		return "", common.ErrNoSession
	}

	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(t, &claims); err != nil {
		return "", common.ErrInvalidToken
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return "", common.ErrTokenExpired
	}
	return claims.Subject, nil
}

type userPayload struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	UserMetadata struct {
		FullName  string `json:"full_name"`
		AvatarURL string `json:"avatar_url"`
	} `json:"user_metadata"`
}

func (p userPayload) toUser() *backend.User {
	return &backend.User{
		ID:        p.ID,
		Email:     p.Email,
		FullName:  p.UserMetadata.FullName,
		AvatarURL: p.UserMetadata.AvatarURL,
	}
}

// CurrentUser asks the auth endpoint who the installed token belongs to.
// Any failure (missing or expired token, transport error, non-2xx) yields
// common.ErrNoSession so callers fail closed.
func (c *Client) CurrentUser(ctx context.Context) (*backend.User, error) {
	if _, err := c.tokenClaims(); err != nil {
		return nil, common.ErrNoSession
	}

	resp, err := c.do(ctx, http.MethodGet, "/auth/v1/user", nil, nil)
	if err != nil {
		return nil, common.ErrNoSession
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, common.ErrNoSession
	}

	var p userPayload
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, common.ErrNoSession
	}
	return p.toUser(), nil
}

// AuthorizeURL builds the provider redirect that starts OAuth sign-in.
func (c *Client) AuthorizeURL(state, redirectTo string) string {
	q := url.Values{}
	q.Set("provider", "google")
	q.Set("state", state)
	q.Set("redirect_to", redirectTo)
	return c.baseURL + "/auth/v1/authorize?" + q.Encode()
}

type tokenResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         userPayload `json:"user"`
}

// ExchangeCode trades the authorization code for a session and installs the
// returned tokens.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*backend.User, error) {
	body := map[string]string{"auth_code": code}

	resp, err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type=authorization_code", body, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, mapError(resp)
	}
	defer resp.Body.Close()

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, err
	}

	c.SetSession(tr.AccessToken, tr.RefreshToken)
	return tr.User.toUser(), nil
}

// SignOut revokes the session server-side and always drops the local tokens.
func (c *Client) SignOut(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodPost, "/auth/v1/logout", nil, nil)
	if resp != nil {
		resp.Body.Close()
	}

	c.SetSession("", "")
	return err
}

// ListBookmarks fetches all of the owner's records, newest first.
func (c *Client) ListBookmarks(ctx context.Context, ownerID string) ([]models.Bookmark, error) {
	path := "/rest/v1/bookmarks?owner_id=eq." + url.QueryEscape(ownerID) + "&order=created_at.desc&select=*"

	resp, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, mapError(resp)
	}
	defer resp.Body.Close()

	var records []models.Bookmark
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, err
	}
	return records, nil
}

// CreateBookmark inserts one record and returns the canonical row as the
// service wrote it, id and created_at included.
func (c *Client) CreateBookmark(ctx context.Context, ownerID, bookmarkURL, title string) (*models.Bookmark, error) {
	body := map[string]string{
		"owner_id": ownerID,
		"url":      bookmarkURL,
		"title":    title,
	}
	headers := map[string]string{"Prefer": "return=representation"}

	resp, err := c.do(ctx, http.MethodPost, "/rest/v1/bookmarks", body, headers)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, mapError(resp)
	}
	defer resp.Body.Close()

	// the record store answers inserts with a one-element array
	var records []models.Bookmark
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, err
	}
	if len(records) != 1 {
		return nil, fmt.Errorf("unexpected insert response: %d records", len(records))
	}
	return &records[0], nil
}

// DeleteBookmark deletes by id constrained to the owner. An id the owner
// does not hold matches nothing and the call still succeeds.
func (c *Client) DeleteBookmark(ctx context.Context, id, ownerID string) error {
	path := "/rest/v1/bookmarks?id=eq." + url.QueryEscape(id) + "&owner_id=eq." + url.QueryEscape(ownerID)

	resp, err := c.do(ctx, http.MethodDelete, path, nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return mapError(resp)
	}
	return nil
}

var _ backend.Auth = (*Client)(nil)
var _ backend.Persistence = (*Client)(nil)
