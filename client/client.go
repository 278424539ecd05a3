// Package client is the HTTP API client used by the playback controller and
// the web shell. It keeps the session cookie across requests and never
// retries a failed call; errors are surfaced to the caller immediately.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"echofm/model"
)

// APIError carries the status and body text of a failed request.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("api request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Body)
}

// Client talks to the echofm API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the API at baseURL.
func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
	}, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(text))}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", path, err)
		}
	}
	return nil
}

// Register creates an account and signs the client in.
func (c *Client) Register(ctx context.Context, username, password string) (*model.User, error) {
	var user model.User
	err := c.doJSON(ctx, http.MethodPost, "/api/register",
		map[string]string{"username": username, "password": password}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Login signs the client in; the session cookie is kept for later calls.
func (c *Client) Login(ctx context.Context, username, password string) (*model.User, error) {
	var user model.User
	err := c.doJSON(ctx, http.MethodPost, "/api/login",
		map[string]string{"username": username, "password": password}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout ends the session.
func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/api/logout", nil, nil)
}

// CurrentUser returns the signed-in user.
func (c *Client) CurrentUser(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.doJSON(ctx, http.MethodGet, "/api/user", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Playlists lists all playlists.
func (c *Client) Playlists(ctx context.Context) ([]*model.Playlist, error) {
	var playlists []*model.Playlist
	if err := c.doJSON(ctx, http.MethodGet, "/api/playlists", nil, &playlists); err != nil {
		return nil, err
	}
	return playlists, nil
}

// Songs lists the songs of a playlist.
func (c *Client) Songs(ctx context.Context, playlistID int64) ([]*model.Song, error) {
	var songs []*model.Song
	path := fmt.Sprintf("/api/playlists/%d/songs", playlistID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &songs); err != nil {
		return nil, err
	}
	return songs, nil
}

// RecordPlay records a play for the session user. It satisfies the playback
// controller's PlayRecorder contract.
func (c *Client) RecordPlay(ctx context.Context, songID int64) error {
	path := fmt.Sprintf("/api/songs/%d/play", songID)
	return c.doJSON(ctx, http.MethodPost, path, nil, nil)
}

// PlayCount returns the global play count of a song.
func (c *Client) PlayCount(ctx context.Context, songID int64) (int, error) {
	var count int
	path := fmt.Sprintf("/api/songs/%d/plays", songID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &count); err != nil {
		return 0, err
	}
	return count, nil
}

// Audio fetches the raw audio bytes of a song.
func (c *Client) Audio(ctx context.Context, songID int64) ([]byte, error) {
	path := fmt.Sprintf("/api/songs/%d/audio", songID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(resp.Body)
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(text))}
	}
	return io.ReadAll(resp.Body)
}
