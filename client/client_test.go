package client_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"echofm/client"
	"echofm/config"
	"echofm/core/player"
	"echofm/server"
	"echofm/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()

	memory := store.NewMemoryStore()
	require.NoError(t, store.Seed(memory, memory))

	handler := server.NewAPIHandler(memory, memory, &config.Config{SessionKey: "test-session-key"})
	srv := httptest.NewServer(handler.Routes())
	t.Cleanup(srv.Close)
	return srv
}

func TestLoginAndBrowse(t *testing.T) {
	srv := newTestAPI(t)
	ctx := context.Background()

	c, err := client.New(srv.URL)
	require.NoError(t, err)

	_, err = c.Login(ctx, "admin@example.com", "wrong")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.StatusCode)

	user, err := c.Login(ctx, "admin@example.com", "admin123")
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", user.Username)
	assert.True(t, user.IsAdmin)

	playlists, err := c.Playlists(ctx)
	require.NoError(t, err)
	require.Len(t, playlists, 2)

	songs, err := c.Songs(ctx, playlists[0].ID)
	require.NoError(t, err)
	require.Len(t, songs, 2)
	assert.Equal(t, "Ocean Waves", songs[0].Title)
}

func TestSessionCookiePersists(t *testing.T) {
	srv := newTestAPI(t)
	ctx := context.Background()

	c, err := client.New(srv.URL)
	require.NoError(t, err)

	// Not signed in yet.
	_, err = c.CurrentUser(ctx)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.StatusCode)

	registered, err := c.Register(ctx, "frank@example.com", "secret")
	require.NoError(t, err)

	current, err := c.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, current.ID)

	require.NoError(t, c.Logout(ctx))

	_, err = c.CurrentUser(ctx)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.StatusCode)
}

func TestPlayCountRoundTrip(t *testing.T) {
	srv := newTestAPI(t)
	ctx := context.Background()

	c, err := client.New(srv.URL)
	require.NoError(t, err)
	_, err = c.Login(ctx, "admin@example.com", "admin123")
	require.NoError(t, err)

	count, err := c.PlayCount(ctx, 4)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, c.RecordPlay(ctx, 4))
	require.NoError(t, c.RecordPlay(ctx, 4))

	count, err = c.PlayCount(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

type nullTransport struct{}

func (nullTransport) Play()             {}
func (nullTransport) Pause()            {}
func (nullTransport) Seek(float64)      {}
func (nullTransport) SkipBy(float64)    {}
func (nullTransport) Duration() float64 { return 0 }
func (nullTransport) SetVolume(float64) {}

// The client is the controller's play recorder: pressing play records the
// play on the server before the status flips to playing.
func TestControllerRecordsThroughClient(t *testing.T) {
	srv := newTestAPI(t)
	ctx := context.Background()

	c, err := client.New(srv.URL)
	require.NoError(t, err)
	_, err = c.Login(ctx, "admin@example.com", "admin123")
	require.NoError(t, err)

	songs, err := c.Songs(ctx, 2)
	require.NoError(t, err)
	require.NotEmpty(t, songs)

	controller := player.New(nullTransport{}, c)
	controller.SelectSong(songs[0])
	require.NoError(t, controller.Play(ctx))

	assert.Equal(t, player.StatusPlaying, controller.State().Status)

	count, err := c.PlayCount(ctx, songs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAudioDownload(t *testing.T) {
	srv := newTestAPI(t)
	ctx := context.Background()

	c, err := client.New(srv.URL)
	require.NoError(t, err)
	_, err = c.Login(ctx, "admin@example.com", "admin123")
	require.NoError(t, err)

	// Seeded blobs exist but hold no bytes.
	data, err := c.Audio(ctx, 4)
	require.NoError(t, err)
	assert.Empty(t, data)

	_, err = c.Audio(ctx, 999)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.StatusCode)
}
