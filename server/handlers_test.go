package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"echofm/config"
	"echofm/model"
	"echofm/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.MemoryStore) {
	t.Helper()

	memory := store.NewMemoryStore()
	require.NoError(t, store.Seed(memory, memory))

	handler := NewAPIHandler(memory, memory, &config.Config{SessionKey: "test-session-key"})
	srv := httptest.NewServer(handler.Routes())
	t.Cleanup(srv.Close)
	return srv, memory
}

func newSessionClient(t *testing.T) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func postJSON(t *testing.T, client *http.Client, url string, body interface{}) *http.Response {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func login(t *testing.T, client *http.Client, baseURL, username, password string) {
	t.Helper()

	resp := postJSON(t, client, baseURL+"/api/login", CredentialsRequest{
		Username: username,
		Password: password,
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func loginAdmin(t *testing.T, client *http.Client, baseURL string) {
	t.Helper()
	login(t, client, baseURL, "admin@example.com", "admin123")
}

func TestAuthRequired(t *testing.T) {
	srv, _ := newTestServer(t)
	client := newSessionClient(t)

	resp, err := client.Get(srv.URL + "/api/playlists")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Empty(t, body, "the 401 carries no body")

	resp, err = client.Post(srv.URL+"/api/songs/4/play", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogin(t *testing.T) {
	srv, _ := newTestServer(t)
	client := newSessionClient(t)

	resp := postJSON(t, client, srv.URL+"/api/login", CredentialsRequest{
		Username: "admin@example.com",
		Password: "wrong",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = postJSON(t, client, srv.URL+"/api/login", CredentialsRequest{
		Username: "admin@example.com",
		Password: "admin123",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "admin@example.com", payload["username"])
	assert.NotContains(t, payload, "passwordHash", "password hashes never leave the server")
}

func TestRegisterAndLogout(t *testing.T) {
	srv, _ := newTestServer(t)
	client := newSessionClient(t)

	resp := postJSON(t, client, srv.URL+"/api/register", CredentialsRequest{
		Username: "carol@example.com",
		Password: "secret",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Registration signs the client in right away.
	userResp, err := client.Get(srv.URL + "/api/user")
	require.NoError(t, err)
	userResp.Body.Close()
	assert.Equal(t, http.StatusOK, userResp.StatusCode)

	resp = postJSON(t, client, srv.URL+"/api/register", CredentialsRequest{
		Username: "carol@example.com",
		Password: "other",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = postJSON(t, client, srv.URL+"/api/register", CredentialsRequest{Username: "dave@example.com"})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	logoutResp, err := client.Post(srv.URL+"/api/logout", "application/json", nil)
	require.NoError(t, err)
	logoutResp.Body.Close()
	require.Equal(t, http.StatusOK, logoutResp.StatusCode)

	userResp, err = client.Get(srv.URL + "/api/user")
	require.NoError(t, err)
	userResp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, userResp.StatusCode)
}

func TestCreatePlaylistIsAdminOnly(t *testing.T) {
	srv, _ := newTestServer(t)

	user := newSessionClient(t)
	resp := postJSON(t, user, srv.URL+"/api/register", CredentialsRequest{
		Username: "eve@example.com",
		Password: "secret",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, user, srv.URL+"/api/playlists", CreatePlaylistRequest{Title: "Mine"})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "non-admins get the same 401 as anonymous callers")

	admin := newSessionClient(t)
	loginAdmin(t, admin, srv.URL)

	resp = postJSON(t, admin, srv.URL+"/api/playlists", CreatePlaylistRequest{Title: ""})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, admin, srv.URL+"/api/playlists", CreatePlaylistRequest{
		Title:       "Evening",
		Description: "Wind down",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var created struct {
		ID    int64  `json:"id"`
		Title string `json:"title"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Evening", created.Title)
}

func TestListPlaylistsAndSongs(t *testing.T) {
	srv, _ := newTestServer(t)
	client := newSessionClient(t)
	loginAdmin(t, client, srv.URL)

	resp, err := client.Get(srv.URL + "/api/playlists")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var playlists []struct {
		ID    int64  `json:"id"`
		Title string `json:"title"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&playlists))
	require.Len(t, playlists, 2)
	assert.Equal(t, "Chill Vibes", playlists[0].Title)

	songsResp, err := client.Get(fmt.Sprintf("%s/api/playlists/%d/songs", srv.URL, playlists[0].ID))
	require.NoError(t, err)
	defer songsResp.Body.Close()
	require.Equal(t, http.StatusOK, songsResp.StatusCode)

	var songs []struct {
		Title      string `json:"title"`
		PlaylistID int64  `json:"playlistId"`
	}
	require.NoError(t, json.NewDecoder(songsResp.Body).Decode(&songs))
	require.Len(t, songs, 2)
	assert.Equal(t, "Ocean Waves", songs[0].Title)
	assert.Equal(t, playlists[0].ID, songs[0].PlaylistID)

	badResp, err := client.Get(srv.URL + "/api/playlists/abc/songs")
	require.NoError(t, err)
	badResp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, badResp.StatusCode)
}

func uploadSong(t *testing.T, client *http.Client, baseURL string, fields map[string]string, filename string, audio []byte) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if filename != "" {
		part, err := writer.CreateFormFile("audio", filename)
		require.NoError(t, err)
		_, err = part.Write(audio)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	resp, err := client.Post(baseURL+"/api/songs", writer.FormDataContentType(), &buf)
	require.NoError(t, err)
	return resp
}

func TestUploadSong(t *testing.T) {
	srv, _ := newTestServer(t)
	client := newSessionClient(t)
	loginAdmin(t, client, srv.URL)

	fields := map[string]string{
		"title":      "New Dawn",
		"artist":     "Morning Crew",
		"playlistId": "2",
	}

	resp := uploadSong(t, client, srv.URL, fields, "new-dawn.mp3", []byte("mp3data"))
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var song struct {
		ID        int64  `json:"id"`
		Title     string `json:"title"`
		AudioFile string `json:"audioFile"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&song))
	assert.Equal(t, "New Dawn", song.Title)
	assert.Equal(t, "new-dawn.mp3", song.AudioFile)

	resp = uploadSong(t, client, srv.URL, fields, "", nil)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "No audio file uploaded")

	fields["playlistId"] = "999"
	resp = uploadSong(t, client, srv.URL, fields, "lost.mp3", []byte("x"))
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStreamAudio(t *testing.T) {
	srv, _ := newTestServer(t)
	client := newSessionClient(t)
	loginAdmin(t, client, srv.URL)

	audio := []byte("raw mp3 bytes")
	resp := uploadSong(t, client, srv.URL, map[string]string{
		"title":      "Streamable",
		"artist":     "A",
		"playlistId": "2",
	}, "streamable.mp3", audio)
	var song struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&song))
	resp.Body.Close()

	audioResp, err := client.Get(fmt.Sprintf("%s/api/songs/%d/audio", srv.URL, song.ID))
	require.NoError(t, err)
	defer audioResp.Body.Close()
	require.Equal(t, http.StatusOK, audioResp.StatusCode)
	assert.Equal(t, "audio/mpeg", audioResp.Header.Get("Content-Type"))

	got, err := io.ReadAll(audioResp.Body)
	require.NoError(t, err)
	assert.Equal(t, audio, got)

	missingResp, err := client.Get(srv.URL + "/api/songs/999/audio")
	require.NoError(t, err)
	defer missingResp.Body.Close()
	assert.Equal(t, http.StatusNotFound, missingResp.StatusCode)
	body, err := io.ReadAll(missingResp.Body)
	require.NoError(t, err)
	assert.Empty(t, body)
}

func TestStreamAudioMissingBlob(t *testing.T) {
	srv, memory := newTestServer(t)
	client := newSessionClient(t)
	loginAdmin(t, client, srv.URL)

	// A song whose blob was never stored streams a 404, not a 500.
	song, err := memory.CreateSong(&model.Song{
		Title:      "Blobless",
		Artist:     "A",
		PlaylistID: 2,
		AudioFile:  "never-uploaded.mp3",
	})
	require.NoError(t, err)

	resp, err := client.Get(fmt.Sprintf("%s/api/songs/%d/audio", srv.URL, song.ID))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRecordPlayAndCount(t *testing.T) {
	srv, _ := newTestServer(t)
	client := newSessionClient(t)
	loginAdmin(t, client, srv.URL)

	// Play counts are public and start at zero.
	anonymous := newSessionClient(t)
	countResp, err := anonymous.Get(srv.URL + "/api/songs/4/plays")
	require.NoError(t, err)
	body, err := io.ReadAll(countResp.Body)
	countResp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, countResp.StatusCode)
	assert.Equal(t, "0", string(bytes.TrimSpace(body)), "the count is a bare JSON integer")

	for i := 0; i < 2; i++ {
		playResp, err := client.Post(srv.URL+"/api/songs/4/play", "application/json", nil)
		require.NoError(t, err)
		playResp.Body.Close()
		require.Equal(t, http.StatusOK, playResp.StatusCode)
	}

	countResp, err = anonymous.Get(srv.URL + "/api/songs/4/plays")
	require.NoError(t, err)
	body, err = io.ReadAll(countResp.Body)
	countResp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, "2", string(bytes.TrimSpace(body)))

	missingResp, err := client.Post(srv.URL+"/api/songs/999/play", "application/json", nil)
	require.NoError(t, err)
	missingResp.Body.Close()
	assert.Equal(t, http.StatusNotFound, missingResp.StatusCode)
}
