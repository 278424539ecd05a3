package server

import (
	"encoding/json"
	"net/http"

	"echofm/logger"
	"echofm/model"
)

// CreatePlaylistRequest is the body for playlist creation.
type CreatePlaylistRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// GetPlaylistsHandler returns all playlists.
func (h *APIHandler) GetPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	playlists, err := h.catalog.Playlists()
	if err != nil {
		logger.Error("failed to list playlists", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, playlists)
}

// GetPlaylistSongsHandler returns the songs of one playlist.
func (h *APIHandler) GetPlaylistSongsHandler(w http.ResponseWriter, r *http.Request) {
	playlistID, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid playlist ID", http.StatusBadRequest)
		return
	}

	songs, err := h.catalog.SongsByPlaylist(playlistID)
	if err != nil {
		logger.Error("failed to list songs",
			logger.Int64("playlistId", playlistID),
			logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, songs)
}

// CreatePlaylistHandler creates a playlist. Admin only.
func (h *APIHandler) CreatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	var req CreatePlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		http.Error(w, "Title is required", http.StatusBadRequest)
		return
	}

	playlist, err := h.catalog.CreatePlaylist(&model.Playlist{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		logger.Error("failed to create playlist", logger.ErrorField(err))
		http.Error(w, "Failed to create playlist", http.StatusInternalServerError)
		return
	}

	logger.Info("playlist created",
		logger.Int64("playlistId", playlist.ID),
		logger.String("title", playlist.Title))
	respondJSON(w, http.StatusOK, playlist)
}
