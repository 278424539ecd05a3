package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"echofm/cache"
	"echofm/logger"
	"echofm/model"
	"echofm/store"
)

// UploadSongHandler creates a song from a multipart form and stores its audio
// bytes. Admin only. Expected fields: title, artist, playlistId and a file
// field named "audio".
func (h *APIHandler) UploadSongHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil { // 32MB max memory
		http.Error(w, "Failed to parse multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		http.Error(w, "No audio file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	playlistID, err := strconv.ParseInt(r.FormValue("playlistId"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid playlist ID", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		logger.Error("failed to read uploaded audio", logger.ErrorField(err))
		http.Error(w, "Failed to read audio file", http.StatusInternalServerError)
		return
	}

	song, err := h.catalog.CreateSong(&model.Song{
		Title:      r.FormValue("title"),
		Artist:     r.FormValue("artist"),
		PlaylistID: playlistID,
		AudioFile:  header.Filename,
	})
	if err != nil {
		if errors.Is(err, store.ErrPlaylistNotFound) {
			http.Error(w, "Playlist not found", http.StatusNotFound)
			return
		}
		logger.Error("failed to create song", logger.ErrorField(err))
		http.Error(w, "Failed to create song", http.StatusInternalServerError)
		return
	}

	if err := h.media.PutAudio(song.AudioFile, data); err != nil {
		logger.Error("failed to store audio blob",
			logger.String("audioFile", song.AudioFile),
			logger.ErrorField(err))
		http.Error(w, "Failed to store audio file", http.StatusInternalServerError)
		return
	}

	logger.Info("song uploaded",
		logger.Int64("songId", song.ID),
		logger.String("title", song.Title),
		logger.Int("bytes", len(data)))
	respondJSON(w, http.StatusOK, song)
}

// StreamAudioHandler serves the raw audio bytes of a song.
func (h *APIHandler) StreamAudioHandler(w http.ResponseWriter, r *http.Request) {
	songID, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid song ID", http.StatusBadRequest)
		return
	}

	song, err := h.catalog.GetSong(songID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		logger.Error("failed to load song", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	data, err := h.media.GetAudio(song.AudioFile)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		logger.Error("failed to load audio blob",
			logger.String("audioFile", song.AudioFile),
			logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		logger.Warn("failed to write audio response", logger.ErrorField(err))
	}
}

// RecordPlayHandler appends a play-history record for the session user.
func (h *APIHandler) RecordPlayHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	songID, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid song ID", http.StatusBadRequest)
		return
	}

	if _, err := h.catalog.GetSong(songID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		logger.Error("failed to load song", logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.catalog.RecordPlay(userID, songID); err != nil {
		logger.Error("failed to record play",
			logger.Int64("songId", songID),
			logger.ErrorField(err))
		http.Error(w, "Failed to record play", http.StatusInternalServerError)
		return
	}

	// Best effort; the history log stays authoritative.
	if err := cache.IncrPlayCount(r.Context(), songID); err != nil {
		logger.Warn("failed to bump play count cache", logger.ErrorField(err))
	}

	w.WriteHeader(http.StatusOK)
}

// PlayCountHandler returns the global play count of a song as a bare integer.
func (h *APIHandler) PlayCountHandler(w http.ResponseWriter, r *http.Request) {
	songID, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid song ID", http.StatusBadRequest)
		return
	}

	if count, ok, err := cache.GetPlayCount(r.Context(), songID); err == nil && ok {
		respondJSON(w, http.StatusOK, count)
		return
	} else if err != nil {
		logger.Warn("failed to read play count cache", logger.ErrorField(err))
	}

	count, err := h.catalog.PlayCount(songID)
	if err != nil {
		logger.Error("failed to count plays",
			logger.Int64("songId", songID),
			logger.ErrorField(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := cache.SetPlayCount(r.Context(), songID, count); err != nil {
		logger.Warn("failed to prime play count cache", logger.ErrorField(err))
	}

	respondJSON(w, http.StatusOK, count)
}
