package store

import (
	"fmt"

	"echofm/core/auth"
	"echofm/model"
)

// Seed populates an empty catalog with the default admin account, two
// playlists and four songs with empty audio blobs. Restarting the process
// resets the in-memory store back to exactly this data.
func Seed(catalog CatalogStore, media MediaStore) error {
	hash, err := auth.HashPassword("admin123")
	if err != nil {
		return fmt.Errorf("failed to hash seed admin password: %w", err)
	}

	if _, err := catalog.CreateUser(&model.User{
		Username:     "admin@example.com",
		PasswordHash: hash,
		IsAdmin:      true,
	}); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	chill, err := catalog.CreatePlaylist(&model.Playlist{
		Title:       "Chill Vibes",
		Description: "Relaxing tunes for your downtime",
	})
	if err != nil {
		return fmt.Errorf("failed to seed playlist: %w", err)
	}

	workout, err := catalog.CreatePlaylist(&model.Playlist{
		Title:       "Workout Mix",
		Description: "High-energy songs to keep you motivated",
	})
	if err != nil {
		return fmt.Errorf("failed to seed playlist: %w", err)
	}

	songs := []*model.Song{
		{Title: "Ocean Waves", Artist: "Nature Sounds", PlaylistID: chill.ID, AudioFile: "ocean-waves.mp3"},
		{Title: "Gentle Rain", Artist: "Ambient Music", PlaylistID: chill.ID, AudioFile: "gentle-rain.mp3"},
		{Title: "Power Up", Artist: "Energy Beats", PlaylistID: workout.ID, AudioFile: "power-up.mp3"},
		{Title: "Fast Pace", Artist: "Workout Remix", PlaylistID: workout.ID, AudioFile: "fast-pace.mp3"},
	}
	for _, song := range songs {
		if _, err := catalog.CreateSong(song); err != nil {
			return fmt.Errorf("failed to seed song %q: %w", song.Title, err)
		}
		if err := media.PutAudio(song.AudioFile, []byte{}); err != nil {
			return fmt.Errorf("failed to seed audio blob %q: %w", song.AudioFile, err)
		}
	}

	return nil
}
