package model

// Playlist is a curated collection of songs, created by an admin.
type Playlist struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}
