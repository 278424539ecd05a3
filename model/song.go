package model

// Song is a track belonging to exactly one playlist. AudioFile is the opaque
// key under which the raw audio bytes live in the media store.
type Song struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	PlaylistID int64  `json:"playlistId"`
	AudioFile  string `json:"audioFile"`
}
