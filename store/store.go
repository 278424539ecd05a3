package store

import (
	"errors"

	"echofm/model"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateUser is returned when a username is already taken.
	ErrDuplicateUser = errors.New("username already exists")
	// ErrPlaylistNotFound is returned by CreateSong when the referenced
	// playlist does not exist.
	ErrPlaylistNotFound = errors.New("playlist not found")
)

// CatalogStore defines the data operations for users, playlists, songs and
// the play history log.
type CatalogStore interface {
	CreateUser(user *model.User) (*model.User, error)
	GetUser(id int64) (*model.User, error)
	GetUserByUsername(username string) (*model.User, error)

	CreatePlaylist(playlist *model.Playlist) (*model.Playlist, error)
	Playlists() ([]*model.Playlist, error)
	GetPlaylist(id int64) (*model.Playlist, error)

	CreateSong(song *model.Song) (*model.Song, error)
	GetSong(id int64) (*model.Song, error)
	SongsByPlaylist(playlistID int64) ([]*model.Song, error)

	RecordPlay(userID, songID int64) error
	PlayCount(songID int64) (int, error)
	UserPlayCount(userID, songID int64) (int, error)
}

// MediaStore holds raw audio bytes keyed by an opaque file identifier.
type MediaStore interface {
	PutAudio(key string, data []byte) error
	GetAudio(key string) ([]byte, error)
}
