package store

import (
	"sort"
	"sync"
	"time"

	"echofm/model"
)

// MemoryStore is an in-process implementation of CatalogStore and MediaStore.
// All entity kinds share a single auto-increment counter, and every mutation
// is serialized behind one mutex so concurrent play recordings never lose an
// append or reuse an identifier.
type MemoryStore struct {
	mu          sync.RWMutex
	users       map[int64]*model.User
	playlists   map[int64]*model.Playlist
	songs       map[int64]*model.Song
	playHistory map[int64]*model.PlayHistory
	audioFiles  map[string][]byte
	nextID      int64

	now func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[int64]*model.User),
		playlists:   make(map[int64]*model.Playlist),
		songs:       make(map[int64]*model.Song),
		playHistory: make(map[int64]*model.PlayHistory),
		audioFiles:  make(map[string][]byte),
		nextID:      1,
		now:         time.Now,
	}
}

// allocID hands out the next identifier. Callers must hold mu.
func (s *MemoryStore) allocID() int64 {
	id := s.nextID
	s.nextID++
	return id
}

// CreateUser adds a new user, rejecting duplicate usernames.
func (s *MemoryStore) CreateUser(user *model.User) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == user.Username {
			return nil, ErrDuplicateUser
		}
	}

	created := *user
	created.ID = s.allocID()
	s.users[created.ID] = &created

	out := created
	return &out, nil
}

// GetUser retrieves a user by ID.
func (s *MemoryStore) GetUser(id int64) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *user
	return &out, nil
}

// GetUserByUsername retrieves a user by their unique username.
func (s *MemoryStore) GetUserByUsername(username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Username == username {
			out := *user
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// CreatePlaylist adds a new playlist.
func (s *MemoryStore) CreatePlaylist(playlist *model.Playlist) (*model.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := *playlist
	created.ID = s.allocID()
	s.playlists[created.ID] = &created

	out := created
	return &out, nil
}

// Playlists returns all playlists ordered by ID.
func (s *MemoryStore) Playlists() ([]*model.Playlist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	playlists := make([]*model.Playlist, 0, len(s.playlists))
	for _, playlist := range s.playlists {
		out := *playlist
		playlists = append(playlists, &out)
	}
	sort.Slice(playlists, func(i, j int) bool { return playlists[i].ID < playlists[j].ID })
	return playlists, nil
}

// GetPlaylist retrieves a playlist by ID.
func (s *MemoryStore) GetPlaylist(id int64) (*model.Playlist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	playlist, ok := s.playlists[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *playlist
	return &out, nil
}

// CreateSong adds a new song. The referenced playlist must exist.
func (s *MemoryStore) CreateSong(song *model.Song) (*model.Song, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.playlists[song.PlaylistID]; !ok {
		return nil, ErrPlaylistNotFound
	}

	created := *song
	created.ID = s.allocID()
	s.songs[created.ID] = &created

	out := created
	return &out, nil
}

// GetSong retrieves a song by ID.
func (s *MemoryStore) GetSong(id int64) (*model.Song, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	song, ok := s.songs[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *song
	return &out, nil
}

// SongsByPlaylist returns the songs of a playlist ordered by ID. The scan is
// linear, which is fine at this store's scale.
func (s *MemoryStore) SongsByPlaylist(playlistID int64) ([]*model.Song, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	songs := make([]*model.Song, 0)
	for _, song := range s.songs {
		if song.PlaylistID == playlistID {
			out := *song
			songs = append(songs, &out)
		}
	}
	sort.Slice(songs, func(i, j int) bool { return songs[i].ID < songs[j].ID })
	return songs, nil
}

// RecordPlay appends one play-history record for the given user and song.
func (s *MemoryStore) RecordPlay(userID, songID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.allocID()
	s.playHistory[id] = &model.PlayHistory{
		ID:       id,
		UserID:   userID,
		SongID:   songID,
		PlayedAt: s.now(),
	}
	return nil
}

// PlayCount returns how many times a song has been played by anyone.
func (s *MemoryStore) PlayCount(songID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, record := range s.playHistory {
		if record.SongID == songID {
			count++
		}
	}
	return count, nil
}

// UserPlayCount returns how many times a user has played a song.
func (s *MemoryStore) UserPlayCount(userID, songID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, record := range s.playHistory {
		if record.UserID == userID && record.SongID == songID {
			count++
		}
	}
	return count, nil
}

// PutAudio stores raw audio bytes under the given file identifier.
func (s *MemoryStore) PutAudio(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, len(data))
	copy(buf, data)
	s.audioFiles[key] = buf
	return nil
}

// GetAudio retrieves the audio bytes stored under the given identifier.
func (s *MemoryStore) GetAudio(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.audioFiles[key]
	if !ok {
		return nil, ErrNotFound
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}
