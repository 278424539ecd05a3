package store

import (
	"database/sql"
	"fmt"

	"echofm/model"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

// MySQLCatalogStore implements CatalogStore on top of MySQL. It is the
// persistent alternative to MemoryStore; the API contract is identical.
type MySQLCatalogStore struct {
	db *sql.DB
}

// OpenMySQL connects to MySQL using the given DSN and verifies the connection.
func OpenMySQL(dsn string) (*MySQLCatalogStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &MySQLCatalogStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *MySQLCatalogStore) Close() error {
	return s.db.Close()
}

// InitSchema creates the catalog tables if they don't exist.
func (s *MySQLCatalogStore) InitSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			username VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			is_admin BOOLEAN NOT NULL DEFAULT FALSE
		);`,
		`CREATE TABLE IF NOT EXISTS playlists (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			description TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS songs (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			artist VARCHAR(255) NOT NULL,
			playlist_id BIGINT NOT NULL,
			audio_file VARCHAR(255) NOT NULL,
			FOREIGN KEY (playlist_id) REFERENCES playlists(id)
		);`,
		`CREATE TABLE IF NOT EXISTS play_history (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			song_id BIGINT NOT NULL,
			played_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
	}
	for _, query := range statements {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create catalog table: %w", err)
		}
	}
	return nil
}

// CreateUser adds a new user to the database.
func (s *MySQLCatalogStore) CreateUser(user *model.User) (*model.User, error) {
	existing, err := s.GetUserByUsername(user.Username)
	if err != nil && err != ErrNotFound {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateUser
	}

	res, err := s.db.Exec(
		"INSERT INTO users (username, password_hash, is_admin) VALUES (?, ?, ?)",
		user.Username, user.PasswordHash, user.IsAdmin,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert ID for user: %w", err)
	}

	created := *user
	created.ID = id
	return &created, nil
}

// GetUser retrieves a user by ID.
func (s *MySQLCatalogStore) GetUser(id int64) (*model.User, error) {
	row := s.db.QueryRow("SELECT id, username, password_hash, is_admin FROM users WHERE id = ?", id)
	return scanUser(row)
}

// GetUserByUsername retrieves a user by username.
func (s *MySQLCatalogStore) GetUserByUsername(username string) (*model.User, error) {
	row := s.db.QueryRow("SELECT id, username, password_hash, is_admin FROM users WHERE username = ?", username)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.IsAdmin)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user row: %w", err)
	}
	return user, nil
}

// CreatePlaylist adds a new playlist.
func (s *MySQLCatalogStore) CreatePlaylist(playlist *model.Playlist) (*model.Playlist, error) {
	res, err := s.db.Exec(
		"INSERT INTO playlists (title, description) VALUES (?, ?)",
		playlist.Title, playlist.Description,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert playlist: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert ID for playlist: %w", err)
	}

	created := *playlist
	created.ID = id
	return &created, nil
}

// Playlists returns all playlists ordered by ID.
func (s *MySQLCatalogStore) Playlists() ([]*model.Playlist, error) {
	rows, err := s.db.Query("SELECT id, title, description FROM playlists ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	playlists := make([]*model.Playlist, 0)
	for rows.Next() {
		playlist := &model.Playlist{}
		if err := rows.Scan(&playlist.ID, &playlist.Title, &playlist.Description); err != nil {
			return nil, fmt.Errorf("failed to scan playlist row: %w", err)
		}
		playlists = append(playlists, playlist)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during playlist rows iteration: %w", err)
	}
	return playlists, nil
}

// GetPlaylist retrieves a playlist by ID.
func (s *MySQLCatalogStore) GetPlaylist(id int64) (*model.Playlist, error) {
	row := s.db.QueryRow("SELECT id, title, description FROM playlists WHERE id = ?", id)
	playlist := &model.Playlist{}
	err := row.Scan(&playlist.ID, &playlist.Title, &playlist.Description)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist row: %w", err)
	}
	return playlist, nil
}

// CreateSong adds a new song. The referenced playlist must exist.
func (s *MySQLCatalogStore) CreateSong(song *model.Song) (*model.Song, error) {
	if _, err := s.GetPlaylist(song.PlaylistID); err != nil {
		if err == ErrNotFound {
			return nil, ErrPlaylistNotFound
		}
		return nil, err
	}

	res, err := s.db.Exec(
		"INSERT INTO songs (title, artist, playlist_id, audio_file) VALUES (?, ?, ?, ?)",
		song.Title, song.Artist, song.PlaylistID, song.AudioFile,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert song: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert ID for song: %w", err)
	}

	created := *song
	created.ID = id
	return &created, nil
}

// GetSong retrieves a song by ID.
func (s *MySQLCatalogStore) GetSong(id int64) (*model.Song, error) {
	row := s.db.QueryRow("SELECT id, title, artist, playlist_id, audio_file FROM songs WHERE id = ?", id)
	song := &model.Song{}
	err := row.Scan(&song.ID, &song.Title, &song.Artist, &song.PlaylistID, &song.AudioFile)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan song row: %w", err)
	}
	return song, nil
}

// SongsByPlaylist returns the songs of a playlist ordered by ID.
func (s *MySQLCatalogStore) SongsByPlaylist(playlistID int64) ([]*model.Song, error) {
	rows, err := s.db.Query(
		"SELECT id, title, artist, playlist_id, audio_file FROM songs WHERE playlist_id = ? ORDER BY id",
		playlistID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs for playlist %d: %w", playlistID, err)
	}
	defer rows.Close()

	songs := make([]*model.Song, 0)
	for rows.Next() {
		song := &model.Song{}
		if err := rows.Scan(&song.ID, &song.Title, &song.Artist, &song.PlaylistID, &song.AudioFile); err != nil {
			return nil, fmt.Errorf("failed to scan song row: %w", err)
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during song rows iteration: %w", err)
	}
	return songs, nil
}

// RecordPlay appends one play-history record.
func (s *MySQLCatalogStore) RecordPlay(userID, songID int64) error {
	_, err := s.db.Exec(
		"INSERT INTO play_history (user_id, song_id) VALUES (?, ?)",
		userID, songID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert play record: %w", err)
	}
	return nil
}

// PlayCount returns how many times a song has been played by anyone.
func (s *MySQLCatalogStore) PlayCount(songID int64) (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM play_history WHERE song_id = ?", songID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count plays for song %d: %w", songID, err)
	}
	return count, nil
}

// UserPlayCount returns how many times a user has played a song.
func (s *MySQLCatalogStore) UserPlayCount(userID, songID int64) (int, error) {
	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM play_history WHERE user_id = ? AND song_id = ?",
		userID, songID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count plays for user %d song %d: %w", userID, songID, err)
	}
	return count, nil
}
