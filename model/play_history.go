package model

import "time"

// PlayHistory is one append-only record of a user playing a song. Records are
// never mutated or deleted; play counts are row counts over this log.
type PlayHistory struct {
	ID       int64     `json:"id"`
	UserID   int64     `json:"userId"`
	SongID   int64     `json:"songId"`
	PlayedAt time.Time `json:"playedAt"`
}
